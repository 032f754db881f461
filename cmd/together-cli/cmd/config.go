package cmd

import (
	"fmt"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// cliConfig is the subset of the server environment the CLI needs.
type cliConfig struct {
	JWTSecret string        `env:"TOGETHER_JWT_SECRET,required=true"`
	JWTIssuer string        `env:"TOGETHER_JWT_ISSUER,default=together"`
	TokenTTL  time.Duration `env:"TOGETHER_TOKEN_TTL,default=24h"`
}

func loadConfig() (*cliConfig, error) {
	_ = godotenv.Load()

	var cfg cliConfig
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	return &cfg, nil
}
