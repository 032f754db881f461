package cmd

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/nfrund/together/internal/auth"
	"github.com/nfrund/together/internal/domain"
)

type tokenRequest struct {
	Member int64  `validate:"gt=0"`
	Email  string `validate:"omitempty,email"`
	Role   string `validate:"oneof=USER ADMIN"`
}

func newTokenCmd() *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Work with access tokens",
	}
	tokenCmd.AddCommand(newTokenIssueCmd())
	return tokenCmd
}

func newTokenIssueCmd() *cobra.Command {
	var req tokenRequest

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue an access token signed with TOGETHER_JWT_SECRET",
		Long: `Issue an access token the server accepts. The secret, issuer and lifetime
are read from the same TOGETHER_* variables the server uses.

Example:
  together-cli token issue --member 7 --role ADMIN`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validator.New().Struct(req); err != nil {
				return fmt.Errorf("invalid flags: %w", err)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
			raw, err := tokens.Issue(domain.Member{
				ID:    domain.MemberID(req.Member),
				Email: req.Email,
				Role:  req.Role,
			})
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), raw)
			return nil
		},
	}

	cmd.Flags().Int64VarP(&req.Member, "member", "m", 0, "Member idx placed in the token")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email claim")
	cmd.Flags().StringVarP(&req.Role, "role", "r", domain.RoleUser, "Role claim (USER, ADMIN)")
	_ = cmd.MarkFlagRequired("member")
	return cmd
}
