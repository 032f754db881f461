package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/do/v2"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/trace"

	"github.com/nfrund/together/internal/auth"
	"github.com/nfrund/together/internal/config"
	"github.com/nfrund/together/internal/database"
	"github.com/nfrund/together/internal/members"
	"github.com/nfrund/together/internal/pubsub"
	"github.com/nfrund/together/internal/server"
	"github.com/nfrund/together/internal/together"
	"github.com/nfrund/together/internal/topicmgr"
	"github.com/nfrund/together/internal/websocket"
)

const healthCheckInterval = 30 * time.Second

// Tracing is the tracer handed to the bus plus the exporter shutdown.
type Tracing struct {
	Tracer   trace.Tracer
	Enabled  bool
	shutdown func(context.Context) error
}

// Shutdown flushes pending spans.
func (t *Tracing) Shutdown(ctx context.Context) error {
	return t.shutdown(ctx)
}

// watchedDirectory is a file directory whose hot reload stops on shutdown.
type watchedDirectory struct {
	*members.FileDirectory
	cancel context.CancelFunc
}

func (w *watchedDirectory) Shutdown() {
	w.cancel()
}

// NewInjector registers every service of the server. Services are built
// lazily on first Invoke and shut down in reverse dependency order.
func NewInjector(cfg *config.Config) *do.RootScope {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.Provide(injector, provideTracing)
	do.Provide(injector, provideBus)
	do.Provide(injector, provideTokens)
	do.Provide(injector, provideImages)
	do.Provide(injector, provideDatabase)
	do.Provide(injector, provideMembers)
	do.Provide(injector, provideTopics)
	do.Provide(injector, provideHub)
	do.Provide(injector, provideEndpoint)
	do.Provide(injector, provideServer)

	return injector
}

// Run builds the server and serves until ctx is done.
func Run(ctx context.Context, cfg *config.Config) error {
	injector := NewInjector(cfg)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		injector.ShutdownWithContext(shutdownCtx)
	}()

	srv, err := do.Invoke[*server.Server](injector)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}
	return srv.Start(ctx)
}

func provideTracing(i do.Injector) (*Tracing, error) {
	cfg := do.MustInvoke[*config.Config](i)
	tracer, shutdown, err := pubsub.SetupOTel(context.Background(), pubsub.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		ZipkinURL:   cfg.Tracing.ZipkinURL,
	})
	if err != nil {
		return nil, err
	}
	return &Tracing{Tracer: tracer, Enabled: cfg.Tracing.Enabled, shutdown: shutdown}, nil
}

func provideBus(i do.Injector) (*pubsub.WatermillBridge, error) {
	tracing := do.MustInvoke[*Tracing](i)
	if tracing.Enabled {
		return pubsub.NewWatermillBridgeWithTracer(tracing.Tracer), nil
	}
	return pubsub.NewWatermillBridge(), nil
}

func provideTokens(i do.Injector) (*auth.Tokens, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return auth.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL), nil
}

func provideImages(i do.Injector) (*members.ImageURLs, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return members.NewImageURLs(cfg.Images), nil
}

func provideDatabase(i do.Injector) (*database.Connection, error) {
	cfg := do.MustInvoke[*config.Config](i)
	conn := database.NewConnection(cfg.Surreal)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Surreal.QueryTimeout)
	defer cancel()
	if err := conn.Connect(ctx); err != nil {
		return nil, err
	}
	conn.StartMonitoring(healthCheckInterval)
	return conn, nil
}

func provideMembers(i do.Injector) (together.MemberLookup, error) {
	cfg := do.MustInvoke[*config.Config](i)
	images := do.MustInvoke[*members.ImageURLs](i)

	switch cfg.MemberSource {
	case "surreal":
		conn, err := do.Invoke[*database.Connection](i)
		if err != nil {
			return nil, fmt.Errorf("member database: %w", err)
		}
		return members.NewSurrealDirectory(conn, images), nil
	default:
		dir := members.NewFileDirectory(afero.NewOsFs(), cfg.MemberFile, images)
		if err := dir.Load(); err != nil {
			return nil, err
		}
		ctx, cancel := context.WithCancel(context.Background())
		if err := dir.Watch(ctx); err != nil {
			slog.Warn("member file hot reload disabled", "error", err)
		}
		return &watchedDirectory{FileDirectory: dir, cancel: cancel}, nil
	}
}

func provideTopics(_ do.Injector) (*topicmgr.Manager, error) {
	m := topicmgr.NewManager()
	if err := together.RegisterTopics(m); err != nil {
		return nil, err
	}
	return m, nil
}

func provideHub(i do.Injector) (*together.Hub, error) {
	cfg := do.MustInvoke[*config.Config](i)
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	tokens := do.MustInvoke[*auth.Tokens](i)
	lookup, err := do.Invoke[together.MemberLookup](i)
	if err != nil {
		return nil, err
	}
	bus := do.MustInvoke[*pubsub.WatermillBridge](i)

	return together.NewHub(tokens, lookup, together.NewPubSubBroadcaster(bus), together.WithLocation(loc)), nil
}

func provideEndpoint(i do.Injector) (*websocket.Endpoint, error) {
	cfg := do.MustInvoke[*config.Config](i)
	hub, err := do.Invoke[*together.Hub](i)
	if err != nil {
		return nil, err
	}
	bus := do.MustInvoke[*pubsub.WatermillBridge](i)
	topics := do.MustInvoke[*topicmgr.Manager](i)
	return websocket.NewEndpoint(hub, bus, topics, cfg.SendBuffer), nil
}

func provideServer(i do.Injector) (*server.Server, error) {
	endpoint, err := do.Invoke[*websocket.Endpoint](i)
	if err != nil {
		return nil, err
	}
	s, err := server.New(server.Dependencies{
		Config:   do.MustInvoke[*config.Config](i),
		Hub:      do.MustInvoke[*together.Hub](i),
		Tokens:   do.MustInvoke[*auth.Tokens](i),
		Endpoint: endpoint,
		Topics:   do.MustInvoke[*topicmgr.Manager](i),
	})
	if err != nil {
		return nil, err
	}
	s.RegisterRoutes()
	return s, nil
}
