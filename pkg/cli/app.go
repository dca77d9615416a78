package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mondoohq/console-core/pkg/auth"
	"github.com/mondoohq/console-core/pkg/config"
	"github.com/mondoohq/console-core/pkg/console"
	"github.com/mondoohq/console-core/pkg/gql"
	"github.com/mondoohq/console-core/pkg/identity"
	"github.com/mondoohq/console-core/pkg/observability"
	"github.com/mondoohq/console-core/pkg/scope"
	"github.com/mondoohq/console-core/pkg/viewer"
)

// sessionKey is the session-store slot for the CLI's single session.
const sessionKey = "current"

// app is the composition root shared by the subcommands. Construction
// order is fixed: configuration, identity backend, auth machine, GraphQL
// client, then the services built on top of it.
type app struct {
	cfg      *config.Config
	logger   *logrus.Entry
	flags    *config.FlagResolver
	identity identity.Client
	machine  *auth.Machine
	sessions auth.SessionStore
	client   *gql.Client
	viewer   *viewer.Service
	scopes   *scope.Resolver
	console  *console.Service
	shutdown *observability.ShutdownManager
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, "text", "console-cli", os.Stderr)
	shutdown := observability.NewShutdownManager(logger, 10*time.Second)

	tracing, err := observability.InitTracing(ctx, cfg.Observability, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if tracing != nil {
		shutdown.Register(func(ctx context.Context) error {
			return observability.ShutdownTracing(ctx, tracing, logger)
		})
	}

	registry := observability.NewRegistry()
	if addr := cfg.Observability.MetricsAddr; addr != "" {
		srv := &http.Server{Addr: addr, Handler: observability.MetricsHandler(registry)}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.WithError(err).Warn("metrics server failed")
			}
		}()
		shutdown.Register(srv.Shutdown)
	}

	idClient, err := identity.NewClient(cfg.Identity)
	if err != nil {
		return nil, fmt.Errorf("failed to build identity client: %w", err)
	}

	machine := auth.NewMachine(idClient, logger)
	if err := machine.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start auth machine: %w", err)
	}
	shutdown.Register(func(context.Context) error {
		machine.Close()
		return nil
	})

	sessions, err := auth.NewSessionStore(cfg.Session)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	restoreSession(ctx, idClient, sessions, logger)

	refresher := auth.NewRefresher(machine, cfg.Session, logger)
	if err := refresher.Start(); err != nil {
		return nil, fmt.Errorf("failed to start token refresher: %w", err)
	}
	shutdown.Register(func(context.Context) error {
		refresher.Stop()
		return nil
	})

	flags := config.NewFlagResolver(cfg.Flags)

	// The route path closes over the resolver built right below; the
	// header is "/" until a command resolves a scope.
	var scopes *scope.Resolver
	client, err := gql.NewClient(gql.Options{
		Endpoint:    cfg.API.Endpoint(),
		TokenSource: machine.Token,
		FlagHeader:  flags.Header,
		RoutePath: func() string {
			if scopes == nil {
				return "/"
			}
			return scopes.Route().Path()
		},
		Metrics: gql.NewMetrics(registry),
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build GraphQL client: %w", err)
	}
	scopes = scope.NewResolver(client, logger)

	// The cache holds one session's data; discard it whenever the
	// session identity changes.
	machine.Subscribe(func(auth.Snapshot) {
		client.Reset()
	})

	viewerSvc := viewer.NewService(client, logger)
	if cfg.Identity.Provider == config.AuthProviderDevelopment {
		viewerSvc = viewer.NewDevService(logger)
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		flags:    flags,
		identity: idClient,
		machine:  machine,
		sessions: sessions,
		client:   client,
		viewer:   viewerSvc,
		scopes:   scopes,
		console:  console.NewService(client, logger),
		shutdown: shutdown,
	}, nil
}

// restoreSession resumes a persisted session when the backend supports
// it. Failures clear the stored handle so the next run starts clean.
func restoreSession(ctx context.Context, client identity.Client, sessions auth.SessionStore, logger *logrus.Entry) {
	restorer, ok := client.(identity.SessionRestorer)
	if !ok {
		return
	}
	stored, err := sessions.Load(ctx, sessionKey)
	if err != nil || stored.RefreshToken == "" {
		return
	}
	if _, err := restorer.RestoreSession(ctx, stored.RefreshToken); err != nil {
		logger.WithError(err).Debug("stored session restore failed")
		if err := sessions.Delete(ctx, sessionKey); err != nil {
			logger.WithError(err).Debug("failed to clear stored session")
		}
		return
	}
	logger.WithField("email", stored.Email).Debug("session restored")
}

func (a *app) close(ctx context.Context) {
	if err := a.shutdown.Run(ctx); err != nil {
		a.logger.WithError(err).Warn("shutdown incomplete")
	}
}

// resolveSpace loads the viewer and resolves the scope for a space ID,
// leaving the resolver's active scope set for permission checks.
func (a *app) resolveSpace(ctx context.Context, spaceID string) (*scope.SpaceScope, error) {
	v, _, err := a.viewer.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	if err := a.scopes.Resolve(ctx, scope.Route{SpaceID: spaceID}, v); err != nil {
		return nil, fmt.Errorf("failed to resolve space scope: %w", err)
	}

	sp := a.scopes.SpaceScope()
	if sp == nil {
		return nil, fmt.Errorf("space not found: %s", spaceID)
	}
	return sp, nil
}

// requirePermission checks the active scope for an IAM action.
func (a *app) requirePermission(action string) error {
	if !a.scopes.HasPermission(action) {
		return fmt.Errorf("missing permission: %s", action)
	}
	return nil
}
