package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/ranchkit/bootstrap"
	apperrors "github.com/kbukum/ranchkit/errors"
	"github.com/kbukum/ranchkit/httpclient"
	"github.com/kbukum/ranchkit/kvstore"
	"github.com/kbukum/ranchkit/logger"
	"github.com/kbukum/ranchkit/observability"
	"github.com/kbukum/ranchkit/redis"
	"github.com/kbukum/ranchkit/session"
)

// runtime is the per-invocation wiring shared by the commands: config,
// lifecycle, the persisted store and the session on top of it.
type runtime struct {
	cfg     *AppConfig
	app     *bootstrap.App[*AppConfig]
	store   *kvstore.Component
	api     *httpclient.Component
	metrics *observability.Metrics
	print   printer
	log     *logger.Logger

	session *session.Session
}

// newRuntime wires the store and session on top of newBaseRuntime.
func newRuntime(cmd *cobra.Command, opts *globalOptions) (*runtime, error) {
	rt, err := newBaseRuntime(cmd, opts)
	if err != nil {
		return nil, err
	}
	// The redis import also registers the kvstore driver; the component
	// pings the server before the store opens.
	if rt.cfg.Store.Driver == kvstore.DriverRedis {
		if err := rt.app.RegisterComponent(redis.NewStoreComponent(rt.cfg.Store)); err != nil {
			return nil, err
		}
	}
	rt.store = kvstore.NewComponent(rt.cfg.Store)
	if err := rt.app.RegisterComponent(rt.store); err != nil {
		return nil, err
	}
	rt.app.OnStart(func(context.Context) error {
		rt.session = session.New(rt.store.Store())
		return nil
	})
	return rt, nil
}

// newBaseRuntime loads the config and builds the app with metrics but
// without opening the store.
func newBaseRuntime(cmd *cobra.Command, opts *globalOptions) (*runtime, error) {
	p := printer{out: cmd.OutOrStdout(), err: cmd.ErrOrStderr()}

	cfg, err := loadConfig(*opts)
	if err != nil {
		return nil, p.fail("configuration could not be loaded", err.Error(),
			"Check the file passed with --config or the RANCHCTL_* environment variables.")
	}

	appOpts := []bootstrap.Option{bootstrap.WithSummaryWriter(cmd.ErrOrStderr())}
	if !opts.verbose {
		appOpts = append(appOpts, bootstrap.WithoutSummary())
	}
	app, err := bootstrap.NewApp(cfg, appOpts...)
	if err != nil {
		return nil, p.fail("invalid configuration", err.Error())
	}

	rt := &runtime{
		cfg:   cfg,
		app:   app,
		print: p,
		log:   logger.Get(serviceName),
	}
	if cfg.Metrics.Endpoint != "" {
		if err := app.RegisterComponent(observability.NewMeterComponent(cfg.Metrics)); err != nil {
			return nil, err
		}
	}
	if rt.metrics, err = observability.NewMetrics(observability.Meter(serviceName)); err != nil {
		return nil, err
	}
	return rt, nil
}

// run executes task inside the bootstrap lifecycle.
func (rt *runtime) run(ctx context.Context, task func(ctx context.Context) error) error {
	return rt.app.RunTask(ctx, task)
}

// useAPI registers the REST adapter component. Requests carry the session
// token when one is stored; an expired token sends them unauthenticated.
func (rt *runtime) useAPI() error {
	rt.api = httpclient.NewComponent(httpclient.Config{
		Name:    "ranch-api",
		BaseURL: rt.cfg.API.BaseURL,
		Timeout: rt.cfg.API.Timeout,

		CircuitBreaker: rt.cfg.API.CircuitBreaker,
		RateLimit:      rt.cfg.API.RateLimit,

		Auth: httpclient.BearerTokenFunc(func(ctx context.Context) (string, error) {
			token, err := rt.session.Token(ctx)
			if apperrors.HasCode(err, apperrors.ErrCodeTokenExpired) {
				return "", nil
			}
			return token, err
		}),
	})
	return rt.app.RegisterComponent(rt.api)
}

// requireSession returns the signed-in identity or a printed error.
func (rt *runtime) requireSession(ctx context.Context) (session.Identity, error) {
	id, err := rt.session.Identity(ctx)
	if err != nil {
		return session.Identity{}, rt.print.fail("not signed in",
			fmt.Sprintf("No valid session was found (%v).", err),
			"Sign in first:\n  ranchctl login --email you@example.com")
	}
	return id, nil
}
