// Package bootstrap orchestrates the lifecycle of ranchkit binaries.
//
// It validates typed configuration, starts registered components in order,
// runs startup and shutdown hooks, and stops everything on OS signals.
//
// # Quick Start
//
//	app, err := bootstrap.NewApp(&cfg)
//	if err != nil {
//	    return err
//	}
//	app.RegisterComponent(live.NewComponent(manager))
//	return app.RunTask(ctx, func(ctx context.Context) error {
//	    <-ctx.Done()
//	    return nil
//	})
//
// Run blocks until SIGINT/SIGTERM for long-running processes such as the
// simulator. RunTask suits one-shot CLI commands.
package bootstrap
