package commands

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/ranchkit/internal/simulator"
)

type simulateOptions struct {
	host     string
	port     int
	interval time.Duration
	seed     int64
}

func newSimulateCommand(opts *globalOptions) *cobra.Command {
	o := &simulateOptions{}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a local ranch backend for development",
		Long: `Serve the ranch REST API and the live endpoint from memory. Any email
and password can sign in. Generated herd events are published to the
ranch channels every --interval.

Examples:
  ranchctl simulate
  ranchctl simulate --port 9090 --interval 500ms --seed 7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newBaseRuntime(cmd, opts)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			cfg := rt.cfg.Simulator
			if flags.Changed("host") {
				cfg.Server.Host = o.host
			}
			if flags.Changed("port") {
				cfg.Server.Port = o.port
			}
			if flags.Changed("interval") {
				cfg.EventInterval = o.interval
			}
			if flags.Changed("seed") {
				cfg.Seed = o.seed
			}
			return rt.simulate(cmd.Context(), cfg)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.host, "host", "localhost", "Listen host")
	f.IntVarP(&o.port, "port", "p", 8080, "Listen port (0 picks a free port)")
	f.DurationVar(&o.interval, "interval", 2*time.Second, "Period of generated events (0 disables)")
	f.Int64Var(&o.seed, "seed", 0, "Seed for reproducible events")
	return cmd
}

func (rt *runtime) simulate(ctx context.Context, cfg simulator.Config) error {
	sim, err := simulator.New(cfg)
	if err != nil {
		return rt.print.fail("invalid simulator configuration", err.Error())
	}
	if err := rt.app.RegisterComponent(sim); err != nil {
		return err
	}
	for _, r := range sim.Routes() {
		rt.app.Summary.TrackRoute(r.Method, r.Path, shortHandler(r.Handler))
	}
	rt.app.OnReady(func(context.Context) error {
		rt.print.success("Simulator listening on http://%s (live endpoint ws://%s/ws)", sim.Addr(), sim.Addr())
		return nil
	})
	return rt.app.Run(ctx)
}

// shortHandler trims the package path from a gin handler name.
func shortHandler(name string) string {
	return name[strings.LastIndex(name, "/")+1:]
}

