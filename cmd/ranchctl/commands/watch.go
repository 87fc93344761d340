package commands

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	apperrors "github.com/kbukum/ranchkit/errors"
	"github.com/kbukum/ranchkit/live"
	"github.com/kbukum/ranchkit/logger"
	"github.com/kbukum/ranchkit/notify"
)

type watchOptions struct {
	output   string
	channels []string
	requests []string
	count    int
	duration time.Duration
	logSink  bool
}

func newWatchCommand(opts *globalOptions) *cobra.Command {
	o := &watchOptions{}
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream live herd events and notifications",
		Long: `Open the live connection with the stored session and stream herd
updates, health alerts and notifications as they arrive. The connection
reconnects with backoff when it drops. Muted notification categories (see
"ranchctl notifications mute") are skipped.

Output Formats:
  default - Colored human-readable lines
  json    - Line-delimited JSON for programmatic processing

Examples:
  ranchctl watch
  ranchctl watch --channel herd_alerts --output json
  ranchctl watch --request BOVINE_UPDATE --count 1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd, opts)
			if err != nil {
				return err
			}
			if o.output != "default" && o.output != "json" {
				return rt.print.fail("invalid output format",
					fmt.Sprintf("Unknown format: %s", o.output),
					"Valid formats: default, json")
			}
			return rt.run(cmd.Context(), func(ctx context.Context) error {
				return rt.watch(ctx, o)
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.output, "output", "o", "default", "Output format (default or json)")
	f.StringArrayVar(&o.channels, "channel", nil, "Extra channel to subscribe (repeatable)")
	f.StringArrayVar(&o.requests, "request", nil, "Request live data of this type once connected (repeatable)")
	f.IntVarP(&o.count, "count", "n", 0, "Exit after this many events (0 streams until interrupted)")
	f.DurationVar(&o.duration, "duration", 0, "Exit after this long (0 streams until interrupted)")
	f.BoolVar(&o.logSink, "log", false, "Also write notifications to the log")
	return cmd
}

// watchEvent is one line of json output. State changes are written but
// not counted towards --count.
type watchEvent struct {
	Kind         string               `json:"kind"`
	Update       *live.Update         `json:"update,omitempty"`
	Notification *notify.Notification `json:"notification,omitempty"`
	State        string               `json:"state,omitempty"`
}

func (rt *runtime) watch(ctx context.Context, o *watchOptions) error {
	if _, err := rt.requireSession(ctx); err != nil {
		return err
	}

	if o.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.duration)
		defer cancel()
	}
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	var (
		mu     sync.Mutex
		events int
	)
	emit := func(ev watchEvent) {
		mu.Lock()
		defer mu.Unlock()
		if o.count > 0 && events >= o.count {
			return
		}
		events++
		if o.output == "json" {
			rt.print.jsonLine(ev)
		} else if ev.Update != nil {
			rt.print.update(*ev.Update)
		} else if ev.Notification != nil {
			rt.print.notification(*ev.Notification)
		}
		if o.count > 0 && events >= o.count {
			stop()
		}
	}

	center := notify.NewCenter(notify.WithStore(rt.store.Store()))
	defer center.Close()
	if err := center.LoadPreferences(ctx); err != nil {
		rt.log.Warn("notification preferences not loaded", logger.ErrorFields("load_preferences", err))
	}
	unsubscribe := center.Subscribe(func(n notify.Notification) {
		emit(watchEvent{Kind: "notification", Notification: &n})
	})
	defer unsubscribe()

	var sink notify.Sink = center
	if o.logSink {
		sink = notify.Multi(center, notify.NewLogSink(rt.log))
	}

	m, err := live.New(rt.cfg.Live,
		live.WithIdentity(rt.session),
		live.WithNotifier(sink),
		live.WithMetrics(rt.metrics),
		live.WithChannels(o.channels...),
		live.WithUpdateListener(func(u live.Update) {
			emit(watchEvent{Kind: "update", Update: &u})
		}),
		live.WithStateListener(func(from, to live.State) {
			if o.output == "json" {
				mu.Lock()
				defer mu.Unlock()
				rt.print.jsonLine(watchEvent{Kind: "state", State: to.String()})
				return
			}
			rt.print.step("%s", to.String())
		}),
	)
	if err != nil {
		return rt.print.fail("invalid live configuration", err.Error())
	}

	for _, dataType := range o.requests {
		m.RequestLiveData(dataType, nil)
	}
	conn := live.NewComponent(m)
	if err := conn.Start(ctx); err != nil {
		return rt.print.fail("live connection failed", err.Error(),
			fmt.Sprintf("Check that %s is reachable", m.URL()))
	}
	defer func() { _ = conn.Stop(context.Background()) }()

	<-ctx.Done()
	switch err := m.ConnectionError(); {
	case apperrors.HasCode(err, apperrors.ErrCodeAuthFailed):
		return rt.print.fail("live authentication rejected", err.Error(),
			"Sign in again:\n  ranchctl login --email you@example.com")
	case err != nil && m.State() == live.StateClosed:
		return rt.print.fail("live connection closed", err.Error())
	}
	return nil
}
