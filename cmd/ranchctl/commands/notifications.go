package commands

import (
	"context"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbukum/ranchkit/notify"
)

var categories = []string{
	notify.CategoryHealth,
	notify.CategoryProduction,
	notify.CategoryLocation,
	notify.CategorySystem,
	notify.CategoryGeneral,
}

func newNotificationsCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notif"},
		Short:   "Manage notification preferences",
		Long: `Mute or unmute notification categories. Preferences are kept in the
local store and applied by "ranchctl watch".

Categories: ` + strings.Join(categories, ", "),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	preference := func(use, short string, apply func(ctx context.Context, c *notify.Center, category string) error, done string) *cobra.Command {
		return &cobra.Command{
			Use:       use + " <category>",
			Short:     short,
			Args:      cobra.ExactArgs(1),
			ValidArgs: categories,
			RunE: func(cmd *cobra.Command, args []string) error {
				rt, err := newRuntime(cmd, opts)
				if err != nil {
					return err
				}
				category := strings.ToLower(args[0])
				if !slices.Contains(categories, category) {
					return rt.print.fail("unknown category "+args[0], "",
						"Valid categories: "+strings.Join(categories, ", "))
				}
				return rt.run(cmd.Context(), func(ctx context.Context) error {
					center, err := rt.notificationCenter(ctx)
					if err != nil {
						return err
					}
					defer center.Close()
					if err := apply(ctx, center, category); err != nil {
						return rt.print.fail("preferences not saved", err.Error())
					}
					rt.print.success("%s notifications %s", category, done)
					return nil
				})
			},
		}
	}

	cmd.AddCommand(
		preference("mute", "Stop showing a notification category",
			func(ctx context.Context, c *notify.Center, category string) error { return c.Mute(ctx, category) },
			"muted"),
		preference("unmute", "Show a muted notification category again",
			func(ctx context.Context, c *notify.Center, category string) error { return c.Unmute(ctx, category) },
			"unmuted"),
		&cobra.Command{
			Use:   "list",
			Short: "List categories and whether they are muted",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				rt, err := newRuntime(cmd, opts)
				if err != nil {
					return err
				}
				return rt.run(cmd.Context(), func(ctx context.Context) error {
					center, err := rt.notificationCenter(ctx)
					if err != nil {
						return err
					}
					defer center.Close()
					muted := center.Muted()
					for _, category := range categories {
						state := green.Sprint("on")
						if slices.Contains(muted, category) {
							state = yellow.Sprint("muted")
						}
						rt.print.info("%-11s %s", category, state)
					}
					return nil
				})
			},
		},
	)
	return cmd
}

func (rt *runtime) notificationCenter(ctx context.Context) (*notify.Center, error) {
	center := notify.NewCenter(notify.WithStore(rt.store.Store()))
	if err := center.LoadPreferences(ctx); err != nil {
		center.Close()
		return nil, rt.print.fail("preferences could not be loaded", err.Error())
	}
	return center, nil
}
