package commands

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/ranchkit/version"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configFile string
	envFile    string
	apiURL     string
	logLevel   string
	verbose    bool
}

// NewRootCommand builds the ranchctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "ranchctl",
		Short: "ranchctl - ranch data and live herd events from the terminal",
		Long: `ranchctl talks to a ranch management backend.

It signs in, queries the REST API with caching and retries, and streams
live herd events and notifications over the realtime channel. The simulate
command runs a local backend for development.`,
		Version: version.Get().String(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		FParseErrWhitelist: cobra.FParseErrWhitelist{},
		SilenceErrors:      true,
		SilenceUsage:       true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "Config file (default: ranchctl.yml in ./config, . or ~/.ranchctl)")
	flags.StringVar(&opts.envFile, "env-file", "", "Env file loaded before RANCHCTL_* variables are applied")
	flags.StringVar(&opts.apiURL, "api", "", "API base URL, overrides api.base_url")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Print the startup summary")

	root.AddCommand(
		newLoginCommand(opts),
		newLogoutCommand(opts),
		newWhoamiCommand(opts),
		newGetCommand(opts),
		newWatchCommand(opts),
		newNotificationsCommand(opts),
		newSimulateCommand(opts),
	)
	return root
}

// Execute runs the root command. Errors are already printed by the
// commands, so the caller only sets the exit code.
func Execute() error {
	return NewRootCommand().Execute()
}
