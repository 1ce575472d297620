package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile    string
	LogLevel      string
	CheckGrouping bool

	app *App
}

// validLevels lists the accepted --log-level values.
var validLevels = []string{"trace", "debug", "info", "warn", "error", "disabled"}

// NewRootCommand creates the root command for the compgraph CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "compgraph",
		Short: "Run lazy computation graphs over NDJSON rows",
		Long: `compgraph builds map, sort, reduce and join graphs and runs them over
newline-delimited JSON files. Results are written as NDJSON to stdout.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.LogLevel != "" && !slices.Contains(validLevels, opts.LogLevel) {
				return fmt.Errorf("invalid log level %q: must be one of %v", opts.LogLevel, validLevels)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default: compgraph.yml in standard locations)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (trace|debug|info|warn|error|disabled)")
	cmd.PersistentFlags().BoolVar(&opts.CheckGrouping, "check-grouping", false, "fail when reduce or join input is not grouped by its key")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewWordCountCommand(opts))
	cmd.AddCommand(NewTFIDFCommand(opts))
	cmd.AddCommand(NewPMICommand(opts))
	cmd.AddCommand(NewRoadSpeedCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// start builds the App for a command. Commands that run graphs call it
// from RunE so that config errors are reported as command errors.
func (o *RootOptions) start(cmd *cobra.Command) (*App, error) {
	if o.app != nil {
		return o.app, nil
	}
	app, err := NewApp(cmd.Context(), o, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	o.app = app
	return app, nil
}
