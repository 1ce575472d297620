package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/kbukum/compgraph/builtin"
	"github.com/kbukum/compgraph/plan"
)

type runOptions struct {
	plan   string
	inputs []string
	output string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run --plan <file> --input name=path...",
		Short: "Run a YAML plan over NDJSON inputs",
		Long: `Run resolves a YAML plan against the built-in operations and runs its
output graph. Every input the plan reads must be bound with --input.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := plan.LoadFile(opts.plan)
			if err != nil {
				return err
			}
			bindings, err := parseInputs(opts.inputs)
			if err != nil {
				return err
			}
			app, err := rootOpts.start(cmd)
			if err != nil {
				return err
			}
			g, err := def.Resolve(builtin.NewRegistry(), app.ResolveOptions()...)
			if err != nil {
				return multierr.Append(err, app.Shutdown())
			}
			return runGraph(cmd, rootOpts, g, bindings, opts.output)
		},
	}

	cmd.Flags().StringVarP(&opts.plan, "plan", "p", "", "plan definition file")
	cmd.Flags().StringArrayVarP(&opts.inputs, "input", "i", nil, "input binding as name=path (repeatable; files bound to one name are concatenated)")
	addOutputFlag(cmd, &opts.output)
	_ = cmd.MarkFlagRequired("plan")

	return cmd
}
