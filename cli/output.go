package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbukum/compgraph/graph"
	"github.com/kbukum/compgraph/logger"
	"github.com/kbukum/compgraph/rowio"
)

// parseInputs turns repeated name=path flags into file bindings. Files
// bound to the same name are read one after another in flag order.
func parseInputs(specs []string) (graph.Bindings, error) {
	paths := make(map[string][]string, len(specs))
	for _, spec := range specs {
		name, path, ok := strings.Cut(spec, "=")
		if !ok || name == "" || path == "" {
			return nil, fmt.Errorf("invalid --input %q: want name=path", spec)
		}
		paths[name] = append(paths[name], path)
	}
	b := make(graph.Bindings, len(paths))
	for name, p := range paths {
		b[name] = rowio.Files(p...)
	}
	return b, nil
}

// runGraph runs g and writes its rows to the --output file or stdout.
func runGraph(cmd *cobra.Command, rootOpts *RootOptions, g *graph.Graph, b graph.Bindings, output string) error {
	app, err := rootOpts.start(cmd)
	if err != nil {
		return err
	}
	return app.RunTask(cmd.Context(), func(ctx context.Context) error {
		it, err := g.Run(ctx, b, app.RunOptions()...)
		if err != nil {
			return err
		}

		var w io.Writer = cmd.OutOrStdout()
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				_ = it.Close()
				return err
			}
			defer f.Close()
			w = f
		}

		n, err := rowio.WriteAll(ctx, w, it)
		if err != nil {
			return err
		}
		app.Logger.Info("graph finished", logger.Fields(logger.FieldGraph, g.Name(), logger.FieldRows, n))
		return nil
	})
}

func addOutputFlag(cmd *cobra.Command, output *string) {
	cmd.Flags().StringVarP(output, "output", "o", "", "output file (default: stdout)")
}
