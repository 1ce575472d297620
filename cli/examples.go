package cli

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/compgraph/algorithms"
	"github.com/kbukum/compgraph/graph"
	"github.com/kbukum/compgraph/rowio"
)

// textCommand builds a command running a text algorithm over one input file.
func textCommand(rootOpts *RootOptions, use, short string, build func(input string, c algorithms.TextColumns) *graph.Graph) *cobra.Command {
	var (
		input   string
		output  string
		columns algorithms.TextColumns
	)

	cmd := &cobra.Command{
		Use:   use + " --input <file>",
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g := build("input", columns)
			return runGraph(cmd, rootOpts, g, graph.Bindings{"input": rowio.File(input)}, output)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "NDJSON input file")
	cmd.Flags().StringVar(&columns.Doc, "doc-column", "doc_id", "document id field")
	cmd.Flags().StringVar(&columns.Text, "text-column", "text", "text field")
	cmd.Flags().StringVar(&columns.Result, "result-column", "", "result field (default depends on the command)")
	addOutputFlag(cmd, &output)
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// NewWordCountCommand creates the word-count command.
func NewWordCountCommand(rootOpts *RootOptions) *cobra.Command {
	return textCommand(rootOpts, "word-count", "Count words over all documents", algorithms.WordCount)
}

// NewTFIDFCommand creates the tf-idf command.
func NewTFIDFCommand(rootOpts *RootOptions) *cobra.Command {
	return textCommand(rootOpts, "tf-idf", "Build a tf-idf inverted index", algorithms.InvertedIndex)
}

// NewPMICommand creates the pmi command.
func NewPMICommand(rootOpts *RootOptions) *cobra.Command {
	return textCommand(rootOpts, "pmi", "Rank the top words of each document by PMI", algorithms.PMI)
}

// NewRoadSpeedCommand creates the road-speed command.
func NewRoadSpeedCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		times   string
		lengths string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "road-speed --times <file> --lengths <file>",
		Short: "Average road speed in km/h per weekday and hour",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g := algorithms.RoadSpeed("times", "lengths", algorithms.DefaultRoadColumns())
			return runGraph(cmd, rootOpts, g, graph.Bindings{
				"times":   rowio.File(times),
				"lengths": rowio.File(lengths),
			}, output)
		},
	}

	cmd.Flags().StringVar(&times, "times", "", "NDJSON edge traversal log")
	cmd.Flags().StringVar(&lengths, "lengths", "", "NDJSON edge geometry")
	addOutputFlag(cmd, &output)
	_ = cmd.MarkFlagRequired("times")
	_ = cmd.MarkFlagRequired("lengths")

	return cmd
}
