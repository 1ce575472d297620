// Package graph composes stages into immutable computation graphs and runs
// them lazily over bound inputs.
//
// A Graph starts from a named input (FromIter), a fixed source (FromSource)
// or a line-oriented file (FromFile). Every builder method returns a new
// Graph; earlier values stay valid and can be extended or run again.
//
//	counts := graph.FromIter("docs").
//		Map(builtin.Split("text", "")).
//		Sort("text").
//		Reduce(builtin.Count("count"), "text")
//
//	it, err := counts.Run(ctx, graph.Bindings{"docs": rowio.File("docs.ndjson")})
//
// Run checks bindings eagerly and returns BINDING_ERROR before any row is
// produced. Sources are opened on first pull, and nothing is materialized
// except inside Sort stages.
package graph
