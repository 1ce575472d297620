// Package plan builds graphs from declarative YAML definitions.
//
// A Definition names a set of graphs. Each graph reads a bound input or
// continues another graph, then appends map, reduce, sort and join stages.
// Map and reduce stages name operations looked up in a Registry:
//
//	name: word-count
//	output: counts
//	graphs:
//	  counts:
//	    input: docs
//	    stages:
//	      - map: split
//	        args: {column: text}
//	      - sort: [text]
//	      - reduce: count
//	        keys: [text]
//	        args: {result: count}
//
// Resolve turns a Definition into a graph.Graph. Unknown operation names
// fail with UNKNOWN_OPERATION and circular references with INVALID_CONFIG.
package plan
