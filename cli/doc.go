// Package cli implements the compgraph command line.
//
//	compgraph run --plan plan.yaml --input docs=docs.ndjson
//	compgraph word-count --input docs.ndjson
//	compgraph road-speed --times times.ndjson --lengths lengths.ndjson
//
// Configuration comes from compgraph.yml, .env files and COMPGRAPH_*
// variables; --log-level and --check-grouping override it.
package cli
