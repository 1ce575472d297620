// Package stream provides lazy, pull-based row sequences.
//
// An Iterator yields rows one at a time on demand; no work happens until a
// consumer calls Next, and a consumer may stop at any point and Close the
// iterator. Each operator wraps its upstream iterator, so a chain of stages
// is a chain of small iterator values with no goroutines involved.
//
// A Source is a re-openable provider: every Open returns a fresh single-pass
// Iterator. Graph inputs are bound to Sources so one input can feed several
// branches of a graph and a graph can be run many times.
//
//	src := stream.Rows(rowA, rowB)
//	it, _ := src.Open(ctx)
//	rows, err := stream.Collect(ctx, it)
package stream
