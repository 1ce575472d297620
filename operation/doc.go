// Package operation implements the stages of a computation graph.
//
// Every stage is an Operation: it wraps an upstream stream.Iterator and
// returns a lazy downstream one. There are three variants:
//
//   - Map applies a row-wise Mapper that yields zero, one or many rows per row.
//   - Reduce hands each maximal run of key-equal rows to a Reducer. It does
//     not sort: equal keys must already be contiguous.
//   - Join merges two inputs ordered by the same key with one of four
//     strategies (inner, left, right, full).
//
// Sort is the only stage that holds its whole input: it buffers and stably
// orders rows by key on the first pull.
//
// Errors raised by a Mapper or Reducer are returned unchanged from Next.
package operation
