// Package algorithms holds ready-made graphs built from the builtin
// operations: word count, a tf-idf inverted index, pointwise mutual
// information and average road speed.
//
// Each function returns an unbound graph; bind its inputs at Run time.
package algorithms
