// Package record defines the unit of data flowing through a graph.
//
// A Record maps field names to Values. A Value is a closed sum type: an
// integer, a float, a string, a list of values, a nested record, or the
// absence marker used to fill fields an outer join could not match. The zero
// Value is the absence marker.
//
// Records are treated as immutable once a stage has produced them. Stages
// that change a field build a new Record with With, Without or Clone.
package record
