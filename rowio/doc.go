// Package rowio reads and writes rows as newline-delimited JSON.
//
// Each line holds one JSON object. Integers decode to int values, other
// numbers to floats, arrays to lists, objects to nested records and null
// to the absence marker. Writing is the inverse: fields are emitted in
// sorted order and integral floats keep a trailing ".0" so they decode
// back as floats.
package rowio
