// Package builtin provides ready-made mappers and reducers.
//
// Mappers that do not find their input column pass the row through
// unchanged. Timestamps use the YYYYMMDDTHHMMSS[.ffffff] layout and
// coordinates are [longitude, latitude] lists.
//
// Register installs everything into a plan.Registry under snake_case names
// such as "lower_case", "split" and "top_n".
package builtin
