// Package flows defines the origin/destination migration flow record and
// the in-memory series that every pipeline step reads and writes.
//
// A Record counts the people who moved from Origin to Destination in a
// given Year, optionally broken down by Sex and Age. Records are keyed by
// all non-value fields; for datasets without a demographic breakdown the
// key reduces to (origin, destination, year).
//
// Series values are treated as immutable: every function in this package
// returns new slices and never modifies the records it was given.
package flows
