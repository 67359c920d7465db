// Package diff computes the minimal set of per-row changes that transform
// one keyed table into another.
//
// Both tables are treated as sets of rows indexed by their composite key.
// For each key present in both, the engine compares every non-key column
// by exact text equality and emits one Record holding the key columns plus
// only the columns whose value changed. Rows with no changes produce
// nothing. With AllowNew set, keys present only in the target emit a
// Record holding the key columns plus every non-blank column.
//
// Omitting unchanged columns keeps the downstream import payload minimal
// and avoids overwriting fields that were never touched locally. Blank
// filtering on new rows avoids asserting "this field is blank" for fields
// that were simply never set.
//
// Rows are aligned by a key-indexed lookup, never by sort order, so the
// two inputs may order their rows (and columns) independently.
package diff
