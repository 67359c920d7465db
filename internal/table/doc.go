// Package table provides the row-oriented text table that all redkit
// operations work on.
//
// This package contains the table model, the CSV codec, and the composite
// key resolver. All other internal packages import table; table imports
// nothing internal. This keeps it the foundational layer with no circular
// dependencies.
//
// Key design constraints:
//   - Every cell is text. There are no inferred types and no null marker;
//     the empty string is the canonical "no value" on disk.
//   - Tables are value-like and immutable by convention: operations return
//     new tables rather than mutating in place.
//   - Column names and their order are preserved across operations unless
//     an operation explicitly changes them.
package table
