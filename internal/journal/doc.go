// Package journal provides SQLite-backed history for incremental download
// runs.
//
// Each run of the incremental workflow appends one record: when it
// started, whether it was a full or partial fetch, how many rows came
// back, the resulting base size, and whether it succeeded. The journal
// lives in the same .incremental/ directory as the rest of the durable
// state, so deleting that directory resets history along with the base.
//
// The journal is strictly an audit trail. The state machine never reads
// it to make decisions; the timestamp file alone drives full-vs-partial
// behavior.
package journal
