// Package incremental drives the download-and-merge workflow that keeps a
// local CSV snapshot of a REDCap project current.
//
// Durable state lives next to the output file in a .incremental/
// directory: base.csv holds every record seen so far, .last_download
// holds the timestamp of the last successful fetch. With no prior state
// the runner fetches the full dataset; otherwise it fetches only records
// changed since the last timestamp minus a configurable overlap, and
// merges them into the base. Deleting .incremental/ forces a full
// re-fetch.
//
// The recorded timestamp is the time the fetch was initiated, not
// completed, so changes landing during a long fetch are picked up by the
// next run. Re-fetching an already-seen window is safe because the merge
// is keyed and last-write-wins.
//
// File writes use write-to-temp-then-rename, and the base file is always
// written before the timestamp file: a crash in between leaves an older
// timestamp over a valid base, which the next run simply re-merges.
package incremental
