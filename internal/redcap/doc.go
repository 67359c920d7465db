// Package redcap is the HTTP client for the REDCap data-capture API.
//
// REDCap exposes a single POST endpoint; every operation is a
// form-encoded request distinguished by its "content" field. The client
// covers the three operations redkit needs: record export (optionally
// restricted to records changed since a timestamp, to a list of
// instruments, or including survey fields), report export, and record
// import.
//
// Credentials come from the REDCAP_API_URL and REDCAP_API_TOKEN
// environment variables, read once into a Config at process start. The
// client is injected into the workflows as a capability; nothing in this
// module reads the environment after startup.
package redcap
