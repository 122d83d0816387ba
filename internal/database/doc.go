// Package database provides SQLite-based report history for a11yreport.
//
// Every report run is stored with its per-impact counts and the
// fingerprints of its issues, so later runs against the same URL can be
// compared to find new and resolved issues.
//
// The database is a single file opened through modernc.org/sqlite, which
// keeps the binary CGO-free.
package database
