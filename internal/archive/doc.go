// Package archive copies trade history into PostgreSQL.
//
// The archive is write-only: rows are inserted with ON CONFLICT DO NOTHING so
// re-exporting the same trades is harmless, and nothing is ever read back
// into the dashboard.
package archive
