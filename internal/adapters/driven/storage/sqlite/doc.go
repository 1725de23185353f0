// Package sqlite persists standing queries in the STATE_DB file so alert
// state survives a restart.
//
// The driver is modernc.org/sqlite and the connection runs in WAL mode with a
// busy timeout. Numbered *.up.sql files in migrations/ are applied once each
// and recorded in schema_migrations. Vectors are stored as little-endian
// float32 blobs.
package sqlite
