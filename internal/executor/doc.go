// Package executor is the boundary between the tool layer and the backing
// store. Tools hand it a read query and get back ordered rows of column maps
// or a QueryError carrying a human-readable detail.
//
// # Drivers
//
//	sqlite    modernc.org/sqlite (pure Go, the default)
//	sqlite3   github.com/mattn/go-sqlite3
//	postgres  github.com/lib/pq
//	mysql     github.com/go-sql-driver/mysql
//	libsql    github.com/tursodatabase/libsql-client-go (remote libsql/Turso)
//
// A sqlite DSN that looks like a URL (http://, https://, libsql://) is routed
// to the libsql connector automatically.
//
// # Timeouts
//
// Each Execute call runs under the configured query timeout in addition to
// the caller's context.
package executor
