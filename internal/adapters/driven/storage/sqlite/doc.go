// Package sqlite provides a unified SQLite-based implementation of the
// storage ports (EmbeddingCache and FeedbackLog) through a single
// database connection.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation
// that requires no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in
// the migrations/ directory. Each migration is a pair of .up.sql and
// .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.htsclass/data/htsclass.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode. The feedback table is append-only, so
// writers never block readers on the same rows.
package sqlite
