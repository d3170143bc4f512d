// Package store persists client state across restarts in a local SQLite
// file.
//
// The store is a small key/value table. The client keeps its credentials
// there under the keys authToken, authRole and authUsername; logging out
// deletes them.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads while a command writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: two quizctl processes may share one file
//   - user_version: schema version, checked on open
package store
