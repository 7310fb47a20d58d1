// Package archive records the realtime event stream to Postgres.
//
// The Writer subscribes to leaderboard updates and new solves through
// the public listener API, batches rows, and flushes on batch size or
// a ticker. The archive is an optional sink: when it falls behind or
// the database is down, rows are dropped with a diagnostic rather than
// blocking event delivery.
package archive
