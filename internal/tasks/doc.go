// Package tasks implements the durable background task queue and the worker
// pool that drains it. Tasks live in the same SQLite database as the record
// store, are claimed atomically, and carry a lease so work abandoned by a
// crashed worker is requeued.
package tasks
