// Package bloomclient implements a client for a remote bloom-filter
// service reachable over a newline-delimited TCP text protocol.
//
// # Core Types
//
// Client is the entry point: it owns a single TCP connection, a
// reconnect supervisor, and the queues that keep command/response pairs
// matched in order. The unexported command type is the internal record
// created for each call and released once its response arrives.
//
// # Connection Lifecycle
//
// A Client starts in the Buffering state: calls queue up without a live
// connection. Once connected it moves to Ready, pipelining commands
// over the single socket and matching responses strictly in the order
// they were sent. If the connection drops, the reconnect supervisor
// retries with linear backoff; after MaxConnectionAttempts failed dials
// (counted until an explicit Reconnect, not reset by a successful
// connection) the client gives up and enters Unavailable, where every
// call fails immediately until an explicit call to Reconnect.
//
// # Safe Commands
//
// SetSafe, CheckSafe, BulkSafe, and MultiSafe wrap their plain
// counterparts with a coordinator that creates a missing filter on
// demand and resubmits the original command, holding later commands
// for the same filter until the retry resolves.
package bloomclient
