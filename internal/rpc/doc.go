// Package rpc issues wallet commands off the event loop and routes each result
// back to exactly one continuation.
//
// # Flow
//
//	Connection.Issue ──> tea.Cmd (goroutine)
//	                        ├─> Pool.Do          bounded slots
//	                        ├─> Executor.Run     Backend.Execute + ParseResult
//	                        └─> Delivery         returned as a tea.Msg
//	Update (event loop) ──> Delivery.Resolve ──> Callback.Fire ──> next tea.Msg
//
// The continuation never runs on a worker goroutine. Workers only produce a
// Delivery; the program's Update resolves it, and only then is OnSuccess or
// OnError invoked.
//
// # Single-shot Callbacks
//
// A Callback is created per request. Fire consumes it: one branch runs, both
// references are dropped, and any later Fire is a no-op. Discard consumes it
// without running anything.
//
// # Shutdown
//
// Connection.Shutdown is a one-way switch. Issue returns a nil command once it
// is set, and deliveries already in flight are discarded when they reach the
// loop. Neither case is an error.
//
// # Transaction Errors
//
// IssueWithDefaultErrorHandling routes failures to an ErrorReporter, which
// hands out at most one TransactionErrorMsg until the shell calls Dismiss.
// Concurrent failures in that window are logged and dropped.
package rpc
