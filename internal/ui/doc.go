// Package ui is the Bubble Tea shell around the bootstrap loader.
//
// The Model owns the event loop: every rpc.Delivery produced by a worker is
// resolved inside Update, so continuations and state changes only ever run on
// the loop. Messages the shell does not handle go to the bootstrap.Loader.
//
// Until the loader finishes, a centered dialog shows the bootstrap state,
// status line and sync progress. Esc hides it and bootstrap.KeepVisibleMsg
// brings it back. Once ready, the main view shows wallet info, the balance
// (refreshed every RefreshEvery) and a command prompt opened with ":".
// Replies are appended to a scrollable output pane. The prompt also accepts
// "log [n] [match]" to tail the log file.
//
// Transaction and connection errors open modals. Dismissing a transaction
// error releases the rpc.ErrorReporter so the next error can be shown.
//
// In headless mode the program runs without renderer or input. Bootstrap
// progress is logged, the requested Invocations run in order once connected,
// each reply is printed as JSON, and the program quits.
package ui
