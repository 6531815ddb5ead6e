// Package bootstrap brings a wallet connection online.
//
// A Loader is a state machine that lives inside the Bubble Tea program:
//
//	SelectingServer -> InitializingOrRestoring -> AwaitingInfo -> Syncing -> Finalized
//	                          |                        |
//	                          +--------> Failed <------+
//
// Blocking library calls (server probe, wallet detection, initialization) run
// inside tea.Cmd functions. Everything after the connection exists goes
// through rpc.Connection, so replies come back as rpc.Delivery messages that
// the shell resolves on the event loop.
//
// While syncing, one ticker polls syncstatus and periodically emits
// KeepVisibleMsg. Ticks carry a generation number, so bumping the generation
// when sync ends cancels both.
package bootstrap
