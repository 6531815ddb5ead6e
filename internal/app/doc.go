// Package app provides the orchestration layer for walletlink.
//
// # Overview
//
// This package is the composition root. It loads configuration and settings,
// routes logging, checks that the wallet daemon answers, and hands a
// bootstrap.Loader to the Bubble Tea shell.
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()              Read walletlink config
//	       ├─────> setupLogging()             Log file (TUI) or stderr (headless)
//	       ├─────> settings.Load()            Server and theme
//	       ├─────> litelib.NewClient()        HTTP client for the daemon
//	       ├─────> ensureDaemonAvailable()    Pre-flight check
//	       ├─────> bootstrap.New()            Connection state machine
//	       └─────> ui.Run()                   Start the program (blocks)
//
// # Headless Mode
//
// Headless mode is selected with Options.Headless or automatically when
// stdout is not a terminal. The program then runs without a renderer or
// input, logs to stderr, executes Options.Commands once the connection is
// ready and prints each reply as JSON.
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Configuration file invalid
//   - Log file cannot be opened
//   - Daemon not reachable at api_bind
//   - A headless command failed
//
// Bootstrap failures after startup are shown in the UI (or returned in
// headless mode); request failures never stop the program.
package app
