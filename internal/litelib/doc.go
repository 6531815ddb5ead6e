// Package litelib is the boundary to the light-wallet daemon.
//
// # Overview
//
// Everything walletlink knows about wallets goes through the Backend
// interface. The package does not interpret wallet semantics; it moves opaque
// command names and argument strings to the daemon and hands back the raw
// textual reply.
//
// # Boundary Calls
//
//   - CheckServer: GET /api/server/check?address=<addr>
//   - WalletExists: GET /api/wallet/exists
//   - InitializeExisting: POST /api/wallet/initialize {"server": addr}
//   - Execute: POST /api/execute {"command": c, "args": a}
//
// # Error Convention
//
// Backend methods never return Go errors. A failed probe is reported as
// false, and a failed text call is reported as a reply beginning with
// "Error: ". Such replies are not valid JSON, so the rpc package turns them
// into failures together with every other malformed reply.
//
// Example replies:
//   - "OK"
//   - {"latest_block_height": 2000000, "version": "1.4.2"}
//   - "Error: execute request: dial tcp 127.0.0.1:9067: connection refused"
//
// # Sentinels
//
// IsOK trims and case-folds before comparing, so "ok\n" and " Ok " both count
// as success for initialization.
package litelib
