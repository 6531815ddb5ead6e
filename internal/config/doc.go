// Package config handles loading and parsing the walletlink configuration file.
//
// # Overview
//
// The configuration tells walletlink where the wallet daemon's HTTP API lives,
// where to write its log, how many backend calls may run at once and how often
// the bootstrap timers fire. Settings the user changes at runtime (server,
// theme) live in the settings package instead.
//
// # Configuration Discovery
//
// Load() resolves the config file in this order:
//  1. If an explicit path is provided, use it
//  2. Otherwise, use ~/.config/walletlink/config.toml (default)
//
// A missing file is not an error: Load returns Default().
//
// # Default Values
//
//   - API bind: 127.0.0.1:9067
//   - Log file: ~/.local/share/walletlink/walletlink.log
//   - Pool size: 4
//   - Default server: https://lightd1.pirate.black:443
//   - Deprecated servers: ["cryptoforge"]
//   - Timers: status_every 1s, keep_visible_every 10s, refresh_every 5s
//
// Example config.toml:
//
//	api_bind = "127.0.0.1:9067"
//	log_file = "~/.local/share/walletlink/walletlink.log"
//	pool_size = 8
//	deprecated_servers = ["cryptoforge", "oldnode"]
//	restore_command = ["walletlink-wizard", "--restore"]
//	status_every = "500ms"
//
// # Path Expansion
//
// Paths starting with "~" are expanded to the home directory and then made
// absolute. Durations use Go syntax ("1s", "250ms") and must be positive.
//
// # Error Handling
//
// Unreadable or malformed files return wrapped errors ("open config",
// "read config", "parse config"). Empty string values fall back to defaults.
package config
