// Package config loads frontdesk's configuration file.
//
// # Overview
//
// The config names the reservation server and tunes the realtime engine,
// the session cache and logging. Every field is optional; frontdesk works
// against a local server with no file at all.
//
// # Configuration Discovery
//
//  1. If a path is explicitly provided (--config), use it
//  2. Otherwise, use ~/.config/frontdesk/config.toml
//  3. If the file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing or empty, use defaults
//
// Files ending in .yaml or .yml are parsed as YAML with the same keys;
// anything else is TOML.
//
// # Default Values
//
//	server            127.0.0.1:8000
//	secure            false (ws:// and http://)
//	cache_backend     file (one JSON file per key); sqlite and memory also accepted
//	cache_dir         ~/.cache/frontdesk
//	cache_ttl         5m
//	queue_timeout     10s
//	flush_interval    500ms
//	echo_ttl          15s
//	chat_echo_ttl     5s
//	disconnect_grace  2s
//	undo_depth        5
//	log_path          ~/.local/state/frontdesk/frontdesk.log
//	log_level         info
//
// Durations use Go syntax ("750ms", "2m"). Zero or negative durations and
// unknown backends or log levels are rejected.
//
// # TOML Format
//
//	server = "reservations.example.com"
//	secure = true
//	cache_backend = "sqlite"
//	queue_timeout = "15s"
//
// # Error Handling
//
// Load returns errors for path expansion failures, read errors other than
// os.ErrNotExist, parse errors and invalid values. Parse and validation
// errors mention "parse config" so the CLI can point at the file.
//
// # Testing Considerations
//
// Tests set HOME with t.Setenv and write configs into t.TempDir; Default
// returns a ready Config for code that does not care about the file.
package config
