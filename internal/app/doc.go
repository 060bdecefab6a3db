// Package app provides the orchestration layer for frontdesk.
//
// # Overview
//
// This package wires configuration, logging, the session cache, the REST
// client and the realtime engine, then hands the engine to a consumer: the
// TUI for Run, or a CLI command through Open and Start. It is the
// composition root; nothing below it knows about files or flags.
//
// # Architecture
//
//	┌──────────────┐
//	│   Open()     │ Wire everything, no network yet
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()        Read config.toml (or YAML)
//	       ├─────> prefs.Load()         Theme and mute preference
//	       ├─────> NewLogger()          JSON log file via zerolog
//	       ├─────> cache.Open()         file, sqlite or memory storage
//	       ├─────> cache.TabID()        Stable id for the socket URL
//	       ├─────> backend.NewClient()  REST fallback and reservation API
//	       ├─────> cache.Load()         Warm start from the last session
//	       └─────> realtime.New()       Engine over all of the above
//
//	Start():
//	┌─────────────────────────────────────────┐
//	│ StartEngine() goroutine                 │
//	│  └─> engine.Run(ctx)                    │
//	│       ├─> connect loop (while wanted)   │
//	│       └─> scheduler: frames and ticks   │
//	└─────────────────────────────────────────┘
//
// The socket is dialled only once a consumer calls Engine.Subscribe; the
// TUI subscribes for its lifetime, the tail command until interrupted.
//
// # Shutdown
//
// Cancelling the context passed to Start stops the engine. It drains the
// outbound queue, writes any unsaved change to the cache and closes its buses;
// Runner.Wait returns after that. Close then releases the cache storage
// and the log file, so callers stop the engine before closing the runtime.
//
// # Error Handling
//
// Fatal errors (returned from Open):
//   - Invalid config or prefs path
//   - Unknown cache backend or an unwritable cache dir
//   - A server address that cannot be turned into URLs
//
// Everything after startup is recoverable: dial failures back off and
// retry, expired socket messages fall back to REST, and the UI shows the
// state through the header badge and toasts.
//
// # Logging
//
// The terminal belongs to the TUI, so logs go to a JSON file
// (~/.local/state/frontdesk/frontdesk.log by default). Each package adds a
// "component" field; the logs command reads them back through logtail.
//
// # Usage Example
//
//	rt, err := app.Open(app.Options{ConfigPath: path})
//	if err != nil {
//		return err
//	}
//	defer rt.Close()
//
//	ctx, cancel := context.WithCancel(ctx)
//	runner := rt.Start(ctx)
//	release := rt.Engine.Subscribe()
//	// ... use rt.Engine ...
//	release()
//	cancel()
//	_ = runner.Wait()
package app
