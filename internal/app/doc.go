// Package app provides application bootstrap and lifecycle management for kiln.
//
// # Architecture Overview
//
// The app package sits between the cobra commands and the build machinery:
//
// 1. **Bootstrap (`bootstrap.go`)**: logging, project configuration and metrics setup
// 2. **Configuration (`config.go`)**: runtime settings collected from flags and environment
// 3. **Modes (`modes.go`)**: the long-running dev watcher and the one-shot build
//
// ## Bootstrap
//
// NewApplication initializes logging (debug and silent flags), reads kiln.yaml or
// kiln.toml from the project root and, when metrics are enabled, installs an
// OpenTelemetry MeterProvider that writes to stderr. Without metrics the global
// no-op provider is used, so recording is always safe.
//
// ## Dev Mode
//
// RunDev starts the live reload server (when a port is configured), starts a
// watch session and blocks until SIGINT, SIGTERM or context cancellation:
//   - Rebuild start is broadcast to browsers as a LOG message
//   - A finished rebuild with a manifest is broadcast as RELOAD
//   - Compile failures are logged and forwarded to browsers
//   - Every build and config reload is recorded in metrics
//   - systemd is notified with READY=1 after the initial build and STOPPING=1 on shutdown
//
// ## Build Mode
//
// Build runs a single compile with a fresh compiler handle and returns the
// manifest, or the failure reported by the compiler.
//
// # Usage
//
//	cfg := app.NewConfig(".", compiler.ModeDevelopment, false)
//	cfg.LiveReloadPort = 8002
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return fmt.Errorf("bootstrap failed: %w", err)
//	}
//	defer application.Close()
//	return application.RunDev(ctx)
package app
