// Package logging provides the structured logger shared by every kiln subsystem.
//
// The package wraps Go's standard slog package with a small, subsystem-oriented
// API so that log lines from the watcher, the compiler and the CLI are tagged
// consistently and filtered by a single level.
//
// # Log Levels
//   - **Debug**: Event routing decisions, debounce activity, watch roots
//   - **Info**: Build start/finish, configuration reloads
//   - **Warn**: Compiler warnings, non-fatal watcher errors
//   - **Error**: Compile failures, configuration failures
//
// # Usage
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Watch", "Watching %d roots", len(roots))
//	logging.Debug("Session", "Rebuild scheduled for %s", path)
//	logging.Warn("FSWatch", "Watcher error: %v", err)
//	logging.Error("Compiler", err, "Build failed")
//
// # Subsystems
//
// Subsystem names in use: Bootstrap, Project, Watch, Session, Compiler,
// FSWatch, LiveReload, Metrics.
//
// Messages logged before InitForCLI is called are dropped at Debug and Info
// level and written to stderr at Warn and Error level.
//
// The logger is safe for concurrent use.
package logging
