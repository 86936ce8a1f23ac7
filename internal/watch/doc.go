// Package watch coordinates rebuilds while a project is being edited.
//
// Start performs an initial build and then routes file events:
//
//   - Changed schedules an incremental rebuild.
//   - Created reloads the project config, then schedules a restart when the
//     file is an entry point under the new config and a rebuild otherwise.
//   - Deleted classifies the file against the current config and schedules
//     a restart or a rebuild.
//
// Restarts and rebuilds are debounced independently (RestartWindow and
// RebuildWindow). A restart disposes the compiler handle, reloads the config
// and compiles with a new handle. If the reload fails the session keeps its
// previous config but has no compiler; rebuilds report ErrNoCompiler until a
// later restart succeeds.
//
// Restart and rebuild may overlap. A rebuild that races a restart can run on
// a handle being disposed; the compiler reports that as a failure.
package watch
