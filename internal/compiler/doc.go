// Package compiler defines the compiler handle contract used by the watch
// session and provides ExecCompiler, which runs a project's build command
// and records a content-hashed Manifest in the assets build directory.
//
// A Handle is bound to one configuration snapshot. When entry points change
// the session disposes the handle and creates a new one from the reloaded
// configuration; other edits reuse the handle.
package compiler
