package compiler

import (
	"context"
	"errors"
	"fmt"

	"kiln/internal/project"
)

var (
	// ErrDisposed is reported when Compile runs on, or races with, a disposed handle.
	ErrDisposed = errors.New("compiler disposed")
	// ErrBuildFailed is reported when the build command exits unsuccessfully.
	ErrBuildFailed = errors.New("build failed")
)

// Mode selects development or production output.
type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeDevelopment, ModeProduction:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown mode %q (want %s or %s)", s, ModeDevelopment, ModeProduction)
	}
}

// Options configure a compiler handle for its whole lifetime.
type Options struct {
	Mode           Mode
	Target         string
	Sourcemap      bool
	LiveReloadPort int

	// OnWarning receives non-fatal build diagnostics.
	OnWarning func(message string)

	// OnCompileFailure is used when a Compile call does not supply its own.
	OnCompileFailure func(err error)
}

// CompileOptions configure a single Compile call.
type CompileOptions struct {
	OnCompileFailure func(err error)
}

// Handle is a live compiler bound to one configuration snapshot.
//
// Compile returns nil on failure and reports the cause through the failure
// callback; it never panics, including when it overlaps Dispose. Dispose is
// idempotent.
type Handle interface {
	Compile(ctx context.Context, opts CompileOptions) *Manifest
	Dispose()
}

// Factory creates a compiler handle for a configuration snapshot.
type Factory func(cfg *project.Config, opts Options) Handle

// ExecFactory is the default Factory, producing ExecCompiler handles.
func ExecFactory(cfg *project.Config, opts Options) Handle {
	return NewExecCompiler(cfg, opts)
}
