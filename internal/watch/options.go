package watch

import (
	"context"
	"time"

	"kiln/internal/compiler"
	"kiln/internal/fswatch"
	"kiln/internal/project"
)

const (
	// RestartWindow is the quiet period before a restart runs. It is longer
	// than RebuildWindow so that a rename's delete and create coalesce.
	RestartWindow = 500 * time.Millisecond

	// RebuildWindow is the quiet period before an incremental rebuild runs.
	RebuildWindow = 100 * time.Millisecond

	// DefaultTarget is the platform the compiler builds for when unset.
	DefaultTarget = "node14"
)

// BuildKind distinguishes the three ways a compile is triggered.
type BuildKind string

const (
	BuildInitial BuildKind = "initial"
	BuildRebuild BuildKind = "rebuild"
	BuildRestart BuildKind = "restart"
)

// EventSource delivers file events for the watch roots.
type EventSource interface {
	Events() <-chan fswatch.Event
	Errors() <-chan error
	Close() error
}

// SourceFactory opens an EventSource on the given roots.
type SourceFactory func(roots []string) (EventSource, error)

// FSWatchSource is the default SourceFactory. It ignores files that exist
// at startup and waits for writes to settle before reporting them.
func FSWatchSource(roots []string) (EventSource, error) {
	return fswatch.New(roots, fswatch.Options{
		StabilityThreshold: fswatch.DefaultStabilityThreshold,
		PollInterval:       fswatch.DefaultPollInterval,
	})
}

// Options configure a watch session. Every field is optional.
type Options struct {
	// Mode defaults to compiler.ModeDevelopment.
	Mode compiler.Mode

	// LiveReloadPort is passed to the compiler; zero means unset.
	LiveReloadPort int

	// Target defaults to DefaultTarget.
	Target string

	// Sourcemap defaults to true.
	Sourcemap *bool

	// ReloadConfig defaults to a project.Loader, which reads the config
	// with project.ReadConfig and shares concurrent reads.
	ReloadConfig func(ctx context.Context, rootDir string) (*project.Config, error)

	// NewCompiler defaults to compiler.ExecFactory.
	NewCompiler compiler.Factory

	// NewSource defaults to FSWatchSource.
	NewSource SourceFactory

	// RestartWindow and RebuildWindow override the debounce windows.
	RestartWindow time.Duration
	RebuildWindow time.Duration

	OnInitialBuild  func(d time.Duration)
	OnRebuildStart  func()
	OnRebuildFinish func(d time.Duration, m *compiler.Manifest)
	OnFileCreated   func(path string)
	OnFileChanged   func(path string)
	OnFileDeleted   func(path string)

	// OnWarning defaults to a compiler.WarnOnce owned by the session.
	OnWarning func(message string)

	// OnCompileFailure defaults to compiler.LogCompileFailure.
	OnCompileFailure func(err error)

	// OnBuild is called after every compile attempt with its kind, duration
	// and whether it produced a manifest.
	OnBuild func(kind BuildKind, d time.Duration, ok bool)

	// OnConfigReload is called after every config reload with its error, if any.
	OnConfigReload func(err error)
}

func (o Options) withDefaults() Options {
	if o.Mode == "" {
		o.Mode = compiler.ModeDevelopment
	}
	if o.Target == "" {
		o.Target = DefaultTarget
	}
	if o.Sourcemap == nil {
		sourcemap := true
		o.Sourcemap = &sourcemap
	}
	if o.ReloadConfig == nil {
		loader := &project.Loader{}
		o.ReloadConfig = loader.Load
	}
	if o.NewCompiler == nil {
		o.NewCompiler = compiler.ExecFactory
	}
	if o.NewSource == nil {
		o.NewSource = FSWatchSource
	}
	if o.RestartWindow <= 0 {
		o.RestartWindow = RestartWindow
	}
	if o.RebuildWindow <= 0 {
		o.RebuildWindow = RebuildWindow
	}

	if o.OnInitialBuild == nil {
		o.OnInitialBuild = func(time.Duration) {}
	}
	if o.OnRebuildStart == nil {
		o.OnRebuildStart = func() {}
	}
	if o.OnRebuildFinish == nil {
		o.OnRebuildFinish = func(time.Duration, *compiler.Manifest) {}
	}
	if o.OnFileCreated == nil {
		o.OnFileCreated = func(string) {}
	}
	if o.OnFileChanged == nil {
		o.OnFileChanged = func(string) {}
	}
	if o.OnFileDeleted == nil {
		o.OnFileDeleted = func(string) {}
	}
	if o.OnWarning == nil {
		o.OnWarning = compiler.NewWarnOnce(compiler.DefaultWarnCacheSize).Warn
	}
	if o.OnCompileFailure == nil {
		o.OnCompileFailure = compiler.LogCompileFailure
	}
	if o.OnBuild == nil {
		o.OnBuild = func(BuildKind, time.Duration, bool) {}
	}
	if o.OnConfigReload == nil {
		o.OnConfigReload = func(error) {}
	}
	return o
}

// compilerOptions are fixed for the session's lifetime and reused for
// every compiler handle it creates.
func (o Options) compilerOptions() compiler.Options {
	return compiler.Options{
		Mode:             o.Mode,
		Target:           o.Target,
		Sourcemap:        *o.Sourcemap,
		LiveReloadPort:   o.LiveReloadPort,
		OnWarning:        o.OnWarning,
		OnCompileFailure: o.OnCompileFailure,
	}
}
