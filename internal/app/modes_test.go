package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"kiln/internal/compiler"
	"kiln/internal/fswatch"
	"kiln/internal/project"
	"kiln/internal/watch"
)

type stubSource struct {
	events chan fswatch.Event
	errs   chan error
	closed atomic.Bool
}

func (s *stubSource) Events() <-chan fswatch.Event { return s.events }
func (s *stubSource) Errors() <-chan error         { return s.errs }
func (s *stubSource) Close() error {
	s.closed.Store(true)
	return nil
}

type stubHandle struct {
	compiled chan struct{}
	disposed atomic.Bool
}

func (h *stubHandle) Compile(context.Context, compiler.CompileOptions) *compiler.Manifest {
	select {
	case h.compiled <- struct{}{}:
	default:
	}
	return &compiler.Manifest{Version: "stub"}
}

func (h *stubHandle) Dispose() { h.disposed.Store(true) }

func TestRunDev_StopsOnContextCancel(t *testing.T) {
	application := newTestApplication(t, NewConfig(newProjectDir(t, ""), compiler.ModeDevelopment, false))

	handle := &stubHandle{compiled: make(chan struct{}, 1)}
	source := &stubSource{events: make(chan fswatch.Event), errs: make(chan error)}
	var roots []string
	var mu sync.Mutex
	application.newCompiler = func(*project.Config, compiler.Options) compiler.Handle { return handle }
	application.newSource = func(r []string) (watch.EventSource, error) {
		mu.Lock()
		roots = r
		mu.Unlock()
		return source, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.RunDev(ctx) }()

	select {
	case <-handle.compiled:
	case <-time.After(3 * time.Second):
		t.Fatal("initial build did not run")
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("RunDev() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("RunDev did not return after cancel")
	}

	if !source.closed.Load() {
		t.Error("event source should be closed on shutdown")
	}
	if !handle.disposed.Load() {
		t.Error("compiler should be disposed on shutdown")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(roots) == 0 || roots[0] != application.Project().AppDirectory {
		t.Errorf("watch roots = %v, want app directory first", roots)
	}
}

func TestRunDev_SourceFailure(t *testing.T) {
	application := newTestApplication(t, NewConfig(newProjectDir(t, ""), compiler.ModeDevelopment, false))

	handle := &stubHandle{compiled: make(chan struct{}, 1)}
	application.newCompiler = func(*project.Config, compiler.Options) compiler.Handle { return handle }
	application.newSource = func([]string) (watch.EventSource, error) {
		return nil, errors.New("too many open files")
	}

	if err := application.RunDev(context.Background()); err == nil {
		t.Fatal("expected RunDev to fail when the watcher cannot start")
	}
	if !handle.disposed.Load() {
		t.Error("compiler should be disposed when the watcher cannot start")
	}
}

func TestBuild(t *testing.T) {
	cfg := NewConfig(newProjectDir(t, ""), compiler.ModeProduction, false)
	application := newTestApplication(t, cfg)

	m, d, err := application.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if m == nil || m.Version == "" {
		t.Fatalf("Build() manifest = %+v", m)
	}
	if d <= 0 {
		t.Errorf("Build() duration = %v", d)
	}

	written := filepath.Join(application.Project().AssetsBuildDirectory, m.FileName())
	if _, err := os.Stat(written); err != nil {
		t.Errorf("manifest not written: %v", err)
	}
}

func TestBuild_Failure(t *testing.T) {
	cfg := NewConfig(newProjectDir(t, "buildCommand: exit 3\n"), compiler.ModeProduction, false)
	application := newTestApplication(t, cfg)

	m, _, err := application.Build(context.Background())
	if err == nil {
		t.Fatal("expected build failure")
	}
	if m != nil {
		t.Errorf("Build() manifest = %+v, want nil", m)
	}
	if !errors.Is(err, compiler.ErrBuildFailed) {
		t.Errorf("error = %v, want wrapping %v", err, compiler.ErrBuildFailed)
	}
}

func TestBuild_ProductionOptions(t *testing.T) {
	cfg := NewConfig(newProjectDir(t, ""), compiler.ModeProduction, false)
	cfg.Sourcemap = false
	application := newTestApplication(t, cfg)

	var got compiler.Options
	handle := &stubHandle{compiled: make(chan struct{}, 1)}
	application.newCompiler = func(_ *project.Config, opts compiler.Options) compiler.Handle {
		got = opts
		return handle
	}

	if _, _, err := application.Build(context.Background()); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got.Mode != compiler.ModeProduction || got.Sourcemap {
		t.Errorf("compiler options = %+v", got)
	}
	if !handle.disposed.Load() {
		t.Error("Build should dispose its compiler")
	}
}
