package watch

import (
	"context"
	"errors"
	"sync"
	"time"

	"kiln/internal/compiler"
	"kiln/internal/debounce"
	"kiln/internal/project"
	"kiln/pkg/logging"
)

// ErrNoCompiler is reported when a rebuild runs while the session has no
// compiler, which happens after a restart failed to reload the config.
var ErrNoCompiler = errors.New("no compiler: last config reload failed")

// session holds the current config and compiler handle. Both are only
// ever replaced, never mutated, so work that captured them earlier can
// keep using them.
type session struct {
	ctx         context.Context
	opts        Options
	compileOpts compiler.Options

	mu     sync.Mutex
	cfg    *project.Config
	handle compiler.Handle // nil while degraded
	closed bool

	restart *debounce.Action[string]
	rebuild *debounce.Action[string]
}

func newSession(ctx context.Context, cfg *project.Config, opts Options) *session {
	s := &session{
		ctx:         ctx,
		opts:        opts,
		compileOpts: opts.compilerOptions(),
		cfg:         cfg,
	}
	s.handle = opts.NewCompiler(cfg, s.compileOpts)
	s.restart = debounce.New(opts.RestartWindow, s.doRestart)
	s.rebuild = debounce.New(opts.RebuildWindow, s.doRebuild)
	return s
}

// config returns the current snapshot.
func (s *session) config() *project.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// setConfig installs cfg without touching the compiler handle.
func (s *session) setConfig(cfg *project.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}

func (s *session) currentHandle() compiler.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle
}

// reloadConfig rereads the config for the current root.
func (s *session) reloadConfig() (*project.Config, error) {
	cfg, err := s.opts.ReloadConfig(s.ctx, s.config().RootDirectory)
	if err == nil || !s.shuttingDown(err) {
		s.opts.OnConfigReload(err)
	}
	return cfg, err
}

func (s *session) compileOptions() compiler.CompileOptions {
	return compiler.CompileOptions{OnCompileFailure: s.failure}
}

// failure reports err unless the session is shutting down.
func (s *session) failure(err error) {
	if s.shuttingDown(err) {
		logging.Debug("Session", "Ignoring failure during shutdown: %v", err)
		return
	}
	s.opts.OnCompileFailure(err)
}

// shuttingDown reports whether err arrived after teardown began, when
// reloads and compiles fail only because their context was canceled.
func (s *session) shuttingDown(err error) bool {
	return s.isClosed() || (errors.Is(err, context.Canceled) && s.ctx.Err() != nil)
}

func (s *session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// markClosed stops later restarts from installing a handle and silences
// failure reports. close still has to dispose the current handle.
func (s *session) markClosed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// initialBuild runs the first compile without debouncing.
func (s *session) initialBuild() {
	start := time.Now()
	m := s.currentHandle().Compile(s.ctx, s.compileOptions())
	d := time.Since(start)

	s.opts.OnBuild(BuildInitial, d, m != nil)
	s.opts.OnInitialBuild(d)
}

// doRebuild compiles with the existing handle.
func (s *session) doRebuild(trigger string) {
	logging.Debug("Session", "Rebuilding after %s was quiet for %s", trigger, s.rebuild.Window())
	s.opts.OnRebuildStart()

	start := time.Now()
	var m *compiler.Manifest
	if h := s.currentHandle(); h != nil {
		m = h.Compile(s.ctx, s.compileOptions())
	} else {
		s.failure(ErrNoCompiler)
	}
	d := time.Since(start)

	s.opts.OnBuild(BuildRebuild, d, m != nil)
	s.opts.OnRebuildFinish(d, m)
}

// doRestart disposes the handle, reloads the config and compiles with a
// fresh handle. A failed reload leaves the session without a handle.
func (s *session) doRestart(trigger string) {
	logging.Debug("Session", "Restarting compiler after %s", trigger)
	s.opts.OnRebuildStart()
	start := time.Now()

	s.mu.Lock()
	old := s.handle
	s.handle = nil
	s.mu.Unlock()
	if old != nil {
		old.Dispose()
	}

	cfg, err := s.reloadConfig()
	if err != nil {
		logging.Warn("Session", "Config reload failed, compiler stays down until the next successful reload")
		s.failure(err)
		s.opts.OnBuild(BuildRestart, time.Since(start), false)
		return
	}

	h := s.opts.NewCompiler(cfg, s.compileOpts)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		h.Dispose()
		return
	}
	// An overlapping restart may have installed its own handle meanwhile.
	prev := s.handle
	s.cfg = cfg
	s.handle = h
	s.mu.Unlock()
	if prev != nil {
		prev.Dispose()
	}

	m := h.Compile(s.ctx, s.compileOptions())
	d := time.Since(start)

	s.opts.OnBuild(BuildRestart, d, m != nil)
	s.opts.OnRebuildFinish(d, m)
}

// cancelPending drops scheduled restarts and rebuilds.
func (s *session) cancelPending() {
	s.restart.Cancel()
	s.rebuild.Cancel()
}

// close disposes the current handle and stops later restarts from
// installing a new one.
func (s *session) close() {
	s.mu.Lock()
	h := s.handle
	s.handle = nil
	s.closed = true
	s.mu.Unlock()

	if h != nil {
		h.Dispose()
	}
}
