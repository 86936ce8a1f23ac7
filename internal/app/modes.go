package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"kiln/internal/compiler"
	"kiln/internal/livereload"
	"kiln/internal/watch"
	"kiln/pkg/logging"
)

// RunDev builds the project, then watches it and rebuilds on change until
// ctx is done or the process receives SIGINT or SIGTERM.
//
// Behavior:
//   - Starts the live reload server when LiveReloadPort is set
//   - Logs build progress and file events to stdout
//   - Notifies systemd once the initial build has finished
//   - Tears down the watcher and live reload server on shutdown
func (a *Application) RunDev(ctx context.Context) error {
	var lr *livereload.Server
	if port := a.config.LiveReloadPort; port > 0 {
		lr = livereload.New()
		if err := lr.Start(port); err != nil {
			logging.Error("Dev", err, "Failed to start live reload server on port %d", port)
			return err
		}
		defer lr.Close()
		logging.Info("Dev", "Live reload listening on %s", lr.Addr())
	}
	broadcast := func(msg livereload.Message) {
		if lr != nil {
			lr.Broadcast(msg)
		}
	}

	teardown, err := watch.Start(ctx, a.project, a.watchOptions(ctx, broadcast))
	if err != nil {
		logging.Error("Dev", err, "Failed to start watcher")
		return err
	}
	defer teardown()

	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		logging.Warn("Dev", "Failed to notify systemd: %v", err)
	} else if ok {
		logging.Debug("Dev", "Notified systemd of readiness")
	}

	logging.Info("Dev", "Watching for changes. Press Ctrl+C to stop.")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-sigChan:
	case <-ctx.Done():
	}

	logging.Info("Dev", "Shutting down")
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	return nil
}

func (a *Application) watchOptions(ctx context.Context, broadcast func(livereload.Message)) watch.Options {
	sourcemap := a.config.Sourcemap
	return watch.Options{
		Mode:           a.config.Mode,
		Target:         a.config.Target,
		Sourcemap:      &sourcemap,
		LiveReloadPort: a.config.LiveReloadPort,
		NewCompiler:    a.newCompiler,
		NewSource:      a.newSource,

		OnInitialBuild: func(d time.Duration) {
			logging.Info("Dev", "Built in %s", d.Round(time.Millisecond))
		},
		OnRebuildStart: func() {
			logging.Info("Dev", "Rebuilding...")
			broadcast(livereload.Log("Rebuilding..."))
		},
		OnRebuildFinish: func(d time.Duration, m *compiler.Manifest) {
			if m == nil {
				return
			}
			logging.Info("Dev", "Rebuilt in %s", d.Round(time.Millisecond))
			broadcast(livereload.Reload())
		},
		OnFileCreated: func(path string) {
			logging.Info("Dev", "File created: %s", a.relative(path))
		},
		OnFileChanged: func(path string) {
			logging.Info("Dev", "File changed: %s", a.relative(path))
		},
		OnFileDeleted: func(path string) {
			logging.Info("Dev", "File deleted: %s", a.relative(path))
		},
		OnCompileFailure: func(err error) {
			compiler.LogCompileFailure(err)
			broadcast(livereload.Log(err.Error()))
		},
		OnBuild: func(kind watch.BuildKind, d time.Duration, ok bool) {
			a.recorder.RecordBuild(ctx, string(kind), d, ok)
		},
		OnConfigReload: func(err error) {
			a.recorder.RecordConfigReload(ctx, err)
		},
	}
}

// Build runs a single compile and returns its manifest and duration.
func (a *Application) Build(ctx context.Context) (*compiler.Manifest, time.Duration, error) {
	var buildErr error
	h := a.newCompiler(a.project, compiler.Options{
		Mode:      a.config.Mode,
		Target:    a.config.Target,
		Sourcemap: a.config.Sourcemap,
		OnWarning: compiler.NewWarnOnce(compiler.DefaultWarnCacheSize).Warn,
	})
	defer h.Dispose()

	start := time.Now()
	m := h.Compile(ctx, compiler.CompileOptions{
		OnCompileFailure: func(err error) { buildErr = err },
	})
	d := time.Since(start)
	a.recorder.RecordBuild(ctx, string(watch.BuildInitial), d, m != nil)

	if m == nil {
		if buildErr == nil {
			buildErr = errors.New("compiler produced no manifest")
		}
		return nil, d, fmt.Errorf("build %s: %w", a.project.RootDirectory, buildErr)
	}
	return m, d, nil
}

func (a *Application) relative(path string) string {
	if rel, err := filepath.Rel(a.project.RootDirectory, path); err == nil {
		return rel
	}
	return path
}
