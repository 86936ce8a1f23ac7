package watch

import (
	"context"
	"fmt"
	"sync"

	"kiln/internal/project"
	"kiln/pkg/logging"
)

// Teardown stops a watch session. It closes the event source, drops pending
// restarts and rebuilds and disposes the compiler. Calls after the first do
// nothing.
type Teardown func()

// Start runs the initial build for cfg and then watches the app directory,
// the server entry point, the config file and any extra watch paths,
// rebuilding or restarting the compiler as files change.
//
// Start returns an error only when the event source cannot be opened; the
// compiler is disposed before returning in that case.
func Start(ctx context.Context, cfg *project.Config, opts Options) (Teardown, error) {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(ctx)

	s := newSession(ctx, cfg, opts)
	s.initialBuild()

	roots := watchRoots(cfg)
	source, err := opts.NewSource(roots)
	if err != nil {
		cancel()
		s.close()
		return nil, fmt.Errorf("watching %v: %w", roots, err)
	}

	r := newRouter(s, source)
	go r.run()
	logging.Info("Watch", "Watching %s for changes", cfg.AppDirectory)

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := source.Close(); err != nil {
				logging.Debug("Watch", "Closing file watcher: %v", err)
			}
			s.markClosed()
			cancel()
			close(r.stop)
			<-r.done
			s.cancelPending()
			s.close()
			logging.Info("Watch", "Stopped watching %s", cfg.AppDirectory)
		})
	}, nil
}

// watchRoots returns the app directory, the server entry point, the config
// file and the extra watch paths. Roots are fixed for the life of the
// session.
func watchRoots(cfg *project.Config) []string {
	roots := []string{cfg.AppDirectory}
	if cfg.ServerEntryPoint != "" {
		roots = append(roots, cfg.ServerEntryPoint)
	}
	if cfg.ConfigFile != "" {
		roots = append(roots, cfg.ConfigFile)
	}
	return append(roots, cfg.WatchPaths...)
}
