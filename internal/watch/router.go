package watch

import (
	"path/filepath"

	"kiln/internal/fswatch"
	"kiln/internal/project"
	"kiln/pkg/logging"
)

// router feeds events from the source into the session, one at a time and
// in emission order.
type router struct {
	session *session
	source  EventSource
	stop    chan struct{}
	done    chan struct{}
}

func newRouter(s *session, source EventSource) *router {
	return &router{
		session: s,
		source:  source,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// run processes events until stop is closed.
func (r *router) run() {
	defer close(r.done)

	events := r.source.Events()
	errs := r.source.Errors()
	for {
		select {
		case <-r.stop:
			return

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			r.route(ev)

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logging.Warn("Watch", "File watcher error: %v", err)
		}
	}
}

// route applies the routing rules to a single event.
//
// A created file may itself be a new route, so the config is reloaded
// before classifying it. A deleted file is classified against the config
// as it stood before the deletion.
func (r *router) route(ev fswatch.Event) {
	s := r.session
	opts := s.opts

	switch ev.Kind {
	case fswatch.Changed:
		opts.OnFileChanged(ev.Path)
		if isConfigFile(s.config(), ev.Path) {
			logging.Debug("Watch", "Config file %s changed, restarting in %s", ev.Path, s.restart.Window())
			s.restart.Schedule(ev.Path)
			return
		}
		s.rebuild.Schedule(ev.Path)

	case fswatch.Created:
		opts.OnFileCreated(ev.Path)
		cfg, err := s.reloadConfig()
		if err != nil {
			s.failure(err)
			return
		}
		s.setConfig(cfg)
		r.dispatch(cfg, ev.Path)

	case fswatch.Deleted:
		opts.OnFileDeleted(ev.Path)
		r.dispatch(s.config(), ev.Path)

	default:
		logging.Debug("Watch", "Ignoring %s event for %s", ev.Kind, ev.Path)
	}
}

func (r *router) dispatch(cfg *project.Config, path string) {
	if project.IsEntryPoint(cfg, path) || isConfigFile(cfg, path) {
		logging.Debug("Watch", "Entry point %s changed, restarting in %s", path, r.session.restart.Window())
		r.session.restart.Schedule(path)
		return
	}
	r.session.rebuild.Schedule(path)
}

// isConfigFile reports whether path is the file cfg was read from.
func isConfigFile(cfg *project.Config, path string) bool {
	return cfg.ConfigFile != "" && filepath.Clean(path) == cfg.ConfigFile
}
