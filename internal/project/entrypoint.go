package project

import (
	"path"
	"path/filepath"
	"strings"
)

// EntryPoints returns the app-relative files whose change requires a
// compiler restart: the client entry, the server entry and every route
// module. The set is derived from cfg on each call and must not be cached
// across reloads.
func EntryPoints(cfg *Config) []string {
	entries := make([]string, 0, len(cfg.Routes)+2)
	entries = append(entries, cfg.EntryClientFile, cfg.EntryServerFile)
	for _, route := range cfg.Routes {
		entries = append(entries, route.File)
	}
	return entries
}

// IsEntryPoint reports whether file is one of cfg's entry points. Relative
// paths are resolved against the project root. A file outside the app
// directory is never an entry point.
func IsEntryPoint(cfg *Config, file string) bool {
	if !filepath.IsAbs(file) {
		file = filepath.Join(cfg.RootDirectory, file)
	}

	rel, ok := appRelative(cfg.AppDirectory, file)
	if !ok {
		return false
	}

	for _, entry := range EntryPoints(cfg) {
		if entry != "" && normalizeSlashes(entry) == rel {
			return true
		}
	}
	return false
}

// appRelative returns file relative to appDir in slash form, or false if
// the file lies outside appDir.
func appRelative(appDir, file string) (string, bool) {
	rel, err := filepath.Rel(normalizeNative(appDir), normalizeNative(file))
	if err != nil {
		return "", false
	}
	rel = normalizeSlashes(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}

func normalizeSlashes(p string) string {
	return path.Clean(strings.ReplaceAll(filepath.ToSlash(p), `\`, "/"))
}

func normalizeNative(p string) string {
	return filepath.Clean(filepath.FromSlash(strings.ReplaceAll(p, `\`, "/")))
}
