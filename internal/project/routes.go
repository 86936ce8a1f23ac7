package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// discoverRoutes builds the route table from the app directory: an optional
// root module plus one route per file under app/routes.
//
// Nesting follows the directory layout: routes/blog/$slug.tsx is a child of
// routes/blog.tsx when that file exists, otherwise of the root route. Dots in
// a file name act as path separators, "index" marks an index route, "$name"
// becomes ":name", a bare "$" becomes a splat and "__name" is pathless.
func discoverRoutes(appDir string, ignored []string) (map[string]Route, error) {
	routes := make(map[string]Route)

	rootID := ""
	if name, ok := findModule(appDir, "root"); ok {
		rootID = "root"
		routes[rootID] = Route{ID: rootID, File: name}
	}

	routesDir := filepath.Join(appDir, routesDirName)
	info, err := os.Stat(routesDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return routes, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return routes, nil
	}

	var files []string
	err = filepath.WalkDir(routesDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !routeExtensions[filepath.Ext(p)] {
			return nil
		}
		rel, err := filepath.Rel(appDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if isIgnoredRouteFile(strings.TrimPrefix(rel, routesDirName+"/"), ignored) {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	byID := make(map[string]string, len(files))
	for _, f := range files {
		id := strings.TrimSuffix(f, path.Ext(f))
		if other, dup := byID[id]; dup {
			return nil, &ConfigError{
				FilePath: filepath.Join(appDir, filepath.FromSlash(f)),
				Message:  fmt.Sprintf("route %q is also defined by %s", id, other),
				Err:      ErrInvalidConfig,
			}
		}
		byID[id] = f
	}

	for id, file := range byID {
		parent := rootID
		for dir := path.Dir(id); dir != routesDirName && dir != "."; dir = path.Dir(dir) {
			if _, ok := byID[dir]; ok {
				parent = dir
				break
			}
		}

		prefix := routesDirName + "/"
		if parent != rootID {
			prefix = parent + "/"
		}
		urlPath, index := routePath(strings.TrimPrefix(id, prefix))

		routes[id] = Route{
			ID:       id,
			ParentID: parent,
			Path:     urlPath,
			File:     file,
			Index:    index,
		}
	}

	return routes, nil
}

// routePath converts a route file stem (relative to its parent) into a URL
// path and reports whether it is an index route.
func routePath(stem string) (string, bool) {
	var parts []string
	for _, seg := range strings.Split(stem, "/") {
		parts = append(parts, strings.Split(seg, ".")...)
	}

	index := false
	if n := len(parts); n > 0 && parts[n-1] == "index" {
		index = true
		parts = parts[:n-1]
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		switch {
		case p == "" || strings.HasPrefix(p, "__"):
			continue
		case p == "$":
			out = append(out, "*")
		case strings.HasPrefix(p, "$"):
			out = append(out, ":"+p[1:])
		default:
			out = append(out, p)
		}
	}
	return strings.Join(out, "/"), index
}

// isIgnoredRouteFile matches rel (relative to app/routes) against the
// ignore patterns, both as a full path and by base name.
func isIgnoredRouteFile(rel string, patterns []string) bool {
	base := path.Base(rel)
	for _, pattern := range patterns {
		if ok, _ := path.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := path.Match(pattern, base); ok {
			return true
		}
	}
	return false
}
