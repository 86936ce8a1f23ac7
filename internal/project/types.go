package project

import "sort"

// Config is an immutable snapshot of a project's build configuration.
//
// A reload always produces a new *Config; code holding an older snapshot can
// keep using it safely. Every path inside a snapshot is either absolute or
// relative to AppDirectory, as documented per field.
type Config struct {
	// RootDirectory is the absolute project root.
	RootDirectory string

	// AppDirectory is the absolute directory holding entry and route sources.
	AppDirectory string

	// EntryClientFile is the client entry, relative to AppDirectory.
	EntryClientFile string

	// EntryServerFile is the server entry, relative to AppDirectory.
	EntryServerFile string

	// ServerEntryPoint is an optional absolute path to a server file that
	// lives outside the app directory. Empty when not configured.
	ServerEntryPoint string

	// Routes maps route IDs to their definitions.
	Routes map[string]Route

	// WatchPaths are extra absolute paths that trigger rebuilds.
	WatchPaths []string

	// AssetsBuildDirectory is the absolute output directory for client assets.
	AssetsBuildDirectory string

	// PublicPath is the URL prefix client assets are served from.
	PublicPath string

	// ServerBuildPath is the absolute path of the server bundle.
	ServerBuildPath string

	// BuildCommand is an optional shell command run on every compile.
	BuildCommand string

	// ConfigFile is the absolute path of the file the snapshot was read from,
	// or empty when only defaults were used.
	ConfigFile string
}

// Route is a single route definition.
type Route struct {
	ID       string
	ParentID string
	// Path is the URL path segment(s), relative to the parent route.
	Path string
	// File is the route module, relative to AppDirectory.
	File  string
	Index bool
}

// RouteIDs returns the route IDs in lexical order.
func (c *Config) RouteIDs() []string {
	ids := make([]string, 0, len(c.Routes))
	for id := range c.Routes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// fileConfig is the on-disk schema of kiln.yaml / kiln.toml.
type fileConfig struct {
	AppDirectory         string             `yaml:"appDirectory" toml:"appDirectory"`
	EntryClientFile      string             `yaml:"entryClientFile" toml:"entryClientFile"`
	EntryServerFile      string             `yaml:"entryServerFile" toml:"entryServerFile"`
	ServerEntryPoint     string             `yaml:"serverEntryPoint" toml:"serverEntryPoint"`
	AssetsBuildDirectory string             `yaml:"assetsBuildDirectory" toml:"assetsBuildDirectory"`
	PublicPath           string             `yaml:"publicPath" toml:"publicPath" validate:"omitempty,startswith=/,endswith=/"`
	ServerBuildPath      string             `yaml:"serverBuildPath" toml:"serverBuildPath"`
	BuildCommand         string             `yaml:"buildCommand" toml:"buildCommand"`
	WatchPaths           []string           `yaml:"watchPaths" toml:"watchPaths" validate:"dive,required"`
	IgnoredRouteFiles    []string           `yaml:"ignoredRouteFiles" toml:"ignoredRouteFiles" validate:"dive,required"`
	Routes               []routeDeclaration `yaml:"routes" toml:"routes" validate:"dive"`
}

// routeDeclaration is an explicitly declared route in the config file.
type routeDeclaration struct {
	ID       string `yaml:"id" toml:"id" validate:"required"`
	ParentID string `yaml:"parentId" toml:"parentId"`
	Path     string `yaml:"path" toml:"path"`
	File     string `yaml:"file" toml:"file" validate:"required"`
	Index    bool   `yaml:"index" toml:"index"`
}
