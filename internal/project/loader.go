package project

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"kiln/pkg/logging"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ReadConfig loads the project configuration rooted at rootDir.
//
// The first of kiln.yaml, kiln.yml or kiln.toml found in rootDir is decoded;
// when none exists the defaults are used. Entry files and routes are
// discovered from the app directory on every call.
func ReadConfig(ctx context.Context, rootDir string) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("resolving project root %s: %w", rootDir, err)
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, &ConfigError{FilePath: root, Message: "not a directory", Err: ErrNoRoot}
	}

	fc, configFile, err := readFileConfig(root)
	if err != nil {
		return nil, err
	}
	applyDefaults(&fc)

	if err := validate.Struct(fc); err != nil {
		return nil, validationError(configFile, err)
	}

	cfg := &Config{
		RootDirectory:        root,
		AppDirectory:         resolvePath(root, fc.AppDirectory),
		AssetsBuildDirectory: resolvePath(root, fc.AssetsBuildDirectory),
		PublicPath:           fc.PublicPath,
		ServerBuildPath:      resolvePath(root, fc.ServerBuildPath),
		BuildCommand:         fc.BuildCommand,
		ConfigFile:           configFile,
	}
	if fc.ServerEntryPoint != "" {
		cfg.ServerEntryPoint = resolvePath(root, fc.ServerEntryPoint)
	}
	for _, p := range fc.WatchPaths {
		cfg.WatchPaths = append(cfg.WatchPaths, resolvePath(root, p))
	}

	if info, err := os.Stat(cfg.AppDirectory); err != nil || !info.IsDir() {
		return nil, &ConfigError{
			FilePath: configFile,
			Field:    "appDirectory",
			Message:  fmt.Sprintf("app directory %s does not exist", cfg.AppDirectory),
			Err:      ErrInvalidConfig,
		}
	}

	cfg.EntryClientFile, err = findEntry(cfg.AppDirectory, fc.EntryClientFile, "entry.client", "entryClientFile")
	if err != nil {
		return nil, err
	}
	cfg.EntryServerFile, err = findEntry(cfg.AppDirectory, fc.EntryServerFile, "entry.server", "entryServerFile")
	if err != nil {
		return nil, err
	}

	cfg.Routes, err = discoverRoutes(cfg.AppDirectory, fc.IgnoredRouteFiles)
	if err != nil {
		return nil, fmt.Errorf("discovering routes in %s: %w", cfg.AppDirectory, err)
	}
	for _, decl := range fc.Routes {
		file := filepath.ToSlash(path.Clean(decl.File))
		if _, err := os.Stat(filepath.Join(cfg.AppDirectory, filepath.FromSlash(file))); err != nil {
			return nil, &ConfigError{
				FilePath: configFile,
				Field:    "routes." + decl.ID,
				Message:  fmt.Sprintf("route file %s not found", file),
				Err:      ErrInvalidConfig,
			}
		}
		cfg.Routes[decl.ID] = Route{
			ID:       decl.ID,
			ParentID: decl.ParentID,
			Path:     decl.Path,
			File:     file,
			Index:    decl.Index,
		}
	}

	logging.Debug("Project", "Loaded config for %s: %d routes", root, len(cfg.Routes))
	return cfg, nil
}

// readFileConfig decodes the first config file present in root. A missing
// file is not an error.
func readFileConfig(root string) (fileConfig, string, error) {
	var fc fileConfig
	for _, name := range configFileNames {
		p := filepath.Join(root, name)
		data, err := os.ReadFile(p)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fc, "", fmt.Errorf("reading %s: %w", p, err)
		}

		if strings.HasSuffix(name, ".toml") {
			dec := toml.NewDecoder(bytes.NewReader(data))
			dec.DisallowUnknownFields()
			if err := dec.Decode(&fc); err != nil {
				return fc, "", &ConfigError{FilePath: p, Message: err.Error(), Err: ErrInvalidConfig}
			}
		} else {
			dec := yaml.NewDecoder(bytes.NewReader(data))
			dec.KnownFields(true)
			if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
				return fc, "", &ConfigError{FilePath: p, Message: err.Error(), Err: ErrInvalidConfig}
			}
		}
		return fc, p, nil
	}
	return fc, "", nil
}

// findEntry returns the app-relative entry path. An explicit value must
// exist; otherwise base+ext is tried for each known extension.
func findEntry(appDir, explicit, base, field string) (string, error) {
	if explicit != "" {
		rel := filepath.ToSlash(path.Clean(explicit))
		if _, err := os.Stat(filepath.Join(appDir, filepath.FromSlash(rel))); err != nil {
			return "", &ConfigError{
				Field:   field,
				Message: fmt.Sprintf("%s not found in %s", rel, appDir),
				Err:     ErrMissingEntry,
			}
		}
		return rel, nil
	}

	if name, ok := findModule(appDir, base); ok {
		return name, nil
	}
	return "", &ConfigError{
		Field:   field,
		Message: fmt.Sprintf("no %s{%s} in %s", base, strings.Join(entryExtensions, ","), appDir),
		Err:     ErrMissingEntry,
	}
}

// findModule looks in dir for base with each entry extension.
func findModule(dir, base string) (string, bool) {
	for _, ext := range entryExtensions {
		name := base + ext
		if info, err := os.Stat(filepath.Join(dir, name)); err == nil && !info.IsDir() {
			return name, true
		}
	}
	return "", false
}

func resolvePath(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}

func validationError(configFile string, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		msg := fmt.Sprintf("failed %q validation", fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("failed %q validation (%s)", fe.Tag(), fe.Param())
		}
		return &ConfigError{
			FilePath: configFile,
			Field:    fe.Namespace(),
			Message:  msg,
			Err:      ErrInvalidConfig,
		}
	}
	return &ConfigError{FilePath: configFile, Message: err.Error(), Err: ErrInvalidConfig}
}

// Loader deduplicates concurrent reloads of the same project root. A caller
// only joins a read that started after it arrived, so the result always
// reflects the files present when Load was called.
type Loader struct {
	group singleflight.Group

	mu   sync.Mutex
	next map[string]uint64 // generation of the next read per root

	// read defaults to ReadConfig.
	read func(ctx context.Context, rootDir string) (*Config, error)
}

// Load reads the configuration for rootDir, joining a read of the same root
// that has been requested but not yet started.
func (l *Loader) Load(ctx context.Context, rootDir string) (*Config, error) {
	key, err := filepath.Abs(rootDir)
	if err != nil {
		key = rootDir
	}
	read := l.read
	if read == nil {
		read = ReadConfig
	}

	l.mu.Lock()
	if l.next == nil {
		l.next = make(map[string]uint64)
	}
	gen := l.next[key]
	l.mu.Unlock()

	flight := key + "#" + strconv.FormatUint(gen, 10)
	v, err, shared := l.group.Do(flight, func() (interface{}, error) {
		// Later arrivals must not join a read that is already walking the tree.
		l.mu.Lock()
		if l.next[key] <= gen {
			l.next[key] = gen + 1
		}
		l.mu.Unlock()
		return read(ctx, key)
	})
	if shared {
		logging.Debug("Project", "Joined config read %d for %s", gen, key)
	}
	if err != nil {
		return nil, err
	}
	return v.(*Config), nil
}
