package compiler

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"kiln/internal/project"
)

// Manifest describes the result of a successful compile.
type Manifest struct {
	// Version is a short content hash over every entry and route source.
	Version string `json:"version"`
	// BuildID is unique per compile, even when Version is unchanged.
	BuildID string                   `json:"buildId"`
	URL     string                   `json:"url"`
	Entry   EntryManifest            `json:"entry"`
	Routes  map[string]RouteManifest `json:"routes"`
}

type EntryManifest struct {
	Module       string `json:"module"`
	ServerModule string `json:"serverModule"`
	Hash         string `json:"hash"`
}

type RouteManifest struct {
	ID       string `json:"id"`
	ParentID string `json:"parentId,omitempty"`
	Path     string `json:"path,omitempty"`
	Index    bool   `json:"index,omitempty"`
	Module   string `json:"module"`
	Hash     string `json:"hash"`
}

// FileName is the manifest's file name inside the assets build directory.
func (m *Manifest) FileName() string {
	return "manifest-" + m.Version + ".json"
}

// buildManifest fingerprints the sources named by cfg.
func buildManifest(cfg *project.Config) (*Manifest, error) {
	total := sha256.New()

	clientHash, err := hashSource(cfg.AppDirectory, cfg.EntryClientFile, total)
	if err != nil {
		return nil, err
	}
	serverHash, err := hashSource(cfg.AppDirectory, cfg.EntryServerFile, total)
	if err != nil {
		return nil, err
	}

	m := &Manifest{
		BuildID: uuid.NewString(),
		Entry: EntryManifest{
			Module:       cfg.EntryClientFile,
			ServerModule: cfg.EntryServerFile,
			Hash:         clientHash + serverHash,
		},
		Routes: make(map[string]RouteManifest, len(cfg.Routes)),
	}

	for _, id := range cfg.RouteIDs() {
		route := cfg.Routes[id]
		io.WriteString(total, id)
		hash, err := hashSource(cfg.AppDirectory, route.File, total)
		if err != nil {
			return nil, err
		}
		m.Routes[id] = RouteManifest{
			ID:       route.ID,
			ParentID: route.ParentID,
			Path:     route.Path,
			Index:    route.Index,
			Module:   route.File,
			Hash:     hash,
		}
	}

	m.Version = hex.EncodeToString(total.Sum(nil))[:8]
	m.URL = cfg.PublicPath + m.FileName()
	return m, nil
}

// hashSource returns the short sha256 of an app-relative file and feeds
// its name and full digest into total.
func hashSource(appDir, rel string, total io.Writer) (string, error) {
	data, err := os.ReadFile(filepath.Join(appDir, filepath.FromSlash(rel)))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", rel, err)
	}
	sum := sha256.Sum256(data)
	io.WriteString(total, rel)
	total.Write(sum[:])
	return hex.EncodeToString(sum[:])[:8], nil
}

// writeManifest writes m into dir atomically.
func writeManifest(dir string, m *Manifest) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".manifest-*")
	if err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing manifest: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing manifest: %w", err)
	}
	return os.Rename(tmp.Name(), filepath.Join(dir, m.FileName()))
}
