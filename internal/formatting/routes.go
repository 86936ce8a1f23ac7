package formatting

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ddddddO/gtree"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"kiln/internal/compiler"
	"kiln/internal/project"
	pkgstrings "kiln/pkg/strings"
)

// RouteView is the printable form of a route.
type RouteView struct {
	ID       string `json:"id" yaml:"id"`
	ParentID string `json:"parentId,omitempty" yaml:"parentId,omitempty"`
	URL      string `json:"url" yaml:"url"`
	File     string `json:"file" yaml:"file"`
	Index    bool   `json:"index,omitempty" yaml:"index,omitempty"`
}

// RouteViews returns the routes of cfg ordered by ID.
func RouteViews(cfg *project.Config) []RouteView {
	views := make([]RouteView, 0, len(cfg.Routes))
	for _, id := range cfg.RouteIDs() {
		r := cfg.Routes[id]
		views = append(views, RouteView{
			ID:       r.ID,
			ParentID: r.ParentID,
			URL:      FullPath(cfg, id),
			File:     r.File,
			Index:    r.Index,
		})
	}
	return views
}

// FullPath joins the paths of a route and its ancestors into an absolute
// URL path.
func FullPath(cfg *project.Config, id string) string {
	var segments []string
	seen := make(map[string]bool)
	for id != "" && !seen[id] {
		seen[id] = true
		r, ok := cfg.Routes[id]
		if !ok {
			break
		}
		if r.Path != "" {
			segments = append(segments, strings.Trim(r.Path, "/"))
		}
		id = r.ParentID
	}

	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return "/" + strings.Join(segments, "/")
}

// WriteRoutes renders the routes of cfg in the requested format.
func WriteRoutes(w io.Writer, cfg *project.Config, opts Options) error {
	switch opts.Format {
	case FormatTable, "":
		return writeRoutesTable(w, cfg, opts)
	case FormatTree:
		return writeRoutesTree(w, cfg)
	case FormatJSON:
		_, err := fmt.Fprintln(w, PrettyJSON(RouteViews(cfg)))
		return err
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(RouteViews(cfg)); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", opts.Format)
	}
}

func writeRoutesTable(w io.Writer, cfg *project.Config, opts Options) error {
	views := RouteViews(cfg)
	if len(views) == 0 {
		msg := "No routes found in " + cfg.AppDirectory
		if opts.Color {
			msg = text.FgYellow.Sprint(msg)
		}
		_, err := fmt.Fprintln(w, msg)
		return err
	}

	t := opts.createTable()
	t.AppendHeader(table.Row{
		opts.header("ID"),
		opts.header("URL"),
		opts.header("FILE"),
		opts.header("INDEX"),
	})
	for _, v := range views {
		index := ""
		if v.Index {
			index = "yes"
		}
		t.AppendRow(table.Row{
			v.ID,
			pkgstrings.Truncate(v.URL, pkgstrings.DefaultColumnWidth),
			opts.dim(pkgstrings.TruncateLeft(v.File, pkgstrings.DefaultColumnWidth)),
			index,
		})
	}
	t.AppendFooter(table.Row{"", "", "Total", len(views)})

	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// writeRoutesTree prints the route hierarchy under the app directory name.
func writeRoutesTree(w io.Writer, cfg *project.Config) error {
	children := make(map[string][]string)
	for _, id := range cfg.RouteIDs() {
		parent := cfg.Routes[id].ParentID
		if _, ok := cfg.Routes[parent]; !ok {
			parent = ""
		}
		children[parent] = append(children[parent], id)
	}

	root := gtree.NewRoot(filepath.Base(cfg.AppDirectory))
	var add func(node *gtree.Node, parent string)
	add = func(node *gtree.Node, parent string) {
		ids := children[parent]
		sort.Strings(ids)
		for _, id := range ids {
			add(node.Add(id+" "+FullPath(cfg, id)), id)
		}
	}
	add(root, "")

	return gtree.OutputFromRoot(w, root)
}

// WriteBuild renders a one-shot build result.
func WriteBuild(w io.Writer, m *compiler.Manifest, d time.Duration, opts Options) error {
	if opts.Format == FormatJSON {
		_, err := fmt.Fprintln(w, PrettyJSON(m))
		return err
	}
	if opts.Format == FormatYAML {
		return yaml.NewEncoder(w).Encode(m)
	}

	t := opts.createTable()
	t.AppendRows([]table.Row{
		{opts.header("Version"), m.Version},
		{opts.header("Build ID"), m.BuildID},
		{opts.header("Manifest"), m.URL},
		{opts.header("Routes"), len(m.Routes)},
		{opts.header("Duration"), d.Round(time.Millisecond)},
	})
	_, err := fmt.Fprintln(w, t.Render())
	return err
}
