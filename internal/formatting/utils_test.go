package formatting

import (
	"strings"
	"testing"

	"github.com/lithammer/dedent"

	"kiln/internal/compiler"
)

func TestPrettyJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected string
	}{
		{
			name: "route view",
			input: RouteView{
				ID:       "routes/blog/$slug",
				ParentID: "routes/blog",
				URL:      "/blog/:slug",
				File:     "routes/blog/$slug.tsx",
			},
			expected: `
				{
				  "id": "routes/blog/$slug",
				  "parentId": "routes/blog",
				  "url": "/blog/:slug",
				  "file": "routes/blog/$slug.tsx"
				}`,
		},
		{
			name: "manifest",
			input: &compiler.Manifest{
				Version: "3f2a9c1b",
				BuildID: "b1",
				URL:     "/build/manifest-3f2a9c1b.json",
				Entry:   compiler.EntryManifest{Module: "/build/entry.client.js", Hash: "ab12"},
				Routes: map[string]compiler.RouteManifest{
					"root": {ID: "root", Module: "/build/root.js", Hash: "cd34"},
				},
			},
			expected: `
				{
				  "version": "3f2a9c1b",
				  "buildId": "b1",
				  "url": "/build/manifest-3f2a9c1b.json",
				  "entry": {
				    "module": "/build/entry.client.js",
				    "serverModule": "",
				    "hash": "ab12"
				  },
				  "routes": {
				    "root": {
				      "id": "root",
				      "module": "/build/root.js",
				      "hash": "cd34"
				    }
				  }
				}`,
		},
		{
			name:     "no manifest",
			input:    (*compiler.Manifest)(nil),
			expected: "null",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := strings.TrimSpace(dedent.Dedent(tt.expected))
			if got := PrettyJSON(tt.input); got != want {
				t.Errorf("PrettyJSON() = %q, want %q", got, want)
			}
		})
	}
}

func TestPrettyJSON_FallsBackToFormat(t *testing.T) {
	// Channels cannot be marshaled.
	got := PrettyJSON(map[string]interface{}{"events": make(chan int)})
	if !strings.HasPrefix(got, "map[events:0x") {
		t.Errorf("PrettyJSON() = %q, want the %%v rendering", got)
	}
}
