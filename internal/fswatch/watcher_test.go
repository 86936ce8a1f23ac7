package fswatch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var testOptions = Options{
	StabilityThreshold: 20 * time.Millisecond,
	PollInterval:       10 * time.Millisecond,
}

func newTestWatcher(t *testing.T, roots ...string) *Watcher {
	t.Helper()
	w, err := New(roots, testOptions)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

func waitEvent(t *testing.T, w *Watcher) Event {
	t.Helper()
	select {
	case ev := <-w.Events():
		return ev
	case err := <-w.Errors():
		t.Fatalf("watcher error: %v", err)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func expectNoEvent(t *testing.T, w *Watcher, d time.Duration) {
	t.Helper()
	select {
	case ev := <-w.Events():
		t.Fatalf("unexpected event %s %s", ev.Kind, ev.Path)
	case <-time.After(d):
	}
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestMergeKinds(t *testing.T) {
	tests := []struct {
		old      Kind
		new      Kind
		expected Kind
	}{
		{Created, Changed, Created},
		{Created, Deleted, Deleted},
		{Changed, Changed, Changed},
		{Changed, Deleted, Deleted},
		{Deleted, Created, Created},
		{Changed, Created, Created},
	}

	for _, tt := range tests {
		t.Run(string(tt.old)+"_"+string(tt.new), func(t *testing.T) {
			if got := mergeKinds(tt.old, tt.new); got != tt.expected {
				t.Errorf("mergeKinds(%s, %s) = %s, want %s", tt.old, tt.new, got, tt.expected)
			}
		})
	}
}

func TestWatcher_Lifecycle(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, dir)
	file := filepath.Join(dir, "root.tsx")

	writeFile(t, file, "export default 1")
	if ev := waitEvent(t, w); ev.Kind != Created || ev.Path != file {
		t.Fatalf("got %s %s, want Created %s", ev.Kind, ev.Path, file)
	}

	writeFile(t, file, "export default 2")
	if ev := waitEvent(t, w); ev.Kind != Changed || ev.Path != file {
		t.Fatalf("got %s %s, want Changed %s", ev.Kind, ev.Path, file)
	}

	if err := os.Remove(file); err != nil {
		t.Fatal(err)
	}
	if ev := waitEvent(t, w); ev.Kind != Deleted || ev.Path != file {
		t.Fatalf("got %s %s, want Deleted %s", ev.Kind, ev.Path, file)
	}
}

func TestWatcher_IgnoresInitialFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "existing.tsx"), "x")

	w := newTestWatcher(t, dir)
	expectNoEvent(t, w, 200*time.Millisecond)
}

func TestWatcher_CoalescesWritesUntilStable(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{dir}, Options{StabilityThreshold: 150 * time.Millisecond, PollInterval: 10 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	file := filepath.Join(dir, "big.js")

	f, err := os.Create(file)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if _, err := f.WriteString("chunk\n"); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)
	}
	f.Close()

	if ev := waitEvent(t, w); ev.Kind != Created {
		t.Fatalf("got %s, want Created", ev.Kind)
	}
	expectNoEvent(t, w, 100*time.Millisecond)
}

func TestWatcher_RecursiveNewDirectories(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "routes"), 0o755); err != nil {
		t.Fatal(err)
	}
	w := newTestWatcher(t, dir)

	nested := filepath.Join(dir, "routes", "blog")
	if err := os.Mkdir(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	// Let the new directory be picked up before writing into it.
	time.Sleep(50 * time.Millisecond)

	file := filepath.Join(nested, "$slug.tsx")
	writeFile(t, file, "post")
	if ev := waitEvent(t, w); ev.Kind != Created || ev.Path != file {
		t.Fatalf("got %s %s, want Created %s", ev.Kind, ev.Path, file)
	}
}

func TestWatcher_FileRoot(t *testing.T) {
	appDir := t.TempDir()
	serverDir := t.TempDir()
	server := filepath.Join(serverDir, "server.js")
	writeFile(t, server, "v1")

	w := newTestWatcher(t, appDir, server)

	writeFile(t, filepath.Join(serverDir, "other.js"), "ignored")
	expectNoEvent(t, w, 150*time.Millisecond)

	writeFile(t, server, "v2")
	if ev := waitEvent(t, w); ev.Kind != Changed || ev.Path != server {
		t.Fatalf("got %s %s, want Changed %s", ev.Kind, ev.Path, server)
	}
}

func TestWatcher_MissingRootSkipped(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, dir, filepath.Join(dir, "does-not-exist"))

	file := filepath.Join(dir, "a.ts")
	writeFile(t, file, "a")
	if ev := waitEvent(t, w); ev.Path != file {
		t.Fatalf("got %s, want %s", ev.Path, file)
	}
}

func TestWatcher_CloseIdempotent(t *testing.T) {
	w, err := New([]string{t.TempDir()}, testOptions)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("first Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestWatcher_CloseCancelsPending(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{dir}, Options{StabilityThreshold: time.Hour, PollInterval: 10 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}

	writeFile(t, filepath.Join(dir, "slow.ts"), "x")
	time.Sleep(50 * time.Millisecond)

	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	w.mu.Lock()
	n := len(w.pending)
	w.mu.Unlock()
	if n != 0 {
		t.Errorf("pending entries after Close = %d, want 0", n)
	}
}

// collectEvents gathers events until none arrive for quiet.
func collectEvents(t *testing.T, w *Watcher, quiet time.Duration) []Event {
	t.Helper()
	var got []Event
	for {
		select {
		case ev := <-w.Events():
			got = append(got, ev)
		case err := <-w.Errors():
			t.Fatalf("watcher error: %v", err)
		case <-time.After(quiet):
			return got
		}
	}
}

func routesTree(t *testing.T) (appDir, blog string) {
	t.Helper()
	appDir = filepath.Join(t.TempDir(), "app")
	blog = filepath.Join(appDir, "routes", "blog")
	if err := os.MkdirAll(filepath.Join(blog, "drafts"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(appDir, "routes", "index.tsx"), "index")
	writeFile(t, filepath.Join(blog, "post.tsx"), "post")
	writeFile(t, filepath.Join(blog, "drafts", "wip.tsx"), "wip")
	return appDir, blog
}

func TestWatcher_DirectoryMovedOutReportsFiles(t *testing.T) {
	appDir, blog := routesTree(t)
	w := newTestWatcher(t, appDir)

	moved := filepath.Join(filepath.Dir(appDir), "archive")
	if err := os.Rename(blog, moved); err != nil {
		t.Fatal(err)
	}

	got := collectEvents(t, w, 300*time.Millisecond)
	want := []Event{
		{Kind: Deleted, Path: filepath.Join(blog, "drafts", "wip.tsx")},
		{Kind: Deleted, Path: filepath.Join(blog, "post.tsx")},
	}
	if len(got) != len(want) {
		t.Fatalf("got events %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, got[i], want[i])
		}
	}

	// The moved tree is no longer watched.
	writeFile(t, filepath.Join(moved, "post.tsx"), "edited")
	expectNoEvent(t, w, 150*time.Millisecond)
}

func TestWatcher_DirectoryRemovedReportsEachFileOnce(t *testing.T) {
	appDir, blog := routesTree(t)
	w := newTestWatcher(t, appDir)

	if err := os.RemoveAll(blog); err != nil {
		t.Fatal(err)
	}

	seen := make(map[string]int)
	for _, ev := range collectEvents(t, w, 300*time.Millisecond) {
		if ev.Kind != Deleted {
			t.Errorf("unexpected %s %s", ev.Kind, ev.Path)
		}
		seen[ev.Path]++
	}
	for _, p := range []string{filepath.Join(blog, "post.tsx"), filepath.Join(blog, "drafts", "wip.tsx")} {
		if seen[p] != 1 {
			t.Errorf("Deleted %s reported %d times, want 1", p, seen[p])
		}
	}
	if seen[blog] != 0 {
		t.Errorf("directory itself reported as Deleted")
	}
}
