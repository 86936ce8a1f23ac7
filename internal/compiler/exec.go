package compiler

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"kiln/internal/project"
	"kiln/pkg/logging"
)

const (
	warningPrefix = "warning:"

	// outputTailLines is how much build output is kept for failure reports.
	outputTailLines = 20

	// commandWaitDelay bounds how long Wait blocks on output pipes held
	// open by grandchildren after the shell is killed.
	commandWaitDelay = time.Second
)

// ExecCompiler builds a project by running its configured shell command and
// then fingerprinting the sources into a Manifest.
type ExecCompiler struct {
	cfg  *project.Config
	opts Options

	mu       sync.Mutex
	disposed bool
	nextID   uint64
	running  map[uint64]context.CancelFunc
}

// NewExecCompiler creates a handle bound to cfg.
func NewExecCompiler(cfg *project.Config, opts Options) *ExecCompiler {
	return &ExecCompiler{
		cfg:     cfg,
		opts:    opts,
		running: make(map[uint64]context.CancelFunc),
	}
}

// Compile runs one build. Failures, including ErrDisposed, are reported
// through the failure callback and yield a nil manifest.
func (c *ExecCompiler) Compile(ctx context.Context, opts CompileOptions) *Manifest {
	fail := opts.OnCompileFailure
	if fail == nil {
		fail = c.opts.OnCompileFailure
	}
	if fail == nil {
		fail = LogCompileFailure
	}

	runCtx, id, ok := c.track(ctx)
	if !ok {
		fail(ErrDisposed)
		return nil
	}
	defer c.untrack(id)

	if c.cfg.BuildCommand != "" {
		if err := c.run(runCtx); err != nil {
			if c.isDisposed() {
				err = fmt.Errorf("%w: %v", ErrDisposed, err)
			}
			fail(err)
			return nil
		}
	}

	m, err := buildManifest(c.cfg)
	if err != nil {
		fail(err)
		return nil
	}
	if c.isDisposed() {
		fail(ErrDisposed)
		return nil
	}
	if err := writeManifest(c.cfg.AssetsBuildDirectory, m); err != nil {
		fail(err)
		return nil
	}

	logging.Debug("Compiler", "Built version %s (%d routes)", m.Version, len(m.Routes))
	return m
}

// Dispose cancels running builds and rejects later ones. Safe to call
// more than once.
func (c *ExecCompiler) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return
	}
	c.disposed = true
	for _, cancel := range c.running {
		cancel()
	}
	logging.Debug("Compiler", "Disposed compiler for %s (%d builds cancelled)", c.cfg.RootDirectory, len(c.running))
}

func (c *ExecCompiler) track(ctx context.Context) (context.Context, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return nil, 0, false
	}
	runCtx, cancel := context.WithCancel(ctx)
	id := c.nextID
	c.nextID++
	c.running[id] = cancel
	return runCtx, id, true
}

func (c *ExecCompiler) untrack(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cancel, ok := c.running[id]; ok {
		cancel()
		delete(c.running, id)
	}
}

func (c *ExecCompiler) isDisposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

// run executes the build command, forwarding warning lines as they arrive.
func (c *ExecCompiler) run(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", c.cfg.BuildCommand)
	cmd.Dir = c.cfg.RootDirectory
	cmd.Env = append(os.Environ(), c.env()...)
	cmd.WaitDelay = commandWaitDelay

	var stdout bytes.Buffer
	stderr := &lineWriter{onLine: c.stderrLine}
	cmd.Stdout = &stdout
	cmd.Stderr = stderr

	logging.Debug("Compiler", "Running %q in %s", c.cfg.BuildCommand, c.cfg.RootDirectory)
	err := cmd.Run()
	stderr.Flush()
	if err != nil {
		tail := append(lastLines(stdout.String(), outputTailLines), stderr.tail...)
		if len(tail) > outputTailLines {
			tail = tail[len(tail)-outputTailLines:]
		}
		return fmt.Errorf("%w: %q: %v\n%s", ErrBuildFailed, c.cfg.BuildCommand, err, strings.Join(tail, "\n"))
	}
	return nil
}

// stderrLine sends warning lines to OnWarning and keeps the rest for
// failure reports.
func (c *ExecCompiler) stderrLine(w *lineWriter, line string) {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(strings.ToLower(trimmed), warningPrefix) {
		if c.opts.OnWarning != nil {
			c.opts.OnWarning(strings.TrimSpace(trimmed[len(warningPrefix):]))
		}
		return
	}
	w.tail = append(w.tail, line)
	if len(w.tail) > outputTailLines {
		w.tail = w.tail[1:]
	}
}

// lineWriter splits written bytes into lines. exec.Cmd copies into it from
// a single goroutine, so it needs no locking.
type lineWriter struct {
	onLine func(w *lineWriter, line string)
	buf    []byte
	tail   []string
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.onLine(w, strings.TrimSuffix(string(w.buf[:i]), "\r"))
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

// Flush emits a trailing line that had no newline.
func (w *lineWriter) Flush() {
	if len(w.buf) > 0 {
		w.onLine(w, string(w.buf))
		w.buf = nil
	}
}

func (c *ExecCompiler) env() []string {
	return []string{
		"KILN_MODE=" + string(c.opts.Mode),
		"KILN_TARGET=" + c.opts.Target,
		"KILN_SOURCEMAP=" + strconv.FormatBool(c.opts.Sourcemap),
		"KILN_LIVE_RELOAD_PORT=" + strconv.Itoa(c.opts.LiveReloadPort),
		"KILN_APP_DIR=" + c.cfg.AppDirectory,
		"KILN_BUILD_DIR=" + c.cfg.AssetsBuildDirectory,
		"KILN_PUBLIC_PATH=" + c.cfg.PublicPath,
		"KILN_SERVER_BUILD_PATH=" + c.cfg.ServerBuildPath,
	}
}

func lastLines(s string, n int) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}
