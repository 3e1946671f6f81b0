package twin

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

// DefaultAssetsDir is the directory scanned by LoadAssets when no
// override is configured. Relative paths resolve against the process
// working directory.
const DefaultAssetsDir = "00_Engineering_Source"

// Snapshot is a consistent view of the engine state: both fields were
// true at the same instant.
type Snapshot struct {
	Tick   int64 `json:"tick"`
	Assets int   `json:"assets"`
}

// Engine is the digital twin state core.
//
// Thread-safety model:
//   - Tick(), State(), LoadAssets(): safe from any goroutine; all three
//     serialize on the same internal guard.
//   - Run(): at most one loop at a time; a second concurrent call
//     returns ErrRunning.
//   - Stop(): safe from any goroutine, no-op when no loop is active.
//
// Callers never lock around the engine; the guard is internal.
type Engine struct {
	mu         sync.Mutex
	tick       int64
	assetCount int

	assetsDir string

	// Advance-loop bookkeeping, guarded separately so a running loop
	// never delays State readers.
	runMu   sync.Mutex
	running bool
	stopCh  chan struct{}
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithAssetsDir overrides the directory scanned by LoadAssets.
func WithAssetsDir(dir string) Option {
	return func(e *Engine) {
		e.assetsDir = dir
	}
}

// New creates an Engine at tick zero with an asset count of zero.
// No filesystem access happens until LoadAssets is called.
func New(opts ...Option) *Engine {
	e := &Engine{
		assetsDir: DefaultAssetsDir,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// LoadAssets scans the top level of the assets directory and replaces
// the asset count with the number of visible entries (names not
// starting with "."). Entries of every type count: files, directories,
// symlinks.
//
// LoadAssets cannot fail. A missing directory, a path that is not a
// directory, or any read error yields a count of zero; the failure is
// logged and absorbed. The previous count is always replaced, never
// kept on error.
func (e *Engine) LoadAssets() {
	count := 0

	entries, err := os.ReadDir(e.assetsDir)
	if err != nil {
		slog.Warn("asset scan failed", "dir", e.assetsDir, "error", err)
	} else {
		for _, entry := range entries {
			if strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			count++
		}
	}

	e.mu.Lock()
	e.assetCount = count
	e.mu.Unlock()
}

// Tick advances the logical tick counter by exactly one.
func (e *Engine) Tick() {
	e.mu.Lock()
	e.tick++
	e.mu.Unlock()
}

// State returns a consistent snapshot of the tick counter and asset
// count. The pair is read under the guard: no interleaving with Tick
// or LoadAssets can produce a torn pair.
func (e *Engine) State() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Snapshot{
		Tick:   e.tick,
		Assets: e.assetCount,
	}
}

// AssetsDir reports the directory LoadAssets scans.
func (e *Engine) AssetsDir() string {
	return e.assetsDir
}
