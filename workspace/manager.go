// Package workspace keeps the per-user SVG documents that the service
// optimizes and streams updates for.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kpango/glg"

	"svgstudio/optimizer"
)

var ErrNotFound = errors.New("workspace not found")

// Compressor optimizes SVG markup. *worker.OptimizerClient satisfies it.
type Compressor interface {
	Compress(ctx context.Context, svg string, cfg optimizer.Config) (string, error)
}

// Draft is the editable part of a workspace handed to Update callbacks.
type Draft struct {
	FileName string
	Original string
	Plugins  []optimizer.Plugin
	Settings optimizer.GlobalSettings
}

type Manager struct {
	mu         sync.RWMutex
	workspaces map[string]*Workspace
	compressor Compressor
}

func NewManager(c Compressor) *Manager {
	return &Manager{workspaces: make(map[string]*Workspace), compressor: c}
}

// Create registers a new workspace. A non-empty svg is optimized right away;
// an optimization failure is recorded on the workspace and returned, but the
// workspace is kept.
func (m *Manager) Create(ctx context.Context, name, svg string) (*Workspace, error) {
	if strings.TrimSpace(name) == "" {
		name = "untitled.svg"
	}
	w := newWorkspace(uuid.New().String(), name)
	w.original = svg

	m.mu.Lock()
	m.workspaces[w.ID] = w
	m.mu.Unlock()
	glg.Infof("workspace %s created (%s)", w.ID, name)

	if svg == "" {
		return w, nil
	}
	return w, m.compress(ctx, w)
}

func (m *Manager) Get(id string) (*Workspace, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.workspaces[id]
	return w, ok
}

// List returns the workspaces oldest first.
func (m *Manager) List() []*Workspace {
	m.mu.RLock()
	list := make([]*Workspace, 0, len(m.workspaces))
	for _, w := range m.workspaces {
		list = append(list, w)
	}
	m.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list
}

func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	w, ok := m.workspaces[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	delete(m.workspaces, id)
	m.mu.Unlock()

	w.close()
	glg.Infof("workspace %s deleted", id)
	return nil
}

// Update applies fn to the workspace. When the markup or the configuration
// changed the workspace is re-optimized before Update returns.
func (m *Manager) Update(ctx context.Context, id string, fn func(*Draft)) (*Workspace, error) {
	w, ok := m.Get(id)
	if !ok {
		return nil, ErrNotFound
	}

	w.mu.Lock()
	d := Draft{
		FileName: w.fileName,
		Original: w.original,
		Plugins:  append([]optimizer.Plugin(nil), w.plugins...),
		Settings: w.settings,
	}
	fn(&d)
	changed := d.Original != w.original || d.Settings != w.settings || !samePlugins(d.Plugins, w.plugins)
	w.fileName = d.FileName
	w.original = d.Original
	w.plugins = d.Plugins
	w.settings = d.Settings
	w.lastActive = time.Now()
	w.mu.Unlock()

	if !changed {
		w.pushState()
		return w, nil
	}
	return w, m.compress(ctx, w)
}

// compress optimizes the current markup. If another change lands while the
// request is in flight, the stale result is discarded.
func (m *Manager) compress(ctx context.Context, w *Workspace) error {
	w.mu.Lock()
	w.rev++
	rev := w.rev
	svg := w.original
	cfg := optimizer.BuildConfig(w.plugins, w.settings)
	if svg == "" {
		w.optimized = ""
		w.err = ""
		w.compressing = false
		w.mu.Unlock()
		w.pushState()
		return nil
	}
	w.compressing = true
	w.mu.Unlock()
	w.pushState()

	out, err := m.compressor.Compress(ctx, svg, cfg)

	w.mu.Lock()
	if w.rev != rev {
		w.mu.Unlock()
		return nil
	}
	w.compressing = false
	if err != nil {
		w.err = err.Error()
	} else {
		w.optimized = out
		w.err = ""
	}
	w.mu.Unlock()

	if err != nil {
		glg.Warnf("workspace %s: compress failed: %v", w.ID, err)
		w.push(Event{Type: EventError, Error: err.Error()})
		w.pushState()
		return fmt.Errorf("compress %s: %w", w.ID, err)
	}
	w.pushState()
	return nil
}

// Reap removes workspaces without a connected client that have been idle for
// longer than idle. It returns the number removed.
func (m *Manager) Reap(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)
	var stale []string
	for _, w := range m.List() {
		if !w.Connected() && w.idleSince().Before(cutoff) {
			stale = append(stale, w.ID)
		}
	}
	n := 0
	for _, id := range stale {
		if m.Delete(id) == nil {
			n++
		}
	}
	if n > 0 {
		glg.Infof("reaped %d idle workspaces", n)
	}
	return n
}

// Janitor calls Reap every interval until ctx is done.
func (m *Manager) Janitor(ctx context.Context, interval, idle time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.Reap(idle)
		}
	}
}

func samePlugins(a, b []optimizer.Plugin) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].Enabled != b[i].Enabled || fmt.Sprint(a[i].Params) != fmt.Sprint(b[i].Params) {
			return false
		}
	}
	return true
}
