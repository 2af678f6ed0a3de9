package workspace

import (
	"sync"
	"time"

	"svgstudio/format"
	"svgstudio/optimizer"
	"svgstudio/svgdoc"
)

// Event is pushed to the connected client whenever the workspace changes.
type Event struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

const (
	EventState = "state"
	EventError = "error"
)

// Workspace holds one SVG being worked on together with the plugin
// configuration applied to it.
type Workspace struct {
	ID        string
	CreatedAt time.Time

	mu          sync.RWMutex
	fileName    string
	original    string
	optimized   string
	plugins     []optimizer.Plugin
	settings    optimizer.GlobalSettings
	lastActive  time.Time
	compressing bool
	err         string
	rev         uint64

	outMu     sync.Mutex
	outChan   chan Event
	kickChan  chan struct{}
	connected bool
	done      chan struct{}
	closeOnce sync.Once
}

// State is the JSON view of a workspace.
type State struct {
	ID          string                   `json:"id"`
	FileName    string                   `json:"fileName"`
	Original    string                   `json:"original"`
	Optimized   string                   `json:"optimized"`
	Pretty      string                   `json:"pretty,omitempty"`
	Plugins     []optimizer.Plugin       `json:"plugins"`
	Settings    optimizer.GlobalSettings `json:"settings"`
	Stats       optimizer.Stats          `json:"stats"`
	Compressing bool                     `json:"compressing"`
	Error       string                   `json:"error,omitempty"`
	CreatedAt   time.Time                `json:"created_at"`
	LastActive  time.Time                `json:"last_active"`
	Connected   bool                     `json:"connected"`
}

func newWorkspace(id, fileName string) *Workspace {
	now := time.Now()
	return &Workspace{
		ID:         id,
		CreatedAt:  now,
		fileName:   fileName,
		plugins:    optimizer.DefaultPlugins(),
		settings:   optimizer.DefaultSettings(),
		lastActive: now,
		done:       make(chan struct{}),
	}
}

// Snapshot returns a consistent copy of the workspace.
func (w *Workspace) Snapshot() State {
	w.mu.RLock()
	s := State{
		ID:          w.ID,
		FileName:    w.fileName,
		Original:    w.original,
		Optimized:   w.optimized,
		Plugins:     append([]optimizer.Plugin(nil), w.plugins...),
		Settings:    w.settings,
		Compressing: w.compressing,
		Error:       w.err,
		CreatedAt:   w.CreatedAt,
		LastActive:  w.lastActive,
	}
	w.mu.RUnlock()

	s.Connected = w.Connected()
	if s.Optimized != "" {
		s.Stats = optimizer.NewStats(s.Original, s.Optimized, s.Settings.CompareGzipped)
		if s.Settings.PrettifyMarkup {
			s.Pretty = format.Prettify(s.Optimized)
		}
	}
	return s
}

// Optimized returns the current optimized markup and the download name for it.
func (w *Workspace) Optimized() (name, svg string) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return svgdoc.OptimizedFileName(w.fileName), w.optimized
}

// Source returns the file name and original markup.
func (w *Workspace) Source() (name, svg string) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.fileName, w.original
}

func (w *Workspace) idleSince() time.Time {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastActive
}

func (w *Workspace) touch() {
	w.mu.Lock()
	w.lastActive = time.Now()
	w.mu.Unlock()
}

// Connected reports whether a client is attached.
func (w *Workspace) Connected() bool {
	w.outMu.Lock()
	defer w.outMu.Unlock()
	return w.connected
}

// SetClient registers a channel to receive events. A previously connected
// client is displaced: its kick channel is closed. The returned kick channel
// is closed if this client is itself displaced later.
func (w *Workspace) SetClient(ch chan Event) <-chan struct{} {
	w.outMu.Lock()
	defer w.outMu.Unlock()
	if w.kickChan != nil {
		close(w.kickChan)
	}
	kick := make(chan struct{})
	w.kickChan = kick
	w.outChan = ch
	w.connected = true
	w.touch()
	return kick
}

// ClearClient detaches ch if it is still the current client and always
// closes it so the writer goroutine exits.
func (w *Workspace) ClearClient(ch chan Event) {
	w.outMu.Lock()
	if w.outChan == ch {
		w.outChan = nil
		w.connected = false
		w.kickChan = nil
	}
	w.outMu.Unlock()
	close(ch)
}

// Done is closed when the workspace is deleted or reaped.
func (w *Workspace) Done() <-chan struct{} {
	return w.done
}

func (w *Workspace) close() {
	w.closeOnce.Do(func() { close(w.done) })
}

// push delivers ev to the connected client without blocking. Events are
// dropped for a client that is not keeping up.
func (w *Workspace) push(ev Event) {
	w.outMu.Lock()
	defer w.outMu.Unlock()
	if w.outChan == nil {
		return
	}
	select {
	case w.outChan <- ev:
	default:
	}
}

func (w *Workspace) pushState() {
	w.push(Event{Type: EventState, Data: w.Snapshot()})
}
