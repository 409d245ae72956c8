// Package platformtest provides in-memory platform backends for tests.
// Every engine component is constructible against these fakes, so the
// geometric and scheduling logic is testable without a window server.
package platformtest

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/mj1618/dockwatch/internal/model"
	"github.com/mj1618/dockwatch/internal/platform"
)

var tokenCounter uint64

// Node is an in-memory accessibility node. Kids may point back at ancestors
// to model the cyclic graphs foreign processes can expose.
type Node struct {
	Attrs model.NodeAttrs
	Kids  []*Node
	tok   uint64
}

// NewNode allocates a node with a fresh identity token.
func NewNode(attrs model.NodeAttrs, kids ...*Node) *Node {
	return &Node{
		Attrs: attrs,
		Kids:  kids,
		tok:   atomic.AddUint64(&tokenCounter, 1),
	}
}

func (n *Node) Token() uint64 { return n.tok }

// Mutation records one SetPosition or SetSize call.
type Mutation struct {
	Node     *Node
	Position *model.Point
	Size     *model.Size
}

// Introspector is an in-memory platform.Introspector.
type Introspector struct {
	mu sync.Mutex

	Denied  bool            // report no accessibility permission
	Roots   map[int]*Node   // pid → application root
	Focus   map[int]*Node   // pid → focused window node
	NoKids  map[uint64]bool // tokens whose children are unavailable
	FailSet bool            // reject all mutations

	Mutations []Mutation
}

func NewIntrospector() *Introspector {
	return &Introspector{
		Roots:  make(map[int]*Node),
		Focus:  make(map[int]*Node),
		NoKids: make(map[uint64]bool),
	}
}

func (in *Introspector) Trusted() bool { return !in.Denied }

func (in *Introspector) AppRoot(pid int) (platform.NodeRef, error) {
	if in.Denied {
		return nil, fmt.Errorf("app root for pid %d: %w", pid, platform.ErrPermissionDenied)
	}
	n, ok := in.Roots[pid]
	if !ok {
		return nil, fmt.Errorf("no application with pid %d", pid)
	}
	return n, nil
}

func (in *Introspector) Children(ref platform.NodeRef) ([]platform.NodeRef, error) {
	n := ref.(*Node)
	if in.NoKids[n.tok] {
		return nil, fmt.Errorf("children of node %d: %w", n.tok, platform.ErrAttributeUnavailable)
	}
	refs := make([]platform.NodeRef, len(n.Kids))
	for i, k := range n.Kids {
		refs[i] = k
	}
	return refs, nil
}

func (in *Introspector) Attributes(ref platform.NodeRef) (model.NodeAttrs, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	return ref.(*Node).Attrs, nil
}

func (in *Introspector) FocusedWindow(pid int) (platform.NodeRef, error) {
	if in.Denied {
		return nil, fmt.Errorf("focused window for pid %d: %w", pid, platform.ErrPermissionDenied)
	}
	n, ok := in.Focus[pid]
	if !ok {
		return nil, fmt.Errorf("no focused window for pid %d", pid)
	}
	return n, nil
}

func (in *Introspector) SetPosition(ref platform.NodeRef, p model.Point) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.FailSet {
		return fmt.Errorf("set position: %w", platform.ErrMutationFailed)
	}
	n := ref.(*Node)
	n.Attrs.Position = p
	in.Mutations = append(in.Mutations, Mutation{Node: n, Position: &p})
	return nil
}

func (in *Introspector) SetSize(ref platform.NodeRef, s model.Size) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.FailSet {
		return fmt.Errorf("set size: %w", platform.ErrMutationFailed)
	}
	n := ref.(*Node)
	n.Attrs.Size = s
	in.Mutations = append(in.Mutations, Mutation{Node: n, Size: &s})
	return nil
}

// MutationCount returns how many mutations have been applied.
func (in *Introspector) MutationCount() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.Mutations)
}

// WindowServer is an in-memory platform.WindowServer.
type WindowServer struct {
	mu       sync.Mutex
	windows  []model.Window
	FrontApp string
	FrontPID int
}

func (ws *WindowServer) SetWindows(windows []model.Window) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.windows = append([]model.Window(nil), windows...)
}

func (ws *WindowServer) ListWindows() ([]model.Window, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return append([]model.Window(nil), ws.windows...), nil
}

func (ws *WindowServer) FrontmostApp() (string, int, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.FrontApp, ws.FrontPID, nil
}

// Screens is an in-memory platform.Screens.
type Screens struct {
	Displays []model.Screen
}

func (s *Screens) List() ([]model.Screen, error) {
	return append([]model.Screen(nil), s.Displays...), nil
}

// Processes is an in-memory platform.Processes.
type Processes struct {
	PIDs map[string]int
}

func (p *Processes) PIDOf(bundleID string) (int, error) {
	pid, ok := p.PIDs[bundleID]
	if !ok {
		return 0, fmt.Errorf("no running process for bundle %q", bundleID)
	}
	return pid, nil
}

// Events is an in-memory platform.Events; tests push events with Emit.
type Events struct {
	mu       sync.Mutex
	ch       chan platform.Event
	started  bool
	stopped  bool  // previous channel was closed by Stop
	Observed []int // pids with a window-creation observer
}

func NewEvents() *Events {
	return &Events{ch: make(chan platform.Event, 64)}
}

func (e *Events) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		// The previous channel was closed; a restarted stream delivers on
		// a fresh one.
		e.ch = make(chan platform.Event, 64)
		e.stopped = false
		e.Observed = nil
	}
	e.started = true
	return nil
}

func (e *Events) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		e.started = false
		e.stopped = true
		close(e.ch)
	}
}

func (e *Events) C() <-chan platform.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ch
}

// ObserveWindowCreation records the pid once; re-registration for an
// already-observed process is a no-op, as on the real backend.
func (e *Events) ObserveWindowCreation(pid int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, p := range e.Observed {
		if p == pid {
			return nil
		}
	}
	e.Observed = append(e.Observed, pid)
	return nil
}

// Emit delivers an event to the consumer; events emitted while the stream
// is stopped are dropped.
func (e *Events) Emit(ev platform.Event) {
	e.mu.Lock()
	ch := e.ch
	started := e.started
	e.mu.Unlock()
	if !started {
		return
	}
	ch <- ev
}

// ObservedPIDs returns the pids registered for window-creation observation.
func (e *Events) ObservedPIDs() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]int(nil), e.Observed...)
}

// NewProvider bundles fresh fakes into a platform.Provider.
func NewProvider() (*platform.Provider, *Introspector, *WindowServer, *Screens, *Events) {
	in := NewIntrospector()
	ws := &WindowServer{}
	sc := &Screens{}
	ev := NewEvents()
	p := &platform.Provider{
		Introspector: in,
		WindowServer: ws,
		Screens:      sc,
		Processes:    &Processes{PIDs: map[string]int{}},
		Events:       ev,
		SelfPID:      1,
	}
	return p, in, ws, sc, ev
}
