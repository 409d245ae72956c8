package platform

import "github.com/mj1618/dockwatch/internal/model"

// NodeRef is a borrowed handle to one node in another process's
// accessibility tree. Handles are valid for the duration of a single scan;
// the tree belongs to a foreign process and may mutate or vanish at any
// time, so a ref must never be persisted across scans without re-validation.
type NodeRef interface {
	// Token returns a stable identity for this node, used to detect cycles
	// while traversing. Two refs to the same underlying node return the
	// same token within one scan.
	Token() uint64
}

// Introspector reads and mutates foreign accessibility trees.
type Introspector interface {
	// Trusted reports whether the process holds accessibility permission.
	Trusted() bool

	// AppRoot returns the application-level root node for a process.
	AppRoot(pid int) (NodeRef, error)

	// Children returns the ordered child nodes of ref. A platform refusal
	// to provide the attribute is reported as ErrAttributeUnavailable.
	Children(ref NodeRef) ([]NodeRef, error)

	// Attributes returns the typed attributes of ref. Individual missing
	// attributes are left at their zero value; only a dead or invalid ref
	// produces an error.
	Attributes(ref NodeRef) (model.NodeAttrs, error)

	// FocusedWindow returns the focused window node of a process.
	FocusedWindow(pid int) (NodeRef, error)

	// SetPosition moves the element to p (top-left origin).
	SetPosition(ref NodeRef, p model.Point) error

	// SetSize resizes the element to s.
	SetSize(ref NodeRef, s model.Size) error
}

// WindowServer takes snapshots of the on-screen window list. This is the
// cheap bulk path: no accessibility permission needed, read-only.
type WindowServer interface {
	ListWindows() ([]model.Window, error)
	FrontmostApp() (name string, pid int, err error)
}

// Screens enumerates attached displays.
type Screens interface {
	List() ([]model.Screen, error)
}

// Processes locates well-known system processes by bundle identifier.
type Processes interface {
	PIDOf(bundleID string) (int, error)
}

// Bundle identifiers of the system processes the engine observes.
const (
	BundleDock               = "com.apple.dock"
	BundleNotificationCenter = "com.apple.notificationcenterui"
)

// EventKind discriminates platform events.
type EventKind int

const (
	EventAppActivated EventKind = iota
	EventScreenChanged
	EventWindowCreated
)

func (k EventKind) String() string {
	switch k {
	case EventAppActivated:
		return "app-activated"
	case EventScreenChanged:
		return "screen-changed"
	case EventWindowCreated:
		return "window-created"
	}
	return "unknown"
}

// Event is one platform notification. PID is set for app-activated and
// window-created events.
type Event struct {
	Kind EventKind
	PID  int
}

// Events delivers platform notifications on a single channel. Start and
// Stop are idempotent; the channel is closed by Stop.
type Events interface {
	Start() error
	Stop()
	C() <-chan Event

	// ObserveWindowCreation subscribes to window-creation notifications
	// for one process. Requires accessibility permission.
	ObserveWindowCreation(pid int) error
}
