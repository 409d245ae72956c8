package model

// AX role and subrole strings used by the introspection layer. These are the
// raw values the platform reports; nothing here abbreviates them.
const (
	RoleApplication = "AXApplication"
	RoleWindow      = "AXWindow"
	RoleList        = "AXList"
	RoleGroup       = "AXGroup"
	RoleStaticText  = "AXStaticText"

	SubroleAppDockItem = "AXApplicationDockItem"
	SubroleBanner      = "AXNotificationCenterBanner"
	SubroleAlert       = "AXNotificationCenterAlert"
)

// NodeAttrs holds the typed attributes of one node in another process's
// accessibility tree. Attributes the platform declined to provide are left
// at their zero value.
type NodeAttrs struct {
	Role     string
	Subrole  string
	Title    string
	Label    string // status label, e.g. a dock item's badge text
	URL      string // bundle or file URL identifying the item, if any
	Position Point
	Size     Size
}

// Frame returns the node's on-screen rectangle.
func (a NodeAttrs) Frame() Rect {
	return Rect{X: a.Position.X, Y: a.Position.Y, W: a.Size.W, H: a.Size.H}
}
