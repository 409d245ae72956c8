package arbiter

import (
	"context"
	"testing"

	"github.com/mj1618/dockwatch/internal/config"
	"github.com/mj1618/dockwatch/internal/model"
	"github.com/mj1618/dockwatch/internal/platform/platformtest"
)

func testScreen() model.Screen {
	return model.Screen{ID: 1, Frame: model.Rect{X: 0, Y: 0, W: 1600, H: 1000}}
}

func TestDockArea(t *testing.T) {
	s := testScreen()
	pad := config.Padding{Top: 2, Bottom: 3, Left: 4, Right: 5}

	tests := []struct {
		name string
		dock config.Dock
		want model.Rect
	}{
		{
			"bottom_medium",
			config.Dock{Position: config.PositionBottom, Size: config.SizeMedium, Padding: pad},
			model.Rect{X: 4, Y: 1000 - 3 - 56, W: 1600 - 4 - 5, H: 56},
		},
		{
			"top_small",
			config.Dock{Position: config.PositionTop, Size: config.SizeSmall, Padding: pad},
			model.Rect{X: 4, Y: 2, W: 1600 - 4 - 5, H: 40},
		},
		{
			"left_large",
			config.Dock{Position: config.PositionLeft, Size: config.SizeLarge, Padding: pad},
			model.Rect{X: 4, Y: 2, W: 72, H: 1000 - 2 - 3},
		},
		{
			"right_medium",
			config.Dock{Position: config.PositionRight, Size: config.SizeMedium, Padding: pad},
			model.Rect{X: 1600 - 5 - 56, Y: 2, W: 56, H: 1000 - 2 - 3},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DockArea(s, tt.dock); got != tt.want {
				t.Errorf("DockArea = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPlanCorrection_BottomDock(t *testing.T) {
	s := testScreen()
	dock := DockArea(s, config.Dock{Position: config.PositionBottom, Size: config.SizeMedium})
	const margin = 15

	// Height 900 on a 1000px screen: 900 ≤ 1000−56−15 = 929, so no resize,
	// but the window bottom (950) is below the dock top (944): move only.
	c := PlanCorrection(model.Rect{X: 0, Y: 50, W: 800, H: 900}, s, dock, config.PositionBottom, margin)
	if c.Size != nil {
		t.Errorf("expected no resize for height 900, got %+v", c.Size)
	}
	if c.Position == nil || c.Position.Y != dock.MinY()-900 {
		t.Errorf("expected move to clear dock, got %+v", c.Position)
	}

	// Height 990: resized to 929, then moved above the dock.
	c = PlanCorrection(model.Rect{X: 0, Y: 5, W: 800, H: 990}, s, dock, config.PositionBottom, margin)
	if c.Size == nil || c.Size.H != 929 {
		t.Fatalf("expected resize to 929, got %+v", c.Size)
	}
	if c.Position == nil || c.Position.Y != dock.MinY()-929 {
		t.Errorf("expected move after resize, got %+v", c.Position)
	}
}

func TestPlanCorrection_Idempotent(t *testing.T) {
	s := testScreen()
	positions := []config.Position{
		config.PositionBottom, config.PositionTop,
		config.PositionLeft, config.PositionRight,
	}
	for _, pos := range positions {
		t.Run(string(pos), func(t *testing.T) {
			dock := DockArea(s, config.Dock{Position: pos, Size: config.SizeMedium})
			// Nearly screen-filling, so every dock position gets an
			// actual correction to converge from.
			frame := model.Rect{X: 10, Y: 10, W: 1580, H: 980}

			c := PlanCorrection(frame, s, dock, pos, 15)
			next := frame
			if c.Size != nil {
				next.W, next.H = c.Size.W, c.Size.H
			}
			if c.Position != nil {
				next.X, next.Y = c.Position.X, c.Position.Y
			}

			// Convergence: a second pass on the corrected frame is a no-op.
			c2 := PlanCorrection(next, s, dock, pos, 15)
			if !c2.None() {
				t.Errorf("second pass not a no-op: %+v", c2)
			}
			// And the corrected frame no longer overlaps the dock.
			if next.Intersects(dock) {
				t.Errorf("corrected frame %+v still overlaps dock %+v", next, dock)
			}
		})
	}
}

func TestPlanCorrection_CompliantWindowIsNoop(t *testing.T) {
	s := testScreen()
	dock := DockArea(s, config.Dock{Position: config.PositionBottom, Size: config.SizeMedium})
	c := PlanCorrection(model.Rect{X: 0, Y: 0, W: 800, H: 600}, s, dock, config.PositionBottom, 15)
	if !c.None() {
		t.Errorf("expected no-op for compliant window, got %+v", c)
	}
}

type arbiterFixture struct {
	arb *Arbiter
	in  *platformtest.Introspector
	ws  *platformtest.WindowServer
}

func newFixture(t *testing.T) *arbiterFixture {
	t.Helper()
	in := platformtest.NewIntrospector()
	ws := &platformtest.WindowServer{}
	sc := &platformtest.Screens{Displays: []model.Screen{testScreen()}}
	arb := New(in, ws, sc, 1, nil)
	arb.Reconfigure(
		config.Dock{Position: config.PositionBottom, Size: config.SizeMedium},
		config.Arbiter{Enabled: true, Margin: 15},
	)
	if err := arb.RefreshScreens(); err != nil {
		t.Fatal(err)
	}
	return &arbiterFixture{arb: arb, in: in, ws: ws}
}

// addWindow registers a window in both the snapshot and the AX focus map.
func (f *arbiterFixture) addWindow(pid int, frame model.Rect) *platformtest.Node {
	node := platformtest.NewNode(model.NodeAttrs{
		Role:     model.RoleWindow,
		Position: frame.Origin(),
		Size:     frame.Extent(),
	})
	f.in.Focus[pid] = node
	f.ws.SetWindows(append(mustList(f.ws), model.Window{
		App: "App", PID: pid, Layer: 0, Alpha: 1, OnScreen: true, Regular: true,
		Frame: frame,
	}))
	return node
}

func mustList(ws *platformtest.WindowServer) []model.Window {
	windows, _ := ws.ListWindows()
	return windows
}

func TestPass_ResizesOffendingWindow(t *testing.T) {
	f := newFixture(t)
	node := f.addWindow(50, model.Rect{X: 0, Y: 5, W: 800, H: 990})

	n, err := f.arb.Pass(context.Background())
	if err != nil {
		t.Fatalf("Pass: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 mutation, got %d", n)
	}
	if node.Attrs.Size.H != 929 {
		t.Errorf("expected height 929, got %g", node.Attrs.Size.H)
	}
	if got := node.Attrs.Position.Y + node.Attrs.Size.H; got != 944 {
		t.Errorf("expected window bottom at dock top 944, got %g", got)
	}
}

func TestPass_NoopForCompliantWindows(t *testing.T) {
	f := newFixture(t)
	f.addWindow(50, model.Rect{X: 0, Y: 0, W: 800, H: 600})

	n, err := f.arb.Pass(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 || f.in.MutationCount() != 0 {
		t.Errorf("expected no mutations, got %d (%d calls)", n, f.in.MutationCount())
	}
}

func TestPass_ConvergesInTwoPasses(t *testing.T) {
	f := newFixture(t)
	node := f.addWindow(50, model.Rect{X: 0, Y: 5, W: 800, H: 990})

	if _, err := f.arb.Pass(context.Background()); err != nil {
		t.Fatal(err)
	}
	// Refresh the snapshot to the corrected frame, as the window server
	// would on the next tick.
	f.ws.SetWindows([]model.Window{{
		App: "App", PID: 50, Layer: 0, Alpha: 1, OnScreen: true, Regular: true,
		Frame: node.Attrs.Frame(),
	}})

	n, err := f.arb.Pass(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("expected converged second pass, got %d mutations", n)
	}
}

func TestPass_SkipsNonFocusedWindow(t *testing.T) {
	f := newFixture(t)
	f.addWindow(50, model.Rect{X: 0, Y: 5, W: 800, H: 990})
	// The process's focused window is somewhere else entirely.
	f.in.Focus[50] = platformtest.NewNode(model.NodeAttrs{
		Role:     model.RoleWindow,
		Position: model.Point{X: 900, Y: 0},
		Size:     model.Size{W: 100, H: 100},
	})

	n, err := f.arb.Pass(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 || f.in.MutationCount() != 0 {
		t.Errorf("expected non-focused window to be skipped, got %d mutations", n)
	}
}

func TestPass_OneFailureDoesNotAbort(t *testing.T) {
	f := newFixture(t)
	// First window has no AX focus entry at all: apply fails.
	f.ws.SetWindows([]model.Window{{
		App: "Broken", PID: 60, Layer: 0, Alpha: 1, OnScreen: true, Regular: true,
		Frame: model.Rect{X: 0, Y: 5, W: 800, H: 990},
	}})
	node := f.addWindow(50, model.Rect{X: 0, Y: 5, W: 700, H: 990})

	n, err := f.arb.Pass(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected the healthy window to still be corrected, got %d", n)
	}
	if node.Attrs.Size.H != 929 {
		t.Errorf("expected height 929, got %g", node.Attrs.Size.H)
	}
}

func TestPass_DisabledDoesNothing(t *testing.T) {
	f := newFixture(t)
	f.addWindow(50, model.Rect{X: 0, Y: 5, W: 800, H: 990})
	f.arb.Reconfigure(
		config.Dock{Position: config.PositionBottom, Size: config.SizeMedium},
		config.Arbiter{Enabled: false, Margin: 15},
	)

	n, err := f.arb.Pass(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("expected disabled arbiter to do nothing, got %d", n)
	}
}

func TestPass_PermissionDenied(t *testing.T) {
	f := newFixture(t)
	f.in.Denied = true
	f.addWindow(50, model.Rect{X: 0, Y: 5, W: 800, H: 990})

	if _, err := f.arb.Pass(context.Background()); err == nil {
		t.Error("expected permission error")
	}
}
