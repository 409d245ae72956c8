// Package arbiter keeps the reserved dock region clear by resizing and
// moving foreground windows that overlap it.
package arbiter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mj1618/dockwatch/internal/config"
	"github.com/mj1618/dockwatch/internal/logging"
	"github.com/mj1618/dockwatch/internal/model"
	"github.com/mj1618/dockwatch/internal/platform"
)

// Tick is the fixed monitoring cadence between arbitration passes.
const Tick = 500 * time.Millisecond

// frameTolerance allows the window-server frame and the accessibility frame
// of the same window to disagree by a few pixels.
const frameTolerance = 4.0

// Arbiter owns the per-screen dock areas and the arbitration pass.
// Dock areas are recomputed on settings or screen-configuration changes and
// only ever replaced wholesale, never mutated in place.
type Arbiter struct {
	in      platform.Introspector
	ws      platform.WindowServer
	screens platform.Screens
	log     *logging.Logger
	selfPID int

	mu      sync.Mutex
	enabled bool
	dock    config.Dock
	margin  float64
	scrs    []model.Screen
	areas   map[uint32]model.Rect
}

// New creates an arbiter. Reconfigure and RefreshScreens must be called
// before the first pass.
func New(in platform.Introspector, ws platform.WindowServer, screens platform.Screens, selfPID int, log *logging.Logger) *Arbiter {
	return &Arbiter{
		in:      in,
		ws:      ws,
		screens: screens,
		log:     log,
		selfPID: selfPID,
		areas:   make(map[uint32]model.Rect),
	}
}

// Reconfigure applies new dock and arbitration settings and recomputes the
// dock areas for the current screen set.
func (a *Arbiter) Reconfigure(dock config.Dock, arb config.Arbiter) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.dock = dock
	a.margin = arb.Margin
	a.enabled = arb.Enabled
	a.recomputeLocked()
}

// RefreshScreens re-reads the display list and recomputes the dock areas.
func (a *Arbiter) RefreshScreens() error {
	scrs, err := a.screens.List()
	if err != nil {
		return fmt.Errorf("enumerate screens: %w", err)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scrs = scrs
	a.recomputeLocked()
	return nil
}

func (a *Arbiter) recomputeLocked() {
	areas := make(map[uint32]model.Rect, len(a.scrs))
	for _, s := range a.scrs {
		areas[s.ID] = DockArea(s, a.dock)
	}
	a.areas = areas
}

// Areas returns a copy of the current per-screen dock areas.
func (a *Arbiter) Areas() map[uint32]model.Rect {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[uint32]model.Rect, len(a.areas))
	for id, r := range a.areas {
		out[id] = r
	}
	return out
}

// Pass runs one arbitration pass: snapshot the foreground windows, plan a
// correction for each one that overlaps a dock area, and apply the plans
// through the accessibility mutation API. One window's failure never aborts
// the pass. Returns the number of windows mutated.
func (a *Arbiter) Pass(ctx context.Context) (int, error) {
	a.mu.Lock()
	enabled := a.enabled
	scrs := a.scrs
	areas := a.areas
	dockCfg := a.dock
	margin := a.margin
	a.mu.Unlock()

	if !enabled || len(scrs) == 0 {
		return 0, nil
	}
	if !a.in.Trusted() {
		return 0, fmt.Errorf("arbitration pass: %w", platform.ErrPermissionDenied)
	}

	windows, err := a.ws.ListWindows()
	if err != nil {
		return 0, fmt.Errorf("window snapshot: %w", err)
	}

	mutated := 0
	for _, w := range windows {
		if ctx.Err() != nil {
			return mutated, ctx.Err()
		}
		if w.Layer != 0 || !w.OnScreen || !w.Regular || w.PID == a.selfPID {
			continue
		}
		for _, s := range scrs {
			dock, ok := areas[s.ID]
			if !ok {
				continue
			}
			if !s.Frame.Intersects(w.Frame) || !dock.Intersects(w.Frame) {
				continue
			}
			plan := PlanCorrection(w.Frame, s, dock, dockCfg.Position, margin)
			if plan.None() {
				continue
			}
			if err := a.apply(w, plan); err != nil {
				a.log.Errorf("arbiter: correction for %s (pid %d) failed: %v", w.App, w.PID, err)
				continue
			}
			a.log.Infof("arbiter: corrected %s (pid %d) on screen %d", w.App, w.PID, s.ID)
			mutated++
		}
	}
	return mutated, nil
}

// apply pushes a correction to the focused window of the owning process.
// Only the focused window is ever touched: background windows of a
// multi-window app are left alone, so the pass never fights the user over
// a window they aren't using.
func (a *Arbiter) apply(w model.Window, plan Correction) error {
	focused, err := a.in.FocusedWindow(w.PID)
	if err != nil {
		return fmt.Errorf("focused window: %w", err)
	}
	attrs, err := a.in.Attributes(focused)
	if err != nil {
		return fmt.Errorf("focused window attributes: %w", err)
	}
	// The snapshot window must be the focused one, otherwise skip.
	if !attrs.Frame().ApproxEqual(w.Frame, frameTolerance) {
		return fmt.Errorf("offending window is not the focused window of pid %d", w.PID)
	}

	if plan.Size != nil {
		if err := a.in.SetSize(focused, *plan.Size); err != nil {
			return fmt.Errorf("%w: set size: %v", platform.ErrMutationFailed, err)
		}
	}
	if plan.Position != nil {
		if err := a.in.SetPosition(focused, *plan.Position); err != nil {
			return fmt.Errorf("%w: set position: %v", platform.ErrMutationFailed, err)
		}
	}
	return nil
}
