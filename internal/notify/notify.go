// Package notify repositions the system's notification banners to a
// configured screen corner.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mj1618/dockwatch/internal/config"
	"github.com/mj1618/dockwatch/internal/logging"
	"github.com/mj1618/dockwatch/internal/model"
	"github.com/mj1618/dockwatch/internal/platform"
	"github.com/mj1618/dockwatch/internal/walker"
)

const (
	// PollWindow is how long after a successful move the repositioner
	// keeps re-checking: transient widget UI can silently reset the
	// banner position when it disappears.
	PollWindow = 6500 * time.Millisecond

	// PollStep is the re-check cadence inside the poll window.
	PollStep = 500 * time.Millisecond

	// BottomClearance keeps bottom-corner banners off the very edge.
	BottomClearance = 20.0
)

// GeometryCache holds the pristine banner geometry, captured once the first
// time a banner is seen after the feature is (re)enabled.
type GeometryCache struct {
	Position   model.Point // pristine window position
	WindowSize model.Size  // notification window size
	BannerSize model.Size  // banner element size
	Padding    float64     // implied right-edge padding: screenW − (x + w)
	Valid      bool
}

// TargetPosition maps a corner to the banner window's target origin.
// It is a pure function of the corner, the cached geometry, and the screen.
// The nine corners form a 3×3 grid: X is left (cached padding), center
// (midpoint), or right (the pristine default); Y is top (the pristine
// default), middle (centered, pulled up by half the dock inset), or bottom
// (above the dock inset plus a fixed clearance).
func TargetPosition(corner config.Corner, cache GeometryCache, screen model.Screen) model.Point {
	f := screen.Frame
	inset := screen.BottomInset()

	var x float64
	switch corner {
	case config.CornerTopLeft, config.CornerMiddleLeft, config.CornerBottomLeft:
		x = f.MinX() + cache.Padding
	case config.CornerTopCenter, config.CornerMiddleCenter, config.CornerBottomCenter:
		x = f.MinX() + (f.W-cache.WindowSize.W)/2
	default: // right column: zero offset from the pristine position
		x = cache.Position.X
	}

	var y float64
	switch corner {
	case config.CornerMiddleLeft, config.CornerMiddleCenter, config.CornerMiddleRight:
		y = f.MinY() + (f.H-cache.WindowSize.H)/2 - inset/2
	case config.CornerBottomLeft, config.CornerBottomCenter, config.CornerBottomRight:
		y = f.MaxY() - cache.WindowSize.H - inset - BottomClearance
	default: // top row: zero offset from the pristine position
		y = cache.Position.Y
	}

	return model.Point{X: x, Y: y}
}

// Repositioner watches the notification surface process and moves each new
// banner window to the configured corner. It holds the engine's only
// persistent node reference (the banner window), which is re-validated
// before every mutation.
type Repositioner struct {
	in      platform.Introspector
	screens platform.Screens
	procs   platform.Processes
	events  platform.Events
	log     *logging.Logger

	mu       sync.Mutex
	enabled  bool
	corner   config.Corner
	cache    GeometryCache
	banner   platform.NodeRef // cached banner window; revalidate before use
	errState error
	pollStop chan struct{}
	ncPID    int
	now      func() time.Time
	pollStep time.Duration
	pollSpan time.Duration
}

// NewRepositioner wires a repositioner; call Enable to start.
func NewRepositioner(in platform.Introspector, screens platform.Screens, procs platform.Processes, events platform.Events, log *logging.Logger) *Repositioner {
	return &Repositioner{
		in:       in,
		screens:  screens,
		procs:    procs,
		events:   events,
		log:      log,
		corner:   config.CornerDefault,
		now:      time.Now,
		pollStep: PollStep,
		pollSpan: PollWindow,
	}
}

// Enable turns repositioning on for the given corner. The introspection
// permission is required; without it the error state is published and
// returned rather than failing silently. Enabling invalidates any cached
// geometry.
func (r *Repositioner) Enable(corner config.Corner) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.in.Trusted() {
		r.errState = fmt.Errorf("notification repositioning: %w", platform.ErrPermissionDenied)
		r.log.Warnf("notification repositioning unavailable: %v", r.errState)
		return r.errState
	}

	pid, err := r.procs.PIDOf(platform.BundleNotificationCenter)
	if err != nil {
		r.errState = fmt.Errorf("locate notification surface: %w", err)
		return r.errState
	}
	if err := r.events.ObserveWindowCreation(pid); err != nil {
		r.errState = fmt.Errorf("observe notification windows: %w", err)
		return r.errState
	}

	r.enabled = true
	r.corner = corner
	r.ncPID = pid
	r.cache = GeometryCache{}
	r.banner = nil
	r.errState = nil
	r.log.Infof("notification repositioning enabled: corner %s", corner)
	return nil
}

// Disable turns repositioning off and drops the geometry cache.
func (r *Repositioner) Disable() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = false
	r.cache = GeometryCache{}
	r.banner = nil
	r.stopPollLocked()
	r.log.Infof("notification repositioning disabled")
}

// ErrState returns the published error state, if any.
func (r *Repositioner) ErrState() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errState
}

// SurfacePID returns the observed notification process, 0 when disabled.
func (r *Repositioner) SurfacePID() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.enabled {
		return 0
	}
	return r.ncPID
}

// HandleWindowCreated reacts to a window-creation event on the notification
// surface: locate the banner, cache pristine geometry on first sighting,
// restore drift, then move to the target corner and open the poll window.
func (r *Repositioner) HandleWindowCreated(ctx context.Context) {
	r.mu.Lock()
	enabled, corner := r.enabled, r.corner
	r.mu.Unlock()

	if !enabled || corner == config.CornerDefault {
		return
	}

	target, err := r.reposition(ctx)
	if err != nil {
		if !walker.IsExpected(err) {
			r.log.Errorf("notification reposition failed: %v", err)
		}
		return
	}
	r.log.Debugf("notification moved to %s (%.0f, %.0f)", corner, target.X, target.Y)
	r.startPoll(target)
}

// reposition does one locate-cache-move cycle and returns the applied
// target position.
func (r *Repositioner) reposition(ctx context.Context) (model.Point, error) {
	windowRef, attrs, err := r.findBannerWindow(ctx)
	if err != nil {
		return model.Point{}, err
	}

	screens, err := r.screens.List()
	if err != nil {
		return model.Point{}, fmt.Errorf("enumerate screens: %w", err)
	}
	screen, ok := model.ScreenForRect(screens, attrs.Frame())
	if !ok {
		return model.Point{}, fmt.Errorf("no screens available")
	}

	r.mu.Lock()
	if !r.cache.Valid {
		bannerSize := attrs.Size
		if m, found := walker.FindFirst(ctx, r.in, windowRef, func(a model.NodeAttrs) bool {
			return a.Subrole == model.SubroleBanner || a.Subrole == model.SubroleAlert
		}, walker.MaxDepthShallow); found {
			bannerSize = m.Attrs.Size
		}
		r.cache = GeometryCache{
			Position:   attrs.Position,
			WindowSize: attrs.Size,
			BannerSize: bannerSize,
			Padding:    screen.Frame.MaxX() - (attrs.Position.X + attrs.Size.W),
			Valid:      true,
		}
	} else if attrs.Position != r.cache.Position {
		// The platform (or a previous move of ours) shifted the window;
		// restore the pristine position before computing the target so
		// the formulas always start from the same baseline.
		if err := r.in.SetPosition(windowRef, r.cache.Position); err != nil {
			r.mu.Unlock()
			return model.Point{}, fmt.Errorf("%w: restore pristine position: %v", platform.ErrMutationFailed, err)
		}
	}
	cache, corner := r.cache, r.corner
	r.banner = windowRef
	r.mu.Unlock()

	target := TargetPosition(corner, cache, screen)
	if err := r.in.SetPosition(windowRef, target); err != nil {
		return model.Point{}, fmt.Errorf("%w: move banner: %v", platform.ErrMutationFailed, err)
	}
	return target, nil
}

// findBannerWindow locates the current banner window, preferring the cached
// reference when it is still alive.
func (r *Repositioner) findBannerWindow(ctx context.Context) (platform.NodeRef, model.NodeAttrs, error) {
	r.mu.Lock()
	cached := r.banner
	pid := r.ncPID
	r.mu.Unlock()

	if cached != nil {
		if attrs, err := r.in.Attributes(cached); err == nil && attrs.Role == model.RoleWindow {
			return cached, attrs, nil
		}
		// Dead handle: fall through to a fresh search.
		r.mu.Lock()
		r.banner = nil
		r.mu.Unlock()
	}

	root, err := r.in.AppRoot(pid)
	if err != nil {
		return nil, model.NodeAttrs{}, fmt.Errorf("notification surface root: %w", err)
	}
	m, found := walker.FindFirst(ctx, r.in, root, func(a model.NodeAttrs) bool {
		return a.Role == model.RoleWindow
	}, walker.MaxDepthShallow)
	if !found {
		return nil, model.NodeAttrs{}, fmt.Errorf("no notification window present")
	}
	return m.Ref, m.Attrs, nil
}

// startPoll opens the re-apply window: for PollWindow after a successful
// move, periodically verify the banner is still at target and put it back
// when something moved it.
func (r *Repositioner) startPoll(target model.Point) {
	r.mu.Lock()
	r.stopPollLocked()
	stop := make(chan struct{})
	r.pollStop = stop
	step, span := r.pollStep, r.pollSpan
	r.mu.Unlock()

	go func() {
		deadline := time.NewTimer(span)
		ticker := time.NewTicker(step)
		defer deadline.Stop()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.reapply(target)
			case <-deadline.C:
				return
			case <-stop:
				return
			}
		}
	}()
}

func (r *Repositioner) stopPollLocked() {
	if r.pollStop != nil {
		close(r.pollStop)
		r.pollStop = nil
	}
}

// reapply puts the banner back at target if it drifted. The cached handle
// is re-validated first; a dead handle ends the poll cycle quietly (the
// banner was dismissed).
func (r *Repositioner) reapply(target model.Point) {
	r.mu.Lock()
	ref := r.banner
	enabled := r.enabled
	r.mu.Unlock()
	if !enabled || ref == nil {
		return
	}

	attrs, err := r.in.Attributes(ref)
	if err != nil || attrs.Role != model.RoleWindow {
		return
	}
	if attrs.Position == target {
		return
	}
	if err := r.in.SetPosition(ref, target); err != nil {
		r.log.Errorf("notification re-apply failed: %v", err)
		return
	}
	r.log.Debugf("notification position re-applied after transient UI reset")
}
