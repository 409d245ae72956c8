// Package fullscreen detects when another application covers an entire
// screen, using the window-server snapshot rather than accessibility.
package fullscreen

import (
	"sync"
	"time"

	"github.com/mj1618/dockwatch/internal/config"
	"github.com/mj1618/dockwatch/internal/logging"
	"github.com/mj1618/dockwatch/internal/model"
	"github.com/mj1618/dockwatch/internal/platform"
)

const (
	// GracePeriod suppresses detection after Start so the host's own
	// startup windows can't produce a false positive.
	GracePeriod = 10 * time.Second

	// PollInterval is the steady-state check cadence.
	PollInterval = 3 * time.Second

	// ActivationDebounce coalesces bursts of app-activation triggers.
	ActivationDebounce = 100 * time.Millisecond
)

// Covers reports whether any window in the snapshot fully covers one of the
// screens. Filters: layer 0, onscreen, alpha above the configured threshold,
// not our own process, regular activation policy, bounds within tolerance of
// a screen's full frame on all four edges, and (per the tuned heuristic) a
// non-empty title — titleless maximal windows are overwhelmingly overlays,
// not fullscreen apps.
func Covers(windows []model.Window, screens []model.Screen, selfPID int, cfg config.Fullscreen) bool {
	for _, w := range windows {
		if w.Layer != 0 || !w.OnScreen || !w.Regular || w.PID == selfPID {
			continue
		}
		if w.Alpha <= cfg.AlphaThreshold {
			continue
		}
		if cfg.RequireTitle && w.Title == "" {
			continue
		}
		for _, s := range screens {
			if w.Frame.ApproxEqual(s.Frame, cfg.Tolerance) {
				return true
			}
		}
	}
	return false
}

// Detector polls the window server and publishes fullscreen transitions.
// Exactly one change event is emitted per transition; steady state is
// silent. Start and Stop are idempotent.
type Detector struct {
	ws      platform.WindowServer
	screens platform.Screens
	log     *logging.Logger
	selfPID int
	cfg     config.Fullscreen

	// onChange receives each transition; called from the detector's own
	// goroutine, never while the internal lock is held.
	onChange func(fullscreen bool)

	mu         sync.Mutex
	running    bool
	state      bool
	stateAt    time.Time
	armedAfter time.Time
	stop       chan struct{}
	debounce   *time.Timer
	now        func() time.Time

	grace time.Duration
	poll  time.Duration
}

// NewDetector wires a detector; onChange may be nil.
func NewDetector(ws platform.WindowServer, screens platform.Screens, selfPID int, cfg config.Fullscreen, log *logging.Logger, onChange func(bool)) *Detector {
	return &Detector{
		ws:       ws,
		screens:  screens,
		log:      log,
		selfPID:  selfPID,
		cfg:      cfg,
		onChange: onChange,
		now:      time.Now,
		grace:    GracePeriod,
		poll:     PollInterval,
	}
}

// Start begins monitoring: a grace period, then a check every PollInterval.
func (d *Detector) Start() {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.armedAfter = d.now().Add(d.grace)
	d.stop = make(chan struct{})
	stop := d.stop
	d.mu.Unlock()

	d.log.Infof("fullscreen detector started (grace %s)", d.grace)
	go d.run(stop)
}

// Stop halts monitoring. The current state is retained for inspection.
func (d *Detector) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	close(d.stop)
	if d.debounce != nil {
		d.debounce.Stop()
		d.debounce = nil
	}
	d.mu.Unlock()
	d.log.Infof("fullscreen detector stopped")
}

// SetConfig swaps the detection constants; the next check uses them.
func (d *Detector) SetConfig(cfg config.Fullscreen) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfg = cfg
}

// State returns the last published fullscreen state and when it flipped.
func (d *Detector) State() (bool, time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state, d.stateAt
}

// AppActivated notes a foreground-app change; the resulting check is
// debounced so activation bursts collapse into one snapshot.
func (d *Detector) AppActivated() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return
	}
	if d.debounce != nil {
		d.debounce.Stop()
	}
	d.debounce = time.AfterFunc(ActivationDebounce, d.Check)
}

func (d *Detector) run(stop chan struct{}) {
	ticker := time.NewTicker(d.poll)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			d.Check()
		case <-stop:
			return
		}
	}
}

// Check takes one snapshot and updates the state. Checks inside the grace
// period are discarded.
func (d *Detector) Check() {
	d.mu.Lock()
	if !d.running || d.now().Before(d.armedAfter) {
		d.mu.Unlock()
		return
	}
	cfg := d.cfg
	d.mu.Unlock()

	windows, err := d.ws.ListWindows()
	if err != nil {
		d.log.Warnf("fullscreen check: window snapshot failed: %v", err)
		return
	}
	screens, err := d.screens.List()
	if err != nil {
		d.log.Warnf("fullscreen check: screen enumeration failed: %v", err)
		return
	}

	d.setState(Covers(windows, screens, d.selfPID, cfg))
}

func (d *Detector) setState(v bool) {
	d.mu.Lock()
	if !d.running || v == d.state {
		d.mu.Unlock()
		return
	}
	d.state = v
	d.stateAt = d.now()
	onChange := d.onChange
	d.mu.Unlock()

	d.log.Infof("fullscreen state changed: %v", v)
	if onChange != nil {
		onChange(v)
	}
}
