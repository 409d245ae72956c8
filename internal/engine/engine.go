// Package engine wires the detectors, the arbiter, and the scheduler into
// one coordinated lifecycle. A single coordinating goroutine runs every
// arbitration pass and applies every configuration change; scans triggered
// by it run to completion before their results are published, and a
// generation counter discards results that outlive a Stop.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mj1618/dockwatch/internal/arbiter"
	"github.com/mj1618/dockwatch/internal/badge"
	"github.com/mj1618/dockwatch/internal/config"
	"github.com/mj1618/dockwatch/internal/fullscreen"
	"github.com/mj1618/dockwatch/internal/logging"
	"github.com/mj1618/dockwatch/internal/model"
	"github.com/mj1618/dockwatch/internal/notify"
	"github.com/mj1618/dockwatch/internal/platform"
	"github.com/mj1618/dockwatch/internal/schedule"
)

// Reason tags posted to the scheduler.
const (
	ReasonTick          schedule.Reason = "tick"
	ReasonSettings      schedule.Reason = "settings-changed"
	ReasonScreens       schedule.Reason = "screens-changed"
	ReasonAppActivated  schedule.Reason = "app-activated"
	ReasonWindowCreated schedule.Reason = "window-created"
)

// Update is one coalesced engine update, published after the arbitration
// pass it triggered has completed.
type Update struct {
	Reasons []schedule.Reason
	At      time.Time
}

// Options carries the engine's external collaborators. OnUpdate and
// OnFullscreen may be nil.
type Options struct {
	Provider     *platform.Provider
	Config       config.Config
	Log          *logging.Logger
	OnUpdate     func(Update)
	OnFullscreen func(bool)
}

// Engine owns the observation components and their shared scheduler.
type Engine struct {
	provider *platform.Provider
	log      *logging.Logger

	sched      *schedule.Scheduler
	badges     *badge.Reader
	fullscreen *fullscreen.Detector
	arbiter    *arbiter.Arbiter
	notify     *notify.Repositioner

	onUpdate func(Update)

	mu      sync.Mutex
	cfg     config.Config
	running bool
	gen     uint64
	stop    chan struct{}
	fires   chan []schedule.Reason

	// denied tracks whether the last pass failed on missing accessibility
	// permission, so the warning fires once per transition rather than on
	// every tick.
	denied bool
}

// New assembles an engine from a platform provider and initial settings.
func New(opts Options) *Engine {
	p := opts.Provider
	e := &Engine{
		provider: p,
		log:      opts.Log,
		cfg:      opts.Config,
		onUpdate: opts.OnUpdate,
		badges:   badge.NewReader(p.Introspector, p.Processes, opts.Log),
		arbiter:  arbiter.New(p.Introspector, p.WindowServer, p.Screens, p.SelfPID, opts.Log),
		notify:   notify.NewRepositioner(p.Introspector, p.Screens, p.Processes, p.Events, opts.Log),
		fires:    make(chan []schedule.Reason, 8),
	}
	e.fullscreen = fullscreen.NewDetector(p.WindowServer, p.Screens, p.SelfPID, opts.Config.Fullscreen, opts.Log, opts.OnFullscreen)
	e.sched = schedule.New(e.enqueueFire)
	return e
}

// enqueueFire hands a scheduler fire to the coordinating loop. The channel
// is buffered; if the loop is wedged behind a long pass the oldest fire is
// dropped, since the newest reason set supersedes it anyway.
func (e *Engine) enqueueFire(reasons []schedule.Reason) {
	for {
		select {
		case e.fires <- reasons:
			return
		default:
			select {
			case <-e.fires:
			default:
			}
		}
	}
}

// Start brings up the platform event stream, the detectors, and the
// coordinating loop. Idempotent.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = true
	e.gen++
	e.stop = make(chan struct{})
	stop := e.stop
	gen := e.gen
	cfg := e.cfg
	e.mu.Unlock()

	if err := e.provider.Events.Start(); err != nil {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
		return err
	}

	e.arbiter.Reconfigure(cfg.Dock, cfg.Arbiter)
	if err := e.arbiter.RefreshScreens(); err != nil {
		e.log.Warnf("engine: initial screen enumeration failed: %v", err)
	}
	if cfg.Notifications.Reposition {
		if err := e.notify.Enable(cfg.Notifications.Corner); err != nil {
			e.log.Warnf("engine: %v", err)
		}
	}
	e.fullscreen.Start()

	go e.loop(stop, gen)
	e.log.Infof("engine started")
	return nil
}

// Stop tears the engine down. In-flight scans finish but their results are
// discarded: the loop exits on the stop channel and the generation counter
// has already moved on. Idempotent.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	e.gen++
	close(e.stop)
	e.mu.Unlock()

	e.sched.CancelPending()
	e.fullscreen.Stop()
	e.notify.Disable()
	e.provider.Events.Stop()
	e.log.Infof("engine stopped")
}

// SetConfig applies new settings to every component and posts a
// settings-changed update.
func (e *Engine) SetConfig(cfg config.Config) {
	e.mu.Lock()
	e.cfg = cfg
	running := e.running
	e.mu.Unlock()

	e.arbiter.Reconfigure(cfg.Dock, cfg.Arbiter)
	e.fullscreen.SetConfig(cfg.Fullscreen)
	if running {
		if cfg.Notifications.Reposition {
			if err := e.notify.Enable(cfg.Notifications.Corner); err != nil {
				e.log.Warnf("engine: %v", err)
			}
		} else {
			e.notify.Disable()
		}
		e.sched.Post(ReasonSettings)
	}
	e.log.Infof("engine: settings applied (dock %s/%s)", cfg.Dock.Position, cfg.Dock.Size)
}

// Badges returns the current badge snapshot, refreshing a stale cache.
func (e *Engine) Badges(ctx context.Context) (model.BadgeSnapshot, error) {
	return e.badges.Counts(ctx)
}

// Fullscreen returns the last published fullscreen state.
func (e *Engine) Fullscreen() (bool, time.Time) {
	return e.fullscreen.State()
}

// DockAreas returns the current per-screen reserved rectangles.
func (e *Engine) DockAreas() map[uint32]model.Rect {
	return e.arbiter.Areas()
}

// NotifyError returns the notification repositioner's published error
// state, if any.
func (e *Engine) NotifyError() error {
	return e.notify.ErrState()
}

// Arbitrate runs one arbitration pass outside the monitoring loop.
func (e *Engine) Arbitrate(ctx context.Context) (int, error) {
	return e.arbiter.Pass(ctx)
}

// loop is the coordinating goroutine: it consumes platform events, the
// fixed monitoring tick, and scheduler fires, and is the only goroutine
// that runs arbitration passes.
func (e *Engine) loop(stop chan struct{}, gen uint64) {
	ticker := time.NewTicker(arbiter.Tick)
	defer ticker.Stop()

	events := e.provider.Events.C()
	for {
		select {
		case <-stop:
			return
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			e.handleEvent(ev)
		case <-ticker.C:
			// The fixed tick drives arbitration only; coalesced updates
			// are published for event-triggered fires.
			e.runPass(stop, gen, Update{Reasons: []schedule.Reason{ReasonTick}, At: time.Now()}, false)
		case reasons := <-e.fires:
			e.runPass(stop, gen, Update{Reasons: reasons, At: time.Now()}, true)
		}
	}
}

func (e *Engine) handleEvent(ev platform.Event) {
	switch ev.Kind {
	case platform.EventAppActivated:
		e.fullscreen.AppActivated()
		e.sched.Post(ReasonAppActivated)
	case platform.EventScreenChanged:
		if err := e.arbiter.RefreshScreens(); err != nil {
			e.log.Warnf("engine: screen refresh failed: %v", err)
		}
		e.sched.Post(ReasonScreens)
	case platform.EventWindowCreated:
		if ev.PID != 0 && ev.PID == e.notify.SurfacePID() {
			e.notify.HandleWindowCreated(context.Background())
			e.sched.Post(ReasonWindowCreated)
		}
	}
}

// runPass executes one arbitration pass and publishes the update. Results
// from a stale generation (the engine was stopped or restarted mid-pass)
// are dropped without publishing.
func (e *Engine) runPass(stop chan struct{}, gen uint64, u Update, publish bool) {
	select {
	case <-stop:
		return
	default:
	}

	ctx, cancel := context.WithTimeout(context.Background(), arbiter.Tick)
	n, err := e.arbiter.Pass(ctx)
	cancel()
	e.reportPassErr(err)

	e.mu.Lock()
	stale := gen != e.gen
	onUpdate := e.onUpdate
	e.mu.Unlock()
	if stale {
		return
	}

	if n > 0 {
		e.log.Infof("engine: pass corrected %d window(s) (%v)", n, u.Reasons)
	}
	if publish && onUpdate != nil {
		onUpdate(u)
	}
}

// reportPassErr logs arbitration pass failures. Passes retry every tick, so
// a missing accessibility permission is warned about once when it appears
// and demoted to debug while it persists.
func (e *Engine) reportPassErr(err error) {
	if err == nil {
		e.mu.Lock()
		wasDenied := e.denied
		e.denied = false
		e.mu.Unlock()
		if wasDenied {
			e.log.Infof("engine: accessibility permission granted, passes resumed")
		}
		return
	}
	if errors.Is(err, platform.ErrPermissionDenied) {
		e.mu.Lock()
		wasDenied := e.denied
		e.denied = true
		e.mu.Unlock()
		if wasDenied {
			e.log.Debugf("engine: arbitration pass: %v", err)
		} else {
			e.log.Warnf("engine: arbitration pass: %v", err)
		}
		return
	}
	e.log.Warnf("engine: arbitration pass: %v", err)
}
