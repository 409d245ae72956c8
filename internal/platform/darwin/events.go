//go:build darwin && cgo

package darwin

/*
#include <sys/types.h>

extern int dw_events_run(void);
extern int dw_events_ready(void);
extern void dw_events_stop(void);
extern int dw_observe_window_creation(pid_t pid);
*/
import "C"
import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/mj1618/dockwatch/internal/platform"
)

// Events implements platform.Events on a dedicated run-loop thread. App
// activation arrives from NSWorkspace, display changes from CoreGraphics
// reconfiguration callbacks, and window creation from per-process
// AXObservers; all are funneled onto one channel.
type Events struct {
	mu       sync.Mutex
	ch       chan platform.Event
	started  bool
	stopped  bool         // previous channel was closed by Stop
	observed map[int]bool // pids with a live window-creation observer
}

// active routes the C callbacks to the running Events instance. The process
// has at most one event stream.
var (
	activeMu sync.Mutex
	active   *Events
)

// NewEvents creates the macOS event stream.
func NewEvents() *Events {
	return &Events{
		ch:       make(chan platform.Event, 64),
		observed: make(map[int]bool),
	}
}

func (e *Events) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return nil
	}
	if e.stopped {
		// Stop closed the previous channel; a restarted stream needs a
		// fresh one or the consumer reads a closed channel forever.
		e.ch = make(chan platform.Event, 64)
		e.stopped = false
	}

	activeMu.Lock()
	active = e
	activeMu.Unlock()

	go func() {
		// Observers attach to this thread's run loop; the thread must not
		// migrate for the lifetime of the loop.
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		C.dw_events_run()
	}()

	// Wait for the run loop to come up so observer registration that
	// follows Start lands on a live loop.
	deadline := time.Now().Add(time.Second)
	for C.dw_events_ready() == 0 {
		if time.Now().After(deadline) {
			return fmt.Errorf("event run loop did not start")
		}
		time.Sleep(5 * time.Millisecond)
	}

	e.started = true
	return nil
}

func (e *Events) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started {
		return
	}
	e.started = false
	e.stopped = true
	// Observers were attached to the run loop being torn down; a restart
	// registers them afresh.
	e.observed = make(map[int]bool)

	activeMu.Lock()
	active = nil
	activeMu.Unlock()

	C.dw_events_stop()
	close(e.ch)
}

func (e *Events) C() <-chan platform.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ch
}

func (e *Events) ObserveWindowCreation(pid int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started {
		return fmt.Errorf("event stream not started")
	}
	// Settings reloads re-enable observation for the same process; one
	// AXObserver per pid is enough, duplicates would fan out duplicate
	// window-created events.
	if e.observed[pid] {
		return nil
	}
	if rc := int(C.dw_observe_window_creation(C.pid_t(pid))); rc != 0 {
		return axError(fmt.Sprintf("observe window creation for pid %d", pid), rc)
	}
	e.observed[pid] = true
	return nil
}

// emit delivers an event without blocking the run-loop thread; when the
// consumer lags, the newest event wins and older ones are dropped.
func (e *Events) emit(ev platform.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started {
		return
	}
	select {
	case e.ch <- ev:
	default:
		select {
		case <-e.ch:
		default:
		}
		select {
		case e.ch <- ev:
		default:
		}
	}
}

func dispatch(ev platform.Event) {
	activeMu.Lock()
	e := active
	activeMu.Unlock()
	if e != nil {
		e.emit(ev)
	}
}

//export dwGoAppActivated
func dwGoAppActivated(pid C.int) {
	dispatch(platform.Event{Kind: platform.EventAppActivated, PID: int(pid)})
}

//export dwGoScreensChanged
func dwGoScreensChanged() {
	dispatch(platform.Event{Kind: platform.EventScreenChanged})
}

//export dwGoWindowCreated
func dwGoWindowCreated(pid C.int) {
	dispatch(platform.Event{Kind: platform.EventWindowCreated, PID: int(pid)})
}
