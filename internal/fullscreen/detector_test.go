package fullscreen

import (
	"sync"
	"testing"
	"time"

	"github.com/mj1618/dockwatch/internal/config"
	"github.com/mj1618/dockwatch/internal/model"
	"github.com/mj1618/dockwatch/internal/platform/platformtest"
)

var testCfg = config.Fullscreen{AlphaThreshold: 0.9, RequireTitle: true, Tolerance: 2}

func screen() model.Screen {
	return model.Screen{ID: 1, Frame: model.Rect{X: 0, Y: 0, W: 1920, H: 1080}}
}

func coveringWindow() model.Window {
	return model.Window{
		App: "QuickTime", PID: 7, Title: "Movie", Layer: 0,
		Alpha: 1.0, OnScreen: true, Regular: true,
		Frame: model.Rect{X: 0, Y: 0, W: 1920, H: 1080},
	}
}

func TestCovers(t *testing.T) {
	screens := []model.Screen{screen()}

	tests := []struct {
		name   string
		mutate func(*model.Window)
		want   bool
	}{
		{"exact_match", func(w *model.Window) {}, true},
		{"within_tolerance", func(w *model.Window) { w.Frame = model.Rect{X: 1, Y: -1, W: 1918, H: 1081} }, true},
		{"outside_tolerance", func(w *model.Window) { w.Frame.H = 1075 }, false},
		{"titleless_excluded", func(w *model.Window) { w.Title = "" }, false},
		{"transparent_excluded", func(w *model.Window) { w.Alpha = 0.5 }, false},
		{"wrong_layer", func(w *model.Window) { w.Layer = 25 }, false},
		{"offscreen", func(w *model.Window) { w.OnScreen = false }, false},
		{"non_regular_app", func(w *model.Window) { w.Regular = false }, false},
		{"own_window", func(w *model.Window) { w.PID = 1 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := coveringWindow()
			tt.mutate(&w)
			if got := Covers([]model.Window{w}, screens, 1, testCfg); got != tt.want {
				t.Errorf("Covers = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCovers_TitleHeuristicConfigurable(t *testing.T) {
	w := coveringWindow()
	w.Title = ""
	cfg := testCfg
	cfg.RequireTitle = false
	if !Covers([]model.Window{w}, []model.Screen{screen()}, 1, cfg) {
		t.Error("expected titleless window to count with the heuristic disabled")
	}
}

func TestCovers_SecondScreen(t *testing.T) {
	screens := []model.Screen{
		screen(),
		{ID: 2, Frame: model.Rect{X: 1920, Y: 0, W: 1440, H: 900}},
	}
	w := coveringWindow()
	w.Frame = model.Rect{X: 1920, Y: 0, W: 1440, H: 900}
	if !Covers([]model.Window{w}, screens, 1, testCfg) {
		t.Error("expected coverage of the second screen to count")
	}
}

type changeLog struct {
	mu    sync.Mutex
	flips []bool
}

func (c *changeLog) add(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flips = append(c.flips, v)
}

func (c *changeLog) get() []bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]bool(nil), c.flips...)
}

func newTestDetector(ws *platformtest.WindowServer, sc *platformtest.Screens) (*Detector, *changeLog) {
	var cl changeLog
	d := NewDetector(ws, sc, 1, testCfg, nil, cl.add)
	d.grace = 0
	return d, &cl
}

func TestDetector_FlipsOncePerTransition(t *testing.T) {
	ws := &platformtest.WindowServer{}
	sc := &platformtest.Screens{Displays: []model.Screen{screen()}}
	d, cl := newTestDetector(ws, sc)

	d.Start()
	defer d.Stop()

	// Steady non-fullscreen: repeated checks emit nothing.
	d.Check()
	d.Check()
	if got := cl.get(); len(got) != 0 {
		t.Fatalf("expected no flips, got %v", got)
	}

	// A covering window appears: exactly one flip to true.
	ws.SetWindows([]model.Window{coveringWindow()})
	d.Check()
	d.Check()
	if got := cl.get(); len(got) != 1 || !got[0] {
		t.Fatalf("expected single flip to true, got %v", got)
	}

	// It goes away: exactly one flip back.
	ws.SetWindows(nil)
	d.Check()
	d.Check()
	if got := cl.get(); len(got) != 2 || got[1] {
		t.Fatalf("expected single flip to false, got %v", got)
	}
}

func TestDetector_GracePeriodSuppresses(t *testing.T) {
	ws := &platformtest.WindowServer{}
	ws.SetWindows([]model.Window{coveringWindow()})
	sc := &platformtest.Screens{Displays: []model.Screen{screen()}}

	var cl changeLog
	d := NewDetector(ws, sc, 1, testCfg, nil, cl.add)
	d.grace = time.Hour
	d.Start()
	defer d.Stop()

	d.Check()
	if got := cl.get(); len(got) != 0 {
		t.Errorf("expected grace period to suppress detection, got %v", got)
	}
}

func TestDetector_StartStopIdempotent(t *testing.T) {
	ws := &platformtest.WindowServer{}
	sc := &platformtest.Screens{}
	d, _ := newTestDetector(ws, sc)

	d.Start()
	d.Start()
	d.Stop()
	d.Stop()

	// And restartable.
	d.Start()
	d.Stop()
}

func TestDetector_AppActivatedDebounced(t *testing.T) {
	ws := &platformtest.WindowServer{}
	ws.SetWindows([]model.Window{coveringWindow()})
	sc := &platformtest.Screens{Displays: []model.Screen{screen()}}
	d, cl := newTestDetector(ws, sc)

	d.Start()
	defer d.Stop()

	for i := 0; i < 5; i++ {
		d.AppActivated()
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if len(cl.get()) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := cl.get(); len(got) != 1 {
		t.Errorf("expected one debounced check and one flip, got %v", got)
	}
}
