package engine

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mj1618/dockwatch/internal/config"
	"github.com/mj1618/dockwatch/internal/logging"
	"github.com/mj1618/dockwatch/internal/model"
	"github.com/mj1618/dockwatch/internal/platform"
	"github.com/mj1618/dockwatch/internal/platform/platformtest"
	"github.com/mj1618/dockwatch/internal/schedule"
)

type fixture struct {
	engine *Engine
	in     *platformtest.Introspector
	ws     *platformtest.WindowServer
	events *platformtest.Events

	mu      sync.Mutex
	updates []Update
}

func newFixture(t *testing.T, mutate func(*config.Config)) *fixture {
	t.Helper()
	p, in, ws, sc, ev := platformtest.NewProvider()
	sc.Displays = []model.Screen{
		{ID: 1, Frame: model.Rect{X: 0, Y: 0, W: 1600, H: 1000}},
	}
	p.Processes.(*platformtest.Processes).PIDs[platform.BundleDock] = 88

	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}

	f := &fixture{in: in, ws: ws, events: ev}
	f.engine = New(Options{
		Provider: p,
		Config:   cfg,
		OnUpdate: func(u Update) {
			f.mu.Lock()
			f.updates = append(f.updates, u)
			f.mu.Unlock()
		},
	})
	return f
}

func (f *fixture) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}

func (f *fixture) lastUpdate() Update {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updates[len(f.updates)-1]
}

func TestEngine_StartStopIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	if err := f.engine.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := f.engine.Start(); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	f.engine.Stop()
	f.engine.Stop()
}

func TestEngine_DockAreasFollowConfig(t *testing.T) {
	f := newFixture(t, nil)
	if err := f.engine.Start(); err != nil {
		t.Fatal(err)
	}
	defer f.engine.Stop()

	areas := f.engine.DockAreas()
	want := model.Rect{X: 0, Y: 1000 - 56, W: 1600, H: 56}
	if areas[1] != want {
		t.Errorf("dock area = %+v, want %+v", areas[1], want)
	}

	cfg := config.Default()
	cfg.Dock.Position = config.PositionLeft
	cfg.Dock.Size = config.SizeLarge
	f.engine.SetConfig(cfg)

	areas = f.engine.DockAreas()
	want = model.Rect{X: 0, Y: 0, W: 72, H: 1000}
	if areas[1] != want {
		t.Errorf("dock area after reconfigure = %+v, want %+v", areas[1], want)
	}
}

func TestEngine_EventsProduceCoalescedUpdate(t *testing.T) {
	f := newFixture(t, nil)
	if err := f.engine.Start(); err != nil {
		t.Fatal(err)
	}
	defer f.engine.Stop()

	f.events.Emit(platform.Event{Kind: platform.EventAppActivated, PID: 42})
	f.events.Emit(platform.Event{Kind: platform.EventScreenChanged})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && f.updateCount() == 0 {
		time.Sleep(10 * time.Millisecond)
	}
	if f.updateCount() == 0 {
		t.Fatal("expected a coalesced update")
	}

	u := f.lastUpdate()
	found := map[string]bool{}
	for _, r := range u.Reasons {
		found[string(r)] = true
	}
	if !found[string(ReasonAppActivated)] || !found[string(ReasonScreens)] {
		t.Errorf("expected both reasons in the coalesced update, got %v", u.Reasons)
	}
}

func TestEngine_RestartKeepsDeliveringEvents(t *testing.T) {
	f := newFixture(t, nil)
	if err := f.engine.Start(); err != nil {
		t.Fatal(err)
	}
	f.engine.Stop()
	if err := f.engine.Start(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	defer f.engine.Stop()

	f.events.Emit(platform.Event{Kind: platform.EventScreenChanged})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && f.updateCount() == 0 {
		time.Sleep(10 * time.Millisecond)
	}
	if f.updateCount() == 0 {
		t.Fatal("expected an update from an event emitted after restart")
	}
	u := f.lastUpdate()
	found := false
	for _, r := range u.Reasons {
		if r == ReasonScreens {
			found = true
		}
	}
	if !found {
		t.Errorf("expected %v in the post-restart update, got %v", ReasonScreens, u.Reasons)
	}
}

func TestEngine_ArbitratesOnTick(t *testing.T) {
	f := newFixture(t, nil)

	node := platformtest.NewNode(model.NodeAttrs{
		Role:     model.RoleWindow,
		Position: model.Point{X: 0, Y: 5},
		Size:     model.Size{W: 800, H: 990},
	})
	f.in.Focus[50] = node
	f.ws.SetWindows([]model.Window{{
		App: "App", PID: 50, Layer: 0, Alpha: 1, OnScreen: true, Regular: true,
		Frame: model.Rect{X: 0, Y: 5, W: 800, H: 990},
	}})

	if err := f.engine.Start(); err != nil {
		t.Fatal(err)
	}
	defer f.engine.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		attrs, _ := f.in.Attributes(node)
		if attrs.Size.H == 929 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	attrs, _ := f.in.Attributes(node)
	t.Errorf("expected tick-driven correction to height 929, got %g", attrs.Size.H)
}

func TestEngine_BadgesAccessor(t *testing.T) {
	f := newFixture(t, nil)
	f.in.Roots[88] = platformtest.NewNode(model.NodeAttrs{Role: model.RoleApplication},
		platformtest.NewNode(model.NodeAttrs{Role: model.RoleList},
			platformtest.NewNode(model.NodeAttrs{
				Subrole: model.SubroleAppDockItem,
				URL:     "file:///Applications/Mail.app",
				Label:   "4",
			}),
		),
	)

	snap, err := f.engine.Badges(context.Background())
	if err != nil {
		t.Fatalf("Badges: %v", err)
	}
	if snap.Counts["file:///Applications/Mail.app"] != 4 {
		t.Errorf("unexpected counts: %v", snap.Counts)
	}
}

func TestEngine_NotificationObserverRegisteredWhenEnabled(t *testing.T) {
	f := newFixture(t, func(c *config.Config) {
		c.Notifications.Reposition = true
		c.Notifications.Corner = config.CornerBottomLeft
	})
	p := f.engine.provider
	p.Processes.(*platformtest.Processes).PIDs[platform.BundleNotificationCenter] = 99
	f.in.Roots[99] = platformtest.NewNode(model.NodeAttrs{Role: model.RoleApplication})

	if err := f.engine.Start(); err != nil {
		t.Fatal(err)
	}
	defer f.engine.Stop()

	observed := f.events.ObservedPIDs()
	if len(observed) != 1 || observed[0] != 99 {
		t.Errorf("expected window-creation observer on pid 99, got %v", observed)
	}
	if err := f.engine.NotifyError(); err != nil {
		t.Errorf("unexpected notify error: %v", err)
	}
}

func TestEngine_SettingsReloadReusesWindowObserver(t *testing.T) {
	f := newFixture(t, func(c *config.Config) {
		c.Notifications.Reposition = true
		c.Notifications.Corner = config.CornerBottomLeft
	})
	p := f.engine.provider
	p.Processes.(*platformtest.Processes).PIDs[platform.BundleNotificationCenter] = 99
	f.in.Roots[99] = platformtest.NewNode(model.NodeAttrs{Role: model.RoleApplication})

	if err := f.engine.Start(); err != nil {
		t.Fatal(err)
	}
	defer f.engine.Stop()

	cfg := config.Default()
	cfg.Notifications.Reposition = true
	cfg.Notifications.Corner = config.CornerBottomLeft
	f.engine.SetConfig(cfg)
	f.engine.SetConfig(cfg)

	observed := f.events.ObservedPIDs()
	if len(observed) != 1 || observed[0] != 99 {
		t.Errorf("observer registrations after settings reloads = %v, want [99]", observed)
	}
}

func TestEngine_PermissionWarningFiresOncePerOutage(t *testing.T) {
	var all, warns bytes.Buffer
	p, in, _, sc, _ := platformtest.NewProvider()
	sc.Displays = []model.Screen{
		{ID: 1, Frame: model.Rect{X: 0, Y: 0, W: 1600, H: 1000}},
	}
	in.Denied = true

	cfg := config.Default()
	eng := New(Options{
		Provider: p,
		Config:   cfg,
		Log:      logging.NewWriters(&all, &warns, logging.LevelDebug),
	})
	eng.arbiter.Reconfigure(cfg.Dock, cfg.Arbiter)
	if err := eng.arbiter.RefreshScreens(); err != nil {
		t.Fatalf("RefreshScreens: %v", err)
	}

	stop := make(chan struct{})
	u := Update{Reasons: []schedule.Reason{ReasonTick}, At: time.Now()}
	eng.runPass(stop, 0, u, false)
	eng.runPass(stop, 0, u, false)
	eng.runPass(stop, 0, u, false)
	if got := strings.Count(warns.String(), "permission denied"); got != 1 {
		t.Fatalf("warn stream after repeated denied passes has %d warnings, want 1:\n%s", got, warns.String())
	}

	in.Denied = false
	eng.runPass(stop, 0, u, false)
	if !strings.Contains(all.String(), "permission granted") {
		t.Error("expected a recovery line once the permission returns")
	}

	in.Denied = true
	eng.runPass(stop, 0, u, false)
	if got := strings.Count(warns.String(), "permission denied"); got != 2 {
		t.Errorf("warn stream after a second outage has %d warnings, want 2", got)
	}
}
