package schedule

import (
	"sync"
	"testing"
	"time"
)

func TestNextDelay(t *testing.T) {
	const (
		burst = DefaultBurstDelay
		base  = DefaultBaseDelay
		minIv = DefaultMinInterval
	)
	tests := []struct {
		name      string
		pending   int
		sinceLast time.Duration
		want      time.Duration
	}{
		{"burst_fires_fast", 3, minIv, burst},
		{"over_burst", 5, 10 * time.Millisecond, burst},
		{"quiet_uses_base", 1, minIv, base},
		{"long_quiet_uses_base", 2, 10 * time.Second, base},
		{"recent_fire_waits_remainder", 1, 200 * time.Millisecond, (minIv - 200*time.Millisecond) + base},
		{"immediately_after_fire", 1, 0, minIv + base},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nextDelay(tt.pending, tt.sinceLast, DefaultBurstThreshold, burst, base, minIv)
			if got != tt.want {
				t.Errorf("nextDelay(%d, %v) = %v, want %v", tt.pending, tt.sinceLast, got, tt.want)
			}
		})
	}
}

func collector() (*Scheduler, func() [][]Reason) {
	var mu sync.Mutex
	var fires [][]Reason
	s := New(func(reasons []Reason) {
		mu.Lock()
		fires = append(fires, reasons)
		mu.Unlock()
	})
	return s, func() [][]Reason {
		mu.Lock()
		defer mu.Unlock()
		out := make([][]Reason, len(fires))
		copy(out, fires)
		return out
	}
}

func waitForFires(t *testing.T, get func() [][]Reason, n int, within time.Duration) [][]Reason {
	t.Helper()
	deadline := time.Now().Add(within)
	for time.Now().Before(deadline) {
		if fires := get(); len(fires) >= n {
			return fires
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d fires within %v, got %d", n, within, len(get()))
	return nil
}

func TestScheduler_CoalescesRapidPosts(t *testing.T) {
	s, get := collector()
	defer s.Close()

	s.Post("settings-changed")
	s.Post("screens-changed")
	s.Post("app-activated")

	fires := waitForFires(t, get, 1, time.Second)
	if len(fires) != 1 {
		t.Fatalf("expected exactly one coalesced fire, got %d", len(fires))
	}
	got := fires[0]
	if len(got) != 3 {
		t.Fatalf("expected union of 3 reasons, got %v", got)
	}
	// Reasons arrive sorted.
	if got[0] != "app-activated" || got[1] != "screens-changed" || got[2] != "settings-changed" {
		t.Errorf("unexpected reason order: %v", got)
	}
}

func TestScheduler_BurstFiresQuickly(t *testing.T) {
	s, get := collector()
	defer s.Close()

	start := time.Now()
	s.Post("a")
	s.Post("b")
	s.Post("c")

	waitForFires(t, get, 1, time.Second)
	if elapsed := time.Since(start); elapsed > 300*time.Millisecond {
		t.Errorf("burst fire took %v, expected well under 300ms", elapsed)
	}
}

func TestScheduler_DuplicateReasonCountsOnce(t *testing.T) {
	s, get := collector()
	defer s.Close()

	s.Post("tick")
	s.Post("tick")
	s.Post("tick")

	fires := waitForFires(t, get, 1, time.Second)
	if len(fires[0]) != 1 {
		t.Errorf("expected single deduplicated reason, got %v", fires[0])
	}
}

func TestScheduler_CancelPending(t *testing.T) {
	s, get := collector()
	defer s.Close()

	s.Post("tick")
	s.CancelPending()

	time.Sleep(400 * time.Millisecond)
	if fires := get(); len(fires) != 0 {
		t.Errorf("expected no fire after cancel, got %d", len(fires))
	}
}

func TestScheduler_ClosedRejectsPosts(t *testing.T) {
	s, get := collector()
	s.Close()
	s.Post("tick")

	time.Sleep(400 * time.Millisecond)
	if fires := get(); len(fires) != 0 {
		t.Errorf("expected no fire after close, got %d", len(fires))
	}
}
