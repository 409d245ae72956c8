// Package badge reads notification badge counts off the dock process's
// item list.
package badge

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mj1618/dockwatch/internal/logging"
	"github.com/mj1618/dockwatch/internal/model"
	"github.com/mj1618/dockwatch/internal/platform"
	"github.com/mj1618/dockwatch/internal/walker"
)

// DefaultTTL is how long a snapshot stays fresh.
const DefaultTTL = 5 * time.Second

// ParseBadgeText maps a dock badge label to a non-negative count. The
// mapping is total: every string parses, there is no error case.
//
//	"7"          → 7
//	"99+"        → 99
//	"5 new items"→ 5
//	"New"        → 1
//	""           → 0
func ParseBadgeText(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0
		}
		return n
	}
	if t := strings.TrimSuffix(s, "+"); t != s {
		if n, err := strconv.Atoi(t); err == nil && n >= 0 {
			return n
		}
	}
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > 0 {
		n, _ := strconv.Atoi(s[:i])
		return n
	}
	return 1
}

// Reader scans the dock's item list and caches the result for a short TTL.
// Counts is safe to call from any goroutine; concurrent stale reads share a
// single scan.
type Reader struct {
	in    platform.Introspector
	procs platform.Processes
	log   *logging.Logger
	ttl   time.Duration

	mu   sync.Mutex
	snap model.BadgeSnapshot
	scan *scanCall
	now  func() time.Time
}

type scanCall struct {
	done chan struct{}
	snap model.BadgeSnapshot
	err  error
}

// NewReader creates a badge reader with the default TTL.
func NewReader(in platform.Introspector, procs platform.Processes, log *logging.Logger) *Reader {
	return &Reader{in: in, procs: procs, log: log, ttl: DefaultTTL, now: time.Now}
}

// Counts returns the current badge snapshot, rescanning when the cache is
// stale. Staleness is not an error: it just means this call pays for the
// refresh. The scan is cancellable through ctx.
func (r *Reader) Counts(ctx context.Context) (model.BadgeSnapshot, error) {
	r.mu.Lock()
	if !r.snap.Stale(r.ttl) {
		snap := r.snap
		r.mu.Unlock()
		return snap, nil
	}
	if r.scan != nil {
		// A scan is already under way; wait for its result.
		call := r.scan
		r.mu.Unlock()
		select {
		case <-call.done:
			return call.snap, call.err
		case <-ctx.Done():
			return model.BadgeSnapshot{}, ctx.Err()
		}
	}
	call := &scanCall{done: make(chan struct{})}
	r.scan = call
	r.mu.Unlock()

	snap, err := r.scanDock(ctx)

	r.mu.Lock()
	call.snap, call.err = snap, err
	close(call.done)
	r.scan = nil
	if err == nil {
		r.snap = snap
	}
	r.mu.Unlock()
	return snap, err
}

// Cached returns the last snapshot without refreshing, stale or not.
func (r *Reader) Cached() model.BadgeSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap
}

// Invalidate drops the cache so the next Counts call rescans.
func (r *Reader) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap = model.BadgeSnapshot{}
}

func (r *Reader) scanDock(ctx context.Context) (model.BadgeSnapshot, error) {
	pid, err := r.procs.PIDOf(platform.BundleDock)
	if err != nil {
		return model.BadgeSnapshot{}, fmt.Errorf("locate dock process: %w", err)
	}
	root, err := r.in.AppRoot(pid)
	if err != nil {
		return model.BadgeSnapshot{}, fmt.Errorf("dock introspection root: %w", err)
	}

	items := walker.CollectMatches(ctx, r.in, root, func(a model.NodeAttrs) bool {
		return a.Subrole == model.SubroleAppDockItem
	}, walker.MaxDepthShallow)

	counts := make(map[string]int, len(items))
	for _, item := range items {
		key := item.Attrs.URL
		if key == "" {
			key = item.Attrs.Title
		}
		if key == "" {
			continue
		}
		counts[key] = ParseBadgeText(item.Attrs.Label)
	}

	r.log.Debugf("badge scan: %d dock items", len(items))
	return model.BadgeSnapshot{Counts: counts, TakenAt: r.now()}, nil
}
