package model

import "time"

// BadgeSnapshot maps application bundle identifiers to their dock badge
// counts at a single capture time.
type BadgeSnapshot struct {
	Counts  map[string]int `yaml:"counts" json:"counts"`
	TakenAt time.Time      `yaml:"taken_at" json:"taken_at"`
}

// Age returns how long ago the snapshot was captured.
func (s BadgeSnapshot) Age() time.Duration {
	return time.Since(s.TakenAt)
}

// Stale reports whether the snapshot is older than ttl. The zero snapshot
// is always stale.
func (s BadgeSnapshot) Stale(ttl time.Duration) bool {
	return s.TakenAt.IsZero() || s.Age() >= ttl
}

// Total returns the sum of all badge counts.
func (s BadgeSnapshot) Total() int {
	total := 0
	for _, n := range s.Counts {
		total += n
	}
	return total
}
