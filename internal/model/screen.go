package model

// Screen describes one attached display. The set of screens is re-derived
// whenever the platform reports a display configuration change; descriptors
// are read-only snapshots, never mutated in place.
type Screen struct {
	ID      uint32 `yaml:"id"      json:"id"`
	Frame   Rect   `yaml:"frame"   json:"frame"`
	Visible Rect   `yaml:"visible" json:"visible"`
}

// BottomInset returns the height reserved at the bottom of the screen
// (the difference between the full frame and the visible frame).
func (s Screen) BottomInset() float64 {
	return s.Frame.MaxY() - s.Visible.MaxY()
}

// TopInset returns the height reserved at the top of the screen.
func (s Screen) TopInset() float64 {
	return s.Visible.MinY() - s.Frame.MinY()
}

// ScreenForRect returns the screen whose frame has the largest intersection
// with r, falling back to the first screen when none intersect.
func ScreenForRect(screens []Screen, r Rect) (Screen, bool) {
	if len(screens) == 0 {
		return Screen{}, false
	}
	best := screens[0]
	bestArea := 0.0
	for _, s := range screens {
		w := min(s.Frame.MaxX(), r.MaxX()) - max(s.Frame.MinX(), r.MinX())
		h := min(s.Frame.MaxY(), r.MaxY()) - max(s.Frame.MinY(), r.MinY())
		if w > 0 && h > 0 && w*h > bestArea {
			bestArea = w * h
			best = s
		}
	}
	return best, true
}
