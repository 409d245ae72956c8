package arbiter

import (
	"github.com/mj1618/dockwatch/internal/config"
	"github.com/mj1618/dockwatch/internal/model"
)

// DockArea computes the rectangle the dock occupies on screen s for the
// given dock settings. The thickness comes from the size class; padding
// pulls the area in from the screen edges.
func DockArea(s model.Screen, d config.Dock) model.Rect {
	extent := d.Size.Extent()
	pad := d.Padding
	f := s.Frame

	switch d.Position {
	case config.PositionTop:
		return model.Rect{
			X: f.MinX() + pad.Left,
			Y: f.MinY() + pad.Top,
			W: f.W - pad.Left - pad.Right,
			H: extent,
		}
	case config.PositionLeft:
		return model.Rect{
			X: f.MinX() + pad.Left,
			Y: f.MinY() + pad.Top,
			W: extent,
			H: f.H - pad.Top - pad.Bottom,
		}
	case config.PositionRight:
		return model.Rect{
			X: f.MaxX() - pad.Right - extent,
			Y: f.MinY() + pad.Top,
			W: extent,
			H: f.H - pad.Top - pad.Bottom,
		}
	default: // bottom
		return model.Rect{
			X: f.MinX() + pad.Left,
			Y: f.MaxY() - pad.Bottom - extent,
			W: f.W - pad.Left - pad.Right,
			H: extent,
		}
	}
}

// Correction is the mutation needed to clear a window off the dock area.
// Nil fields mean that dimension is already compliant.
type Correction struct {
	Size     *model.Size
	Position *model.Point
}

// None reports whether no mutation is needed.
func (c Correction) None() bool { return c.Size == nil && c.Position == nil }

// PlanCorrection decides how to clear frame off the dock area on screen s.
// The rules, applied in order:
//
//  1. Resize when the window's extent along the dock's blocking axis
//     (height for top/bottom, width for left/right) exceeds
//     screenExtent − dockExtent − margin.
//  2. Move when, after any resize, the window still sits on the wrong side
//     of the dock boundary.
//
// Running the plan against a compliant window yields an empty Correction,
// which makes repeated passes no-ops.
func PlanCorrection(frame model.Rect, s model.Screen, dock model.Rect, pos config.Position, margin float64) Correction {
	var c Correction
	w := frame

	if pos.Horizontal() {
		allowed := s.Frame.H - dock.H - margin
		if allowed > 0 && w.H > allowed {
			w.H = allowed
			c.Size = &model.Size{W: w.W, H: w.H}
		}
		switch pos {
		case config.PositionBottom:
			if w.MaxY() > dock.MinY() {
				w.Y = dock.MinY() - w.H
				c.Position = &model.Point{X: w.X, Y: w.Y}
			}
		case config.PositionTop:
			if w.MinY() < dock.MaxY() {
				w.Y = dock.MaxY()
				c.Position = &model.Point{X: w.X, Y: w.Y}
			}
		}
		return c
	}

	allowed := s.Frame.W - dock.W - margin
	if allowed > 0 && w.W > allowed {
		w.W = allowed
		c.Size = &model.Size{W: w.W, H: w.H}
	}
	switch pos {
	case config.PositionLeft:
		if w.MinX() < dock.MaxX() {
			w.X = dock.MaxX()
			c.Position = &model.Point{X: w.X, Y: w.Y}
		}
	case config.PositionRight:
		if w.MaxX() > dock.MinX() {
			w.X = dock.MinX() - w.W
			c.Position = &model.Point{X: w.X, Y: w.Y}
		}
	}
	return c
}
