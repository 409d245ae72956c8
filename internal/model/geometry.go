package model

import "math"

// Point is a screen coordinate in the window-server coordinate space
// (origin top-left, Y grows downward).
type Point struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Size is a width/height extent in pixels.
type Size struct {
	W float64 `yaml:"w" json:"w"`
	H float64 `yaml:"h" json:"h"`
}

// Rect is an axis-aligned screen rectangle.
type Rect struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
	W float64 `yaml:"w" json:"w"`
	H float64 `yaml:"h" json:"h"`
}

func (r Rect) MinX() float64 { return r.X }
func (r Rect) MinY() float64 { return r.Y }
func (r Rect) MaxX() float64 { return r.X + r.W }
func (r Rect) MaxY() float64 { return r.Y + r.H }

// Origin returns the rectangle's top-left corner.
func (r Rect) Origin() Point { return Point{X: r.X, Y: r.Y} }

// Extent returns the rectangle's size.
func (r Rect) Extent() Size { return Size{W: r.W, H: r.H} }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Intersects reports whether r and o overlap with positive area.
// Rectangles that merely share an edge do not intersect.
func (r Rect) Intersects(o Rect) bool {
	return r.MinX() < o.MaxX() && r.MaxX() > o.MinX() &&
		r.MinY() < o.MaxY() && r.MaxY() > o.MinY()
}

// Contains reports whether p lies inside r (edges inclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.MinX() && p.X <= r.MaxX() &&
		p.Y >= r.MinY() && p.Y <= r.MaxY()
}

// ApproxEqual reports whether all four edges of r are within tol pixels
// of the corresponding edges of o.
func (r Rect) ApproxEqual(o Rect, tol float64) bool {
	return math.Abs(r.MinX()-o.MinX()) <= tol &&
		math.Abs(r.MinY()-o.MinY()) <= tol &&
		math.Abs(r.MaxX()-o.MaxX()) <= tol &&
		math.Abs(r.MaxY()-o.MaxY()) <= tol
}
