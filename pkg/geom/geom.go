// Package geom provides the 2D primitives and overlap tests used by the
// belt router and the conflict detector.
//
// All geometry is axis-aligned: node footprints are rectangles and belt
// channels are orthogonal polylines. Coordinates are in canvas pixels.
package geom

import "math"

// Point is a position on the canvas.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p minus q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Scale returns p scaled by f.
func (p Point) Scale(f float64) Point { return Point{p.X * f, p.Y * f} }

// Manhattan returns the L1 distance between p and q.
func (p Point) Manhattan(q Point) float64 {
	return math.Abs(p.X-q.X) + math.Abs(p.Y-q.Y)
}

// Eq reports whether p and q are within eps of each other on both axes.
func (p Point) Eq(q Point, eps float64) bool {
	return math.Abs(p.X-q.X) <= eps && math.Abs(p.Y-q.Y) <= eps
}

// Rect is an axis-aligned rectangle identified by its top-left corner.
type Rect struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
	W float64 `json:"w" bson:"w"`
	H float64 `json:"h" bson:"h"`
}

// RectFrom builds the rectangle spanning two opposite corners.
func RectFrom(a, b Point) Rect {
	x := math.Min(a.X, b.X)
	y := math.Min(a.Y, b.Y)
	return Rect{X: x, Y: y, W: math.Abs(a.X - b.X), H: math.Abs(a.Y - b.Y)}
}

// Intersects reports whether r and o overlap. Rectangles that merely touch
// at an edge do not count as overlapping.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.W && r.X+r.W > o.X && r.Y < o.Y+o.H && r.Y+r.H > o.Y
}

// Contains reports whether p lies inside r (inclusive of edges).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Expand grows the rectangle by d on every side. A negative d shrinks it;
// the result may have negative extent, which never intersects anything.
func (r Rect) Expand(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, W: r.W + 2*d, H: r.H + 2*d}
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Eq reports whether r and o match within eps on every component.
func (r Rect) Eq(o Rect, eps float64) bool {
	return math.Abs(r.X-o.X) <= eps && math.Abs(r.Y-o.Y) <= eps &&
		math.Abs(r.W-o.W) <= eps && math.Abs(r.H-o.H) <= eps
}
