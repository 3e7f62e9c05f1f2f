package route

import (
	"math"

	"github.com/beltline/beltline/pkg/geom"
)

// Lane geometry constants, in canvas units.
const (
	LaneWidth   = 10.0
	LaneSpacing = 4.0
)

// LaneCount returns how many parallel belt lanes a flow needs on a belt
// of the given capacity: ceil(flow/capacity), never less than one.
func LaneCount(flow, capacity float64) int {
	if capacity <= 0 || flow <= 0 {
		return 1
	}
	n := int(math.Ceil(flow / capacity))
	if n < 1 {
		return 1
	}
	return n
}

// FootprintWidth is the combined visual width of n parallel lanes.
func FootprintWidth(lanes int) float64 {
	if lanes < 1 {
		lanes = 1
	}
	return float64(lanes)*LaneWidth + float64(lanes-1)*LaneSpacing
}

// OffsetPath shifts an axis-aligned polyline sideways by offset. Each
// segment moves along its unit normal; a corner vertex moves along the
// sum of the two adjacent segment normals. The plain vector sum is exact
// here because every turn is 90 degrees; a generic miter join would over-
// or under-shoot.
func OffsetPath(points []geom.Point, offset float64) []geom.Point {
	if len(points) < 2 {
		return points
	}
	normals := make([]geom.Point, len(points)-1)
	for i := 0; i < len(points)-1; i++ {
		normals[i] = segmentNormal(points[i], points[i+1])
	}

	out := make([]geom.Point, len(points))
	out[0] = points[0].Add(normals[0].Scale(offset))
	for i := 1; i < len(points)-1; i++ {
		shift := normals[i-1].Add(normals[i])
		out[i] = points[i].Add(shift.Scale(offset))
	}
	out[len(points)-1] = points[len(points)-1].Add(normals[len(normals)-1].Scale(offset))
	return out
}

// LanePaths returns one polyline per lane, centered around the routed
// path with LaneWidth+LaneSpacing between lane centers.
func LanePaths(points []geom.Point, lanes int) [][]geom.Point {
	if lanes < 1 {
		lanes = 1
	}
	pitch := LaneWidth + LaneSpacing
	out := make([][]geom.Point, lanes)
	for i := 0; i < lanes; i++ {
		offset := (float64(i) - float64(lanes-1)/2) * pitch
		out[i] = OffsetPath(points, offset)
	}
	return out
}

func segmentNormal(a, b geom.Point) geom.Point {
	d := b.Sub(a)
	length := math.Hypot(d.X, d.Y)
	if length == 0 {
		return geom.Point{}
	}
	return geom.Point{X: -d.Y / length, Y: d.X / length}
}
