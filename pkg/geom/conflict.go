package geom

// EdgePadding is how far node boxes are shrunk before testing them against
// belt channels. Ports sit exactly on a node's border, so the first and
// last channel segments always graze their own endpoints' boxes; the
// padding keeps that grazing contact from reading as a collision.
const EdgePadding = 2.0

// Obstacle is a rectangle with an identity, typically a node footprint.
type Obstacle struct {
	ID     string
	Bounds Rect
}

// NodeConflicts returns the IDs of all obstacles whose bounds overlap any
// other obstacle. Overlap is symmetric: if A overlaps B, both IDs are in
// the result. The test is pairwise O(n²), which is fine at the tens to
// low hundreds of nodes a hand-built layout reaches.
func NodeConflicts(obstacles []Obstacle) map[string]bool {
	conflicts := make(map[string]bool)
	for i := 0; i < len(obstacles); i++ {
		for j := i + 1; j < len(obstacles); j++ {
			if obstacles[i].Bounds.Intersects(obstacles[j].Bounds) {
				conflicts[obstacles[i].ID] = true
				conflicts[obstacles[j].ID] = true
			}
		}
	}
	return conflicts
}

// ChannelSegments converts an orthogonal polyline with a footprint width
// into one rectangle per segment. Segment rectangles are extended by
// width/2 at interior corners so that adjacent rectangles overlap at the
// joint instead of leaving a notch.
func ChannelSegments(points []Point, width float64) []Rect {
	if len(points) < 2 || width <= 0 {
		return nil
	}
	half := width / 2
	rects := make([]Rect, 0, len(points)-1)
	for i := 0; i < len(points)-1; i++ {
		a, b := points[i], points[i+1]
		startExt, endExt := 0.0, 0.0
		if i > 0 {
			startExt = half
		}
		if i < len(points)-2 {
			endExt = half
		}

		var r Rect
		if a.Y == b.Y {
			// Horizontal segment.
			x0 := min(a.X, b.X) - startExtIf(a.X < b.X, startExt, endExt)
			x1 := max(a.X, b.X) + startExtIf(a.X < b.X, endExt, startExt)
			r = Rect{X: x0, Y: a.Y - half, W: x1 - x0, H: width}
		} else {
			// Vertical (or degenerate diagonal, treated as its bounding box).
			y0 := min(a.Y, b.Y) - startExtIf(a.Y < b.Y, startExt, endExt)
			y1 := max(a.Y, b.Y) + startExtIf(a.Y < b.Y, endExt, startExt)
			r = Rect{X: min(a.X, b.X) - half, Y: y0, W: max(a.X, b.X) - min(a.X, b.X) + width, H: y1 - y0}
		}
		rects = append(rects, r)
	}
	return rects
}

// startExtIf picks which extension applies to the low end of a segment
// depending on its direction of travel.
func startExtIf(forward bool, ifForward, ifBackward float64) float64 {
	if forward {
		return ifForward
	}
	return ifBackward
}

// ChannelConflicts returns the obstacles whose bounds, shrunk by
// EdgePadding, intersect any segment rectangle of the channel. Callers
// exclude the channel's own endpoints before calling.
func ChannelConflicts(points []Point, width float64, obstacles []Obstacle) []Obstacle {
	segments := ChannelSegments(points, width)
	if len(segments) == 0 {
		return nil
	}
	var hits []Obstacle
	for _, ob := range obstacles {
		box := ob.Bounds.Expand(-EdgePadding)
		if box.W <= 0 || box.H <= 0 {
			continue
		}
		for _, seg := range segments {
			if seg.Intersects(box) {
				hits = append(hits, ob)
				break
			}
		}
	}
	return hits
}
