// Package route computes orthogonal belt geometry: grid-based A* paths
// between ports, collinear simplification, and parallel-lane offsets for
// multi-lane belts.
package route

import (
	"container/heap"

	"github.com/beltline/beltline/pkg/geom"
)

// Router defaults, in canvas units.
const (
	DefaultGridSize = 20.0
	DefaultPadding  = 10.0
)

// searchMargin is how many cells the search area extends beyond the
// bounding box of start, end, and all obstacles.
const searchMargin = 4

type cell struct{ x, y int }

type pathNode struct {
	c      cell
	g      float64
	f      float64
	parent *pathNode
	index  int
}

type nodeHeap []*pathNode

func (h nodeHeap) Len() int            { return len(h) }
func (h nodeHeap) Less(i, j int) bool  { return h[i].f < h[j].f }
func (h nodeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *nodeHeap) Push(x interface{}) { n := x.(*pathNode); n.index = len(*h); *h = append(*h, n) }
func (h *nodeHeap) Pop() interface{} {
	old := *h
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*h = old[:len(old)-1]
	return n
}

// FindPath routes an orthogonal path from start to end around the given
// obstacles. Movement is 4-directional on a square grid; the heuristic is
// Manhattan distance with uniform step cost. A cell is blocked when its
// pixel position lies inside an obstacle expanded by padding, except the
// start and end cells, which are always passable because ports sit on
// node borders. When no path exists the direct line [start, end] is
// returned; the function never fails and never returns fewer than two
// points.
func FindPath(start, end geom.Point, obstacles []geom.Obstacle, gridSize, padding float64) []geom.Point {
	if gridSize <= 0 {
		gridSize = DefaultGridSize
	}
	fallback := []geom.Point{start, end}

	toCell := func(p geom.Point) cell {
		return cell{x: int(roundHalf(p.X / gridSize)), y: int(roundHalf(p.Y / gridSize))}
	}
	toPoint := func(c cell) geom.Point {
		return geom.Point{X: float64(c.x) * gridSize, Y: float64(c.y) * gridSize}
	}

	startCell, endCell := toCell(start), toCell(end)
	if startCell == endCell {
		return fallback
	}

	expanded := make([]geom.Rect, len(obstacles))
	for i, o := range obstacles {
		expanded[i] = o.Bounds.Expand(padding)
	}
	blocked := func(c cell) bool {
		if c == startCell || c == endCell {
			return false
		}
		p := toPoint(c)
		for _, r := range expanded {
			if r.Contains(p) {
				return true
			}
		}
		return false
	}

	// The search area spans everything relevant plus a margin, so a path
	// can wrap around the outermost obstacle but the search stays finite.
	minC, maxC := searchBounds(startCell, endCell, expanded, gridSize)

	heuristic := func(c cell) float64 {
		return float64(abs(c.x-endCell.x) + abs(c.y-endCell.y))
	}

	open := &nodeHeap{}
	heap.Init(open)
	startNode := &pathNode{c: startCell, g: 0, f: heuristic(startCell)}
	heap.Push(open, startNode)
	best := map[cell]float64{startCell: 0}
	closed := map[cell]bool{}

	var goal *pathNode
	for open.Len() > 0 {
		cur := heap.Pop(open).(*pathNode)
		if cur.c == endCell {
			goal = cur
			break
		}
		if closed[cur.c] {
			continue
		}
		closed[cur.c] = true

		for _, d := range [4]cell{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
			next := cell{cur.c.x + d.x, cur.c.y + d.y}
			if next.x < minC.x || next.x > maxC.x || next.y < minC.y || next.y > maxC.y {
				continue
			}
			if closed[next] || blocked(next) {
				continue
			}
			g := cur.g + 1
			if prev, ok := best[next]; ok && g >= prev {
				continue
			}
			best[next] = g
			heap.Push(open, &pathNode{c: next, g: g, f: g + heuristic(next), parent: cur})
		}
	}
	if goal == nil {
		return fallback
	}

	var cells []cell
	for n := goal; n != nil; n = n.parent {
		cells = append(cells, n.c)
	}
	points := make([]geom.Point, len(cells))
	for i := range cells {
		points[i] = toPoint(cells[len(cells)-1-i])
	}
	// Endpoints snap back to the exact port positions.
	points[0] = start
	points[len(points)-1] = end
	return Simplify(points)
}

// Simplify removes collinear intermediate points from a polyline: when
// three consecutive points share an x or a y coordinate, the middle one
// contributes nothing to an axis-aligned path.
func Simplify(points []geom.Point) []geom.Point {
	if len(points) <= 2 {
		return points
	}
	out := []geom.Point{points[0]}
	for i := 1; i < len(points)-1; i++ {
		prev, cur, next := out[len(out)-1], points[i], points[i+1]
		if (prev.X == cur.X && cur.X == next.X) || (prev.Y == cur.Y && cur.Y == next.Y) {
			continue
		}
		out = append(out, cur)
	}
	return append(out, points[len(points)-1])
}

func searchBounds(start, end cell, rects []geom.Rect, gridSize float64) (cell, cell) {
	minC := cell{min(start.x, end.x), min(start.y, end.y)}
	maxC := cell{max(start.x, end.x), max(start.y, end.y)}
	for _, r := range rects {
		minC.x = min(minC.x, int(r.X/gridSize)-1)
		minC.y = min(minC.y, int(r.Y/gridSize)-1)
		maxC.x = max(maxC.x, int((r.X+r.W)/gridSize)+1)
		maxC.y = max(maxC.y, int((r.Y+r.H)/gridSize)+1)
	}
	minC.x -= searchMargin
	minC.y -= searchMargin
	maxC.x += searchMargin
	maxC.y += searchMargin
	return minC, maxC
}

func roundHalf(v float64) float64 {
	if v < 0 {
		return float64(int(v - 0.5))
	}
	return float64(int(v + 0.5))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
