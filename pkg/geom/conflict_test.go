package geom

import "testing"

func TestNodeConflictsSymmetry(t *testing.T) {
	obstacles := []Obstacle{
		{ID: "a", Bounds: Rect{X: 0, Y: 0, W: 100, H: 80}},
		{ID: "b", Bounds: Rect{X: 50, Y: 40, W: 100, H: 80}},
		{ID: "c", Bounds: Rect{X: 400, Y: 400, W: 100, H: 80}},
	}

	conflicts := NodeConflicts(obstacles)

	if !conflicts["a"] || !conflicts["b"] {
		t.Errorf("overlapping nodes a and b should both conflict: %v", conflicts)
	}
	if conflicts["c"] {
		t.Error("non-overlapping node c should not conflict")
	}
}

func TestNodeConflictsTouchingIsNotOverlap(t *testing.T) {
	obstacles := []Obstacle{
		{ID: "a", Bounds: Rect{X: 0, Y: 0, W: 100, H: 80}},
		{ID: "b", Bounds: Rect{X: 100, Y: 0, W: 100, H: 80}},
	}
	if conflicts := NodeConflicts(obstacles); len(conflicts) != 0 {
		t.Errorf("edge-touching nodes should not conflict: %v", conflicts)
	}
}

func TestChannelSegments(t *testing.T) {
	// An L-shaped channel: down, then right.
	points := []Point{{X: 40, Y: 0}, {X: 40, Y: 100}, {X: 140, Y: 100}}
	rects := ChannelSegments(points, 10)

	if len(rects) != 2 {
		t.Fatalf("expected 2 segment rects, got %d", len(rects))
	}

	// Vertical segment: centered at x=40, extended by half-width at the corner.
	v := rects[0]
	if v.X != 35 || v.W != 10 {
		t.Errorf("vertical segment x span = [%v, %v], want [35, 45]", v.X, v.X+v.W)
	}
	if v.Y != 0 || v.Y+v.H != 105 {
		t.Errorf("vertical segment y span = [%v, %v], want [0, 105]", v.Y, v.Y+v.H)
	}

	// Horizontal segment: extended by half-width back into the corner.
	h := rects[1]
	if h.X != 35 || h.X+h.W != 140 {
		t.Errorf("horizontal segment x span = [%v, %v], want [35, 140]", h.X, h.X+h.W)
	}
}

func TestChannelSegmentsDegenerate(t *testing.T) {
	if rects := ChannelSegments([]Point{{X: 1, Y: 1}}, 10); rects != nil {
		t.Error("single point should produce no segments")
	}
	if rects := ChannelSegments([]Point{{}, {X: 10}}, 0); rects != nil {
		t.Error("zero width should produce no segments")
	}
}

// TestChannelConflictBoundary pins the exact gap/overlap transition: a
// vertical channel at x=40 with width 10 occupies x∈[35,45] and misses an
// obstacle at x∈[50,70]; widened to 30 it occupies x∈[25,55] and overlaps
// by 5 units.
func TestChannelConflictBoundary(t *testing.T) {
	points := []Point{{X: 40, Y: 0}, {X: 40, Y: 200}}
	obstacles := []Obstacle{{ID: "n1", Bounds: Rect{X: 50, Y: 50, W: 20, H: 40}}}

	if hits := ChannelConflicts(points, 10, obstacles); len(hits) != 0 {
		t.Errorf("width 10 channel should clear the obstacle, got %v", hits)
	}
	hits := ChannelConflicts(points, 30, obstacles)
	if len(hits) != 1 || hits[0].ID != "n1" {
		t.Errorf("width 30 channel should hit the obstacle, got %v", hits)
	}
}

func TestChannelConflictsEdgePadding(t *testing.T) {
	// The channel grazes the obstacle's border by less than the padding.
	points := []Point{{X: 40, Y: 0}, {X: 40, Y: 200}}
	obstacles := []Obstacle{{ID: "n1", Bounds: Rect{X: 44, Y: 50, W: 40, H: 40}}}

	// Channel spans [35,45]; obstacle shrunk by 2 starts at 46.
	if hits := ChannelConflicts(points, 10, obstacles); len(hits) != 0 {
		t.Errorf("grazing contact within edge padding should not conflict, got %v", hits)
	}
}

func TestRectIntersects(t *testing.T) {
	tests := []struct {
		name string
		a, b Rect
		want bool
	}{
		{"overlap", Rect{0, 0, 10, 10}, Rect{5, 5, 10, 10}, true},
		{"contained", Rect{0, 0, 100, 100}, Rect{10, 10, 5, 5}, true},
		{"disjoint", Rect{0, 0, 10, 10}, Rect{20, 20, 5, 5}, false},
		{"touching edge", Rect{0, 0, 10, 10}, Rect{10, 0, 10, 10}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Intersects(tt.b); got != tt.want {
				t.Errorf("Intersects = %v, want %v", got, tt.want)
			}
			if got := tt.b.Intersects(tt.a); got != tt.want {
				t.Errorf("Intersects (reversed) = %v, want %v", got, tt.want)
			}
		})
	}
}
