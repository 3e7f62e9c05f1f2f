package solve

import (
	"testing"

	"github.com/beltline/beltline/pkg/game"
	"github.com/beltline/beltline/pkg/geom"
	"github.com/beltline/beltline/pkg/plan"
)

func testGame() *game.GameDefinition {
	return &game.GameDefinition{
		ID: "testgame", Name: "Test Game", Version: "1.0.0",
		Items: []game.Item{
			{ID: "iron-ore", Name: "Iron Ore", Category: game.ItemOre, StackSize: 100},
			{ID: "iron-ingot", Name: "Iron Ingot", Category: game.ItemIngot, StackSize: 100},
			{ID: "gear", Name: "Gear", Category: game.ItemComponent, StackSize: 100},
		},
		Recipes: []game.Recipe{
			{
				ID: "smelt-iron", Name: "Iron Smelting", MachineID: "smelter-1",
				Inputs:       []game.RecipeItem{{ItemID: "iron-ore", Amount: 1}},
				Outputs:      []game.RecipeItem{{ItemID: "iron-ingot", Amount: 1}},
				CraftingTime: 1, Category: game.RecipeSmelting,
			},
			{
				ID: "make-gear", Name: "Gear Assembly", MachineID: "assembler-1",
				Inputs:       []game.RecipeItem{{ItemID: "iron-ingot", Amount: 1}},
				Outputs:      []game.RecipeItem{{ItemID: "gear", Amount: 1}},
				CraftingTime: 1, Category: game.RecipeAssembling,
			},
		},
		Machines: []game.Machine{
			{ID: "smelter-1", Name: "Smelter", Category: game.MachineSmelter, Speed: 1, Width: 3, Height: 3},
			{ID: "assembler-1", Name: "Assembler", Category: game.MachineAssembler, Speed: 1, Width: 3, Height: 3},
		},
		Belts: []game.BeltTier{
			{ID: "belt-1", Name: "Belt Mk1", Tier: 1, ItemsPerSecond: 6},
			{ID: "belt-2", Name: "Belt Mk2", Tier: 2, ItemsPerSecond: 12},
		},
		Settings: game.Settings{RateUnit: game.RatePerMinute, LanesPerBelt: 1, GridSize: 20},
	}
}

func mustBlock(t *testing.T, g *game.GameDefinition, recipe string, pos geom.Point, target float64) *plan.Node {
	t.Helper()
	n, err := plan.NewBlockNode(g, recipe, pos, target)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func mustConnect(t *testing.T, p *plan.Plan, g *game.GameDefinition, src *plan.Node, tgt *plan.Node) *plan.Edge {
	t.Helper()
	e, err := plan.Connect(p, g, src.ID, src.Outputs[0].ID, tgt.ID, tgt.Inputs[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

// producerConsumer builds: smelter (targetRate) -> assembler (demand 60/min).
func producerConsumer(t *testing.T, g *game.GameDefinition, producerRate float64) (*plan.Plan, *plan.Node, *plan.Node, *plan.Edge) {
	t.Helper()
	p := &plan.Plan{ID: "test"}
	producer := mustBlock(t, g, "smelt-iron", geom.Point{X: 0, Y: 0}, producerRate)
	consumer := mustBlock(t, g, "make-gear", geom.Point{X: 600, Y: 0}, 60)
	if err := p.AddNode(producer); err != nil {
		t.Fatal(err)
	}
	if err := p.AddNode(consumer); err != nil {
		t.Fatal(err)
	}
	e := mustConnect(t, p, g, producer, consumer)
	return p, producer, consumer, e
}

func TestRecalcMatchedSupply(t *testing.T) {
	g := testGame()
	p, producer, consumer, _ := producerConsumer(t, g, 60)

	res := Recalculate(p, g, Options{SkipRouting: true})
	if !res.Converged {
		t.Errorf("simple chain should converge, ran %d passes", res.Passes)
	}

	e := p.Edges[0]
	if !approx(e.Data.FlowRate, 60) || !approx(e.Data.DemandRate, 60) {
		t.Errorf("flow/demand = %v/%v, want 60/60", e.Data.FlowRate, e.Data.DemandRate)
	}
	if e.Data.Status != plan.StatusOK {
		t.Errorf("status = %q, want ok", e.Data.Status)
	}
	if !approx(producer.Block.Efficiency, 1) || !approx(consumer.Block.Efficiency, 1) {
		t.Errorf("efficiencies = %v, %v, want 1, 1", producer.Block.Efficiency, consumer.Block.Efficiency)
	}
	if !approx(e.Data.Capacity, 360) {
		t.Errorf("capacity = %v, want 360/min on belt-1", e.Data.Capacity)
	}
	if e.Data.Item != plan.Specific("iron-ingot") {
		t.Errorf("edge item = %v", e.Data.Item)
	}
}

func TestRecalcUnconnectedInputSatisfied(t *testing.T) {
	// The producer's ore input has no feed, but a disconnected input must
	// not starve the block: the outgoing edge still carries the full 60.
	g := testGame()
	p, producer, _, _ := producerConsumer(t, g, 60)

	Recalculate(p, g, Options{SkipRouting: true})
	if !approx(producer.Block.Efficiency, 1) {
		t.Errorf("producer efficiency = %v, want 1", producer.Block.Efficiency)
	}
	if got := p.Edges[0].Data.FlowRate; !approx(got, 60) {
		t.Errorf("edge flow = %v, want exactly 60", got)
	}
}

func TestRecalcStarvation(t *testing.T) {
	g := testGame()
	p, _, consumer, _ := producerConsumer(t, g, 30)

	Recalculate(p, g, Options{SkipRouting: true})
	e := p.Edges[0]
	if !approx(e.Data.FlowRate, 30) {
		t.Errorf("flow = %v, want 30", e.Data.FlowRate)
	}
	if !approx(e.Data.DemandRate, 60) {
		t.Errorf("demand = %v, want 60", e.Data.DemandRate)
	}
	if !approx(consumer.Block.Efficiency, 0.5) {
		t.Errorf("consumer efficiency = %v, want 0.5", consumer.Block.Efficiency)
	}
	if e.Data.Status != plan.StatusUnderload {
		t.Errorf("status = %q, want underload", e.Data.Status)
	}
	if !approx(consumer.Block.ActualRate, 30) {
		t.Errorf("consumer actualRate = %v, want 30", consumer.Block.ActualRate)
	}
}

func splitterPlan(t *testing.T, g *game.GameDefinition, leftDemand, rightDemand float64) (*plan.Plan, *plan.Node, *plan.Node, *plan.Node) {
	t.Helper()
	p := &plan.Plan{ID: "split"}
	producer := mustBlock(t, g, "smelt-iron", geom.Point{X: 0, Y: 0}, 60)
	split := plan.NewSplitterNode(plan.NodeSplitter, geom.Point{X: 400, Y: 0})
	left := mustBlock(t, g, "make-gear", geom.Point{X: 800, Y: -200}, leftDemand)
	right := mustBlock(t, g, "make-gear", geom.Point{X: 800, Y: 200}, rightDemand)
	for _, n := range []*plan.Node{producer, split, left, right} {
		if err := p.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := plan.Connect(p, g, producer.ID, producer.Outputs[0].ID, split.ID, split.Inputs[0].ID); err != nil {
		t.Fatal(err)
	}
	if _, err := plan.Connect(p, g, split.ID, split.Outputs[0].ID, left.ID, left.Inputs[0].ID); err != nil {
		t.Fatal(err)
	}
	if _, err := plan.Connect(p, g, split.ID, split.Outputs[1].ID, right.ID, right.Inputs[0].ID); err != nil {
		t.Fatal(err)
	}
	return p, split, left, right
}

func TestRecalcSplitterBalanced(t *testing.T) {
	g := testGame()
	p, split, left, right := splitterPlan(t, g, 30, 30)

	res := Recalculate(p, g, Options{SkipRouting: true})
	if !res.Converged {
		t.Errorf("splitter chain should converge, ran %d passes", res.Passes)
	}
	leftEdge := p.EdgeIntoPort(left.ID, left.Inputs[0].ID)
	rightEdge := p.EdgeIntoPort(right.ID, right.Inputs[0].ID)
	if !approx(leftEdge.Data.FlowRate, 30) || !approx(rightEdge.Data.FlowRate, 30) {
		t.Errorf("split flows = %v/%v, want 30/30", leftEdge.Data.FlowRate, rightEdge.Data.FlowRate)
	}
	feed := p.EdgeIntoPort(split.ID, split.Inputs[0].ID)
	if !approx(feed.Data.FlowRate, 60) || !approx(feed.Data.DemandRate, 60) {
		t.Errorf("feed flow/demand = %v/%v, want 60/60", feed.Data.FlowRate, feed.Data.DemandRate)
	}
	// Splitter ports adopt the connected item.
	if feed.Data.Item != plan.Specific("iron-ingot") {
		t.Errorf("feed item = %v, want iron-ingot", feed.Data.Item)
	}
	if !approx(left.Block.Efficiency, 1) || !approx(right.Block.Efficiency, 1) {
		t.Errorf("consumer efficiencies = %v/%v", left.Block.Efficiency, right.Block.Efficiency)
	}
}

func TestRecalcSplitterBalancedProportional(t *testing.T) {
	// Demands 40 and 20 against 60 supply: balanced splits by demand.
	g := testGame()
	p, _, left, right := splitterPlan(t, g, 40, 20)

	Recalculate(p, g, Options{SkipRouting: true})
	leftEdge := p.EdgeIntoPort(left.ID, left.Inputs[0].ID)
	rightEdge := p.EdgeIntoPort(right.ID, right.Inputs[0].ID)
	if !approx(leftEdge.Data.FlowRate, 40) || !approx(rightEdge.Data.FlowRate, 20) {
		t.Errorf("flows = %v/%v, want 40/20", leftEdge.Data.FlowRate, rightEdge.Data.FlowRate)
	}
}

func TestRecalcSplitterPriorityLeft(t *testing.T) {
	// 60 in, both sides demand 40: the priority side fills first.
	g := testGame()
	p, split, left, right := splitterPlan(t, g, 40, 40)
	split.Splitter.Priority = plan.PriorityOutLeft

	Recalculate(p, g, Options{SkipRouting: true})
	leftEdge := p.EdgeIntoPort(left.ID, left.Inputs[0].ID)
	rightEdge := p.EdgeIntoPort(right.ID, right.Inputs[0].ID)
	if !approx(leftEdge.Data.FlowRate, 40) {
		t.Errorf("priority flow = %v, want 40", leftEdge.Data.FlowRate)
	}
	if !approx(rightEdge.Data.FlowRate, 20) {
		t.Errorf("remainder flow = %v, want 20", rightEdge.Data.FlowRate)
	}
	if !approx(left.Block.Efficiency, 1) || !approx(right.Block.Efficiency, 0.5) {
		t.Errorf("efficiencies = %v/%v, want 1/0.5", left.Block.Efficiency, right.Block.Efficiency)
	}
}

func TestRecalcSplitterPriorityNoDemand(t *testing.T) {
	// Inflow with no downstream demand: the priority output absorbs it.
	g := testGame()
	p := &plan.Plan{ID: "sink"}
	producer := mustBlock(t, g, "smelt-iron", geom.Point{X: 0, Y: 0}, 60)
	split := plan.NewSplitterNode(plan.NodeSplitter, geom.Point{X: 400, Y: 0})
	split.Splitter.Priority = plan.PriorityOutRight
	if err := p.AddNode(producer); err != nil {
		t.Fatal(err)
	}
	if err := p.AddNode(split); err != nil {
		t.Fatal(err)
	}
	if _, err := plan.Connect(p, g, producer.ID, producer.Outputs[0].ID, split.ID, split.Inputs[0].ID); err != nil {
		t.Fatal(err)
	}

	Recalculate(p, g, Options{SkipRouting: true})
	if got := split.Outputs[1].Rate; !approx(got, 60) {
		t.Errorf("priority output rate = %v, want 60", got)
	}
	if got := split.Outputs[0].Rate; !approx(got, 0) {
		t.Errorf("other output rate = %v, want 0", got)
	}
}

func TestRecalcMergerCombines(t *testing.T) {
	g := testGame()
	p := &plan.Plan{ID: "merge"}
	a := mustBlock(t, g, "smelt-iron", geom.Point{X: 0, Y: -200}, 20)
	b := mustBlock(t, g, "smelt-iron", geom.Point{X: 0, Y: 200}, 40)
	merger := plan.NewSplitterNode(plan.NodeMerger, geom.Point{X: 400, Y: 0})
	consumer := mustBlock(t, g, "make-gear", geom.Point{X: 800, Y: 0}, 60)
	for _, n := range []*plan.Node{a, b, merger, consumer} {
		if err := p.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := plan.Connect(p, g, a.ID, a.Outputs[0].ID, merger.ID, merger.Inputs[0].ID); err != nil {
		t.Fatal(err)
	}
	if _, err := plan.Connect(p, g, b.ID, b.Outputs[0].ID, merger.ID, merger.Inputs[1].ID); err != nil {
		t.Fatal(err)
	}
	if _, err := plan.Connect(p, g, merger.ID, merger.Outputs[0].ID, consumer.ID, consumer.Inputs[0].ID); err != nil {
		t.Fatal(err)
	}

	Recalculate(p, g, Options{SkipRouting: true})
	out := p.EdgeIntoPort(consumer.ID, consumer.Inputs[0].ID)
	if !approx(out.Data.FlowRate, 60) {
		t.Errorf("merged flow = %v, want 60", out.Data.FlowRate)
	}
	if !approx(consumer.Block.Efficiency, 1) {
		t.Errorf("consumer efficiency = %v, want 1", consumer.Block.Efficiency)
	}
}

func TestRecalcFanOutProportional(t *testing.T) {
	// One output port feeding two consumers directly: demand-weighted
	// sharing, so 40/20 demand against 60 supply fills both exactly.
	g := testGame()
	p := &plan.Plan{ID: "fanout"}
	producer := mustBlock(t, g, "smelt-iron", geom.Point{X: 0, Y: 0}, 60)
	big := mustBlock(t, g, "make-gear", geom.Point{X: 600, Y: -200}, 40)
	small := mustBlock(t, g, "make-gear", geom.Point{X: 600, Y: 200}, 20)
	for _, n := range []*plan.Node{producer, big, small} {
		if err := p.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	mustConnect(t, p, g, producer, big)
	mustConnect(t, p, g, producer, small)

	Recalculate(p, g, Options{SkipRouting: true})
	bigEdge := p.EdgeIntoPort(big.ID, big.Inputs[0].ID)
	smallEdge := p.EdgeIntoPort(small.ID, small.Inputs[0].ID)
	if !approx(bigEdge.Data.FlowRate, 40) || !approx(smallEdge.Data.FlowRate, 20) {
		t.Errorf("fan-out flows = %v/%v, want 40/20", bigEdge.Data.FlowRate, smallEdge.Data.FlowRate)
	}
}

func TestRecalcSkipsBrokenEdges(t *testing.T) {
	g := testGame()
	p, _, _, _ := producerConsumer(t, g, 60)
	// A dangling edge smuggled past validation must be skipped, not
	// crash the pass.
	p.Edges = append(p.Edges, &plan.Edge{
		ID: "ghost", Source: "gone", SourcePort: "p", Target: "also-gone", TargetPort: "q",
	})

	res := Recalculate(p, g, Options{SkipRouting: true})
	if !res.Converged {
		t.Errorf("pass should still converge")
	}
	ghost := p.Edge("ghost")
	if ghost.Data.FlowRate != 0 || ghost.Data.Status != "" {
		t.Errorf("broken edge should stay untouched: %+v", ghost.Data)
	}
}

func TestRecalcPassCapDiagnostic(t *testing.T) {
	g := testGame()
	p, _, _, _ := producerConsumer(t, g, 60)

	res := Recalculate(p, g, Options{SkipRouting: true, MaxPasses: 1})
	if res.Passes != 1 {
		t.Errorf("passes = %d, want 1", res.Passes)
	}

	full := Recalculate(p, g, Options{SkipRouting: true})
	if !full.Converged || full.Passes > DefaultMaxPasses {
		t.Errorf("result = %+v, want convergence within the cap", full)
	}
}
