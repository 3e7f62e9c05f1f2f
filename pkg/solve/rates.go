// Package solve contains the numeric heart of the planner: per-block
// rate solving, the fixed-point flow propagation engine, and edge status
// classification.
package solve

import (
	"math"

	"github.com/beltline/beltline/pkg/game"
	"github.com/beltline/beltline/pkg/plan"
)

// MinMachineCount is the floor applied to solved machine counts so a
// block never renders as zero or negative machines.
const MinMachineCount = 0.1

// SpeedMultiplier returns the machine speed factor for a speed module at
// the given level. Unknown levels are neutral.
func SpeedMultiplier(level int) float64 {
	switch level {
	case 1:
		return 1.25
	case 2:
		return 1.50
	case 3:
		return 2.00
	}
	return 1.0
}

// ProductivityBonus returns the extra output fraction for a productivity
// module at the given level. Unknown levels are neutral.
func ProductivityBonus(level int) float64 {
	switch level {
	case 1:
		return 0.125
	case 2:
		return 0.20
	case 3:
		return 0.25
	}
	return 0
}

// ModifierEffects resolves an optional machine module into its speed
// multiplier and productivity bonus.
func ModifierEffects(m *plan.Modifier) (speed, productivity float64) {
	speed = 1.0
	if m == nil {
		return speed, 0
	}
	switch m.Type {
	case plan.ModifierSpeed:
		speed = SpeedMultiplier(m.Level)
	case plan.ModifierProductivity:
		productivity = ProductivityBonus(m.Level)
	}
	return speed, productivity
}

// RateInput is one rate-solver call.
type RateInput struct {
	Recipe        *game.Recipe
	Machine       *game.Machine
	TargetRate    float64
	SpeedModifier float64
	// PrimaryOutputID selects which recipe output the target rate refers
	// to; empty or unknown falls back to the first output.
	PrimaryOutputID string
	// Productivity is the extra output fraction per craft. It raises
	// output without raising input consumption or craft time.
	Productivity float64
	// TargetMachineCount, when set, is authoritative and the target rate
	// is ignored.
	TargetMachineCount    float64
	HasTargetMachineCount bool
	Unit                  game.RateUnit
}

// ItemRate is a solved per-item rate in the requested unit.
type ItemRate struct {
	ItemID string
	Rate   float64
}

// RateResult is the output of one rate-solver call.
type RateResult struct {
	MachineCount float64
	// ActualRate is the primary output's rate at the solved machine
	// count, before any starvation scaling by the flow engine.
	ActualRate float64
	Inputs     []ItemRate
	Outputs    []ItemRate
}

// SolveRates computes the machine count and per-port rates for one block.
// It is a pure function with no failure modes: malformed data (missing
// outputs, zero crafting time) degrades to zero rates and a machine
// count of one instead of an error, because a live editor must always
// have something to draw. Callers validate recipe and machine existence
// beforehand.
func SolveRates(in RateInput) RateResult {
	var res RateResult
	if in.Recipe == nil || in.Machine == nil {
		res.MachineCount = 1
		return res
	}

	speedModifier := in.SpeedModifier
	if speedModifier <= 0 {
		speedModifier = 1
	}
	// Combined rate factor: crafts per machine per unit of time.
	craftsPerUnit := 0.0
	if in.Recipe.CraftingTime > 0 {
		craftsPerUnit = in.Unit.Multiplier() / in.Recipe.CraftingTime *
			in.Machine.Speed * speedModifier
	}

	primary := in.Recipe.PrimaryOutput(in.PrimaryOutputID)
	perMachine := 0.0
	if primary != nil {
		perMachine = primary.ExpectedAmount() * (1 + in.Productivity) * craftsPerUnit
	}

	switch {
	case in.HasTargetMachineCount:
		res.MachineCount = in.TargetMachineCount
	case in.TargetRate == 0 || perMachine == 0:
		res.MachineCount = 1
	default:
		res.MachineCount = in.TargetRate / perMachine
	}
	if math.IsNaN(res.MachineCount) {
		res.MachineCount = 1
	}
	if res.MachineCount < MinMachineCount {
		res.MachineCount = MinMachineCount
	}

	// Productivity does not touch input consumption.
	for _, ri := range in.Recipe.Inputs {
		res.Inputs = append(res.Inputs, ItemRate{
			ItemID: ri.ItemID,
			Rate:   ri.ExpectedAmount() * craftsPerUnit * res.MachineCount,
		})
	}
	for _, ro := range in.Recipe.Outputs {
		res.Outputs = append(res.Outputs, ItemRate{
			ItemID: ro.ItemID,
			Rate:   ro.ExpectedAmount() * (1 + in.Productivity) * craftsPerUnit * res.MachineCount,
		})
	}
	res.ActualRate = perMachine * res.MachineCount
	return res
}

// BlockRates resolves a block's recipe, machine, and modifier against the
// game catalog and solves its rates. Missing references yield a
// degenerate zero result and ok=false; the flow engine skips such blocks
// rather than failing the whole pass.
func BlockRates(g *game.GameDefinition, b *plan.BlockState, unit game.RateUnit) (RateResult, bool) {
	r := g.Recipe(b.RecipeID)
	m := g.Machine(b.MachineID)
	if r == nil || m == nil {
		return RateResult{MachineCount: 1}, false
	}
	moduleSpeed, productivity := ModifierEffects(b.Modifier)
	speedModifier := b.SpeedModifier
	if speedModifier <= 0 {
		speedModifier = 1
	}
	in := RateInput{
		Recipe:          r,
		Machine:         m,
		TargetRate:      b.TargetRate,
		SpeedModifier:   speedModifier * moduleSpeed,
		PrimaryOutputID: b.PrimaryOutputID,
		Productivity:    productivity,
		Unit:            unit,
	}
	if b.Mode == plan.ModeMachines {
		in.HasTargetMachineCount = true
		in.TargetMachineCount = b.TargetMachineCount
	}
	return SolveRates(in), true
}
