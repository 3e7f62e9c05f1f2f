// Package game defines the read-only game-data catalog the planner
// consumes: items, recipes, machines, and belt tiers, aggregated into a
// GameDefinition.
//
// The catalog is reference data. The solver never mutates it; user edits
// go through import/export, which validates against a strict schema so
// that everything downstream can assume well-formed data.
package game

import "fmt"

// =============================================================================
// Enumerations
// =============================================================================

// RateUnit selects the time base all rates are expressed in.
type RateUnit string

// Supported rate units.
const (
	RatePerSecond RateUnit = "second"
	RatePerMinute RateUnit = "minute"
)

// Multiplier converts a per-second base throughput into the unit.
func (u RateUnit) Multiplier() float64 {
	if u == RatePerMinute {
		return 60
	}
	return 1
}

// Valid reports whether u is a known rate unit.
func (u RateUnit) Valid() bool {
	return u == RatePerSecond || u == RatePerMinute
}

// ItemCategory classifies items for grouping in pickers.
type ItemCategory string

// Item categories.
const (
	ItemOre       ItemCategory = "ore"
	ItemIngot     ItemCategory = "ingot"
	ItemComponent ItemCategory = "component"
	ItemProduct   ItemCategory = "product"
	ItemScience   ItemCategory = "science"
	ItemFluid     ItemCategory = "fluid"
	ItemOther     ItemCategory = "other"
)

var itemCategories = map[ItemCategory]bool{
	ItemOre: true, ItemIngot: true, ItemComponent: true, ItemProduct: true,
	ItemScience: true, ItemFluid: true, ItemOther: true,
}

// Valid reports whether c is a known item category.
func (c ItemCategory) Valid() bool { return itemCategories[c] }

// RecipeCategory classifies recipes by the kind of processing they do.
type RecipeCategory string

// Recipe categories.
const (
	RecipeSmelting   RecipeCategory = "smelting"
	RecipeAssembling RecipeCategory = "assembling"
	RecipeRefining   RecipeCategory = "refining"
	RecipeChemical   RecipeCategory = "chemical"
	RecipeResearch   RecipeCategory = "research"
	RecipeMining     RecipeCategory = "mining"
	RecipeOther      RecipeCategory = "other"
)

var recipeCategories = map[RecipeCategory]bool{
	RecipeSmelting: true, RecipeAssembling: true, RecipeRefining: true,
	RecipeChemical: true, RecipeResearch: true, RecipeMining: true, RecipeOther: true,
}

// Valid reports whether c is a known recipe category.
func (c RecipeCategory) Valid() bool { return recipeCategories[c] }

// MachineCategory classifies machines by what recipes they accept.
type MachineCategory string

// Machine categories.
const (
	MachineSmelter   MachineCategory = "smelter"
	MachineAssembler MachineCategory = "assembler"
	MachineRefinery  MachineCategory = "refinery"
	MachineChemical  MachineCategory = "chemical"
	MachineLab       MachineCategory = "lab"
	MachineMiner     MachineCategory = "miner"
	MachineOther     MachineCategory = "other"
)

var machineCategories = map[MachineCategory]bool{
	MachineSmelter: true, MachineAssembler: true, MachineRefinery: true,
	MachineChemical: true, MachineLab: true, MachineMiner: true, MachineOther: true,
}

// Valid reports whether c is a known machine category.
func (c MachineCategory) Valid() bool { return machineCategories[c] }

// =============================================================================
// Catalog Entities
// =============================================================================

// Item is a producible or consumable resource.
type Item struct {
	ID        string       `json:"id" bson:"id" yaml:"id"`
	Name      string       `json:"name" bson:"name" yaml:"name"`
	Category  ItemCategory `json:"category" bson:"category" yaml:"category"`
	StackSize int          `json:"stackSize" bson:"stack_size" yaml:"stackSize"`
	Color     string       `json:"color,omitempty" bson:"color,omitempty" yaml:"color,omitempty"`
	Icon      string       `json:"icon,omitempty" bson:"icon,omitempty" yaml:"icon,omitempty"`
}

// RecipeItem is one input or output slot of a recipe. Probability, when
// set, scales the expected amount per craft (byproduct chance).
type RecipeItem struct {
	ItemID      string   `json:"itemId" bson:"item_id" yaml:"itemId"`
	Amount      float64  `json:"amount" bson:"amount" yaml:"amount"`
	Probability *float64 `json:"probability,omitempty" bson:"probability,omitempty" yaml:"probability,omitempty"`
}

// ExpectedAmount returns the amount scaled by probability when present.
func (ri RecipeItem) ExpectedAmount() float64 {
	if ri.Probability != nil {
		return ri.Amount * *ri.Probability
	}
	return ri.Amount
}

// Recipe describes one craft: what goes in, what comes out, how long it
// takes, and which machine runs it.
type Recipe struct {
	ID           string         `json:"id" bson:"id" yaml:"id"`
	Name         string         `json:"name" bson:"name" yaml:"name"`
	MachineID    string         `json:"machineId" bson:"machine_id" yaml:"machineId"`
	Inputs       []RecipeItem   `json:"inputs" bson:"inputs" yaml:"inputs"`
	Outputs      []RecipeItem   `json:"outputs" bson:"outputs" yaml:"outputs"`
	CraftingTime float64        `json:"craftingTime" bson:"crafting_time" yaml:"craftingTime"`
	Category     RecipeCategory `json:"category" bson:"category" yaml:"category"`
}

// PrimaryOutput returns the output matching id, or the first output when
// id does not match (or is empty). Returns nil for recipes with no outputs.
func (r *Recipe) PrimaryOutput(id string) *RecipeItem {
	if len(r.Outputs) == 0 {
		return nil
	}
	if id != "" {
		for i := range r.Outputs {
			if r.Outputs[i].ItemID == id {
				return &r.Outputs[i]
			}
		}
	}
	return &r.Outputs[0]
}

// Machine is a production building that runs recipes at a speed multiplier.
type Machine struct {
	ID         string          `json:"id" bson:"id" yaml:"id"`
	Name       string          `json:"name" bson:"name" yaml:"name"`
	Category   MachineCategory `json:"category" bson:"category" yaml:"category"`
	Speed      float64         `json:"speed" bson:"speed" yaml:"speed"`
	Width      int             `json:"width" bson:"width" yaml:"width"`
	Height     int             `json:"height" bson:"height" yaml:"height"`
	PowerUsage float64         `json:"powerUsage,omitempty" bson:"power_usage,omitempty" yaml:"powerUsage,omitempty"`
}

// BeltTier is one logistics tier with a base per-second throughput.
type BeltTier struct {
	ID             string  `json:"id" bson:"id" yaml:"id"`
	Name           string  `json:"name" bson:"name" yaml:"name"`
	Tier           int     `json:"tier" bson:"tier" yaml:"tier"`
	ItemsPerSecond float64 `json:"itemsPerSecond" bson:"items_per_second" yaml:"itemsPerSecond"`
	Color          string  `json:"color,omitempty" bson:"color,omitempty" yaml:"color,omitempty"`
}

// Settings holds planner-wide tunables stored with the game definition.
type Settings struct {
	RateUnit          RateUnit `json:"rateUnit" bson:"rate_unit" yaml:"rateUnit"`
	LanesPerBelt      int      `json:"lanesPerBelt" bson:"lanes_per_belt" yaml:"lanesPerBelt"`
	HasSpeedModifiers bool     `json:"hasSpeedModifiers" bson:"has_speed_modifiers" yaml:"hasSpeedModifiers"`
	GridSize          float64  `json:"gridSize" bson:"grid_size" yaml:"gridSize"`
}

// =============================================================================
// GameDefinition - Aggregate Root
// =============================================================================

// GameDefinition is the complete catalog for one game, plus settings.
// It is read-only from the solver's perspective during a solve pass.
type GameDefinition struct {
	ID       string     `json:"id" bson:"id" yaml:"id"`
	Name     string     `json:"name" bson:"name" yaml:"name"`
	Version  string     `json:"version" bson:"version" yaml:"version"`
	Items    []Item     `json:"items" bson:"items" yaml:"items"`
	Recipes  []Recipe   `json:"recipes" bson:"recipes" yaml:"recipes"`
	Machines []Machine  `json:"machines" bson:"machines" yaml:"machines"`
	Belts    []BeltTier `json:"belts" bson:"belts" yaml:"belts"`
	Settings Settings   `json:"settings" bson:"settings" yaml:"settings"`
}

// Item looks up an item by ID. Returns nil when absent.
func (g *GameDefinition) Item(id string) *Item {
	for i := range g.Items {
		if g.Items[i].ID == id {
			return &g.Items[i]
		}
	}
	return nil
}

// Recipe looks up a recipe by ID. Returns nil when absent.
func (g *GameDefinition) Recipe(id string) *Recipe {
	for i := range g.Recipes {
		if g.Recipes[i].ID == id {
			return &g.Recipes[i]
		}
	}
	return nil
}

// Machine looks up a machine by ID. Returns nil when absent.
func (g *GameDefinition) Machine(id string) *Machine {
	for i := range g.Machines {
		if g.Machines[i].ID == id {
			return &g.Machines[i]
		}
	}
	return nil
}

// Belt looks up a belt tier by ID. Returns nil when absent.
func (g *GameDefinition) Belt(id string) *BeltTier {
	for i := range g.Belts {
		if g.Belts[i].ID == id {
			return &g.Belts[i]
		}
	}
	return nil
}

// NextBelt returns the belt tier following id in ascending tier order,
// wrapping to the lowest tier after the highest. With an unknown id (or
// an empty catalog) it returns the lowest tier, or nil when there are no
// belts at all.
func (g *GameDefinition) NextBelt(id string) *BeltTier {
	if len(g.Belts) == 0 {
		return nil
	}
	lowest, current := -1, -1
	for i := range g.Belts {
		if lowest < 0 || g.Belts[i].Tier < g.Belts[lowest].Tier {
			lowest = i
		}
		if g.Belts[i].ID == id {
			current = i
		}
	}
	if current < 0 {
		return &g.Belts[lowest]
	}
	// Smallest tier strictly greater than the current one.
	next := -1
	for i := range g.Belts {
		if g.Belts[i].Tier > g.Belts[current].Tier &&
			(next < 0 || g.Belts[i].Tier < g.Belts[next].Tier) {
			next = i
		}
	}
	if next < 0 {
		return &g.Belts[lowest]
	}
	return &g.Belts[next]
}

// BeltCapacity returns the throughput of belt id expressed in unit.
// Unknown belts have zero capacity.
func (g *GameDefinition) BeltCapacity(id string, unit RateUnit) float64 {
	b := g.Belt(id)
	if b == nil {
		return 0
	}
	return b.ItemsPerSecond * unit.Multiplier()
}

// String implements fmt.Stringer for log output.
func (g *GameDefinition) String() string {
	return fmt.Sprintf("%s (%d items, %d recipes, %d machines, %d belts)",
		g.Name, len(g.Items), len(g.Recipes), len(g.Machines), len(g.Belts))
}
