package game

import (
	"strings"
	"testing"

	"github.com/beltline/beltline/pkg/errors"
)

// testGame builds a small but complete catalog used across the package tests.
func testGame() *GameDefinition {
	return &GameDefinition{
		ID:      "testgame",
		Name:    "Test Game",
		Version: "1.0.0",
		Items: []Item{
			{ID: "iron-ore", Name: "Iron Ore", Category: ItemOre, StackSize: 100},
			{ID: "iron-ingot", Name: "Iron Ingot", Category: ItemIngot, StackSize: 100},
			{ID: "gear", Name: "Gear", Category: ItemComponent, StackSize: 100},
		},
		Recipes: []Recipe{
			{
				ID: "smelt-iron", Name: "Smelt Iron", MachineID: "smelter-1",
				Inputs:       []RecipeItem{{ItemID: "iron-ore", Amount: 1}},
				Outputs:      []RecipeItem{{ItemID: "iron-ingot", Amount: 1}},
				CraftingTime: 1, Category: RecipeSmelting,
			},
			{
				ID: "make-gear", Name: "Make Gear", MachineID: "assembler-1",
				Inputs:       []RecipeItem{{ItemID: "iron-ingot", Amount: 2}},
				Outputs:      []RecipeItem{{ItemID: "gear", Amount: 1}},
				CraftingTime: 2, Category: RecipeAssembling,
			},
		},
		Machines: []Machine{
			{ID: "smelter-1", Name: "Smelter", Category: MachineSmelter, Speed: 1, Width: 3, Height: 3},
			{ID: "assembler-1", Name: "Assembler", Category: MachineAssembler, Speed: 0.75, Width: 3, Height: 3},
		},
		Belts: []BeltTier{
			{ID: "belt-1", Name: "Belt Mk1", Tier: 1, ItemsPerSecond: 6},
			{ID: "belt-2", Name: "Belt Mk2", Tier: 2, ItemsPerSecond: 12},
			{ID: "belt-3", Name: "Belt Mk3", Tier: 3, ItemsPerSecond: 30},
		},
		Settings: Settings{RateUnit: RatePerMinute, LanesPerBelt: 1, GridSize: 20},
	}
}

func TestImportExportRoundTrip(t *testing.T) {
	g := testGame()

	data, err := Export(g)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	got, err := Import(data)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	again, err := Export(got)
	if err != nil {
		t.Fatalf("re-Export: %v", err)
	}
	if string(data) != string(again) {
		t.Error("round-trip changed the serialized form")
	}
	if got.Name != g.Name || len(got.Recipes) != len(g.Recipes) || got.Settings.RateUnit != g.Settings.RateUnit {
		t.Errorf("round-trip lost data: %+v", got)
	}
}

func TestImportMalformedJSON(t *testing.T) {
	if _, err := Import([]byte("{not json")); err == nil {
		t.Fatal("malformed JSON should fail")
	} else if errors.UserMessage(err) == "" {
		t.Error("error should carry a non-empty message")
	}
}

func TestImportStrictNumbers(t *testing.T) {
	// craftingTime as a string must be a failure, not a coercion.
	payload := `{
		"id": "g", "name": "G", "version": "1",
		"items": [], "machines": [], "belts": [],
		"recipes": [{"id": "r", "name": "R", "machineId": "m",
			"inputs": [], "outputs": [], "craftingTime": "1.5", "category": "other"}],
		"settings": {"rateUnit": "minute"}
	}`
	if _, err := Import([]byte(payload)); err == nil {
		t.Fatal("string craftingTime should fail import")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*GameDefinition)
		wantErr string
	}{
		{"valid", func(g *GameDefinition) {}, ""},
		{"missing id", func(g *GameDefinition) { g.ID = "" }, "missing an id"},
		{"bad rate unit", func(g *GameDefinition) { g.Settings.RateUnit = "fortnight" }, "rateUnit"},
		{"bad item category", func(g *GameDefinition) { g.Items[0].Category = "mineral" }, "unknown category"},
		{"duplicate item", func(g *GameDefinition) { g.Items[1].ID = g.Items[0].ID }, "duplicate item"},
		{"negative speed", func(g *GameDefinition) { g.Machines[0].Speed = -1 }, "speed"},
		{"zero belt throughput", func(g *GameDefinition) { g.Belts[0].ItemsPerSecond = 0 }, "itemsPerSecond"},
		{"bad probability", func(g *GameDefinition) {
			p := 1.5
			g.Recipes[0].Outputs[0].Probability = &p
		}, "probability"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := testGame()
			tt.mutate(g)
			err := Validate(g)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
			if !errors.Is(err, errors.ErrCodeInvalidGameData) {
				t.Errorf("error should carry INVALID_GAME_DATA, got %v", errors.GetCode(err))
			}
		})
	}
}

func TestCheckConsistency(t *testing.T) {
	g := testGame()
	g.Recipes[0].MachineID = "missing-machine"
	g.Recipes[1].Inputs[0].ItemID = "missing-item"

	issues := CheckConsistency(g)

	if !HasErrors(issues) {
		t.Fatal("dangling references should produce errors")
	}
	var machineIssue, itemIssue bool
	for _, is := range issues {
		if strings.Contains(is.Message, "missing-machine") {
			machineIssue = true
			if is.EntityID != "smelt-iron" {
				t.Errorf("issue entity = %q, want smelt-iron", is.EntityID)
			}
		}
		if strings.Contains(is.Message, "missing-item") {
			itemIssue = true
		}
	}
	if !machineIssue || !itemIssue {
		t.Errorf("expected both machine and item issues, got %+v", issues)
	}
}

func TestCheckConsistencyCleanGame(t *testing.T) {
	if issues := CheckConsistency(testGame()); HasErrors(issues) {
		t.Errorf("clean catalog should have no error issues: %+v", issues)
	}
}

func TestNextBelt(t *testing.T) {
	g := testGame()

	tests := []struct {
		current string
		want    string
	}{
		{"belt-1", "belt-2"},
		{"belt-2", "belt-3"},
		{"belt-3", "belt-1"}, // wraps
		{"unknown", "belt-1"},
		{"", "belt-1"},
	}
	for _, tt := range tests {
		got := g.NextBelt(tt.current)
		if got == nil || got.ID != tt.want {
			t.Errorf("NextBelt(%q) = %v, want %s", tt.current, got, tt.want)
		}
	}

	empty := &GameDefinition{}
	if empty.NextBelt("belt-1") != nil {
		t.Error("NextBelt on empty catalog should return nil")
	}
}

func TestBeltCapacity(t *testing.T) {
	g := testGame()
	if got := g.BeltCapacity("belt-1", RatePerMinute); got != 360 {
		t.Errorf("belt-1 per minute = %v, want 360", got)
	}
	if got := g.BeltCapacity("belt-1", RatePerSecond); got != 6 {
		t.Errorf("belt-1 per second = %v, want 6", got)
	}
	if got := g.BeltCapacity("nope", RatePerMinute); got != 0 {
		t.Errorf("unknown belt capacity = %v, want 0", got)
	}
}

func TestPrimaryOutput(t *testing.T) {
	r := &Recipe{Outputs: []RecipeItem{
		{ItemID: "a", Amount: 1},
		{ItemID: "b", Amount: 2},
	}}
	if out := r.PrimaryOutput("b"); out.ItemID != "b" {
		t.Errorf("explicit primary = %q, want b", out.ItemID)
	}
	if out := r.PrimaryOutput("zzz"); out.ItemID != "a" {
		t.Errorf("unmatched primary should fall back to first, got %q", out.ItemID)
	}
	if out := r.PrimaryOutput(""); out.ItemID != "a" {
		t.Errorf("empty primary should fall back to first, got %q", out.ItemID)
	}
	if out := (&Recipe{}).PrimaryOutput("a"); out != nil {
		t.Error("no outputs should return nil")
	}
}

func TestReadYAML(t *testing.T) {
	doc := `
id: yamlgame
name: YAML Game
version: "1"
items:
  - id: ore
    name: Ore
    category: ore
    stackSize: 50
recipes: []
machines: []
belts:
  - id: belt-1
    name: Belt
    tier: 1
    itemsPerSecond: 6
settings:
  rateUnit: minute
`
	g, err := ReadYAML(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ReadYAML: %v", err)
	}
	if g.ID != "yamlgame" || len(g.Items) != 1 || g.Belts[0].ItemsPerSecond != 6 {
		t.Errorf("unexpected decode: %+v", g)
	}

	if _, err := ReadYAML(strings.NewReader("items: {not: [a, list}")); err == nil {
		t.Error("malformed YAML should fail")
	}
}
