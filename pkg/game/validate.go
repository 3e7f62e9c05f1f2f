package game

import (
	"fmt"

	"github.com/beltline/beltline/pkg/errors"
)

// Validate checks a GameDefinition against the import schema. It returns
// the first structural violation found, wrapped with enough context to
// point at the offending entity. Referential integrity (recipes naming
// unknown items or machines) is deliberately NOT checked here - see
// CheckConsistency, which reports those as non-fatal issues.
func Validate(g *GameDefinition) error {
	if g.ID == "" {
		return errors.New(errors.ErrCodeInvalidGameData, "game definition is missing an id")
	}
	if g.Name == "" {
		return errors.New(errors.ErrCodeInvalidGameData, "game definition is missing a name")
	}
	if g.Settings.RateUnit != "" && !g.Settings.RateUnit.Valid() {
		return errors.New(errors.ErrCodeInvalidGameData,
			"settings.rateUnit must be %q or %q, got %q", RatePerSecond, RatePerMinute, g.Settings.RateUnit)
	}
	if g.Settings.GridSize < 0 {
		return errors.New(errors.ErrCodeInvalidGameData, "settings.gridSize must not be negative")
	}

	seenItems := make(map[string]bool, len(g.Items))
	for i, item := range g.Items {
		if err := validateItem(i, item); err != nil {
			return err
		}
		if seenItems[item.ID] {
			return errors.New(errors.ErrCodeInvalidGameData, "duplicate item id %q", item.ID)
		}
		seenItems[item.ID] = true
	}

	seenRecipes := make(map[string]bool, len(g.Recipes))
	for i, r := range g.Recipes {
		if err := validateRecipe(i, r); err != nil {
			return err
		}
		if seenRecipes[r.ID] {
			return errors.New(errors.ErrCodeInvalidGameData, "duplicate recipe id %q", r.ID)
		}
		seenRecipes[r.ID] = true
	}

	seenMachines := make(map[string]bool, len(g.Machines))
	for i, m := range g.Machines {
		if err := validateMachine(i, m); err != nil {
			return err
		}
		if seenMachines[m.ID] {
			return errors.New(errors.ErrCodeInvalidGameData, "duplicate machine id %q", m.ID)
		}
		seenMachines[m.ID] = true
	}

	seenBelts := make(map[string]bool, len(g.Belts))
	for i, b := range g.Belts {
		if b.ID == "" {
			return errors.New(errors.ErrCodeInvalidGameData, "belt[%d] is missing an id", i)
		}
		if b.ItemsPerSecond <= 0 {
			return errors.New(errors.ErrCodeInvalidGameData,
				"belt %q itemsPerSecond must be positive, got %v", b.ID, b.ItemsPerSecond)
		}
		if seenBelts[b.ID] {
			return errors.New(errors.ErrCodeInvalidGameData, "duplicate belt id %q", b.ID)
		}
		seenBelts[b.ID] = true
	}

	return nil
}

func validateItem(i int, item Item) error {
	if item.ID == "" {
		return errors.New(errors.ErrCodeInvalidGameData, "item[%d] is missing an id", i)
	}
	if item.Name == "" {
		return errors.New(errors.ErrCodeInvalidGameData, "item %q is missing a name", item.ID)
	}
	if !item.Category.Valid() {
		return errors.New(errors.ErrCodeInvalidGameData,
			"item %q has unknown category %q", item.ID, item.Category)
	}
	if item.StackSize < 0 {
		return errors.New(errors.ErrCodeInvalidGameData,
			"item %q stackSize must not be negative", item.ID)
	}
	return nil
}

func validateRecipe(i int, r Recipe) error {
	if r.ID == "" {
		return errors.New(errors.ErrCodeInvalidGameData, "recipe[%d] is missing an id", i)
	}
	if !r.Category.Valid() {
		return errors.New(errors.ErrCodeInvalidGameData,
			"recipe %q has unknown category %q", r.ID, r.Category)
	}
	if r.CraftingTime < 0 {
		return errors.New(errors.ErrCodeInvalidGameData,
			"recipe %q craftingTime must not be negative", r.ID)
	}
	for _, slot := range [2][]RecipeItem{r.Inputs, r.Outputs} {
		for _, ri := range slot {
			if ri.ItemID == "" {
				return errors.New(errors.ErrCodeInvalidGameData,
					"recipe %q has a slot with no itemId", r.ID)
			}
			if ri.Amount < 0 {
				return errors.New(errors.ErrCodeInvalidGameData,
					"recipe %q slot %q amount must not be negative", r.ID, ri.ItemID)
			}
			if ri.Probability != nil && (*ri.Probability < 0 || *ri.Probability > 1) {
				return errors.New(errors.ErrCodeInvalidGameData,
					"recipe %q slot %q probability must be within [0,1]", r.ID, ri.ItemID)
			}
		}
	}
	return nil
}

func validateMachine(i int, m Machine) error {
	if m.ID == "" {
		return errors.New(errors.ErrCodeInvalidGameData, "machine[%d] is missing an id", i)
	}
	if m.Speed < 0 {
		return errors.New(errors.ErrCodeInvalidGameData,
			"machine %q speed must not be negative, got %v", m.ID, m.Speed)
	}
	if m.Width < 0 || m.Height < 0 {
		return errors.New(errors.ErrCodeInvalidGameData,
			"machine %q size must not be negative", m.ID)
	}
	return nil
}

// =============================================================================
// Consistency Checker
// =============================================================================

// IssueType distinguishes blocking errors from advisory warnings.
type IssueType string

// Issue severities.
const (
	IssueError   IssueType = "error"
	IssueWarning IssueType = "warning"
)

// Issue is one referential-integrity finding. Issues are advisory: the
// solver tolerates dangling references by skipping them, so a game with
// issues still loads and solves.
type Issue struct {
	Type     IssueType `json:"type"`
	Message  string    `json:"message"`
	EntityID string    `json:"entityId"`
}

// CheckConsistency walks the catalog's cross-references and reports every
// recipe input/output naming an unknown item and every recipe naming an
// unknown machine. Nothing here is fatal.
func CheckConsistency(g *GameDefinition) []Issue {
	var issues []Issue

	items := make(map[string]bool, len(g.Items))
	for _, it := range g.Items {
		items[it.ID] = true
	}
	machines := make(map[string]bool, len(g.Machines))
	for _, m := range g.Machines {
		machines[m.ID] = true
	}

	for _, r := range g.Recipes {
		if r.MachineID != "" && !machines[r.MachineID] {
			issues = append(issues, Issue{
				Type:     IssueError,
				Message:  fmt.Sprintf("recipe %q references unknown machine %q", r.ID, r.MachineID),
				EntityID: r.ID,
			})
		}
		for _, ri := range r.Inputs {
			if !items[ri.ItemID] {
				issues = append(issues, Issue{
					Type:     IssueError,
					Message:  fmt.Sprintf("recipe %q input references unknown item %q", r.ID, ri.ItemID),
					EntityID: r.ID,
				})
			}
		}
		for _, ri := range r.Outputs {
			if !items[ri.ItemID] {
				issues = append(issues, Issue{
					Type:     IssueError,
					Message:  fmt.Sprintf("recipe %q output references unknown item %q", r.ID, ri.ItemID),
					EntityID: r.ID,
				})
			}
		}
		if len(r.Outputs) == 0 {
			issues = append(issues, Issue{
				Type:     IssueWarning,
				Message:  fmt.Sprintf("recipe %q has no outputs", r.ID),
				EntityID: r.ID,
			})
		}
		if r.CraftingTime == 0 {
			issues = append(issues, Issue{
				Type:     IssueWarning,
				Message:  fmt.Sprintf("recipe %q has zero crafting time", r.ID),
				EntityID: r.ID,
			})
		}
	}

	return issues
}

// HasErrors reports whether any issue in the list is a blocking error.
func HasErrors(issues []Issue) bool {
	for _, is := range issues {
		if is.Type == IssueError {
			return true
		}
	}
	return false
}
