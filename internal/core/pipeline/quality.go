package pipeline

import (
	"fmt"
	"math"
	"strings"
)

const (
	minIngredientCount  = 3
	minInstructionCount = 2
)

// Liquids and sauce bases that legitimately exceed the per-ingredient solid
// quantity ceiling.
var quantityCheckExclusions = map[string]struct{}{
	"brodo vegetale":      {},
	"acqua":               {},
	"latte":               {},
	"vino bianco":         {},
	"brodo di pollo":      {},
	"brodo di pesce":      {},
	"passata di pomodoro": {},
	"polpa di pomodoro":   {},
}

// QualityGate applies the final plausibility and accuracy checks before a
// recipe may be offered to the user.
type QualityGate struct {
	finalTolerance float64
}

// NewQualityGate builds a gate with the given relative CHO tolerance.
func NewQualityGate(finalTolerance float64) QualityGate {
	return QualityGate{finalTolerance: finalTolerance}
}

// Check runs every gate rule and returns the first failure reason, or ok.
// Rules: enough ingredients and instructions to be a real dish, no absurd
// solid quantities, total CHO inside the strict tolerance around target, and
// dietary flags still honouring the user's restrictions.
func (g QualityGate) Check(r FinalRecipeOption, prefs UserPreferences) (bool, string) {
	if len(r.Ingredients) < minIngredientCount {
		return false, fmt.Sprintf("only %d ingredients, need at least %d", len(r.Ingredients), minIngredientCount)
	}
	if len(r.Instructions) < minInstructionCount {
		return false, fmt.Sprintf("only %d instructions, need at least %d", len(r.Instructions), minInstructionCount)
	}
	for _, ing := range r.Ingredients {
		if ing.QuantityG <= maxQuantityG {
			continue
		}
		if _, ok := quantityCheckExclusions[strings.ToLower(ing.Name)]; ok {
			continue
		}
		return false, fmt.Sprintf("implausible quantity %.1fg of %s", ing.QuantityG, ing.Name)
	}
	if r.TotalCHO == nil {
		return false, "total CHO could not be computed"
	}
	if dev := math.Abs(*r.TotalCHO - prefs.TargetCHO); dev > prefs.TargetCHO*g.finalTolerance {
		return false, fmt.Sprintf("total CHO %.2fg deviates %.2fg from target %.2fg", *r.TotalCHO, dev, prefs.TargetCHO)
	}
	if !SatisfiesPreferences(r, prefs) {
		return false, "dietary flags no longer satisfy preferences"
	}
	return true, ""
}
