package pipeline

import (
	"math"
)

// UserPreferences are the immutable verification targets for one run.
type UserPreferences struct {
	TargetCHO   float64 `json:"target_cho"`
	Vegan       bool    `json:"vegan"`
	Vegetarian  bool    `json:"vegetarian"`
	GlutenFree  bool    `json:"gluten_free"`
	LactoseFree bool    `json:"lactose_free"`
}

// Valid reports whether the preferences can drive a run.
func (p UserPreferences) Valid() bool {
	return p.TargetCHO > 0
}

// RecipeIngredient is a raw name/quantity pair as produced by the generator
// or a repair strategy. The name may not be a canonical database key yet.
type RecipeIngredient struct {
	Name      string  `json:"name"`
	QuantityG float64 `json:"quantity_g"`
}

// CalculatedIngredient extends a RecipeIngredient with computed nutrient
// contributions. Contribution fields are nil when the canonical record is
// unknown or carries no figure; they are recomputed whenever the quantity or
// identity changes, never edited by hand.
type CalculatedIngredient struct {
	Name                 string   `json:"name"`
	OriginalName         string   `json:"original_name,omitempty"`
	QuantityG            float64  `json:"quantity_g"`
	CHOContribution      *float64 `json:"cho_contribution"`
	CaloriesContribution *float64 `json:"calories_contribution"`
	ProteinContributionG *float64 `json:"protein_contribution_g"`
	FatContributionG     *float64 `json:"fat_contribution_g"`
	FiberContributionG   *float64 `json:"fiber_contribution_g"`
}

// FinalRecipeOption is the unit flowing through every pipeline phase. It is
// treated as an immutable value: every transform clones it and returns a new
// instance, so phases never share mutable state.
type FinalRecipeOption struct {
	Name          string                 `json:"name"`
	Description   string                 `json:"description,omitempty"`
	Ingredients   []CalculatedIngredient `json:"ingredients"`
	TotalCHO      *float64               `json:"total_cho"`
	TotalCalories *float64               `json:"total_calories"`
	TotalProteinG *float64               `json:"total_protein_g"`
	TotalFatG     *float64               `json:"total_fat_g"`
	TotalFiberG   *float64               `json:"total_fiber_g"`
	IsVegan       bool                   `json:"is_vegan"`
	IsVegetarian  bool                   `json:"is_vegetarian"`
	IsGlutenFree  bool                   `json:"is_gluten_free"`
	IsLactoseFree bool                   `json:"is_lactose_free"`
	Instructions  []string               `json:"instructions,omitempty"`
}

// Clone returns a deep copy, including contribution pointers, so the copy can
// be mutated without aliasing the original.
func (r FinalRecipeOption) Clone() FinalRecipeOption {
	out := r
	out.Ingredients = make([]CalculatedIngredient, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		c := ing
		c.CHOContribution = cloneFloat(ing.CHOContribution)
		c.CaloriesContribution = cloneFloat(ing.CaloriesContribution)
		c.ProteinContributionG = cloneFloat(ing.ProteinContributionG)
		c.FatContributionG = cloneFloat(ing.FatContributionG)
		c.FiberContributionG = cloneFloat(ing.FiberContributionG)
		out.Ingredients[i] = c
	}
	out.TotalCHO = cloneFloat(r.TotalCHO)
	out.TotalCalories = cloneFloat(r.TotalCalories)
	out.TotalProteinG = cloneFloat(r.TotalProteinG)
	out.TotalFatG = cloneFloat(r.TotalFatG)
	out.TotalFiberG = cloneFloat(r.TotalFiberG)
	if r.Instructions != nil {
		out.Instructions = append([]string(nil), r.Instructions...)
	}
	return out
}

// CHODistance is the absolute distance of the recipe's total CHO from target.
// Recipes without a computed total sort last.
func (r FinalRecipeOption) CHODistance(target float64) float64 {
	if r.TotalCHO == nil {
		return math.Inf(1)
	}
	return math.Abs(*r.TotalCHO - target)
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
