package pipeline

import (
	"recipe-verifier/internal/core/ingredient"
)

// Recalculate recomputes every per-ingredient contribution and every recipe
// total from the canonical database. It is the single source of truth for
// nutrient figures: any change to a quantity or an ingredient identity must
// be followed by a Recalculate, never by manual edits to the totals.
func Recalculate(r FinalRecipeOption, db *ingredient.Database) FinalRecipeOption {
	out := r.Clone()
	for i := range out.Ingredients {
		out.Ingredients[i] = contributionsFor(out.Ingredients[i], db)
	}
	out.TotalCHO = sumContributions(out.Ingredients, func(c CalculatedIngredient) *float64 { return c.CHOContribution })
	out.TotalCalories = sumContributions(out.Ingredients, func(c CalculatedIngredient) *float64 { return c.CaloriesContribution })
	out.TotalProteinG = sumContributions(out.Ingredients, func(c CalculatedIngredient) *float64 { return c.ProteinContributionG })
	out.TotalFatG = sumContributions(out.Ingredients, func(c CalculatedIngredient) *float64 { return c.FatContributionG })
	out.TotalFiberG = sumContributions(out.Ingredients, func(c CalculatedIngredient) *float64 { return c.FiberContributionG })
	return out
}

// contributionsFor fills the contribution fields of one ingredient from its
// canonical record. Unknown ingredients keep nil contributions.
func contributionsFor(c CalculatedIngredient, db *ingredient.Database) CalculatedIngredient {
	c.QuantityG = round1(c.QuantityG)
	c.CHOContribution = nil
	c.CaloriesContribution = nil
	c.ProteinContributionG = nil
	c.FatContributionG = nil
	c.FiberContributionG = nil

	info, ok := db.Lookup(c.Name)
	if !ok {
		return c
	}
	scale := c.QuantityG / 100.0
	c.CHOContribution = scalePer100(info.CHOPer100g, scale)
	c.CaloriesContribution = scalePer100(info.CaloriesPer100g, scale)
	c.ProteinContributionG = scalePer100(info.ProteinPer100g, scale)
	c.FatContributionG = scalePer100(info.FatPer100g, scale)
	c.FiberContributionG = scalePer100(info.FiberPer100g, scale)
	return c
}

func scalePer100(per100 *float64, scale float64) *float64 {
	if per100 == nil {
		return nil
	}
	v := round2(*per100 * scale)
	return &v
}

// sumContributions adds the non-nil contributions selected by pick. The CHO
// total treats missing contributions as zero like every other nutrient; a
// recipe where no ingredient carries the nutrient at all yields nil, so the
// absence of data stays distinguishable from a genuine zero.
func sumContributions(ings []CalculatedIngredient, pick func(CalculatedIngredient) *float64) *float64 {
	total := 0.0
	seen := false
	for _, ing := range ings {
		if v := pick(ing); v != nil {
			total += *v
			seen = true
		}
	}
	if !seen {
		return nil
	}
	total = round2(total)
	return &total
}
