package pipeline

import (
	"context"

	"go.uber.org/zap"

	"recipe-verifier/internal/core/ingredient"
	"recipe-verifier/internal/core/match"
	"recipe-verifier/internal/pkg/common"
)

// NameIndex resolves a free-form ingredient name to its nearest canonical
// database entry. A nil result with a nil error means no entry scored at or
// above the threshold.
type NameIndex interface {
	BestMatch(ctx context.Context, query string, threshold float64) (*match.Result, error)
}

// Matcher rewrites recipe ingredient names to canonical database keys and
// attaches nutrient contributions.
type Matcher struct {
	index     NameIndex
	db        *ingredient.Database
	threshold float64
}

// NewMatcher builds a Matcher around an index and the canonical database.
func NewMatcher(index NameIndex, db *ingredient.Database, threshold float64) *Matcher {
	return &Matcher{index: index, db: db, threshold: threshold}
}

// MatchRecipe resolves every ingredient of the recipe. Matched ingredients
// get the canonical name, with the original preserved when it differs.
// Quantities are never changed here. The returned flag reports whether every
// ingredient matched; totals are only computed when it is true, since a
// partially matched recipe would understate them.
func (m *Matcher) MatchRecipe(ctx context.Context, r FinalRecipeOption) (FinalRecipeOption, bool) {
	out := r.Clone()
	allMatched := true
	for i := range out.Ingredients {
		ing := &out.Ingredients[i]
		res, err := m.index.BestMatch(ctx, ing.Name, m.threshold)
		if err != nil {
			common.LogWarn("ingredient match lookup failed",
				zap.String("ingredient", ing.Name),
				zap.Error(err))
			allMatched = false
			continue
		}
		if res == nil {
			common.LogDebug("no canonical match for ingredient",
				zap.String("ingredient", ing.Name),
				zap.Float64("threshold", m.threshold))
			allMatched = false
			continue
		}
		if res.Name != ing.Name {
			ing.OriginalName = ing.Name
			ing.Name = res.Name
		}
	}
	out = Recalculate(out, m.db)
	if !allMatched {
		out.TotalCHO = nil
		out.TotalCalories = nil
		out.TotalProteinG = nil
		out.TotalFatG = nil
		out.TotalFiberG = nil
	}
	return out, allMatched
}
