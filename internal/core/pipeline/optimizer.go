package pipeline

import (
	"math"
	"math/rand"
	"sort"

	"go.uber.org/zap"

	"recipe-verifier/internal/core/ingredient"
	"recipe-verifier/internal/pkg/common"
)

const (
	// Target windows in grams of CHO.
	onTargetWindowG = 5.0
	fineTuneWindowG = 15.0

	// Per-ingredient quantity bounds after an adjustment.
	minQuantityG = 5.0
	maxQuantityG = 250.0

	// Whole-recipe scaling clamps.
	scaleUpMin   = 1.1
	scaleUpMax   = 3.0
	scaleDownMin = 0.4
	scaleDownMax = 0.9

	// Fallback suggestion constraints.
	suggestMinCHOPer100g = 20.0
	suggestMinQuantityG  = 10.0
	suggestMaxQuantityG  = 100.0
	suggestMaxReduceFrac = 0.6

	optimizedMarker = " (Ottimizzata)"
)

// Adjustment is a single repair step proposed when direct optimization has
// no CHO contributor to work with.
type Adjustment struct {
	Action    string // "add" or "modify"
	Name      string
	QuantityG float64
}

// Optimizer steers a recipe's total CHO toward a target by adjusting
// ingredient quantities. All methods are value transforms: the input recipe
// is never mutated.
type Optimizer struct {
	db   *ingredient.Database
	seed int64
}

// NewOptimizer builds an Optimizer. The seed makes fallback ingredient
// selection reproducible across runs.
func NewOptimizer(db *ingredient.Database, seed int64) *Optimizer {
	return &Optimizer{db: db, seed: seed}
}

// Optimize moves the recipe toward the CHO target. The returned flag is
// false when no adjustment strategy applied, which the caller treats as a
// signal to try the suggestion fallback. Within 5g of target the recipe is
// returned untouched; within 15g a single dominant contributor is fine-tuned;
// beyond that every contributor is scaled proportionally.
func (o *Optimizer) Optimize(r FinalRecipeOption, targetCHO float64) (FinalRecipeOption, bool) {
	if r.TotalCHO == nil {
		return r, false
	}
	diff := targetCHO - *r.TotalCHO
	if math.Abs(diff) < onTargetWindowG {
		common.LogDebug("recipe already on target",
			zap.String("recipe", r.Name),
			zap.Float64("total_cho", *r.TotalCHO))
		return r, true
	}

	contributors := o.choContributors(r)
	if len(contributors) == 0 {
		return r, false
	}

	if math.Abs(diff) < fineTuneWindowG {
		return o.fineTune(r, contributors[0].Name, diff), true
	}
	return o.scaleAll(r, contributors, targetCHO/(*r.TotalCHO)), true
}

// choContributors returns the recipe's ingredients that carry CHO, sorted by
// contribution descending. When contributions are missing, an estimate from
// the canonical per-100g figure stands in.
func (o *Optimizer) choContributors(r FinalRecipeOption) []CalculatedIngredient {
	type scored struct {
		ing CalculatedIngredient
		cho float64
	}
	var out []scored
	for _, ing := range r.Ingredients {
		cho := 0.0
		switch {
		case ing.CHOContribution != nil:
			cho = *ing.CHOContribution
		default:
			if info, ok := o.db.Lookup(ing.Name); ok && info.CHOPer100g != nil {
				cho = ing.QuantityG * *info.CHOPer100g / 100.0
			}
		}
		if cho > 0 {
			out = append(out, scored{ing: ing, cho: cho})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].cho > out[j].cho })
	ings := make([]CalculatedIngredient, len(out))
	for i, s := range out {
		ings[i] = s.ing
	}
	return ings
}

// fineTune shifts the quantity of a single ingredient by exactly the amount
// needed to cover choDiff grams of CHO, respecting the 5g floor.
func (o *Optimizer) fineTune(r FinalRecipeOption, name string, choDiff float64) FinalRecipeOption {
	out := r.Clone()
	for i := range out.Ingredients {
		ing := &out.Ingredients[i]
		if ing.Name != name {
			continue
		}
		choPer100 := o.choPer100(*ing)
		if choPer100 <= 0 {
			return r
		}
		deltaG := choDiff / choPer100 * 100.0
		newQty := math.Max(minQuantityG, ing.QuantityG+deltaG)
		common.LogDebug("fine-tuning ingredient",
			zap.String("recipe", r.Name),
			zap.String("ingredient", name),
			zap.Float64("from_g", ing.QuantityG),
			zap.Float64("to_g", newQty))
		ing.QuantityG = round1(newQty)
		return Recalculate(out, o.db)
	}
	return r
}

// scaleAll multiplies every CHO contributor by the same factor, clamped to a
// sane range so a wildly off recipe is corrected gradually rather than
// deformed in one step. The recipe is renamed to mark the rework.
func (o *Optimizer) scaleAll(r FinalRecipeOption, contributors []CalculatedIngredient, factor float64) FinalRecipeOption {
	if factor > 1 {
		factor = clamp(factor, scaleUpMin, scaleUpMax)
	} else {
		factor = clamp(factor, scaleDownMin, scaleDownMax)
	}
	names := make(map[string]struct{}, len(contributors))
	for _, c := range contributors {
		names[c.Name] = struct{}{}
	}
	out := r.Clone()
	for i := range out.Ingredients {
		ing := &out.Ingredients[i]
		if _, ok := names[ing.Name]; !ok {
			continue
		}
		ing.QuantityG = round1(clamp(ing.QuantityG*factor, minQuantityG, maxQuantityG))
	}
	out.Name = r.Name + optimizedMarker
	common.LogDebug("scaled recipe proportionally",
		zap.String("recipe", r.Name),
		zap.Float64("factor", factor))
	return Recalculate(out, o.db)
}

// SuggestAdjustment proposes a repair when direct optimization could not
// apply. When CHO is missing it picks a dense carbohydrate source compatible
// with the recipe's dietary flags, deterministically under the seed. When
// CHO is in excess it shrinks the largest contributor. Returns nil when no
// viable suggestion exists.
func (o *Optimizer) SuggestAdjustment(r FinalRecipeOption, targetCHO float64) *Adjustment {
	total := 0.0
	if r.TotalCHO != nil {
		total = *r.TotalCHO
	}
	diff := targetCHO - total

	if diff > 0 {
		candidates := o.choSources(r)
		if len(candidates) == 0 {
			return nil
		}
		rng := rand.New(rand.NewSource(o.seed))
		name := candidates[rng.Intn(len(candidates))]
		info, _ := o.db.Lookup(name)
		qty := clamp(diff / *info.CHOPer100g * 100.0, suggestMinQuantityG, suggestMaxQuantityG)
		for _, ing := range r.Ingredients {
			if ing.Name == name {
				return &Adjustment{Action: "modify", Name: name, QuantityG: round1(ing.QuantityG + qty)}
			}
		}
		return &Adjustment{Action: "add", Name: name, QuantityG: round1(qty)}
	}

	contributors := o.choContributors(r)
	if len(contributors) == 0 {
		return nil
	}
	top := contributors[0]
	choPer100 := o.choPer100(top)
	if choPer100 <= 0 {
		return nil
	}
	removeG := math.Min(-diff/choPer100*100.0, top.QuantityG*suggestMaxReduceFrac)
	newQty := top.QuantityG - removeG
	if newQty < minQuantityG {
		newQty = minQuantityG
	}
	return &Adjustment{Action: "modify", Name: top.Name, QuantityG: round1(newQty)}
}

// ApplyAdjustment executes a suggested repair and recomputes nutrition. The
// flag is false when the adjustment could not be applied, for example when
// the named ingredient has no usable CHO figure.
func (o *Optimizer) ApplyAdjustment(r FinalRecipeOption, adj Adjustment) (FinalRecipeOption, bool) {
	switch adj.Action {
	case "add":
		return o.addIngredient(r, adj.Name, adj.QuantityG)
	case "modify":
		out := r.Clone()
		for i := range out.Ingredients {
			ing := &out.Ingredients[i]
			if ing.Name != adj.Name {
				continue
			}
			if o.choPer100(*ing) <= 0 {
				return r, false
			}
			ing.QuantityG = round1(clamp(adj.QuantityG, minQuantityG, maxQuantityG))
			return Recalculate(out, o.db), true
		}
		return r, false
	default:
		return r, false
	}
}

func (o *Optimizer) addIngredient(r FinalRecipeOption, name string, qty float64) (FinalRecipeOption, bool) {
	if _, ok := o.db.Lookup(name); !ok {
		return r, false
	}
	out := r.Clone()
	out.Ingredients = append(out.Ingredients, CalculatedIngredient{
		Name:      name,
		QuantityG: round1(clamp(qty, minQuantityG, maxQuantityG)),
	})
	return Recalculate(out, o.db), true
}

// choSources lists database entries dense enough in CHO to serve as a repair
// addition and compatible with the recipe's current dietary flags. Names are
// returned sorted so the seeded choice is stable across runs.
func (o *Optimizer) choSources(r FinalRecipeOption) []string {
	var out []string
	for _, name := range o.db.Names() {
		info, _ := o.db.Lookup(name)
		if info.CHOPer100g == nil || *info.CHOPer100g <= suggestMinCHOPer100g {
			continue
		}
		if !info.Compatible(r.IsVegan, r.IsVegetarian, r.IsGlutenFree, r.IsLactoseFree) {
			continue
		}
		out = append(out, name)
	}
	return out
}

// choPer100 recovers the CHO density of an ingredient, preferring the
// contribution already on the recipe over a fresh database lookup.
func (o *Optimizer) choPer100(ing CalculatedIngredient) float64 {
	if ing.CHOContribution != nil && ing.QuantityG > 0 {
		return *ing.CHOContribution / ing.QuantityG * 100.0
	}
	if info, ok := o.db.Lookup(ing.Name); ok && info.CHOPer100g != nil {
		return *info.CHOPer100g
	}
	return 0
}
