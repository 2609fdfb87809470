package pipeline

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"recipe-verifier/internal/core/ingredient"
	"recipe-verifier/internal/pkg/common"
)

// Relative weights of the similarity signals. When a signal cannot be
// evaluated for a pair its weight is dropped and the rest are renormalized.
const (
	weightTitle      = 0.20
	weightMainIngr   = 0.40
	weightDishType   = 0.25
	weightDietFlags  = 0.15
	mainIngredientsN = 3
)

var titleStopWords = map[string]struct{}{
	"con": {}, "e": {}, "al": {}, "di": {}, "la": {}, "il": {},
	"le": {}, "i": {}, "in": {}, "del": {}, "della": {}, "allo": {}, "alla": {},
}

var dishTypeKeywords = map[string][]string{
	"primo": {
		"pasta", "spaghetti", "penne", "fusilli", "tagliatelle", "lasagne",
		"risotto", "riso", "gnocchi", "zuppa", "minestra", "minestrone", "vellutata",
	},
	"secondo": {
		"pollo", "manzo", "maiale", "vitello", "tacchino", "agnello",
		"pesce", "salmone", "tonno", "merluzzo", "frittata", "polpette", "arrosto", "scaloppine",
	},
	"contorno": {
		"insalata", "verdure", "patate", "contorno", "grigliate", "spinaci", "zucchine",
	},
	"dessert": {
		"torta", "dolce", "crostata", "tiramisu", "budino", "gelato", "biscotti", "panna cotta",
	},
}

// Similarity scores how alike two recipes are in [0,1] from four signals:
// title word overlap, main ingredient overlap, dish type, and dietary flag
// agreement. Overlaps are measured against the smaller set, so a recipe whose
// main ingredients are a subset of another's scores as a full duplicate on
// that signal. A signal only counts when both sides carry features for it.
func Similarity(a, b FinalRecipeOption) float64 {
	score := 0.0
	weight := 0.0

	ta, tb := titleTokens(a.Name), titleTokens(b.Name)
	if len(ta) > 0 && len(tb) > 0 {
		score += weightTitle * overlapFraction(ta, tb)
		weight += weightTitle
	}

	ma, mb := mainIngredientSet(a), mainIngredientSet(b)
	if len(ma) > 0 && len(mb) > 0 {
		score += weightMainIngr * overlapFraction(ma, mb)
		weight += weightMainIngr
	}

	da, db := DishType(a), DishType(b)
	if da != "unknown" && db != "unknown" {
		if da == db {
			score += weightDishType
		}
		weight += weightDishType
	}

	same := 0.0
	if a.IsVegan == b.IsVegan {
		same++
	}
	if a.IsVegetarian == b.IsVegetarian {
		same++
	}
	if a.IsGlutenFree == b.IsGlutenFree {
		same++
	}
	if a.IsLactoseFree == b.IsLactoseFree {
		same++
	}
	score += weightDietFlags * same / 4.0
	weight += weightDietFlags

	if weight == 0 {
		return 0
	}
	return score / weight
}

// DishType classifies a recipe into an Italian course from keywords in its
// title and ingredient names.
func DishType(r FinalRecipeOption) string {
	text := strings.ToLower(r.Name)
	for _, ing := range r.Ingredients {
		text += " " + strings.ToLower(ing.Name)
	}
	for _, dt := range []string{"primo", "secondo", "contorno", "dessert"} {
		if containsAny(text, dishTypeKeywords[dt]) {
			return dt
		}
	}
	return "unknown"
}

// SelectDiverse keeps a mutually dissimilar subset. Recipes closest to the
// CHO target get priority; each further recipe is admitted only when its
// similarity to every kept one does not exceed the threshold.
func SelectDiverse(recipes []FinalRecipeOption, targetCHO, threshold float64) []FinalRecipeOption {
	ordered := append([]FinalRecipeOption(nil), recipes...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CHODistance(targetCHO) < ordered[j].CHODistance(targetCHO)
	})
	var kept []FinalRecipeOption
	for _, cand := range ordered {
		tooClose := false
		for _, k := range kept {
			if s := Similarity(cand, k); s > threshold {
				common.LogDebug("recipe rejected as too similar",
					zap.String("recipe", cand.Name),
					zap.String("kept", k.Name),
					zap.Float64("similarity", s))
				tooClose = true
				break
			}
		}
		if !tooClose {
			kept = append(kept, cand)
		}
	}
	return kept
}

// DedupeCandidates drops candidates whose main carbohydrate sources overlap
// too heavily with an earlier candidate. It never shrinks the set below
// keepAtLeast, so a run with few drafts is not starved before verification.
func DedupeCandidates(cands []Candidate, db *ingredient.Database, overlapCutoff float64, keepAtLeast int) []Candidate {
	var kept []Candidate
	var keptSets []map[string]struct{}
	var dropped []Candidate
	for _, c := range cands {
		set := candidateCHOSet(c, db)
		dup := false
		for _, prev := range keptSets {
			if overlapFraction(set, prev) >= overlapCutoff {
				dup = true
				break
			}
		}
		if dup {
			common.LogDebug("candidate dropped as near-duplicate", zap.String("recipe", c.Name))
			dropped = append(dropped, c)
			continue
		}
		kept = append(kept, c)
		keptSets = append(keptSets, set)
	}
	// Refill from the dropped drafts in order until the floor is met.
	for _, c := range dropped {
		if len(kept) >= keepAtLeast {
			break
		}
		kept = append(kept, c)
	}
	return kept
}

func titleTokens(title string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(title)) {
		tok = strings.Trim(tok, ",.()!?'\"")
		if tok == "" {
			continue
		}
		if _, stop := titleStopWords[tok]; stop {
			continue
		}
		out[tok] = struct{}{}
	}
	return out
}

// mainIngredientSet is the recipe's top ingredients by quantity, name ties
// broken alphabetically so the set is deterministic.
func mainIngredientSet(r FinalRecipeOption) map[string]struct{} {
	ings := append([]CalculatedIngredient(nil), r.Ingredients...)
	sort.SliceStable(ings, func(i, j int) bool {
		if ings[i].QuantityG != ings[j].QuantityG {
			return ings[i].QuantityG > ings[j].QuantityG
		}
		return ings[i].Name < ings[j].Name
	})
	out := make(map[string]struct{})
	for i := 0; i < len(ings) && i < mainIngredientsN; i++ {
		out[strings.ToLower(ings[i].Name)] = struct{}{}
	}
	return out
}

// candidateCHOSet is the candidate's top carbohydrate sources by estimated
// CHO mass, looked up against the canonical database.
func candidateCHOSet(c Candidate, db *ingredient.Database) map[string]struct{} {
	type scored struct {
		name string
		cho  float64
	}
	var all []scored
	for _, ing := range c.Ingredients {
		if info, ok := db.Lookup(ing.Name); ok && info.CHOPer100g != nil {
			if cho := ing.QuantityG * *info.CHOPer100g / 100.0; cho > 0 {
				all = append(all, scored{name: strings.ToLower(ing.Name), cho: cho})
			}
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].cho != all[j].cho {
			return all[i].cho > all[j].cho
		}
		return all[i].name < all[j].name
	})
	out := make(map[string]struct{})
	for i := 0; i < len(all) && i < mainIngredientsN; i++ {
		out[all[i].name] = struct{}{}
	}
	return out
}

// overlapFraction measures intersection relative to the smaller set, which
// flags a recipe built from a subset of another's ingredients or words.
func overlapFraction(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	smaller := len(a)
	if len(b) < smaller {
		smaller = len(b)
	}
	return float64(inter) / float64(smaller)
}
