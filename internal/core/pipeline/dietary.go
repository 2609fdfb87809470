package pipeline

import (
	"strings"

	"go.uber.org/zap"

	"recipe-verifier/internal/core/ingredient"
	"recipe-verifier/internal/pkg/common"
)

// Keyword fallbacks for ingredients whose canonical record is missing or
// wrong. The heuristic only ever revokes a flag, it never grants one, so a
// recipe can become stricter but not laxer than the database says.
var (
	nonVeganKeywords = []string{
		"carne", "pollo", "manzo", "maiale", "vitello", "agnello", "tacchino",
		"pesce", "tonno", "salmone", "merluzzo", "acciughe", "gamberi", "vongole", "cozze",
		"prosciutto", "speck", "salame", "pancetta", "guanciale", "lardo", "salsiccia",
		"uovo", "uova", "latte", "burro", "formaggio", "parmigiano", "pecorino",
		"mozzarella", "ricotta", "mascarpone", "gorgonzola", "panna", "yogurt", "miele",
	}
	nonVegetarianKeywords = []string{
		"carne", "pollo", "manzo", "maiale", "vitello", "agnello", "tacchino",
		"pesce", "tonno", "salmone", "merluzzo", "acciughe", "gamberi", "vongole", "cozze",
		"prosciutto", "speck", "salame", "pancetta", "guanciale", "lardo", "salsiccia",
	}
	glutenKeywords = []string{
		"pasta", "spaghetti", "penne", "fusilli", "tagliatelle", "lasagne", "gnocchi",
		"pane", "pangrattato", "farina", "semola", "grano", "frumento",
		"orzo", "farro", "couscous", "seitan", "birra",
	}
	lactoseKeywords = []string{
		"latte", "burro", "panna", "formaggio", "parmigiano", "pecorino",
		"mozzarella", "ricotta", "mascarpone", "gorgonzola", "yogurt", "besciamella",
	}
)

// ComputeDietaryFlags derives the recipe's four dietary flags from the
// canonical records of its ingredients, replacing whatever the generator
// claimed. Each flag is the AND over all ingredients. An ingredient without
// a canonical record forces every flag to false: an unverifiable recipe must
// never present itself as diet-safe.
func ComputeDietaryFlags(r FinalRecipeOption, db *ingredient.Database) FinalRecipeOption {
	out := r.Clone()
	vegan, vegetarian, glutenFree, lactoseFree := true, true, true, true
	for _, ing := range out.Ingredients {
		info, ok := db.Lookup(ing.Name)
		if !ok {
			common.LogWarn("ingredient missing from database, clearing dietary flags",
				zap.String("recipe", out.Name),
				zap.String("ingredient", ing.Name))
			vegan, vegetarian, glutenFree, lactoseFree = false, false, false, false
			break
		}
		vegan = vegan && info.IsVegan
		vegetarian = vegetarian && info.IsVegetarian
		glutenFree = glutenFree && info.IsGlutenFree
		lactoseFree = lactoseFree && info.IsLactoseFree
	}
	out.IsVegan = vegan
	out.IsVegetarian = vegetarian
	out.IsGlutenFree = glutenFree
	out.IsLactoseFree = lactoseFree
	return out
}

// ApplyKeywordFlagHeuristic cross-checks the dietary flags against keyword
// lists over the ingredient names, in case the canonical record itself is
// mislabelled. It can only turn a flag from true to false.
func ApplyKeywordFlagHeuristic(r FinalRecipeOption) FinalRecipeOption {
	out := r.Clone()
	for _, ing := range out.Ingredients {
		name := strings.ToLower(ing.Name)
		if out.IsVegan && containsAny(name, nonVeganKeywords) {
			out.IsVegan = false
		}
		if out.IsVegetarian && containsAny(name, nonVegetarianKeywords) {
			out.IsVegetarian = false
		}
		if out.IsGlutenFree && containsAny(name, glutenKeywords) {
			out.IsGlutenFree = false
		}
		if out.IsLactoseFree && containsAny(name, lactoseKeywords) {
			out.IsLactoseFree = false
		}
	}
	return out
}

// SatisfiesPreferences reports whether every dietary restriction the user
// requested is honoured by the recipe's verified flags.
func SatisfiesPreferences(r FinalRecipeOption, prefs UserPreferences) bool {
	if prefs.Vegan && !r.IsVegan {
		return false
	}
	if prefs.Vegetarian && !r.IsVegetarian {
		return false
	}
	if prefs.GlutenFree && !r.IsGlutenFree {
		return false
	}
	if prefs.LactoseFree && !r.IsLactoseFree {
		return false
	}
	return true
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
