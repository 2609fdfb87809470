package generate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"recipe-verifier/internal/core/ingredient"
	"recipe-verifier/internal/core/pipeline"
	"recipe-verifier/internal/pkg/common"
)

func promptDB() *ingredient.Database {
	f := common.Float64Ptr
	return ingredient.NewDatabase([]ingredient.Info{
		{Name: "riso", CHOPer100g: f(80), IsVegan: true, IsVegetarian: true, IsGlutenFree: true, IsLactoseFree: true},
		{Name: "pasta di semola", CHOPer100g: f(75), IsVegan: true, IsVegetarian: true, IsLactoseFree: true},
		{Name: "lenticchie", CHOPer100g: f(45), IsVegan: true, IsVegetarian: true, IsGlutenFree: true, IsLactoseFree: true},
		{Name: "patate", CHOPer100g: f(17), IsVegan: true, IsVegetarian: true, IsGlutenFree: true, IsLactoseFree: true},
		{Name: "ceci", CHOPer100g: f(47), IsVegan: true, IsVegetarian: true, IsGlutenFree: true, IsLactoseFree: true},
		{Name: "pollo", CHOPer100g: f(0), IsGlutenFree: true, IsLactoseFree: true},
	})
}

func TestPromptFiltersIncompatibleIngredients(t *testing.T) {
	b := NewPromptBuilder(promptDB(), 42)
	prompt := b.Build(pipeline.UserPreferences{TargetCHO: 60, Vegan: true, GlutenFree: true}, 0)

	assert.Contains(t, prompt, "riso")
	assert.Contains(t, prompt, "lenticchie")
	assert.NotContains(t, prompt, "pollo")
	assert.NotContains(t, prompt, "pasta di semola")
}

func TestPromptContainsTargetAndDiet(t *testing.T) {
	b := NewPromptBuilder(promptDB(), 42)
	prompt := b.Build(pipeline.UserPreferences{TargetCHO: 75.5, Vegetarian: true}, 2)

	assert.Contains(t, prompt, "75.5")
	assert.Contains(t, prompt, "vegetariana")
	assert.Contains(t, prompt, "Variante numero 3")
}

func TestPromptCHOExampleBins(t *testing.T) {
	b := NewPromptBuilder(promptDB(), 42)
	prompt := b.Build(pipeline.UserPreferences{TargetCHO: 60}, 0)

	// riso and pasta sit above 50g/100g, legumes in the 20-50 band, patate
	// below both cutoffs.
	high := extractLine(prompt, "alto contenuto")
	assert.Contains(t, high, "riso")
	assert.Contains(t, high, "pasta di semola")
	medium := extractLine(prompt, "medio contenuto")
	assert.Contains(t, medium, "lenticchie")
	assert.Contains(t, medium, "ceci")
	assert.NotContains(t, medium, "patate")
}

func TestPromptDeterministic(t *testing.T) {
	b := NewPromptBuilder(promptDB(), 42)
	prefs := pipeline.UserPreferences{TargetCHO: 60}
	assert.Equal(t, b.Build(prefs, 0), b.Build(prefs, 0))
}

func extractLine(s, marker string) string {
	for _, line := range strings.Split(s, "\n") {
		if strings.Contains(line, marker) {
			return line
		}
	}
	return ""
}
