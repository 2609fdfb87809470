package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func passingRecipe(t *testing.T) FinalRecipeOption {
	t.Helper()
	return Recalculate(FinalRecipeOption{
		Name: "Risotto alle zucchine",
		Ingredients: []CalculatedIngredient{
			{Name: "riso", QuantityG: 75},
			{Name: "zucchine", QuantityG: 100},
			{Name: "olio di oliva", QuantityG: 10},
		},
		IsVegan: true, IsVegetarian: true, IsGlutenFree: true, IsLactoseFree: true,
		Instructions: []string{"Tostare il riso.", "Cuocere e mantecare."},
	}, testDB())
}

func TestQualityGatePasses(t *testing.T) {
	g := NewQualityGate(0.15)
	prefs := UserPreferences{TargetCHO: 60}

	ok, reason := g.Check(passingRecipe(t), prefs)
	assert.True(t, ok, reason)
}

func TestQualityGateTooFewIngredients(t *testing.T) {
	g := NewQualityGate(0.15)
	r := passingRecipe(t)
	r.Ingredients = r.Ingredients[:2]

	ok, reason := g.Check(r, UserPreferences{TargetCHO: 60})
	assert.False(t, ok)
	assert.Contains(t, reason, "ingredients")
}

func TestQualityGateTooFewInstructions(t *testing.T) {
	g := NewQualityGate(0.15)
	r := passingRecipe(t)
	r.Instructions = r.Instructions[:1]

	ok, reason := g.Check(r, UserPreferences{TargetCHO: 60})
	assert.False(t, ok)
	assert.Contains(t, reason, "instructions")
}

func TestQualityGateImplausibleQuantity(t *testing.T) {
	g := NewQualityGate(0.15)
	r := passingRecipe(t)
	r.Ingredients[1].QuantityG = 400

	ok, reason := g.Check(r, UserPreferences{TargetCHO: 60})
	assert.False(t, ok)
	assert.Contains(t, reason, "quantity")
}

func TestQualityGateLiquidsExemptFromCeiling(t *testing.T) {
	g := NewQualityGate(0.15)
	r := Recalculate(FinalRecipeOption{
		Name: "Minestra di riso",
		Ingredients: []CalculatedIngredient{
			{Name: "riso", QuantityG: 75},
			{Name: "zucchine", QuantityG: 100},
			{Name: "brodo vegetale", QuantityG: 500},
		},
		Instructions: []string{"Bollire il brodo.", "Cuocere il riso."},
	}, testDB())

	ok, reason := g.Check(r, UserPreferences{TargetCHO: 60})
	assert.True(t, ok, reason)
}

func TestQualityGateCHOOutsideTolerance(t *testing.T) {
	g := NewQualityGate(0.15)
	r := passingRecipe(t) // 60.7g CHO

	ok, reason := g.Check(r, UserPreferences{TargetCHO: 100})
	assert.False(t, ok)
	assert.Contains(t, reason, "deviates")
}

func TestQualityGateDietaryRecheck(t *testing.T) {
	g := NewQualityGate(0.15)
	r := passingRecipe(t)
	r.IsVegan = false

	ok, reason := g.Check(r, UserPreferences{TargetCHO: 60, Vegan: true})
	assert.False(t, ok)
	assert.Contains(t, reason, "dietary")
}
