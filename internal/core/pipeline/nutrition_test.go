package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecalculateContributions(t *testing.T) {
	db := testDB()
	r := FinalRecipeOption{
		Name: "Riso e zucchine",
		Ingredients: []CalculatedIngredient{
			{Name: "riso", QuantityG: 100},
			{Name: "zucchine", QuantityG: 50},
		},
	}

	out := Recalculate(r, db)

	require.NotNil(t, out.Ingredients[0].CHOContribution)
	assert.Equal(t, 80.0, *out.Ingredients[0].CHOContribution)
	require.NotNil(t, out.Ingredients[1].CHOContribution)
	assert.Equal(t, 0.7, *out.Ingredients[1].CHOContribution)

	require.NotNil(t, out.TotalCHO)
	assert.Equal(t, 80.7, *out.TotalCHO)
	require.NotNil(t, out.TotalCalories)
	assert.Equal(t, 363.5, *out.TotalCalories)

	// Input untouched.
	assert.Nil(t, r.Ingredients[0].CHOContribution)
}

func TestRecalculateUnknownIngredient(t *testing.T) {
	db := testDB()
	r := FinalRecipeOption{
		Ingredients: []CalculatedIngredient{
			{Name: "riso", QuantityG: 50},
			{Name: "polvere di unicorno", QuantityG: 30},
		},
	}

	out := Recalculate(r, db)

	assert.Nil(t, out.Ingredients[1].CHOContribution)
	require.NotNil(t, out.TotalCHO)
	assert.Equal(t, 40.0, *out.TotalCHO)
}

func TestRecalculateMissingNutrientStaysNil(t *testing.T) {
	db := testDB()
	// brodo vegetale has no protein figure in the fixture.
	r := FinalRecipeOption{
		Ingredients: []CalculatedIngredient{{Name: "brodo vegetale", QuantityG: 200}},
	}

	out := Recalculate(r, db)

	assert.Nil(t, out.Ingredients[0].ProteinContributionG)
	assert.Nil(t, out.TotalProteinG)
	require.NotNil(t, out.TotalCHO)
	assert.Equal(t, 1.0, *out.TotalCHO)
}

func TestRecalculateRoundsQuantities(t *testing.T) {
	db := testDB()
	r := FinalRecipeOption{
		Ingredients: []CalculatedIngredient{{Name: "riso", QuantityG: 33.333}},
	}

	out := Recalculate(r, db)

	assert.Equal(t, 33.3, out.Ingredients[0].QuantityG)
	require.NotNil(t, out.TotalCHO)
	assert.Equal(t, 26.64, *out.TotalCHO)
}
