package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimizeOnTargetIsNoOp(t *testing.T) {
	db := testDB()
	o := NewOptimizer(db, 42)
	r := Recalculate(FinalRecipeOption{
		Name:        "Pane e zucchine",
		Ingredients: []CalculatedIngredient{{Name: "pane", QuantityG: 116}, {Name: "zucchine", QuantityG: 100}},
	}, db)
	require.NotNil(t, r.TotalCHO) // 59.4

	out, applied := o.Optimize(r, 60)

	assert.True(t, applied)
	assert.Equal(t, *r.TotalCHO, *out.TotalCHO)
	assert.Equal(t, r.Name, out.Name)
}

func TestOptimizeFineTunesSingleContributor(t *testing.T) {
	db := testDB()
	o := NewOptimizer(db, 42)
	// 80g of bread at 50g CHO per 100g carries 40g CHO; a 50g target is 10g
	// short, so the bread grows by 10/50*100 = 20g.
	r := Recalculate(FinalRecipeOption{
		Name:        "Bruschetta",
		Ingredients: []CalculatedIngredient{{Name: "pane", QuantityG: 80}, {Name: "olio di oliva", QuantityG: 10}},
	}, db)

	out, applied := o.Optimize(r, 50)

	require.True(t, applied)
	assert.Equal(t, 100.0, out.Ingredients[0].QuantityG)
	require.NotNil(t, out.TotalCHO)
	assert.Equal(t, 50.0, *out.TotalCHO)
	// Fine-tuning does not rename.
	assert.Equal(t, "Bruschetta", out.Name)
}

func TestOptimizeScalesProportionally(t *testing.T) {
	db := testDB()
	o := NewOptimizer(db, 42)
	// 40g CHO against a 100g target wants factor 2.5, inside the clamp.
	r := Recalculate(FinalRecipeOption{
		Name:        "Pane scarso",
		Ingredients: []CalculatedIngredient{{Name: "pane", QuantityG: 80}, {Name: "olio di oliva", QuantityG: 10}},
	}, db)

	out, applied := o.Optimize(r, 100)

	require.True(t, applied)
	assert.Equal(t, 200.0, out.Ingredients[0].QuantityG)
	// Non-contributors are untouched.
	assert.Equal(t, 10.0, out.Ingredients[1].QuantityG)
	assert.True(t, strings.HasSuffix(out.Name, "(Ottimizzata)"))
	require.NotNil(t, out.TotalCHO)
	assert.Equal(t, 100.0, *out.TotalCHO)
}

func TestOptimizeScaleFactorClamped(t *testing.T) {
	db := testDB()
	o := NewOptimizer(db, 42)
	// Factor 200/8 = 25 is clamped to 3.0.
	r := Recalculate(FinalRecipeOption{
		Name:        "Quasi niente",
		Ingredients: []CalculatedIngredient{{Name: "riso", QuantityG: 10}},
	}, db)

	out, applied := o.Optimize(r, 200)

	require.True(t, applied)
	assert.Equal(t, 30.0, out.Ingredients[0].QuantityG)
}

func TestOptimizeScaleRespectsQuantityCeiling(t *testing.T) {
	db := testDB()
	o := NewOptimizer(db, 42)
	r := Recalculate(FinalRecipeOption{
		Name:        "Risotto abbondante",
		Ingredients: []CalculatedIngredient{{Name: "riso", QuantityG: 200}},
	}, db)

	out, applied := o.Optimize(r, 400)

	require.True(t, applied)
	assert.Equal(t, 250.0, out.Ingredients[0].QuantityG)
}

func TestOptimizeNoContributors(t *testing.T) {
	db := testDB()
	o := NewOptimizer(db, 42)
	r := Recalculate(FinalRecipeOption{
		Name:        "Pollo al vapore",
		Ingredients: []CalculatedIngredient{{Name: "pollo", QuantityG: 200}, {Name: "olio di oliva", QuantityG: 10}},
	}, db)

	_, applied := o.Optimize(r, 60)
	assert.False(t, applied)
}

func TestSuggestAdjustmentAddsCHOSource(t *testing.T) {
	db := testDB()
	o := NewOptimizer(db, 42)
	r := Recalculate(FinalRecipeOption{
		Name:        "Pollo al vapore",
		Ingredients: []CalculatedIngredient{{Name: "pollo", QuantityG: 200}, {Name: "olio di oliva", QuantityG: 10}},
	}, db)

	adj := o.SuggestAdjustment(r, 60)

	require.NotNil(t, adj)
	assert.Equal(t, "add", adj.Action)
	assert.GreaterOrEqual(t, adj.QuantityG, 10.0)
	assert.LessOrEqual(t, adj.QuantityG, 100.0)

	// Same seed, same choice.
	again := o.SuggestAdjustment(r, 60)
	require.NotNil(t, again)
	assert.Equal(t, adj.Name, again.Name)
}

func TestSuggestAdjustmentReducesExcess(t *testing.T) {
	db := testDB()
	o := NewOptimizer(db, 42)
	r := Recalculate(FinalRecipeOption{
		Name:        "Riso doppio",
		Ingredients: []CalculatedIngredient{{Name: "riso", QuantityG: 200}},
	}, db)
	// 160g CHO against a 30g target: the reduction is capped at 60% of the
	// ingredient's quantity.
	adj := o.SuggestAdjustment(r, 30)

	require.NotNil(t, adj)
	assert.Equal(t, "modify", adj.Action)
	assert.Equal(t, "riso", adj.Name)
	assert.Equal(t, 80.0, adj.QuantityG)
}

func TestApplyAdjustment(t *testing.T) {
	db := testDB()
	o := NewOptimizer(db, 42)
	r := Recalculate(FinalRecipeOption{
		Name:        "Pollo al vapore",
		Ingredients: []CalculatedIngredient{{Name: "pollo", QuantityG: 200}},
	}, db)

	out, ok := o.ApplyAdjustment(r, Adjustment{Action: "add", Name: "riso", QuantityG: 75})
	require.True(t, ok)
	require.Len(t, out.Ingredients, 2)
	require.NotNil(t, out.TotalCHO)
	assert.Equal(t, 60.0, *out.TotalCHO)

	_, ok = o.ApplyAdjustment(r, Adjustment{Action: "add", Name: "polvere di unicorno", QuantityG: 50})
	assert.False(t, ok)

	_, ok = o.ApplyAdjustment(r, Adjustment{Action: "modify", Name: "pollo", QuantityG: 100})
	assert.False(t, ok) // no usable CHO figure
}
