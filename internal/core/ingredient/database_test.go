package ingredient

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe-verifier/internal/pkg/common"
)

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "riso arborio", NormalizeName("  Riso   Arborio "))
	assert.Equal(t, "pasta", NormalizeName("PASTA"))
	assert.Equal(t, "", NormalizeName("   "))
}

func TestDatabaseLookup(t *testing.T) {
	db := NewDatabase([]Info{
		{Name: "Riso Arborio", CHOPer100g: common.Float64Ptr(80), IsVegan: true, IsVegetarian: true, IsGlutenFree: true, IsLactoseFree: true},
		{Name: "latte", CHOPer100g: common.Float64Ptr(5), IsVegetarian: true, IsGlutenFree: true},
	})

	require.Equal(t, 2, db.Len())

	info, ok := db.Lookup("riso   ARBORIO")
	require.True(t, ok)
	assert.Equal(t, "riso arborio", info.Name)
	require.NotNil(t, info.CHOPer100g)
	assert.Equal(t, 80.0, *info.CHOPer100g)

	_, ok = db.Lookup("quinoa")
	assert.False(t, ok)
}

func TestDatabaseNamesSorted(t *testing.T) {
	db := NewDatabase([]Info{{Name: "zucchine"}, {Name: "aglio"}, {Name: "riso"}})
	assert.Equal(t, []string{"aglio", "riso", "zucchine"}, db.Names())
}

func TestLoadDatabase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ingredients.json")
	payload := `[{"name": "riso", "cho_per_100g": 80.0, "is_vegan": true, "is_vegetarian": true, "is_gluten_free": true, "is_lactose_free": true}]`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	db, err := LoadDatabase(path)
	require.NoError(t, err)
	assert.Equal(t, 1, db.Len())

	_, err = LoadDatabase(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte("[]"), 0o644))
	_, err = LoadDatabase(empty)
	assert.Error(t, err)
}

func TestInfoCompatible(t *testing.T) {
	veg := Info{IsVegetarian: true, IsGlutenFree: true, IsLactoseFree: true}
	assert.True(t, veg.Compatible(false, true, true, false))
	assert.False(t, veg.Compatible(true, false, false, false))
	assert.True(t, Info{}.Compatible(false, false, false, false))
}
