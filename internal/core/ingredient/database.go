package ingredient

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"recipe-verifier/internal/pkg/common"

	"go.uber.org/zap"
)

// Info is one canonical ingredient record, nutrients per 100 g. Nil nutrient
// values mean the source dataset has no figure for that nutrient.
type Info struct {
	Name            string   `json:"name"`
	CHOPer100g      *float64 `json:"cho_per_100g"`
	CaloriesPer100g *float64 `json:"calories_per_100g"`
	ProteinPer100g  *float64 `json:"protein_per_100g"`
	FatPer100g      *float64 `json:"fat_per_100g"`
	FiberPer100g    *float64 `json:"fiber_per_100g"`
	IsVegan         bool     `json:"is_vegan"`
	IsVegetarian    bool     `json:"is_vegetarian"`
	IsGlutenFree    bool     `json:"is_gluten_free"`
	IsLactoseFree   bool     `json:"is_lactose_free"`
}

// Database is the read-only canonical ingredient store, keyed by normalized
// name. It is loaded once at startup and never mutated afterwards.
type Database struct {
	items map[string]Info
	names []string
}

// NormalizeName produces the canonical lookup key for an ingredient name:
// lower-cased, trimmed, inner whitespace collapsed.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(name))), " ")
}

// NewDatabase builds a database from a set of records. Record names are
// normalized; later duplicates win.
func NewDatabase(records []Info) *Database {
	items := make(map[string]Info, len(records))
	for _, rec := range records {
		key := NormalizeName(rec.Name)
		if key == "" {
			continue
		}
		rec.Name = key
		items[key] = rec
	}

	names := make([]string, 0, len(items))
	for name := range items {
		names = append(names, name)
	}
	sort.Strings(names)

	return &Database{items: items, names: names}
}

// LoadDatabase reads a JSON dataset of ingredient records from path.
func LoadDatabase(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ingredient dataset: %w", err)
	}

	var records []Info
	if err := common.ParseJSONBytes(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse ingredient dataset: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("ingredient dataset is empty: %s", path)
	}

	db := NewDatabase(records)
	common.LogInfo("ingredient database loaded",
		zap.String("path", path),
		zap.Int("ingredients", db.Len()),
	)
	return db, nil
}

// Lookup returns the record for an exact normalized name.
func (d *Database) Lookup(name string) (Info, bool) {
	info, ok := d.items[NormalizeName(name)]
	return info, ok
}

// Len returns the number of ingredients in the database.
func (d *Database) Len() int {
	return len(d.items)
}

// Names returns all canonical names in sorted order, for deterministic
// iteration.
func (d *Database) Names() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// Compatible reports whether an ingredient satisfies the given dietary
// requirements (a true requirement demands the matching flag).
func (i Info) Compatible(vegan, vegetarian, glutenFree, lactoseFree bool) bool {
	if vegan && !i.IsVegan {
		return false
	}
	if vegetarian && !i.IsVegetarian {
		return false
	}
	if glutenFree && !i.IsGlutenFree {
		return false
	}
	if lactoseFree && !i.IsLactoseFree {
		return false
	}
	return true
}
