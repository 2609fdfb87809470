package generate

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"recipe-verifier/internal/core/ingredient"
	"recipe-verifier/internal/core/pipeline"
)

const (
	maxInventoryLines = 100
	maxExamplesPerBin = 10
	highCHOPer100g    = 50.0
	mediumCHOPer100g  = 20.0
)

const systemPrompt = `Sei uno chef italiano esperto di cucina per diabetici.
Genera una singola ricetta italiana come oggetto JSON, senza testo extra.
Usa esclusivamente ingredienti presi dall'inventario fornito, con i nomi esatti.
Schema: {"name": string, "description": string,
"ingredients": [{"name": string, "quantity_g": number}],
"is_vegan": bool, "is_vegetarian": bool, "is_gluten_free": bool,
"is_lactose_free": bool, "instructions": [string]}`

// PromptBuilder assembles generation prompts from the canonical ingredient
// inventory, filtered down to entries compatible with the user's diet.
type PromptBuilder struct {
	db   *ingredient.Database
	seed int64
}

// NewPromptBuilder builds a PromptBuilder. The seed keeps the sampled CHO
// example lists stable between retries of the same run.
func NewPromptBuilder(db *ingredient.Database, seed int64) *PromptBuilder {
	return &PromptBuilder{db: db, seed: seed}
}

// Build produces the user prompt for one candidate slot. The index is mixed
// into the instructions so parallel workers are nudged toward distinct
// dishes.
func (b *PromptBuilder) Build(prefs pipeline.UserPreferences, index int) string {
	inventory := b.compatibleNames(prefs)
	high, medium := b.choExamples(inventory)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Obiettivo carboidrati: %.1f g totali per la ricetta.\n", prefs.TargetCHO)
	sb.WriteString(dietLine(prefs))
	fmt.Fprintf(&sb, "Variante numero %d: proponi un piatto diverso dalle varianti precedenti.\n\n", index+1)

	if len(high) > 0 {
		fmt.Fprintf(&sb, "Fonti di carboidrati ad alto contenuto (>%.0fg/100g): %s\n", highCHOPer100g, strings.Join(high, ", "))
	}
	if len(medium) > 0 {
		fmt.Fprintf(&sb, "Fonti di carboidrati a medio contenuto (>%.0fg/100g): %s\n", mediumCHOPer100g, strings.Join(medium, ", "))
	}

	sb.WriteString("\nInventario disponibile (usa solo questi nomi):\n")
	for i, name := range inventory {
		if i >= maxInventoryLines {
			break
		}
		sb.WriteString("- " + name + "\n")
	}
	return sb.String()
}

// SystemPrompt returns the fixed system instructions.
func (b *PromptBuilder) SystemPrompt() string {
	return systemPrompt
}

// compatibleNames lists inventory entries usable under the preferences,
// sorted for deterministic prompts.
func (b *PromptBuilder) compatibleNames(prefs pipeline.UserPreferences) []string {
	var out []string
	for _, name := range b.db.Names() {
		info, _ := b.db.Lookup(name)
		if !info.Compatible(prefs.Vegan, prefs.Vegetarian, prefs.GlutenFree, prefs.LactoseFree) {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// choExamples samples up to ten high-CHO and ten medium-CHO entries from the
// inventory so the model has concrete carbohydrate anchors without seeing
// the whole dataset twice.
func (b *PromptBuilder) choExamples(inventory []string) (high, medium []string) {
	for _, name := range inventory {
		info, ok := b.db.Lookup(name)
		if !ok || info.CHOPer100g == nil {
			continue
		}
		switch {
		case *info.CHOPer100g > highCHOPer100g:
			high = append(high, name)
		case *info.CHOPer100g > mediumCHOPer100g:
			medium = append(medium, name)
		}
	}
	rng := rand.New(rand.NewSource(b.seed))
	high = sampleUpTo(rng, high, maxExamplesPerBin)
	medium = sampleUpTo(rng, medium, maxExamplesPerBin)
	return high, medium
}

func sampleUpTo(rng *rand.Rand, names []string, n int) []string {
	if len(names) <= n {
		return names
	}
	shuffled := append([]string(nil), names...)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	picked := shuffled[:n]
	sort.Strings(picked)
	return picked
}

func dietLine(prefs pipeline.UserPreferences) string {
	var diets []string
	if prefs.Vegan {
		diets = append(diets, "vegana")
	}
	if prefs.Vegetarian {
		diets = append(diets, "vegetariana")
	}
	if prefs.GlutenFree {
		diets = append(diets, "senza glutine")
	}
	if prefs.LactoseFree {
		diets = append(diets, "senza lattosio")
	}
	if len(diets) == 0 {
		return "Nessuna restrizione dietetica.\n"
	}
	return "La ricetta deve essere: " + strings.Join(diets, ", ") + ".\n"
}
