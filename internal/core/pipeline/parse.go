package pipeline

import (
	"fmt"
	"strings"

	"recipe-verifier/internal/pkg/common"
)

// Candidate is a raw recipe draft as emitted by the generator, before any
// ingredient has been resolved against the canonical database. Dietary flags
// are the generator's own claims and are treated as advisory only.
type Candidate struct {
	Name          string             `json:"name"`
	Description   string             `json:"description,omitempty"`
	Ingredients   []RecipeIngredient `json:"ingredients"`
	IsVegan       bool               `json:"is_vegan"`
	IsVegetarian  bool               `json:"is_vegetarian"`
	IsGlutenFree  bool               `json:"is_gluten_free"`
	IsLactoseFree bool               `json:"is_lactose_free"`
	Instructions  []string           `json:"instructions,omitempty"`
	Error         string             `json:"error,omitempty"`
}

// ParseCandidate decodes a single candidate from raw model output. The text
// may be wrapped in markdown fences or surrounded by prose; only the first
// JSON object is considered. Bare object keys, a common model slip, are
// quoted and retried before the draft is rejected.
func ParseCandidate(raw string) (*Candidate, error) {
	payload := common.ExtractJSONObject(raw)
	if payload == "" {
		return nil, common.NewValidationError("no JSON object found in response")
	}
	var c Candidate
	if err := common.ParseJSON(payload, &c); err != nil {
		if retryErr := common.ParseJSON(common.QuoteJSONKeys(payload), &c); retryErr != nil {
			return nil, common.NewValidationError(fmt.Sprintf("malformed candidate JSON: %v", err))
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the structural minimum a candidate must satisfy before it
// enters the pipeline. A candidate that declares its own error field is
// rejected outright.
func (c *Candidate) Validate() error {
	if c.Error != "" {
		return common.NewValidationError(fmt.Sprintf("candidate reported generation failure: %s", c.Error))
	}
	if strings.TrimSpace(c.Name) == "" {
		return common.NewValidationError("recipe name is required")
	}
	if len(c.Ingredients) == 0 {
		return common.NewValidationError("recipe has no ingredients")
	}
	for i, ing := range c.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			return common.NewValidationError(fmt.Sprintf("ingredient %d has an empty name", i))
		}
		if ing.QuantityG <= 0 {
			return common.NewValidationError(fmt.Sprintf("ingredient %q has non-positive quantity", ing.Name))
		}
	}
	return nil
}

// recipe converts the candidate into the pipeline value type. Contributions
// and totals stay nil until the matcher resolves every ingredient.
func (c *Candidate) recipe() FinalRecipeOption {
	out := FinalRecipeOption{
		Name:          c.Name,
		Description:   c.Description,
		Ingredients:   make([]CalculatedIngredient, len(c.Ingredients)),
		IsVegan:       c.IsVegan,
		IsVegetarian:  c.IsVegetarian,
		IsGlutenFree:  c.IsGlutenFree,
		IsLactoseFree: c.IsLactoseFree,
	}
	if c.Instructions != nil {
		out.Instructions = append([]string(nil), c.Instructions...)
	}
	for i, ing := range c.Ingredients {
		out.Ingredients[i] = CalculatedIngredient{
			Name:      ing.Name,
			QuantityG: round1(ing.QuantityG),
		}
	}
	return out
}
