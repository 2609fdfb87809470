package generate

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"recipe-verifier/internal/core/ingredient"
	"recipe-verifier/internal/core/pipeline"
	"recipe-verifier/internal/infrastructure/config"
	"recipe-verifier/internal/pkg/common"
)

const (
	dedupOverlapCutoff = 0.60
	dedupKeepAtLeast   = 3
	defaultTemperature = 0.8
)

// Completer is the LLM surface the service needs. Client satisfies it.
type Completer interface {
	ChatCompletion(ctx context.Context, system, user string, temperature float64) (string, error)
}

// Service produces candidate recipe drafts for the verification pipeline.
// Each slot is generated independently by a bounded worker pool, retried on
// malformed or inventing responses, then the batch is de-duplicated.
type Service struct {
	completer Completer
	prompts   *PromptBuilder
	db        *ingredient.Database
	cfg       config.GeneratorConfig
}

// NewService builds the generator service.
func NewService(completer Completer, prompts *PromptBuilder, db *ingredient.Database, cfg config.GeneratorConfig) *Service {
	if cfg.Candidates <= 0 {
		cfg.Candidates = 10
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 6
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	return &Service{completer: completer, prompts: prompts, db: db, cfg: cfg}
}

// Generate produces up to cfg.Candidates drafts. Failed slots are dropped
// rather than failing the batch; only a batch with zero usable drafts is an
// error.
func (s *Service) Generate(ctx context.Context, prefs pipeline.UserPreferences) ([]pipeline.Candidate, error) {
	common.LogInfo("candidate generation started",
		zap.Int("candidates", s.cfg.Candidates),
		zap.String("preferences", describePrefs(prefs)))
	n := s.cfg.Candidates
	workers := s.cfg.Workers
	if workers > n {
		workers = n
	}
	results := make([]*pipeline.Candidate, n)
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = s.generateSlot(ctx, prefs, i)
		}(i)
	}
	wg.Wait()

	var cands []pipeline.Candidate
	seen := make(map[string]struct{})
	for _, c := range results {
		if c == nil {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(c.Name))
		if _, dup := seen[key]; dup {
			common.LogDebug("dropping duplicate recipe name", zap.String("recipe", c.Name))
			continue
		}
		seen[key] = struct{}{}
		cands = append(cands, *c)
	}
	if len(cands) == 0 {
		return nil, common.ErrGeneratorUnavailable
	}

	cands = pipeline.DedupeCandidates(cands, s.db, dedupOverlapCutoff, dedupKeepAtLeast)
	common.LogInfo("candidate generation done",
		zap.Int("requested", n),
		zap.Int("produced", len(cands)))
	return cands, nil
}

// generateSlot retries one candidate slot with linear backoff. A response
// that invents ingredients outside the inventory counts as a failed attempt.
func (s *Service) generateSlot(ctx context.Context, prefs pipeline.UserPreferences, index int) *pipeline.Candidate {
	system := s.prompts.SystemPrompt()
	user := s.prompts.Build(prefs, index)
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(s.cfg.RetryDelay * time.Duration(attempt)):
			}
		}
		started := time.Now()
		raw, err := s.completer.ChatCompletion(ctx, system, user, defaultTemperature)
		common.LogGeneratorCall(index, time.Since(started), err)
		if err != nil {
			continue
		}
		cand, err := pipeline.ParseCandidate(raw)
		if err != nil {
			common.LogWarn("discarding malformed candidate",
				zap.Int("slot", index),
				zap.Int("attempt", attempt),
				zap.Error(err))
			continue
		}
		if invented := s.inventedIngredients(cand); len(invented) > 0 {
			common.LogWarn("candidate invented ingredients",
				zap.Int("slot", index),
				zap.Strings("ingredients", invented))
			continue
		}
		s.correctFlags(cand)
		return cand
	}
	return nil
}

// inventedIngredients lists ingredient names that are not in the inventory.
// The generator is instructed to use exact inventory names, so anything
// unknown here is a hallucination, not a fuzzy-match problem.
func (s *Service) inventedIngredients(c *pipeline.Candidate) []string {
	var out []string
	for _, ing := range c.Ingredients {
		if _, ok := s.db.Lookup(ing.Name); !ok {
			out = append(out, ing.Name)
		}
	}
	return out
}

// correctFlags overrides the model's vegan and vegetarian claims with what
// the inventory records actually say. The pipeline recomputes all flags
// later; this early pass just keeps obviously wrong drafts from crowding out
// compliant ones during de-duplication.
func (s *Service) correctFlags(c *pipeline.Candidate) {
	vegan, vegetarian := true, true
	for _, ing := range c.Ingredients {
		info, ok := s.db.Lookup(ing.Name)
		if !ok {
			// An ingredient the inventory cannot vouch for voids the claim.
			vegan, vegetarian = false, false
			break
		}
		vegan = vegan && info.IsVegan
		vegetarian = vegetarian && info.IsVegetarian
	}
	if c.IsVegan != vegan || c.IsVegetarian != vegetarian {
		common.LogDebug("correcting generator dietary claims",
			zap.String("recipe", c.Name),
			zap.Bool("vegan", vegan),
			zap.Bool("vegetarian", vegetarian))
	}
	c.IsVegan = vegan
	c.IsVegetarian = vegetarian
}

// describePrefs renders preferences for log lines.
func describePrefs(prefs pipeline.UserPreferences) string {
	return fmt.Sprintf("target=%.1fg vegan=%t vegetarian=%t gluten_free=%t lactose_free=%t",
		prefs.TargetCHO, prefs.Vegan, prefs.Vegetarian, prefs.GlutenFree, prefs.LactoseFree)
}
