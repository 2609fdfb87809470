package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"recipe-verifier/internal/core/ingredient"
	"recipe-verifier/internal/pkg/common"
)

// Options tune the verification pipeline. Zero values are replaced by the
// defaults below.
type Options struct {
	MatchThreshold     float64
	InitialTolerance   float64
	FinalTolerance     float64
	DiversityThreshold float64
	MaxResults         int
	Workers            int
	Seed               int64
}

// DefaultOptions returns the standard tuning.
func DefaultOptions() Options {
	return Options{
		MatchThreshold:     0.60,
		InitialTolerance:   0.30,
		FinalTolerance:     0.15,
		DiversityThreshold: 0.65,
		MaxResults:         3,
		Workers:            4,
		Seed:               42,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.MatchThreshold <= 0 {
		o.MatchThreshold = def.MatchThreshold
	}
	if o.InitialTolerance <= 0 {
		o.InitialTolerance = def.InitialTolerance
	}
	if o.FinalTolerance <= 0 {
		o.FinalTolerance = def.FinalTolerance
	}
	if o.DiversityThreshold <= 0 {
		o.DiversityThreshold = def.DiversityThreshold
	}
	if o.MaxResults <= 0 {
		o.MaxResults = def.MaxResults
	}
	if o.Workers <= 0 {
		o.Workers = def.Workers
	}
	if o.Seed == 0 {
		o.Seed = def.Seed
	}
	return o
}

// Result is the outcome of one verification run. Diagnostic explains an
// empty or short recipe list; it is informational, not an error.
type Result struct {
	RunID      string              `json:"run_id"`
	Recipes    []FinalRecipeOption `json:"recipes"`
	Diagnostic string              `json:"diagnostic,omitempty"`
}

// Pipeline verifies, optimizes and ranks candidate recipes against user
// preferences in five phases. It is safe for concurrent use.
type Pipeline struct {
	db        *ingredient.Database
	index     NameIndex
	opts      Options
	matcher   *Matcher
	optimizer *Optimizer
	gate      QualityGate
}

// New builds a Pipeline. Both collaborators are mandatory: without the
// database or the name index no phase can produce a trustworthy result.
func New(db *ingredient.Database, index NameIndex, opts Options) (*Pipeline, error) {
	if db == nil || db.Len() == 0 {
		return nil, common.ErrMissingDatabase
	}
	if index == nil {
		return nil, common.ErrMissingMatchIndex
	}
	opts = opts.withDefaults()
	return &Pipeline{
		db:        db,
		index:     index,
		opts:      opts,
		matcher:   NewMatcher(index, db, opts.MatchThreshold),
		optimizer: NewOptimizer(db, opts.Seed),
		gate:      NewQualityGate(opts.FinalTolerance),
	}, nil
}

// Run executes the full pipeline over the candidates. An empty candidate
// list or a run where every candidate is filtered out yields an empty result
// with a diagnostic rather than an error.
func (p *Pipeline) Run(ctx context.Context, candidates []Candidate, prefs UserPreferences) (*Result, error) {
	if !prefs.Valid() {
		return nil, common.ErrMissingPreferences
	}
	runID := common.GenerateUUID()
	started := time.Now()
	common.LogInfo("verification run started",
		zap.String("run_id", runID),
		zap.Int("candidates", len(candidates)),
		zap.Float64("target_cho", prefs.TargetCHO))

	if len(candidates) == 0 {
		return &Result{RunID: runID, Recipes: []FinalRecipeOption{}, Diagnostic: "no candidate recipes to verify"}, nil
	}

	verified := p.verifyPhase(ctx, runID, candidates, prefs)
	if len(verified) == 0 {
		return &Result{RunID: runID, Recipes: []FinalRecipeOption{},
			Diagnostic: "no recipes survived ingredient matching and dietary checks"}, nil
	}

	optimized := p.optimizePhase(ctx, runID, verified, prefs)
	if len(optimized) == 0 {
		return &Result{RunID: runID, Recipes: []FinalRecipeOption{},
			Diagnostic: "no recipes could be moved toward the CHO target"}, nil
	}

	passed := p.gatePhase(ctx, runID, optimized, prefs)
	if len(passed) == 0 {
		return &Result{RunID: runID, Recipes: []FinalRecipeOption{},
			Diagnostic: "no recipes passed the quality gate"}, nil
	}

	selected := passed
	if len(passed) > 1 {
		selected = SelectDiverse(passed, prefs.TargetCHO, p.opts.DiversityThreshold)
		common.LogInfo("diversity selection done",
			zap.String("run_id", runID),
			zap.Int("in", len(passed)),
			zap.Int("out", len(selected)))
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].CHODistance(prefs.TargetCHO) < selected[j].CHODistance(prefs.TargetCHO)
	})
	if len(selected) > p.opts.MaxResults {
		selected = selected[:p.opts.MaxResults]
	}

	res := &Result{RunID: runID, Recipes: selected}
	if len(selected) < p.opts.MaxResults {
		res.Diagnostic = "fewer distinct recipes available than requested"
	}
	common.LogInfo("verification run finished",
		zap.String("run_id", runID),
		zap.Int("recipes", len(selected)),
		zap.Duration("duration", time.Since(started)))
	return res, nil
}

// verifyPhase matches ingredients, recomputes dietary flags and drops
// recipes that violate the user's restrictions.
func (p *Pipeline) verifyPhase(ctx context.Context, runID string, candidates []Candidate, prefs UserPreferences) []FinalRecipeOption {
	results := parallelMap(ctx, p.opts.Workers, len(candidates), func(ctx context.Context, i int) *FinalRecipeOption {
		c := candidates[i]
		if err := c.Validate(); err != nil {
			common.LogWarn("candidate rejected",
				zap.String("run_id", runID),
				zap.String("recipe", c.Name),
				zap.Error(err))
			return nil
		}
		r, allMatched := p.matcher.MatchRecipe(ctx, c.recipe())
		if !allMatched {
			common.LogInfo("recipe dropped, unmatched ingredients",
				zap.String("run_id", runID),
				zap.String("recipe", r.Name))
			return nil
		}
		r = ComputeDietaryFlags(r, p.db)
		r = ApplyKeywordFlagHeuristic(r)
		if !SatisfiesPreferences(r, prefs) {
			common.LogInfo("recipe dropped, dietary mismatch",
				zap.String("run_id", runID),
				zap.String("recipe", r.Name))
			return nil
		}
		return &r
	})
	out := collect(results)
	common.LogInfo("verification phase done",
		zap.String("run_id", runID),
		zap.Int("in", len(candidates)),
		zap.Int("out", len(out)))
	return out
}

// optimizePhase steers recipes toward the target. Recipes already inside the
// wide admission window pass through untouched. Recipes outside it are
// optimized, with a suggested repair as fallback; the result is kept whenever
// it lands strictly closer to the target, even while still outside the
// window, and the quality gate has the final say on tolerance.
func (p *Pipeline) optimizePhase(ctx context.Context, runID string, recipes []FinalRecipeOption, prefs UserPreferences) []FinalRecipeOption {
	target := prefs.TargetCHO
	window := target * p.opts.InitialTolerance
	results := parallelMap(ctx, p.opts.Workers, len(recipes), func(_ context.Context, i int) *FinalRecipeOption {
		r := recipes[i]
		dist := r.CHODistance(target)
		// On-target recipes count as admitted even when a small target
		// makes the relative window narrower than the 5g band.
		if dist <= window || dist < onTargetWindowG {
			return &r
		}

		best := r
		opt, applied := p.optimizer.Optimize(r, target)
		if applied {
			best = betterOf(best, opt, target)
		} else if adj := p.optimizer.SuggestAdjustment(r, target); adj != nil {
			if repaired, ok := p.optimizer.ApplyAdjustment(r, *adj); ok {
				common.LogDebug("fallback adjustment applied",
					zap.String("run_id", runID),
					zap.String("recipe", r.Name),
					zap.String("action", adj.Action),
					zap.String("ingredient", adj.Name))
				best = betterOf(best, repaired, target)
			}
		}

		if best.CHODistance(target) >= dist {
			common.LogInfo("recipe dropped, could not be moved toward target",
				zap.String("run_id", runID),
				zap.String("recipe", best.Name))
			return nil
		}
		return &best
	})
	out := collect(results)
	common.LogInfo("optimization phase done",
		zap.String("run_id", runID),
		zap.Int("in", len(recipes)),
		zap.Int("out", len(out)))
	return out
}

func (p *Pipeline) gatePhase(ctx context.Context, runID string, recipes []FinalRecipeOption, prefs UserPreferences) []FinalRecipeOption {
	results := parallelMap(ctx, p.opts.Workers, len(recipes), func(_ context.Context, i int) *FinalRecipeOption {
		r := recipes[i]
		ok, reason := p.gate.Check(r, prefs)
		if !ok {
			common.LogInfo("recipe failed quality gate",
				zap.String("run_id", runID),
				zap.String("recipe", r.Name),
				zap.String("reason", reason))
			return nil
		}
		return &r
	})
	out := collect(results)
	common.LogInfo("quality gate done",
		zap.String("run_id", runID),
		zap.Int("in", len(recipes)),
		zap.Int("out", len(out)))
	return out
}

// betterOf keeps the candidate only when it is strictly closer to target.
func betterOf(current, candidate FinalRecipeOption, target float64) FinalRecipeOption {
	if candidate.CHODistance(target) < current.CHODistance(target) {
		return candidate
	}
	return current
}

// parallelMap runs fn over n indexes with bounded concurrency, preserving
// input order in the result slice.
func parallelMap(ctx context.Context, workers, n int, fn func(ctx context.Context, i int) *FinalRecipeOption) []*FinalRecipeOption {
	if workers > n {
		workers = n
	}
	results := make([]*FinalRecipeOption, n)
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = fn(ctx, i)
		}(i)
	}
	wg.Wait()
	return results
}

func collect(results []*FinalRecipeOption) []FinalRecipeOption {
	out := make([]FinalRecipeOption, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}
