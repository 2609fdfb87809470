package recipe

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-verifier/internal/core/cache"
	"recipe-verifier/internal/core/pipeline"
	"recipe-verifier/internal/pkg/common"
)

// Generator produces candidate drafts for a plan request.
type Generator interface {
	Generate(ctx context.Context, prefs pipeline.UserPreferences) ([]pipeline.Candidate, error)
}

// VerifyRequest carries externally produced candidates plus the preferences
// to verify them against.
type VerifyRequest struct {
	Preferences pipeline.UserPreferences `json:"preferences"`
	Candidates  []pipeline.Candidate     `json:"candidates"`
}

// PlanRequest asks the service to generate and verify recipes in one call.
type PlanRequest struct {
	Preferences pipeline.UserPreferences `json:"preferences"`
}

// Handler serves the recipe verification endpoints.
type Handler struct {
	pipeline  *pipeline.Pipeline
	generator Generator
	store     cache.Store
}

// NewHandler builds a recipe Handler. The generator may be nil when the
// service runs in verify-only mode; the plan endpoint then returns 503.
func NewHandler(p *pipeline.Pipeline, gen Generator, store cache.Store) *Handler {
	return &Handler{pipeline: p, generator: gen, store: store}
}

// HandleVerify verifies caller-supplied candidate recipes.
func (h *Handler) HandleVerify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, common.NewError(common.ErrCodeInvalidRequest, "malformed request body", http.StatusBadRequest, err))
		return
	}
	if len(req.Candidates) == 0 {
		respondError(c, common.ErrNoCandidates)
		return
	}

	key := cache.Fingerprint("verify", req.Preferences, req.Candidates)
	if h.store != nil {
		if cached := h.store.Get(c.Request.Context(), key); cached != nil {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	result, err := h.pipeline.Run(c.Request.Context(), req.Candidates, req.Preferences)
	if err != nil {
		respondError(c, err)
		return
	}
	if h.store != nil && len(result.Recipes) > 0 {
		h.store.Set(c.Request.Context(), key, result)
	}
	c.JSON(http.StatusOK, result)
}

// HandlePlan generates candidates and runs them through verification.
func (h *Handler) HandlePlan(c *gin.Context) {
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, common.NewError(common.ErrCodeInvalidRequest, "malformed request body", http.StatusBadRequest, err))
		return
	}
	if h.generator == nil {
		respondError(c, common.ErrGeneratorUnavailable)
		return
	}
	if !req.Preferences.Valid() {
		respondError(c, common.ErrMissingPreferences)
		return
	}

	key := cache.Fingerprint("plan", req.Preferences)
	if h.store != nil {
		if cached := h.store.Get(c.Request.Context(), key); cached != nil {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	candidates, err := h.generator.Generate(c.Request.Context(), req.Preferences)
	if err != nil {
		common.LogError("candidate generation failed",
			zap.String("request_id", requestid.Get(c)),
			zap.Error(err))
		respondError(c, err)
		return
	}
	result, err := h.pipeline.Run(c.Request.Context(), candidates, req.Preferences)
	if err != nil {
		respondError(c, err)
		return
	}
	if h.store != nil && len(result.Recipes) > 0 {
		h.store.Set(c.Request.Context(), key, result)
	}
	c.JSON(http.StatusOK, result)
}

// respondError maps domain errors onto the API error envelope.
func respondError(c *gin.Context, err error) {
	var custom *common.CustomError
	if errors.As(err, &custom) {
		body := common.ErrorResponse{Code: custom.Code, Message: custom.Message}
		if custom.Err != nil {
			body.Details = custom.Err.Error()
		}
		c.JSON(custom.Status, body)
		return
	}
	if common.IsValidationError(err) {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{
			Code:    common.ErrCodeInvalidRequest,
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusInternalServerError, common.ErrorResponse{
		Code:    common.ErrCodeInternalError,
		Message: "internal server error",
		Details: err.Error(),
	})
}
