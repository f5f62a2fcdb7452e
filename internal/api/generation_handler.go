package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Fussballversager/data-pipeline-buddy/internal/domain"
	"github.com/Fussballversager/data-pipeline-buddy/internal/generation"
	"github.com/Fussballversager/data-pipeline-buddy/internal/service"

	"github.com/gin-gonic/gin"
)

// GenerationHandler starts generation runs and reports their progress.
type GenerationHandler struct {
	generation service.GenerationService
}

func NewGenerationHandler(generation service.GenerationService) *GenerationHandler {
	return &GenerationHandler{generation: generation}
}

// GenerateRequest holds the per-request overrides. The body is optional.
type GenerateRequest struct {
	AgeGroup   *string `json:"ageGroup" binding:"omitempty,max=20"`
	Philosophy *string `json:"philosophy" binding:"omitempty,max=500"`
	RosterSize *int    `json:"rosterSize" binding:"omitempty,min=1,max=60"`
}

// planRef reads the :tier and :id path parameters or aborts with 400.
func planRef(c *gin.Context) (domain.PlanRef, bool) {
	tier, err := domain.ParseTier(c.Param("tier"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return domain.PlanRef{}, false
	}
	id, ok := pathObjectID(c, "id")
	if !ok {
		return domain.PlanRef{}, false
	}
	return domain.PlanRef{Tier: tier, ID: id}, true
}

// Generate godoc
// @Summary Start generating a plan
// @Description Sends the resolved parameters to the generator and starts watching for the content. Returns once the generator accepted the request.
// @Tags Generation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param tier path string true "month, week or day"
// @Param id path string true "Plan ID"
// @Param overrides body GenerateRequest false "Per-request overrides"
// @Success 202 {object} generation.RunStatus "Dispatched"
// @Failure 400 {object} gin.H "Unknown tier or invalid ID"
// @Failure 404 {object} gin.H "Plan not found"
// @Failure 409 {object} gin.H "A run for this plan is already in flight"
// @Failure 502 {object} gin.H "Generator rejected the request"
// @Router /plans/{tier}/{id}/generate [post]
func (h *GenerationHandler) Generate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	ref, ok := planRef(c)
	if !ok {
		return
	}

	var req GenerateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
			return
		}
	}

	status, err := h.generation.Start(c.Request.Context(), userID, ref, generation.Overrides{
		AgeGroup:   req.AgeGroup,
		Philosophy: req.Philosophy,
		RosterSize: req.RosterSize,
	})
	if err != nil {
		var transportErr *generation.TransportError
		if errors.As(err, &transportErr) && status != nil {
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": err.Error(), "status": status})
			return
		}
		respondServiceError(c, err, "Failed to start generation.")
		return
	}
	c.JSON(http.StatusAccepted, status)
}

// GenerationStatus godoc
// @Summary Get the latest generation run of a plan
// @Tags Generation
// @Produce json
// @Security BearerAuth
// @Param tier path string true "month, week or day"
// @Param id path string true "Plan ID"
// @Success 200 {object} service.GenerationView
// @Failure 404 {object} gin.H "Plan not found"
// @Router /plans/{tier}/{id}/generation [get]
func (h *GenerationHandler) GenerationStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	ref, ok := planRef(c)
	if !ok {
		return
	}
	view, err := h.generation.Status(c.Request.Context(), userID, ref)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve generation status.")
		return
	}
	c.JSON(http.StatusOK, view)
}
