package api

import (
	"net/http"

	"github.com/Fussballversager/data-pipeline-buddy/internal/domain"
	"github.com/Fussballversager/data-pipeline-buddy/internal/service"

	"github.com/gin-gonic/gin"
)

// ProfileHandler serves the coach's own profile and baseline parameters.
type ProfileHandler struct {
	prefs service.PreferencesService
}

func NewProfileHandler(prefs service.PreferencesService) *ProfileHandler {
	return &ProfileHandler{prefs: prefs}
}

type UpdateProfileRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	DisplayName *string `json:"displayName" binding:"omitempty,max=100"`
	Club        *string `json:"club" binding:"omitempty,max=100"`
	Team        *string `json:"team" binding:"omitempty,max=100"`
	AgeGroup    *string `json:"ageGroup" binding:"omitempty,max=20"`
}

// MeResponse is the signed-in coach with baseline and quota.
type MeResponse struct {
	User        UserResponse               `json:"user"`
	Preferences domain.TrainingPreferences `json:"preferences"`
	Quota       service.QuotaStatus        `json:"quota"`
}

// Me godoc
// @Summary Get the signed-in coach
// @Tags Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} MeResponse
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 404 {object} gin.H "User not found"
// @Router /me [get]
func (h *ProfileHandler) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	me, err := h.prefs.Me(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "Failed to load profile.")
		return
	}
	c.JSON(http.StatusOK, MeResponse{
		User:        MapUserToResponse(&me.User),
		Preferences: me.Preferences,
		Quota:       me.Quota,
	})
}

// UpdateProfile godoc
// @Summary Update the coach profile
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body UpdateProfileRequest true "Changed fields"
// @Success 200 {object} UserResponse
// @Router /me [patch]
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.prefs.UpdateProfile(c.Request.Context(), userID, service.ProfileUpdate{
		Name:        req.Name,
		DisplayName: req.DisplayName,
		Club:        req.Club,
		Team:        req.Team,
		AgeGroup:    req.AgeGroup,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to update profile.")
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// GetPreferences godoc
// @Summary Get the baseline training parameters
// @Tags Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.TrainingPreferences
// @Router /preferences [get]
func (h *ProfileHandler) GetPreferences(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	prefs, err := h.prefs.GetPreferences(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "Failed to load preferences.")
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// SavePreferences godoc
// @Summary Save the baseline training parameters
// @Description Omitted fields keep their stored value.
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param preferences body ParametersRequest true "Baseline parameters"
// @Success 200 {object} domain.TrainingPreferences
// @Router /preferences [put]
func (h *ProfileHandler) SavePreferences(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req ParametersRequest
	if !bindJSON(c, &req) {
		return
	}
	prefs, err := h.prefs.SavePreferences(c.Request.Context(), userID, req.toDomain())
	if err != nil {
		respondServiceError(c, err, "Failed to save preferences.")
		return
	}
	c.JSON(http.StatusOK, prefs)
}
