package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Fussballversager/data-pipeline-buddy/internal/domain"
	"github.com/Fussballversager/data-pipeline-buddy/internal/service"

	"github.com/gin-gonic/gin"
)

// PlanHandler serves the month, week and day hierarchy.
type PlanHandler struct {
	plans service.PlanService
	nav   service.Navigator
}

func NewPlanHandler(plans service.PlanService, nav service.Navigator) *PlanHandler {
	return &PlanHandler{plans: plans, nav: nav}
}

// --- Request Structs ---

// ParametersRequest carries training parameters. Omitted fields are not changed.
type ParametersRequest struct {
	RosterSize      *int    `json:"rosterSize" binding:"omitempty,min=1,max=60"`
	Goalkeepers     *int    `json:"goalkeepers" binding:"omitempty,min=0,max=10"`
	SessionsPerWeek *int    `json:"sessionsPerWeek" binding:"omitempty,min=1,max=7"`
	SessionDuration *int    `json:"sessionDuration" binding:"omitempty,min=15,max=240"`
	MonthCount      *int    `json:"monthCount" binding:"omitempty,min=1,max=12"`
	Philosophy      *string `json:"philosophy" binding:"omitempty,max=500"`
	AgeGroup        *string `json:"ageGroup" binding:"omitempty,max=20"`
	Focus           *string `json:"focus" binding:"omitempty,max=500"`
	Weaknesses      *string `json:"weaknesses" binding:"omitempty,max=1000"`
	Notes           *string `json:"notes" binding:"omitempty,max=2000"`
	SeasonPhase     *string `json:"seasonPhase" binding:"omitempty,max=100"`
	SeasonGoal      *string `json:"seasonGoal" binding:"omitempty,max=500"`
	GameIdea        *string `json:"gameIdea" binding:"omitempty,max=1000"`
	MatchFormation  *string `json:"matchFormation" binding:"omitempty,max=20"`
	Pitch           *string `json:"pitch" binding:"omitempty,max=500"`
}

func (r ParametersRequest) toDomain() domain.TrainingParameters {
	return domain.TrainingParameters{
		RosterSize:      r.RosterSize,
		Goalkeepers:     r.Goalkeepers,
		SessionsPerWeek: r.SessionsPerWeek,
		SessionDuration: r.SessionDuration,
		MonthCount:      r.MonthCount,
		Philosophy:      r.Philosophy,
		AgeGroup:        r.AgeGroup,
		Focus:           r.Focus,
		Weaknesses:      r.Weaknesses,
		Notes:           r.Notes,
		SeasonPhase:     r.SeasonPhase,
		SeasonGoal:      r.SeasonGoal,
		GameIdea:        r.GameIdea,
		MatchFormation:  r.MatchFormation,
		Pitch:           r.Pitch,
	}
}

type CreateMonthRequest struct {
	Period string `json:"period" binding:"required,yearmonth"`
	ParametersRequest
}

type CreateWeekRequest struct {
	CalendarWeek int        `json:"calendarWeek" binding:"required"`
	WeekStart    *time.Time `json:"weekStart"`
	TrainingGoal string     `json:"trainingGoal" binding:"max=500"`
	Focus1       string     `json:"focus1" binding:"max=200"`
	Focus2       string     `json:"focus2" binding:"max=200"`
	Focus3       string     `json:"focus3" binding:"max=200"`
	ParametersRequest
}

type CreateDayRequest struct {
	TrainingDate string `json:"trainingDate" binding:"required,isodate"`
	DayNumber    int    `json:"dayNumber" binding:"omitempty,min=1,max=7"`
	TrainingGoal string `json:"trainingGoal" binding:"max=500"`
	Focus1       string `json:"focus1" binding:"max=200"`
	Focus2       string `json:"focus2" binding:"max=200"`
	Focus3       string `json:"focus3" binding:"max=200"`
	RosterSize   *int   `json:"rosterSize" binding:"omitempty,min=1,max=60"`
}

type GoalRequest struct {
	TrainingGoal *string `json:"trainingGoal" binding:"omitempty,max=500"`
	Focus1       *string `json:"focus1" binding:"omitempty,max=200"`
	Focus2       *string `json:"focus2" binding:"omitempty,max=200"`
	Focus3       *string `json:"focus3" binding:"omitempty,max=200"`
}

func (r GoalRequest) toDomain() service.GoalUpdate {
	return service.GoalUpdate{TrainingGoal: r.TrainingGoal, Focus1: r.Focus1, Focus2: r.Focus2, Focus3: r.Focus3}
}

type UpdateWeekRequest struct {
	GoalRequest
	WeekStart *time.Time `json:"weekStart"`
	ParametersRequest
}

type UpdateDayRequest struct {
	GoalRequest
	DayNumber  *int `json:"dayNumber" binding:"omitempty,min=1,max=7"`
	RosterSize *int `json:"rosterSize" binding:"omitempty,min=1,max=60"`
}

// bindJSON binds and validates the body or aborts with 400.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return false
	}
	return true
}

// workspace loads the caller's hierarchy for a mutating request.
func (h *PlanHandler) workspace(c *gin.Context) (*service.Workspace, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		return nil, false
	}
	ws, err := h.plans.Workspace(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "Failed to load plans.")
		return nil, false
	}
	return ws, true
}

// --- Overview ---

// Overview godoc
// @Summary Get the plan overview
// @Description Lists month plans with week counts, the month quota and which tiers can be created.
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.Overview
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /overview [get]
func (h *PlanHandler) Overview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	ov, err := h.nav.Overview(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "Failed to load overview.")
		return
	}
	c.JSON(http.StatusOK, ov)
}

// Dashboard godoc
// @Summary Get completed training days
// @Description Lists days that already have generated sections, newest first.
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.DayPlan
// @Failure 401 {object} gin.H "Unauthorized"
// @Router /dashboard [get]
func (h *PlanHandler) Dashboard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	days, err := h.nav.Dashboard(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "Failed to load dashboard.")
		return
	}
	c.JSON(http.StatusOK, days)
}

// --- Months ---

// ListMonths godoc
// @Summary List month plans
// @Tags Months
// @Produce json
// @Security BearerAuth
// @Success 200 {array} service.MonthSummary
// @Router /months [get]
func (h *PlanHandler) ListMonths(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	ov, err := h.nav.Overview(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve month plans.")
		return
	}
	c.JSON(http.StatusOK, ov.Months)
}

// CreateMonth godoc
// @Summary Create a month plan
// @Description Creates the plan for one calendar month. Fails when the month already has a plan or the quota is used up.
// @Tags Months
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param plan body CreateMonthRequest true "Month plan"
// @Success 201 {object} domain.MonthPlan
// @Failure 400 {object} gin.H "Invalid period"
// @Failure 409 {object} gin.H "Duplicate period or quota reached"
// @Router /months [post]
func (h *PlanHandler) CreateMonth(c *gin.Context) {
	var req CreateMonthRequest
	if !bindJSON(c, &req) {
		return
	}
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	plan, err := h.plans.CreateMonth(c.Request.Context(), ws, service.MonthInput{
		Period: req.Period,
		Params: req.toDomain(),
	})
	if err != nil {
		respondServiceError(c, err, "Failed to create month plan.")
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// GetMonth godoc
// @Summary Get a month plan
// @Tags Months
// @Produce json
// @Security BearerAuth
// @Param id path string true "Month plan ID"
// @Success 200 {object} domain.MonthPlan
// @Failure 404 {object} gin.H "Not found"
// @Router /months/{id} [get]
func (h *PlanHandler) GetMonth(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	plan, err := h.plans.GetMonth(c.Request.Context(), userID, id)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve month plan.")
		return
	}
	c.JSON(http.StatusOK, plan)
}

// MonthTree godoc
// @Summary Get the weeks and days of a month
// @Tags Months
// @Produce json
// @Security BearerAuth
// @Param id path string true "Month plan ID"
// @Success 200 {object} service.MonthTree
// @Failure 404 {object} gin.H "Not found"
// @Router /months/{id}/weeks [get]
func (h *PlanHandler) MonthTree(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	tree, err := h.nav.MonthTree(c.Request.Context(), userID, id)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve weeks.")
		return
	}
	c.JSON(http.StatusOK, tree)
}

// UpdateMonth godoc
// @Summary Update month plan parameters
// @Tags Months
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Month plan ID"
// @Param params body ParametersRequest true "Changed parameters"
// @Success 200 {object} domain.MonthPlan
// @Router /months/{id} [patch]
func (h *PlanHandler) UpdateMonth(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req ParametersRequest
	if !bindJSON(c, &req) {
		return
	}
	plan, err := h.plans.UpdateMonth(c.Request.Context(), userID, id, req.toDomain())
	if err != nil {
		respondServiceError(c, err, "Failed to update month plan.")
		return
	}
	c.JSON(http.StatusOK, plan)
}

// --- Weeks ---

// CreateWeek godoc
// @Summary Create a week plan under a month
// @Tags Weeks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Month plan ID"
// @Param plan body CreateWeekRequest true "Week plan"
// @Success 201 {object} domain.WeekPlan
// @Failure 400 {object} gin.H "Invalid calendar week"
// @Failure 404 {object} gin.H "Month not found"
// @Failure 409 {object} gin.H "Week already planned in this month"
// @Router /months/{id}/weeks [post]
func (h *PlanHandler) CreateWeek(c *gin.Context) {
	monthID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req CreateWeekRequest
	if !bindJSON(c, &req) {
		return
	}
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	plan, err := h.plans.CreateWeek(c.Request.Context(), ws, service.WeekInput{
		MonthPlanID:  monthID,
		CalendarWeek: strconv.Itoa(req.CalendarWeek),
		WeekStart:    req.WeekStart,
		TrainingGoal: req.TrainingGoal,
		Focus:        [3]string{req.Focus1, req.Focus2, req.Focus3},
		Params:       req.ParametersRequest.toDomain(),
	})
	if err != nil {
		respondServiceError(c, err, "Failed to create week plan.")
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// GetWeek godoc
// @Summary Get a week plan
// @Tags Weeks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Week plan ID"
// @Success 200 {object} domain.WeekPlan
// @Router /weeks/{id} [get]
func (h *PlanHandler) GetWeek(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	plan, err := h.plans.GetWeek(c.Request.Context(), userID, id)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve week plan.")
		return
	}
	c.JSON(http.StatusOK, plan)
}

// WeekDays godoc
// @Summary Get the days of a week
// @Tags Weeks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Week plan ID"
// @Success 200 {object} service.WeekDays
// @Router /weeks/{id}/days [get]
func (h *PlanHandler) WeekDays(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	wd, err := h.nav.WeekDays(c.Request.Context(), userID, id)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve days.")
		return
	}
	c.JSON(http.StatusOK, wd)
}

// UpdateWeek godoc
// @Summary Update a week plan
// @Tags Weeks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Week plan ID"
// @Param plan body UpdateWeekRequest true "Changed fields"
// @Success 200 {object} domain.WeekPlan
// @Router /weeks/{id} [patch]
func (h *PlanHandler) UpdateWeek(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req UpdateWeekRequest
	if !bindJSON(c, &req) {
		return
	}
	plan, err := h.plans.UpdateWeek(c.Request.Context(), userID, id, service.WeekUpdate{
		GoalUpdate: req.GoalRequest.toDomain(),
		WeekStart:  req.WeekStart,
		Params:     req.ParametersRequest.toDomain(),
	})
	if err != nil {
		respondServiceError(c, err, "Failed to update week plan.")
		return
	}
	c.JSON(http.StatusOK, plan)
}

// --- Days ---

// CreateDay godoc
// @Summary Create a day plan under a week
// @Tags Days
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Week plan ID"
// @Param plan body CreateDayRequest true "Day plan"
// @Success 201 {object} domain.DayPlan
// @Failure 404 {object} gin.H "Week not found"
// @Failure 409 {object} gin.H "Date already planned in this week"
// @Router /weeks/{id}/days [post]
func (h *PlanHandler) CreateDay(c *gin.Context) {
	weekID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req CreateDayRequest
	if !bindJSON(c, &req) {
		return
	}
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	plan, err := h.plans.CreateDay(c.Request.Context(), ws, service.DayInput{
		WeekPlanID:   weekID,
		TrainingDate: req.TrainingDate,
		DayNumber:    req.DayNumber,
		TrainingGoal: req.TrainingGoal,
		Focus:        [3]string{req.Focus1, req.Focus2, req.Focus3},
		RosterSize:   req.RosterSize,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to create day plan.")
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// DayDetail godoc
// @Summary Get a day with its sections
// @Description Sections come ordered 0-8, with sketch URLs on exercise sections.
// @Tags Days
// @Produce json
// @Security BearerAuth
// @Param id path string true "Day plan ID"
// @Success 200 {object} service.DayDetail
// @Router /days/{id} [get]
func (h *PlanHandler) DayDetail(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	detail, err := h.nav.DayDetail(c.Request.Context(), userID, id)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve day plan.")
		return
	}
	c.JSON(http.StatusOK, detail)
}

// UpdateDay godoc
// @Summary Update a day plan
// @Tags Days
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Day plan ID"
// @Param plan body UpdateDayRequest true "Changed fields"
// @Success 200 {object} domain.DayPlan
// @Router /days/{id} [patch]
func (h *PlanHandler) UpdateDay(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req UpdateDayRequest
	if !bindJSON(c, &req) {
		return
	}
	plan, err := h.plans.UpdateDay(c.Request.Context(), userID, id, service.DayUpdate{
		GoalUpdate: req.GoalRequest.toDomain(),
		DayNumber:  req.DayNumber,
		RosterSize: req.RosterSize,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to update day plan.")
		return
	}
	c.JSON(http.StatusOK, plan)
}

// --- Deletion ---

// Delete returns the handler removing a plan of the given tier with
// everything beneath it. The request must carry confirm=true.
//
// @Summary Delete a plan and its descendants
// @Tags Plans
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Param confirm query bool true "Must be true"
// @Success 204
// @Failure 400 {object} gin.H "Not confirmed"
// @Failure 404 {object} gin.H "Not found"
// @Router /{months|weeks|days}/{id} [delete]
func (h *PlanHandler) Delete(tier domain.Tier) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathObjectID(c, "id")
		if !ok {
			return
		}
		ws, ok := h.workspace(c)
		if !ok {
			return
		}
		confirmed := c.Query("confirm") == "true"
		if err := h.plans.Delete(c.Request.Context(), ws, domain.PlanRef{Tier: tier, ID: id}, confirmed); err != nil {
			respondServiceError(c, err, "Failed to delete plan.")
			return
		}
		c.Status(http.StatusNoContent)
	}
}
