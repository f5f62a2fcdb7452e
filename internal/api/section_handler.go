package api

import (
	"net/http"
	"strconv"

	"github.com/Fussballversager/data-pipeline-buddy/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SectionHandler edits the numbered sections of a day and their sketches.
type SectionHandler struct {
	sections service.SectionService
}

func NewSectionHandler(sections service.SectionService) *SectionHandler {
	return &SectionHandler{sections: sections}
}

// --- Request Structs ---

type SectionRequest struct {
	Phase          string `json:"phase" binding:"max=200"`
	GameForm       string `json:"gameForm" binding:"max=200"`
	Duration       *int   `json:"duration" binding:"omitempty,min=1,max=240"`
	Organisation   string `json:"organisation"`
	Procedure      string `json:"procedure"`
	CoachingPoints string `json:"coachingPoints"`
	Variants       string `json:"variants"`
}

type SketchUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type ConfirmSketchRequest struct {
	ObjectKey       string `json:"objectKey" binding:"required"`
	TemplateVersion string `json:"templateVersion" binding:"max=50"`
}

// sectionTarget resolves the caller, the day and the section index.
func sectionTarget(c *gin.Context) (userID, dayID primitive.ObjectID, index int, ok bool) {
	if userID, ok = currentUserID(c); !ok {
		return
	}
	if dayID, ok = pathObjectID(c, "id"); !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid section index.")
		return userID, dayID, 0, false
	}
	return userID, dayID, index, true
}

// UpsertSection godoc
// @Summary Create or replace a section of a day
// @Description Lists in organisation, procedure, coaching points and variants are semicolon-delimited.
// @Tags Sections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Day plan ID"
// @Param index path int true "Section index 0-8"
// @Param section body SectionRequest true "Section content"
// @Success 200 {object} domain.Section
// @Failure 400 {object} gin.H "Invalid index"
// @Failure 404 {object} gin.H "Day not found"
// @Router /days/{id}/sections/{index} [put]
func (h *SectionHandler) UpsertSection(c *gin.Context) {
	userID, dayID, index, ok := sectionTarget(c)
	if !ok {
		return
	}
	var req SectionRequest
	if !bindJSON(c, &req) {
		return
	}
	section, err := h.sections.UpsertSection(c.Request.Context(), userID, dayID, index, service.SectionInput{
		Phase:          req.Phase,
		GameForm:       req.GameForm,
		Duration:       req.Duration,
		Organisation:   req.Organisation,
		Procedure:      req.Procedure,
		CoachingPoints: req.CoachingPoints,
		Variants:       req.Variants,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to save section.")
		return
	}
	c.JSON(http.StatusOK, section)
}

// RequestSketchUpload godoc
// @Summary Request a pre-signed URL to upload a sketch
// @Description Only exercise sections 1-7 carry a sketch. The client PUTs the image to the returned URL and then confirms it.
// @Tags Sections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Day plan ID"
// @Param index path int true "Section index 1-7"
// @Param uploadRequest body SketchUploadRequest true "Image content type"
// @Success 200 {object} service.UploadURLResponse "Pre-signed URL and object key"
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 404 {object} gin.H "Section not found"
// @Failure 503 {object} gin.H "Sketch storage not configured"
// @Router /days/{id}/sections/{index}/sketch-upload [post]
func (h *SectionHandler) RequestSketchUpload(c *gin.Context) {
	userID, dayID, index, ok := sectionTarget(c)
	if !ok {
		return
	}
	var req SketchUploadRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.sections.RequestSketchUpload(c.Request.Context(), userID, dayID, index, req.ContentType)
	if err != nil {
		respondServiceError(c, err, "Failed to get upload URL.")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmSketch godoc
// @Summary Confirm a sketch upload
// @Tags Sections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Day plan ID"
// @Param index path int true "Section index 1-7"
// @Param confirmRequest body ConfirmSketchRequest true "Uploaded object"
// @Success 201 {object} domain.SectionMedia
// @Failure 400 {object} gin.H "Object key does not belong to the section"
// @Failure 404 {object} gin.H "Section not found"
// @Router /days/{id}/sections/{index}/sketch [post]
func (h *SectionHandler) ConfirmSketch(c *gin.Context) {
	userID, dayID, index, ok := sectionTarget(c)
	if !ok {
		return
	}
	var req ConfirmSketchRequest
	if !bindJSON(c, &req) {
		return
	}
	media, err := h.sections.ConfirmSketch(c.Request.Context(), userID, dayID, index, req.ObjectKey, req.TemplateVersion)
	if err != nil {
		respondServiceError(c, err, "Failed to confirm sketch upload.")
		return
	}
	c.JSON(http.StatusCreated, media)
}
