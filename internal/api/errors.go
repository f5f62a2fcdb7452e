package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/Fussballversager/data-pipeline-buddy/internal/domain"
	"github.com/Fussballversager/data-pipeline-buddy/internal/generation"
	"github.com/Fussballversager/data-pipeline-buddy/internal/service"

	"github.com/gin-gonic/gin"
)

var badRequestErrors = []error{
	domain.ErrInvalidPeriod,
	domain.ErrUnknownTier,
	service.ErrDeleteNotConfirmed,
	service.ErrInvalidSectionIndex,
	service.ErrSketchNotAllowed,
	service.ErrInvalidSketchType,
	service.ErrSketchKeyMismatch,
	service.ErrUploadMetadataMissing,
}

var conflictErrors = []error{
	service.ErrDuplicatePeriod,
	service.ErrCreateInFlight,
	service.ErrGenerationInFlight,
	service.ErrUserAlreadyExists,
}

var notFoundErrors = []error{
	service.ErrPlanNotFound,
	service.ErrParentNotFound,
	service.ErrSectionNotFound,
	service.ErrUserNotFound,
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// respondServiceError maps a service error onto a status code. Anything
// unrecognized is logged and answered with fallback as a 500.
func respondServiceError(c *gin.Context, err error, fallback string) {
	var quotaErr *service.QuotaError
	var transportErr *generation.TransportError

	switch {
	case errors.As(err, &quotaErr):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error(), "quota": quotaErr.Status})
	case isAny(err, badRequestErrors):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case isAny(err, conflictErrors):
		abortWithError(c, http.StatusConflict, err.Error())
	case isAny(err, notFoundErrors):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.As(err, &transportErr):
		abortWithError(c, http.StatusBadGateway, err.Error())
	case errors.Is(err, service.ErrStorageUnavailable):
		abortWithError(c, http.StatusServiceUnavailable, err.Error())
	default:
		log.Printf("ERROR: %s %s: %v", c.Request.Method, c.FullPath(), err)
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}
