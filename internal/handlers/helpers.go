package handlers

import (
	"errors"
	"net/http"
	"strings"

	"clinic_backend/internal/middleware"
	"clinic_backend/internal/models"
	"clinic_backend/internal/services"
	"clinic_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// callerIdentity returns the identity set by AuthMiddleware, answering 401 when absent.
func callerIdentity(c *gin.Context) (*models.Identity, bool) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		utils.LogError(errors.New("identity not found in context"), "callerIdentity: identity missing")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated.", "Missing identity in context"))
		return nil, false
	}
	return identity, true
}

// callerClinicianID is used on routes guarded by middleware.RequireClinician.
func callerClinicianID(c *gin.Context) (int64, bool) {
	identity, ok := callerIdentity(c)
	if !ok {
		return 0, false
	}
	if !identity.IsClinician() {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "Only clinicians can access this resource.", ""))
		return 0, false
	}
	return *identity.ClinicianID, true
}

func parseIDParam(c *gin.Context, param, label string) (int64, bool) {
	id, err := utils.StrToInt64(c.Param(param))
	if err != nil || id <= 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid "+label+" ID format.", c.Param(param)))
		return 0, false
	}
	return id, true
}

// parseOptionalIDQuery reads a positive integer query parameter; absent means nil.
func parseOptionalIDQuery(c *gin.Context, key string) (*int64, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	id, err := utils.StrToInt64(raw)
	if err != nil || id <= 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid "+key+" query parameter.", raw))
		return nil, false
	}
	return &id, true
}

func respondBindError(c *gin.Context, err error, op string) {
	utils.LogError(err, op+": Failed to bind JSON")
	utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
}

var notFoundErrors = []error{
	services.ErrAccountNotFound,
	services.ErrClinicianNotFound,
	services.ErrPatientNotFound,
	services.ErrAppointmentNotFound,
	services.ErrPrescriptionNotFound,
	services.ErrExamOrderNotFound,
	services.ErrMaterialNotFound,
	services.ErrMachineNotFound,
	services.ErrProcedureNotFound,
}

// respondServiceError maps service sentinels onto API errors. fallback is the
// message used for unclassified failures, whose details are never exposed.
func respondServiceError(c *gin.Context, err error, op, fallback string) {
	utils.LogError(err, op)

	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, capitalize(target.Error())+".", err.Error()))
			return
		}
	}

	switch {
	case errors.Is(err, services.ErrValidation):
		utils.RespondValidationFailed(c, err.Error())
	case errors.Is(err, services.ErrNothingToUpdate):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Nothing to update.", ""))
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid email or password.", ""))
	case errors.Is(err, services.ErrNotClinician):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "Only clinicians can access this resource.", ""))
	case errors.Is(err, services.ErrLoginDisabled):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "Local login is disabled; use the identity provider.", ""))
	case errors.Is(err, services.ErrEmailExists):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Email already exists.", ""))
	case errors.Is(err, services.ErrInsufficientStock):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeInsufficientStock, "Insufficient stock for material.", err.Error()))
	case errors.Is(err, services.ErrIntegrityViolation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeIntegrityViolation, "Referenced data is invalid.", err.Error()))
	case errors.Is(err, services.ErrUnsupportedMediaType):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnsupportedMediaType, utils.ErrCodeUnsupportedMedia, "Unsupported file type.", err.Error()))
	case errors.Is(err, services.ErrStorageUnavailable):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusServiceUnavailable, utils.ErrCodeServiceUnavailable, "File storage is not configured.", ""))
	default:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, fallback, "Internal error"))
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
