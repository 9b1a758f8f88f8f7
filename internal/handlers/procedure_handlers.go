package handlers

import (
	"net/http"

	"clinic_backend/internal/models"
	"clinic_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// ProcedureHandler serves billable procedures and their image uploads.
type ProcedureHandler struct {
	procedureService services.ProcedureService
	mediaService     services.ProcedureMediaService
}

func NewProcedureHandler(ps services.ProcedureService, ms services.ProcedureMediaService) *ProcedureHandler {
	return &ProcedureHandler{procedureService: ps, mediaService: ms}
}

// CreateProcedure records a procedure with its consumable and equipment lines.
func (h *ProcedureHandler) CreateProcedure(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	var req services.CreateProcedureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "CreateProcedure")
		return
	}

	procedure, err := h.procedureService.CreateProcedure(c.Request.Context(), identity, req)
	if err != nil {
		respondServiceError(c, err, "CreateProcedure: Error from procedureService.CreateProcedure", "Failed to create procedure.")
		return
	}
	c.JSON(http.StatusCreated, procedure)
}

// ListProcedures accepts optional patient_id and professional_id filters.
func (h *ProcedureHandler) ListProcedures(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	patientID, ok := parseOptionalIDQuery(c, "patient_id")
	if !ok {
		return
	}
	professionalID, ok := parseOptionalIDQuery(c, "professional_id")
	if !ok {
		return
	}

	procedures, err := h.procedureService.ListProcedures(c.Request.Context(), identity, models.ProcedureFilters{
		PatientID:      patientID,
		ProfessionalID: professionalID,
	})
	if err != nil {
		respondServiceError(c, err, "ListProcedures: Error from procedureService.ListProcedures", "Failed to retrieve procedures.")
		return
	}
	c.JSON(http.StatusOK, procedures)
}

func (h *ProcedureHandler) GetProcedureByID(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "procedure")
	if !ok {
		return
	}

	procedure, err := h.procedureService.GetProcedure(c.Request.Context(), identity, id)
	if err != nil {
		respondServiceError(c, err, "GetProcedureByID: Error from procedureService.GetProcedure for ID "+c.Param("id"), "Failed to retrieve procedure.")
		return
	}
	c.JSON(http.StatusOK, procedure)
}

// DeleteProcedure removes the procedure and its lines. Consumed stock is not restored.
func (h *ProcedureHandler) DeleteProcedure(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "procedure")
	if !ok {
		return
	}

	if err := h.procedureService.DeleteProcedure(c.Request.Context(), identity, id); err != nil {
		respondServiceError(c, err, "DeleteProcedure: Error from procedureService.DeleteProcedure for ID "+c.Param("id"), "Failed to delete procedure.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Procedure deleted successfully"})
}

// UploadImage stores a before/after picture and returns its public URL.
func (h *ProcedureHandler) UploadImage(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	doctorID, ok := callerClinicianID(c)
	if !ok {
		return
	}
	patientID, ok := parseIDParam(c, "id", "patient")
	if !ok {
		return
	}
	file, closer, ok := formFile(c, "file")
	if !ok {
		return
	}
	defer closer.Close()

	resp, err := h.mediaService.UploadImage(c.Request.Context(), identity.AccountID, doctorID, patientID, file)
	if err != nil {
		respondServiceError(c, err, "UploadImage: Error from mediaService.UploadImage", "Failed to upload image.")
		return
	}
	c.JSON(http.StatusCreated, resp)
}
