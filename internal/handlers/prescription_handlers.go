package handlers

import (
	"net/http"

	"clinic_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type PrescriptionHandler struct {
	prescriptionService services.PrescriptionService
}

func NewPrescriptionHandler(ps services.PrescriptionService) *PrescriptionHandler {
	return &PrescriptionHandler{prescriptionService: ps}
}

func (h *PrescriptionHandler) CreatePrescription(c *gin.Context) {
	doctorID, ok := callerClinicianID(c)
	if !ok {
		return
	}
	var req services.PrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "CreatePrescription")
		return
	}

	prescription, err := h.prescriptionService.CreatePrescription(c.Request.Context(), doctorID, req)
	if err != nil {
		respondServiceError(c, err, "CreatePrescription: Error from prescriptionService.CreatePrescription", "Failed to create prescription.")
		return
	}
	c.JSON(http.StatusCreated, prescription)
}

// ListPrescriptions accepts an optional patient_id filter.
func (h *PrescriptionHandler) ListPrescriptions(c *gin.Context) {
	doctorID, ok := callerClinicianID(c)
	if !ok {
		return
	}
	patientID, ok := parseOptionalIDQuery(c, "patient_id")
	if !ok {
		return
	}

	prescriptions, err := h.prescriptionService.ListPrescriptions(c.Request.Context(), doctorID, patientID)
	if err != nil {
		respondServiceError(c, err, "ListPrescriptions: Error from prescriptionService.ListPrescriptions", "Failed to retrieve prescriptions.")
		return
	}
	c.JSON(http.StatusOK, prescriptions)
}

func (h *PrescriptionHandler) UpdatePrescription(c *gin.Context) {
	doctorID, ok := callerClinicianID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "prescription")
	if !ok {
		return
	}
	var req services.PrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "UpdatePrescription")
		return
	}

	prescription, err := h.prescriptionService.UpdatePrescription(c.Request.Context(), doctorID, id, req)
	if err != nil {
		respondServiceError(c, err, "UpdatePrescription: Error from prescriptionService.UpdatePrescription for ID "+c.Param("id"), "Failed to update prescription.")
		return
	}
	c.JSON(http.StatusOK, prescription)
}

func (h *PrescriptionHandler) DeletePrescription(c *gin.Context) {
	doctorID, ok := callerClinicianID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "prescription")
	if !ok {
		return
	}

	if err := h.prescriptionService.DeletePrescription(c.Request.Context(), doctorID, id); err != nil {
		respondServiceError(c, err, "DeletePrescription: Error from prescriptionService.DeletePrescription for ID "+c.Param("id"), "Failed to delete prescription.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Prescription deleted successfully"})
}
