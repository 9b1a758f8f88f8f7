package handlers

import (
	"net/http"

	"clinic_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type PatientHandler struct {
	patientService services.PatientService
}

func NewPatientHandler(ps services.PatientService) *PatientHandler {
	return &PatientHandler{patientService: ps}
}

func (h *PatientHandler) CreatePatient(c *gin.Context) {
	doctorID, ok := callerClinicianID(c)
	if !ok {
		return
	}
	var req services.CreatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "CreatePatient")
		return
	}

	patient, err := h.patientService.CreatePatient(c.Request.Context(), doctorID, req)
	if err != nil {
		respondServiceError(c, err, "CreatePatient: Error from patientService.CreatePatient", "Failed to create patient.")
		return
	}
	c.JSON(http.StatusCreated, patient)
}

func (h *PatientHandler) ListPatients(c *gin.Context) {
	doctorID, ok := callerClinicianID(c)
	if !ok {
		return
	}

	patients, err := h.patientService.ListPatients(c.Request.Context(), doctorID)
	if err != nil {
		respondServiceError(c, err, "ListPatients: Error from patientService.ListPatients", "Failed to retrieve patients.")
		return
	}
	c.JSON(http.StatusOK, patients)
}

func (h *PatientHandler) GetPatientByID(c *gin.Context) {
	doctorID, ok := callerClinicianID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "patient")
	if !ok {
		return
	}

	patient, err := h.patientService.GetPatient(c.Request.Context(), doctorID, id)
	if err != nil {
		respondServiceError(c, err, "GetPatientByID: Error from patientService.GetPatient for ID "+c.Param("id"), "Failed to retrieve patient.")
		return
	}
	c.JSON(http.StatusOK, patient)
}
