package handlers

import (
	"net/http"

	"clinic_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// MedicalRecordHandler serves evolution notes and anamnesis forms nested under a patient.
type MedicalRecordHandler struct {
	recordService services.MedicalRecordService
}

func NewMedicalRecordHandler(rs services.MedicalRecordService) *MedicalRecordHandler {
	return &MedicalRecordHandler{recordService: rs}
}

func (h *MedicalRecordHandler) CreateRecord(c *gin.Context) {
	doctorID, ok := callerClinicianID(c)
	if !ok {
		return
	}
	patientID, ok := parseIDParam(c, "id", "patient")
	if !ok {
		return
	}
	var req services.CreateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "CreateRecord")
		return
	}

	record, err := h.recordService.CreateRecord(c.Request.Context(), doctorID, patientID, req)
	if err != nil {
		respondServiceError(c, err, "CreateRecord: Error from recordService.CreateRecord", "Failed to create medical record.")
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (h *MedicalRecordHandler) ListRecords(c *gin.Context) {
	doctorID, ok := callerClinicianID(c)
	if !ok {
		return
	}
	patientID, ok := parseIDParam(c, "id", "patient")
	if !ok {
		return
	}

	records, err := h.recordService.ListRecords(c.Request.Context(), doctorID, patientID)
	if err != nil {
		respondServiceError(c, err, "ListRecords: Error from recordService.ListRecords", "Failed to retrieve medical records.")
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *MedicalRecordHandler) CreateAnamnesis(c *gin.Context) {
	doctorID, ok := callerClinicianID(c)
	if !ok {
		return
	}
	patientID, ok := parseIDParam(c, "id", "patient")
	if !ok {
		return
	}
	var req services.CreateAnamnesisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "CreateAnamnesis")
		return
	}

	anamnesis, err := h.recordService.CreateAnamnesis(c.Request.Context(), doctorID, patientID, req)
	if err != nil {
		respondServiceError(c, err, "CreateAnamnesis: Error from recordService.CreateAnamnesis", "Failed to create anamnesis.")
		return
	}
	c.JSON(http.StatusCreated, anamnesis)
}

func (h *MedicalRecordHandler) ListAnamneses(c *gin.Context) {
	doctorID, ok := callerClinicianID(c)
	if !ok {
		return
	}
	patientID, ok := parseIDParam(c, "id", "patient")
	if !ok {
		return
	}

	forms, err := h.recordService.ListAnamneses(c.Request.Context(), doctorID, patientID)
	if err != nil {
		respondServiceError(c, err, "ListAnamneses: Error from recordService.ListAnamneses", "Failed to retrieve anamnesis.")
		return
	}
	c.JSON(http.StatusOK, forms)
}
