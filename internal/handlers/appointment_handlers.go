package handlers

import (
	"net/http"

	"clinic_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type AppointmentHandler struct {
	appointmentService services.AppointmentService
}

func NewAppointmentHandler(as services.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{appointmentService: as}
}

func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	doctorID, ok := callerClinicianID(c)
	if !ok {
		return
	}
	var req services.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "CreateAppointment")
		return
	}

	appointment, err := h.appointmentService.CreateAppointment(c.Request.Context(), doctorID, req)
	if err != nil {
		respondServiceError(c, err, "CreateAppointment: Error from appointmentService.CreateAppointment", "Failed to create appointment.")
		return
	}
	c.JSON(http.StatusCreated, appointment)
}

func (h *AppointmentHandler) ListAppointments(c *gin.Context) {
	doctorID, ok := callerClinicianID(c)
	if !ok {
		return
	}

	appointments, err := h.appointmentService.ListAppointments(c.Request.Context(), doctorID)
	if err != nil {
		respondServiceError(c, err, "ListAppointments: Error from appointmentService.ListAppointments", "Failed to retrieve appointments.")
		return
	}
	c.JSON(http.StatusOK, appointments)
}

// UpdateAppointment applies a partial update; only whitelisted fields are accepted.
func (h *AppointmentHandler) UpdateAppointment(c *gin.Context) {
	doctorID, ok := callerClinicianID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "appointment")
	if !ok {
		return
	}
	var req services.UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "UpdateAppointment")
		return
	}

	appointment, err := h.appointmentService.UpdateAppointment(c.Request.Context(), doctorID, id, req)
	if err != nil {
		respondServiceError(c, err, "UpdateAppointment: Error from appointmentService.UpdateAppointment for ID "+c.Param("id"), "Failed to update appointment.")
		return
	}
	c.JSON(http.StatusOK, appointment)
}

func (h *AppointmentHandler) DeleteAppointment(c *gin.Context) {
	doctorID, ok := callerClinicianID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "appointment")
	if !ok {
		return
	}

	if err := h.appointmentService.DeleteAppointment(c.Request.Context(), doctorID, id); err != nil {
		respondServiceError(c, err, "DeleteAppointment: Error from appointmentService.DeleteAppointment for ID "+c.Param("id"), "Failed to delete appointment.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Appointment deleted successfully"})
}
