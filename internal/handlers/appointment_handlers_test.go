package handlers

import (
	"net/http"
	"testing"

	"clinic_backend/internal/services"

	"github.com/stretchr/testify/assert"
)

func TestUpdateAppointmentWithEmptyBody(t *testing.T) {
	h := NewAppointmentHandler(services.NewAppointmentService(nil, nil, nil))
	r := newTestRouter(clinicianIdentity())
	r.PUT("/appointments/:id", h.UpdateAppointment)

	w := doJSON(r, http.MethodPut, "/appointments/8", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Nothing to update.", decodeError(t, w).Error.Message)

	w = doJSON(r, http.MethodPut, "/appointments/abc", map[string]interface{}{"status": "DONE"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid appointment ID format.", decodeError(t, w).Error.Message)
}
