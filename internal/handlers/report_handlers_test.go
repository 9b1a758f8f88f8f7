package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"clinic_backend/internal/models"
	"clinic_backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReportService struct{}

func (fakeReportService) GetDayReport(_ context.Context, _ *models.Identity, date string) (*models.DayReport, error) {
	if date == "17-10-2026" {
		return nil, errors.Join(services.ErrValidation, errors.New("date must be YYYY-MM-DD"))
	}
	margin := 40.0
	return &models.DayReport{
		Date:         date,
		TotalRecords: 2,
		Totals:       models.DayReportTotals{TotalCost: 60, Revenue: 100, TotalProfit: 40, AvgMarginPercent: &margin},
		ByProfessional: []models.ProfessionalDayTotals{
			{ProfessionalID: 3, TotalCost: 60, FinalPrice: 100, ProfitValue: 40, MarginPercent: &margin},
		},
	}, nil
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

func TestDayReportWireShape(t *testing.T) {
	h := NewReportHandler(fakeReportService{})
	r := newTestRouter(clinicianIdentity())
	r.GET("/relatorios/dia/:date", h.GetDayReport)

	w := doJSON(r, http.MethodGet, "/relatorios/dia/2026-10-17", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "2026-10-17", body["data"])
	assert.Equal(t, float64(2), body["total_registros"])
	totals := body["totais"].(map[string]interface{})
	assert.Equal(t, float64(100), totals["faturamento"])
	assert.Equal(t, float64(40), totals["margem_media_percentual"])
	rows := body["por_profissional"].([]interface{})
	require.Len(t, rows, 1)
	assert.Equal(t, float64(3), rows[0].(map[string]interface{})["profissional_id"])

	w = doJSON(r, http.MethodGet, "/relatorios/dia/17-10-2026", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthEndpoints(t *testing.T) {
	r := newTestRouter(nil)
	healthy := NewHealthHandler(fakePinger{})
	r.GET("/ping", healthy.Ping)
	r.GET("/healthz", healthy.Healthz)
	r.GET("/healthz-down", NewHealthHandler(fakePinger{err: errors.New("refused")}).Healthz)

	w := doJSON(r, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())

	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, doJSON(r, http.MethodGet, "/healthz-down", nil).Code)
}
