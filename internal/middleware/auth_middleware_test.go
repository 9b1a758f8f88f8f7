package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"clinic_backend/internal/metrics"
	"clinic_backend/internal/models"
	"clinic_backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	identities map[string]*models.Identity
	err        error
}

func (f fakeResolver) Resolve(_ context.Context, token string) (*models.Identity, error) {
	if f.err != nil {
		return nil, f.err
	}
	if id, ok := f.identities[token]; ok {
		return id, nil
	}
	return nil, fmt.Errorf("%w: unknown token", services.ErrUnauthenticated)
}

func newTestEngine(resolver services.IdentityService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	group := engine.Group("", AuthMiddleware(resolver))
	group.GET("/user", func(c *gin.Context) {
		identity, _ := CurrentIdentity(c)
		c.JSON(http.StatusOK, identity)
	})
	group.GET("/procedures", RequireClinician(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return engine
}

func perform(engine *gin.Engine, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	clinicianID := int64(4)
	engine := newTestEngine(fakeResolver{identities: map[string]*models.Identity{
		"doctor": {AccountID: 1, ClinicianID: &clinicianID, Email: "dr@clinic.test", AccountType: models.AccountTypeDoctor},
		"staff":  {AccountID: 2, Email: "desk@clinic.test", AccountType: models.AccountTypeStaff},
	}})

	cases := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"missing header", "/user", "", http.StatusUnauthorized},
		{"wrong scheme", "/user", "Basic abc", http.StatusUnauthorized},
		{"unknown token", "/user", "Bearer nope", http.StatusUnauthorized},
		{"staff reads own account", "/user", "Bearer staff", http.StatusOK},
		{"staff blocked from clinical routes", "/procedures", "Bearer staff", http.StatusForbidden},
		{"clinician allowed", "/procedures", "Bearer doctor", http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := perform(engine, tc.path, tc.header)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestAuthMiddlewareStoresIdentity(t *testing.T) {
	engine := newTestEngine(fakeResolver{identities: map[string]*models.Identity{
		"staff": {AccountID: 2, Email: "desk@clinic.test", AccountType: models.AccountTypeStaff},
	}})

	w := perform(engine, "/user", "Bearer staff")
	require.Equal(t, http.StatusOK, w.Code)
	var got models.Identity
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, int64(2), got.AccountID)
	assert.Equal(t, "desk@clinic.test", got.Email)
}

func TestAuthMiddlewareErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{services.ErrAccountNotFound, http.StatusUnauthorized},
		{services.ErrClinicianNotFound, http.StatusForbidden},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := perform(newTestEngine(fakeResolver{err: tc.err}), "/user", "Bearer any")
		assert.Equal(t, tc.want, w.Code, tc.err.Error())
	}
}

func TestMetricsMiddlewareObservesMatchedRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	engine := gin.New()
	engine.Use(Metrics(metrics.NewClinicMetrics(reg)))
	engine.GET("/procedures/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	perform(engine, "/procedures/7", "")
	perform(engine, "/nowhere", "")

	families, err := reg.Gather()
	require.NoError(t, err)
	routes := map[string]uint64{}
	for _, mf := range families {
		if mf.GetName() != "clinic_http_request_duration_seconds" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "route" {
					routes[label.GetValue()] += metric.GetHistogram().GetSampleCount()
				}
			}
		}
	}
	assert.Equal(t, uint64(1), routes["/procedures/:id"])
	assert.Equal(t, uint64(1), routes["unmatched"])
}
