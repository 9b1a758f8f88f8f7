package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, metric := range mf.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue next
				}
			}
			return metric.GetCounter().GetValue()
		}
	}
	return 0
}

func TestClinicMetricsCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewClinicMetrics(reg)

	m.ObserveProcedure("DONE", "created")
	m.ObserveProcedure("DONE", "created")
	m.ObserveProcedure("BUDGET", "rejected")
	m.ObserveStockDecrement(true)
	m.ObserveStockDecrement(false)
	m.ObserveIdentityLookup("hit")
	m.ObserveRequest("POST", "/api/v1/procedures", 201, 0.02)

	assert.Equal(t, 2.0, counterValue(t, reg, "clinic_procedures_created_total", map[string]string{"mode": "DONE", "outcome": "created"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "clinic_procedures_created_total", map[string]string{"mode": "BUDGET", "outcome": "rejected"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "clinic_inventory_stock_decrements_total", map[string]string{"result": "insufficient"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "clinic_identity_cache_lookups_total", map[string]string{"result": "hit"}))
}

func TestClinicMetricsNilSafe(t *testing.T) {
	var m *ClinicMetrics
	m.ObserveProcedure("DONE", "created")
	m.ObserveStockDecrement(true)
	m.ObserveIdentityLookup("miss")
	m.ObserveRequest("GET", "/ping", 200, 0.001)
}
