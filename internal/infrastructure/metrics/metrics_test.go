package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.WebhookReceived("products/create", "processed")
	m.WebhookReceived("products/create", "processed")
	m.CaptionResult(true)
	m.CaptionResult(false)
	m.RegistrationResult("shop/redact", false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.webhooks.WithLabelValues("products/create", "processed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.captions.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.captions.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.registrations.WithLabelValues("shop/redact", "failure")))
}

func TestMetrics_IndependentInstances(t *testing.T) {
	// each instance owns its registry, so building twice must not panic
	assert.NotPanics(t, func() {
		NewMetrics()
		NewMetrics()
	})
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.WebhookReceived("x", "y")
		m.CaptionResult(true)
		m.RegistrationResult("x", true)
		m.InstallStep("callback", true)
		m.BillingEvent("checkout.session.completed")
		m.ObserveCaptionWorker(0.1)
	})
	assert.Nil(t, m.Registry())
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.InstallStep("begin", true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `caption_shopify_installs_total{result="success",stage="begin"} 1`)
}
