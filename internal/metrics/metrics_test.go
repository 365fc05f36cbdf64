package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Godatcode/DevFlow-sub004/internal/bus"
	"github.com/Godatcode/DevFlow-sub004/internal/notify"
)

var (
	_ bus.Metrics    = BusMetrics{}
	_ notify.Metrics = NotifyMetrics{}
)

func TestCountersAppearOnScrapeEndpoint(t *testing.T) {
	BusMetrics{}.IncPublished("workflow.events")
	BusMetrics{}.IncDropped("workflow.events", "malformed")
	NotifyMetrics{}.IncDeliverySuccess("slack")
	NotifyMetrics{}.IncEscalation()
	NotifyMetrics{}.ObserveDispatch("slack", 5*time.Millisecond)

	ts := httptest.NewServer(promhttp.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := string(body)
	assert.Contains(t, out, "devflow_bus_events_published_total")
	assert.Contains(t, out, "devflow_bus_events_dropped_total")
	assert.Contains(t, out, "devflow_notify_deliveries_sent_total")
	assert.Contains(t, out, "devflow_notify_escalations_total")
	assert.Contains(t, out, "devflow_notify_dispatch_latency_seconds")
}
