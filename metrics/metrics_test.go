package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndGather(t *testing.T) {
	MustRegister()

	ListingFetches.Inc()
	RowsInserted.Add(3)
	RequestsTotal.WithLabelValues("GET", "/threads", "200").Inc()

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, family := range families {
		byName[family.GetName()] = family
	}

	fetches := byName["threadfeed_listing_fetches_total"]
	require.NotNil(t, fetches)
	assert.Equal(t, dto.MetricType_COUNTER, fetches.GetType())
	assert.Equal(t, 1.0, fetches.GetMetric()[0].GetCounter().GetValue())

	rows := byName["threadfeed_rows_inserted_total"]
	require.NotNil(t, rows)
	assert.Equal(t, 3.0, rows.GetMetric()[0].GetCounter().GetValue())

	requests := byName["http_requests_total"]
	require.NotNil(t, requests)
	require.Len(t, requests.GetMetric(), 1)
	labels := requests.GetMetric()[0].GetLabel()
	values := make(map[string]string, len(labels))
	for _, label := range labels {
		values[label.GetName()] = label.GetValue()
	}
	assert.Equal(t, "GET", values["method"])
	assert.Equal(t, "/threads", values["path"])
	assert.Equal(t, "200", values["status"])
}
