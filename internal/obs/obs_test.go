package obs

import (
	"bytes"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := newLogger(&buf, "json", "warn")
	logger.Info().Msg("hidden")
	logger.Warn().Str("serial", "ABCD1234").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"serial":"ABCD1234"`)
	assert.Contains(t, out, `"level":"warn"`)
}

func TestNewLogger_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer

	logger := newLogger(&buf, "json", "loud")
	logger.Debug().Msg("hidden")
	logger.Info().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewStoreMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()

	m, err := NewStoreMetrics("store", reg)
	require.NoError(t, err)

	m.Checkouts.WithLabelValues("ok").Inc()
	m.ReceiptsIssued.Inc()
	assert.Equal(t, 1, testutil.CollectAndCount(m.Checkouts))

	_, err = NewStoreMetrics("store", reg)
	require.Error(t, err, "collectors registered twice")
}
