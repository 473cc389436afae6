package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/enumlive/internal/domain"
)

func TestObserveCountsByStatus(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	live := domain.Live("a.example", "A", 200, "http")
	live.Duration = 120 * time.Millisecond
	m.Observe(live)
	m.Observe(domain.Live("b.example", domain.NoTitle, 404, "https"))
	m.Observe(domain.Down("c.example"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.probesTotal.WithLabelValues("Live")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.probesTotal.WithLabelValues("Down")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.probeDuration))
}

func TestGauges(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	m.SetTotal(42)
	m.SetInFlight(7)

	assert.Equal(t, 42.0, testutil.ToFloat64(m.hostsTotal))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.inFlight))
}

func TestSeriesExistBeforeFirstProbe(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	assert.Equal(t, 2, testutil.CollectAndCount(m.probesTotal))
}

func TestNewRejectsDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	assert.Error(t, err)
}
