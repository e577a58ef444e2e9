package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveRouteCountsByOutcome(t *testing.T) {
	before := testutil.ToFloat64(RouteRequests.WithLabelValues("test_plan", OutcomeError))

	ObserveRoute("test_plan", errors.New("boom"), 10*time.Millisecond)
	ObserveRoute("test_plan", nil, 10*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(RouteRequests.WithLabelValues("test_plan", OutcomeError)))
	assert.GreaterOrEqual(t, testutil.ToFloat64(RouteRequests.WithLabelValues("test_plan", OutcomeSuccess)), 1.0)
}

func TestObserveBackendCountsByDomain(t *testing.T) {
	before := testutil.ToFloat64(BackendCalls.WithLabelValues("test_domain", OutcomeSuccess))

	ObserveBackend("test_domain", nil, time.Second)

	assert.Equal(t, before+1, testutil.ToFloat64(BackendCalls.WithLabelValues("test_domain", OutcomeSuccess)))
}
