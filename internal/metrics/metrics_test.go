package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-circulation-backend/internal/circulation"
)

type recorder struct{ got []circulation.Notice }

func (r *recorder) Notify(n circulation.Notice) { r.got = append(r.got, n) }

func TestNotifier_CountsAndForwards(t *testing.T) {
	m := New()
	next := &recorder{}
	n := m.Notifier(next)

	n.Notify(circulation.Notice{Event: circulation.EventApprove, RequestID: "r-1"})
	n.Notify(circulation.Notice{Event: circulation.EventReturn, RequestID: "r-1"})
	n.Notify(circulation.Notice{Event: circulation.EventApprove, RequestID: "r-2"})

	assert.Len(t, next.got, 3)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("approve")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("return")))
}

func TestObserveFailure(t *testing.T) {
	m := New()
	m.ObserveFailure(circulation.ErrNoCopiesAvailable)
	m.ObserveFailure(errors.New("boom"))
	m.ObserveFailure(nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("no_copies_available")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("internal")))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.ObserveFailure(circulation.ErrNotFound) })
}

func TestHandler(t *testing.T) {
	m := New()
	m.Notifier(nil).Notify(circulation.Notice{Event: circulation.EventExpire})

	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, "/metrics", nil)
	require.NoError(t, err)
	m.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `circulation_transitions_total{event="expire"} 1`))
}
