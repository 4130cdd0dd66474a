package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusCounters(t *testing.T) {
	p := NewPrometheus()

	p.AdmissionOutcome("accepted")
	p.AdmissionOutcome("accepted")
	p.AdmissionOutcome("rejected")
	p.SyncAttempt()
	p.SyncAttempt()
	p.SyncResult(false)
	p.EmailResult(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(p.admissions.WithLabelValues("accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.admissions.WithLabelValues("rejected")))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.syncTries))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.syncs.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.emails.WithLabelValues("success")))
}
