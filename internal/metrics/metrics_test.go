package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(IssueTransitionsTotal.WithLabelValues("accept", "ok"))
	IssueTransitionsTotal.WithLabelValues("accept", "ok").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(IssueTransitionsTotal.WithLabelValues("accept", "ok")))
}
