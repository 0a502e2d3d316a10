package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersRegistered(t *testing.T) {
	before := testutil.ToFloat64(PublishAttempts.WithLabelValues("twitter", "ok"))
	PublishAttempts.WithLabelValues("twitter", Result(nil)).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(PublishAttempts.WithLabelValues("twitter", "ok")))

	families, err := Registry.Gather()
	assert.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "social_publish_attempts_total")
}

func TestResult(t *testing.T) {
	assert.Equal(t, "ok", Result(nil))
	assert.Equal(t, "error", Result(errors.New("boom")))
}
