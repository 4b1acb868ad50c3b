package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordRun(t *testing.T) {
	before := testutil.ToFloat64(RunsTotal.WithLabelValues("phrase", "ok"))

	RecordRun("phrase", "ok", 20*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(RunsTotal.WithLabelValues("phrase", "ok")))
}

func TestRecordRanking(t *testing.T) {
	before := testutil.ToFloat64(RankerNonConverged)

	RecordRanking(12, true)
	assert.Equal(t, before, testutil.ToFloat64(RankerNonConverged))

	RecordRanking(50, false)
	assert.Equal(t, before+1, testutil.ToFloat64(RankerNonConverged))
}

func TestRecordFallback(t *testing.T) {
	c := StageFallbacks.WithLabelValues("ranking", "graph")
	before := testutil.ToFloat64(c)

	RecordFallback("ranking", "graph")
	RecordFallback("ranking", "graph")

	assert.Equal(t, before+2, testutil.ToFloat64(c))
}

func TestCollectorsRegistered(t *testing.T) {
	assert.Positive(t, testutil.CollectAndCount(RankerIterations))
	assert.Positive(t, testutil.CollectAndCount(Candidates))
}
