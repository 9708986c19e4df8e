package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fewx/gfsproc/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveStage(t *testing.T) {
	r := NewRecorder()

	r.ObserveStage(models.StageRecord{Name: "start", Outcome: models.OutcomeSuccess, DurationMs: 1500})
	r.ObserveStage(models.StageRecord{Name: "stop_vmss", Outcome: models.OutcomeDegraded, DurationMs: 200})
	r.ObserveStage(models.StageRecord{Name: "stop_vmss", Outcome: models.OutcomeDegraded, DurationMs: 300})

	assert.Equal(t, float64(1), testutil.ToFloat64(r.stageOutcomes.WithLabelValues("start", "success")))
	assert.Equal(t, float64(2), testutil.ToFloat64(r.stageOutcomes.WithLabelValues("stop_vmss", "degraded")))
	assert.Equal(t, 2, testutil.CollectAndCount(r.stageDuration))
}

func TestObserveRunOnlyMarksSuccess(t *testing.T) {
	r := NewRecorder()
	now := time.Unix(1700000000, 0)

	r.ObserveRun(&models.RunReport{OverallStatus: "Degraded", DurationMs: 60000}, now)
	assert.Equal(t, float64(0), testutil.ToFloat64(r.lastSuccess))
	assert.Equal(t, float64(60), testutil.ToFloat64(r.runDuration))

	r.ObserveRun(&models.RunReport{OverallStatus: "Success", DurationMs: 1000}, now)
	assert.Equal(t, float64(1700000000), testutil.ToFloat64(r.lastSuccess))
}

func TestPush(t *testing.T) {
	var hits atomic.Int32
	var path atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		hits.Add(1)
		path.Store(req.URL.Path)
		io.Copy(io.Discard, req.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewRecorder()
	r.ObserveStage(models.StageRecord{Name: "start", Outcome: models.OutcomeSuccess})
	r.Push(srv.URL, "gfsproc", "06")

	require.Equal(t, int32(1), hits.Load())
	assert.True(t, strings.HasPrefix(path.Load().(string), "/metrics/job/gfsproc"))
	assert.Contains(t, path.Load().(string), "cycle/06")
}

func TestPushWithoutURLIsNoop(t *testing.T) {
	NewRecorder().Push("", "gfsproc", "00")
}
