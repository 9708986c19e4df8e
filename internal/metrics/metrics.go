package metrics

import (
	"time"

	"github.com/fewx/gfsproc/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/rs/zerolog/log"
)

// Recorder collects per-run metrics. Each run gets its own registry so a
// push only carries the stages of that run.
type Recorder struct {
	registry *prometheus.Registry

	stageDuration *prometheus.HistogramVec
	stageOutcomes *prometheus.CounterVec
	lastSuccess   prometheus.Gauge
	runDuration   prometheus.Gauge
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gfsproc_stage_duration_seconds",
			Help:    "Duration of each workflow stage.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 2400, 3600},
		}, []string{"stage"}),
		stageOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gfsproc_stage_outcomes_total",
			Help: "Stage outcomes by stage and outcome.",
		}, []string{"stage", "outcome"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gfsproc_last_success_timestamp_seconds",
			Help: "Unix time of the last run where every stage succeeded.",
		}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gfsproc_run_duration_seconds",
			Help: "Duration of the last run.",
		}),
	}

	r.registry.MustRegister(r.stageDuration, r.stageOutcomes, r.lastSuccess, r.runDuration)
	return r
}

func (r *Recorder) ObserveStage(record models.StageRecord) {
	r.stageDuration.WithLabelValues(record.Name).Observe(float64(record.DurationMs) / 1000)
	r.stageOutcomes.WithLabelValues(record.Name, string(record.Outcome)).Inc()
}

func (r *Recorder) ObserveRun(report *models.RunReport, finishedAt time.Time) {
	r.runDuration.Set(float64(report.DurationMs) / 1000)
	if report.OverallStatus == "Success" {
		r.lastSuccess.Set(float64(finishedAt.Unix()))
	}
}

func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Push sends the collected metrics to a Pushgateway. An empty url is a no-op.
// Failures are logged only; metrics never fail a run.
func (r *Recorder) Push(url, job, cycle string) {
	if url == "" {
		return
	}

	err := push.New(url, job).
		Gatherer(r.registry).
		Grouping("cycle", cycle).
		Push()
	if err != nil {
		log.Warn().Err(err).Str("pushgateway", url).Msg("Failed to push metrics")
		return
	}
	log.Debug().Str("pushgateway", url).Msg("Pushed run metrics")
}
