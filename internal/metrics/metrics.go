// Package metrics holds the prometheus collectors of the pipeline and scheduler.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"remitapi/internal/model"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	documentsProcessed prometheus.Counter
	documentsFailed    prometheus.Counter
	jobsInflight       prometheus.Gauge
	extractions        *prometheus.CounterVec
	pipelineDuration   *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		documentsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "remit_scheduler_documents_processed_total",
			Help: "Documents the scheduler drove through the pipeline successfully.",
		}),
		documentsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "remit_scheduler_documents_failed_total",
			Help: "Documents whose pipeline run failed in the scheduler.",
		}),
		jobsInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "remit_scheduler_jobs_inflight",
			Help: "Entries currently held in the in-flight job registry.",
		}),
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "remit_extraction_total",
			Help: "Claim block extractions by payload source.",
		}, []string{"source"}),
		pipelineDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "remit_pipeline_duration_seconds",
			Help:    "Duration of one document pipeline run.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"status"}),
	}

	for _, c := range []prometheus.Collector{
		m.documentsProcessed, m.documentsFailed, m.jobsInflight, m.extractions, m.pipelineDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) DocumentProcessed() {
	if m != nil {
		m.documentsProcessed.Inc()
	}
}

func (m *Metrics) DocumentFailed() {
	if m != nil {
		m.documentsFailed.Inc()
	}
}

func (m *Metrics) SetInflight(n int64) {
	if m != nil {
		m.jobsInflight.Set(float64(n))
	}
}

// Extraction counts one block extraction; it matches extraction.WithObserver.
func (m *Metrics) Extraction(src model.ExtractionSource) {
	if m != nil {
		m.extractions.WithLabelValues(string(src)).Inc()
	}
}

// PipelineRun observes a finished run labelled by the resulting document status,
// or "error" when the run failed.
func (m *Metrics) PipelineRun(status string, d time.Duration) {
	if m != nil {
		m.pipelineDuration.WithLabelValues(status).Observe(d.Seconds())
	}
}
