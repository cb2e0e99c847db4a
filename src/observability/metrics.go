package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	SessionsCreated prometheus.Counter
	TurnsSaved      prometheus.Counter
	Followups       *prometheus.CounterVec
	QuestionTypes   *prometheus.CounterVec
	SaveLatency     prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		SessionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_created_total",
			Help:      "Sessions created in the registry.",
		}),
		TurnsSaved: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_saved_total",
			Help:      "Conversation turns appended to the turn log.",
		}),
		Followups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "followup_detections_total",
			Help:      "Follow-up detector outcomes by reason.",
		}, []string{"reason"}),
		QuestionTypes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_total",
			Help:      "Questions answered by classified type.",
		}, []string{"type"}),
		SaveLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "save_latency_ms",
			Help:      "Latency of a full question/answer save in milliseconds.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
		}),
	}
}

func (m *Metrics) ObserveSaveLatency(d time.Duration) {
	m.SaveLatency.Observe(float64(d.Milliseconds()))
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
