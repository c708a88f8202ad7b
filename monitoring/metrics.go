package monitoring

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"heartrisk/ml"
)

// Error kinds used as the "kind" label of PredictionErrors.
const (
	ErrorKindBadRequest = "bad_request"
	ErrorKindEncoding   = "encoding"
	ErrorKindInference  = "inference"
	ErrorKindCanceled   = "canceled"
	ErrorKindInternal   = "internal"
)

var (
	// Predictions served, by risk label.
	Predictions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "heartrisk_predictions_total",
		Help: "Total number of successful risk predictions",
	}, []string{"risk"})

	// Failed predictions, by error kind.
	PredictionErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "heartrisk_prediction_errors_total",
		Help: "Total number of failed risk predictions",
	}, []string{"kind"})

	PredictionLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "heartrisk_prediction_latency_seconds",
		Help:    "Latency of encode plus inference",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
	})

	ArtifactReloads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "heartrisk_artifact_reloads_total",
		Help: "Artifact set reloads, by result",
	}, []string{"result"})

	WebSocketClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "heartrisk_websocket_clients",
		Help: "Connected prediction stream subscribers",
	})
)

var initOnce sync.Once

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(collectors()...)
	})
}

// Register adds the collectors to reg. Used by tests with a private registry.
func Register(reg prometheus.Registerer) error {
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		Predictions,
		PredictionErrors,
		PredictionLatency,
		ArtifactReloads,
		WebSocketClients,
	}
}

func ObservePrediction(risk ml.RiskLabel, elapsed time.Duration) {
	Predictions.WithLabelValues(string(risk)).Inc()
	PredictionLatency.Observe(elapsed.Seconds())
}

// ObservePredictionError classifies err and counts it.
func ObservePredictionError(err error) {
	PredictionErrors.WithLabelValues(ErrorKind(err)).Inc()
}

// ErrorKind maps a prediction failure onto a metric label.
func ErrorKind(err error) string {
	var encErr *ml.EncodingError
	var infErr *ml.InferenceError
	switch {
	case errors.As(err, &encErr):
		return ErrorKindEncoding
	case errors.As(err, &infErr):
		return ErrorKindInference
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrorKindCanceled
	default:
		return ErrorKindInternal
	}
}

// ObserveReload is shaped to be used as ml.WatchOptions.OnReload.
func ObserveReload(err error) {
	if err != nil {
		ArtifactReloads.WithLabelValues("failure").Inc()
		return
	}
	ArtifactReloads.WithLabelValues("success").Inc()
}
