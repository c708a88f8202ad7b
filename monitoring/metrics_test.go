package monitoring

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"heartrisk/ml"
)

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&ml.EncodingError{Field: ml.FieldSex, Value: "", Err: ml.ErrUnknownCategory}, ErrorKindEncoding},
		{fmt.Errorf("predict: %w", &ml.InferenceError{Stage: "scale", Err: ml.ErrDimensionMismatch}), ErrorKindInference},
		{context.Canceled, ErrorKindCanceled},
		{errors.New("boom"), ErrorKindInternal},
	}
	for _, tt := range tests {
		if got := ErrorKind(tt.err); got != tt.want {
			t.Errorf("ErrorKind(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestCollectorsGather(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ObservePrediction(ml.RiskHigh, 2*time.Millisecond)
	ObservePredictionError(&ml.EncodingError{Field: ml.FieldSex, Err: ml.ErrUnknownCategory})
	ObserveReload(nil)
	ObserveReload(errors.New("corrupt"))

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := make(map[string]bool)
	for _, f := range families {
		found[f.GetName()] = true
	}
	for _, name := range []string{
		"heartrisk_predictions_total",
		"heartrisk_prediction_errors_total",
		"heartrisk_prediction_latency_seconds",
		"heartrisk_artifact_reloads_total",
	} {
		if !found[name] {
			t.Errorf("expected metric family %s", name)
		}
	}

	if err := Register(reg); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}
