package ml

import (
	"errors"
	"math"
	"testing"
)

func TestStandardScalerTransform(t *testing.T) {
	scaler, err := NewStandardScaler([]float64{10, 0}, []float64{2, 0.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	scaled, err := scaler.Transform([]float64{14, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scaled[0] != 2 || scaled[1] != 2 {
		t.Fatalf("expected [2 2], got %v", scaled)
	}
}

func TestMinMaxScalerTransform(t *testing.T) {
	scaler, err := NewMinMaxScaler([]float64{10, 0, 5}, []float64{50, 30, 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	scaled, err := scaler.Transform([]float64{30, 15, 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{0.5, 0.5, 0}
	for i := range want {
		if math.Abs(scaled[i]-want[i]) > 1e-12 {
			t.Fatalf("expected %v, got %v", want, scaled)
		}
	}
}

func TestScalerDimensionMismatch(t *testing.T) {
	scaler, err := NewStandardScaler(make([]float64, 10), ones(10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := scaler.Transform(make([]float64, 9)); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestScalerRejectsCorruptParameters(t *testing.T) {
	if _, err := NewStandardScaler([]float64{0, 0}, []float64{1}); !errors.Is(err, ErrCorruptArtifact) {
		t.Fatalf("expected corrupt artifact, got %v", err)
	}
	if _, err := NewStandardScaler([]float64{0}, []float64{0}); !errors.Is(err, ErrCorruptArtifact) {
		t.Fatalf("expected corrupt artifact for zero scale, got %v", err)
	}
	if _, err := decodeScaler([]byte(`{"kind":"robust"}`)); !errors.Is(err, ErrCorruptArtifact) {
		t.Fatalf("expected corrupt artifact for unknown kind, got %v", err)
	}
}
