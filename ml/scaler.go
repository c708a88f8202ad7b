package ml

import (
	"encoding/json"
	"fmt"
	"math"
)

const (
	ScalerStandard = "standard"
	ScalerMinMax   = "minmax"
)

// Scaler standardizes a feature vector using fitted per-column parameters.
type Scaler struct {
	kind  string
	mean  []float64
	scale []float64
	mins  []float64
	maxs  []float64
}

type scalerFile struct {
	Kind  string    `json:"kind"`
	Mean  []float64 `json:"mean,omitempty"`
	Scale []float64 `json:"scale,omitempty"`
	Min   []float64 `json:"min,omitempty"`
	Max   []float64 `json:"max,omitempty"`
}

// NewStandardScaler builds a scaler computing (x - mean) / scale per column.
func NewStandardScaler(mean, scale []float64) (*Scaler, error) {
	if len(mean) == 0 || len(mean) != len(scale) {
		return nil, fmt.Errorf("%w: mean/scale length mismatch", ErrCorruptArtifact)
	}
	for i, s := range scale {
		if s == 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, fmt.Errorf("%w: invalid scale at column %d", ErrCorruptArtifact, i)
		}
	}
	return &Scaler{
		kind:  ScalerStandard,
		mean:  append([]float64(nil), mean...),
		scale: append([]float64(nil), scale...),
	}, nil
}

// NewMinMaxScaler builds a scaler mapping each column onto [0, 1] by its fitted range.
func NewMinMaxScaler(mins, maxs []float64) (*Scaler, error) {
	if len(mins) == 0 || len(mins) != len(maxs) {
		return nil, fmt.Errorf("%w: min/max length mismatch", ErrCorruptArtifact)
	}
	return &Scaler{
		kind: ScalerMinMax,
		mins: append([]float64(nil), mins...),
		maxs: append([]float64(nil), maxs...),
	}, nil
}

func (s *Scaler) Kind() string { return s.kind }

// Dimensions is the vector length the scaler was fitted on.
func (s *Scaler) Dimensions() int {
	if s.kind == ScalerMinMax {
		return len(s.mins)
	}
	return len(s.mean)
}

func (s *Scaler) Transform(values []float64) ([]float64, error) {
	if len(values) != s.Dimensions() {
		return nil, fmt.Errorf("%w: scaler expects %d features, got %d", ErrDimensionMismatch, s.Dimensions(), len(values))
	}
	if s.kind == ScalerMinMax {
		return NormalizeVector(values, s.mins, s.maxs)
	}
	result := make([]float64, len(values))
	for i, v := range values {
		result[i] = (v - s.mean[i]) / s.scale[i]
	}
	return result, nil
}

// NormalizeFeature min-max scales one value. A zero-width range yields 0.
func NormalizeFeature(value, min, max float64) float64 {
	if max == min {
		return 0
	}
	return (value - min) / (max - min)
}

// NormalizeVector applies NormalizeFeature column by column.
func NormalizeVector(values []float64, mins []float64, maxs []float64) ([]float64, error) {
	if len(values) != len(mins) || len(values) != len(maxs) {
		return nil, fmt.Errorf("%w: values/mins/maxs length mismatch", ErrDimensionMismatch)
	}
	result := make([]float64, len(values))
	for i := range values {
		result[i] = NormalizeFeature(values[i], mins[i], maxs[i])
	}
	return result, nil
}

func decodeScaler(payload []byte) (*Scaler, error) {
	var file scalerFile
	if err := json.Unmarshal(payload, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
	}
	switch file.Kind {
	case ScalerStandard:
		return NewStandardScaler(file.Mean, file.Scale)
	case ScalerMinMax:
		return NewMinMaxScaler(file.Min, file.Max)
	default:
		return nil, fmt.Errorf("%w: unknown scaler kind %q", ErrCorruptArtifact, file.Kind)
	}
}
