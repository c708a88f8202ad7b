package ml

import (
	"fmt"
)

// LogisticRegression is a fitted binary logistic model.
type LogisticRegression struct {
	coefficients []float64
	intercept    float64
	threshold    float64
}

// NewLogisticRegression builds a linear model with one coefficient per column.
func NewLogisticRegression(coefficients []float64, intercept, threshold float64) (*LogisticRegression, error) {
	if len(coefficients) == 0 {
		return nil, fmt.Errorf("%w: logistic model has no coefficients", ErrCorruptArtifact)
	}
	return &LogisticRegression{
		coefficients: append([]float64(nil), coefficients...),
		intercept:    intercept,
		threshold:    defaultThreshold(threshold),
	}, nil
}

func (m *LogisticRegression) ModelType() string { return ModelLogisticRegression }

func (m *LogisticRegression) Dimensions() int { return len(m.coefficients) }

func (m *LogisticRegression) Predict(features []float64) (int, float64, error) {
	if len(features) != len(m.coefficients) {
		return 0, 0, fmt.Errorf("%w: model expects %d features, got %d", ErrDimensionMismatch, len(m.coefficients), len(features))
	}
	z := m.intercept
	for i, w := range m.coefficients {
		z += w * features[i]
	}
	return decide(sigmoid(z), m.threshold)
}
