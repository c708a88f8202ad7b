package ml

import "context"

// Classifier is a fitted binary decision function over a scaled feature vector.
// Predict returns the class label and the probability of that label.
type Classifier interface {
	Predict(features []float64) (int, float64, error)
	ModelType() string
	// Dimensions is the declared input width, or 0 when the artifact does not declare one.
	Dimensions() int
}

// ModelProvider is what request handlers depend on.
type ModelProvider interface {
	Predict(ctx context.Context, input RawInput) (Prediction, error)
	Encode(ctx context.Context, input RawInput) (FeatureVector, error)
	Schema() Schema
}
