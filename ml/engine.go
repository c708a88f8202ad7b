package ml

import (
	"errors"
	"fmt"
	"math"
)

// Prediction is the full outcome of one inference.
type Prediction struct {
	Risk       RiskLabel     `json:"risk"`
	Label      int           `json:"label"`
	Confidence float64       `json:"confidence"`
	Features   FeatureVector `json:"features"`
	Scaled     []float64     `json:"scaled"`
}

// Engine scales a feature vector and classifies it.
type Engine struct {
	scaler     *Scaler
	classifier Classifier
}

// NewEngine pairs a fitted scaler with a classifier.
func NewEngine(scaler *Scaler, classifier Classifier) (*Engine, error) {
	if scaler == nil || classifier == nil {
		return nil, errors.New("engine requires a scaler and a classifier")
	}
	return &Engine{scaler: scaler, classifier: classifier}, nil
}

// Predict returns the risk label for features.
func (e *Engine) Predict(features FeatureVector) (RiskLabel, error) {
	prediction, err := e.Evaluate(features)
	if err != nil {
		return "", err
	}
	return prediction.Risk, nil
}

// Evaluate is Predict with the intermediate vectors and confidence kept.
func (e *Engine) Evaluate(features FeatureVector) (Prediction, error) {
	scaled, err := e.scaler.Transform(features)
	if err != nil {
		return Prediction{}, &InferenceError{Stage: "scale", Err: err}
	}
	for i, v := range scaled {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Prediction{}, &InferenceError{Stage: "scale", Err: fmt.Errorf("non-finite value at column %d", i)}
		}
	}

	label, confidence, err := e.classifier.Predict(scaled)
	if err != nil {
		return Prediction{}, &InferenceError{Stage: "classify", Err: err}
	}
	risk, err := RiskLabelFromCode(label)
	if err != nil {
		return Prediction{}, &InferenceError{Stage: "classify", Err: err}
	}

	return Prediction{
		Risk:       risk,
		Label:      label,
		Confidence: confidence,
		Features:   features.Clone(),
		Scaled:     scaled,
	}, nil
}
