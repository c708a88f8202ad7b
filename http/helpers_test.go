package http

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"heartrisk/db"
	"heartrisk/ml"
	"heartrisk/monitoring"
)

func baselineBody() map[string]any {
	return map[string]any{
		"bmi":                  25.0,
		"sleep_hours":          7.0,
		"physical_health_days": 5,
		"mental_health_days":   5,
		"had_angina":           "No",
		"had_arthritis":        "No",
		"age_category":         "Middle-Aged",
		"sex":                  "Male",
		"had_diabetes":         "No",
	}
}

func highRiskBody() map[string]any {
	return map[string]any{
		"bmi":                  35.0,
		"sleep_hours":          5.0,
		"physical_health_days": 10,
		"mental_health_days":   15,
		"had_angina":           "Yes",
		"had_arthritis":        "Yes",
		"age_category":         "Old",
		"sex":                  "Male",
		"had_diabetes":         "Yes",
	}
}

func bundledPredictor(t *testing.T) *ml.Predictor {
	t.Helper()
	artifacts, err := ml.LoadArtifacts("../models")
	if err != nil {
		t.Fatalf("load artifacts: %v", err)
	}
	predictor, err := ml.NewPredictor(artifacts, ml.PredictorOptions{CacheSize: 16})
	if err != nil {
		t.Fatalf("new predictor: %v", err)
	}
	return predictor
}

type memoryHistory struct {
	mu      sync.Mutex
	records []db.PredictionRecord
}

func (m *memoryHistory) SavePrediction(ctx context.Context, record db.PredictionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}

func (m *memoryHistory) RecentPredictions(ctx context.Context, limit int) ([]db.PredictionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]db.PredictionRecord, 0, limit)
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

func (m *memoryHistory) CountByRisk(ctx context.Context) (map[ml.RiskLabel]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[ml.RiskLabel]int)
	for _, record := range m.records {
		if record.Risk != "" {
			counts[record.Risk]++
		}
	}
	return counts, nil
}

func (m *memoryHistory) all() []db.PredictionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]db.PredictionRecord(nil), m.records...)
}

type recordingStream struct {
	mu     sync.Mutex
	events []monitoring.PredictionMessage
}

func (s *recordingStream) PublishPrediction(event monitoring.PredictionMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingStream) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "not supported", http.StatusNotImplemented)
}

func (s *recordingStream) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// stubPredictor fails every call with err.
type stubPredictor struct {
	err error
}

func (s stubPredictor) Predict(ctx context.Context, input ml.RawInput) (ml.Prediction, error) {
	return ml.Prediction{}, s.err
}

func (s stubPredictor) Encode(ctx context.Context, input ml.RawInput) (ml.FeatureVector, error) {
	return nil, s.err
}

func (s stubPredictor) Schema() ml.Schema {
	return ml.Schema{ModelType: "stub"}
}
