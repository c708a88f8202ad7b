package main

import (
	"errors"
	"testing"

	"heartrisk/ml"
)

func TestPredictBundledModels(t *testing.T) {
	input := ml.RawInput{
		BMI: 25, SleepHours: 7, PhysicalHealthBadDays: 5, MentalHealthBadDays: 5,
		HadAngina: "No", HadArthritis: "No", AgeCategory: "Middle-Aged", Sex: "Male", HadDiabetes: "No",
	}
	prediction, err := predict("../../models", input, ml.PredictorOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prediction.Risk != ml.RiskLow {
		t.Fatalf("expected Low, got %s", prediction.Risk)
	}

	input.Sex = "male"
	_, err = predict("../../models", input, ml.PredictorOptions{})
	var encErr *ml.EncodingError
	if !errors.As(err, &encErr) || encErr.Field != ml.FieldSex {
		t.Fatalf("expected Sex encoding error, got %v", err)
	}
}

func TestPredictMissingArtifacts(t *testing.T) {
	_, err := predict(t.TempDir(), ml.RawInput{}, ml.PredictorOptions{})
	var loadErr *ml.ArtifactLoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected ArtifactLoadError, got %v", err)
	}
}
