package ml

import (
	"os"
	"path/filepath"
	"testing"
)

const modelsDir = "../models"

func baselineInput() RawInput {
	return RawInput{
		BMI:                   25.0,
		SleepHours:            7.0,
		PhysicalHealthBadDays: 5,
		MentalHealthBadDays:   5,
		HadAngina:             "No",
		HadArthritis:          "No",
		AgeCategory:           "Middle-Aged",
		Sex:                   "Male",
		HadDiabetes:           "No",
	}
}

func loadBundled(t *testing.T) *Artifacts {
	t.Helper()
	artifacts, err := LoadArtifacts(modelsDir)
	if err != nil {
		t.Fatalf("load bundled artifacts: %v", err)
	}
	return artifacts
}

// fixtureArtifacts builds an artifact set with an identity scaler.
func fixtureArtifacts(t *testing.T, ageCategories, diabetesCategories []string, classifier Classifier) *Artifacts {
	t.Helper()
	yesNo := mustLabel(t, []string{"No", "Yes"})
	sex := mustLabel(t, []string{"Female", "Male"})
	age, err := NewOneHotEncoder(ageCategories)
	if err != nil {
		t.Fatalf("age encoder: %v", err)
	}
	diabetes, err := NewOneHotEncoder(diabetesCategories)
	if err != nil {
		t.Fatalf("diabetes encoder: %v", err)
	}
	scaler, err := NewStandardScaler(make([]float64, FeatureCount), ones(FeatureCount))
	if err != nil {
		t.Fatalf("scaler: %v", err)
	}
	if classifier == nil {
		classifier, err = NewLogisticRegression(ones(FeatureCount), 0, 0.5)
		if err != nil {
			t.Fatalf("classifier: %v", err)
		}
	}
	artifacts, err := NewArtifacts(yesNo, yesNo, sex, age, diabetes, scaler, classifier)
	if err != nil {
		t.Fatalf("artifacts: %v", err)
	}
	return artifacts
}

func mustLabel(t *testing.T, classes []string) *LabelEncoder {
	t.Helper()
	enc, err := NewLabelEncoder(classes)
	if err != nil {
		t.Fatalf("label encoder %v: %v", classes, err)
	}
	return enc
}

func ones(n int) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = 1
	}
	return values
}

// copyModels copies the bundled artifacts into a fresh directory.
func copyModels(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, file := range DefaultArtifactFiles() {
		payload, err := os.ReadFile(filepath.Join(modelsDir, file))
		if err != nil {
			t.Fatalf("read %s: %v", file, err)
		}
		if err := os.WriteFile(filepath.Join(dir, file), payload, 0o600); err != nil {
			t.Fatalf("write %s: %v", file, err)
		}
	}
	return dir
}
