package ml

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func newBundledPredictor(t *testing.T, cacheSize int) *Predictor {
	t.Helper()
	predictor, err := NewPredictor(loadBundled(t), PredictorOptions{CacheSize: cacheSize})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return predictor
}

func TestPredictorPredict(t *testing.T) {
	predictor := newBundledPredictor(t, 0)
	prediction, err := predictor.Predict(context.Background(), baselineInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prediction.Risk != RiskLow || prediction.Label != 0 {
		t.Fatalf("expected Low/0, got %s/%d", prediction.Risk, prediction.Label)
	}
	assertVector(t, prediction.Features, []float64{25, 0, 7, 5, 0, 5, 0, 0, 1, 1})
}

func TestPredictorCachedResultIsIsolated(t *testing.T) {
	predictor := newBundledPredictor(t, 8)
	ctx := context.Background()

	first, err := predictor.Predict(ctx, baselineInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first.Features[0] = -1

	second, err := predictor.Predict(ctx, baselineInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Features[0] != 25 {
		t.Fatalf("cached prediction was mutated through a previous result: %v", second.Features)
	}
	if second.Risk != RiskLow {
		t.Fatalf("expected Low, got %s", second.Risk)
	}
}

func TestPredictorCancelledContext(t *testing.T) {
	predictor := newBundledPredictor(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := predictor.Predict(ctx, baselineInput()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPredictorEncodingErrorIsNotCached(t *testing.T) {
	predictor := newBundledPredictor(t, 8)
	input := baselineInput()
	input.Sex = ""
	for i := 0; i < 2; i++ {
		_, err := predictor.Predict(context.Background(), input)
		var encErr *EncodingError
		if !errors.As(err, &encErr) || encErr.Field != FieldSex {
			t.Fatalf("expected Sex EncodingError, got %v", err)
		}
	}
}

func TestPredictorConcurrent(t *testing.T) {
	predictor := newBundledPredictor(t, 16)
	inputs := []RawInput{baselineInput()}
	high := baselineInput()
	high.HadAngina, high.AgeCategory, high.BMI = "Yes", "Old", 35
	inputs = append(inputs, high)

	want := make([]RiskLabel, len(inputs))
	for i, input := range inputs {
		prediction, err := predictor.Predict(context.Background(), input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want[i] = prediction.Risk
	}

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for n := 0; n < 50; n++ {
				idx := (g + n) % len(inputs)
				prediction, err := predictor.Predict(context.Background(), inputs[idx])
				if err != nil {
					errs <- err
					return
				}
				if prediction.Risk != want[idx] {
					errs <- errors.New("prediction changed under concurrency")
					return
				}
			}
		}(g)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}

func TestPredictorSwap(t *testing.T) {
	predictor := newBundledPredictor(t, 4)

	model, err := NewLogisticRegression(make([]float64, FeatureCount), 5, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	alwaysHigh := fixtureArtifacts(t,
		[]string{"Middle-Aged", "Old", "Young"},
		[]string{"Borderline", "No", "Yes"},
		model,
	)
	if err := predictor.Swap(alwaysHigh); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	prediction, err := predictor.Predict(context.Background(), baselineInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prediction.Risk != RiskHigh {
		t.Fatalf("expected swapped model to answer High, got %s", prediction.Risk)
	}
	if got := predictor.Schema().ModelType; got != ModelLogisticRegression {
		t.Fatalf("expected schema to follow swap, got %s", got)
	}
}

func TestPredictorSchema(t *testing.T) {
	predictor := newBundledPredictor(t, 0)
	schema := predictor.Schema()
	if len(schema.Features) != FeatureCount {
		t.Fatalf("expected %d features, got %d", FeatureCount, len(schema.Features))
	}
	if schema.Features[4] != "AgeCategory_Old" || schema.Features[9] != "HadDiabetes_No" {
		t.Fatalf("unexpected feature order: %v", schema.Features)
	}
	if got := schema.Vocabularies[FieldHadDiabetes]; len(got) != 3 {
		t.Fatalf("unexpected diabetes vocabulary: %v", got)
	}
	schema.Vocabularies[FieldSex][0] = "changed"
	if predictor.Schema().Vocabularies[FieldSex][0] == "changed" {
		t.Fatal("schema vocabulary leaked")
	}
}
