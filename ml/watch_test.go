package ml

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const alwaysHighModel = `{"model_type":"logistic_regression","coefficients":[0,0,0,0,0,0,0,0,0,0],"intercept":5}`

func TestArtifactWatcherReload(t *testing.T) {
	dir := copyModels(t)
	store := NewArtifactStore(dir, nil)
	artifacts, err := store.LoadAll()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	predictor, err := NewPredictor(artifacts, PredictorOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var results []error
	watcher := NewArtifactWatcher(store, predictor, WatchOptions{OnReload: func(err error) { results = append(results, err) }})

	if err := os.WriteFile(filepath.Join(dir, "xgb_best_model.json"), []byte(`{"model_type":`), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := watcher.Reload(); err == nil {
		t.Fatal("expected corrupt reload to fail")
	}
	prediction, err := predictor.Predict(context.Background(), baselineInput())
	if err != nil {
		t.Fatalf("previous snapshot should keep serving: %v", err)
	}
	if prediction.Risk != RiskLow {
		t.Fatalf("expected previous snapshot answer Low, got %s", prediction.Risk)
	}

	if err := os.WriteFile(filepath.Join(dir, "xgb_best_model.json"), []byte(alwaysHighModel), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := watcher.Reload(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	prediction, err = predictor.Predict(context.Background(), baselineInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prediction.Risk != RiskHigh {
		t.Fatalf("expected reloaded snapshot answer High, got %s", prediction.Risk)
	}
	if len(results) != 2 || results[0] == nil || results[1] != nil {
		t.Fatalf("unexpected reload results: %v", results)
	}
}

func TestArtifactWatcherRun(t *testing.T) {
	dir := copyModels(t)
	store := NewArtifactStore(dir, nil)
	artifacts, err := store.LoadAll()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	predictor, err := NewPredictor(artifacts, PredictorOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reloaded := make(chan error, 4)
	watcher := NewArtifactWatcher(store, predictor, WatchOptions{
		Debounce: 20 * time.Millisecond,
		OnReload: func(err error) { reloaded <- err },
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	staged := filepath.Join(dir, "staged.tmp")
	if err := os.WriteFile(staged, []byte(alwaysHighModel), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(staged, filepath.Join(dir, "xgb_best_model.json")); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-reloaded:
		if err != nil {
			t.Fatalf("unexpected reload error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	prediction, err := predictor.Predict(context.Background(), baselineInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prediction.Risk != RiskHigh {
		t.Fatalf("expected High after reload, got %s", prediction.Risk)
	}
}
