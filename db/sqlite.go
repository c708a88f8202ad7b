package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"heartrisk/ml"
)

// PredictionRecord is one row of the prediction audit log.
type PredictionRecord struct {
	ID         string           `json:"id"`
	RequestID  string           `json:"request_id,omitempty"`
	Input      ml.RawInput      `json:"input"`
	Features   ml.FeatureVector `json:"features,omitempty"`
	Risk       ml.RiskLabel     `json:"risk,omitempty"`
	Label      int              `json:"label"`
	Confidence float64          `json:"confidence"`
	ModelType  string           `json:"model_type,omitempty"`
	Error      string           `json:"error,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// PredictionStore persists prediction outcomes in SQLite.
type PredictionStore struct {
	db *sql.DB
}

// OpenPredictionStore opens (creating if needed) the database at path.
func OpenPredictionStore(path string) (*PredictionStore, error) {
	if path == "" {
		return nil, errors.New("database path is required")
	}
	if dir := filepath.Dir(path); dir != "." && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	database, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		database.SetMaxOpenConns(1)
	}
	if err := createTables(database); err != nil {
		database.Close()
		return nil, err
	}
	return &PredictionStore{db: database}, nil
}

func createTables(database *sql.DB) error {
	query := `
    CREATE TABLE IF NOT EXISTS predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        prediction_id TEXT NOT NULL UNIQUE,
        request_id TEXT,
        input TEXT NOT NULL,
        features TEXT,
        risk TEXT,
        predicted_label INTEGER,
        confidence REAL,
        model_type TEXT,
        error TEXT,
        created_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions(created_at);
    `
	if _, err := database.Exec(query); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// SavePrediction appends a record. CreatedAt defaults to now.
func (s *PredictionStore) SavePrediction(ctx context.Context, record PredictionRecord) error {
	if record.ID == "" {
		return errors.New("prediction id required")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	// Stored as text; UTC keeps ORDER BY created_at chronological.
	record.CreatedAt = record.CreatedAt.UTC()
	input, err := json.Marshal(record.Input)
	if err != nil {
		return err
	}
	var features sql.NullString
	if len(record.Features) > 0 {
		payload, err := json.Marshal(record.Features)
		if err != nil {
			return err
		}
		features = sql.NullString{String: string(payload), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
        INSERT INTO predictions (
            prediction_id, request_id, input, features, risk,
            predicted_label, confidence, model_type, error, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		nullString(record.RequestID),
		string(input),
		features,
		nullString(string(record.Risk)),
		record.Label,
		record.Confidence,
		nullString(record.ModelType),
		nullString(record.Error),
		record.CreatedAt,
	)
	return err
}

// RecentPredictions returns up to limit records, newest first.
func (s *PredictionStore) RecentPredictions(ctx context.Context, limit int) ([]PredictionRecord, error) {
	if limit <= 0 {
		return nil, errors.New("limit must be positive")
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT prediction_id, request_id, input, features, risk,
               predicted_label, confidence, model_type, error, created_at
        FROM predictions
        ORDER BY created_at DESC, id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]PredictionRecord, 0)
	for rows.Next() {
		var r PredictionRecord
		var input string
		var requestID, features, risk, modelType, errMsg sql.NullString
		var label sql.NullInt64
		var confidence sql.NullFloat64
		if err := rows.Scan(&r.ID, &requestID, &input, &features, &risk, &label, &confidence, &modelType, &errMsg, &r.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(input), &r.Input); err != nil {
			return nil, fmt.Errorf("decode input of %s: %w", r.ID, err)
		}
		if features.Valid {
			if err := json.Unmarshal([]byte(features.String), &r.Features); err != nil {
				return nil, fmt.Errorf("decode features of %s: %w", r.ID, err)
			}
		}
		r.RequestID = requestID.String
		r.Risk = ml.RiskLabel(risk.String)
		r.Label = int(label.Int64)
		r.Confidence = confidence.Float64
		r.ModelType = modelType.String
		r.Error = errMsg.String
		records = append(records, r)
	}
	return records, rows.Err()
}

// CountByRisk returns how many successful predictions produced each label.
func (s *PredictionStore) CountByRisk(ctx context.Context) (map[ml.RiskLabel]int, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT risk, COUNT(*) FROM predictions
        WHERE risk IS NOT NULL
        GROUP BY risk`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[ml.RiskLabel]int)
	for rows.Next() {
		var risk string
		var count int
		if err := rows.Scan(&risk, &count); err != nil {
			return nil, err
		}
		counts[ml.RiskLabel(risk)] = count
	}
	return counts, rows.Err()
}

// Close releases the database handle.
func (s *PredictionStore) Close() error {
	return s.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
