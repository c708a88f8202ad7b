package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"heartrisk/db"
	"heartrisk/ml"
	"heartrisk/monitoring"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// PredictionLog is the audit store behind /api/predict and /api/predictions.
type PredictionLog interface {
	SavePrediction(ctx context.Context, record db.PredictionRecord) error
	RecentPredictions(ctx context.Context, limit int) ([]db.PredictionRecord, error)
	CountByRisk(ctx context.Context) (map[ml.RiskLabel]int, error)
}

// PredictionStream receives every successful prediction.
type PredictionStream interface {
	PublishPrediction(event monitoring.PredictionMessage) error
	HandleWebSocket(w http.ResponseWriter, r *http.Request)
}

// PredictRequest is the JSON body of /api/predict and /api/encode.
// Numeric fields are pointers so that a missing value is rejected rather than read as zero.
type PredictRequest struct {
	BMI                *float64 `json:"bmi" validate:"required"`
	SleepHours         *float64 `json:"sleep_hours" validate:"required"`
	PhysicalHealthDays *int     `json:"physical_health_days" validate:"required"`
	MentalHealthDays   *int     `json:"mental_health_days" validate:"required"`
	HadAngina          string   `json:"had_angina"`
	HadArthritis       string   `json:"had_arthritis"`
	AgeCategory        string   `json:"age_category"`
	Sex                string   `json:"sex"`
	HadDiabetes        string   `json:"had_diabetes"`
}

func (p PredictRequest) rawInput() ml.RawInput {
	return ml.RawInput{
		BMI:                   *p.BMI,
		SleepHours:            *p.SleepHours,
		PhysicalHealthBadDays: *p.PhysicalHealthDays,
		MentalHealthBadDays:   *p.MentalHealthDays,
		HadAngina:             p.HadAngina,
		HadArthritis:          p.HadArthritis,
		AgeCategory:           p.AgeCategory,
		Sex:                   p.Sex,
		HadDiabetes:           p.HadDiabetes,
	}
}

// PredictResponse is returned by /api/predict.
type PredictResponse struct {
	ID         string           `json:"id"`
	Risk       ml.RiskLabel     `json:"risk"`
	Label      int              `json:"label"`
	Confidence float64          `json:"confidence"`
	Features   ml.FeatureVector `json:"features"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
	Value string `json:"value,omitempty"`
}

// Handlers serves the JSON API and the HTML form.
type Handlers struct {
	predictor ml.ModelProvider
	history   PredictionLog
	stream    PredictionStream
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewHandlers wires the request handlers. history and stream may be nil.
func NewHandlers(predictor ml.ModelProvider, history PredictionLog, stream PredictionStream, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handlers{
		predictor: predictor,
		history:   history,
		stream:    stream,
		validate:  validate,
		logger:    logger,
	}
}

func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/schema", h.handleSchema)
	mux.HandleFunc("POST /api/encode", h.handleEncode)
	mux.HandleFunc("POST /api/predict", h.handlePredict)
	mux.HandleFunc("GET /api/predictions", h.handlePredictions)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /{$}", h.handleForm)
	mux.HandleFunc("POST /{$}", h.handleFormSubmit)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) handleSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.predictor.Schema())
}

func (h *Handlers) handleEncode(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}
	features, err := h.predictor.Encode(r.Context(), input)
	if err != nil {
		h.writePredictionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"features": features,
		"named":    features.Named(),
	})
}

func (h *Handlers) handlePredict(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	id := uuid.NewString()
	prediction, err := h.predict(r.Context(), id, input)
	if err != nil {
		h.writePredictionError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, PredictResponse{
		ID:         id,
		Risk:       prediction.Risk,
		Label:      prediction.Label,
		Confidence: prediction.Confidence,
		Features:   prediction.Features,
	})
}

// predict runs one prediction and records its outcome in metrics, the audit log and the stream.
// Audit and stream failures are logged, never returned.
func (h *Handlers) predict(ctx context.Context, id string, input ml.RawInput) (ml.Prediction, error) {
	start := time.Now()
	prediction, err := h.predictor.Predict(ctx, input)
	modelType := h.predictor.Schema().ModelType

	record := db.PredictionRecord{
		ID:        id,
		RequestID: GetRequestID(ctx),
		Input:     input,
		ModelType: modelType,
	}
	if err != nil {
		monitoring.ObservePredictionError(err)
		record.Error = err.Error()
		h.audit(ctx, record)
		return ml.Prediction{}, err
	}
	monitoring.ObservePrediction(prediction.Risk, time.Since(start))

	record.Features = prediction.Features
	record.Risk = prediction.Risk
	record.Label = prediction.Label
	record.Confidence = prediction.Confidence
	h.audit(ctx, record)

	if h.stream != nil {
		event := monitoring.PredictionMessage{
			PredictionID: id,
			Risk:         prediction.Risk,
			Confidence:   prediction.Confidence,
			Features:     prediction.Features,
			ModelType:    modelType,
		}
		if err := h.stream.PublishPrediction(event); err != nil {
			h.logger.Warn("publish prediction failed", zap.String("prediction_id", id), zap.Error(err))
		}
	}
	return prediction, nil
}

func (h *Handlers) audit(ctx context.Context, record db.PredictionRecord) {
	if h.history == nil {
		return
	}
	// The audit row must not be lost when the client disconnects.
	if err := h.history.SavePrediction(context.WithoutCancel(ctx), record); err != nil {
		h.logger.Warn("save prediction failed", zap.String("prediction_id", record.ID), zap.Error(err))
	}
}

func (h *Handlers) handlePredictions(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeError(w, http.StatusServiceUnavailable, "prediction history is disabled")
		return
	}

	limit := defaultHistoryLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(l, maxHistoryLimit)
	}

	records, err := h.history.RecentPredictions(r.Context(), limit)
	if err != nil {
		h.logger.Error("query predictions failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to query predictions")
		return
	}
	counts, err := h.history.CountByRisk(r.Context())
	if err != nil {
		h.logger.Error("count predictions failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to query predictions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":       len(records),
		"counts":      counts,
		"predictions": records,
	})
}

func (h *Handlers) decodeRequest(w http.ResponseWriter, r *http.Request) (ml.RawInput, bool) {
	var req PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		monitoring.PredictionErrors.WithLabelValues(monitoring.ErrorKindBadRequest).Inc()
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return ml.RawInput{}, false
	}
	if err := h.validate.Struct(&req); err != nil {
		monitoring.PredictionErrors.WithLabelValues(monitoring.ErrorKindBadRequest).Inc()
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return ml.RawInput{}, false
	}
	return req.rawInput(), true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return "missing required field: " + verrs[0].Field()
	}
	return err.Error()
}

// writePredictionError maps encoder and engine failures onto HTTP statuses.
func (h *Handlers) writePredictionError(w http.ResponseWriter, r *http.Request, err error) {
	var encErr *ml.EncodingError
	var infErr *ml.InferenceError
	switch {
	case errors.As(err, &encErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error: err.Error(),
			Field: encErr.Field,
			Value: encErr.Value,
		})
	case errors.As(err, &infErr):
		h.logger.Error("inference failed", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.logger.Error("prediction failed", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
