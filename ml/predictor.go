package ml

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// Schema describes the feature layout and categorical vocabularies in use.
type Schema struct {
	Features     []string            `json:"features"`
	Vocabularies map[string][]string `json:"vocabularies"`
	ModelType    string              `json:"model_type"`
	ScalerKind   string              `json:"scaler_kind"`
}

// pipeline is one immutable snapshot built from a complete artifact set.
type pipeline struct {
	encoder *FeatureEncoder
	engine  *Engine
	schema  Schema
	cache   *lru.Cache[string, Prediction]
}

type PredictorOptions struct {
	Encoder   EncoderOptions
	CacheSize int
	Logger    *zap.Logger
}

// Predictor serves predictions from the current artifact snapshot.
// Snapshots are swapped atomically; a request keeps the snapshot it started with.
type Predictor struct {
	current atomic.Pointer[pipeline]
	opts    PredictorOptions
	logger  *zap.Logger
}

// NewPredictor builds the first snapshot from artifacts.
func NewPredictor(artifacts *Artifacts, opts PredictorOptions) (*Predictor, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Encoder.Logger == nil {
		opts.Encoder.Logger = opts.Logger
	}
	p := &Predictor{opts: opts, logger: opts.Logger}
	if err := p.Swap(artifacts); err != nil {
		return nil, err
	}
	return p, nil
}

// Swap replaces the serving snapshot with one built from artifacts.
// On error the previous snapshot stays in place.
func (p *Predictor) Swap(artifacts *Artifacts) error {
	if artifacts == nil {
		return errors.New("artifacts are required")
	}
	encoder, err := NewFeatureEncoder(artifacts, p.opts.Encoder)
	if err != nil {
		return err
	}
	engine, err := NewEngine(artifacts.Scaler(), artifacts.Classifier())
	if err != nil {
		return err
	}

	next := &pipeline{
		encoder: encoder,
		engine:  engine,
		schema: Schema{
			Features:     FeatureNames(),
			Vocabularies: encoder.Vocabularies(),
			ModelType:    artifacts.Classifier().ModelType(),
			ScalerKind:   artifacts.Scaler().Kind(),
		},
	}
	if p.opts.CacheSize > 0 {
		cache, err := lru.New[string, Prediction](p.opts.CacheSize)
		if err != nil {
			return err
		}
		next.cache = cache
	}

	p.current.Store(next)
	p.logger.Info("prediction pipeline ready",
		zap.String("model_type", next.schema.ModelType),
		zap.String("scaler", next.schema.ScalerKind),
		zap.Int("cache_size", p.opts.CacheSize),
	)
	return nil
}

func (p *Predictor) Encode(ctx context.Context, input RawInput) (FeatureVector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.current.Load().encoder.Encode(input)
}

// Predict encodes and classifies input against the current snapshot.
func (p *Predictor) Predict(ctx context.Context, input RawInput) (Prediction, error) {
	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}
	snapshot := p.current.Load()
	features, err := snapshot.encoder.Encode(input)
	if err != nil {
		return Prediction{}, err
	}
	if snapshot.cache == nil {
		return snapshot.engine.Evaluate(features)
	}

	key := vectorKey(features)
	if cached, ok := snapshot.cache.Get(key); ok {
		return clonePrediction(cached), nil
	}
	prediction, err := snapshot.engine.Evaluate(features)
	if err != nil {
		return Prediction{}, err
	}
	snapshot.cache.Add(key, clonePrediction(prediction))
	return prediction, nil
}

func (p *Predictor) Schema() Schema {
	schema := p.current.Load().schema
	schema.Features = append([]string(nil), schema.Features...)
	vocabularies := make(map[string][]string, len(schema.Vocabularies))
	for field, categories := range schema.Vocabularies {
		vocabularies[field] = append([]string(nil), categories...)
	}
	schema.Vocabularies = vocabularies
	return schema
}

func clonePrediction(p Prediction) Prediction {
	p.Features = p.Features.Clone()
	p.Scaled = append([]float64(nil), p.Scaled...)
	return p
}

func vectorKey(features FeatureVector) string {
	var b strings.Builder
	for i, v := range features {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return b.String()
}
