package ml

import (
	"fmt"

	"go.uber.org/zap"
)

// OneHotArity is the indicator length both one-hot transformers were fitted with.
const OneHotArity = 3

type EncoderOptions struct {
	// StrictOneHotArity rejects one-hot transformers whose arity is not
	// OneHotArity or that lack a selected category. When false the affected
	// indicator column is always 0.
	StrictOneHotArity bool
	Logger            *zap.Logger
}

// FeatureEncoder turns a RawInput into the training-time FeatureVector.
type FeatureEncoder struct {
	hadAngina    *LabelEncoder
	hadArthritis *LabelEncoder
	sex          *LabelEncoder
	ageCategory  *OneHotEncoder
	hadDiabetes  *OneHotEncoder

	ageOld     indicator
	ageYoung   indicator
	diabetesNo indicator
}

// indicator selects one named slot from a one-hot output.
type indicator struct {
	slot    int
	enabled bool
}

func (ind indicator) pick(vector []float64) float64 {
	if !ind.enabled || len(vector) != OneHotArity {
		return 0
	}
	return vector[ind.slot]
}

// NewFeatureEncoder resolves the indicator slots the vector needs from artifacts.
func NewFeatureEncoder(artifacts *Artifacts, opts EncoderOptions) (*FeatureEncoder, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &FeatureEncoder{
		hadAngina:    artifacts.HadAngina(),
		hadArthritis: artifacts.HadArthritis(),
		sex:          artifacts.Sex(),
		ageCategory:  artifacts.AgeCategory(),
		hadDiabetes:  artifacts.HadDiabetes(),
	}

	var err error
	if e.ageOld, err = resolveIndicator(ArtifactAgeCategory, e.ageCategory, AgeOld, opts.StrictOneHotArity, logger); err != nil {
		return nil, err
	}
	if e.ageYoung, err = resolveIndicator(ArtifactAgeCategory, e.ageCategory, AgeYoung, opts.StrictOneHotArity, logger); err != nil {
		return nil, err
	}
	if e.diabetesNo, err = resolveIndicator(ArtifactHadDiabetes, e.hadDiabetes, DiabetesNo, opts.StrictOneHotArity, logger); err != nil {
		return nil, err
	}
	return e, nil
}

func resolveIndicator(name string, enc *OneHotEncoder, category string, strict bool, logger *zap.Logger) (indicator, error) {
	if enc.Arity() != OneHotArity {
		if strict {
			return indicator{}, &ArtifactLoadError{
				Name: name,
				Err:  fmt.Errorf("%w: want %d categories, got %d", ErrArityMismatch, OneHotArity, enc.Arity()),
			}
		}
		logger.Warn("one-hot arity mismatch, indicator column fixed at 0",
			zap.String("artifact", name),
			zap.String("category", category),
			zap.Int("arity", enc.Arity()),
			zap.Int("expected", OneHotArity),
		)
		return indicator{}, nil
	}

	slot, ok := enc.Slot(category)
	if !ok {
		if strict {
			return indicator{}, &ArtifactLoadError{
				Name: name,
				Err:  fmt.Errorf("%w: category %q not in vocabulary %v", ErrArityMismatch, category, enc.Categories()),
			}
		}
		logger.Warn("one-hot category missing, indicator column fixed at 0",
			zap.String("artifact", name),
			zap.String("category", category),
			zap.Strings("vocabulary", enc.Categories()),
		)
		return indicator{}, nil
	}
	return indicator{slot: slot, enabled: true}, nil
}

// Encode builds the feature vector. It has no side effects.
func (e *FeatureEncoder) Encode(input RawInput) (FeatureVector, error) {
	angina, err := encodeLabel(FieldHadAngina, e.hadAngina, input.HadAngina)
	if err != nil {
		return nil, err
	}
	arthritis, err := encodeLabel(FieldHadArthritis, e.hadArthritis, input.HadArthritis)
	if err != nil {
		return nil, err
	}
	age, err := encodeOneHot(FieldAgeCategory, e.ageCategory, input.AgeCategory)
	if err != nil {
		return nil, err
	}
	sex, err := encodeLabel(FieldSex, e.sex, input.Sex)
	if err != nil {
		return nil, err
	}
	diabetes, err := encodeOneHot(FieldHadDiabetes, e.hadDiabetes, input.HadDiabetes)
	if err != nil {
		return nil, err
	}

	return FeatureVector{
		input.BMI,
		angina,
		input.SleepHours,
		float64(input.PhysicalHealthBadDays),
		e.ageOld.pick(age),
		float64(input.MentalHealthBadDays),
		e.ageYoung.pick(age),
		arthritis,
		sex,
		e.diabetesNo.pick(diabetes),
	}, nil
}

// Vocabularies returns the fitted categories of every categorical field.
func (e *FeatureEncoder) Vocabularies() map[string][]string {
	return map[string][]string{
		FieldHadAngina:    e.hadAngina.Categories(),
		FieldHadArthritis: e.hadArthritis.Categories(),
		FieldAgeCategory:  e.ageCategory.Categories(),
		FieldSex:          e.sex.Categories(),
		FieldHadDiabetes:  e.hadDiabetes.Categories(),
	}
}

func encodeLabel(field string, enc *LabelEncoder, value string) (float64, error) {
	code, err := enc.Transform(value)
	if err != nil {
		return 0, &EncodingError{Field: field, Value: value, Err: err}
	}
	return float64(code), nil
}

func encodeOneHot(field string, enc *OneHotEncoder, value string) ([]float64, error) {
	vector, err := enc.Transform(value)
	if err != nil {
		return nil, &EncodingError{Field: field, Value: value, Err: err}
	}
	return vector, nil
}
