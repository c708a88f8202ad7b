package ml

import (
	"encoding/json"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

const (
	TransformerLabel  = "label"
	TransformerOneHot = "onehot"
)

// CategoricalTransformer maps a fitted vocabulary of labels to numbers.
type CategoricalTransformer interface {
	Kind() string
	Categories() []string
}

type transformerFile struct {
	Kind       string   `json:"kind"`
	Classes    []string `json:"classes,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

// LabelEncoder assigns each fitted class its index in fit order.
type LabelEncoder struct {
	classes []string
	codes   map[string]int
}

// NewLabelEncoder fits classes in the given order. Duplicates are rejected.
func NewLabelEncoder(classes []string) (*LabelEncoder, error) {
	codes, normalized, err := buildVocabulary(classes)
	if err != nil {
		return nil, err
	}
	return &LabelEncoder{classes: normalized, codes: codes}, nil
}

func (e *LabelEncoder) Kind() string { return TransformerLabel }

func (e *LabelEncoder) Categories() []string {
	return append([]string(nil), e.classes...)
}

// Transform returns the integer code of value, or ErrUnknownCategory.
func (e *LabelEncoder) Transform(value string) (int, error) {
	code, ok := e.codes[norm.NFC.String(value)]
	if !ok {
		return 0, ErrUnknownCategory
	}
	return code, nil
}

// OneHotEncoder produces one indicator slot per fitted category.
type OneHotEncoder struct {
	categories []string
	slots      map[string]int
}

// NewOneHotEncoder fits one slot per category in the given order.
func NewOneHotEncoder(categories []string) (*OneHotEncoder, error) {
	slots, normalized, err := buildVocabulary(categories)
	if err != nil {
		return nil, err
	}
	return &OneHotEncoder{categories: normalized, slots: slots}, nil
}

func (e *OneHotEncoder) Kind() string { return TransformerOneHot }

func (e *OneHotEncoder) Categories() []string {
	return append([]string(nil), e.categories...)
}

// Arity is the length of the indicator vector.
func (e *OneHotEncoder) Arity() int {
	return len(e.categories)
}

// Slot returns the indicator position of a category.
func (e *OneHotEncoder) Slot(category string) (int, bool) {
	slot, ok := e.slots[norm.NFC.String(category)]
	return slot, ok
}

// Transform returns the indicator vector for value, or ErrUnknownCategory.
func (e *OneHotEncoder) Transform(value string) ([]float64, error) {
	slot, ok := e.slots[norm.NFC.String(value)]
	if !ok {
		return nil, ErrUnknownCategory
	}
	vector := make([]float64, len(e.categories))
	vector[slot] = 1
	return vector, nil
}

func buildVocabulary(labels []string) (map[string]int, []string, error) {
	if len(labels) == 0 {
		return nil, nil, fmt.Errorf("%w: empty vocabulary", ErrCorruptArtifact)
	}
	index := make(map[string]int, len(labels))
	normalized := make([]string, len(labels))
	for i, label := range labels {
		n := norm.NFC.String(label)
		if _, dup := index[n]; dup {
			return nil, nil, fmt.Errorf("%w: duplicate category %q", ErrCorruptArtifact, label)
		}
		index[n] = i
		normalized[i] = n
	}
	return index, normalized, nil
}

func decodeTransformer(payload []byte) (CategoricalTransformer, error) {
	var file transformerFile
	if err := json.Unmarshal(payload, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
	}
	switch file.Kind {
	case TransformerLabel:
		return NewLabelEncoder(file.Classes)
	case TransformerOneHot:
		return NewOneHotEncoder(file.Categories)
	default:
		return nil, fmt.Errorf("%w: unknown transformer kind %q", ErrCorruptArtifact, file.Kind)
	}
}
