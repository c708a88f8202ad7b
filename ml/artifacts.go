package ml

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Artifact names. Each one is backed by a single file in the artifact directory.
const (
	ArtifactHadAngina    = "had_angina_label"
	ArtifactHadArthritis = "had_arthritis_label"
	ArtifactSex          = "sex_label"
	ArtifactAgeCategory  = "age_category_ohe"
	ArtifactHadDiabetes  = "had_diabetes_ohe"
	ArtifactScaler       = "scaler"
	ArtifactClassifier   = "classifier"
)

// ArtifactNames lists every artifact in load order.
func ArtifactNames() []string {
	return []string{
		ArtifactHadAngina,
		ArtifactHadArthritis,
		ArtifactSex,
		ArtifactAgeCategory,
		ArtifactHadDiabetes,
		ArtifactScaler,
		ArtifactClassifier,
	}
}

// DefaultArtifactFiles maps artifact names to file names.
func DefaultArtifactFiles() map[string]string {
	return map[string]string{
		ArtifactHadAngina:    "had_angina_label.json",
		ArtifactHadArthritis: "had_arthritis_label.json",
		ArtifactSex:          "sex_label.json",
		ArtifactAgeCategory:  "age_category_ohe.json",
		ArtifactHadDiabetes:  "had_diabetes_ohe.json",
		ArtifactScaler:       "scaler.json",
		ArtifactClassifier:   "xgb_best_model.json",
	}
}

// ArtifactStore resolves artifact names to files under a directory.
type ArtifactStore struct {
	dir   string
	files map[string]string
}

// NewArtifactStore creates a store. Names missing from files fall back to DefaultArtifactFiles.
func NewArtifactStore(dir string, files map[string]string) *ArtifactStore {
	resolved := DefaultArtifactFiles()
	for name, file := range files {
		if file != "" {
			resolved[name] = file
		}
	}
	return &ArtifactStore{dir: dir, files: resolved}
}

func (s *ArtifactStore) Dir() string { return s.dir }

// Path returns the file backing an artifact name.
func (s *ArtifactStore) Path(name string) string {
	file, ok := s.files[name]
	if !ok {
		return ""
	}
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(s.dir, file)
}

// Load reads and decodes a single artifact by name.
func (s *ArtifactStore) Load(name string) (any, error) {
	path := s.Path(name)
	if path == "" {
		return nil, &ArtifactLoadError{Name: name, Err: errors.New("unknown artifact name")}
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, &ArtifactLoadError{Name: name, Path: path, Err: err}
	}

	var artifact any
	switch name {
	case ArtifactScaler:
		artifact, err = decodeScaler(payload)
	case ArtifactClassifier:
		artifact, err = decodeClassifier(payload)
	default:
		artifact, err = decodeTransformer(payload)
	}
	if err != nil {
		return nil, &ArtifactLoadError{Name: name, Path: path, Err: err}
	}
	return artifact, nil
}

// LoadAll loads the complete artifact set. Any failure aborts the whole load.
func (s *ArtifactStore) LoadAll() (*Artifacts, error) {
	loaded := make(map[string]any, len(ArtifactNames()))
	for _, name := range ArtifactNames() {
		artifact, err := s.Load(name)
		if err != nil {
			return nil, err
		}
		loaded[name] = artifact
	}

	var a Artifacts
	var err error
	if a.hadAngina, err = asLabelEncoder(loaded, ArtifactHadAngina, s.Path(ArtifactHadAngina)); err != nil {
		return nil, err
	}
	if a.hadArthritis, err = asLabelEncoder(loaded, ArtifactHadArthritis, s.Path(ArtifactHadArthritis)); err != nil {
		return nil, err
	}
	if a.sex, err = asLabelEncoder(loaded, ArtifactSex, s.Path(ArtifactSex)); err != nil {
		return nil, err
	}
	if a.ageCategory, err = asOneHotEncoder(loaded, ArtifactAgeCategory, s.Path(ArtifactAgeCategory)); err != nil {
		return nil, err
	}
	if a.hadDiabetes, err = asOneHotEncoder(loaded, ArtifactHadDiabetes, s.Path(ArtifactHadDiabetes)); err != nil {
		return nil, err
	}
	a.scaler = loaded[ArtifactScaler].(*Scaler)
	a.classifier = loaded[ArtifactClassifier].(Classifier)
	if n := a.classifier.Dimensions(); n > 0 && n != a.scaler.Dimensions() {
		return nil, &ArtifactLoadError{
			Name: ArtifactClassifier,
			Path: s.Path(ArtifactClassifier),
			Err:  fmt.Errorf("%w: classifier expects %d features, scaler produces %d", ErrCorruptArtifact, n, a.scaler.Dimensions()),
		}
	}
	return &a, nil
}

// LoadArtifacts loads every artifact from dir using the default file names.
func LoadArtifacts(dir string) (*Artifacts, error) {
	return NewArtifactStore(dir, nil).LoadAll()
}

func asLabelEncoder(loaded map[string]any, name, path string) (*LabelEncoder, error) {
	enc, ok := loaded[name].(*LabelEncoder)
	if !ok {
		return nil, &ArtifactLoadError{Name: name, Path: path, Err: fmt.Errorf("%w: expected a label encoder", ErrCorruptArtifact)}
	}
	return enc, nil
}

func asOneHotEncoder(loaded map[string]any, name, path string) (*OneHotEncoder, error) {
	enc, ok := loaded[name].(*OneHotEncoder)
	if !ok {
		return nil, &ArtifactLoadError{Name: name, Path: path, Err: fmt.Errorf("%w: expected a one-hot encoder", ErrCorruptArtifact)}
	}
	return enc, nil
}

// Artifacts is the immutable set of fitted transformers, scaler and classifier.
type Artifacts struct {
	hadAngina    *LabelEncoder
	hadArthritis *LabelEncoder
	sex          *LabelEncoder
	ageCategory  *OneHotEncoder
	hadDiabetes  *OneHotEncoder
	scaler       *Scaler
	classifier   Classifier
}

// NewArtifacts assembles an artifact set from already fitted parts.
func NewArtifacts(hadAngina, hadArthritis, sex *LabelEncoder, ageCategory, hadDiabetes *OneHotEncoder, scaler *Scaler, classifier Classifier) (*Artifacts, error) {
	parts := map[string]bool{
		ArtifactHadAngina:    hadAngina != nil,
		ArtifactHadArthritis: hadArthritis != nil,
		ArtifactSex:          sex != nil,
		ArtifactAgeCategory:  ageCategory != nil,
		ArtifactHadDiabetes:  hadDiabetes != nil,
		ArtifactScaler:       scaler != nil,
		ArtifactClassifier:   classifier != nil,
	}
	for _, name := range ArtifactNames() {
		if !parts[name] {
			return nil, &ArtifactLoadError{Name: name, Err: errors.New("artifact missing")}
		}
	}
	return &Artifacts{
		hadAngina:    hadAngina,
		hadArthritis: hadArthritis,
		sex:          sex,
		ageCategory:  ageCategory,
		hadDiabetes:  hadDiabetes,
		scaler:       scaler,
		classifier:   classifier,
	}, nil
}

func (a *Artifacts) HadAngina() *LabelEncoder { return a.hadAngina }
func (a *Artifacts) HadArthritis() *LabelEncoder { return a.hadArthritis }
func (a *Artifacts) Sex() *LabelEncoder { return a.sex }
func (a *Artifacts) AgeCategory() *OneHotEncoder { return a.ageCategory }
func (a *Artifacts) HadDiabetes() *OneHotEncoder { return a.hadDiabetes }
func (a *Artifacts) Scaler() *Scaler { return a.scaler }
func (a *Artifacts) Classifier() Classifier { return a.classifier }
