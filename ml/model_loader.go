package ml

import (
	"encoding/json"
	"fmt"
)

const (
	ModelGradientBoosting   = "gradient_boosting"
	ModelLogisticRegression = "logistic_regression"
	ModelDecisionTree       = "decision_tree"
)

type classifierFile struct {
	ModelType    string       `json:"model_type"`
	NFeatures    int          `json:"n_features,omitempty"`
	FeatureNames []string     `json:"feature_names,omitempty"`
	Threshold    float64      `json:"threshold,omitempty"`
	BaseScore    float64      `json:"base_score,omitempty"`
	Trees        [][]TreeNode `json:"trees,omitempty"`
	Nodes        []TreeNode   `json:"nodes,omitempty"`
	Coefficients []float64    `json:"coefficients,omitempty"`
	Intercept    float64      `json:"intercept,omitempty"`
}

func decodeClassifier(payload []byte) (Classifier, error) {
	var file classifierFile
	if err := json.Unmarshal(payload, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
	}
	if err := checkColumnOrder(file.FeatureNames); err != nil {
		return nil, err
	}
	switch file.ModelType {
	case ModelGradientBoosting:
		baseScore := file.BaseScore
		if baseScore == 0 {
			baseScore = 0.5
		}
		return NewGradientBoostedTrees(file.Trees, baseScore, file.Threshold, file.NFeatures)
	case ModelLogisticRegression:
		return NewLogisticRegression(file.Coefficients, file.Intercept, file.Threshold)
	case ModelDecisionTree:
		return NewDecisionTree(file.Nodes, file.NFeatures)
	default:
		return nil, fmt.Errorf("%w: unsupported model type %q", ErrCorruptArtifact, file.ModelType)
	}
}

// checkColumnOrder rejects a classifier trained on a different column layout.
// An artifact that declares no names is accepted.
func checkColumnOrder(declared []string) error {
	if len(declared) == 0 {
		return nil
	}
	expected := FeatureNames()
	if len(declared) != len(expected) {
		return fmt.Errorf("%w: classifier declares %d columns, encoder produces %d", ErrCorruptArtifact, len(declared), len(expected))
	}
	for i, name := range declared {
		if name != expected[i] {
			return fmt.Errorf("%w: classifier column %d is %q, encoder produces %q", ErrCorruptArtifact, i, name, expected[i])
		}
	}
	return nil
}
