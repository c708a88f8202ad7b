package ml

import (
	"errors"
	"fmt"
	"math"
)

// GradientBoostedTrees is an additive ensemble of regression trees with a
// logistic link, as exported from an XGBoost binary:logistic booster.
type GradientBoostedTrees struct {
	trees     [][]TreeNode
	baseScore float64
	threshold float64
	nFeatures int
}

// NewGradientBoostedTrees builds an ensemble whose summed leaf scores pass through a sigmoid.
func NewGradientBoostedTrees(trees [][]TreeNode, baseScore, threshold float64, nFeatures int) (*GradientBoostedTrees, error) {
	if len(trees) == 0 {
		return nil, fmt.Errorf("%w: ensemble has no trees", ErrCorruptArtifact)
	}
	if baseScore <= 0 || baseScore >= 1 {
		return nil, fmt.Errorf("%w: base_score %v outside (0,1)", ErrCorruptArtifact, baseScore)
	}
	copied := make([][]TreeNode, len(trees))
	for i, tree := range trees {
		if err := validateTree(tree); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		copied[i] = append([]TreeNode(nil), tree...)
	}
	return &GradientBoostedTrees{
		trees:     copied,
		baseScore: baseScore,
		threshold: defaultThreshold(threshold),
		nFeatures: nFeatures,
	}, nil
}

func (g *GradientBoostedTrees) ModelType() string { return ModelGradientBoosting }

func (g *GradientBoostedTrees) Dimensions() int { return g.nFeatures }

// Margin is the raw additive score before the logistic link.
func (g *GradientBoostedTrees) Margin(features []float64) (float64, error) {
	if len(g.trees) == 0 {
		return 0, errors.New("model not fitted")
	}
	if g.nFeatures > 0 && len(features) != g.nFeatures {
		return 0, fmt.Errorf("%w: ensemble expects %d features, got %d", ErrDimensionMismatch, g.nFeatures, len(features))
	}
	margin := logit(g.baseScore)
	for _, tree := range g.trees {
		leaf, err := walkTree(tree, features, func(x, threshold float64) bool { return x < threshold })
		if err != nil {
			return 0, err
		}
		margin += leaf.Value
	}
	return margin, nil
}

func (g *GradientBoostedTrees) Predict(features []float64) (int, float64, error) {
	margin, err := g.Margin(features)
	if err != nil {
		return 0, 0, err
	}
	return decide(sigmoid(margin), g.threshold)
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func logit(p float64) float64 {
	return math.Log(p / (1 - p))
}

func defaultThreshold(threshold float64) float64 {
	if threshold <= 0 || threshold >= 1 {
		return 0.5
	}
	return threshold
}

func decide(probability, threshold float64) (int, float64, error) {
	if math.IsNaN(probability) {
		return 0, 0, errors.New("classifier produced NaN probability")
	}
	if probability >= threshold {
		return 1, probability, nil
	}
	return 0, 1 - probability, nil
}
