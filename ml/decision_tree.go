package ml

import (
	"errors"
	"fmt"
)

// DecisionTree is a single binary tree classifier.
type DecisionTree struct {
	nodes     []TreeNode
	nFeatures int
}

// TreeNode is one node of a serialized tree. Leaves carry the class or score.
type TreeNode struct {
	FeatureIdx  int     `json:"feature_idx"`
	Threshold   float64 `json:"threshold"`
	LeftChild   int     `json:"left_child"`
	RightChild  int     `json:"right_child"`
	ClassLabel  int     `json:"class_label"`
	IsLeaf      bool    `json:"is_leaf"`
	Value       float64 `json:"value,omitempty"`
	Probability float64 `json:"probability,omitempty"`
}

// NewDecisionTree validates the node links before accepting the tree.
func NewDecisionTree(nodes []TreeNode, nFeatures int) (*DecisionTree, error) {
	if err := validateTree(nodes); err != nil {
		return nil, err
	}
	return &DecisionTree{nodes: append([]TreeNode(nil), nodes...), nFeatures: nFeatures}, nil
}

func (dt *DecisionTree) ModelType() string { return ModelDecisionTree }

func (dt *DecisionTree) Dimensions() int { return dt.nFeatures }

func (dt *DecisionTree) Predict(features []float64) (int, float64, error) {
	if len(dt.nodes) == 0 {
		return 0, 0, errors.New("model not fitted")
	}
	if dt.nFeatures > 0 && len(features) != dt.nFeatures {
		return 0, 0, fmt.Errorf("%w: tree expects %d features, got %d", ErrDimensionMismatch, dt.nFeatures, len(features))
	}
	leaf, err := walkTree(dt.nodes, features, func(x, threshold float64) bool { return x <= threshold })
	if err != nil {
		return 0, 0, err
	}
	return leaf.ClassLabel, leafConfidence(leaf), nil
}

// walkTree follows the node array from the root until it reaches a leaf.
// goLeft decides the branch for an internal node.
func walkTree(nodes []TreeNode, features []float64, goLeft func(x, threshold float64) bool) (TreeNode, error) {
	idx := 0
	for {
		node := nodes[idx]
		if node.IsLeaf {
			return node, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return TreeNode{}, fmt.Errorf("%w: feature index %d out of range for %d features", ErrDimensionMismatch, node.FeatureIdx, len(features))
		}
		if goLeft(features[node.FeatureIdx], node.Threshold) {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
	}
}

// validateTree requires children to sit after their parent, so every walk terminates.
func validateTree(nodes []TreeNode) error {
	if len(nodes) == 0 {
		return fmt.Errorf("%w: empty tree", ErrCorruptArtifact)
	}
	for i, node := range nodes {
		if node.IsLeaf {
			continue
		}
		if node.FeatureIdx < 0 {
			return fmt.Errorf("%w: node %d has negative feature index", ErrCorruptArtifact, i)
		}
		for _, child := range []int{node.LeftChild, node.RightChild} {
			if child <= i || child >= len(nodes) {
				return fmt.Errorf("%w: node %d has invalid child %d", ErrCorruptArtifact, i, child)
			}
		}
	}
	return nil
}

func leafConfidence(leaf TreeNode) float64 {
	if leaf.Probability <= 0 || leaf.Probability > 1 {
		return 1
	}
	if leaf.ClassLabel == 1 {
		return leaf.Probability
	}
	return 1 - leaf.Probability
}
