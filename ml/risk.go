package ml

import "fmt"

// RiskLabel is the human-readable verdict returned to callers.
type RiskLabel string

const (
	RiskHigh RiskLabel = "High"
	RiskLow  RiskLabel = "Low"
)

// RiskLabelFromCode maps a classifier label to its risk string.
func RiskLabelFromCode(label int) (RiskLabel, error) {
	switch label {
	case 1:
		return RiskHigh, nil
	case 0:
		return RiskLow, nil
	default:
		return "", fmt.Errorf("unexpected class label %d", label)
	}
}

func (r RiskLabel) String() string {
	return string(r)
}

// Valid reports whether r is one of the two defined labels.
func (r RiskLabel) Valid() bool {
	return r == RiskHigh || r == RiskLow
}
