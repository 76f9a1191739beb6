package predictor

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
)

// Regressor is a trained regression model over named features.
type Regressor interface {
	// FeatureNames lists the inputs the model was trained on, in order.
	FeatureNames() []string
	// Predict scores one row. names must match FeatureNames exactly.
	Predict(names []string, values []float64) (float64, error)
}

// FeatureMismatchError reports inputs that do not match the trained features.
type FeatureMismatchError struct {
	Expected []string
	Supplied []string
}

func (e *FeatureMismatchError) Error() string {
	return fmt.Sprintf("feature mismatch: model expects [%s], data has [%s]",
		strings.Join(e.Expected, ", "), strings.Join(e.Supplied, ", "))
}

// LinearModel is an exported linear regression: intercept + sum(coef_i * x_i).
type LinearModel struct {
	Features     []string  `json:"feature_names"`
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

// LoadLinearModel reads a coefficient file written by the training job.
func LoadLinearModel(path string) (*LinearModel, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}
	var m LinearModel
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode model file: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *LinearModel) validate() error {
	if len(m.Features) == 0 {
		return fmt.Errorf("model has no feature names")
	}
	if len(m.Features) != len(m.Coefficients) {
		return fmt.Errorf("model has %d features but %d coefficients", len(m.Features), len(m.Coefficients))
	}
	for i, c := range m.Coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("coefficient %d is not finite", i)
		}
	}
	return nil
}

func (m *LinearModel) FeatureNames() []string {
	return append([]string(nil), m.Features...)
}

func (m *LinearModel) Predict(names []string, values []float64) (float64, error) {
	if len(names) != len(values) {
		return 0, fmt.Errorf("got %d names for %d values", len(names), len(values))
	}
	if len(names) != len(m.Features) {
		return 0, &FeatureMismatchError{Expected: m.FeatureNames(), Supplied: names}
	}
	for i, name := range names {
		if name != m.Features[i] {
			return 0, &FeatureMismatchError{Expected: m.FeatureNames(), Supplied: names}
		}
	}
	y := m.Intercept
	for i, v := range values {
		y += m.Coefficients[i] * v
	}
	return y, nil
}

var _ Regressor = (*LinearModel)(nil)
