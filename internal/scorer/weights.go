package scorer

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Weights holds the per-component weights of the composite score.
type Weights struct {
	Industry float64 `yaml:"industry"`
	Size     float64 `yaml:"size"`
	Revenue  float64 `yaml:"revenue"`
	Quality  float64 `yaml:"quality"`
}

// DefaultWeights returns the standard weighting: industry 40%, size 30%,
// revenue 20%, quality 10%.
func DefaultWeights() Weights {
	return Weights{
		Industry: 0.4,
		Size:     0.3,
		Revenue:  0.2,
		Quality:  0.1,
	}
}

// Sum returns the total of all component weights.
func (w Weights) Sum() float64 {
	return w.Industry + w.Size + w.Revenue + w.Quality
}

// Validate checks that the weights are internally consistent.
func (w Weights) Validate() error {
	var errs []string

	components := map[string]float64{
		"industry": w.Industry,
		"size":     w.Size,
		"revenue":  w.Revenue,
		"quality":  w.Quality,
	}
	for name, v := range components {
		if v < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}

	if sum := w.Sum(); math.Abs(sum-1.0) > 0.01 {
		errs = append(errs, fmt.Sprintf("weights should sum to 1.0, got %.3f", sum))
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: weight validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// LoadWeights reads weights from a YAML file and validates them.
func LoadWeights(path string) (Weights, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Weights{}, eris.Wrapf(err, "scorer: read weights %s", path)
	}

	w := DefaultWeights()
	if err := yaml.Unmarshal(data, &w); err != nil {
		return Weights{}, eris.Wrapf(err, "scorer: parse weights %s", path)
	}

	if err := w.Validate(); err != nil {
		return Weights{}, err
	}
	return w, nil
}
