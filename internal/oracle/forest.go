package oracle

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Meza27/cryptoadvisor/internal/domain"
	"github.com/Meza27/cryptoadvisor/pkg/formulas"
)

// ForestOracle predicts expected growth percentages from market feature vectors
// using a pre-trained random forest regressor.
type ForestOracle struct {
	artifact *Artifact
	log      zerolog.Logger
}

// New loads the model artifact from path and returns a ready oracle.
func New(path string, log zerolog.Logger) (*ForestOracle, error) {
	artifact, err := LoadArtifact(path)
	if err != nil {
		return nil, err
	}

	l := log.With().Str("component", "oracle").Logger()
	l.Info().
		Str("version", artifact.Version).
		Int("trees", len(artifact.Trees)).
		Msg("Model loaded")

	return &ForestOracle{artifact: artifact, log: l}, nil
}

// Version returns the model artifact version string.
func (o *ForestOracle) Version() string {
	return o.artifact.Version
}

// Predict scales the feature vector, averages the tree outputs, and
// inverse-scales the result back to a growth percentage.
func (o *ForestOracle) Predict(features domain.FeatureVector) (float64, error) {
	scaled, err := o.scaleFeatures(features)
	if err != nil {
		return 0, err
	}

	outputs := make([]float64, len(o.artifact.Trees))
	for i := range o.artifact.Trees {
		out, err := o.artifact.Trees[i].evaluate(scaled)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", i, err)
		}
		outputs[i] = out
	}

	mean := formulas.Mean(outputs)

	// Undo target standardization.
	ts := o.artifact.TargetScaler
	return mean*ts.Scale[0] + ts.Mean[0], nil
}

func (o *ForestOracle) scaleFeatures(features domain.FeatureVector) ([]float64, error) {
	fs := o.artifact.FeatureScaler
	scaled := make([]float64, domain.FeatureCount)
	for i := 0; i < domain.FeatureCount; i++ {
		if fs.Scale[i] == 0 {
			return nil, fmt.Errorf("feature %d has zero scale", i)
		}
		scaled[i] = (features[i] - fs.Mean[i]) / fs.Scale[i]
	}
	return scaled, nil
}

// evaluate walks the flattened tree from the root to a leaf.
func (t *Tree) evaluate(features []float64) (float64, error) {
	node := 0
	for steps := 0; steps <= len(t.Feature); steps++ {
		if node < 0 || node >= len(t.Feature) {
			return 0, fmt.Errorf("node index %d out of range", node)
		}
		if t.ChildLeft[node] == -1 {
			return t.Value[node], nil
		}
		feat := t.Feature[node]
		if feat < 0 || feat >= len(features) {
			return 0, fmt.Errorf("feature index %d out of range at node %d", feat, node)
		}
		if features[feat] <= t.Threshold[node] {
			node = t.ChildLeft[node]
		} else {
			node = t.ChildRight[node]
		}
	}
	return 0, fmt.Errorf("tree walk did not terminate")
}
