// Package oracle loads the trained growth prediction model and serves predictions.
//
// The model artifact is a msgpack file holding the feature scaler, the target
// scaler, and a random forest with each tree flattened into parallel arrays.
package oracle

import (
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/Meza27/cryptoadvisor/internal/domain"
)

// Scaler holds per-feature standardization parameters.
// A value v is scaled as (v - Mean[i]) / Scale[i].
type Scaler struct {
	Mean  []float64 `msgpack:"mean"`
	Scale []float64 `msgpack:"scale"`
}

// Tree is a single decision tree flattened into parallel arrays.
// Leaf nodes have ChildLeft == -1, and their prediction is Value.
type Tree struct {
	Feature    []int     `msgpack:"feature"`
	Threshold  []float64 `msgpack:"threshold"`
	ChildLeft  []int     `msgpack:"child_left"`
	ChildRight []int     `msgpack:"child_right"`
	Value      []float64 `msgpack:"value"`
}

// Artifact is the on-disk model file.
type Artifact struct {
	Version       string `msgpack:"version"`
	FeatureScaler Scaler `msgpack:"feature_scaler"`
	TargetScaler  Scaler `msgpack:"target_scaler"`
	Trees         []Tree `msgpack:"trees"`
}

// LoadArtifact reads and validates a model artifact from path.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}

	var artifact Artifact
	if err := msgpack.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("failed to decode model file: %w", err)
	}

	if err := artifact.validate(); err != nil {
		return nil, fmt.Errorf("invalid model artifact %s: %w", path, err)
	}

	return &artifact, nil
}

func (a *Artifact) validate() error {
	if len(a.FeatureScaler.Mean) != domain.FeatureCount || len(a.FeatureScaler.Scale) != domain.FeatureCount {
		return fmt.Errorf("feature scaler expects %d features, got mean=%d scale=%d",
			domain.FeatureCount, len(a.FeatureScaler.Mean), len(a.FeatureScaler.Scale))
	}
	if len(a.TargetScaler.Mean) != 1 || len(a.TargetScaler.Scale) != 1 {
		return fmt.Errorf("target scaler must be one-dimensional, got mean=%d scale=%d",
			len(a.TargetScaler.Mean), len(a.TargetScaler.Scale))
	}
	if len(a.Trees) == 0 {
		return fmt.Errorf("forest has no trees")
	}
	for i, tree := range a.Trees {
		n := len(tree.Feature)
		if n == 0 {
			return fmt.Errorf("tree %d is empty", i)
		}
		if len(tree.Threshold) != n || len(tree.ChildLeft) != n || len(tree.ChildRight) != n || len(tree.Value) != n {
			return fmt.Errorf("tree %d has inconsistent node arrays", i)
		}
	}
	return nil
}
