package oracle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/Meza27/cryptoadvisor/internal/domain"
)

func identityScaler(n int) Scaler {
	mean := make([]float64, n)
	scale := make([]float64, n)
	for i := range scale {
		scale[i] = 1
	}
	return Scaler{Mean: mean, Scale: scale}
}

// leafTree is a single-node tree that always predicts value.
func leafTree(value float64) Tree {
	return Tree{
		Feature:    []int{-2},
		Threshold:  []float64{0},
		ChildLeft:  []int{-1},
		ChildRight: []int{-1},
		Value:      []float64{value},
	}
}

func writeArtifact(t *testing.T, artifact Artifact) string {
	t.Helper()

	data, err := msgpack.Marshal(artifact)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "rf_model.msgpack")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoadArtifact(t *testing.T) {
	path := writeArtifact(t, Artifact{
		Version:       "1.2.0",
		FeatureScaler: identityScaler(domain.FeatureCount),
		TargetScaler:  identityScaler(1),
		Trees:         []Tree{leafTree(3.5)},
	})

	artifact, err := LoadArtifact(path)
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", artifact.Version)
	assert.Len(t, artifact.Trees, 1)
}

func TestLoadArtifactMissingFile(t *testing.T) {
	_, err := LoadArtifact(filepath.Join(t.TempDir(), "missing.msgpack"))
	assert.Error(t, err)
}

func TestLoadArtifactBadScaler(t *testing.T) {
	path := writeArtifact(t, Artifact{
		FeatureScaler: identityScaler(3),
		TargetScaler:  identityScaler(1),
		Trees:         []Tree{leafTree(1)},
	})

	_, err := LoadArtifact(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feature scaler")
}

func TestLoadArtifactNoTrees(t *testing.T) {
	path := writeArtifact(t, Artifact{
		FeatureScaler: identityScaler(domain.FeatureCount),
		TargetScaler:  identityScaler(1),
	})

	_, err := LoadArtifact(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no trees")
}

func TestPredictAveragesTrees(t *testing.T) {
	path := writeArtifact(t, Artifact{
		Version:       "test",
		FeatureScaler: identityScaler(domain.FeatureCount),
		TargetScaler:  identityScaler(1),
		Trees:         []Tree{leafTree(2), leafTree(6)},
	})

	o, err := New(path, zerolog.Nop())
	require.NoError(t, err)

	pred, err := o.Predict(domain.FeatureVector{})
	require.NoError(t, err)
	assert.InDelta(t, 4.0, pred, 1e-9)
}

func TestPredictWalksSplits(t *testing.T) {
	// Root splits on feature 0 at 0.5. Left leaf predicts 2, right leaf 6.
	split := Tree{
		Feature:    []int{0, -2, -2},
		Threshold:  []float64{0.5, 0, 0},
		ChildLeft:  []int{1, -1, -1},
		ChildRight: []int{2, -1, -1},
		Value:      []float64{0, 2, 6},
	}

	path := writeArtifact(t, Artifact{
		FeatureScaler: identityScaler(domain.FeatureCount),
		TargetScaler:  identityScaler(1),
		Trees:         []Tree{split},
	})

	o, err := New(path, zerolog.Nop())
	require.NoError(t, err)

	low, err := o.Predict(domain.FeatureVector{0.2})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, low, 1e-9)

	high, err := o.Predict(domain.FeatureVector{0.9})
	require.NoError(t, err)
	assert.InDelta(t, 6.0, high, 1e-9)
}

func TestPredictAppliesScalers(t *testing.T) {
	// Feature 0 standardized as (v - 10) / 2, split threshold at 0 in
	// scaled space. Target destandardized as out*3 + 1.
	featScaler := identityScaler(domain.FeatureCount)
	featScaler.Mean[0] = 10
	featScaler.Scale[0] = 2

	split := Tree{
		Feature:    []int{0, -2, -2},
		Threshold:  []float64{0, 0, 0},
		ChildLeft:  []int{1, -1, -1},
		ChildRight: []int{2, -1, -1},
		Value:      []float64{0, -1, 1},
	}

	path := writeArtifact(t, Artifact{
		FeatureScaler: featScaler,
		TargetScaler:  Scaler{Mean: []float64{1}, Scale: []float64{3}},
		Trees:         []Tree{split},
	})

	o, err := New(path, zerolog.Nop())
	require.NoError(t, err)

	// v=14 scales to 2, takes the right branch: 1*3 + 1 = 4.
	pred, err := o.Predict(domain.FeatureVector{14})
	require.NoError(t, err)
	assert.InDelta(t, 4.0, pred, 1e-9)

	// v=6 scales to -2, takes the left branch: -1*3 + 1 = -2.
	pred, err = o.Predict(domain.FeatureVector{6})
	require.NoError(t, err)
	assert.InDelta(t, -2.0, pred, 1e-9)
}

func TestPredictZeroScaleFails(t *testing.T) {
	featScaler := identityScaler(domain.FeatureCount)
	featScaler.Scale[3] = 0

	path := writeArtifact(t, Artifact{
		FeatureScaler: featScaler,
		TargetScaler:  identityScaler(1),
		Trees:         []Tree{leafTree(1)},
	})

	o, err := New(path, zerolog.Nop())
	require.NoError(t, err)

	_, err = o.Predict(domain.FeatureVector{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zero scale")
}
