// Package anomaly gates the attendance table through an unsupervised
// outlier model to strip sensor and data-entry noise (negative durations,
// middle-of-the-night check-ins) before it can poison training.
//
// The model itself is an opaque collaborator behind the Scorer interface;
// this package only defines what features feed it and how its verdict is
// applied.
package anomaly

import (
	"fmt"
	"math/rand"

	"github.com/e-XpertSolutions/go-iforest/v2/iforest"
)

// Scorer labels each sample as anomalous or normal after fitting on the
// whole sample set. Implementations must be deterministic for a fixed
// configuration so pipeline runs are reproducible.
type Scorer interface {
	FitPredict(samples [][]float64) ([]bool, error)
}

// Isolation forest sizing. Subsampling caps at the conventional 256; a
// smaller sample set just uses everything.
const (
	defaultTrees        = 100
	defaultSubsampleCap = 256
)

// IsolationForest scores samples with an isolation forest ensemble.
type IsolationForest struct {
	trees         int
	contamination float64
	seed          int64
}

// NewIsolationForest creates a scorer expecting the given contamination
// fraction (the proportion of samples assumed anomalous). The seed pins
// the ensemble's randomness so identical inputs yield identical verdicts.
func NewIsolationForest(contamination float64, seed int64) (*IsolationForest, error) {
	if contamination <= 0 || contamination >= 1 {
		return nil, fmt.Errorf("contamination must be in (0, 1), got %v", contamination)
	}
	return &IsolationForest{
		trees:         defaultTrees,
		contamination: contamination,
		seed:          seed,
	}, nil
}

// FitPredict trains the forest on samples and returns one verdict per
// sample, true meaning anomalous.
func (f *IsolationForest) FitPredict(samples [][]float64) ([]bool, error) {
	if len(samples) == 0 {
		return nil, nil
	}

	subsample := defaultSubsampleCap
	if len(samples) < subsample {
		subsample = len(samples)
	}

	// The forest library draws subsamples from the process-global source,
	// so pinning determinism means seeding it here even though rand.Seed is
	// deprecated. Safe while scoring stays single-threaded; switch to a
	// per-forest rand.Source if the library ever grows a seam for one.
	rand.Seed(f.seed)

	forest := iforest.NewForest(f.trees, subsample, f.contamination)
	forest.Train(samples)
	if err := forest.Test(samples); err != nil {
		return nil, fmt.Errorf("score samples: %w", err)
	}

	verdicts := make([]bool, len(samples))
	for i, label := range forest.Labels {
		verdicts[i] = label == 1
	}
	return verdicts, nil
}
