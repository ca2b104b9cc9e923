package artm

import (
	"math/rand"

	"github.com/Alvant/bigartm/core/mat"
)

// InitializeTheta creates the topics x items matrix for one (batch,
// model) run.  The sparse solver keeps Theta column-major so that one
// item's topic vector is a contiguous stride.  Items found in a warm
// cache entry (ReuseTheta enabled) start from their cached vectors;
// the rest start uniform at 1/topics, or at pseudo-random weights when
// UseRandomTheta is set.
func InitializeTheta(batch *Batch, cfg *ModelConfig, cache *ThetaCacheEntry,
	rng *rand.Rand) *mat.Dense {

	topicSize := cfg.TopicsCount
	var theta *mat.Dense
	if cfg.UseSparseBow {
		theta = mat.NewDenseByCols(topicSize, len(batch.Items))
	} else {
		theta = mat.NewDense(topicSize, len(batch.Items))
	}

	for d := range batch.Items {
		if cache != nil && cfg.ReuseTheta {
			if i := cache.ItemIndex(batch.Items[d].ID); i >= 0 {
				for k, v := range cache.Thetas[i] {
					theta.Set(k, d, v)
				}
				continue
			}
		}

		defaultTheta := float32(1) / float32(topicSize)
		for k := 0; k < topicSize; k++ {
			v := defaultTheta
			if cfg.UseRandomTheta {
				v = rng.Float32()
			}
			theta.Set(k, d, v)
		}
	}

	return theta
}
