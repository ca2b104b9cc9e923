package artm

import (
	"math"

	"github.com/Alvant/bigartm/core/mat"
)

// transactionsEps bounds the per-transaction normalizer; transactions
// below it are skipped.  The single-token paths skip on exact zero
// instead — the two thresholds are deliberately distinct.
const transactionsEps = 1e-100

// NwtWriter receives the transaction solver's per-token contributions.
// ModelIncrement implements it.
type NwtWriter interface {
	Store(localTokenID int, values []float32)
}

// TransactionInferThetaAndUpdateNwt generalizes the EM step to items
// whose tokens are grouped into weighted, typed transactions.  The
// per-topic contribution of a transaction is the product of the Phi
// weights of every member token, seeded by the current Theta value;
// the normalizer is the sum of those products over topics.  All passes
// run per item, one more than the configured inner pass count.  When
// writer is non-nil, every member token of a transaction receives the
// same per-topic increment contribution, scaled by the batch weight.
func (s *Solver) TransactionInferThetaAndUpdateNwt(cfg *ModelConfig,
	batch *Batch, batchWeight float32, pwt PhiMatrix, theta *mat.Dense,
	writer NwtWriter) {

	topics := pwt.TopicCount()
	docs := theta.Cols

	localToGlobal := make([]int, len(batch.Tokens))
	for localID := range batch.Tokens {
		localToGlobal[localID] = pwt.TokenIndex(batch.Token(localID))
	}

	helper := make([]float64, topics)
	ntd := make([]float64, topics)
	buf := make([]float32, topics)

	for d := 0; d < docs; d++ {
		item := &batch.Items[d]

		for inner := 0; inner <= cfg.InnerIterationsCount; inner++ {
			for k := range ntd {
				ntd[k] = 0
			}

			for t := 0; t < item.NumTransactions(); t++ {
				start, end := item.TransactionStart[t], item.TransactionStart[t+1]
				if start >= end {
					continue
				}
				nKdx := float64(item.TokenWeights[start])
				ttWeight := float64(cfg.TransactionWeight(
					batch.TransactionTypes[item.TransactionTypeIDs[t]]))

				var pdx float64
				for k := 0; k < topics; k++ {
					helper[k] = transactionProb(item, theta.At(k, d),
						start, end, k, localToGlobal, pwt)
					pdx += helper[k]
				}
				if math.Abs(pdx) < transactionsEps {
					continue
				}

				for k := 0; k < topics; k++ {
					ntd[k] += ttWeight * nKdx * helper[k] / pdx
				}
			}

			for k := 0; k < topics; k++ {
				theta.Set(k, d, float32(ntd[k]))
			}
			s.regularizeAndNormalizeThetaItem(inner, batch, d, cfg, theta, buf)
		}
	}

	if writer == nil {
		return
	}

	values := make([]float32, topics)
	for d := 0; d < docs; d++ {
		item := &batch.Items[d]

		for t := 0; t < item.NumTransactions(); t++ {
			start, end := item.TransactionStart[t], item.TransactionStart[t+1]
			if start >= end {
				continue
			}
			nKdx := float64(item.TokenWeights[start])
			ttWeight := float64(cfg.TransactionWeight(
				batch.TransactionTypes[item.TransactionTypeIDs[t]]))

			var pdx float64
			for k := 0; k < topics; k++ {
				helper[k] = transactionProb(item, theta.At(k, d),
					start, end, k, localToGlobal, pwt)
				pdx += helper[k]
			}
			if math.Abs(pdx) < transactionsEps {
				continue
			}

			for k := 0; k < topics; k++ {
				values[k] = float32(ttWeight * helper[k] * nKdx *
					float64(batchWeight) / pdx)
			}
			for i := start; i < end; i++ {
				writer.Store(item.TokenIDs[i], values)
			}
		}
	}
}

// transactionProb multiplies the Phi weights of the tokens in
// [start, end) of the item for one topic, seeded by init.  A member
// token unknown to the model zeroes the product.
func transactionProb(item *Item, init float32, start, end, topic int,
	localToGlobal []int, pwt PhiMatrix) float64 {

	v := float64(init)
	for i := start; i < end; i++ {
		global := localToGlobal[item.TokenIDs[i]]
		if global < 0 {
			return 0
		}
		v *= float64(pwt.At(global, topic))
	}
	return v
}
