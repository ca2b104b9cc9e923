package artm

import (
	"encoding/gob"
	"math"
)

// Score is an opaque metric accumulator.  Cumulative scores are
// gob-serialized into the increment so the merger can fold per-batch
// values into run totals.
type Score interface{}

// ScoreCalculator is the capability behind one named score.  Only
// cumulative calculators participate in batch processing; the engine
// creates one Score per (batch, model) and appends every in-stream
// item to it.
type ScoreCalculator interface {
	IsCumulative() bool
	CreateScore() Score
	AppendScore(item *Item, tokenDict []Token, model PhiMatrix,
		theta []float32, score Score)
	// StreamName gates which items feed the score; empty admits all.
	StreamName() string
}

func init() {
	gob.Register(&PerplexityScore{})
}

// PerplexityScore accumulates the log-likelihood and the token mass of
// the items it has seen.
type PerplexityScore struct {
	LogLikelihood float64
	TokenCount    float64
}

// Value returns exp(-logL/N), the perplexity of everything accumulated
// so far, or zero before any token was seen.
func (s *PerplexityScore) Value() float64 {
	if s.TokenCount == 0 {
		return 0
	}
	return math.Exp(-s.LogLikelihood / s.TokenCount)
}

// Add folds another accumulator in, the merger-side operation.
func (s *PerplexityScore) Add(o *PerplexityScore) {
	s.LogLikelihood += o.LogLikelihood
	s.TokenCount += o.TokenCount
}

// Perplexity is the cumulative calculator behind PerplexityScore.  For
// every item it adds n_dw * log p(w|d) with p(w|d) = sum_t phi_wt *
// theta_td, skipping tokens the model has no row for and cells with
// zero probability.
type Perplexity struct {
	Stream string
}

func (c *Perplexity) IsCumulative() bool { return true }

func (c *Perplexity) StreamName() string { return c.Stream }

func (c *Perplexity) CreateScore() Score { return &PerplexityScore{} }

func (c *Perplexity) AppendScore(item *Item, tokenDict []Token,
	model PhiMatrix, theta []float32, score Score) {

	s := score.(*PerplexityScore)
	for i, localID := range item.TokenIDs {
		weights := model.TokenWeights(tokenDict[localID])
		if weights == nil {
			continue
		}
		var p float64
		for k, phi := range weights {
			p += float64(phi) * float64(theta[k])
		}
		if p <= 0 {
			continue
		}
		n := float64(item.TokenWeights[i])
		s.LogLikelihood += n * math.Log(p)
		s.TokenCount += n
	}
}
