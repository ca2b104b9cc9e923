package artm

import (
	"bytes"
	"encoding/gob"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestPerplexityAppendScore pins the accumulator against a
// hand-computed log-likelihood: sum over cells of n * log(phi . theta).
func TestPerplexityAppendScore(t *testing.T) {
	batch := newTestBatch(2, [][]float32{{2, 3}})
	model := newTestModel(2, [][]float32{
		{0.2, 0.6},
		{0.8, 0.4},
	})
	theta := []float32{0.5, 0.5}

	c := &Perplexity{}
	require.True(t, c.IsCumulative())

	s := c.CreateScore().(*PerplexityScore)
	c.AppendScore(&batch.Items[0], batch.TokenDict(), model, theta, s)

	// p0 = 0.4, p1 = 0.6.
	wantLogL := 2*math.Log(0.4) + 3*math.Log(0.6)
	require.InDelta(t, wantLogL, s.LogLikelihood, 1e-6)
	require.Equal(t, 5.0, s.TokenCount)
	require.InDelta(t, math.Exp(-wantLogL/5), s.Value(), 1e-6)
}

// TestPerplexitySkipsUnknownTokens ignores tokens without a model row
// in both terms of the ratio.
func TestPerplexitySkipsUnknownTokens(t *testing.T) {
	batch := newTestBatch(2, [][]float32{{2, 7}})
	model := newTestModel(2, nil)
	model.SetTokenWeights(Token{ClassID: testClass, Keyword: testKeyword(0)},
		[]float32{0.3, 0.5})
	theta := []float32{0.5, 0.5}

	s := &PerplexityScore{}
	(&Perplexity{}).AppendScore(&batch.Items[0], batch.TokenDict(), model, theta, s)

	require.Equal(t, 2.0, s.TokenCount)
	require.InDelta(t, 2*math.Log(0.4), s.LogLikelihood, 1e-6)
}

// TestPerplexityScoreAddAndZeroValue folds accumulators the way the
// merger does; an empty accumulator reports zero instead of NaN.
func TestPerplexityScoreAddAndZeroValue(t *testing.T) {
	require.Equal(t, 0.0, (&PerplexityScore{}).Value())

	a := &PerplexityScore{LogLikelihood: -2, TokenCount: 4}
	b := &PerplexityScore{LogLikelihood: -1, TokenCount: 2}
	a.Add(b)
	require.Equal(t, -3.0, a.LogLikelihood)
	require.Equal(t, 6.0, a.TokenCount)
	require.InDelta(t, math.Exp(0.5), a.Value(), 1e-9)
}

// TestPerplexityScoreGobRoundTrip encodes through the Score interface,
// the form increments carry.
func TestPerplexityScoreGobRoundTrip(t *testing.T) {
	var score Score = &PerplexityScore{LogLikelihood: -1.5, TokenCount: 3}

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(&score))

	var decoded Score
	require.NoError(t, gob.NewDecoder(&buf).Decode(&decoded))
	p, ok := decoded.(*PerplexityScore)
	require.True(t, ok)
	require.Equal(t, -1.5, p.LogLikelihood)
	require.Equal(t, 3.0, p.TokenCount)
}
