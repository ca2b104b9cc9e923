package artm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Alvant/bigartm/core/mat"
)

// TestInitializeModelIncrementOperations requires one row per batch
// token: zero-valued increments for tokens the model knows, valueless
// create markers for the rest.
func TestInitializeModelIncrementOperations(t *testing.T) {
	batch := newTestBatch(3, nil)
	// Model knows tokens 0 and 2 only.
	model := newTestModel(2, nil)
	model.SetTokenWeights(Token{ClassID: testClass, Keyword: testKeyword(0)},
		[]float32{0.5, 0.5})
	model.SetTokenWeights(Token{ClassID: testClass, Keyword: testKeyword(2)},
		[]float32{0.1, 0.9})

	cfg := &ModelConfig{Name: "m", TopicsCount: 2}
	mi := InitializeModelIncrement(batch.ID, batch, cfg, model)

	require.Equal(t, batch.ID, mi.BatchID)
	require.Equal(t, "m", mi.ModelName)
	require.Len(t, mi.Tokens, 3)
	require.Equal(t, []OperationType{
		OpIncrementValue, OpCreateIfNotExist, OpIncrementValue,
	}, mi.OperationTypes)

	require.Equal(t, []float32{0, 0}, mi.TokenIncrements[0])
	require.Nil(t, mi.TokenIncrements[1])
	require.Equal(t, []float32{0, 0}, mi.TokenIncrements[2])
}

// TestSetFromNwtSkipsCreateRows copies solver counts into existing-token
// rows only.
func TestSetFromNwtSkipsCreateRows(t *testing.T) {
	batch := newTestBatch(2, nil)
	model := newTestModel(2, nil)
	model.SetTokenWeights(Token{ClassID: testClass, Keyword: testKeyword(0)},
		[]float32{0.5, 0.5})

	cfg := &ModelConfig{Name: "m", TopicsCount: 2}
	mi := InitializeModelIncrement(batch.ID, batch, cfg, model)

	nwt := mat.NewDense(2, 2)
	nwt.Set(0, 0, 1.5)
	nwt.Set(0, 1, 2.5)
	nwt.Set(1, 0, 9)

	mi.SetFromNwt(nwt)
	require.Equal(t, []float32{1.5, 2.5}, mi.TokenIncrements[0])
	require.Nil(t, mi.TokenIncrements[1])
}

// TestIncrementStoreAccumulates checks the transaction write path:
// repeated stores add up, and create-marker rows ignore stores.
func TestIncrementStoreAccumulates(t *testing.T) {
	batch := newTestBatch(2, nil)
	model := newTestModel(2, nil)
	model.SetTokenWeights(Token{ClassID: testClass, Keyword: testKeyword(0)},
		[]float32{0.5, 0.5})

	cfg := &ModelConfig{Name: "m", TopicsCount: 2}
	mi := InitializeModelIncrement(batch.ID, batch, cfg, model)

	mi.Store(0, []float32{1, 2})
	mi.Store(0, []float32{0.5, 0.5})
	mi.Store(1, []float32{7, 7})

	require.Equal(t, []float32{1.5, 2.5}, mi.TokenIncrements[0])
	require.Nil(t, mi.TokenIncrements[1])
}

// TestAttachScoreKeepsOrder verifies scores land in declaration order
// as parallel name/payload slices.
func TestAttachScoreKeepsOrder(t *testing.T) {
	mi := &ModelIncrement{}
	mi.AttachScore("perplexity", []byte{1})
	mi.AttachScore("sparsity", []byte{2})

	require.Equal(t, []string{"perplexity", "sparsity"}, mi.ScoreNames)
	require.Equal(t, [][]byte{{1}, {2}}, mi.Scores)
}
