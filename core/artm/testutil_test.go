package artm

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Alvant/bigartm/core/blas"
)

const testClass = "@default_class"

// newTestModel builds an in-memory topic model with the given per-token
// weight rows, keyed token00, token01, ...
func newTestModel(topics int, rows [][]float32) *TopicModel {
	names := make([]string, topics)
	for k := range names {
		names[k] = fmt.Sprintf("topic%02d", k)
	}
	m := NewTopicModel("test", names)
	for w, row := range rows {
		m.SetTokenWeights(Token{ClassID: testClass, Keyword: testKeyword(w)}, row)
	}
	return m
}

func testKeyword(w int) string {
	return fmt.Sprintf("token%02d", w)
}

// newTestBatch builds a batch over numTokens dictionary entries with
// one item per counts row; counts[d][w] is the occurrence count of
// token w in item d (zeros are omitted from the item).
func newTestBatch(numTokens int, counts [][]float32) *Batch {
	b := NewBatch()
	for w := 0; w < numTokens; w++ {
		b.AddToken(testClass, testKeyword(w))
	}
	for d, row := range counts {
		item := Item{ID: d}
		for w, c := range row {
			if c == 0 {
				continue
			}
			item.TokenIDs = append(item.TokenIDs, w)
			item.TokenWeights = append(item.TokenWeights, c)
		}
		b.Items = append(b.Items, item)
	}
	return b
}

func newTestSolver(schema *Schema) *Solver {
	if schema == nil {
		schema = NewSchema(MasterConfig{})
	}
	return NewSolver(schema, blas.Default(), zerolog.Nop())
}

// thetaColumn copies one item's topic vector out of Theta.
func thetaColumn(theta interface{ At(i, j int) float32 }, topics, d int) []float32 {
	col := make([]float32, topics)
	for k := range col {
		col[k] = theta.At(k, d)
	}
	return col
}
