package pipeline

import (
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/Alvant/bigartm/core/artm"
	"github.com/Alvant/bigartm/core/blas"
)

const testClass = "@default_class"

func testKeyword(w int) string {
	return fmt.Sprintf("token%02d", w)
}

// newPipelineBatch builds a batch where counts[d][w] is the occurrence
// count of token w in item d.
func newPipelineBatch(numTokens int, counts [][]float32) *artm.Batch {
	b := artm.NewBatch()
	for w := 0; w < numTokens; w++ {
		b.AddToken(testClass, testKeyword(w))
	}
	for d, row := range counts {
		item := artm.Item{ID: d}
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

// newPipelineModel builds a store holding one uniform topic model that
// covers numTokens dictionary entries.
func newPipelineModel(name string, topics, numTokens int) *artm.ModelStore {
	names := make([]string, topics)
	for k := range names {
		names[k] = fmt.Sprintf("topic%02d", k)
	}
	m := artm.NewTopicModel(name, names)
	row := make([]float32, topics)
	for k := range row {
		row[k] = 1 / float32(topics)
	}
	for w := 0; w < numTokens; w++ {
		m.SetTokenWeights(artm.Token{ClassID: testClass, Keyword: testKeyword(w)}, row)
	}
	store := artm.NewModelStore()
	store.Set(name, m)
	return store
}

func newTestModelConfig(name string, topics int) *artm.ModelConfig {
	return &artm.ModelConfig{
		Name:                 name,
		TopicsCount:          topics,
		InnerIterationsCount: 2,
		Enabled:              true,
		UseSparseBow:         true,
	}
}

// newTestProcessor wires a single processor over fresh queues.
func newTestProcessor(schema *artm.Schema, models artm.ModelProvider) *Processor {
	return NewProcessor(0, NewQueue[*Input](), NewQueue[*artm.ModelIncrement](),
		schema, models, blas.Default(), new(atomic.Bool), zerolog.Nop())
}

// drain pops every queued increment.
func drain(q *Queue[*artm.ModelIncrement]) []*artm.ModelIncrement {
	var out []*artm.ModelIncrement
	for {
		mi, ok := q.TryPop()
		if !ok {
			return out
		}
		out = append(out, mi)
	}
}
