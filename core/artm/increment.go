package artm

import (
	"fmt"

	"github.com/Alvant/bigartm/core/mat"
)

// OperationType tells the merger what to do with one token of an
// increment.
type OperationType int

const (
	// OpIncrementValue carries a per-topic delta for a token the
	// global model already has.
	OpIncrementValue OperationType = iota
	// OpCreateIfNotExist marks a token unseen by the model; it carries
	// no values.
	OpCreateIfNotExist
)

// ModelIncrement is the engine's output artifact for one (batch,
// enabled model) pair: per-token topic-weight deltas or create markers,
// the serialized cumulative scores, and optionally a theta cache entry.
// Ownership transfers to the consumer once enqueued.
type ModelIncrement struct {
	BatchID     string
	ModelName   string
	TopicsCount int
	TopicNames  []string

	Tokens          []Token
	OperationTypes  []OperationType
	TokenIncrements [][]float32

	ScoreNames []string
	Scores     [][]byte

	Cache *ThetaCacheEntry
}

// InitializeModelIncrement allocates the increment skeleton for a
// batch: one row per batch token, zero-valued for tokens the model
// knows and a create marker for the rest.  Allocating up front lets the
// worker enqueue the (possibly still empty) increment on every exit
// path.
func InitializeModelIncrement(batchID string, batch *Batch,
	cfg *ModelConfig, model PhiMatrix) *ModelIncrement {

	mi := &ModelIncrement{
		BatchID:     batchID,
		ModelName:   cfg.Name,
		TopicsCount: cfg.TopicsCount,
		TopicNames:  model.TopicNames(),
	}
	for localID := range batch.Tokens {
		token := batch.Token(localID)
		mi.Tokens = append(mi.Tokens, token)
		if model.HasToken(token) {
			mi.OperationTypes = append(mi.OperationTypes, OpIncrementValue)
			mi.TokenIncrements = append(mi.TokenIncrements,
				make([]float32, cfg.TopicsCount))
		} else {
			mi.OperationTypes = append(mi.OperationTypes, OpCreateIfNotExist)
			mi.TokenIncrements = append(mi.TokenIncrements, nil)
		}
	}
	return mi
}

// SetFromNwt copies the solver's accumulated token x topic counts into
// the increment rows of existing tokens.  Create-marker rows stay
// empty.
func (mi *ModelIncrement) SetFromNwt(nwt *mat.Dense) {
	for localID := 0; localID < nwt.Rows; localID++ {
		row := mi.TokenIncrements[localID]
		if len(row) == 0 {
			continue
		}
		if len(row) != mi.TopicsCount {
			panic(fmt.Sprintf(
				"artm: increment row of token %s has %d topics, want %d",
				mi.Tokens[localID], len(row), mi.TopicsCount))
		}
		if mi.OperationTypes[localID] == OpIncrementValue {
			copy(row, nwt.Row(localID))
		}
	}
}

// Store accumulates values into the row of a batch-local token.  It is
// the write path of the transaction solver, which touches each member
// token of a transaction once per transaction.
func (mi *ModelIncrement) Store(localID int, values []float32) {
	row := mi.TokenIncrements[localID]
	if len(row) == 0 || mi.OperationTypes[localID] != OpIncrementValue {
		return
	}
	for k, v := range values {
		row[k] += v
	}
}

// AttachScore appends one serialized cumulative score payload.
func (mi *ModelIncrement) AttachScore(name string, payload []byte) {
	mi.ScoreNames = append(mi.ScoreNames, name)
	mi.Scores = append(mi.Scores, payload)
}
