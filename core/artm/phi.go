package artm

import (
	"fmt"
	"sync"

	"github.com/Alvant/bigartm/core/mat"
)

// denormalEps is the threshold below which Phi weights are reset to
// exactly zero when snapshotting, to avoid the denormal-number
// performance hit during the inner passes.
const denormalEps = 1e-16

// Token identifies a word within the global model: a keyword qualified
// by its class (modality) id.
type Token struct {
	ClassID string
	Keyword string
}

func (t Token) String() string {
	return t.ClassID + ":" + t.Keyword
}

// PhiMatrix is the read-only view of a global topic model snapshot.
// Many workers read one snapshot concurrently; implementations must not
// mutate under these calls.
type PhiMatrix interface {
	TopicCount() int
	TopicNames() []string
	HasToken(Token) bool
	// TokenIndex returns the model-global index of a token, or -1.
	TokenIndex(Token) int
	// TokenWeights returns the per-topic weight row of a token, or nil
	// when the token is unknown to the model.
	TokenWeights(Token) []float32
	// At returns the weight of one (global token index, topic) cell.
	At(tokenIndex, topic int) float32
}

// ModelProvider resolves a model name to the latest read-only topic
// model snapshot.
type ModelProvider interface {
	LatestTopicModel(name string) (PhiMatrix, bool)
}

// TopicModel is an in-memory PhiMatrix.  A nil weight row means the
// token has not been seen by the model.
type TopicModel struct {
	Name string

	topicNames []string
	tokens     []Token
	index      map[Token]int
	weights    [][]float32
}

func NewTopicModel(name string, topicNames []string) *TopicModel {
	if len(topicNames) == 0 {
		panic("artm: topic model needs at least one topic")
	}
	return &TopicModel{
		Name:       name,
		topicNames: topicNames,
		index:      make(map[Token]int),
	}
}

func (m *TopicModel) TopicCount() int {
	return len(m.topicNames)
}

func (m *TopicModel) TopicNames() []string {
	return m.topicNames
}

// SetTokenWeights sets the per-topic weights of a token, registering it
// if needed.
func (m *TopicModel) SetTokenWeights(t Token, weights []float32) {
	if len(weights) != m.TopicCount() {
		panic(fmt.Sprintf("artm: %d weights for %d topics of token %s",
			len(weights), m.TopicCount(), t))
	}
	i, ok := m.index[t]
	if !ok {
		i = len(m.tokens)
		m.tokens = append(m.tokens, t)
		m.weights = append(m.weights, nil)
		m.index[t] = i
	}
	row := make([]float32, len(weights))
	copy(row, weights)
	m.weights[i] = row
}

func (m *TopicModel) HasToken(t Token) bool {
	i, ok := m.index[t]
	return ok && m.weights[i] != nil
}

func (m *TopicModel) TokenIndex(t Token) int {
	if i, ok := m.index[t]; ok && m.weights[i] != nil {
		return i
	}
	return -1
}

func (m *TopicModel) TokenWeights(t Token) []float32 {
	if i, ok := m.index[t]; ok {
		return m.weights[i]
	}
	return nil
}

func (m *TopicModel) At(tokenIndex, topic int) float32 {
	return m.weights[tokenIndex][topic]
}

// ModelStore is a thread-safe in-memory ModelProvider keyed by model
// name.
type ModelStore struct {
	mu     sync.RWMutex
	models map[string]PhiMatrix
}

func NewModelStore() *ModelStore {
	return &ModelStore{models: make(map[string]PhiMatrix)}
}

func (s *ModelStore) Set(name string, m PhiMatrix) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models[name] = m
}

func (s *ModelStore) LatestTopicModel(name string) (PhiMatrix, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.models[name]
	return m, ok
}

// InitializePhi snapshots the rows of the global model that intersect
// the batch dictionary into a dense tokens x topics matrix.  Weights
// below denormalEps are snapped to zero.  Returns nil when no batch
// token exists in the model, in which case this model's pass over the
// batch is skipped (an empty increment is still emitted).
func InitializePhi(batch *Batch, model PhiMatrix) *mat.Dense {
	topicSize := model.TopicCount()
	phi := mat.NewDense(len(batch.Tokens), topicSize)
	empty := true
	for localID := range batch.Tokens {
		weights := model.TokenWeights(batch.Token(localID))
		if weights == nil {
			continue
		}
		empty = false
		row := phi.Row(localID)
		for k, v := range weights {
			if v < denormalEps {
				v = 0
			}
			row[k] = v
		}
	}
	if empty {
		return nil
	}
	return phi
}
