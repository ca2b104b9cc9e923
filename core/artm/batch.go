// Package artm implements the per-batch EM inference step of an
// additively-regularized topic model: given a read-only snapshot of the
// global word-topic matrix (Phi), it refines a local document-topic
// matrix (Theta) over a fixed number of inner passes and emits the
// word-topic increment (Nwt) that a downstream merger folds into the
// global model.
package artm

import (
	"fmt"

	"github.com/google/uuid"
)

// Item is one document of a batch.  Token occurrences are parallel
// slices of batch-local token ids and their (possibly fractional)
// counts.  When transactions are present, TransactionStart holds the
// boundaries of contiguous token ranges, including a trailing sentinel,
// and TransactionTypeIDs names the batch-level transaction type of each
// range.
type Item struct {
	ID           int
	TokenIDs     []int
	TokenWeights []float32

	TransactionStart   []int
	TransactionTypeIDs []int
}

// NumTransactions returns the number of token ranges of the item, or
// zero when the item carries plain independent tokens.
func (it *Item) NumTransactions() int {
	if len(it.TransactionStart) < 2 {
		return 0
	}
	return len(it.TransactionStart) - 1
}

// Batch is an immutable unit of work: an ordered set of items over a
// batch-local token dictionary.  Tokens and ClassIDs are parallel; a
// token's identity within the global model is the (class id, keyword)
// pair.
type Batch struct {
	ID               string
	Tokens           []string
	ClassIDs         []string
	TransactionTypes []string
	Items            []Item
}

// NewBatch creates an empty batch with a fresh uuid.
func NewBatch() *Batch {
	return &Batch{ID: uuid.NewString()}
}

// AddToken registers a (class id, keyword) pair in the batch dictionary
// and returns its local id.
func (b *Batch) AddToken(classID, keyword string) int {
	b.Tokens = append(b.Tokens, keyword)
	b.ClassIDs = append(b.ClassIDs, classID)
	return len(b.Tokens) - 1
}

// Token returns the (class id, keyword) pair of a local token id.
func (b *Batch) Token(localID int) Token {
	return Token{ClassID: b.ClassIDs[localID], Keyword: b.Tokens[localID]}
}

// TokenDict materializes the batch dictionary as a slice indexed by
// local token id, the form score calculators consume.
func (b *Batch) TokenDict() []Token {
	dict := make([]Token, len(b.Tokens))
	for i := range b.Tokens {
		dict[i] = b.Token(i)
	}
	return dict
}

// HasTransactions reports whether any item of the batch groups its
// tokens into transactions.
func (b *Batch) HasTransactions() bool {
	for i := range b.Items {
		if b.Items[i].NumTransactions() > 0 {
			return true
		}
	}
	return false
}

// Validate checks the structural invariants a batch must satisfy
// before inference.  A violation is a fatal condition for the run.
func (b *Batch) Validate() error {
	if len(b.ClassIDs) != len(b.Tokens) {
		return fmt.Errorf("%w: batch %s has %d class ids for %d tokens",
			ErrConfig, b.ID, len(b.ClassIDs), len(b.Tokens))
	}
	for i := range b.Items {
		it := &b.Items[i]
		if len(it.TokenIDs) != len(it.TokenWeights) {
			return fmt.Errorf("%w: batch %s item %d has %d token ids for %d weights",
				ErrConfig, b.ID, it.ID, len(it.TokenIDs), len(it.TokenWeights))
		}
		if n := it.NumTransactions(); n > 0 && len(it.TransactionTypeIDs) != n {
			return fmt.Errorf("%w: batch %s item %d has %d transaction types for %d transactions",
				ErrConfig, b.ID, it.ID, len(it.TransactionTypeIDs), n)
		}
	}
	return nil
}
