package pipeline

import "github.com/Alvant/bigartm/core/artm"

// Input is one unit of work: a batch, pre-existing theta cache entries
// matched by (batch id, model name), and the named stream masks gating
// increments and scores.  BatchWeight scales the transaction-variant
// increment; zero means 1.
type Input struct {
	Batch       *artm.Batch
	BatchWeight float32
	CachedTheta []*artm.ThetaCacheEntry
	StreamNames []string
	StreamMasks [][]bool
}

// FindCacheEntry returns the cached theta for this batch and model, or
// nil.
func (in *Input) FindCacheEntry(cfg *artm.ModelConfig) *artm.ThetaCacheEntry {
	for _, e := range in.CachedTheta {
		if e.BatchID == in.Batch.ID && e.ModelName == cfg.Name {
			return e
		}
	}
	return nil
}

// StreamMask resolves a stream name to its per-item mask.  An empty or
// unknown name means no mask: every item is in-stream.
func (in *Input) StreamMask(name string) []bool {
	if name == "" {
		return nil
	}
	for i, n := range in.StreamNames {
		if n == name {
			return in.StreamMasks[i]
		}
	}
	return nil
}

// StreamIterator walks the items of an input in order, exposing
// per-stream membership for the score loop.
type StreamIterator struct {
	input *Input
	index int
}

func NewStreamIterator(in *Input) *StreamIterator {
	return &StreamIterator{input: in, index: -1}
}

// Next advances to the next item and returns it, or nil at the end.
func (it *StreamIterator) Next() *artm.Item {
	it.index++
	if it.index >= len(it.input.Batch.Items) {
		return nil
	}
	return &it.input.Batch.Items[it.index]
}

// ItemIndex returns the index of the current item.
func (it *StreamIterator) ItemIndex() int {
	return it.index
}

// InStream reports whether the current item belongs to the named
// stream.  An empty or unknown stream admits every item.
func (it *StreamIterator) InStream(name string) bool {
	mask := it.input.StreamMask(name)
	if mask == nil {
		return true
	}
	if it.index < 0 || it.index >= len(mask) {
		return false
	}
	return mask[it.index]
}
