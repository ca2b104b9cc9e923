package artm

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/Alvant/bigartm/core/mat"
)

// ThetaCacheEntry maps (batch id, model name) to the per-item topic
// vectors of a finished run.  It warm-starts future runs over the same
// batch.  A spilled entry keeps only Filename; the vectors live on
// disk.
type ThetaCacheEntry struct {
	BatchID    string
	ModelName  string
	TopicNames []string

	ItemIDs []int
	Thetas  [][]float32

	Filename string
}

// NewThetaCacheEntry captures the final Theta of a run, one vector per
// item in batch order.
func NewThetaCacheEntry(batchID, modelName string, topicNames []string,
	batch *Batch, theta *mat.Dense) *ThetaCacheEntry {

	e := &ThetaCacheEntry{
		BatchID:    batchID,
		ModelName:  modelName,
		TopicNames: topicNames,
	}
	for d := range batch.Items {
		e.ItemIDs = append(e.ItemIDs, batch.Items[d].ID)
		vec := make([]float32, theta.Rows)
		for k := 0; k < theta.Rows; k++ {
			vec[k] = theta.At(k, d)
		}
		e.Thetas = append(e.Thetas, vec)
	}
	return e
}

// ItemIndex returns the position of an item id within the entry, or -1.
func (e *ThetaCacheEntry) ItemIndex(itemID int) int {
	for i, id := range e.ItemIDs {
		if id == itemID {
			return i
		}
	}
	return -1
}

// SpillToDisk writes the entry as a uuid-named file under dir and drops
// the in-memory vectors, keeping only the file reference.  On error the
// entry is left intact; the caller logs and continues without a
// persisted cache.
func (e *ThetaCacheEntry) SpillToDisk(dir string) error {
	name := filepath.Join(dir, uuid.NewString()+".cache")
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("create cache file %s: %w", name, err)
	}
	if err := gob.NewEncoder(f).Encode(e); err != nil {
		f.Close()
		os.Remove(name)
		return fmt.Errorf("encode cache entry to %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("close cache file %s: %w", name, err)
	}

	e.Filename = name
	e.ItemIDs = nil
	e.Thetas = nil
	return nil
}

// LoadThetaCacheEntry reads back an entry spilled by SpillToDisk.
func LoadThetaCacheEntry(filename string) (*ThetaCacheEntry, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open cache file %s: %w", filename, err)
	}
	defer f.Close()

	e := new(ThetaCacheEntry)
	if err := gob.NewDecoder(f).Decode(e); err != nil {
		return nil, fmt.Errorf("decode cache entry %s: %w", filename, err)
	}
	return e, nil
}
