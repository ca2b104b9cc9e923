package artm

import "github.com/Alvant/bigartm/core/mat"

// InitializeSparseNdw builds the items x tokens count matrix in CSR
// form, applying the model's per-class weights to each occurrence as it
// is recorded.  The row pointer doubles as the per-item range boundary,
// so an item's occurrences are addressable without scanning.  Because
// class weights differ across models, the sparse form is rebuilt per
// model.
func InitializeSparseNdw(batch *Batch, cfg *ModelConfig) *mat.Csr {
	var val []float32
	var colInd []int
	rowPtr := make([]int, 0, len(batch.Items)+1)

	for i := range batch.Items {
		rowPtr = append(rowPtr, len(val))
		item := &batch.Items[i]
		for j, localID := range item.TokenIDs {
			weight := float32(1)
			if cfg.UseClassWeights() {
				weight = cfg.ClassWeight(batch.ClassIDs[localID])
			}
			val = append(val, weight*item.TokenWeights[j])
			colInd = append(colInd, localID)
		}
	}
	rowPtr = append(rowPtr, len(val))

	return mat.NewCsr(len(batch.Tokens), val, rowPtr, colInd)
}

// InitializeDenseNdw builds the tokens x items count matrix.  It is
// independent of per-class weighting, so one instance is shared by
// every dense-path model of a batch.
func InitializeDenseNdw(batch *Batch) *mat.Dense {
	ndw := mat.NewDense(len(batch.Tokens), len(batch.Items))
	for d := range batch.Items {
		item := &batch.Items[d]
		for j, localID := range item.TokenIDs {
			ndw.Set(localID, d, ndw.At(localID, d)+item.TokenWeights[j])
		}
	}
	return ndw
}
