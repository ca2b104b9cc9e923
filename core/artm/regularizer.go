package artm

// ThetaRegularizer is the additive-regularization capability invoked on
// every item's topic vector after each inner pass.  The implementation
// may mutate theta arbitrarily; it returns false to signal an
// invocation problem, which suppresses only this pass's effect of this
// regularizer, not the run.
type ThetaRegularizer interface {
	RegularizeTheta(item *Item, theta []float32, topicNames []string,
		innerIter int, tau float64) bool
}

// SmoothSparseTheta adds tau * alpha to every topic component: positive
// tau smooths Theta towards the prior, negative tau sparsifies it (the
// normalization step clamps negative mass to zero).  A nil Alpha means
// a uniform prior of 1.
type SmoothSparseTheta struct {
	Alpha []float32
}

func (r *SmoothSparseTheta) RegularizeTheta(_ *Item, theta []float32,
	_ []string, _ int, tau float64) bool {

	if r.Alpha != nil && len(r.Alpha) != len(theta) {
		return false
	}
	for k := range theta {
		alpha := float32(1)
		if r.Alpha != nil {
			alpha = r.Alpha[k]
		}
		theta[k] += float32(tau) * alpha
	}
	return true
}
