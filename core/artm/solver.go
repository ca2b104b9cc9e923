package artm

import (
	"github.com/rs/zerolog"

	"github.com/Alvant/bigartm/core/blas"
	"github.com/Alvant/bigartm/core/mat"
)

// Solver runs the EM inner passes for one (batch, model) pair.  It is
// stateless across calls apart from the injected kernel provider and
// logger, so one instance serves a whole worker.
type Solver struct {
	schema *Schema
	kernel blas.Provider
	log    zerolog.Logger
}

func NewSolver(schema *Schema, kernel blas.Provider, log zerolog.Logger) *Solver {
	if kernel == nil {
		kernel = blas.Default()
	}
	return &Solver{schema: schema, kernel: kernel, log: log}
}

// CalculateNwtSparse refines Theta in place over the configured inner
// passes and returns the accumulated tokens x topics counts.  Theta is
// column-major; Phi and the result are row-major.  Cells whose model
// probability is exactly zero contribute nothing for that pass.  When a
// stream mask is given, only items flagged true feed the returned
// counts; their Theta is still inferred.
func (s *Solver) CalculateNwtSparse(cfg *ModelConfig, batch *Batch,
	mask []bool, ndw *mat.Csr, phi, theta *mat.Dense) *mat.Dense {

	topics := phi.Cols
	docs := theta.Cols
	nwt := mat.NewDense(phi.Rows, phi.Cols)

	for inner := 0; inner < cfg.InnerIterationsCount; inner++ {
		ntd := mat.NewDenseByCols(theta.Rows, theta.Cols)
		for d := 0; d < docs; d++ {
			for i := ndw.RowPtr[d]; i < ndw.RowPtr[d+1]; i++ {
				w := ndw.ColInd[i]
				p := s.kernel.Sdot(topics, phi.Row(w), 1, theta.Col(d), 1)
				if p == 0 {
					continue
				}
				s.kernel.Saxpy(topics, ndw.Val[i]/p, phi.Row(w), 1, ntd.Col(d), 1)
			}
		}
		mat.MulElement(theta, theta, ntd)
		s.regularizeAndNormalizeTheta(inner, batch, cfg, theta)
	}

	// Accumulate against the final Theta, iterating token-major over
	// the transposed counts.
	nwd := ndw.Clone()
	nwd.Transpose()
	for w := 0; w < phi.Rows; w++ {
		for i := nwd.RowPtr[w]; i < nwd.RowPtr[w+1]; i++ {
			d := nwd.ColInd[i]
			if mask != nil && !mask[d] {
				continue
			}
			p := s.kernel.Sdot(topics, phi.Row(w), 1, theta.Col(d), 1)
			if p == 0 {
				continue
			}
			s.kernel.Saxpy(topics, nwd.Val[i]/p, theta.Col(d), 1, nwt.Row(w), 1)
		}
	}
	mat.MulElement(nwt, nwt, phi)
	return nwt
}

// CalculateNwtDense is the matrix-product formulation of the same
// computation, numerically equivalent for matching inputs.  All
// matrices are row-major; the probability-ratio matrix Z = Ndw ./
// (Phi*Theta) drives both the Theta update (Phi^T * Z) and the final
// counts (Z * Theta^T), with the zero-guarded division supplying the
// skip-on-zero-probability semantics.
func (s *Solver) CalculateNwtDense(cfg *ModelConfig, batch *Batch,
	mask []bool, ndw, phi, theta *mat.Dense) *mat.Dense {

	tokens := phi.Rows
	topics := phi.Cols
	docs := theta.Cols
	nwt := mat.NewDense(tokens, topics)

	z := mat.NewDense(tokens, docs)
	for inner := 0; inner < cfg.InnerIterationsCount; inner++ {
		s.kernel.Sgemm(false, false, tokens, docs, topics, 1,
			phi.Data, topics, theta.Data, docs, 0, z.Data, docs)
		mat.DivElement(z, ndw, z)

		prod := mat.NewDense(topics, docs)
		s.kernel.Sgemm(true, false, topics, docs, tokens, 1,
			phi.Data, topics, z.Data, docs, 0, prod.Data, docs)

		mat.MulElement(theta, theta, prod)
		s.regularizeAndNormalizeTheta(inner, batch, cfg, theta)
	}

	s.kernel.Sgemm(false, false, tokens, docs, topics, 1,
		phi.Data, topics, theta.Data, docs, 0, z.Data, docs)
	mat.DivElement(z, ndw, z)

	if mask != nil {
		// Drop out-of-stream columns before the final product.
		kept := 0
		for _, in := range mask {
			if in {
				kept++
			}
		}
		maskedZ := mat.NewDense(tokens, kept)
		maskedTheta := mat.NewDense(topics, kept)
		col := 0
		for d, in := range mask {
			if !in {
				continue
			}
			for w := 0; w < tokens; w++ {
				maskedZ.Set(w, col, z.At(w, d))
			}
			for k := 0; k < topics; k++ {
				maskedTheta.Set(k, col, theta.At(k, d))
			}
			col++
		}

		prod := mat.NewDense(tokens, topics)
		s.kernel.Sgemm(false, true, tokens, topics, kept, 1,
			maskedZ.Data, kept, maskedTheta.Data, kept, 0, prod.Data, topics)
		mat.MulElement(nwt, prod, phi)
	} else {
		prod := mat.NewDense(tokens, topics)
		s.kernel.Sgemm(false, true, tokens, topics, docs, 1,
			z.Data, docs, theta.Data, docs, 0, prod.Data, topics)
		mat.MulElement(nwt, prod, phi)
	}

	return nwt
}

// regularizeAndNormalizeTheta runs every configured regularizer over
// each item's topic vector and renormalizes, once per inner pass.
func (s *Solver) regularizeAndNormalizeTheta(innerIter int, batch *Batch,
	cfg *ModelConfig, theta *mat.Dense) {

	buf := make([]float32, cfg.TopicsCount)
	for d := range batch.Items {
		s.regularizeAndNormalizeThetaItem(innerIter, batch, d, cfg, theta, buf)
	}
}

// regularizeAndNormalizeThetaItem applies the declared regularizers in
// order to one item's column, clamps negative mass, renormalizes to sum
// one (or zeroes the column when no positive mass remains), and snaps
// entries below denormalEps to exactly zero.
func (s *Solver) regularizeAndNormalizeThetaItem(innerIter int, batch *Batch,
	d int, cfg *ModelConfig, theta *mat.Dense, buf []float32) {

	topics := cfg.TopicsCount
	for k := 0; k < topics; k++ {
		buf[k] = theta.At(k, d)
	}

	item := &batch.Items[d]
	for i, name := range cfg.RegularizerNames {
		reg := s.schema.Regularizer(name)
		if reg == nil {
			s.log.Error().Str("regularizer", name).
				Msg("theta regularizer does not exist")
			continue
		}
		tau := cfg.RegularizerTaus[i]
		if !reg.RegularizeTheta(item, buf, cfg.TopicNames, innerIter, tau) {
			s.log.Error().Str("regularizer", name).Int("inner_iter", innerIter).
				Msg("theta regularizer failed, turned off for this pass")
		}
	}

	for k := 0; k < topics; k++ {
		if buf[k] < 0 {
			buf[k] = 0
		}
	}

	var sum float32
	for k := 0; k < topics; k++ {
		sum += buf[k]
	}

	for k := 0; k < topics; k++ {
		v := float32(0)
		if sum > 0 {
			v = buf[k] / sum
		}
		if v < denormalEps {
			v = 0
		}
		theta.Set(k, d, v)
	}
}
