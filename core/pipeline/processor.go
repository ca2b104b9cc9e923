package pipeline

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/Alvant/bigartm/core/artm"
	"github.com/Alvant/bigartm/core/blas"
	"github.com/Alvant/bigartm/core/mat"
)

// Diagnostic escalation thresholds: the idle/full conditions are logged
// once after this many consecutive polls, not on every poll.
const (
	popRetriesMax  = 20
	pushRetriesMax = 50
)

// Processor is one worker of the pipeline.  It owns its Theta, count
// matrices and buffers exclusively; the topic model snapshots it reads
// are shared and read-only.
type Processor struct {
	in     *Queue[*Input]
	out    *Queue[*artm.ModelIncrement]
	schema *artm.Schema
	models artm.ModelProvider
	solver *artm.Solver
	stop   *atomic.Bool
	log    zerolog.Logger
	rng    *rand.Rand

	processed int
}

func NewProcessor(id int, in *Queue[*Input], out *Queue[*artm.ModelIncrement],
	schema *artm.Schema, models artm.ModelProvider, kernel blas.Provider,
	stop *atomic.Bool, log zerolog.Logger) *Processor {

	log = log.With().Int("processor", id).Logger()
	return &Processor{
		in:     in,
		out:    out,
		schema: schema,
		models: models,
		solver: artm.NewSolver(schema, kernel, log),
		stop:   stop,
		log:    log,
		rng:    rand.New(rand.NewSource(int64(id) + 1)),
	}
}

// Run is the worker loop.  It returns nil on cooperative stop and the
// first fatal error otherwise; in-flight work always runs to completion
// (including its increment pushes) before the stop flag is observed.
func (p *Processor) Run() error {
	p.log.Info().Msg("processor started")
	idle := p.schema.Config.IdleLoopFrequency
	popRetries := 0

	for {
		if p.stop.Load() {
			p.log.Info().Int("batches", p.processed).Msg("processor stopped")
			return nil
		}

		input, ok := p.in.TryPop()
		if !ok {
			popRetries++
			if popRetries == popRetriesMax {
				p.log.Info().Msg("no data in processing queue, waiting")
			}
			time.Sleep(idle)
			continue
		}
		if popRetries >= popRetriesMax {
			p.log.Info().Msg("processing queue has data, processing started")
		}
		popRetries = 0

		start := time.Now()
		if err := p.processBatch(input); err != nil {
			p.log.Error().Err(err).Str("batch", input.Batch.ID).
				Msg("fatal error while processing batch")
			return err
		}
		p.processed++
		p.log.Info().Str("batch", input.Batch.ID).
			Dur("elapsed", time.Since(start)).Msg("batch processed")

		// Wait until the merger queue has room before taking new work.
		pushRetries := 0
		for p.out.Len() >= p.schema.Config.MergerQueueMaxSize {
			if p.stop.Load() {
				break
			}
			pushRetries++
			if pushRetries == pushRetriesMax {
				p.log.Warn().Msg("merger queue is full, waiting")
			}
			time.Sleep(idle)
		}
		if pushRetries >= pushRetriesMax {
			p.log.Warn().Msg("merger queue is healthy again")
		}
	}
}

func (p *Processor) processBatch(input *Input) error {
	batch := input.Batch
	if err := batch.Validate(); err != nil {
		return err
	}

	// The dense count matrix does not depend on model configuration,
	// so every dense-path model of the batch shares one instance.
	var denseNdw *mat.Dense

	for _, name := range p.schema.ModelNames() {
		cfg := p.schema.Model(name)
		if !cfg.Enabled {
			continue
		}
		if err := p.processModel(input, cfg, &denseNdw); err != nil {
			return err
		}
	}
	return nil
}

// processModel runs inference for one enabled model.  Exactly one
// increment is enqueued no matter how this function exits, via the
// deferred push right after the increment skeleton is allocated.
func (p *Processor) processModel(input *Input, cfg *artm.ModelConfig,
	denseNdw **mat.Dense) error {

	if err := cfg.Validate(); err != nil {
		return err
	}

	model, ok := p.models.LatestTopicModel(cfg.Name)
	if !ok {
		return fmt.Errorf("%w: no topic model for %q", artm.ErrUnknownModel, cfg.Name)
	}
	topicSize := model.TopicCount()
	if topicSize != cfg.TopicsCount {
		return fmt.Errorf("%w: model %q configures %d topics but the physical model has %d",
			artm.ErrConfig, cfg.Name, cfg.TopicsCount, topicSize)
	}

	batch := input.Batch

	var sparseNdw *mat.Csr
	if cfg.UseSparseBow {
		sparseNdw = artm.InitializeSparseNdw(batch, cfg)
	} else if *denseNdw == nil {
		*denseNdw = artm.InitializeDenseNdw(batch)
	}

	theta := artm.InitializeTheta(batch, cfg, input.FindCacheEntry(cfg), p.rng)

	increment := artm.InitializeModelIncrement(batch.ID, batch, cfg, model)
	defer p.out.Push(increment)

	phi := artm.InitializePhi(batch, model)
	if phi == nil {
		p.log.Info().Str("model", cfg.Name).
			Msg("phi is empty, model not processed on this iteration")
		return nil
	}

	mask := input.StreamMask(cfg.StreamName)

	if batch.HasTransactions() {
		weight := input.BatchWeight
		if weight == 0 {
			weight = 1
		}
		p.solver.TransactionInferThetaAndUpdateNwt(cfg, batch, weight,
			model, theta, increment)
	} else if cfg.UseSparseBow {
		nwt := p.solver.CalculateNwtSparse(cfg, batch, mask, sparseNdw, phi, theta)
		increment.SetFromNwt(nwt)
	} else {
		nwt := p.solver.CalculateNwtDense(cfg, batch, mask, *denseNdw, phi, theta)
		increment.SetFromNwt(nwt)
	}

	if p.schema.Config.CacheTheta {
		entry := artm.NewThetaCacheEntry(batch.ID, cfg.Name,
			model.TopicNames(), batch, theta)
		if dir := p.schema.Config.DiskCachePath; dir != "" {
			if err := entry.SpillToDisk(dir); err != nil {
				p.log.Error().Err(err).Str("path", dir).
					Msg("unable to save theta cache entry")
			}
		}
		increment.Cache = entry
	}

	p.appendScores(input, cfg, model, theta, increment)
	return nil
}

// appendScores runs every cumulative calculator named by the model over
// the in-stream items and attaches the serialized accumulators.
func (p *Processor) appendScores(input *Input, cfg *artm.ModelConfig,
	model artm.PhiMatrix, theta *mat.Dense, increment *artm.ModelIncrement) {

	type slot struct {
		name  string
		calc  artm.ScoreCalculator
		score artm.Score
	}
	var slots []slot
	for _, name := range cfg.ScoreNames {
		calc := p.schema.ScoreCalculator(name)
		if calc == nil {
			p.log.Error().Str("score", name).Str("model", cfg.Name).
				Msg("unable to find score calculator")
			continue
		}
		if !calc.IsCumulative() {
			continue
		}
		slots = append(slots, slot{name, calc, calc.CreateScore()})
	}
	if len(slots) == 0 {
		return
	}

	dict := input.Batch.TokenDict()
	topicSize := cfg.TopicsCount
	thetaVec := make([]float32, topicSize)

	iter := NewStreamIterator(input)
	for item := iter.Next(); item != nil; item = iter.Next() {
		for _, sl := range slots {
			if !iter.InStream(sl.calc.StreamName()) {
				continue
			}
			d := iter.ItemIndex()
			for k := 0; k < topicSize; k++ {
				thetaVec[k] = theta.At(k, d)
			}
			sl.calc.AppendScore(item, dict, model, thetaVec, sl.score)
		}
	}

	for _, sl := range slots {
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(&sl.score); err != nil {
			p.log.Error().Err(err).Str("score", sl.name).
				Msg("failed serializing score")
			continue
		}
		increment.AttachScore(sl.name, buf.Bytes())
	}
}

// InferTheta runs the solver for one batch and model with no stream
// mask and no increment, returning a fresh theta cache entry.  It
// serves theta lookups over batches outside the regular pipeline flow.
// A batch with no token in the model yields a nil entry.
func (p *Processor) InferTheta(batch *artm.Batch, modelName string) (*artm.ThetaCacheEntry, error) {
	cfg := p.schema.Model(modelName)
	if cfg == nil {
		return nil, fmt.Errorf("%w: %q", artm.ErrUnknownModel, modelName)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := batch.Validate(); err != nil {
		return nil, err
	}
	model, ok := p.models.LatestTopicModel(modelName)
	if !ok {
		return nil, fmt.Errorf("%w: no topic model for %q", artm.ErrUnknownModel, modelName)
	}
	if model.TopicCount() != cfg.TopicsCount {
		return nil, fmt.Errorf("%w: model %q configures %d topics but the physical model has %d",
			artm.ErrConfig, modelName, cfg.TopicsCount, model.TopicCount())
	}

	theta := artm.InitializeTheta(batch, cfg, nil, p.rng)
	phi := artm.InitializePhi(batch, model)
	if phi == nil {
		p.log.Info().Str("model", modelName).
			Msg("phi is empty, theta not inferred")
		return nil, nil
	}

	if batch.HasTransactions() {
		p.solver.TransactionInferThetaAndUpdateNwt(cfg, batch, 1, model, theta, nil)
	} else if cfg.UseSparseBow {
		ndw := artm.InitializeSparseNdw(batch, cfg)
		p.solver.CalculateNwtSparse(cfg, batch, nil, ndw, phi, theta)
	} else {
		ndw := artm.InitializeDenseNdw(batch)
		p.solver.CalculateNwtDense(cfg, batch, nil, ndw, phi, theta)
	}

	return artm.NewThetaCacheEntry(batch.ID, modelName, model.TopicNames(), batch, theta), nil
}
