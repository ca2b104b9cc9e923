package pipeline

import (
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Alvant/bigartm/core/artm"
	"github.com/Alvant/bigartm/core/blas"
)

// Pool runs a fixed set of processors over shared input and output
// queues.  Batches are distributed by contention; no ordering holds
// between batches of different workers or between the increments of
// different models for one batch.
type Pool struct {
	in  *Queue[*Input]
	out *Queue[*artm.ModelIncrement]

	processors []*Processor
	stop       atomic.Bool
	group      errgroup.Group
}

func NewPool(numProcessors int, schema *artm.Schema, models artm.ModelProvider,
	kernel blas.Provider, log zerolog.Logger) *Pool {

	if numProcessors <= 0 {
		numProcessors = 1
	}
	p := &Pool{
		in:  NewQueue[*Input](),
		out: NewQueue[*artm.ModelIncrement](),
	}
	for i := 0; i < numProcessors; i++ {
		p.processors = append(p.processors,
			NewProcessor(i, p.in, p.out, schema, models, kernel, &p.stop, log))
	}
	return p
}

// Submit enqueues a unit of work.
func (p *Pool) Submit(in *Input) {
	p.in.Push(in)
}

// Increments is the downstream queue the merger drains.
func (p *Pool) Increments() *Queue[*artm.ModelIncrement] {
	return p.out
}

// Pending returns the number of not-yet-claimed units of work.
func (p *Pool) Pending() int {
	return p.in.Len()
}

// Start launches every processor.  Call Stop to terminate.
func (p *Pool) Start() {
	for _, proc := range p.processors {
		proc := proc
		p.group.Go(proc.Run)
	}
}

// Stop raises the cooperative stop flag and waits for the processors to
// drain their in-flight work.  It returns the first fatal worker error,
// if any.
func (p *Pool) Stop() error {
	p.stop.Store(true)
	return p.group.Wait()
}

// Stopping reports whether the stop flag has been raised.
func (p *Pool) Stopping() bool {
	return p.stop.Load()
}
