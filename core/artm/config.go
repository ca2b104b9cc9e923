package artm

import (
	"fmt"
	"time"
)

// ModelConfig describes one model to be inferred over incoming batches.
// Parallel name/value slices (class ids and weights, regularizer names
// and taus, transaction types and weights) follow the wire layout of
// the configuration messages and are validated for equal length.
type ModelConfig struct {
	Name        string
	TopicsCount int
	TopicNames  []string

	InnerIterationsCount int
	Enabled              bool

	// UseSparseBow selects the sparse count-matrix solver; the dense
	// solver is used otherwise.
	UseSparseBow bool

	// ReuseTheta warm-starts Theta from a matching cache entry;
	// UseRandomTheta draws the cold-start values at random instead of
	// uniformly.
	ReuseTheta     bool
	UseRandomTheta bool

	ClassIDs     []string
	ClassWeights []float32

	RegularizerNames []string
	RegularizerTaus  []float64

	ScoreNames []string

	// StreamName selects which named stream mask of the input gates
	// the increment; empty means every item contributes.
	StreamName string

	TransactionTypes   []string
	TransactionWeights []float32
}

// Validate reports the fatal configuration inconsistencies.
func (c *ModelConfig) Validate() error {
	if c.TopicsCount <= 0 {
		return fmt.Errorf("%w: model %q has topics count %d",
			ErrConfig, c.Name, c.TopicsCount)
	}
	if len(c.TopicNames) != 0 && len(c.TopicNames) != c.TopicsCount {
		return fmt.Errorf("%w: model %q has %d topic names for %d topics",
			ErrConfig, c.Name, len(c.TopicNames), c.TopicsCount)
	}
	if len(c.ClassIDs) != len(c.ClassWeights) {
		return fmt.Errorf("%w: model %q has %d class ids for %d class weights",
			ErrConfig, c.Name, len(c.ClassIDs), len(c.ClassWeights))
	}
	if len(c.RegularizerNames) != len(c.RegularizerTaus) {
		return fmt.Errorf("%w: model %q has %d regularizer names for %d taus",
			ErrConfig, c.Name, len(c.RegularizerNames), len(c.RegularizerTaus))
	}
	if len(c.TransactionTypes) != len(c.TransactionWeights) {
		return fmt.Errorf("%w: model %q has %d transaction types for %d weights",
			ErrConfig, c.Name, len(c.TransactionTypes), len(c.TransactionWeights))
	}
	return nil
}

// UseClassWeights reports whether per-modality weighting is configured.
// Without it every class contributes with weight 1.
func (c *ModelConfig) UseClassWeights() bool {
	return len(c.ClassIDs) != 0
}

// ClassWeight returns the multiplicative weight of a class id.  A class
// referenced by a token but absent from the weighting table weighs 0,
// which discards that modality for this model.
func (c *ModelConfig) ClassWeight(classID string) float32 {
	if !c.UseClassWeights() {
		return 1
	}
	for i, id := range c.ClassIDs {
		if id == classID {
			return c.ClassWeights[i]
		}
	}
	return 0
}

// TransactionWeight returns the weight of a transaction type, or 0 for
// an unrecognized type when per-type weighting is enabled and 1
// otherwise.
func (c *ModelConfig) TransactionWeight(typeName string) float32 {
	if len(c.TransactionTypes) == 0 {
		return 1
	}
	for i, name := range c.TransactionTypes {
		if name == typeName {
			return c.TransactionWeights[i]
		}
	}
	return 0
}

// MasterConfig holds the engine-wide knobs shared by every model.
type MasterConfig struct {
	// CacheTheta attaches a theta cache entry to every increment;
	// DiskCachePath, when set, spills those entries to uuid-named
	// files under the path and keeps only the file reference.
	CacheTheta    bool
	DiskCachePath string

	// MergerQueueMaxSize bounds the downstream queue; a worker waits
	// while the queue is at or above this size before taking new work.
	MergerQueueMaxSize int

	// IdleLoopFrequency is the polling delay used both on an empty
	// input queue and on a full output queue.
	IdleLoopFrequency time.Duration
}

// DefaultMasterConfig mirrors the engine's built-in defaults.
func DefaultMasterConfig() MasterConfig {
	return MasterConfig{
		MergerQueueMaxSize: 10,
		IdleLoopFrequency:  20 * time.Millisecond,
	}
}

// Schema is the resolved run configuration: the master config, the
// ordered model configurations, and the name-to-capability registries
// of regularizers and score calculators.  Registries are resolved once
// per run, not re-resolved per item.
type Schema struct {
	Config MasterConfig

	models       []*ModelConfig
	regularizers map[string]ThetaRegularizer
	scores       map[string]ScoreCalculator
}

func NewSchema(cfg MasterConfig) *Schema {
	if cfg.MergerQueueMaxSize <= 0 {
		cfg.MergerQueueMaxSize = DefaultMasterConfig().MergerQueueMaxSize
	}
	if cfg.IdleLoopFrequency <= 0 {
		cfg.IdleLoopFrequency = DefaultMasterConfig().IdleLoopFrequency
	}
	return &Schema{
		Config:       cfg,
		regularizers: make(map[string]ThetaRegularizer),
		scores:       make(map[string]ScoreCalculator),
	}
}

// AddModel registers a model configuration.  Registration order is the
// order models are processed for each batch.
func (s *Schema) AddModel(cfg *ModelConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.models = append(s.models, cfg)
	return nil
}

// ModelNames returns the registered model names in registration order.
func (s *Schema) ModelNames() []string {
	names := make([]string, len(s.models))
	for i, m := range s.models {
		names[i] = m.Name
	}
	return names
}

// Model returns the configuration registered under name, or nil.
func (s *Schema) Model(name string) *ModelConfig {
	for _, m := range s.models {
		if m.Name == name {
			return m
		}
	}
	return nil
}

func (s *Schema) RegisterRegularizer(name string, r ThetaRegularizer) {
	s.regularizers[name] = r
}

// Regularizer returns the capability registered under name, or nil; a
// missing name is logged by the caller and skipped, not an error.
func (s *Schema) Regularizer(name string) ThetaRegularizer {
	return s.regularizers[name]
}

func (s *Schema) RegisterScoreCalculator(name string, c ScoreCalculator) {
	s.scores[name] = c
}

// ScoreCalculator returns the capability registered under name, or nil.
func (s *Schema) ScoreCalculator(name string) ScoreCalculator {
	return s.scores[name]
}
