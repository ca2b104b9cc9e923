// process is a single-machine command line driver: it builds a
// synthetic corpus of batches, runs them through a processor pool
// against an in-memory topic model, and reports the perplexity
// accumulated by the increments.
// Usage:
/*
  $GOPATH/bin/process -topics=16 -batches=32 -processors=4
*/

package main

import (
	"bytes"
	"encoding/gob"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"github.com/Alvant/bigartm/core/artm"
	"github.com/Alvant/bigartm/core/blas"
	"github.com/Alvant/bigartm/core/pipeline"
)

func main() {
	flagTopics := flag.Int("topics", 10, "Number of topics")
	flagVocab := flag.Int("vocab", 200, "Synthetic vocabulary size")
	flagBatches := flag.Int("batches", 20, "Number of synthetic batches")
	flagItems := flag.Int("items", 50, "Items per batch")
	flagTokensPerItem := flag.Int("item_tokens", 30, "Distinct tokens per item")
	flagPasses := flag.Int("passes", 10, "Inner document passes")
	flagProcessors := flag.Int("processors", runtime.NumCPU(), "Worker pool size")
	flagSparse := flag.Bool("sparse", true, "Use the sparse count-matrix solver")
	flagCacheDir := flag.String("cache_dir", "", "Spill theta cache entries under this directory")
	flagSeed := flag.Int64("seed", 1, "Seed of the synthetic corpus")
	flagGoMaxProcs := flag.Int("GOMAXPROCS", -1, "GOMAXPROCS")
	flag.Parse()

	if *flagGoMaxProcs > 0 {
		runtime.GOMAXPROCS(*flagGoMaxProcs)
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger()
	log.Info().Int("GOMAXPROCS", runtime.GOMAXPROCS(-1)).Msg("starting")

	rng := rand.New(rand.NewSource(*flagSeed))

	topicNames := make([]string, *flagTopics)
	for k := range topicNames {
		topicNames[k] = fmt.Sprintf("topic%03d", k)
	}

	model := artm.NewTopicModel("demo", topicNames)
	for w := 0; w < *flagVocab; w++ {
		weights := make([]float32, *flagTopics)
		var sum float32
		for k := range weights {
			weights[k] = rng.Float32()
			sum += weights[k]
		}
		for k := range weights {
			weights[k] /= sum
		}
		model.SetTokenWeights(artm.Token{ClassID: "@default_class",
			Keyword: fmt.Sprintf("token%05d", w)}, weights)
	}
	models := artm.NewModelStore()
	models.Set("demo", model)

	schema := artm.NewSchema(artm.MasterConfig{
		CacheTheta:         *flagCacheDir != "",
		DiskCachePath:      *flagCacheDir,
		MergerQueueMaxSize: 2 * *flagProcessors,
	})
	schema.RegisterScoreCalculator("perplexity", &artm.Perplexity{})
	if err := schema.AddModel(&artm.ModelConfig{
		Name:                 "demo",
		TopicsCount:          *flagTopics,
		TopicNames:           topicNames,
		InnerIterationsCount: *flagPasses,
		Enabled:              true,
		UseSparseBow:         *flagSparse,
		ScoreNames:           []string{"perplexity"},
	}); err != nil {
		log.Fatal().Err(err).Msg("invalid model configuration")
	}

	pool := pipeline.NewPool(*flagProcessors, schema, models, blas.Default(), log)
	pool.Start()

	for b := 0; b < *flagBatches; b++ {
		batch := artm.NewBatch()
		local := make(map[int]int)
		for d := 0; d < *flagItems; d++ {
			item := artm.Item{ID: b**flagItems + d}
			for t := 0; t < *flagTokensPerItem; t++ {
				w := rng.Intn(*flagVocab)
				localID, ok := local[w]
				if !ok {
					localID = batch.AddToken("@default_class",
						fmt.Sprintf("token%05d", w))
					local[w] = localID
				}
				item.TokenIDs = append(item.TokenIDs, localID)
				item.TokenWeights = append(item.TokenWeights, float32(1+rng.Intn(5)))
			}
			batch.Items = append(batch.Items, item)
		}
		pool.Submit(&pipeline.Input{Batch: batch})
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)

	perplexity := new(artm.PerplexityScore)
	received := 0
Drain:
	for received < *flagBatches {
		select {
		case <-sigs:
			log.Warn().Msg("caught signal, stopping")
			break Drain
		default:
		}

		mi, ok := pool.Increments().TryPop()
		if !ok {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		received++
		for i, name := range mi.ScoreNames {
			if name != "perplexity" {
				continue
			}
			var score artm.Score
			if err := gob.NewDecoder(bytes.NewReader(mi.Scores[i])).Decode(&score); err != nil {
				log.Error().Err(err).Msg("failed decoding score")
				continue
			}
			perplexity.Add(score.(*artm.PerplexityScore))
		}
	}

	if err := pool.Stop(); err != nil {
		log.Fatal().Err(err).Msg("pipeline failed")
	}

	log.Info().Int("batches", received).
		Float64("perplexity", perplexity.Value()).
		Float64("log_likelihood", perplexity.LogLikelihood).
		Msg("done")

	if perplexity.TokenCount > 0 {
		fmt.Printf("perplexity %.2f over %.0f tokens\n",
			perplexity.Value(), perplexity.TokenCount)
	}
}
