package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/neurlang/hmmgrad/corpus"
	"github.com/neurlang/hmmgrad/hmm"
	"github.com/neurlang/hmmgrad/journal"
	"github.com/neurlang/hmmgrad/logger"
	"github.com/neurlang/hmmgrad/maxent"
	"github.com/neurlang/hmmgrad/objective"
	"github.com/neurlang/hmmgrad/parallel"
	"github.com/neurlang/hmmgrad/trainer"
)

type config struct {
	corpus     string
	encoding   string
	lowercase  bool
	minCount   int
	states     int
	prior      float64
	bias       bool
	em         int
	iterations int
	workers    int
	seed       int64
	randomInit bool
	gradcheck  bool
	journal    string
	dstmodel   string
	resume     bool
	decode     int
}

func main() {
	var cfg config
	flag.StringVar(&cfg.corpus, "corpus", "", "corpus files, one sentence per line (glob, ** allowed)")
	flag.StringVar(&cfg.encoding, "encoding", "utf-8", "corpus encoding: utf-8, latin1 or windows-1252")
	flag.BoolVar(&cfg.lowercase, "lowercase", false, "lowercase the corpus")
	flag.IntVar(&cfg.minCount, "mincount", 0, "map words seen fewer times to "+corpus.UnknownWord)
	flag.IntVar(&cfg.states, "states", 8, "number of hidden states")
	flag.Float64Var(&cfg.prior, "prior", 10, "variance of the Gaussian prior on the weights")
	flag.BoolVar(&cfg.bias, "bias", false, "add a per word bias feature to the observation model")
	flag.IntVar(&cfg.em, "em", 0, "EM iterations to run before the gradient optimization")
	flag.IntVar(&cfg.iterations, "iterations", 100, "maximum optimizer iterations")
	flag.IntVar(&cfg.workers, "workers", parallel.Workers(), "goroutines for the expectation pass")
	flag.Int64Var(&cfg.seed, "seed", 1, "random seed")
	flag.BoolVar(&cfg.randomInit, "random-init", false, "start from random weights instead of one EM step")
	flag.BoolVar(&cfg.gradcheck, "gradcheck", false, "check the gradient by finite differences before training")
	flag.StringVar(&cfg.journal, "journal", "", "sqlite file to record the run in")
	flag.StringVar(&cfg.dstmodel, "dstmodel", "", "model destination .json.lzw file")
	flag.BoolVar(&cfg.resume, "resume", false, "resume training from -dstmodel")
	logFormat := flag.String("log-format", "text", "log format: text or json")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn or error")
	flag.IntVar(&cfg.decode, "decode", 0, "print the tags of the first N sentences after training")
	flag.Parse()

	lc := logger.DefaultConfig()
	lc.Format = *logFormat
	lc.Level = logger.ParseLevel(*logLevel)
	logger.Init(lc)

	if cfg.corpus == "" {
		println("-corpus is required")
		flag.Usage()
		os.Exit(2)
	}
	if err := run(cfg, os.Stdout); err != nil {
		logger.ForComponent("train_hmm").Error("training failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg config, stdout io.Writer) error {
	log := logger.ForComponent("train_hmm")

	c, err := corpus.ReadGlob(cfg.corpus, corpus.Options{
		Encoding:  cfg.encoding,
		Lowercase: cfg.lowercase,
		MinCount:  cfg.minCount,
	})
	if err != nil {
		return fmt.Errorf("reading corpus: %w", err)
	}
	log.Info("read corpus", "sentences", len(c.Sentences), "tokens", c.Tokens(), "vocabulary", c.Vocab.Len())

	m, err := hmm.New(c, cfg.states)
	if err != nil {
		return err
	}
	m.Randomize(cfg.seed)

	for i := 0; i < cfg.em; i++ {
		ll, err := m.EStep()
		if err != nil {
			return fmt.Errorf("EM iteration %d: %w", i, err)
		}
		m.MStep(maxent.DefaultSmoothing)
		log.Info("EM", "iteration", i, "loglik", ll)
	}

	opts := objective.Options{
		PriorVariance:       cfg.prior,
		Workers:             cfg.workers,
		Seed:                cfg.seed,
		CheckGradientOnInit: cfg.gradcheck,
		GradientCheck:       objective.GradientCheckOptions{Seed: uint32(cfg.seed)},
	}
	if cfg.randomInit {
		opts.Init = objective.InitRandom
	}
	obj, err := objective.NewForHMM(m, opts, objective.FeatureOptions{OutcomeBias: cfg.bias})
	if err != nil {
		return fmt.Errorf("creating objective: %w", err)
	}
	log.Info("objective ready", "objective", obj.String(), "value", obj.Value())

	if cfg.resume && cfg.dstmodel != "" {
		if err := trainer.Resume(obj, cfg.dstmodel); err != nil {
			println(err.Error())
		} else {
			log.Info("resumed", "path", cfg.dstmodel, "value", obj.Value())
		}
	}

	settings := trainer.Settings{
		MaxIterations: cfg.iterations,
		Checkpoint:    cfg.dstmodel,
	}
	if cfg.journal != "" {
		j, err := journal.Open(cfg.journal)
		if err != nil {
			return fmt.Errorf("opening journal: %w", err)
		}
		defer j.Close()
		run, err := j.StartRun("train_hmm "+cfg.corpus, map[string]string{
			"states":     strconv.Itoa(cfg.states),
			"prior":      strconv.FormatFloat(cfg.prior, 'g', -1, 64),
			"em":         strconv.Itoa(cfg.em),
			"iterations": strconv.Itoa(cfg.iterations),
			"seed":       strconv.FormatInt(cfg.seed, 10),
			"bias":       strconv.FormatBool(cfg.bias),
		})
		if err != nil {
			return fmt.Errorf("starting journal run: %w", err)
		}
		log.Info("journaling", "run", run.ID, "path", cfg.journal)
		settings.Recorder = run
	}

	res, err := trainer.Train(obj, settings)
	if err != nil {
		return fmt.Errorf("training: %w", err)
	}
	fmt.Fprintf(stdout, "value %g after %d iterations (%v)\n", res.Value, res.Iterations, res.Status)

	for i := 0; i < cfg.decode && i < len(c.Sentences); i++ {
		tags, _ := m.Decode(c.Sentences[i])
		var sb strings.Builder
		for t, w := range c.Sentences[i] {
			if t > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%s/%d", c.Vocab.Word(w), tags[t])
		}
		fmt.Fprintln(stdout, sb.String())
	}
	return nil
}
