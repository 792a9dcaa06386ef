package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/steuerkompass/editorial/internal/types"
	cfgPkg "github.com/steuerkompass/editorial/pkg/config"
	"github.com/steuerkompass/editorial/pkg/fetcher"
	"github.com/steuerkompass/editorial/pkg/llm"
	"github.com/steuerkompass/editorial/pkg/normalizer"
	"github.com/steuerkompass/editorial/pkg/pipeline"
	"github.com/steuerkompass/editorial/pkg/registry"
	"github.com/steuerkompass/editorial/pkg/scheduler"
	"github.com/steuerkompass/editorial/pkg/store"
)

func main() {
	var configPath string
	var onlyTopic string
	var dryRun bool

	flag.StringVar(&configPath, "config", "", "Path to pipeline config file")
	flag.StringVar(&onlyTopic, "topic", "", "Run only this topic id")
	flag.BoolVar(&dryRun, "dry-run", false, "Run without a database backend")
	flag.Parse()

	if err := run(configPath, onlyTopic, dryRun); err != nil {
		log.Fatal(err)
	}
}

func run(configPath, onlyTopic string, dryRun bool) error {
	cfg, err := cfgPkg.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("config error: %v", e)
		}
		return fmt.Errorf("invalid configuration (%d errors)", len(errs))
	}

	topics := cfg.Topics
	if onlyTopic != "" {
		topics = nil
		for _, t := range cfg.Topics {
			if t.ID == onlyTopic {
				topics = append(topics, t)
			}
		}
		if len(topics) == 0 {
			return fmt.Errorf("unknown topic id: %s", onlyTopic)
		}
	}

	reg := registry.FromConfig(cfg)
	color.Blue("Editorial pipeline for jurisdiction %s: %d topics, %d authorized sources\n",
		cfg.Jurisdiction, len(topics), len(reg.Sources()))

	searcher := fetcher.NewHTTPSearchProvider(cfg.Search.Endpoint,
		time.Duration(cfg.Search.TimeoutSec)*time.Second)
	client := fetcher.NewHTTPClient(time.Duration(cfg.Search.TimeoutSec) * time.Second)

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.BlueString("Fetching sources...")),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)

	f := fetcher.NewWithConfig(searcher, client, fetcher.SHA256Fingerprinter{}, types.FetcherConfig{
		MaxResultsPerQuery: cfg.Search.MaxResults,
		RateLimit:          cfg.Scheduler.GlobalRateLimit,
		OnProgress: func(url string) {
			bar.Add(1)
		},
	})

	var embedder types.Embedder
	if cfg.Embedder.Enabled {
		emb, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
			Model:   cfg.Embedder.Model,
			BaseURL: cfg.Embedder.BaseURL,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize embedder: %v", err)
		}
		embedder = emb
	}

	norm := normalizer.NewWithConfig(normalizer.NormalizerConfig{}, embedder)

	var backend types.PackageStore
	if !dryRun && cfg.Store.URL != "" {
		pg, err := store.NewPostgresStore(store.PostgresConfig{
			ConnString:  cfg.Store.URL,
			TablePrefix: cfg.Store.TablePrefix,
			VectorDim:   cfg.Store.VectorDim,
			BatchSize:   cfg.Store.BatchSize,
		})
		if err != nil {
			color.Yellow("package store unreachable, continuing in-memory: %v", err)
		} else {
			backend = pg
		}
	}
	cached := store.NewCachedStore(backend)
	defer cached.Close()

	orch := pipeline.New(f, norm, cached, reg, pipeline.OrchestratorConfig{
		CriticalGates: cfg.QualityGates,
	})

	sched := scheduler.New(orch, types.SchedulerConfig{
		MaxConcurrent:      cfg.Scheduler.MaxParallelDomains,
		DelayBetweenTopics: time.Duration(cfg.Scheduler.DelayBetweenTopics) * time.Millisecond,
		RecrawlDays:        cfg.Scheduler.RecrawlDays,
	})

	batch := sched.RunAll(context.Background(), topics)
	bar.Finish()
	fmt.Println()

	for _, result := range batch.Results {
		switch {
		case !result.Success:
			color.Red("✗ %-32s %s (%d errors, %d warnings)",
				result.Topic, result.State, len(result.Errors), len(result.Warnings))
			for _, e := range result.Errors {
				color.Red("    %s", e)
			}
		case len(result.Warnings) > 0:
			color.Yellow("~ %-32s %s (%d rules, %d notes, %d warnings)",
				result.Topic, result.State, len(result.Artifacts.RuleSpecs),
				len(result.Artifacts.Notes), len(result.Warnings))
		default:
			color.Green("✓ %-32s %s (%d rules, %d notes, %.0f%% coverage)",
				result.Topic, result.State, len(result.Artifacts.RuleSpecs),
				len(result.Artifacts.Notes), result.Quality.CoverageScore*100)
		}
	}
	for _, skipped := range batch.Skipped {
		color.Cyan("- %-32s skipped (within recrawl cadence)", skipped)
	}

	color.Blue("\nDone in %s: %d succeeded, %d failed, %d skipped\n",
		batch.Elapsed.Round(time.Millisecond), batch.Succeeded, batch.Failed, len(batch.Skipped))

	if batch.Failed > 0 {
		os.Exit(1)
	}
	return nil
}
