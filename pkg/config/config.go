package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Priority orders topics for batch processing.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Weight maps a priority to its sort weight; higher runs first.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

type SchedulerConfig struct {
	GlobalRateLimit    float64 `yaml:"global_rate_limit"`
	MaxParallelDomains int     `yaml:"max_parallel_domains"`
	RecrawlDays        int     `yaml:"recrawl_days"`
	DelayBetweenTopics int     `yaml:"delay_between_topics_ms"`
}

type SourceConfig struct {
	Domain   string `yaml:"domain"`
	Type     string `yaml:"type"`
	Priority int    `yaml:"priority"`
	Sitemap  string `yaml:"sitemap,omitempty"`
}

type TopicConfig struct {
	ID             string              `yaml:"id"`
	Title          string              `yaml:"title"`
	Priority       Priority            `yaml:"priority"`
	UpdateCadence  int                 `yaml:"update_cadence_days"`
	Queries        map[string][]string `yaml:"queries"`
	Extract        []string            `yaml:"extract"`
	FormMapTargets []string            `yaml:"form_map_targets"`
}

type SearchConfig struct {
	Endpoint   string `yaml:"endpoint"`
	MaxResults int    `yaml:"max_results"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

type StoreConfig struct {
	URL         string `yaml:"url"`
	TablePrefix string `yaml:"table_prefix"`
	VectorDim   int    `yaml:"vector_dim"`
	BatchSize   int    `yaml:"batch_size"`
}

type EmbedderConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// Config is the sole run-time input driving which topics, queries and
// domains are processed.
type Config struct {
	Jurisdiction     string          `yaml:"jurisdiction"`
	Scheduler        SchedulerConfig `yaml:"scheduler"`
	WhitelistSources []SourceConfig  `yaml:"whitelist_sources"`
	BlacklistDomains []string        `yaml:"blacklist_domains"`
	QualityGates     []string        `yaml:"quality_gates"`
	Search           SearchConfig    `yaml:"search"`
	Store            StoreConfig     `yaml:"store"`
	Embedder         EmbedderConfig  `yaml:"embedder"`
	Topics           []TopicConfig   `yaml:"topics"`
}

// LoadConfig reads the pipeline configuration. With an empty path it probes
// the default locations before falling back to built-in defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		locations := []string{
			"pipeline.yaml",
			"pipeline.yml",
			filepath.Join(os.Getenv("HOME"), ".config/steuerkompass/pipeline.yaml"),
			"/etc/steuerkompass/pipeline.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		config := &Config{}
		applyDefaults(config)
		mergeWithEnv(config)
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	mergeWithEnv(&config)
	applyDefaults(&config)

	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Jurisdiction == "" {
		config.Jurisdiction = "DE"
	}

	if config.Scheduler.GlobalRateLimit == 0 {
		config.Scheduler.GlobalRateLimit = 2.0
	}
	if config.Scheduler.MaxParallelDomains == 0 {
		config.Scheduler.MaxParallelDomains = 3
	}
	if config.Scheduler.RecrawlDays == 0 {
		config.Scheduler.RecrawlDays = 30
	}
	if config.Scheduler.DelayBetweenTopics == 0 {
		config.Scheduler.DelayBetweenTopics = 2000
	}

	if len(config.QualityGates) == 0 {
		config.QualityGates = []string{"rulespec_validation", "editorial_validation"}
	}

	if config.Search.MaxResults == 0 {
		config.Search.MaxResults = 10
	}
	if config.Search.TimeoutSec == 0 {
		config.Search.TimeoutSec = 30
	}

	if config.Store.TablePrefix == "" {
		config.Store.TablePrefix = "editorial"
	}
	if config.Store.VectorDim == 0 {
		config.Store.VectorDim = 768
	}
	if config.Store.BatchSize == 0 {
		config.Store.BatchSize = 100
	}

	if config.Embedder.Model == "" {
		config.Embedder.Model = "nomic-embed-text:latest"
	}
	if config.Embedder.BaseURL == "" {
		config.Embedder.BaseURL = "http://localhost:11434"
	}

	for i := range config.Topics {
		if config.Topics[i].Priority == "" {
			config.Topics[i].Priority = PriorityMedium
		}
		if config.Topics[i].UpdateCadence == 0 {
			config.Topics[i].UpdateCadence = config.Scheduler.RecrawlDays
		}
	}
}

func mergeWithEnv(config *Config) {
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Store.URL = dbURL
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.Embedder.BaseURL = baseURL
	}
	if endpoint := os.Getenv("SEARCH_ENDPOINT"); endpoint != "" {
		config.Search.Endpoint = endpoint
	}
}
