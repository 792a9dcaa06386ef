package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "pipeline.yaml")

	configData := `
jurisdiction: DE

scheduler:
  global_rate_limit: 1.5
  max_parallel_domains: 2
  recrawl_days: 14
  delay_between_topics_ms: 500

whitelist_sources:
  - domain: gesetze-im-internet.de
    type: LAW
    priority: 3
  - domain: bundesfinanzministerium.de
    type: BMF
    priority: 2

blacklist_domains:
  - steuertipps-blog.example

quality_gates:
  - rulespec_validation

search:
  endpoint: "http://localhost:8080/search"
  max_results: 5

store:
  url: "postgres://localhost:5432/editorial"
  table_prefix: "ed"
  vector_dim: 768

topics:
  - id: werbungskosten_2024
    title: Werbungskosten
    priority: high
    update_cadence_days: 7
    queries:
      LAW:
        - "EStG §9 Werbungskosten Pauschbetrag"
    form_map_targets:
      - "Anlage N/31"
`
	err := os.WriteFile(configPath, []byte(configData), 0644)
	require.NoError(t, err)

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "DE", config.Jurisdiction)
	assert.Equal(t, 1.5, config.Scheduler.GlobalRateLimit)
	assert.Equal(t, 2, config.Scheduler.MaxParallelDomains)
	assert.Equal(t, 14, config.Scheduler.RecrawlDays)
	assert.Len(t, config.WhitelistSources, 2)
	assert.Equal(t, "gesetze-im-internet.de", config.WhitelistSources[0].Domain)
	assert.Equal(t, []string{"rulespec_validation"}, config.QualityGates)
	assert.Equal(t, 5, config.Search.MaxResults)
	assert.Equal(t, "ed", config.Store.TablePrefix)

	require.Len(t, config.Topics, 1)
	topic := config.Topics[0]
	assert.Equal(t, "werbungskosten_2024", topic.ID)
	assert.Equal(t, PriorityHigh, topic.Priority)
	assert.Equal(t, 7, topic.UpdateCadence)
	assert.Equal(t, []string{"Anlage N/31"}, topic.FormMapTargets)
}

func TestLoadConfigDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "pipeline.yaml")

	configData := `
whitelist_sources:
  - domain: gesetze-im-internet.de
    type: LAW
    priority: 3
topics:
  - id: t1
    title: Topic
    queries:
      LAW: ["q"]
`
	require.NoError(t, os.WriteFile(configPath, []byte(configData), 0644))

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "DE", config.Jurisdiction)
	assert.Equal(t, 2.0, config.Scheduler.GlobalRateLimit)
	assert.Equal(t, 30, config.Scheduler.RecrawlDays)
	assert.Equal(t, PriorityMedium, config.Topics[0].Priority)
	// Topic cadence inherits the scheduler's recrawl default.
	assert.Equal(t, 30, config.Topics[0].UpdateCadence)
	assert.Contains(t, config.QualityGates, "rulespec_validation")
	assert.Contains(t, config.QualityGates, "editorial_validation")
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name         string
		mutate       func(*Config)
		expectedErrs int
	}{
		{
			name:         "valid config",
			mutate:       func(c *Config) {},
			expectedErrs: 0,
		},
		{
			name: "missing whitelist",
			mutate: func(c *Config) {
				c.WhitelistSources = nil
			},
			expectedErrs: 1,
		},
		{
			name: "domain is a URL",
			mutate: func(c *Config) {
				c.WhitelistSources[0].Domain = "https://gesetze-im-internet.de"
			},
			expectedErrs: 1,
		},
		{
			name: "duplicate topic ids",
			mutate: func(c *Config) {
				c.Topics = append(c.Topics, c.Topics[0])
			},
			expectedErrs: 1,
		},
		{
			name: "invalid priority",
			mutate: func(c *Config) {
				c.Topics[0].Priority = "urgent"
			},
			expectedErrs: 1,
		},
		{
			name: "topic without queries",
			mutate: func(c *Config) {
				c.Topics[0].Queries = nil
			},
			expectedErrs: 1,
		},
		{
			name: "negative rate limit",
			mutate: func(c *Config) {
				c.Scheduler.GlobalRateLimit = -1
			},
			expectedErrs: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{
				Jurisdiction: "DE",
				Scheduler: SchedulerConfig{
					GlobalRateLimit:    2.0,
					MaxParallelDomains: 3,
					RecrawlDays:        30,
				},
				WhitelistSources: []SourceConfig{
					{Domain: "gesetze-im-internet.de", Type: "LAW", Priority: 3},
				},
				Topics: []TopicConfig{
					{
						ID:       "t1",
						Title:    "Topic",
						Priority: PriorityHigh,
						Queries:  map[string][]string{"LAW": {"q"}},
					},
				},
			}
			tt.mutate(c)
			errs := c.Validate()
			assert.Len(t, errs, tt.expectedErrs)
		})
	}
}

func TestPriorityWeight(t *testing.T) {
	assert.Greater(t, PriorityHigh.Weight(), PriorityMedium.Weight())
	assert.Greater(t, PriorityMedium.Weight(), PriorityLow.Weight())
	assert.Equal(t, 0, Priority("bogus").Weight())
}
