package scheduler

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steuerkompass/editorial/internal/models"
	"github.com/steuerkompass/editorial/internal/types"
	"github.com/steuerkompass/editorial/pkg/config"
	"github.com/steuerkompass/editorial/pkg/fetcher"
	"github.com/steuerkompass/editorial/pkg/normalizer"
	"github.com/steuerkompass/editorial/pkg/pipeline"
	"github.com/steuerkompass/editorial/pkg/registry"
	"github.com/steuerkompass/editorial/pkg/store"
)

// recordingSearcher notes the order queries arrive in, so batch ordering is
// observable from the outside.
type recordingSearcher struct {
	mu      sync.Mutex
	order   []string
	results map[string][]types.SearchResult
}

func (s *recordingSearcher) Search(_ context.Context, query string, _ []string, _ int) ([]types.SearchResult, error) {
	s.mu.Lock()
	s.order = append(s.order, query)
	s.mu.Unlock()
	return s.results[query], nil
}

func (s *recordingSearcher) queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

type pageClient struct {
	pages map[string]string
}

func (c *pageClient) Fetch(_ context.Context, url string) (*models.FetchResult, error) {
	content, ok := c.pages[url]
	if !ok {
		return nil, fmt.Errorf("no page for %s", url)
	}
	return &models.FetchResult{URL: url, StatusCode: 200, MimeType: "text/html", Content: content}, nil
}

func schedulerTopic(id string, priority config.Priority, cadence int) config.TopicConfig {
	return config.TopicConfig{
		ID:            id,
		Priority:      priority,
		UpdateCadence: cadence,
		Queries:       map[string][]string{"LAW": {"q-" + id}},
	}
}

// newTestScheduler wires a full orchestrator behind stub search and fetch.
// Every topic id gets one authorized page carrying an extractable allowance.
func newTestScheduler(t *testing.T, topics []config.TopicConfig, cfg types.SchedulerConfig) (*Scheduler, *recordingSearcher) {
	t.Helper()

	searcher := &recordingSearcher{results: make(map[string][]types.SearchResult)}
	client := &pageClient{pages: make(map[string]string)}
	for _, topic := range topics {
		url := fmt.Sprintf("https://www.gesetze-im-internet.de/%s.html", topic.ID)
		searcher.results["q-"+topic.ID] = []types.SearchResult{{URL: url}}
		client.pages[url] = fmt.Sprintf(
			"§ 9 Abs. 1 Regelung für %s: der Pauschbetrag beträgt 1.230 Euro im Veranlagungszeitraum.", topic.ID)
	}

	reg := registry.FromConfig(&config.Config{
		WhitelistSources: []config.SourceConfig{
			{Domain: "gesetze-im-internet.de", Type: "LAW", Priority: 3},
		},
	})

	f := fetcher.NewWithConfig(searcher, client, fetcher.SHA256Fingerprinter{}, types.FetcherConfig{RateLimit: 1000})
	norm := normalizer.NewWithConfig(normalizer.NormalizerConfig{MinChunkLength: 10}, nil)
	orch := pipeline.New(f, norm, store.NewCachedStore(nil), reg, pipeline.OrchestratorConfig{Year: 2024})

	return New(orch, cfg), searcher
}

func TestSortTopics(t *testing.T) {
	topics := []config.TopicConfig{
		schedulerTopic("pendler", config.PriorityLow, 30),
		schedulerTopic("werbungskosten", config.PriorityHigh, 30),
		schedulerTopic("spenden", config.PriorityMedium, 30),
	}

	sorted := SortTopics(topics)

	require.Len(t, sorted, 3)
	assert.Equal(t, "werbungskosten", sorted[0].ID)
	assert.Equal(t, "spenden", sorted[1].ID)
	assert.Equal(t, "pendler", sorted[2].ID)

	// The input slice is left untouched.
	assert.Equal(t, "pendler", topics[0].ID)
}

func TestSortTopicsCadenceBreaksPriorityTies(t *testing.T) {
	topics := []config.TopicConfig{
		schedulerTopic("b", config.PriorityHigh, 30),
		schedulerTopic("a", config.PriorityHigh, 7),
	}

	sorted := SortTopics(topics)
	assert.Equal(t, "a", sorted[0].ID, "the faster cadence runs first")

	topics[0].UpdateCadence = 7
	sorted = SortTopics(topics)
	assert.Equal(t, "a", sorted[0].ID, "equal weight and cadence fall back to the id")
}

func TestRunAllProcessesByPriority(t *testing.T) {
	topics := []config.TopicConfig{
		schedulerTopic("pendler", config.PriorityLow, 30),
		schedulerTopic("werbungskosten", config.PriorityHigh, 30),
		schedulerTopic("spenden", config.PriorityMedium, 30),
	}

	s, searcher := newTestScheduler(t, topics, types.SchedulerConfig{MaxConcurrent: 1})

	batch := s.RunAll(context.Background(), topics)

	assert.Equal(t, 3, batch.Succeeded)
	assert.Equal(t, 0, batch.Failed)
	assert.Empty(t, batch.Skipped)
	require.Len(t, batch.Results, 3)

	assert.Equal(t, []string{"q-werbungskosten", "q-spenden", "q-pendler"}, searcher.queries(),
		"topics are processed in priority order")

	for _, r := range batch.Results {
		assert.True(t, r.Success, r.Topic)
		assert.NotEmpty(t, r.PackageID, r.Topic)
	}
}

func TestRunAllSkipsTopicsWithinCadence(t *testing.T) {
	topics := []config.TopicConfig{
		schedulerTopic("werbungskosten", config.PriorityHigh, 30),
		schedulerTopic("spenden", config.PriorityMedium, 30),
	}

	s, _ := newTestScheduler(t, topics, types.SchedulerConfig{MaxConcurrent: 2})

	// A fresh package for one topic puts it inside its recrawl cadence.
	err := s.orchestrator.Store().StorePackage(context.Background(), &models.EditorialPackage{
		PackageID: "prev",
		Topic:     "werbungskosten",
		Version:   1,
		CreatedAt: time.Now().Add(-24 * time.Hour),
	})
	require.NoError(t, err)

	batch := s.RunAll(context.Background(), topics)

	assert.Equal(t, []string{"werbungskosten"}, batch.Skipped)
	require.Len(t, batch.Results, 1)
	assert.Equal(t, "spenden", batch.Results[0].Topic)
}

func TestRunAllRecrawlsStalePackages(t *testing.T) {
	topics := []config.TopicConfig{
		schedulerTopic("werbungskosten", config.PriorityHigh, 30),
	}

	s, _ := newTestScheduler(t, topics, types.SchedulerConfig{MaxConcurrent: 1})

	err := s.orchestrator.Store().StorePackage(context.Background(), &models.EditorialPackage{
		PackageID: "prev",
		Topic:     "werbungskosten",
		Version:   1,
		CreatedAt: time.Now().Add(-31 * 24 * time.Hour),
	})
	require.NoError(t, err)

	batch := s.RunAll(context.Background(), topics)

	assert.Empty(t, batch.Skipped)
	require.Len(t, batch.Results, 1)
	assert.True(t, batch.Results[0].Success)

	latest, ok := s.orchestrator.Store().Cache().Latest("werbungskosten")
	require.True(t, ok)
	assert.Equal(t, 2, latest.Version, "the stale package is superseded")
}

func TestRunAllIsolatesFailures(t *testing.T) {
	topics := []config.TopicConfig{
		schedulerTopic("werbungskosten", config.PriorityHigh, 30),
		schedulerTopic("leere-quelle", config.PriorityHigh, 30),
	}

	s, searcher := newTestScheduler(t, topics, types.SchedulerConfig{MaxConcurrent: 2})
	// One topic's query yields nothing, which is fatal for that topic only.
	searcher.results["q-leere-quelle"] = nil

	batch := s.RunAll(context.Background(), topics)

	assert.Equal(t, 1, batch.Succeeded)
	assert.Equal(t, 1, batch.Failed)
	require.Len(t, batch.Results, 2)

	byTopic := make(map[string]models.PipelineResult)
	for _, r := range batch.Results {
		byTopic[r.Topic] = r
	}
	assert.True(t, byTopic["werbungskosten"].Success)
	assert.False(t, byTopic["leere-quelle"].Success)
	assert.Equal(t, models.StateFailed, byTopic["leere-quelle"].State)
}

func TestRunAllHonorsCancellation(t *testing.T) {
	topics := []config.TopicConfig{
		schedulerTopic("werbungskosten", config.PriorityHigh, 30),
	}

	s, _ := newTestScheduler(t, topics, types.SchedulerConfig{MaxConcurrent: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch := s.RunAll(ctx, topics)

	assert.Empty(t, batch.Results, "a cancelled context stops before the first batch")
	assert.Equal(t, 0, batch.Succeeded)
	assert.Equal(t, 0, batch.Failed)
}
