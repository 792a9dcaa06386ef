package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/steuerkompass/editorial/internal/models"
	"github.com/steuerkompass/editorial/internal/types"
	"github.com/steuerkompass/editorial/pkg/config"
	"github.com/steuerkompass/editorial/pkg/logger"
	"github.com/steuerkompass/editorial/pkg/pipeline"
)

// Scheduler runs the orchestrator over many topics with bounded
// concurrency. Topics are sorted by priority descending, then recrawl
// cadence ascending, and processed in batches of MaxConcurrent; the whole
// batch is awaited before the inter-batch delay starts.
type Scheduler struct {
	orchestrator *pipeline.Orchestrator
	config       types.SchedulerConfig
	log          *logger.Logger
	now          func() time.Time
}

func New(orch *pipeline.Orchestrator, cfg types.SchedulerConfig) *Scheduler {
	if cfg.MaxConcurrent == 0 {
		cfg.MaxConcurrent = 3
	}
	return &Scheduler{
		orchestrator: orch,
		config:       cfg,
		log:          logger.New(),
		now:          time.Now,
	}
}

// SortTopics orders topics for processing: priority weight descending,
// update cadence ascending, id as the stable tiebreaker.
func SortTopics(topics []config.TopicConfig) []config.TopicConfig {
	sorted := make([]config.TopicConfig, len(topics))
	copy(sorted, topics)
	sort.SliceStable(sorted, func(i, j int) bool {
		wi, wj := sorted[i].Priority.Weight(), sorted[j].Priority.Weight()
		if wi != wj {
			return wi > wj
		}
		if sorted[i].UpdateCadence != sorted[j].UpdateCadence {
			return sorted[i].UpdateCadence < sorted[j].UpdateCadence
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

// RunAll processes every due topic. A failure in one topic never cancels
// its batch siblings; the batch always waits for all members.
func (s *Scheduler) RunAll(ctx context.Context, topics []config.TopicConfig) models.BatchResult {
	start := s.now()
	batch := models.BatchResult{}

	var due []config.TopicConfig
	for _, topic := range SortTopics(topics) {
		if s.withinCadence(topic) {
			s.log.Infof("topic %s is within its recrawl cadence, skipping", topic.ID)
			batch.Skipped = append(batch.Skipped, topic.ID)
			continue
		}
		due = append(due, topic)
	}

	for offset := 0; offset < len(due); offset += s.config.MaxConcurrent {
		if ctx.Err() != nil {
			break
		}

		end := offset + s.config.MaxConcurrent
		if end > len(due) {
			end = len(due)
		}
		window := due[offset:end]

		results := make([]models.PipelineResult, len(window))
		var wg sync.WaitGroup
		for i, topic := range window {
			wg.Add(1)
			go func(i int, topic config.TopicConfig) {
				defer wg.Done()
				results[i] = s.orchestrator.Run(ctx, topic)
			}(i, topic)
		}
		wg.Wait()

		batch.Results = append(batch.Results, results...)

		if end < len(due) && s.config.DelayBetweenTopics > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(s.config.DelayBetweenTopics):
			}
		}
	}

	for _, r := range batch.Results {
		if r.Success {
			batch.Succeeded++
		} else {
			batch.Failed++
		}
	}
	batch.Elapsed = s.now().Sub(start)
	return batch
}

// withinCadence reports whether the topic already has a package newer than
// its update cadence.
func (s *Scheduler) withinCadence(topic config.TopicConfig) bool {
	if topic.UpdateCadence <= 0 {
		return false
	}
	prev, ok := s.orchestrator.Store().Cache().Latest(topic.ID)
	if !ok {
		return false
	}
	age := s.now().Sub(prev.CreatedAt)
	return age < time.Duration(topic.UpdateCadence)*24*time.Hour
}
