package config

import (
	"fmt"
	"net/url"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	if c.Jurisdiction == "" {
		errors = append(errors, ValidationError{
			Field:   "jurisdiction",
			Message: "jurisdiction is required",
		})
	}

	if c.Scheduler.GlobalRateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "scheduler.global_rate_limit",
			Message: "global_rate_limit must be positive",
		})
	}

	if c.Scheduler.MaxParallelDomains < 1 {
		errors = append(errors, ValidationError{
			Field:   "scheduler.max_parallel_domains",
			Message: "max_parallel_domains must be positive",
		})
	}

	if c.Scheduler.RecrawlDays < 1 {
		errors = append(errors, ValidationError{
			Field:   "scheduler.recrawl_days",
			Message: "recrawl_days must be positive",
		})
	}

	if len(c.WhitelistSources) == 0 {
		errors = append(errors, ValidationError{
			Field:   "whitelist_sources",
			Message: "at least one authorized source is required",
		})
	}

	for i, src := range c.WhitelistSources {
		if src.Domain == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("whitelist_sources[%d].domain", i),
				Message: "domain is required",
			})
		}
		if strings.Contains(src.Domain, "://") {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("whitelist_sources[%d].domain", i),
				Message: "domain must be a bare host, not a URL",
			})
		}
	}

	if c.Search.Endpoint != "" {
		if _, err := url.Parse(c.Search.Endpoint); err != nil {
			errors = append(errors, ValidationError{
				Field:   "search.endpoint",
				Message: "invalid search endpoint URL",
			})
		}
	}

	if c.Store.URL != "" {
		if _, err := url.Parse(c.Store.URL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "store.url",
				Message: "invalid database URL",
			})
		}
	}

	seen := make(map[string]bool)
	for i, topic := range c.Topics {
		if topic.ID == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("topics[%d].id", i),
				Message: "topic id is required",
			})
			continue
		}
		if seen[topic.ID] {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("topics[%d].id", i),
				Message: fmt.Sprintf("duplicate topic id: %s", topic.ID),
			})
		}
		seen[topic.ID] = true

		switch topic.Priority {
		case PriorityHigh, PriorityMedium, PriorityLow:
		default:
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("topics[%d].priority", i),
				Message: fmt.Sprintf("invalid priority: %s", topic.Priority),
			})
		}

		if len(topic.Queries) == 0 {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("topics[%d].queries", i),
				Message: "at least one query is required",
			})
		}
	}

	return errors
}
