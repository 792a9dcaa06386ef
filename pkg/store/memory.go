package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/steuerkompass/editorial/internal/models"
	"github.com/steuerkompass/editorial/internal/types"
)

// MemoryStore keeps packages in memory. It backs tests and serves as the
// graceful-degradation cache when the Postgres collaborator is unreachable.
// Package ids are unique per run, so writes are last-writer-wins per id and
// concurrent pipelines never collide.
type MemoryStore struct {
	mu       sync.RWMutex
	packages map[string]*models.EditorialPackage
	byTopic  map[string]string // topic -> latest package id
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		packages: make(map[string]*models.EditorialPackage),
		byTopic:  make(map[string]string),
	}
}

func (ms *MemoryStore) StorePackage(_ context.Context, pkg *models.EditorialPackage) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.packages[pkg.PackageID] = pkg
	ms.byTopic[pkg.Topic] = pkg.PackageID
	return nil
}

// Latest returns the most recently stored package for a topic.
func (ms *MemoryStore) Latest(topic string) (*models.EditorialPackage, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	id, ok := ms.byTopic[topic]
	if !ok {
		return nil, false
	}
	pkg, ok := ms.packages[id]
	return pkg, ok
}

// Get returns a package by id.
func (ms *MemoryStore) Get(packageID string) (*models.EditorialPackage, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	pkg, ok := ms.packages[packageID]
	return pkg, ok
}

// Len returns the number of cached packages.
func (ms *MemoryStore) Len() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return len(ms.packages)
}

func (ms *MemoryStore) SearchContent(_ context.Context, query string, filter types.SearchFilter) ([]types.ContentRecord, error) {
	if filter.Limit == 0 {
		filter.Limit = 10
	}
	query = strings.ToLower(query)

	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var records []types.ContentRecord
	var ids []string
	for id := range ms.packages {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		pkg := ms.packages[id]
		if filter.Topic != "" && pkg.Topic != filter.Topic {
			continue
		}

		if filter.ContentType == "" || filter.ContentType == "rule" {
			for _, rule := range pkg.RuleSpecs {
				if strings.Contains(strings.ToLower(rule.Definition), query) {
					records = append(records, types.ContentRecord{
						ID:      rule.RuleID,
						Topic:   pkg.Topic,
						Type:    "rule",
						Title:   rule.RuleID,
						Snippet: snippet(rule.Definition, 200),
					})
				}
			}
		}
		if filter.ContentType == "" || filter.ContentType == "note" {
			for _, note := range pkg.Notes {
				if strings.Contains(strings.ToLower(note.Text), query) {
					records = append(records, types.ContentRecord{
						ID:      note.ID,
						Topic:   pkg.Topic,
						Type:    "note",
						Title:   string(note.Audience),
						Snippet: snippet(note.Text, 200),
					})
				}
			}
		}
	}

	if len(records) > filter.Limit {
		records = records[:filter.Limit]
	}
	return records, nil
}

func (ms *MemoryStore) Close() {}
