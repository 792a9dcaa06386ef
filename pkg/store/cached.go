package store

import (
	"context"

	"github.com/steuerkompass/editorial/internal/models"
	"github.com/steuerkompass/editorial/internal/types"
	"github.com/steuerkompass/editorial/pkg/logger"
)

// CachedStore is a write-through wrapper: every package lands in the local
// memory cache first, then in the backend. A backend failure is returned so
// the orchestrator can record a warning, but the package stays available
// from the cache. A nil backend degrades to cache-only operation.
type CachedStore struct {
	backend types.PackageStore
	cache   *MemoryStore
	log     *logger.Logger
}

func NewCachedStore(backend types.PackageStore) *CachedStore {
	return &CachedStore{
		backend: backend,
		cache:   NewMemoryStore(),
		log:     logger.New(),
	}
}

func (cs *CachedStore) StorePackage(ctx context.Context, pkg *models.EditorialPackage) error {
	if err := cs.cache.StorePackage(ctx, pkg); err != nil {
		return err
	}
	if cs.backend == nil {
		return nil
	}
	if err := cs.backend.StorePackage(ctx, pkg); err != nil {
		cs.log.Warnf("package store unreachable, keeping %s in memory: %v", pkg.PackageID, err)
		return &models.PersistenceError{Op: "store_package", Err: err}
	}
	return nil
}

func (cs *CachedStore) SearchContent(ctx context.Context, query string, filter types.SearchFilter) ([]types.ContentRecord, error) {
	if cs.backend != nil {
		records, err := cs.backend.SearchContent(ctx, query, filter)
		if err == nil {
			return records, nil
		}
		cs.log.Warnf("backend search failed, falling back to cache: %v", err)
	}
	return cs.cache.SearchContent(ctx, query, filter)
}

// ChunkWriter is implemented by backends that index normalized chunks for
// content search.
type ChunkWriter interface {
	StoreChunks(ctx context.Context, packageID, topic string, chunks []models.DocumentChunk) error
}

// StoreChunks forwards chunk indexing to the backend when it supports it.
// Chunks are derived data, so there is no cache fallback; a failure is
// reported for the orchestrator to record as a warning.
func (cs *CachedStore) StoreChunks(ctx context.Context, packageID, topic string, chunks []models.DocumentChunk) error {
	cw, ok := cs.backend.(ChunkWriter)
	if !ok || len(chunks) == 0 {
		return nil
	}
	if err := cw.StoreChunks(ctx, packageID, topic, chunks); err != nil {
		cs.log.Warnf("chunk indexing failed for package %s: %v", packageID, err)
		return &models.PersistenceError{Op: "store_chunks", Err: err}
	}
	return nil
}

// Cache exposes the local cache for latest-package lookups.
func (cs *CachedStore) Cache() *MemoryStore { return cs.cache }

func (cs *CachedStore) Close() {
	if cs.backend != nil {
		cs.backend.Close()
	}
}
