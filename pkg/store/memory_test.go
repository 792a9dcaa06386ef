package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steuerkompass/editorial/internal/models"
	"github.com/steuerkompass/editorial/internal/types"
)

func samplePackage(id, topic string) *models.EditorialPackage {
	return &models.EditorialPackage{
		PackageID: id,
		Topic:     topic,
		Version:   1,
		CreatedAt: time.Now(),
		RuleSpecs: []models.RuleSpec{
			{RuleID: "werbungskosten_fixed_allowance_2024", Definition: "Pauschbetrag von 1230 Euro wird berücksichtigt."},
		},
		Notes: []models.EditorialNote{
			{ID: "n1", Audience: models.AudienceUser, Text: "Der Pauschbetrag zählt automatisch."},
		},
	}
}

func TestMemoryStoreLatest(t *testing.T) {
	ms := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, ms.StorePackage(ctx, samplePackage("p1", "werbungskosten")))
	require.NoError(t, ms.StorePackage(ctx, samplePackage("p2", "werbungskosten")))

	latest, ok := ms.Latest("werbungskosten")
	require.True(t, ok)
	assert.Equal(t, "p2", latest.PackageID)

	_, ok = ms.Latest("unknown")
	assert.False(t, ok)

	assert.Equal(t, 2, ms.Len())
}

func TestMemoryStoreSearchContent(t *testing.T) {
	ms := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, ms.StorePackage(ctx, samplePackage("p1", "werbungskosten")))

	records, err := ms.SearchContent(ctx, "pauschbetrag", types.SearchFilter{})
	require.NoError(t, err)
	require.Len(t, records, 2, "matches the rule definition and the note")

	records, err = ms.SearchContent(ctx, "pauschbetrag", types.SearchFilter{ContentType: "note"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "note", records[0].Type)

	records, err = ms.SearchContent(ctx, "pauschbetrag", types.SearchFilter{Topic: "anderes"})
	require.NoError(t, err)
	assert.Empty(t, records)
}

type failingStore struct{}

func (failingStore) StorePackage(context.Context, *models.EditorialPackage) error {
	return errors.New("connection refused")
}
func (failingStore) SearchContent(context.Context, string, types.SearchFilter) ([]types.ContentRecord, error) {
	return nil, errors.New("connection refused")
}
func (failingStore) Close() {}

func TestCachedStoreDegradesGracefully(t *testing.T) {
	cs := NewCachedStore(failingStore{})
	ctx := context.Background()

	err := cs.StorePackage(ctx, samplePackage("p1", "werbungskosten"))
	require.Error(t, err)

	var persistErr *models.PersistenceError
	assert.ErrorAs(t, err, &persistErr)

	// The package survives in the cache despite the backend failure.
	cached, ok := cs.Cache().Get("p1")
	require.True(t, ok)
	assert.Equal(t, "werbungskosten", cached.Topic)

	// Search falls back to the cache.
	records, err := cs.SearchContent(ctx, "pauschbetrag", types.SearchFilter{})
	require.NoError(t, err)
	assert.NotEmpty(t, records)
}

func TestCachedStoreWithoutBackend(t *testing.T) {
	cs := NewCachedStore(nil)
	ctx := context.Background()

	require.NoError(t, cs.StorePackage(ctx, samplePackage("p1", "t")))
	_, ok := cs.Cache().Latest("t")
	assert.True(t, ok)

	// Chunk indexing is a no-op without a chunk-capable backend.
	chunks := []models.DocumentChunk{{ChunkID: "c1", DocID: "d1", Text: "text"}}
	assert.NoError(t, cs.StoreChunks(ctx, "p1", "t", chunks))
}

type chunkRecorder struct {
	failingStore
	stored []models.DocumentChunk
}

func (cr *chunkRecorder) StoreChunks(_ context.Context, _, _ string, chunks []models.DocumentChunk) error {
	cr.stored = append(cr.stored, chunks...)
	return nil
}

func TestCachedStoreForwardsChunks(t *testing.T) {
	backend := &chunkRecorder{}
	cs := NewCachedStore(backend)

	chunks := []models.DocumentChunk{
		{ChunkID: "c1", DocID: "d1", Paragraph: "§9", Text: "Der Pauschbetrag beträgt 1230 Euro."},
	}
	require.NoError(t, cs.StoreChunks(context.Background(), "p1", "werbungskosten", chunks))
	require.Len(t, backend.stored, 1)
	assert.Equal(t, "c1", backend.stored[0].ChunkID)
}
