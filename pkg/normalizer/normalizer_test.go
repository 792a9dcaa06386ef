package normalizer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steuerkompass/editorial/internal/models"
)

func newTestNormalizer() *Normalizer {
	return NewWithConfig(NormalizerConfig{
		ChunkSize:      400,
		ChunkOverlap:   40,
		MinChunkLength: 10,
	}, nil)
}

func TestNormalizeBuildsDocumentAndChunks(t *testing.T) {
	n := newTestNormalizer()

	fetched := []models.FetchResult{
		{
			URL:      "https://www.gesetze-im-internet.de/estg/__9.html",
			Title:    "EStG §9 Werbungskosten",
			MimeType: "text/html",
			Content:  "Werbungskosten sind Aufwendungen zur Erwerbung der Einnahmen. § 9 Abs. 1 Der Pauschbetrag beträgt 1.230 Euro für Arbeitnehmer. § 9a Andere Pauschbeträge bleiben unberührt und gelten gesondert.",
		},
	}

	docs, chunks, _, err := n.Normalize(context.Background(), fetched)
	require.NoError(t, err)

	require.Len(t, docs, 1)
	doc := docs[0]
	assert.Equal(t, models.DocTypeLaw, doc.DocType)
	assert.Contains(t, doc.DocID, "doc_")
	assert.NotEmpty(t, doc.ContentHash)
	assert.NotEmpty(t, doc.VersionHash)
	assert.Equal(t, "§ 9 Abs. 1", doc.Citation)

	require.NotEmpty(t, chunks)
	paragraphs := make(map[string]bool)
	for _, chunk := range chunks {
		assert.Equal(t, doc.DocID, chunk.DocID)
		assert.NotEmpty(t, chunk.Text)
		paragraphs[chunk.Paragraph] = true
	}
	assert.True(t, paragraphs["§ 9 Abs. 1"])
	assert.True(t, paragraphs["§ 9a"])
}

func TestNormalizeChunkIDsAreUnique(t *testing.T) {
	n := newTestNormalizer()

	fetched := []models.FetchResult{
		{URL: "https://gesetze-im-internet.de/a", Content: "§ 1 Erster Absatz mit genug Text für einen Chunk. § 2 Zweiter Absatz mit genug Text für einen Chunk."},
	}

	_, chunks, _, err := n.Normalize(context.Background(), fetched)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, chunk := range chunks {
		assert.False(t, seen[chunk.ChunkID], "chunk id %s repeated", chunk.ChunkID)
		seen[chunk.ChunkID] = true
	}
}

func TestInferDocType(t *testing.T) {
	tests := []struct {
		url      string
		content  string
		expected models.DocType
	}{
		{"https://www.gesetze-im-internet.de/estg/__9.html", "", models.DocTypeLaw},
		{"https://www.bundesfinanzministerium.de/Content/DE/x.html", "", models.DocTypeBMF},
		{"https://www.bundesfinanzhof.de/entscheidungen/x", "", models.DocTypeRuling},
		{"https://example.de/formular-management", "", models.DocTypeForm},
		{"https://example.de/info", "Das BMF-Schreiben vom 1.1.2023 regelt.", models.DocTypeBMF},
		{"https://example.de/info", "Das Urteil des Senats.", models.DocTypeRuling},
		{"https://example.de/info", "Allgemeine Hinweise.", models.DocTypeGuidance},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, inferDocType(tt.url, tt.content))
		})
	}
}

func TestCitationLinksInterprets(t *testing.T) {
	n := newTestNormalizer()

	fetched := []models.FetchResult{
		{
			URL:     "https://gesetze-im-internet.de/estg/__9.html",
			Content: "§ 9 Werbungskosten sind Aufwendungen zur Erwerbung, Sicherung und Erhaltung der Einnahmen.",
		},
		{
			URL:     "https://bundesfinanzministerium.de/schreiben/2023.html",
			Content: "BMF-Schreiben vom 1.1.2023: Zur Anwendung von § 9 wird klargestellt, dass die Pauschale vorrangig anzusetzen ist.",
		},
	}

	docs, _, links, err := n.Normalize(context.Background(), fetched)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	lawDoc := docs[0]
	require.Equal(t, models.DocTypeLaw, lawDoc.DocType)

	var found bool
	for _, link := range links {
		if link.TargetID == lawDoc.DocID && link.Relation == models.RelationInterprets {
			found = true
			assert.Equal(t, string(models.DocTypeLaw), link.TargetType)
		}
	}
	assert.True(t, found, "expected an interprets link from the BMF letter to the statute")
}

func TestCitationLinksSupersedes(t *testing.T) {
	n := newTestNormalizer()

	fetched := []models.FetchResult{
		{
			URL:          "https://gesetze-im-internet.de/estg/__9_alt.html",
			Content:      "§ 9 Der Pauschbetrag beträgt 1.000 Euro für alle Arbeitnehmer im Veranlagungszeitraum.",
			LastModified: "Mon, 02 Jan 2022 00:00:00 GMT",
		},
		{
			URL:          "https://gesetze-im-internet.de/estg/__9_neu.html",
			Content:      "§ 9 Der Pauschbetrag beträgt 1.230 Euro für alle Arbeitnehmer im Veranlagungszeitraum.",
			LastModified: "Mon, 02 Jan 2023 00:00:00 GMT",
		},
	}

	docs, _, links, err := n.Normalize(context.Background(), fetched)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	var found bool
	for _, link := range links {
		if link.Relation == models.RelationSupersedes {
			found = true
			assert.Equal(t, docs[0].DocID, link.TargetID, "the newer document supersedes the older")
		}
	}
	assert.True(t, found, "expected a supersedes link between document versions")
}

type stubEmbedder struct {
	fail bool
}

func (s *stubEmbedder) CreateEmbedding(_ context.Context, texts []string) ([][]float32, error) {
	if s.fail {
		return nil, errors.New("embedder offline")
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 2, 3}
	}
	return out, nil
}

func TestNormalizeAttachesEmbeddings(t *testing.T) {
	n := NewWithConfig(NormalizerConfig{MinChunkLength: 10}, &stubEmbedder{})

	fetched := []models.FetchResult{
		{URL: "https://gesetze-im-internet.de/a", Content: "§ 9 Der Pauschbetrag beträgt 1.230 Euro für Arbeitnehmer."},
	}

	_, chunks, _, err := n.Normalize(context.Background(), fetched)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.Equal(t, []float32{1, 2, 3}, chunk.Embedding)
	}
}

func TestNormalizeSurvivesEmbedderFailure(t *testing.T) {
	n := NewWithConfig(NormalizerConfig{MinChunkLength: 10}, &stubEmbedder{fail: true})

	fetched := []models.FetchResult{
		{URL: "https://gesetze-im-internet.de/a", Content: "§ 9 Der Pauschbetrag beträgt 1.230 Euro für Arbeitnehmer."},
	}

	_, chunks, _, err := n.Normalize(context.Background(), fetched)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.Nil(t, chunks[0].Embedding)
}
