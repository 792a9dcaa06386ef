package normalizer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/steuerkompass/editorial/internal/models"
	"github.com/steuerkompass/editorial/internal/types"
	"github.com/steuerkompass/editorial/pkg/logger"
)

type NormalizerConfig struct {
	ChunkSize      int
	ChunkOverlap   int
	MinChunkLength int
}

// Normalizer turns raw fetched content into LegalDocuments and addressable,
// citation-bearing chunks. The optional embedder attaches chunk embeddings
// when configured.
type Normalizer struct {
	config   NormalizerConfig
	embedder types.Embedder
	log      *logger.Logger
}

func NewWithConfig(config NormalizerConfig, embedder types.Embedder) *Normalizer {
	if config.ChunkSize == 0 {
		config.ChunkSize = 1000
	}
	if config.ChunkOverlap == 0 {
		config.ChunkOverlap = 100
	}
	if config.MinChunkLength == 0 {
		config.MinChunkLength = 80
	}

	return &Normalizer{
		config:   config,
		embedder: embedder,
		log:      logger.New(),
	}
}

var (
	paragraphRefRe = regexp.MustCompile(`§\s*\d+[a-z]?(?:\s*Abs\.?\s*\d+)?(?:\s*Satz\s*\d+)?(?:\s+[A-Z][a-zA-Z]*G\b)?`)
	bmfRefRe       = regexp.MustCompile(`BMF-Schreiben\s+vom\s+\d{1,2}\.\d{1,2}\.\d{4}`)
	dateRe         = regexp.MustCompile(`\b(\d{1,2})\.(\d{1,2})\.(\d{4})\b`)
)

// Normalize converts every fetch result into one immutable LegalDocument
// plus its chunks, then derives the citation-link graph across the batch.
func (n *Normalizer) Normalize(ctx context.Context, fetched []models.FetchResult) ([]models.LegalDocument, []models.DocumentChunk, []models.CitationLink, error) {
	var docs []models.LegalDocument
	var chunks []models.DocumentChunk

	for _, fr := range fetched {
		doc := n.buildDocument(fr)
		docChunks := n.chunkDocument(doc, fr.Content)
		docs = append(docs, doc)
		chunks = append(chunks, docChunks...)
	}

	if n.embedder != nil && len(chunks) > 0 {
		if err := n.embedChunks(ctx, chunks); err != nil {
			// Embeddings are optional enrichment; normalization proceeds.
			n.log.Warnf("chunk embedding failed: %v", err)
		}
	}

	links := n.buildCitationLinks(docs, chunks)
	return docs, chunks, links, nil
}

func (n *Normalizer) buildDocument(fr models.FetchResult) models.LegalDocument {
	contentHash := fr.Fingerprint
	if contentHash == "" {
		sum := sha256.Sum256([]byte(fr.Content))
		contentHash = hex.EncodeToString(sum[:])
	}

	docType := inferDocType(fr.URL, fr.Content)

	citation := ""
	if m := paragraphRefRe.FindString(fr.Content); m != "" {
		citation = normalizeRef(m)
	}
	if docType == models.DocTypeBMF {
		if m := bmfRefRe.FindString(fr.Content); m != "" {
			citation = m
		}
	}

	doc := models.LegalDocument{
		DocID:       fmt.Sprintf("doc_%s", contentHash[:12]),
		Title:       fr.Title,
		DocType:     docType,
		Citation:    citation,
		VersionHash: contentHash[:16],
		SourceURL:   fr.URL,
		MimeType:    fr.MimeType,
		ContentHash: contentHash,
	}

	if fr.LastModified != "" {
		if t, err := time.Parse(time.RFC1123, fr.LastModified); err == nil {
			doc.PublishedAt = t
		}
	}
	if doc.PublishedAt.IsZero() {
		if m := dateRe.FindStringSubmatch(fr.Content); m != nil {
			if t, err := time.Parse("2.1.2006", fmt.Sprintf("%s.%s.%s", m[1], m[2], m[3])); err == nil {
				doc.PublishedAt = t
			}
		}
	}

	return doc
}

// chunkDocument splits the document body at paragraph-reference boundaries
// so every chunk carries the reference governing its text, then size-chunks
// long segments the usual way. Text before the first reference falls back
// to the document-level citation.
func (n *Normalizer) chunkDocument(doc models.LegalDocument, content string) []models.DocumentChunk {
	var out []models.DocumentChunk

	type segment struct {
		paragraph string
		text      string
	}
	var segments []segment

	locs := paragraphRefRe.FindAllStringIndex(content, -1)
	if len(locs) == 0 {
		segments = append(segments, segment{paragraph: doc.Citation, text: content})
	} else {
		if locs[0][0] > 0 {
			segments = append(segments, segment{paragraph: doc.Citation, text: content[:locs[0][0]]})
		}
		for i, loc := range locs {
			end := len(content)
			if i+1 < len(locs) {
				end = locs[i+1][0]
			}
			ref := normalizeRef(content[loc[0]:loc[1]])
			segments = append(segments, segment{paragraph: ref, text: content[loc[0]:end]})
		}
	}

	idx := 0
	for _, seg := range segments {
		for _, piece := range n.splitIntoChunks(seg.text) {
			out = append(out, models.DocumentChunk{
				ChunkID:   fmt.Sprintf("%s_c%03d", doc.DocID, idx),
				DocID:     doc.DocID,
				Paragraph: seg.paragraph,
				Text:      piece,
			})
			idx++
		}
	}

	return out
}

func (n *Normalizer) splitIntoChunks(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= n.config.ChunkSize {
		if len(text) < n.config.MinChunkLength {
			return nil
		}
		return []string{text}
	}

	var chunks []string
	sentences := splitIntoSentences(text)
	current := strings.Builder{}

	for _, sentence := range sentences {
		if current.Len()+len(sentence) > n.config.ChunkSize {
			if current.Len() >= n.config.MinChunkLength {
				chunks = append(chunks, strings.TrimSpace(current.String()))
			}
			if n.config.ChunkOverlap > 0 && current.Len() > n.config.ChunkOverlap {
				tail := current.String()
				tail = tail[len(tail)-n.config.ChunkOverlap:]
				current.Reset()
				current.WriteString(tail)
			} else {
				current.Reset()
			}
		}
		current.WriteString(sentence)
		current.WriteString(" ")
	}

	if current.Len() >= n.config.MinChunkLength {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}

	return chunks
}

func splitIntoSentences(text string) []string {
	sentenceEnders := []string{". ", "! ", "? ", ".\n", "!\n", "?\n"}
	var sentences []string

	current := strings.Builder{}
	for i := 0; i < len(text); i++ {
		current.WriteByte(text[i])
		for _, ender := range sentenceEnders {
			if strings.HasSuffix(current.String(), ender) {
				sentences = append(sentences, current.String())
				current.Reset()
				break
			}
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, current.String())
	}

	return sentences
}

func (n *Normalizer) embedChunks(ctx context.Context, chunks []models.DocumentChunk) error {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	embeddings, err := n.embedder.CreateEmbedding(ctx, texts)
	if err != nil {
		return err
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(embeddings), len(chunks))
	}
	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}
	return nil
}

// buildCitationLinks derives the cross-reference graph: a chunk mentioning
// another normalized document's citation produces an edge. BMF letters
// interpret statutes, rulings apply them, everything else cites. Documents
// sharing a citation but differing in content hash produce a supersedes
// edge from the newer one.
func (n *Normalizer) buildCitationLinks(docs []models.LegalDocument, chunks []models.DocumentChunk) []models.CitationLink {
	var links []models.CitationLink
	seen := make(map[string]bool)

	byDocID := make(map[string]models.LegalDocument, len(docs))
	for _, d := range docs {
		byDocID[d.DocID] = d
	}

	for _, chunk := range chunks {
		owner, ok := byDocID[chunk.DocID]
		if !ok {
			continue
		}
		for _, target := range docs {
			if target.DocID == owner.DocID || target.Citation == "" {
				continue
			}
			if !strings.Contains(chunk.Text, target.Citation) {
				continue
			}

			relation := models.RelationCites
			if owner.DocType == models.DocTypeBMF && target.DocType == models.DocTypeLaw {
				relation = models.RelationInterprets
			} else if owner.DocType == models.DocTypeRuling && target.DocType == models.DocTypeLaw {
				relation = models.RelationApplies
			}

			key := chunk.Paragraph + "|" + target.DocID + "|" + string(relation)
			if seen[key] {
				continue
			}
			seen[key] = true
			links = append(links, models.CitationLink{
				SourceParagraph: chunk.Paragraph,
				TargetType:      string(target.DocType),
				TargetID:        target.DocID,
				Relation:        relation,
			})
		}
	}

	for i, a := range docs {
		for j, b := range docs {
			if i == j || a.Citation == "" || a.Citation != b.Citation || a.ContentHash == b.ContentHash {
				continue
			}
			if a.PublishedAt.After(b.PublishedAt) {
				key := a.Citation + "|" + b.DocID + "|supersedes"
				if seen[key] {
					continue
				}
				seen[key] = true
				links = append(links, models.CitationLink{
					SourceParagraph: a.Citation,
					TargetType:      string(b.DocType),
					TargetID:        b.DocID,
					Relation:        models.RelationSupersedes,
				})
			}
		}
	}

	return links
}

func inferDocType(rawURL, content string) models.DocType {
	lower := strings.ToLower(rawURL)
	switch {
	case strings.Contains(lower, "gesetze-im-internet"):
		return models.DocTypeLaw
	case strings.Contains(lower, "bundesfinanzministerium"):
		return models.DocTypeBMF
	case strings.Contains(lower, "bundesfinanzhof"):
		return models.DocTypeRuling
	case strings.Contains(lower, "formular"):
		return models.DocTypeForm
	}

	if strings.Contains(content, "BMF-Schreiben") {
		return models.DocTypeBMF
	}
	if strings.Contains(content, "Urteil") || strings.Contains(content, "Beschluss") {
		return models.DocTypeRuling
	}
	return models.DocTypeGuidance
}

func normalizeRef(ref string) string {
	return strings.Join(strings.Fields(ref), " ")
}
