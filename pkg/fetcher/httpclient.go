package fetcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/steuerkompass/editorial/internal/models"
)

// SHA256Fingerprinter is the default content fingerprint: a 256-bit digest
// over the body bytes.
type SHA256Fingerprinter struct{}

func (SHA256Fingerprinter) Fingerprint(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// HTTPClient retrieves source URLs and extracts their main text content.
type HTTPClient struct {
	client    *http.Client
	userAgent string
	sizeCap   int64
}

func NewHTTPClient(timeout time.Duration) *HTTPClient {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		client:    &http.Client{Timeout: timeout},
		userAgent: "steuerkompass-editorial/1.0",
		sizeCap:   10 << 20,
	}
}

func (h *HTTPClient) Fetch(ctx context.Context, rawURL string) (*models.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", h.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received status code %d for URL: %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, h.sizeCap))
	if err != nil {
		return nil, err
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)

	result := &models.FetchResult{
		URL:          rawURL,
		StatusCode:   resp.StatusCode,
		MimeType:     mediaType,
		LastModified: resp.Header.Get("Last-Modified"),
		ETag:         resp.Header.Get("ETag"),
	}

	if strings.Contains(mediaType, "html") || mediaType == "" {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
		if err != nil {
			return nil, err
		}
		result.Title = strings.TrimSpace(doc.Find("title").Text())
		result.Content = extractMainContent(doc)
	} else {
		result.Content = string(body)
	}

	return result, nil
}

func extractMainContent(doc *goquery.Document) string {
	selectors := []string{
		"main",
		"article",
		".content",
		"#content",
		".gesetzestext",
		"#paddingLR12",
	}

	var content string
	for _, selector := range selectors {
		if selected := doc.Find(selector); selected.Length() > 0 {
			content = selected.Text()
			break
		}
	}

	if content == "" {
		content = doc.Find("body").Text()
	}

	return cleanContent(content)
}

func cleanContent(content string) string {
	// Collapse whitespace but keep sentence flow intact.
	content = strings.Join(strings.Fields(content), " ")

	noisePatterns := []string{
		"Cookie-Einstellungen",
		"Datenschutzerklärung",
		"Zum Seitenanfang",
		"Diese Seite teilen",
	}
	for _, pattern := range noisePatterns {
		content = strings.ReplaceAll(content, pattern, "")
	}

	return strings.TrimSpace(content)
}
