package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/steuerkompass/editorial/internal/types"
)

// HTTPSearchProvider queries a JSON search endpoint. The domain allowlist is
// passed as a site filter; backends that ignore it are handled by the
// fetcher's client-side post-filtering.
type HTTPSearchProvider struct {
	endpoint string
	client   *http.Client
}

func NewHTTPSearchProvider(endpoint string, timeout time.Duration) *HTTPSearchProvider {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPSearchProvider{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type searchResponse struct {
	Results []struct {
		URL     string `json:"url"`
		Title   string `json:"title"`
		Content string `json:"content"`
	} `json:"results"`
}

func (p *HTTPSearchProvider) Search(ctx context.Context, query string, domains []string, maxResults int) ([]types.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(maxResults))
	if len(domains) > 0 {
		params.Set("sites", strings.Join(domains, ","))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search endpoint returned status %d", resp.StatusCode)
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	results := make([]types.SearchResult, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		results = append(results, types.SearchResult{
			URL:     r.URL,
			Title:   r.Title,
			Content: r.Content,
		})
	}
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}
