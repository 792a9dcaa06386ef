package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steuerkompass/editorial/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		WhitelistSources: []config.SourceConfig{
			{Domain: "bundesfinanzministerium.de", Type: "BMF", Priority: 2},
			{Domain: "gesetze-im-internet.de", Type: "LAW", Priority: 3},
			{Domain: "steuer-blog.example", Type: "GUIDANCE", Priority: 1},
		},
		BlacklistDomains: []string{"steuer-blog.example"},
	}
}

func TestFromConfigPriorityOrder(t *testing.T) {
	reg := FromConfig(testConfig())

	sources := reg.Sources()
	require.Len(t, sources, 2, "blacklisted source must be dropped")
	assert.Equal(t, "gesetze-im-internet.de", sources[0].Domain)
	assert.Equal(t, "bundesfinanzministerium.de", sources[1].Domain)
}

func TestIsAuthorized(t *testing.T) {
	reg := FromConfig(testConfig())

	tests := []struct {
		host     string
		expected bool
	}{
		{"gesetze-im-internet.de", true},
		{"www.gesetze-im-internet.de", true},
		{"GESETZE-IM-INTERNET.DE", true},
		{"bundesfinanzministerium.de", true},
		{"steuer-blog.example", false},
		{"evil-gesetze-im-internet.de", false},
		{"example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.expected, reg.IsAuthorized(tt.host))
		})
	}
}

func TestLookupMatchesSubdomain(t *testing.T) {
	reg := FromConfig(testConfig())

	src, ok := reg.Lookup("www.bundesfinanzministerium.de")
	require.True(t, ok)
	assert.Equal(t, "bundesfinanzministerium.de", src.Domain)

	_, ok = reg.Lookup("unknown.example")
	assert.False(t, ok)
}

func TestMarkCrawled(t *testing.T) {
	reg := FromConfig(testConfig())
	assert.True(t, reg.LastCrawled().IsZero())

	at := time.Now()
	reg.MarkCrawled("gesetze-im-internet.de", at)

	assert.Equal(t, at, reg.LastCrawled())
	src, ok := reg.Lookup("gesetze-im-internet.de")
	require.True(t, ok)
	assert.Equal(t, at, src.LastCrawled)
}
