// internal/pipeline/growth-triggers/context_test.go
package growthtriggers

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"martech-enrichment/internal/common/logger"
)

func TestHTMLToText_StripsMarkupAndScripts(t *testing.T) {
	doc := `<html><head>
		<style>body { color: red }</style>
		<script>var tracking = true;</script>
	</head><body>
		<h1>Acme  Analytics</h1>
		<noscript>enable javascript</noscript>
		<p>Unify   your
		customer data.</p>
	</body></html>`

	text := htmlToText(strings.NewReader(doc))

	assert.Equal(t, "Acme Analytics Unify your customer data.", text)
}

func TestHTMLToText_EmptyDocument(t *testing.T) {
	assert.Equal(t, "", htmlToText(strings.NewReader("")))
}

func TestTruncateTokens(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		limit    int
		expected string
	}{
		{"under limit unchanged", "one two three", 10, "one two three"},
		{"exactly at limit unchanged", "one two three", 3, "one two three"},
		{"over limit truncated", "one two three four five", 3, "one two three"},
		{"empty text", "", 5, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, truncateTokens(tt.text, tt.limit))
		})
	}
}

func TestTruncateTokens_PreservesOriginalSpacingUnderLimit(t *testing.T) {
	text := "one  two\nthree"
	assert.Equal(t, text, truncateTokens(text, 10))
}

func TestGather_NoDomains(t *testing.T) {
	g := NewGatherer(1000, logger.NewNoOpLogger())

	_, err := g.Gather(context.Background(), nil)

	assert.Error(t, err)
}

func TestGather_UnreachableDomainYieldsEmptySignals(t *testing.T) {
	g := NewGatherer(1000, logger.NewNoOpLogger())

	contextText, err := g.Gather(context.Background(), []string{"example.invalid"})

	assert.NoError(t, err)
	assert.Equal(t, `{"domains":["example.invalid"],"tech":[],"copy":"","jobs":[]}`, contextText)
}

func TestGather_StableSerializationYieldsStableKey(t *testing.T) {
	g := NewGatherer(1000, logger.NewNoOpLogger())

	first, err := g.Gather(context.Background(), []string{"example.invalid"})
	assert.NoError(t, err)
	second, err := g.Gather(context.Background(), []string{"example.invalid"})
	assert.NoError(t, err)

	assert.Equal(t, DeriveKey(first), DeriveKey(second))
}
