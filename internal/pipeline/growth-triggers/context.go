// internal/pipeline/growth-triggers/context.go
package growthtriggers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	commonhttp "martech-enrichment/internal/common/http"
	"martech-enrichment/internal/common/logger"
)

// Gatherer collects the raw signals (page copy, detected technologies,
// job-posting text) for a domain set. All sub-fetches are best-effort:
// a failed fetch contributes an empty value, never an error.
type Gatherer struct {
	client     *commonhttp.Client
	tokenLimit int
	logger     logger.Logger
}

func NewGatherer(tokenLimit int, log logger.Logger) *Gatherer {
	return &Gatherer{
		client:     commonhttp.NewClient(10 * time.Second),
		tokenLimit: tokenLimit,
		logger:     log,
	}
}

// Gather fetches copy, tech, and jobs for the primary domain in parallel,
// serializes the resulting context with stable field order, and truncates
// it to the configured token budget. The truncated string is both the
// cache-key input and the prompt context.
func (g *Gatherer) Gather(ctx context.Context, domains []string) (string, error) {
	if len(domains) == 0 {
		return "", fmt.Errorf("no domains provided")
	}
	primary := domains[0]

	var (
		pageCopy string
		tech     []string
		jobs     []string
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		pageCopy = g.fetchCopy(egCtx, primary)
		return nil
	})
	eg.Go(func() error {
		tech = g.detectTech(egCtx, primary)
		return nil
	})
	eg.Go(func() error {
		jobs = g.fetchJobs(egCtx, primary)
		return nil
	})
	_ = eg.Wait()

	if tech == nil {
		tech = []string{}
	}
	if jobs == nil {
		jobs = []string{}
	}

	websiteContext := WebsiteContext{
		Domains: domains,
		Tech:    tech,
		Copy:    pageCopy,
		Jobs:    jobs,
	}

	serialized, err := json.Marshal(websiteContext)
	if err != nil {
		return "", fmt.Errorf("serialize context: %w", err)
	}

	return truncateTokens(string(serialized), g.tokenLimit), nil
}

// fetchCopy retrieves the primary page and strips it to plain text.
// Empty string on any failure.
func (g *Gatherer) fetchCopy(ctx context.Context, domain string) string {
	resp, err := g.client.Get(ctx, "https://"+domain)
	if err != nil {
		g.logger.Debug("copy fetch failed", map[string]interface{}{
			"domain": domain,
			"error":  err.Error(),
		})
		return ""
	}
	defer resp.Body.Close()

	return htmlToText(resp.Body)
}

// fetchJobs retrieves the /jobs page as a single text blob.
// Empty slice on any failure.
func (g *Gatherer) fetchJobs(ctx context.Context, domain string) []string {
	resp, err := g.client.Get(ctx, "https://"+domain+"/jobs")
	if err != nil {
		g.logger.Debug("jobs fetch failed", map[string]interface{}{
			"domain": domain,
			"error":  err.Error(),
		})
		return []string{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return []string{}
	}

	text := htmlToText(resp.Body)
	if text == "" {
		return []string{}
	}
	return []string{text}
}

// detectTech is a stub; technology detection lives in a separate service.
func (g *Gatherer) detectTech(_ context.Context, _ string) []string {
	return []string{}
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// htmlToText extracts the visible text of an HTML document, skipping
// script/style content, and collapses runs of whitespace.
func htmlToText(r io.Reader) string {
	var b strings.Builder
	tokenizer := html.NewTokenizer(r)
	skipDepth := 0

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(whitespaceRe.ReplaceAllString(b.String(), " "))
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if isNonContentTag(string(name)) {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if isNonContentTag(string(name)) && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth == 0 {
				b.Write(tokenizer.Text())
				b.WriteByte(' ')
			}
		}
	}
}

func isNonContentTag(name string) bool {
	return name == "script" || name == "style" || name == "noscript"
}

// truncateTokens caps text at the first limit whitespace-delimited tokens.
// Text under the limit is returned unchanged so keys stay stable.
func truncateTokens(text string, limit int) string {
	tokens := strings.Fields(text)
	if len(tokens) <= limit {
		return text
	}
	return strings.Join(tokens[:limit], " ")
}
