package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Four fact-gathering tools back the council's research capability:
//
//	web_search        - DuckDuckGo result list (titles, URLs, snippets)
//	jina_search       - Jina AI Search, results with readable page content
//	read_url          - Jina AI Reader, one URL as clean markdown
//	fetch_url_content - plain HTTP fetch with tag stripping, fallback path

const (
	jinaReaderBase = "https://r.jina.ai/"
	jinaSearchBase = "https://s.jina.ai/"
	ddgHTMLBase    = "https://html.duckduckgo.com/html/"

	// Jina responses are capped before they ever reach the bridge caller.
	maxJinaChars  = 1200
	maxFetchChars = 5000
)

// WebConfig configures the built-in web tools.
type WebConfig struct {
	// Enabled gates web_search; the Jina tools stay available regardless
	// since they double as page readers.
	Enabled bool
	// MaxResults caps web_search results. Hard ceiling of 3.
	MaxResults int
	// Timeout per outbound HTTP request. Defaults to 20s.
	Timeout time.Duration
	// UserAgent sent with every request.
	UserAgent string
}

// WebTools bundles the HTTP client shared by the four tools.
type WebTools struct {
	cfg    WebConfig
	client *http.Client
	logger *zap.Logger
}

// NewWebTools creates the web tool set.
func NewWebTools(cfg WebConfig, logger *zap.Logger) *WebTools {
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "MAGI-System/1.0"
	}
	if cfg.MaxResults <= 0 || cfg.MaxResults > 3 {
		cfg.MaxResults = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebTools{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With(zap.String("component", "web_tools")),
	}
}

// RegisterAll registers the four web tools on the registry.
func (w *WebTools) RegisterAll(r *Registry) error {
	searchLimit := &RateLimitConfig{MaxCalls: 30, Window: time.Minute}

	if err := r.Register("web_search", w.webSearch, Metadata{
		Schema:    WebSearchSchema,
		Timeout:   w.cfg.Timeout,
		RateLimit: searchLimit,
	}); err != nil {
		return err
	}
	if err := r.Register("jina_search", w.jinaSearch, Metadata{
		Schema:    JinaSearchSchema,
		Timeout:   w.cfg.Timeout,
		RateLimit: searchLimit,
	}); err != nil {
		return err
	}
	if err := r.Register("read_url", w.readURL, Metadata{
		Schema:  ReadURLSchema,
		Timeout: w.cfg.Timeout,
	}); err != nil {
		return err
	}
	return r.Register("fetch_url_content", w.fetchURLContent, Metadata{
		Schema:  FetchURLSchema,
		Timeout: w.cfg.Timeout,
	})
}

func (w *WebTools) get(ctx context.Context, rawURL string, headers map[string]string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", w.cfg.UserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

var jinaHeaders = map[string]string{
	"Accept":          "text/plain",
	"X-Return-Format": "markdown",
}

// --- web_search ---

type webSearchArgs struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
}

// SearchResult is one web_search hit, mirroring the DuckDuckGo result shape.
type SearchResult struct {
	Title string `json:"title"`
	Href  string `json:"href"`
	Body  string `json:"body"`
}

var (
	ddgResultRe  = regexp.MustCompile(`(?s)<a[^>]+class="result__a"[^>]+href="([^"]+)"[^>]*>(.*?)</a>`)
	ddgSnippetRe = regexp.MustCompile(`(?s)<a[^>]+class="result__snippet"[^>]*>(.*?)</a>`)
	tagRe        = regexp.MustCompile(`<[^>]+>`)
	spaceRe      = regexp.MustCompile(`\s+`)
)

func stripTags(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(tagRe.ReplaceAllString(s, " "), " "))
}

func (w *WebTools) webSearch(ctx context.Context, args json.RawMessage) (string, error) {
	if !w.cfg.Enabled {
		return `[{"error": "Web search is disabled in config."}]`, nil
	}

	var params webSearchArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &params); err != nil {
			return "", fmt.Errorf("invalid web_search arguments: %w", err)
		}
	}
	if params.Query == "" {
		return "", fmt.Errorf("query is required")
	}

	limit := w.cfg.MaxResults
	if params.MaxResults > 0 && params.MaxResults < limit {
		limit = params.MaxResults
	}

	page, err := w.get(ctx, ddgHTMLBase+"?q="+url.QueryEscape(params.Query), nil)
	if err != nil {
		return "", fmt.Errorf("search failed: %w", err)
	}

	links := ddgResultRe.FindAllStringSubmatch(page, limit)
	snippets := ddgSnippetRe.FindAllStringSubmatch(page, limit)

	results := make([]SearchResult, 0, len(links))
	for i, m := range links {
		res := SearchResult{Title: stripTags(m[2]), Href: m[1]}
		if i < len(snippets) {
			res.Body = stripTags(snippets[i][1])
		}
		results = append(results, res)
	}

	w.logger.Info("web search completed",
		zap.String("query", params.Query),
		zap.Int("results", len(results)))

	out, err := json.Marshal(results)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// --- jina_search ---

type jinaSearchArgs struct {
	Query string `json:"query"`
}

func (w *WebTools) jinaSearch(ctx context.Context, args json.RawMessage) (string, error) {
	var params jinaSearchArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &params); err != nil {
			return "", fmt.Errorf("invalid jina_search arguments: %w", err)
		}
	}
	if params.Query == "" {
		return "", fmt.Errorf("query is required")
	}

	content, err := w.get(ctx, jinaSearchBase+url.QueryEscape(params.Query), jinaHeaders)
	if err != nil {
		return "", fmt.Errorf("searching '%s': %w", params.Query, err)
	}
	if len(content) > maxJinaChars {
		content = content[:maxJinaChars] + "\n[Results truncated]"
	}
	return content, nil
}

// --- read_url ---

type readURLArgs struct {
	URL string `json:"url"`
}

func (w *WebTools) readURL(ctx context.Context, args json.RawMessage) (string, error) {
	var params readURLArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &params); err != nil {
			return "", fmt.Errorf("invalid read_url arguments: %w", err)
		}
	}
	if params.URL == "" {
		return "", fmt.Errorf("url is required")
	}

	content, err := w.get(ctx, jinaReaderBase+params.URL, jinaHeaders)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", params.URL, err)
	}
	if len(content) > maxJinaChars {
		content = content[:maxJinaChars] + "\n[Content truncated]"
	}
	return content, nil
}

// --- fetch_url_content ---

type fetchURLArgs struct {
	URL string `json:"url"`
}

func (w *WebTools) fetchURLContent(ctx context.Context, args json.RawMessage) (string, error) {
	var params fetchURLArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &params); err != nil {
			return "", fmt.Errorf("invalid fetch_url_content arguments: %w", err)
		}
	}
	if params.URL == "" {
		return "", fmt.Errorf("url is required")
	}

	html, err := w.get(ctx, params.URL, nil)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", params.URL, err)
	}

	text := stripTags(html)
	if len(text) > maxFetchChars {
		text = text[:maxFetchChars] + "... [TRUNCATED]"
	}
	return text, nil
}
