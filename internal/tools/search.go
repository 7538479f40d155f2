package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/tidwall/gjson"

	"github.com/dotcommander/yagent/internal/errs"
)

// DefaultSearchURL is the Google Programmable Search endpoint.
const DefaultSearchURL = "https://www.googleapis.com/customsearch/v1"

const (
	defaultResults = 3
	maxResults     = 5
	maxErrorBody   = 512

	maxResponseBody = 4 << 20
)

// Snippet is one search hit.
type Snippet struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// SearchResult is what google_search hands back to the model.
type SearchResult struct {
	Snippets []Snippet `json:"snippets"`
}

// GoogleSearch implements the google_search tool.
type GoogleSearch struct {
	Key        string
	CX         string
	Endpoint   string
	HTTPClient *http.Client
}

type searchArgs struct {
	Query string  `json:"query"`
	Num   float64 `json:"num"`
}

// Tool implements Handler.
func (g *GoogleSearch) Tool() mcp.Tool {
	return mcp.NewTool("google_search",
		mcp.WithDescription("Search the web and return the top results as title, link and snippet."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query"),
		),
		mcp.WithNumber("num",
			mcp.Description("Number of results to return"),
			mcp.Min(1),
			mcp.Max(maxResults),
			mcp.DefaultNumber(defaultResults),
		),
	)
}

// Call implements Handler.
func (g *GoogleSearch) Call(ctx context.Context, args json.RawMessage, snap Snapshot) (any, error) {
	var in searchArgs
	if err := decodeArgs("google_search", args, &in); err != nil {
		return nil, err
	}
	if g.Key == "" || g.CX == "" {
		return nil, errs.MissingCredential("google-key", "google-cx")
	}

	query := strings.TrimSpace(in.Query)
	if query == "" {
		query = fallbackQuery(snap.RecentUserText(2))
	}
	if query == "" {
		return nil, fmt.Errorf("google_search: empty query")
	}

	q := url.Values{}
	q.Set("key", g.Key)
	q.Set("cx", g.CX)
	q.Set("q", query)
	q.Set("num", strconv.Itoa(clampResults(in.Num)))

	endpoint := g.Endpoint
	if endpoint == "" {
		endpoint = DefaultSearchURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("google_search: %w", err)
	}
	resp, err := httpClient(g.HTTPClient).Do(req)
	if err != nil {
		return nil, fmt.Errorf("google_search: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := readBody(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("google_search: read response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("google_search: %s: %s", resp.Status, truncate(body, maxErrorBody))
	}

	out := SearchResult{Snippets: []Snippet{}}
	gjson.GetBytes(body, "items").ForEach(func(_, item gjson.Result) bool {
		out.Snippets = append(out.Snippets, Snippet{
			Title:   item.Get("title").String(),
			Link:    item.Get("link").String(),
			Snippet: item.Get("snippet").String(),
		})
		return true
	})
	return out, nil
}

func clampResults(n float64) int {
	if n == 0 || math.IsNaN(n) {
		return defaultResults
	}
	return int(math.Max(1, math.Min(maxResults, math.Round(n))))
}

func httpClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return http.DefaultClient
}

// readBody reads at most 4MB of a tool endpoint's reply.
func readBody(r io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, maxResponseBody))
}

// truncate cuts b to at most n bytes without splitting a rune.
func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	for n > 0 && !utf8.RuneStart(b[n]) {
		n--
	}
	return string(b[:n]) + "..."
}
