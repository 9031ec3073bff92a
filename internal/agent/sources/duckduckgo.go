package sources

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

	"golang.org/x/net/html"

	"github.com/beexo-community/beexy/internal/agent/model"
	errx "github.com/beexo-community/beexy/internal/core/error"
)

// DuckDuckGo queries the keyless DuckDuckGo endpoints: the HTML results page
// for web search and news.js for news.
type DuckDuckGo struct {
	htmlURL string
	baseURL string
	client  HTTPClient
}

func NewDuckDuckGo(cfg model.SearchConfig, client HTTPClient) *DuckDuckGo {
	if client == nil {
		client = &http.Client{}
	}
	return &DuckDuckGo{
		htmlURL: cfg.HTMLURL,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  client,
	}
}

// Text runs a web search and returns up to max organic results.
func (d *DuckDuckGo) Text(ctx context.Context, query, region string, max int) ([]model.SearchResult, error) {
	form := url.Values{}
	form.Set("q", query)
	form.Set("kl", region)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.htmlURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, errx.WrapUpstream("duckduckgo", 0, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errx.WrapUpstream("duckduckgo", resp.StatusCode, nil)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, errx.WrapUpstream("duckduckgo", resp.StatusCode, fmt.Errorf("parse html: %w", err))
	}
	results := parseHTMLResults(doc)
	if max > 0 && len(results) > max {
		results = results[:max]
	}
	return results, nil
}

var vqdPattern = regexp.MustCompile(`vqd=["']?([\d-]+)["']?`)

type newsResponse struct {
	Results []struct {
		Date    int64  `json:"date"`
		Title   string `json:"title"`
		Excerpt string `json:"excerpt"`
		URL     string `json:"url"`
		Source  string `json:"source"`
	} `json:"results"`
}

// News returns up to max recent news results for query.
func (d *DuckDuckGo) News(ctx context.Context, query, region string, max int) ([]model.SearchResult, error) {
	vqd, err := d.token(ctx, query)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("l", region)
	q.Set("o", "json")
	q.Set("noamp", "1")
	q.Set("q", query)
	q.Set("vqd", vqd)
	q.Set("p", "-1")

	body, status, err := d.get(ctx, d.baseURL+"/news.js?"+q.Encode())
	if err != nil {
		return nil, errx.WrapUpstream("duckduckgo news", status, err)
	}

	var raw newsResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errx.WrapUpstream("duckduckgo news", status, fmt.Errorf("decode: %w", err))
	}

	results := make([]model.SearchResult, 0, len(raw.Results))
	for _, r := range raw.Results {
		res := model.SearchResult{
			Title:   strings.TrimSpace(html.UnescapeString(r.Title)),
			Snippet: strings.TrimSpace(html.UnescapeString(r.Excerpt)),
			URL:     r.URL,
			Source:  r.Source,
		}
		if r.Date > 0 {
			res.Date = time.Unix(r.Date, 0).UTC().Format("2006-01-02")
		}
		results = append(results, res)
		if max > 0 && len(results) == max {
			break
		}
	}
	return results, nil
}

// token fetches the per-query vqd token news.js requires.
func (d *DuckDuckGo) token(ctx context.Context, query string) (string, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("ia", "news")

	body, status, err := d.get(ctx, d.baseURL+"/?"+q.Encode())
	if err != nil {
		return "", errx.WrapUpstream("duckduckgo news", status, err)
	}
	m := vqdPattern.FindSubmatch(body)
	if m == nil {
		return "", errx.WrapUpstream("duckduckgo news", status, fmt.Errorf("vqd token not found"))
	}
	return string(m[1]), nil
}

func (d *DuckDuckGo) get(ctx context.Context, rawURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return body, resp.StatusCode, nil
}

// parseHTMLResults walks the results page collecting result__a anchors and
// the result__snippet that follows each of them. Sponsored links are skipped.
func parseHTMLResults(doc *html.Node) []model.SearchResult {
	var (
		results []model.SearchResult
		current *model.SearchResult
	)
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case hasClass(n, "result__a"):
				if current != nil {
					results = append(results, *current)
					current = nil
				}
				link := resolveResultLink(attr(n, "href"))
				if link != "" && !strings.Contains(link, "duckduckgo.com/y.js") {
					current = &model.SearchResult{
						Title:  squash(textOf(n)),
						URL:    link,
						Source: hostOf(link),
					}
				}
				return
			case hasClass(n, "result__snippet"):
				if current != nil {
					current.Snippet = squash(textOf(n))
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	if current != nil {
		results = append(results, *current)
	}
	return results
}

// resolveResultLink unwraps DuckDuckGo's //duckduckgo.com/l/?uddg= redirects.
func resolveResultLink(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if strings.HasSuffix(u.Host, "duckduckgo.com") && u.Path == "/l/" {
		if target := u.Query().Get("uddg"); target != "" {
			return target
		}
	}
	return href
}

func hostOf(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
