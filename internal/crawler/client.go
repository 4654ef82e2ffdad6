// Package crawler pages through the storefront collection API and
// writes the raw crawl document consumed by the merger.
package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/catalogsync/pkg/config"
	pkgerrors "github.com/angelmondragon/catalogsync/pkg/errors"
	"github.com/angelmondragon/catalogsync/pkg/logger"
)

const (
	defaultBaseURL   = "https://api-crownx.winmart.vn"
	collectionPath   = "plg/api/web/item/collection"
	defaultPageSize  = 100
	defaultUserAgent = "catalogsync/1.0"
	sourceName       = "winmart"
)

const responseBodyReadLimit int64 = 1024

// Client fetches collection pages. A fetch failure aborts the walk; there is
// no retry.
type Client struct {
	httpClient *http.Client
	baseURL    string
	pageSize   int
	maxPages   int
	userAgent  string
	logg       *logger.Logger
	now        func() time.Time
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the storefront API host.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

func WithPageSize(size int) Option {
	return func(c *Client) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

// WithMaxPages caps FetchAll; zero means no cap.
func WithMaxPages(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxPages = n
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(ua); trimmed != "" {
			c.userAgent = trimmed
		}
	}
}

func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		if logg != nil {
			c.logg = logg
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient builds a crawler client with the given options.
func NewClient(opts ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		baseURL:    defaultBaseURL,
		pageSize:   defaultPageSize,
		userAgent:  defaultUserAgent,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.logg == nil {
		client.logg = logger.New(logger.Options{ServiceName: "crawler", Output: io.Discard})
	}
	return client
}

// NewFromConfig applies CrawlerConfig before opts.
func NewFromConfig(cfg config.CrawlerConfig, opts ...Option) *Client {
	base := []Option{
		WithBaseURL(cfg.BaseURL),
		WithPageSize(cfg.PageSize),
		WithMaxPages(cfg.MaxPages),
		WithUserAgent(cfg.UserAgent),
	}
	if cfg.Timeout > 0 {
		base = append(base, WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	}
	return NewClient(append(base, opts...)...)
}

// Page is one decoded collection response.
type Page struct {
	Number  int
	Items   []json.RawMessage
	HasNext bool
}

// FetchPage GETs a single 1-based collection page.
func (c *Client) FetchPage(ctx context.Context, page int) (Page, error) {
	if c == nil {
		return Page{}, pkgerrors.New(pkgerrors.CodeDependency, "crawler client not configured")
	}
	if page < 1 {
		return Page{}, pkgerrors.New(pkgerrors.CodeValidation, "page numbers start at 1")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pageURL(page), nil)
	if err != nil {
		return Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build collection request")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute collection request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "collection request failed").
			WithDetails(map[string]any{"page": page})
	}

	var apiResp struct {
		Data *struct {
			Items []json.RawMessage `json:"items"`
		} `json:"data"`
		Paging *struct {
			HasNextPage bool `json:"hasNextPage"`
		} `json:"paging"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode collection response").
			WithDetails(map[string]any{"page": page})
	}

	out := Page{Number: page}
	if apiResp.Data != nil {
		out.Items = apiResp.Data.Items
	}
	if apiResp.Paging != nil {
		out.HasNext = apiResp.Paging.HasNextPage
	}
	return out, nil
}

// FetchAll walks pages from 1 until the API reports no next page, a page
// comes back empty, or the page cap is reached.
func (c *Client) FetchAll(ctx context.Context) (Document, error) {
	doc := Document{Items: []Item{}}
	pages := 0
	for page := 1; ; page++ {
		p, err := c.FetchPage(ctx, page)
		if err != nil {
			return Document{}, err
		}
		pages++
		for _, raw := range p.Items {
			if item, ok := Simplify(raw); ok {
				doc.Items = append(doc.Items, item)
			}
		}
		c.logg.Debug(c.logg.WithFields(ctx, map[string]any{
			"page":  page,
			"items": len(p.Items),
			"next":  p.HasNext,
		}), "collection page fetched")

		if !p.HasNext || len(p.Items) == 0 {
			break
		}
		if c.maxPages > 0 && page >= c.maxPages {
			break
		}
	}

	doc.Meta = Meta{
		Source:       sourceName,
		PageSize:     c.pageSize,
		PagesFetched: pages,
		TotalItems:   len(doc.Items),
		FetchedAt:    c.now().UTC(),
		GeneratedBy:  "catalogsync",
	}
	c.logg.Info(c.logg.WithFields(ctx, map[string]any{
		"pages": pages,
		"items": len(doc.Items),
	}), "crawl finished")
	return doc, nil
}

func (c *Client) pageURL(page int) string {
	q := url.Values{}
	q.Set("pageNumber", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(c.pageSize))
	return fmt.Sprintf("%s/%s?%s", strings.TrimRight(c.baseURL, "/"), collectionPath, q.Encode())
}
