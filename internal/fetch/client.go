// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch mirrors help-center articles into a local snapshot of
// Markdown artifacts.
// Implements docs/ARCHITECTURE § Fetch and § Snapshot.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pdiddy/docsync/internal/httputil"
	"github.com/pdiddy/docsync/pkg/types"
)

// Client pages through the help-center article listing API.
type Client struct {
	cfg  types.SourceConfig
	http *http.Client
}

// NewClient builds a Client from config, applying defaults for anything
// unset.
func NewClient(cfg types.SourceConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.PageDelay <= 0 {
		cfg.PageDelay = 500 * time.Millisecond
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Articles fetches every article the listing yields, newest first,
// stopping at cfg.MaxArticles when a cap is set. A failed listing page
// aborts the fetch: a silently partial snapshot is worse than no
// snapshot.
func (c *Client) Articles(ctx context.Context) ([]types.Article, error) {
	if c.cfg.APIURL == "" {
		return nil, fmt.Errorf("source api_url is not configured")
	}

	var articles []types.Article
	for page := 1; ; page++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		listing, err := c.fetchPage(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("fetching listing page %d: %w", page, err)
		}
		if len(listing.Articles) == 0 {
			break
		}

		for _, a := range listing.Articles {
			articles = append(articles, types.Article{
				ID:        a.ID,
				Title:     articleTitle(a),
				BodyHTML:  a.Body,
				URL:       a.HTMLURL,
				CreatedAt: a.CreatedAt,
				UpdatedAt: a.UpdatedAt,
			})
			if c.cfg.MaxArticles > 0 && len(articles) >= c.cfg.MaxArticles {
				return articles, nil
			}
		}

		if listing.NextPage == "" {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.cfg.PageDelay):
		}
	}
	return articles, nil
}

func (c *Client) fetchPage(ctx context.Context, page int) (*listingResponse, error) {
	params := url.Values{
		"page":       {strconv.Itoa(page)},
		"per_page":   {strconv.Itoa(c.cfg.PageSize)},
		"sort_by":    {"created_at"},
		"sort_order": {"desc"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.http, req, 0)
	if err != nil {
		return nil, fmt.Errorf("help-center API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("help-center API returned HTTP %d", resp.StatusCode)
	}

	var listing listingResponse
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("parsing help-center response: %w", err)
	}
	return &listing, nil
}

// articleTitle falls back to the section name and then a placeholder so
// no article ends up unnamed.
func articleTitle(a articleJSON) string {
	if a.Title != "" {
		return a.Title
	}
	if a.Name != "" {
		return a.Name
	}
	return fmt.Sprintf("Article %d", a.ID)
}

// Help-center API JSON structures.
type listingResponse struct {
	Articles  []articleJSON `json:"articles"`
	NextPage  string        `json:"next_page"`
	Page      int           `json:"page"`
	PageCount int           `json:"page_count"`
	Count     int           `json:"count"`
}

type articleJSON struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Name      string `json:"name"`
	Body      string `json:"body"`
	HTMLURL   string `json:"html_url"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}
