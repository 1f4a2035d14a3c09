// Package wikipedia implementa search.Searcher contra la REST API de Wikipedia
// (GET /w/rest.php/v1/search/page).
package wikipedia

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"runtime"
	"strconv"
	"strings"
	"time"

	"species-catalog/internal/domain/search"
	"species-catalog/internal/platform/httpclient"

	"github.com/k3a/html2text"
)

const (
	DefaultBaseURL = "https://en.wikipedia.org/w/rest.php/v1/search/page"

	// Política de User-Agent de Wikimedia: nombre/versión (contacto) librería/versión.
	userAgentName    = "species-catalog"
	userAgentContact = "https://github.com/species-catalog/species-catalog"
)

type Config struct {
	BaseURL string
	Timeout time.Duration

	// RatePerSecond <= 0 => sin límite.
	RatePerSecond float64
	AppVersion    string
}

type Client struct {
	baseURL string
	http    *httpclient.Client
}

func New(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("wikipedia: invalid base url: %w", err)
	}

	hc := httpclient.New(cfg.Timeout).WithRateLimit(cfg.RatePerSecond)
	hc.UserAgent = buildUserAgent(cfg.AppVersion)

	return &Client{
		baseURL: base,
		http:    hc,
	}, nil
}

func buildUserAgent(version string) string {
	if version == "" {
		version = "dev"
	}
	return fmt.Sprintf("%s/%s (%s) Go-HTTP-Client/%s", userAgentName, version, userAgentContact, runtime.Version())
}

type thumbnail struct {
	Mimetype string   `json:"mimetype"`
	Size     *int64   `json:"size"`
	Width    *int     `json:"width"`
	Height   *int     `json:"height"`
	Duration *float64 `json:"duration"`
	URL      string   `json:"url"`
}

type page struct {
	ID           int64      `json:"id"`
	Key          string     `json:"key"`
	Title        string     `json:"title"`
	Excerpt      string     `json:"excerpt"`
	MatchedTitle *string    `json:"matched_title"`
	Description  *string    `json:"description"`
	Thumbnail    *thumbnail `json:"thumbnail"`
}

// Search pide hasta limit páginas que matcheen q (trimmed). Un q vacío también
// se envía. Devuelve search.ErrMalformed si falta "pages" o no es una lista.
func (c *Client) Search(ctx context.Context, q string, limit int) ([]search.Result, error) {
	if limit <= 0 {
		limit = search.ResultLimit
	}
	params := url.Values{}
	params.Set("q", strings.TrimSpace(q))
	params.Set("limit", strconv.Itoa(limit))

	var raw json.RawMessage
	err := c.http.DoJSON(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil, nil, &raw)
	switch {
	case errors.Is(err, httpclient.ErrDecode):
		return nil, fmt.Errorf("%w: %v", search.ErrMalformed, err)
	case err != nil:
		return nil, fmt.Errorf("wikipedia search: %w", err)
	}
	return parsePages(raw)
}

func parsePages(raw []byte) ([]search.Result, error) {
	var envelope struct {
		Pages json.RawMessage `json:"pages"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", search.ErrMalformed, err)
	}

	p := bytes.TrimSpace(envelope.Pages)
	if len(p) == 0 || p[0] != '[' {
		return nil, fmt.Errorf("%w: pages is missing or not a list", search.ErrMalformed)
	}

	var pages []page
	if err := json.Unmarshal(p, &pages); err != nil {
		return nil, fmt.Errorf("%w: %v", search.ErrMalformed, err)
	}

	out := make([]search.Result, 0, len(pages))
	for _, pg := range pages {
		out = append(out, toResult(pg))
	}
	return out, nil
}

func toResult(pg page) search.Result {
	r := search.Result{
		ID:           pg.ID,
		Title:        pg.Title,
		Excerpt:      strings.TrimSpace(html2text.HTML2Text(pg.Excerpt)),
		MatchedTitle: pg.MatchedTitle,
	}
	if pg.Description != nil {
		r.Description = *pg.Description
	}
	if t := pg.Thumbnail; t != nil {
		r.Thumbnail = &search.Thumbnail{
			Mimetype: t.Mimetype,
			Width:    t.Width,
			Height:   t.Height,
			Duration: t.Duration,
			URL:      absoluteURL(t.URL),
		}
		if t.Size != nil {
			r.Thumbnail.Size = *t.Size
		}
	}
	return r
}

// La API devuelve thumbnails protocol-relative ("//upload.wikimedia.org/...").
func absoluteURL(u string) string {
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return u
}
