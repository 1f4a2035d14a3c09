package gotrue

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"species-catalog/internal/platform/httpclient"
	"species-catalog/internal/ports/auth"
)

var (
	ErrNotConfigured = errors.New("gotrue client not configured")
	ErrUnauthorized  = errors.New("gotrue unauthorized")
	ErrUpstream      = errors.New("gotrue upstream error")
)

// Config del cliente del servicio de auth (GoTrue / Supabase Auth).
type Config struct {
	BaseURL string
	APIKey  string

	Timeout time.Duration
}

type Client struct {
	apiKey string
	http   *httpclient.Client
}

func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	hc, err := httpclient.NewWithBaseURL(base, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	hc.UserAgent = "species-catalog"

	return &Client{
		apiKey: strings.TrimSpace(cfg.APIKey),
		http:   hc,
	}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.http != nil && c.http.BaseURL != "" && c.apiKey != ""
}

// userResponse es el subset de GET /auth/v1/user que usamos.
type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// User pide al servicio de auth el usuario dueño del access token.
func (c *Client) User(ctx context.Context, token string) (auth.Claims, error) {
	if !c.IsConfigured() {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrUnauthorized
	}

	var out userResponse
	err := c.http.DoJSON(ctx, http.MethodGet, "/auth/v1/user", map[string]string{
		"apikey":        c.apiKey,
		"Authorization": "Bearer " + token,
	}, nil, &out)

	var herr *httpclient.HTTPError
	switch {
	case errors.As(err, &herr):
		if herr.StatusCode == http.StatusUnauthorized || herr.StatusCode == http.StatusForbidden {
			return auth.Claims{}, ErrUnauthorized
		}
		return auth.Claims{}, fmt.Errorf("%w: status=%d", ErrUpstream, herr.StatusCode)
	case err != nil:
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	out.ID = strings.TrimSpace(out.ID)
	if out.ID == "" {
		return auth.Claims{}, fmt.Errorf("%w: response missing id", ErrUpstream)
	}

	return auth.Claims{
		UserID: out.ID,
		Email:  strings.TrimSpace(out.Email),
		Role:   strings.TrimSpace(out.Role),
	}, nil
}
