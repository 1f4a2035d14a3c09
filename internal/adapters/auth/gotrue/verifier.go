package gotrue

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"species-catalog/internal/ports/auth"

	"github.com/patrickmn/go-cache"
)

var ErrTokenEmpty = errors.New("token is empty")

// DefaultCacheTTL evita pegarle al servicio de auth en cada request del dialog.
const DefaultCacheTTL = time.Minute

// Verifier implementa auth.AuthVerifier contra GoTrue.
type Verifier struct {
	client *Client
	cache  *cache.Cache
}

// NewVerifier cachea los tokens válidos durante ttl (<= 0 usa DefaultCacheTTL).
func NewVerifier(client *Client, ttl time.Duration) *Verifier {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Verifier{
		client: client,
		cache:  cache.New(ttl, 2*ttl),
	}
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if v == nil || v.client == nil {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	key := tokenKey(token)
	if c, ok := v.cache.Get(key); ok {
		return c.(auth.Claims), nil
	}

	claims, err := v.client.User(ctx, token)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("gotrue verify failed: %w", err)
	}

	// Solo se cachean éxitos.
	v.cache.SetDefault(key, claims)
	return claims, nil
}

// tokenKey no guarda el token en claro en memoria.
func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
