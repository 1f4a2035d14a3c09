package profiles

import (
	"context"
	"strings"
	"time"

	"species-catalog/internal/platform/logger"
	"species-catalog/internal/ports/notify"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultResolverTTL = 5 * time.Minute
	// lookupTimeout acota la consulta compartida, que no depende de ningún caller.
	lookupTimeout = 10 * time.Second
)

// Resolver busca el display name del autor de un registro.
// Varios dialogs del mismo autor comparten una sola consulta (singleflight)
// y los resultados exitosos quedan en cache.
type Resolver struct {
	repo  Repository
	cache *cache.Cache
	group singleflight.Group
}

func NewResolver(repo Repository, ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = DefaultResolverTTL
	}
	return &Resolver{
		repo:  repo,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Resolve nunca falla: ante un error de lookup avisa por n y devuelve vacío.
func (r *Resolver) Resolve(ctx context.Context, authorID string, n notify.Notifier) []string {
	if n == nil {
		n = notify.Discard
	}
	authorID = strings.TrimSpace(authorID)
	if authorID == "" {
		return []string{}
	}

	if v, ok := r.cache.Get(authorID); ok {
		return clone(v.([]string))
	}

	ch := r.group.DoChan(authorID, func() (any, error) {
		// Cerrar un dialog no debe cortar el lookup de los demás que esperan.
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()

		names, err := r.repo.FindDisplayNames(lctx, authorID)
		if err != nil {
			return nil, err
		}
		if names == nil {
			names = []string{}
		}
		r.cache.SetDefault(authorID, names)
		return names, nil
	})

	select {
	case <-ctx.Done():
		// El caller se fue; no hay a quién avisar.
		return []string{}
	case res := <-ch:
		if res.Err != nil {
			logger.FromContext(ctx).Warn("author lookup failed", "author_id", authorID, "error", res.Err)
			n.Notify(notify.Notification{
				Title:       "Something went wrong.",
				Description: res.Err.Error(),
				Severity:    notify.SeverityDestructive,
			})
			return []string{}
		}
		return clone(res.Val.([]string))
	}
}

func (r *Resolver) Invalidate(authorID string) {
	r.cache.Delete(strings.TrimSpace(authorID))
}

func clone(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
