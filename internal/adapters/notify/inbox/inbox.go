// Package inbox guarda las notificaciones de un dialog hasta que el cliente las lee.
package inbox

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"species-catalog/internal/ports/notify"
)

const DefaultCapacity = 50

type Inbox struct {
	mu    sync.Mutex
	items []notify.Notification
	cap   int
	now   func() time.Time
	log   *slog.Logger
}

// New crea un inbox acotado; al llenarse descarta las más antiguas.
func New(capacity int, log *slog.Logger) *Inbox {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if log == nil {
		log = slog.Default()
	}
	return &Inbox{
		cap: capacity,
		now: time.Now,
		log: log,
	}
}

func (b *Inbox) Notify(n notify.Notification) {
	if n.Severity == "" {
		n.Severity = notify.SeverityDefault
	}
	if n.At.IsZero() {
		n.At = b.now()
	}

	b.mu.Lock()
	if len(b.items) >= b.cap {
		b.items = b.items[1:]
	}
	b.items = append(b.items, n)
	b.mu.Unlock()

	lvl := slog.LevelInfo
	if n.Severity == notify.SeverityDestructive {
		lvl = slog.LevelWarn
	}
	b.log.Log(context.Background(), lvl, "notification", "title", n.Title, "description", n.Description)
}

// Drain devuelve y vacía las notificaciones pendientes.
func (b *Inbox) Drain() []notify.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := b.items
	b.items = nil
	if out == nil {
		return []notify.Notification{}
	}
	return out
}

// Pending devuelve una copia sin vaciar.
func (b *Inbox) Pending() []notify.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]notify.Notification, len(b.items))
	copy(out, b.items)
	return out
}
