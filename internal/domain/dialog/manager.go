package dialog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const DefaultTTL = 30 * time.Minute

var ErrDialogNotFound = errors.New("dialog not found")

// Gauge cuenta dialogs abiertos (métricas).
type Gauge interface {
	DialogOpened()
	DialogClosed()
}

// Manager guarda los dialogs abiertos. Un dialog expira si nadie lo toca
// durante ttl; al expirar o cerrarse se corta su trabajo en background.
type Manager struct {
	deps  Deps
	items *cache.Cache
	gauge Gauge
}

func NewManager(deps Deps, ttl time.Duration, gauge Gauge) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m := &Manager{
		deps:  deps,
		items: cache.New(ttl, ttl/2),
		gauge: gauge,
	}
	m.items.OnEvicted(func(_ string, v any) {
		if d, ok := v.(*Dialog); ok {
			d.Close()
		}
		if m.gauge != nil {
			m.gauge.DialogClosed()
		}
	})
	return m
}

// Open carga el registro y crea un dialog nuevo para viewerID.
func (m *Manager) Open(ctx context.Context, speciesID int64, viewerID string) (*Dialog, error) {
	viewerID = strings.TrimSpace(viewerID)
	rec, err := m.deps.Store.GetByID(ctx, speciesID)
	if err != nil {
		return nil, err
	}

	d := New(uuid.NewString(), rec, viewerID, m.deps)
	m.items.SetDefault(d.ID, d)
	if m.gauge != nil {
		m.gauge.DialogOpened()
	}
	return d, nil
}

// Get devuelve el dialog id si pertenece a viewerID y renueva su TTL.
// Un dialog de otro usuario cuenta como inexistente.
func (m *Manager) Get(id, viewerID string) (*Dialog, error) {
	v, ok := m.items.Get(id)
	if !ok {
		return nil, ErrDialogNotFound
	}
	d := v.(*Dialog)
	if d.ViewerID != strings.TrimSpace(viewerID) {
		return nil, ErrDialogNotFound
	}
	m.items.SetDefault(id, d)
	return d, nil
}

func (m *Manager) Close(id, viewerID string) error {
	if _, err := m.Get(id, viewerID); err != nil {
		return err
	}
	m.items.Delete(id)
	return nil
}

func (m *Manager) Len() int {
	return m.items.ItemCount()
}
