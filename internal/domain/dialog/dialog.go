// Package dialog arma el "detail dialog" de una especie: registro, autor,
// panel de búsqueda, sesión de edición y notificaciones. Cada dialog tiene
// estado propio; nada se comparte entre dialogs.
package dialog

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"species-catalog/internal/adapters/notify/inbox"
	"species-catalog/internal/domain/search"
	"species-catalog/internal/domain/species"
	"species-catalog/internal/platform/task"
	"species-catalog/internal/ports/notify"
)

const DefaultAuthorTimeout = 5 * time.Second

// AuthorResolver devuelve los display names del autor; nunca falla
// (los errores se avisan por n). profiles.Resolver lo cumple.
type AuthorResolver interface {
	Resolve(ctx context.Context, authorID string, n notify.Notifier) []string
}

// Deps son los colaboradores compartidos para construir dialogs.
type Deps struct {
	Store    Store
	Schema   *species.Schema
	Authors  AuthorResolver
	Searcher search.Searcher

	SearchTimeout  time.Duration
	AuthorTimeout  time.Duration
	SearchObserver search.Observer
	Logger         *slog.Logger
}

type Dialog struct {
	ID       string
	ViewerID string
	OpenedAt time.Time

	author  *task.Task[[]string]
	search  *search.Session
	session *EditSession
	inbox   *inbox.Inbox
}

// State es lo que devuelve GET /dialogs/{id}/state.
type State struct {
	ID            string            `json:"id"`
	Species       species.Response  `json:"species"`
	Author        []string          `json:"author"`
	AuthorLoading bool              `json:"author_loading"`
	Session       SessionState      `json:"session"`
	Search        search.Snapshot   `json:"search"`
	Kingdoms      []species.Kingdom `json:"kingdoms"`
	Pending       int               `json:"pending_notifications"`
}

// New arma un dialog para rec. El lookup del autor arranca en background y
// no bloquea: State muestra "loading" hasta que termina.
func New(id string, rec species.Species, viewerID string, deps Deps) *Dialog {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("dialog_id", id, "species_id", rec.ID)

	box := inbox.New(inbox.DefaultCapacity, log)

	d := &Dialog{
		ID:       id,
		ViewerID: viewerID,
		OpenedAt: time.Now(),
		inbox:    box,
	}

	d.author = resolveAuthor(rec.AuthorID, deps, box)

	d.search = search.NewSession(deps.Searcher, box, deps.SearchTimeout)
	if deps.SearchObserver != nil {
		d.search.WithObserver(deps.SearchObserver)
	}

	d.session = NewEditSession(rec, viewerID, deps.Schema, deps.Store, box)
	d.session.OnRefresh(func(ctx context.Context) {
		d.reload(ctx, deps.Store, log)
	})

	return d
}

func resolveAuthor(authorID string, deps Deps, n notify.Notifier) *task.Task[[]string] {
	if deps.Authors == nil || strings.TrimSpace(authorID) == "" {
		return task.Done([]string{}, nil)
	}
	timeout := deps.AuthorTimeout
	if timeout <= 0 {
		timeout = DefaultAuthorTimeout
	}
	// Vive más que el request que abrió el dialog.
	return task.Go(context.Background(), func(ctx context.Context) ([]string, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return deps.Authors.Resolve(ctx, authorID, n), nil
	})
}

// reload es el "refresh" después de una mutación: vuelve a leer el registro.
func (d *Dialog) reload(ctx context.Context, store Store, log *slog.Logger) {
	snap := d.session.Snapshot()
	if snap.Closed || store == nil {
		return
	}
	rec, err := store.GetByID(ctx, snap.Record.ID)
	if err != nil {
		log.Warn("dialog refresh failed", "error", err)
		return
	}
	d.session.Sync(rec)
}

func (d *Dialog) Session() *EditSession { return d.session }

func (d *Dialog) Search() *search.Session { return d.search }

func (d *Dialog) Notifications() *inbox.Inbox { return d.inbox }

// Author no bloquea; loaded=false mientras el lookup sigue en curso.
func (d *Dialog) Author() (names []string, loaded bool) {
	v, ok, _ := d.author.Peek()
	if !ok {
		return nil, false
	}
	if v == nil {
		v = []string{}
	}
	return v, true
}

// WaitAuthor espera el lookup del autor (tests y render completo).
func (d *Dialog) WaitAuthor(ctx context.Context) []string {
	v, err := d.author.Wait(ctx)
	if err != nil || v == nil {
		return []string{}
	}
	return v
}

func (d *Dialog) State() State {
	sess := d.session.Snapshot()
	names, loaded := d.Author()
	if names == nil {
		names = []string{}
	}
	return State{
		ID:            d.ID,
		Species:       species.ToResponse(sess.Record),
		Author:        names,
		AuthorLoading: !loaded,
		Session:       sess,
		Search:        d.search.Snapshot(),
		Kingdoms:      species.Kingdoms(),
		Pending:       len(d.inbox.Pending()),
	}
}

// Close corta el trabajo en background del dialog.
func (d *Dialog) Close() {
	d.author.Cancel()
	d.search.Close()
	d.session.close()
}
