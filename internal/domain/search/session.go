package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"species-catalog/internal/platform/task"
	"species-catalog/internal/ports/notify"
)

const DefaultTimeout = 8 * time.Second

// Observer recibe el resultado de cada búsqueda (métricas).
type Observer interface {
	ObserveSearch(outcome string)
}

// Snapshot es el estado visible del panel de búsqueda.
type Snapshot struct {
	Status     Status   `json:"status"`
	Query      string   `json:"query"`
	Results    []Result `json:"results"`
	Error      string   `json:"error,omitempty"`
	Generation uint64   `json:"generation"`
}

// Session es la máquina de estados NotStarted -> Loading -> Resolved | Error
// de un panel de búsqueda. Cada Submit lleva un número de generación;
// las respuestas de generaciones viejas se descartan.
type Session struct {
	searcher Searcher
	notifier notify.Notifier
	timeout  time.Duration
	observer Observer

	mu      sync.Mutex
	gen     uint64
	status  Status
	query   string
	results []Result
	errMsg  string
	cancel  context.CancelFunc
}

func NewSession(searcher Searcher, n notify.Notifier, timeout time.Duration) *Session {
	if n == nil {
		n = notify.Discard
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Session{
		searcher: searcher,
		notifier: n,
		timeout:  timeout,
		status:   StatusNotStarted,
		results:  []Result{},
	}
}

func (s *Session) WithObserver(o Observer) *Session {
	s.observer = o
	return s
}

// Start pasa a Loading y lanza la consulta. Si había otra en curso se cancela
// y su respuesta queda descartada.
func (s *Session) Start(ctx context.Context, q string) *task.Task[Snapshot] {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	if s.cancel != nil {
		s.cancel()
	}
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	s.cancel = cancel
	s.status = StatusLoading
	s.query = q
	s.errMsg = ""
	s.mu.Unlock()

	return task.Go(cctx, func(ctx context.Context) (Snapshot, error) {
		defer cancel()
		results, err := s.searcher.Search(ctx, q, ResultLimit)
		if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = ErrTimeout
		}
		return s.complete(gen, q, results, err), nil
	})
}

// Submit es Start + Wait.
func (s *Session) Submit(ctx context.Context, q string) Snapshot {
	snap, err := s.Start(ctx, q).Wait(ctx)
	if err != nil {
		// El caller se fue antes de la respuesta; la tarea sigue y resuelve sola.
		return s.Snapshot()
	}
	return snap
}

func (s *Session) complete(gen uint64, q string, results []Result, err error) Snapshot {
	s.mu.Lock()
	if gen != s.gen {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.observe("stale")
		return snap
	}

	var n *notify.Notification
	outcome := "resolved"
	if err != nil {
		s.status = StatusError
		s.results = []Result{}
		s.errMsg = err.Error()
		outcome = "error"
		n = &notify.Notification{
			Title:       "Something went wrong.",
			Description: err.Error(),
			Severity:    notify.SeverityDestructive,
		}
	} else {
		if results == nil {
			results = []Result{}
		}
		s.status = StatusResolved
		s.results = results
		// Un aviso por cada transición a Resolved vacío, no por cada lectura.
		if len(results) == 0 {
			outcome = "empty"
			n = &notify.Notification{
				Title:       "No results found.",
				Description: noResultsFor(q),
				Severity:    notify.SeverityDestructive,
			}
		}
	}
	s.cancel = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if n != nil {
		s.notifier.Notify(*n)
	}
	s.observe(outcome)
	return snap
}

// Select devuelve (description, thumbnail url) del resultado i.
// No toca el registro; el caller decide qué hacer con eso.
func (s *Session) Select(i int) (Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusResolved || i < 0 || i >= len(s.results) {
		return Selection{}, ErrNoSelection
	}
	return s.results[i].Selection(), nil
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Close cancela la consulta en curso (si hay).
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) snapshotLocked() Snapshot {
	out := make([]Result, len(s.results))
	copy(out, s.results)
	return Snapshot{
		Status:     s.status,
		Query:      s.query,
		Results:    out,
		Error:      s.errMsg,
		Generation: s.gen,
	}
}

func (s *Session) observe(outcome string) {
	if s.observer != nil {
		s.observer.ObserveSearch(outcome)
	}
}

func noResultsFor(q string) string {
	q = strings.TrimSpace(q)
	if q == "" {
		return "No results found."
	}
	return "No results for " + q + "."
}
