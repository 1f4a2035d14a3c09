package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"species-catalog/internal/ports/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type call struct {
	q     string
	limit int
}

// fakeSearcher responde según el query; si hay un canal en block[q] espera a
// que se cierre (o a que se cancele el ctx).
type fakeSearcher struct {
	mu      sync.Mutex
	calls   []call
	results map[string][]Result
	errs    map[string]error
	block   map[string]chan struct{}
	started chan string
}

func newFakeSearcher() *fakeSearcher {
	return &fakeSearcher{
		results: map[string][]Result{},
		errs:    map[string]error{},
		block:   map[string]chan struct{}{},
	}
}

func (f *fakeSearcher) Search(ctx context.Context, q string, limit int) ([]Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{q: q, limit: limit})
	ch := f.block[q]
	started := f.started
	f.mu.Unlock()

	if started != nil {
		started <- q
	}
	if ch != nil {
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.errs[q]; err != nil {
		return nil, err
	}
	return f.results[q], nil
}

type recorder struct {
	mu  sync.Mutex
	got []notify.Notification
}

func (r *recorder) Notify(n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
}

func (r *recorder) all() []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Notification(nil), r.got...)
}

type outcomes struct {
	mu  sync.Mutex
	got []string
}

func (o *outcomes) ObserveSearch(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.got = append(o.got, outcome)
}

func wolfResult() Result {
	return Result{
		ID:          1,
		Title:       "Wolf",
		Description: "Species of canine",
		Thumbnail:   &Thumbnail{URL: "https://upload.wikimedia.org/wolf.jpg"},
	}
}

func TestSession_StartsNotStarted(t *testing.T) {
	s := NewSession(newFakeSearcher(), nil, 0)
	snap := s.Snapshot()
	assert.Equal(t, StatusNotStarted, snap.Status)
	assert.NotNil(t, snap.Results)
	assert.Empty(t, snap.Results)
}

func TestSession_EmptyQueryStillSearchesAndNotifiesOnce(t *testing.T) {
	fs := newFakeSearcher()
	fs.results[""] = []Result{}
	rec := &recorder{}
	s := NewSession(fs, rec, time.Second)

	snap := s.Submit(context.Background(), "")
	assert.Equal(t, StatusResolved, snap.Status)
	assert.Empty(t, snap.Results)

	require.Len(t, fs.calls, 1)
	assert.Equal(t, call{q: "", limit: 3}, fs.calls[0])

	// Leer el estado otra vez no vuelve a notificar.
	_ = s.Snapshot()
	_ = s.Snapshot()

	got := rec.all()
	require.Len(t, got, 1)
	assert.Equal(t, "No results found.", got[0].Title)
}

func TestSession_NoResultsDescriptionNamesQuery(t *testing.T) {
	fs := newFakeSearcher()
	rec := &recorder{}
	s := NewSession(fs, rec, time.Second)

	s.Submit(context.Background(), "  zzzz  ")
	got := rec.all()
	require.Len(t, got, 1)
	assert.Equal(t, "No results for zzzz.", got[0].Description)

	// Otra transición a Resolved vacío => otro aviso.
	s.Submit(context.Background(), "zzzz")
	assert.Len(t, rec.all(), 2)
}

func TestSession_ResolvedReplacesResults(t *testing.T) {
	fs := newFakeSearcher()
	fs.results["wolf"] = []Result{wolfResult()}
	rec := &recorder{}
	obs := &outcomes{}
	s := NewSession(fs, rec, time.Second).WithObserver(obs)

	snap := s.Submit(context.Background(), "wolf")
	assert.Equal(t, StatusResolved, snap.Status)
	require.Len(t, snap.Results, 1)
	assert.Equal(t, "Wolf", snap.Results[0].Title)
	assert.Empty(t, rec.all())
	assert.Equal(t, []string{"resolved"}, obs.got)

	sel, err := s.Select(0)
	require.NoError(t, err)
	assert.Equal(t, Selection{Description: "Species of canine", ThumbnailURL: "https://upload.wikimedia.org/wolf.jpg"}, sel)

	_, err = s.Select(1)
	assert.ErrorIs(t, err, ErrNoSelection)
}

func TestSession_ErrorClearsResults(t *testing.T) {
	fs := newFakeSearcher()
	fs.results["wolf"] = []Result{wolfResult()}
	fs.errs["bad"] = ErrMalformed
	rec := &recorder{}
	s := NewSession(fs, rec, time.Second)

	s.Submit(context.Background(), "wolf")
	snap := s.Submit(context.Background(), "bad")

	assert.Equal(t, StatusError, snap.Status)
	assert.Empty(t, snap.Results)
	assert.Equal(t, ErrMalformed.Error(), snap.Error)

	_, err := s.Select(0)
	assert.ErrorIs(t, err, ErrNoSelection)

	got := rec.all()
	require.Len(t, got, 1)
	assert.Equal(t, notify.SeverityDestructive, got[0].Severity)

	// Error -> Loading -> Resolved de nuevo.
	snap = s.Submit(context.Background(), "wolf")
	assert.Equal(t, StatusResolved, snap.Status)
	assert.Empty(t, snap.Error)
}

func TestSession_TimeoutIsError(t *testing.T) {
	fs := newFakeSearcher()
	fs.block["slow"] = make(chan struct{})
	s := NewSession(fs, nil, 20*time.Millisecond)

	snap := s.Submit(context.Background(), "slow")
	assert.Equal(t, StatusError, snap.Status)
	assert.Equal(t, ErrTimeout.Error(), snap.Error)
}

func TestSession_StaleResponseIsDiscarded(t *testing.T) {
	fs := newFakeSearcher()
	fs.started = make(chan string, 2)
	fs.block["first"] = make(chan struct{})
	fs.results["second"] = []Result{wolfResult()}
	obs := &outcomes{}
	s := NewSession(fs, nil, time.Second).WithObserver(obs)

	first := s.Start(context.Background(), "first")
	assert.Equal(t, "first", <-fs.started)
	assert.Equal(t, StatusLoading, s.Snapshot().Status)

	second := s.Submit(context.Background(), "second")
	assert.Equal(t, StatusResolved, second.Status)

	// La primera se cancela al llegar la segunda y su respuesta no pisa el estado.
	stale, err := first.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second", stale.Query)
	assert.Equal(t, uint64(2), stale.Generation)

	snap := s.Snapshot()
	assert.Equal(t, StatusResolved, snap.Status)
	assert.Equal(t, "second", snap.Query)
	assert.Equal(t, uint64(2), snap.Generation)

	obs.mu.Lock()
	assert.ElementsMatch(t, []string{"resolved", "stale"}, obs.got)
	obs.mu.Unlock()
}

func TestSession_CloseCancelsInFlight(t *testing.T) {
	fs := newFakeSearcher()
	fs.started = make(chan string, 1)
	fs.block["q"] = make(chan struct{})
	s := NewSession(fs, nil, time.Minute)

	tk := s.Start(context.Background(), "q")
	<-fs.started
	s.Close()

	snap, err := tk.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusError, snap.Status)
	assert.Equal(t, context.Canceled.Error(), snap.Error)
}
