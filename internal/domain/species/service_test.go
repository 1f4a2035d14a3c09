package species

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRepo es un fake en memoria (los repos reales viven en adapters/storage).
type testRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]Species
}

func newTestRepo() *testRepo {
	return &testRepo{rows: map[int64]Species{}}
}

func (r *testRepo) Create(_ context.Context, s Species) (Species, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	s.ID = r.nextID
	r.rows[s.ID] = s
	return s, nil
}

func (r *testRepo) GetByID(_ context.Context, id int64) (Species, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[id]
	if !ok {
		return Species{}, ErrNotFound
	}
	return s, nil
}

func (r *testRepo) List(_ context.Context, f ListFilter) ([]Species, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Species
	for _, s := range r.rows {
		if f.Kingdom != "" && s.Kingdom != f.Kingdom {
			continue
		}
		if f.Query != "" && !strings.Contains(strings.ToLower(s.ScientificName), strings.ToLower(f.Query)) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *testRepo) Update(_ context.Context, s Species) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[s.ID]; !ok {
		return ErrNotFound
	}
	r.rows[s.ID] = s
	return nil
}

func (r *testRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

type countingObserver struct {
	ops []string
}

func (o *countingObserver) ObserveMutation(op string, err error) {
	if err != nil {
		op += ":error"
	}
	o.ops = append(o.ops, op)
}

func wolf() Fields {
	return Fields{ScientificName: "Canis lupus", Kingdom: KingdomAnimalia}
}

func TestService_CreateAndGet(t *testing.T) {
	svc := NewService(newTestRepo(), nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, "user-1", wolf())
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "user-1", created.AuthorID)

	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestService_CreateRejectsInvalid(t *testing.T) {
	svc := NewService(newTestRepo(), nil)

	_, err := svc.Create(context.Background(), "", wolf())
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(context.Background(), "user-1", Fields{ScientificName: "x", Kingdom: "Nope"})
	var errs FieldErrors
	assert.ErrorAs(t, err, &errs)
}

func TestService_GetByIDNonPositive(t *testing.T) {
	svc := NewService(newTestRepo(), nil)
	_, err := svc.GetByID(context.Background(), 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_UpdateOnlyAuthor(t *testing.T) {
	obs := &countingObserver{}
	svc := NewService(newTestRepo(), nil).WithObserver(obs)
	ctx := context.Background()

	created, err := svc.Create(ctx, "author", wolf())
	require.NoError(t, err)

	changed := wolf()
	changed.ScientificName = "Canis lupus lupus"

	_, err = svc.Update(ctx, created.ID, "someone-else", changed)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Update(ctx, created.ID, "", changed)
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Update(ctx, created.ID, "author", changed)
	require.NoError(t, err)
	assert.Equal(t, "Canis lupus lupus", updated.ScientificName)
	assert.Equal(t, "author", updated.AuthorID)

	assert.Equal(t, []string{"create", "update"}, obs.ops)
}

func TestService_DeleteOnlyAuthor(t *testing.T) {
	svc := NewService(newTestRepo(), nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, "author", wolf())
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, created.ID, "intruder"), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, created.ID, "author"))

	_, err = svc.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, created.ID, "author"), ErrNotFound)
}

func TestService_ListValidatesAndClamps(t *testing.T) {
	svc := NewService(newTestRepo(), nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, "author", wolf())
		require.NoError(t, err)
	}

	_, err := svc.List(ctx, ListFilter{Kingdom: "Chromista"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	items, err := svc.List(ctx, ListFilter{Limit: 10_000})
	require.NoError(t, err)
	assert.Len(t, items, 3)

	items, err = svc.List(ctx, ListFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestService_ObserverSeesErrors(t *testing.T) {
	obs := &countingObserver{}
	repo := &failingRepo{testRepo: newTestRepo()}
	svc := NewService(repo, nil).WithObserver(obs)

	_, err := svc.Create(context.Background(), "author", wolf())
	require.Error(t, err)
	assert.Equal(t, []string{"create:error"}, obs.ops)
}

type failingRepo struct {
	*testRepo
}

func (r *failingRepo) Create(context.Context, Species) (Species, error) {
	return Species{}, errors.New("db down")
}
