package dialog

import (
	"context"
	"errors"
	"sync"
	"testing"

	"species-catalog/internal/domain/species"
	"species-catalog/internal/ports/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu      sync.Mutex
	rows    map[int64]species.Species
	updates []int64
	deletes []int64
	err     error
	// gate, si no es nil, bloquea Update/Delete hasta que se cierre.
	gate    chan struct{}
	entered chan struct{}
}

func newFakeStore(rows ...species.Species) *fakeStore {
	fs := &fakeStore{rows: map[int64]species.Species{}}
	for _, r := range rows {
		fs.rows[r.ID] = r
	}
	return fs
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (species.Species, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[id]
	if !ok {
		return species.Species{}, species.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) wait() {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
}

func (f *fakeStore) Update(_ context.Context, id int64, actorID string, in species.Fields) (species.Species, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, id)
	if f.err != nil {
		return species.Species{}, f.err
	}
	cur := f.rows[id]
	if cur.AuthorID != actorID {
		return species.Species{}, species.ErrForbidden
	}
	cur.Fields = in
	f.rows[id] = cur
	return cur, nil
}

func (f *fakeStore) Delete(_ context.Context, id int64, actorID string) error {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	if f.err != nil {
		return f.err
	}
	delete(f.rows, id)
	return nil
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

func accept() Confirmer  { return ConfirmFunc(func(string) bool { return true }) }
func decline() Confirmer { return ConfirmFunc(func(string) bool { return false }) }

func wolfRecord() species.Species {
	common := "Gray wolf"
	pop := int64(250000)
	return species.Species{
		ID:       7,
		AuthorID: "author-1",
		Fields: species.Fields{
			ScientificName:  "Canis lupus",
			CommonName:      &common,
			Kingdom:         species.KingdomAnimalia,
			TotalPopulation: &pop,
		},
	}
}

func newSession(t *testing.T, viewer string) (*EditSession, *fakeStore, *recorder) {
	t.Helper()
	rec := wolfRecord()
	store := newFakeStore(rec)
	n := &recorder{}
	return NewEditSession(rec, viewer, species.NewSchema(), store, n), store, n
}

func TestEditSession_StartsViewingWithRecordValues(t *testing.T) {
	s, _, _ := newSession(t, "author-1")
	st := s.Snapshot()

	assert.Equal(t, Viewing, st.Mode)
	assert.True(t, st.CanEdit)
	assert.True(t, st.Valid)
	assert.Equal(t, "Canis lupus", st.Values[species.FieldScientificName])
	assert.Equal(t, "250000", st.Values[species.FieldTotalPopulation])
	assert.Equal(t, "", st.Values[species.FieldImage])
}

func TestEditSession_OnlyAuthorCanEdit(t *testing.T) {
	s, _, _ := newSession(t, "someone-else")
	assert.False(t, s.CanEdit())
	assert.ErrorIs(t, s.StartEdit(), ErrNotAuthor)
	assert.Equal(t, Viewing, s.Snapshot().Mode)

	anon, _, _ := newSession(t, "")
	assert.False(t, anon.CanEdit())
}

func TestEditSession_SetFieldRequiresEditing(t *testing.T) {
	s, _, _ := newSession(t, "author-1")
	assert.ErrorIs(t, s.SetField(species.FieldScientificName, "x"), ErrWrongMode)
}

func TestEditSession_ImmediateValidation(t *testing.T) {
	s, _, _ := newSession(t, "author-1")
	require.NoError(t, s.StartEdit())

	err := s.SetField(species.FieldTotalPopulation, "0")
	var fe *species.FieldError
	require.ErrorAs(t, err, &fe)
	assert.False(t, s.Valid())

	st := s.Snapshot()
	assert.Equal(t, "0", st.Values[species.FieldTotalPopulation])
	assert.Equal(t, "Number must be greater than 0", st.Errors[species.FieldTotalPopulation])

	require.NoError(t, s.SetField(species.FieldTotalPopulation, "12"))
	assert.True(t, s.Valid())
}

func TestEditSession_CancelRestoresPersistedValues(t *testing.T) {
	s, store, _ := newSession(t, "author-1")
	require.NoError(t, s.StartEdit())

	_ = s.SetField(species.FieldScientificName, "")
	assert.False(t, s.Valid())

	var prompt string
	done, err := s.Cancel(ConfirmFunc(func(p string) bool {
		prompt = p
		return true
	}))
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, "Revert all unsaved changes?", prompt)

	st := s.Snapshot()
	assert.Equal(t, Viewing, st.Mode)
	assert.Equal(t, "Canis lupus", st.Values[species.FieldScientificName])
	assert.Empty(t, st.Errors)
	assert.Empty(t, store.updates)
}

func TestEditSession_CancelDeclinedKeepsEdits(t *testing.T) {
	s, _, _ := newSession(t, "author-1")
	require.NoError(t, s.StartEdit())
	require.NoError(t, s.SetField(species.FieldScientificName, "Canis"))

	done, err := s.Cancel(decline())
	require.NoError(t, err)
	assert.False(t, done)

	st := s.Snapshot()
	assert.Equal(t, Editing, st.Mode)
	assert.Equal(t, "Canis", st.Values[species.FieldScientificName])
}

func TestEditSession_ConfirmSavesAndNotifies(t *testing.T) {
	s, store, n := newSession(t, "author-1")
	refreshed := 0
	s.OnRefresh(func(context.Context) { refreshed++ })

	require.NoError(t, s.StartEdit())
	require.NoError(t, s.SetField(species.FieldScientificName, "  Canis lupus lupus "))
	require.NoError(t, s.SetField(species.FieldCommonName, "   "))

	saved, err := s.Confirm(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int64{7}, store.updates)
	assert.Equal(t, "Canis lupus lupus", saved.ScientificName)
	assert.Nil(t, saved.CommonName)
	assert.Equal(t, 1, refreshed)

	st := s.Snapshot()
	assert.Equal(t, Viewing, st.Mode)
	assert.Equal(t, "Canis lupus lupus", st.Values[species.FieldScientificName])
	assert.Equal(t, "", st.Values[species.FieldCommonName])
	assert.Equal(t, saved, st.Record)

	got := n.all()
	require.Len(t, got, 1)
	assert.Equal(t, "Changes saved!", got[0].Title)
	assert.Contains(t, got[0].Description, "Canis lupus lupus")
}

func TestEditSession_ConfirmWithInvalidFieldsDoesNotCallStore(t *testing.T) {
	s, store, _ := newSession(t, "author-1")
	require.NoError(t, s.StartEdit())
	_ = s.SetField(species.FieldImage, "not a url")

	_, err := s.Confirm(context.Background())
	var errs species.FieldErrors
	require.ErrorAs(t, err, &errs)
	assert.Contains(t, errs, species.FieldImage)
	assert.Empty(t, store.updates)
	assert.Equal(t, Editing, s.Snapshot().Mode)
}

func TestEditSession_ConfirmFailureStaysEditing(t *testing.T) {
	s, store, n := newSession(t, "author-1")
	store.err = errors.New("new row violates row-level security policy")
	require.NoError(t, s.StartEdit())
	require.NoError(t, s.SetField(species.FieldScientificName, "Canis"))

	_, err := s.Confirm(context.Background())
	require.Error(t, err)

	st := s.Snapshot()
	assert.Equal(t, Editing, st.Mode)
	assert.Equal(t, "Canis", st.Values[species.FieldScientificName])

	got := n.all()
	require.Len(t, got, 1)
	assert.Equal(t, notify.SeverityDestructive, got[0].Severity)
	assert.Equal(t, "new row violates row-level security policy", got[0].Description)
}

func TestEditSession_DeleteConfirmed(t *testing.T) {
	s, store, n := newSession(t, "author-1")

	var prompt string
	deleted, err := s.Delete(context.Background(), ConfirmFunc(func(p string) bool {
		prompt = p
		return true
	}))
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, "Delete the Canis lupus species?", prompt)
	assert.Equal(t, []int64{7}, store.deletes)
	assert.True(t, s.Snapshot().Closed)

	got := n.all()
	require.Len(t, got, 1)
	assert.Equal(t, "Species deleted.", got[0].Title)
	assert.Equal(t, "Deleted the Canis lupus species.", got[0].Description)

	assert.ErrorIs(t, s.StartEdit(), ErrClosed)
}

func TestEditSession_DeleteDeclinedMakesNoCall(t *testing.T) {
	s, store, n := newSession(t, "author-1")
	before := s.Snapshot()

	deleted, err := s.Delete(context.Background(), decline())
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Empty(t, store.deletes)
	assert.Empty(t, n.all())
	assert.Equal(t, before, s.Snapshot())
}

func TestEditSession_DeleteFailureKeepsRecord(t *testing.T) {
	s, store, n := newSession(t, "author-1")
	store.err = errors.New("boom")

	deleted, err := s.Delete(context.Background(), accept())
	require.Error(t, err)
	assert.False(t, deleted)
	assert.False(t, s.Snapshot().Closed)
	require.Len(t, n.all(), 1)
	assert.Equal(t, notify.SeverityDestructive, n.all()[0].Severity)
}

func TestEditSession_DeleteOnlyFromViewing(t *testing.T) {
	s, store, _ := newSession(t, "author-1")
	require.NoError(t, s.StartEdit())

	_, err := s.Delete(context.Background(), accept())
	assert.ErrorIs(t, err, ErrWrongMode)
	assert.Empty(t, store.deletes)
}

func TestEditSession_ConfirmAndDeleteAreExclusive(t *testing.T) {
	s, store, _ := newSession(t, "author-1")
	store.gate = make(chan struct{})
	store.entered = make(chan struct{}, 1)

	require.NoError(t, s.StartEdit())
	done := make(chan error, 1)
	go func() {
		_, err := s.Confirm(context.Background())
		done <- err
	}()
	<-store.entered

	assert.True(t, s.Snapshot().Busy)
	_, err := s.Confirm(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
	_, err = s.Delete(context.Background(), accept())
	assert.ErrorIs(t, err, ErrBusy)
	_, err = s.Cancel(accept())
	assert.ErrorIs(t, err, ErrBusy)

	close(store.gate)
	require.NoError(t, <-done)
	assert.False(t, s.Snapshot().Busy)
	assert.Empty(t, store.deletes)
}

func TestEditSession_SetFieldRejectedWhileConfirming(t *testing.T) {
	s, store, _ := newSession(t, "author-1")
	store.gate = make(chan struct{})
	store.entered = make(chan struct{}, 1)

	require.NoError(t, s.StartEdit())
	before := s.Snapshot().Values[species.FieldCommonName]

	done := make(chan error, 1)
	go func() {
		_, err := s.Confirm(context.Background())
		done <- err
	}()
	<-store.entered

	err := s.SetField(species.FieldCommonName, "typed during save")
	assert.ErrorIs(t, err, ErrBusy)

	close(store.gate)
	require.NoError(t, <-done)

	snap := s.Snapshot()
	assert.Equal(t, Viewing, snap.Mode)
	assert.Equal(t, before, snap.Values[species.FieldCommonName])
}

func TestEditSession_SyncDoesNotClobberEdits(t *testing.T) {
	s, _, _ := newSession(t, "author-1")
	require.NoError(t, s.StartEdit())
	require.NoError(t, s.SetField(species.FieldScientificName, "typing"))

	fresh := wolfRecord()
	fresh.ScientificName = "Canis lupus arctos"
	s.Sync(fresh)

	assert.Equal(t, "typing", s.Snapshot().Values[species.FieldScientificName])

	_, err := s.Cancel(accept())
	require.NoError(t, err)
	assert.Equal(t, "Canis lupus arctos", s.Snapshot().Values[species.FieldScientificName])
}

func TestEditMode_Text(t *testing.T) {
	b, err := Editing.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "editing", string(b))
	assert.True(t, Viewing.ReadOnly())
	assert.False(t, Editing.ReadOnly())
}
