package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"species-catalog/internal/adapters/storage/sqlstore"
	"species-catalog/internal/domain/search"
	"species-catalog/internal/platform/metrics"
	"species-catalog/internal/router"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSearcher struct {
	results []search.Result
}

func (s stubSearcher) Search(_ context.Context, _ string, _ int) ([]search.Result, error) {
	return s.results, nil
}

func newServer(t *testing.T, opts router.Options) *httptest.Server {
	t.Helper()
	if opts.Searcher == nil {
		opts.Searcher = stubSearcher{results: []search.Result{{
			ID:          1,
			Title:       "Gray wolf",
			Description: "Species of canine",
			Thumbnail:   &search.Thumbnail{URL: "https://upload.wikimedia.org/wolf.jpg"},
		}}}
	}
	opts.SearchTimeout = time.Second
	ts := httptest.NewServer(router.NewRouter(opts))
	t.Cleanup(ts.Close)
	return ts
}

type speciesOut struct {
	ID             int64   `json:"id"`
	ScientificName string  `json:"scientific_name"`
	CommonName     *string `json:"common_name"`
	Kingdom        string  `json:"kingdom"`
	Description    *string `json:"description"`
	Author         string  `json:"author"`
}

type notificationOut struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

type stateOut struct {
	ID      string     `json:"id"`
	Species speciesOut `json:"species"`
	Author  []string   `json:"author"`
	Session struct {
		Mode    string            `json:"mode"`
		Values  map[string]string `json:"values"`
		Errors  map[string]string `json:"errors"`
		CanEdit bool              `json:"can_edit"`
		Valid   bool              `json:"valid"`
		Closed  bool              `json:"closed"`
	} `json:"session"`
	Search struct {
		Status  string `json:"status"`
		Results []struct {
			Title string `json:"title"`
		} `json:"results"`
	} `json:"search"`
}

type actionOut struct {
	State         stateOut          `json:"state"`
	Notifications []notificationOut `json:"notifications"`
	Prompt        string            `json:"prompt"`
	Confirmed     *bool             `json:"confirmed"`
	Error         string            `json:"error"`
}

func TestHTTP_EndToEnd_DetailDialog(t *testing.T) {
	ts := newServer(t, router.Options{})

	authorID := "author-1"
	viewerID := "viewer-1"

	// 1) El autor define su display name y crea la especie
	{
		st, body := doReq(t, ts.URL, "PUT", "/me/profile", authorID, map[string]any{"display_name": "Ana"})
		require.Equal(t, http.StatusOK, st, string(body))
	}
	id := createSpecies(t, ts.URL, authorID, map[string]any{
		"scientific_name":  "  Canis lupus ",
		"common_name":      "Gray wolf",
		"kingdom":          "Animalia",
		"endangered":       false,
		"total_population": 250000,
		"description":      "   ",
	})

	// 2) Un tercero abre el dialog: solo lectura, sin controles de edición
	{
		dialogID, st := openDialog(t, ts.URL, viewerID, id)
		assert.False(t, st.Session.CanEdit)
		assert.Equal(t, "viewing", st.Session.Mode)

		code, body := doReq(t, ts.URL, "POST", "/dialogs/"+dialogID+"/edit", viewerID, nil)
		assert.Equal(t, http.StatusForbidden, code, string(body))

		code, body = doReq(t, ts.URL, "GET", "/dialogs/"+dialogID, viewerID, nil)
		require.Equal(t, http.StatusOK, code)
		html := string(body)
		assert.Contains(t, html, "Canis lupus")
		assert.NotContains(t, html, "Edit Species")

		// El dialog es del viewer que lo abrió
		code, _ = doReq(t, ts.URL, "GET", "/dialogs/"+dialogID+"/state", authorID, nil)
		assert.Equal(t, http.StatusNotFound, code)
	}

	// 3) El autor edita, ve errores inline y guarda
	dialogID, st := openDialog(t, ts.URL, authorID, id)
	assert.True(t, st.Session.CanEdit)
	assert.Equal(t, "Canis lupus", st.Species.ScientificName)
	assert.Nil(t, st.Species.Description)
	{
		st := waitAuthor(t, ts.URL, authorID, dialogID)
		assert.Equal(t, []string{"Ana"}, st.Author)
	}

	{
		out := action(t, ts.URL, "POST", "/dialogs/"+dialogID+"/edit", authorID, nil, http.StatusOK)
		assert.Equal(t, "editing", out.State.Session.Mode)

		out = action(t, ts.URL, "PATCH", "/dialogs/"+dialogID+"/fields", authorID, map[string]string{
			"total_population": "-3",
		}, http.StatusOK)
		assert.False(t, out.State.Session.Valid)
		assert.Equal(t, "Number must be greater than 0", out.State.Session.Errors["total_population"])

		action(t, ts.URL, "POST", "/dialogs/"+dialogID+"/confirm", authorID, nil, http.StatusUnprocessableEntity)

		out = action(t, ts.URL, "PATCH", "/dialogs/"+dialogID+"/fields", authorID, map[string]string{
			"total_population": "300000",
			"common_name":      "Wolf",
		}, http.StatusOK)
		assert.True(t, out.State.Session.Valid)
	}

	// 4) Autocompletar desde la búsqueda
	{
		out := action(t, ts.URL, "POST", "/dialogs/"+dialogID+"/search", authorID, map[string]string{"q": "wolf"}, http.StatusOK)
		assert.Equal(t, "resolved", out.State.Search.Status)
		require.Len(t, out.State.Search.Results, 1)

		code, body := doReq(t, ts.URL, "POST", "/dialogs/"+dialogID+"/search/select", authorID, map[string]any{"index": 0, "apply": true})
		require.Equal(t, http.StatusOK, code, string(body))

		var sel struct {
			Selection struct {
				Description  string `json:"description"`
				ThumbnailURL string `json:"thumbnail_url"`
			} `json:"selection"`
		}
		require.NoError(t, json.Unmarshal(body, &sel))
		assert.Equal(t, "Species of canine", sel.Selection.Description)
		assert.Equal(t, "https://upload.wikimedia.org/wolf.jpg", sel.Selection.ThumbnailURL)
	}

	{
		out := action(t, ts.URL, "POST", "/dialogs/"+dialogID+"/confirm", authorID, nil, http.StatusOK)
		assert.Equal(t, "viewing", out.State.Session.Mode)
		require.NotEmpty(t, out.Notifications)
		last := out.Notifications[len(out.Notifications)-1]
		assert.Equal(t, "Changes saved!", last.Title)
		assert.Equal(t, "Saved your changes to Canis lupus.", last.Description)
	}

	{
		code, body := doReq(t, ts.URL, "GET", "/species/"+strconv.FormatInt(id, 10), viewerID, nil)
		require.Equal(t, http.StatusOK, code)
		var s speciesOut
		require.NoError(t, json.Unmarshal(body, &s))
		require.NotNil(t, s.CommonName)
		assert.Equal(t, "Wolf", *s.CommonName)
		require.NotNil(t, s.Description)
		assert.Equal(t, "Species of canine", *s.Description)
	}

	// 5) Borrar requiere confirmación
	{
		out := action(t, ts.URL, "POST", "/dialogs/"+dialogID+"/delete", authorID, nil, http.StatusOK)
		assert.Equal(t, "Delete the Canis lupus species?", out.Prompt)
		require.NotNil(t, out.Confirmed)
		assert.False(t, *out.Confirmed)

		out = action(t, ts.URL, "POST", "/dialogs/"+dialogID+"/delete?confirm=true", authorID, nil, http.StatusOK)
		assert.True(t, out.State.Session.Closed)
		require.NotEmpty(t, out.Notifications)
		assert.Equal(t, "Species deleted.", out.Notifications[len(out.Notifications)-1].Title)

		code, _ := doReq(t, ts.URL, "GET", "/dialogs/"+dialogID+"/state", authorID, nil)
		assert.Equal(t, http.StatusNotFound, code)

		code, _ = doReq(t, ts.URL, "GET", "/species/"+strconv.FormatInt(id, 10), authorID, nil)
		assert.Equal(t, http.StatusNotFound, code)
	}
}

func TestHTTP_SpeciesAPI_AuthorOnly(t *testing.T) {
	ts := newServer(t, router.Options{})

	code, _ := doReq(t, ts.URL, "GET", "/species", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	id := createSpecies(t, ts.URL, "a", map[string]any{
		"scientific_name": "Quercus robur",
		"kingdom":         "Plantae",
	})

	code, _ = doReq(t, ts.URL, "PUT", "/species/"+strconv.FormatInt(id, 10), "b", map[string]any{
		"scientific_name": "Quercus",
		"kingdom":         "Plantae",
	})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = doReq(t, ts.URL, "DELETE", "/species/"+strconv.FormatInt(id, 10), "b", nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, body := doReq(t, ts.URL, "POST", "/species", "a", map[string]any{
		"scientific_name": " ",
		"kingdom":         "Chromista",
		"image":           "not-a-url",
	})
	require.Equal(t, http.StatusBadRequest, code)
	var verr struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(body, &verr))
	assert.Equal(t, "Scientific name is required", verr.Fields["scientific_name"])
	assert.Equal(t, "Invalid kingdom", verr.Fields["kingdom"])
	assert.Equal(t, "Invalid url", verr.Fields["image"])

	code, body = doReq(t, ts.URL, "GET", "/species?kingdom=Plantae&q=ROBUR", "b", nil)
	require.Equal(t, http.StatusOK, code)
	var list []speciesOut
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "a", list[0].Author)

	code, _ = doReq(t, ts.URL, "DELETE", "/species/"+strconv.FormatInt(id, 10), "a", nil)
	assert.Equal(t, http.StatusNoContent, code)
}

func TestHTTP_SearchLookup(t *testing.T) {
	ts := newServer(t, router.Options{})

	code, body := doReq(t, ts.URL, "GET", "/search?q=wolf", "u", nil)
	require.Equal(t, http.StatusOK, code, string(body))
	assert.Contains(t, string(body), "Gray wolf")
	assert.Contains(t, string(body), "https://upload.wikimedia.org/wolf.jpg")
}

func TestHTTP_SQLiteAndMetrics(t *testing.T) {
	db, err := sqlstore.Open(sqlstore.DialectSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlstore.Migrate(context.Background(), db))

	ts := newServer(t, router.Options{DB: db, Metrics: metrics.New()})

	id := createSpecies(t, ts.URL, "a", map[string]any{
		"scientific_name": "Amanita muscaria",
		"kingdom":         "Fungi",
	})
	code, _ := doReq(t, ts.URL, "GET", "/species/"+strconv.FormatInt(id, 10), "a", nil)
	assert.Equal(t, http.StatusOK, code)

	code, body := doReq(t, ts.URL, "GET", "/metrics", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), "species_catalog_")

	code, body = doReq(t, ts.URL, "GET", "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", string(body))
}

func createSpecies(t *testing.T, baseURL, userID string, payload map[string]any) int64 {
	t.Helper()
	st, body := doReq(t, baseURL, "POST", "/species", userID, payload)
	require.Equal(t, http.StatusCreated, st, "create species body=%s", string(body))

	var out speciesOut
	require.NoError(t, json.Unmarshal(body, &out))
	require.Positive(t, out.ID)
	return out.ID
}

func openDialog(t *testing.T, baseURL, userID string, speciesID int64) (string, stateOut) {
	t.Helper()
	st, body := doReq(t, baseURL, "POST", "/species/"+strconv.FormatInt(speciesID, 10)+"/dialog", userID, nil)
	require.Equal(t, http.StatusCreated, st, "open dialog body=%s", string(body))

	var out struct {
		DialogID string   `json:"dialog_id"`
		State    stateOut `json:"state"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.NotEmpty(t, out.DialogID)
	return out.DialogID, out.State
}

func waitAuthor(t *testing.T, baseURL, userID, dialogID string) stateOut {
	t.Helper()
	var st stateOut
	require.Eventually(t, func() bool {
		code, body := doReq(t, baseURL, "GET", "/dialogs/"+dialogID+"/state", userID, nil)
		if code != http.StatusOK || json.Unmarshal(body, &st) != nil {
			return false
		}
		return len(st.Author) > 0
	}, 2*time.Second, 10*time.Millisecond)
	return st
}

func action(t *testing.T, baseURL, method, path, userID string, payload any, want int) actionOut {
	t.Helper()
	st, body := doReq(t, baseURL, method, path, userID, payload)
	require.Equal(t, want, st, "%s %s body=%s", method, path, string(body))

	var out actionOut
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func doReq(t *testing.T, baseURL, method, path, userID string, payload any) (int, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, body)
	require.NoError(t, err)

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(userID) != "" {
		req.Header.Set("X-Debug-User-ID", userID)
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	b, _ := io.ReadAll(res.Body)
	return res.StatusCode, b
}
