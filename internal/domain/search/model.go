package search

import (
	"context"
	"errors"
)

// ResultLimit es fijo: la UI solo muestra los 3 primeros títulos.
const ResultLimit = 3

var (
	// ErrMalformed: la respuesta no trae "pages" como lista.
	ErrMalformed   = errors.New("malformed search response")
	ErrTimeout     = errors.New("search timed out")
	ErrNoSelection = errors.New("no such search result")
)

type Thumbnail struct {
	Mimetype string   `json:"mimetype"`
	Size     int64    `json:"size"`
	Width    *int     `json:"width"`
	Height   *int     `json:"height"`
	Duration *float64 `json:"duration"`
	URL      string   `json:"url"`
}

// Result es una página encontrada. Efímero, nunca se persiste.
type Result struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Excerpt      string     `json:"excerpt"`
	MatchedTitle *string    `json:"matched_title"`
	Description  string     `json:"description"`
	Thumbnail    *Thumbnail `json:"thumbnail"`
}

// Selection es lo que se entrega al caller para autocompletar el formulario.
type Selection struct {
	Description  string `json:"description"`
	ThumbnailURL string `json:"thumbnail_url"`
}

func (r Result) Selection() Selection {
	s := Selection{Description: r.Description}
	if r.Thumbnail != nil {
		s.ThumbnailURL = r.Thumbnail.URL
	}
	return s
}

// Searcher consulta la API externa. Devuelve ErrMalformed si el payload
// no tiene la forma esperada.
type Searcher interface {
	Search(ctx context.Context, q string, limit int) ([]Result, error)
}

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusLoading    Status = "loading"
	StatusResolved   Status = "resolved"
	StatusError      Status = "error"
)
