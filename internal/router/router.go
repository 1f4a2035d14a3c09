package router

import (
	"log/slog"
	"net/http"
	"time"

	_ "species-catalog/docs"
	"species-catalog/internal/adapters/search/wikipedia"
	mem "species-catalog/internal/adapters/storage/memory"
	"species-catalog/internal/adapters/storage/sqlstore"
	"species-catalog/internal/domain/dialog"
	"species-catalog/internal/domain/profiles"
	"species-catalog/internal/domain/search"
	"species-catalog/internal/domain/species"
	"species-catalog/internal/middleware"
	"species-catalog/internal/platform/metrics"
	"species-catalog/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa SQL (postgres o sqlite). Si no, in-memory.
	DB *sqlstore.DB

	// Opcional: si no viene se usa Wikipedia con la config por defecto.
	Searcher search.Searcher

	// Opcional: nil => sin /metrics.
	Metrics *metrics.Metrics

	SearchTimeout time.Duration
	DialogTTL     time.Duration
	ResolverTTL   time.Duration

	Logger *slog.Logger
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(opts.Metrics.Middleware)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	var (
		speciesRepo  species.Repository
		profilesRepo profiles.Repository
	)
	if opts.DB != nil {
		speciesRepo = sqlstore.NewSpeciesRepo(opts.DB)
		profilesRepo = sqlstore.NewProfilesRepo(opts.DB)
	} else {
		speciesRepo = mem.NewSpeciesRepo()
		profilesRepo = mem.NewProfilesRepo()
	}

	searcher := opts.Searcher
	if searcher == nil {
		wiki, err := wikipedia.New(wikipedia.Config{})
		if err != nil {
			// Solo falla con una base URL inválida; la default siempre es válida.
			log.Error("wikipedia client", "error", err)
		} else {
			searcher = wiki
		}
	}

	// Services por módulo
	schema := species.NewSchema()
	speciesSvc := species.NewService(speciesRepo, schema).WithObserver(opts.Metrics)
	profilesSvc := profiles.NewService(profilesRepo)

	resolver := profiles.NewResolver(profilesRepo, opts.ResolverTTL)
	profilesSvc.OnChange(resolver.Invalidate)

	dialogs := dialog.NewManager(dialog.Deps{
		Store:          speciesSvc,
		Schema:         schema,
		Authors:        resolver,
		Searcher:       searcher,
		SearchTimeout:  opts.SearchTimeout,
		AuthorTimeout:  dialog.DefaultAuthorTimeout,
		SearchObserver: opts.Metrics,
		Logger:         log,
	}, opts.DialogTTL, opts.Metrics)

	// Rutas por módulo
	species.RegisterRoutes(r, speciesSvc)
	profiles.RegisterRoutes(r, profilesSvc)
	search.RegisterRoutes(r, searcher, opts.SearchTimeout)
	dialog.RegisterRoutes(r, dialogs)

	return r
}
