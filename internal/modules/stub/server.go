package stub

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// Options configures NewRouter.
type Options struct {
	// SigningKey signs issued tokens. Required.
	SigningKey []byte
	// AccessLog turns on chi's request logger.
	AccessLog bool
	Logger    logrus.FieldLogger
}

// NewRouter wires the in-memory repositories, services and handlers into a
// ready http.Handler serving /api.
func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	router := chi.NewRouter()
	if opts.AccessLog {
		router.Use(middleware.Logger)
	}
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "Not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	authService := NewAuthService(NewMemoryAccountRepository(), opts.SigningKey)
	sweetService := NewSweetService(NewMemorySweetRepository())
	NewHandler(authService, sweetService, log).RegisterRoutes(router)

	return router
}
