package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/yunhanz/storymap-api/internal/api/middleware"
	"github.com/yunhanz/storymap-api/internal/api/shared"
)

// NewRouter assembles the HTTP routing tree with the tracing and CORS
// middleware applied to every route.
func NewRouter(handler *TaskHandler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(custommiddleware.TraceMiddleware)
	r.Use(custommiddleware.CORS(allowedOrigins))

	r.Get("/generate", handler.Generate)
	r.Post("/generate", handler.Generate)
	r.Get("/task", handler.Status)
	r.Get("/healthz", handler.Healthz)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		shared.RespondWithError(w, req, http.StatusNotFound, "not found")
	})

	return r
}
