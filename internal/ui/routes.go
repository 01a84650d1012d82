package ui

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RegisterRoutes registers all UI routes on the given router.
func (ui *UI) RegisterRoutes(r chi.Router) {
	// Tool workspace
	r.Get("/", ui.HandleWorkspace)
	r.Route("/tools", func(r chi.Router) {
		r.Post("/", ui.HandleCreateTool)
		r.Post("/refresh", ui.HandleRefreshTools)
		r.Post("/{id}/select", ui.HandleSelectTool)
	})

	// Pipeline
	r.Get("/pipeline", ui.HandlePipeline)
	r.Post("/pipeline/{step}", ui.HandleSubmitStep)
	r.Post("/login", ui.HandleLogin)
}

// Handler returns the UI routes behind recovery, request id and request
// logging middleware.
func (ui *UI) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(ui.logger))
	ui.RegisterRoutes(r)
	return r
}
