package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/enumlive/internal/httpserver/deps"
	"github.com/MrSnakeDoc/enumlive/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/enumlive/internal/httpserver/mw"
)

func init() { Register(registerAPI) }

func registerAPI(r chi.Router, d deps.Deps) {
	r.Route("/api", func(api chi.Router) {
		api.Use(mw.AllowOnlyCIDRS(d.Allowed, d.Logger))
		api.Get("/progress", handlers.Progress(d))
		api.Get("/results", handlers.Results(d))
		api.Get("/infra", handlers.Infra(d))
		if d.History != nil {
			api.Get("/scans/{id}", handlers.Scan(d))
			api.Get("/hosts/{host}", handlers.Host(d))
		}
	})
}
