package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func SetupRoutes(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	s := &server{Deps: d}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", Healthz)
	r.Get("/metrics", d.Metrics.Handler().ServeHTTP)
	r.Get("/board", s.board)
	r.Get("/board/stream", s.stream)
	r.Get("/journal", s.listJournal)

	r.Post("/select", s.selectPlayer)
	r.Post("/draft", s.draft)
	r.Post("/remove", s.remove)
	r.Post("/drag", s.drag)
	r.Post("/drop", s.drop)
	r.Post("/view", s.setView)
	r.Post("/teams/{teamID}/open", s.openTeam)
	r.Post("/players/{playerID}/details", s.playerDetails)
	r.Post("/players/{playerID}/position", s.updatePosition)
	return r
}
