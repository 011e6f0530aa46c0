package app

import (
	"net/http"

	"github.com/vancomm/dungeon-sweeper/internal/handlers"
	"github.com/vancomm/dungeon-sweeper/internal/middleware"
)

func (a *App) loadRoutes() http.Handler {
	auth := handlers.NewAuth(a.log, a.repo, a.cookies)
	records := handlers.NewRecords(a.log, a.repo)
	s := handlers.NewSessions(a.log, a.registry)

	a.router.HandleFunc("POST /v1/register", auth.Register)
	a.router.HandleFunc("POST /v1/login", auth.Login)
	a.router.HandleFunc("POST /v1/logout", auth.Logout)
	a.router.HandleFunc("GET /v1/status", auth.Status)
	a.router.HandleFunc("GET /v1/records", records.List)

	a.router.HandleFunc("POST /v1/session", s.Create)
	a.router.HandleFunc("GET /v1/session/{id}", s.Get)
	a.router.HandleFunc("DELETE /v1/session/{id}", s.Delete)
	a.router.HandleFunc("POST /v1/session/{id}/reveal", s.Reveal())
	a.router.HandleFunc("POST /v1/session/{id}/flag", s.Flag())
	a.router.HandleFunc("POST /v1/session/{id}/chord", s.Chord())
	a.router.HandleFunc("POST /v1/session/{id}/scan", s.Scan)
	a.router.HandleFunc("POST /v1/session/{id}/restart", s.Restart())
	a.router.HandleFunc("POST /v1/session/{id}/advance", s.Advance())
	a.router.HandleFunc("POST /v1/session/{id}/revive", s.Revive())
	a.router.HandleFunc("POST /v1/session/{id}/xray", s.XRay())
	a.router.HandleFunc("POST /v1/session/{id}/bleed", s.Bleed())
	a.router.HandleFunc("GET /v1/session/{id}/connect", s.Connect)

	return middleware.Wrap(a.router,
		middleware.Logging(a.log),
		middleware.Auth(a.log, a.cookies),
		middleware.Cors(a.config.Development(), a.config.Domain),
	)
}
