// internal/app/features/projects/routes.go
package projects

import (
	"github.com/go-chi/chi/v5"

	"github.com/promanagehq/promanage/internal/app/system/jwtauth"
)

func Routes(h *Handler, jwtMgr *jwtauth.Manager) chi.Router {
	r := chi.NewRouter()
	r.Use(jwtMgr.Middleware)

	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Route("/{projectID}", func(pr chi.Router) {
		pr.Get("/", h.HandleGet)
		pr.Put("/", h.HandleUpdate)
		pr.Delete("/", h.HandleDelete)
		pr.Post("/team", h.HandleAddMember)
	})
	return r
}
