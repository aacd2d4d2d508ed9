// internal/app/features/activities/routes.go
package activities

import (
	"github.com/go-chi/chi/v5"

	"github.com/promanagehq/promanage/internal/app/system/jwtauth"
)

func Routes(h *Handler, jwtMgr *jwtauth.Manager) chi.Router {
	r := chi.NewRouter()
	r.Use(jwtMgr.Middleware)

	r.Get("/", h.HandleList)
	r.Get("/project/{projectID}", h.HandleListByProject)
	r.Get("/user/{userID}", h.HandleListByUser)
	return r
}
