// internal/app/features/auth/routes.go
package auth

import (
	"github.com/go-chi/chi/v5"

	"github.com/promanagehq/promanage/internal/app/system/jwtauth"
)

func Routes(h *Handler, jwtMgr *jwtauth.Manager) chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.HandleRegister)
	r.Post("/login", h.HandleLogin)

	r.Group(func(pr chi.Router) {
		pr.Use(jwtMgr.Middleware)
		pr.Get("/me", h.HandleMe)
	})
	return r
}
