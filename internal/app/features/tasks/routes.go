// internal/app/features/tasks/routes.go
package tasks

import (
	"github.com/go-chi/chi/v5"

	"github.com/promanagehq/promanage/internal/app/system/jwtauth"
)

func Routes(h *Handler, jwtMgr *jwtauth.Manager) chi.Router {
	r := chi.NewRouter()
	r.Use(jwtMgr.Middleware)

	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Route("/{taskID}", func(tr chi.Router) {
		tr.Get("/", h.HandleGet)
		tr.Put("/", h.HandleUpdate)
		tr.Delete("/", h.HandleDelete)
		tr.Put("/position", h.HandlePosition)
		tr.Post("/comments", h.HandleAddComment)
		tr.Post("/attachments", h.HandleUploadAttachment)
		tr.Get("/attachments/{fileID}", h.HandleDownloadAttachment)
		tr.Delete("/attachments/{fileID}", h.HandleDeleteAttachment)
	})
	return r
}
