// internal/app/features/tasks/attachments.go
package tasks

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/promanagehq/promanage/internal/app/system/apiutil"
	"github.com/promanagehq/promanage/internal/app/system/timeouts"
	"github.com/promanagehq/promanage/internal/domain/models"
)

const maxUploadBytes = 32 << 20

// HandleUploadAttachment handles POST /api/tasks/{taskID}/attachments.
// Expects a multipart form with a "file" field.
func (h *Handler) HandleUploadAttachment(w http.ResponseWriter, r *http.Request) {
	task, actor := h.loadTask(w, r)
	if task == nil {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		apiutil.BadRequest(w, "Invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil || header == nil || header.Size == 0 {
		apiutil.BadRequest(w, "A file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	info, err := uploadAttachment(ctx, h.Storage, header.Filename, file, header.Size, contentType)
	if err != nil {
		h.Log.Error("upload attachment", zap.Error(err))
		apiutil.ServerError(w, "Failed to upload file")
		return
	}

	att := models.Attachment{
		ID:         primitive.NewObjectID(),
		Name:       info.FileName,
		Key:        info.Key,
		Size:       info.Size,
		Type:       info.ContentType,
		UploadedBy: actor.ID,
		UploadedAt: time.Now().UTC(),
	}
	if err := h.Tasks.AddAttachment(ctx, task.ID, att); err != nil {
		h.Log.Error("record attachment", zap.Error(err))
		// The blob is orphaned; try to clean it up.
		if derr := h.Storage.Delete(ctx, att.Key); derr != nil {
			h.Log.Warn("delete orphaned blob", zap.String("key", att.Key), zap.Error(derr))
		}
		apiutil.ServerError(w, "Failed to upload file")
		return
	}

	h.Tracker.FileUploaded(ctx, actor, task, &att)
	apiutil.OK(w, http.StatusCreated, att)
}

// HandleDownloadAttachment handles GET /api/tasks/{taskID}/attachments/{fileID}.
// Local storage serves the file directly; other backends redirect to a
// signed URL.
func (h *Handler) HandleDownloadAttachment(w http.ResponseWriter, r *http.Request) {
	task, actor := h.loadTask(w, r)
	if task == nil {
		return
	}
	att := findAttachment(w, r, task)
	if att == nil {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	h.Tracker.FileDownloaded(ctx, actor, task, att)

	disposition := "attachment; filename=\"" + att.Name + "\""
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	if local, ok := h.Storage.(*storage.Local); ok {
		fullPath, err := local.GetFullPath(att.Key)
		if err != nil {
			h.Log.Error("resolve attachment path", zap.String("key", att.Key), zap.Error(err))
			apiutil.ServerError(w, "Failed to locate file")
			return
		}
		w.Header().Set("Content-Disposition", disposition)
		http.ServeFile(w, r, fullPath)
		return
	}

	signedURL, err := h.Storage.PresignedURL(ctx, att.Key, &storage.PresignOptions{
		Expires:            15 * time.Minute,
		ContentDisposition: disposition,
	})
	if err != nil {
		h.Log.Error("sign attachment url", zap.String("key", att.Key), zap.Error(err))
		apiutil.ServerError(w, "Failed to generate download link")
		return
	}
	http.Redirect(w, r, signedURL, http.StatusSeeOther)
}

// HandleDeleteAttachment handles DELETE /api/tasks/{taskID}/attachments/{fileID}.
func (h *Handler) HandleDeleteAttachment(w http.ResponseWriter, r *http.Request) {
	task, actor := h.loadTask(w, r)
	if task == nil {
		return
	}
	att := findAttachment(w, r, task)
	if att == nil {
		return
	}

	if err := h.Tasks.RemoveAttachment(r.Context(), task.ID, att.ID); err != nil {
		h.Log.Error("remove attachment", zap.Error(err))
		apiutil.ServerError(w, "Failed to delete file")
		return
	}

	h.Tracker.FileDeleted(r.Context(), actor, task, att)
	apiutil.OK(w, http.StatusOK, map[string]any{"deleted": true})
}

// findAttachment resolves {fileID} against the task's attachments,
// writing the error response when absent.
func findAttachment(w http.ResponseWriter, r *http.Request, task *models.Task) *models.Attachment {
	fileID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "fileID"))
	if err != nil {
		apiutil.BadRequest(w, "Invalid file id")
		return nil
	}
	for i := range task.Attachments {
		if task.Attachments[i].ID == fileID {
			return &task.Attachments[i]
		}
	}
	apiutil.NotFound(w, "File not found")
	return nil
}
