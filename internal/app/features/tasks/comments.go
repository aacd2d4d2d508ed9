// internal/app/features/tasks/comments.go
package tasks

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/promanagehq/promanage/internal/app/system/apiutil"
	"github.com/promanagehq/promanage/internal/app/system/htmlsanitize"
)

type commentRequest struct {
	Text string `json:"text"`
}

// HandleAddComment handles POST /api/tasks/{taskID}/comments.
func (h *Handler) HandleAddComment(w http.ResponseWriter, r *http.Request) {
	task, actor := h.loadTask(w, r)
	if task == nil {
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiutil.BadRequest(w, "Invalid request body")
		return
	}
	text := strings.TrimSpace(htmlsanitize.Sanitize(req.Text))
	if text == "" {
		apiutil.BadRequest(w, "Comment text is required")
		return
	}

	comment, err := h.Tasks.AddComment(r.Context(), task.ID, actor.ID, text)
	if err != nil {
		h.Log.Error("add comment", zap.Error(err))
		apiutil.ServerError(w, "Failed to add comment")
		return
	}

	h.Tracker.CommentAdded(r.Context(), actor, task, comment)
	apiutil.OK(w, http.StatusCreated, comment)
}
