// internal/app/features/tasks/handler.go
package tasks

import (
	"errors"
	"net/http"

	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	projectstore "github.com/promanagehq/promanage/internal/app/store/projects"
	taskstore "github.com/promanagehq/promanage/internal/app/store/tasks"
	"github.com/promanagehq/promanage/internal/app/system/apiutil"
	"github.com/promanagehq/promanage/internal/app/system/authz"
	"github.com/promanagehq/promanage/internal/app/system/tracker"
	"github.com/promanagehq/promanage/internal/domain/models"
)

// Handler owns the task CRUD, board, comment, and attachment endpoints.
type Handler struct {
	Tasks    *taskstore.Store
	Projects *projectstore.Store
	Storage  storage.Store
	Tracker  *tracker.Tracker
	Log      *zap.Logger
}

// NewHandler creates a new tasks Handler.
func NewHandler(tasks *taskstore.Store, projects *projectstore.Store, store storage.Store, trk *tracker.Tracker, logger *zap.Logger) *Handler {
	return &Handler{Tasks: tasks, Projects: projects, Storage: store, Tracker: trk, Log: logger}
}

// loadTask resolves {taskID}, checks the caller can access the owning
// project, and returns the task with the acting user. It writes the
// error response itself and returns nil when the caller should stop.
func (h *Handler) loadTask(w http.ResponseWriter, r *http.Request) (*models.Task, tracker.Actor) {
	_, name, userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, http.StatusUnauthorized, "Not authorized")
		return nil, tracker.Actor{}
	}
	actor := tracker.Actor{ID: userID, Name: name}

	taskID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "taskID"))
	if err != nil {
		apiutil.BadRequest(w, "Invalid task id")
		return nil, actor
	}

	task, err := h.Tasks.GetByID(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			apiutil.NotFound(w, "Task not found")
		} else {
			h.Log.Error("load task", zap.Error(err))
			apiutil.ServerError(w, "Failed to load task")
		}
		return nil, actor
	}

	if !h.canAccessProject(w, r, task.ProjectID, userID) {
		return nil, actor
	}
	return task, actor
}

// canAccessProject checks project membership and writes the error
// response on failure.
func (h *Handler) canAccessProject(w http.ResponseWriter, r *http.Request, projectID, userID primitive.ObjectID) bool {
	if authz.IsAdmin(r) {
		return true
	}
	ok, err := h.Projects.CanAccess(r.Context(), projectID, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			apiutil.NotFound(w, "Project not found")
		} else {
			h.Log.Error("check project access", zap.Error(err))
			apiutil.ServerError(w, "Failed to check project access")
		}
		return false
	}
	if !ok {
		apiutil.Forbidden(w, "Not authorized to access this project")
		return false
	}
	return true
}

// HandleList handles GET /api/tasks. With ?project= it lists one
// project's tasks; without it, tasks across every project the caller
// can see.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	if raw := r.URL.Query().Get("project"); raw != "" {
		projectID, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			apiutil.BadRequest(w, "Invalid project id")
			return
		}
		if !h.canAccessProject(w, r, projectID, userID) {
			return
		}
		list, err := h.Tasks.ListByProject(r.Context(), projectID)
		if err != nil {
			h.Log.Error("list tasks", zap.Error(err))
			apiutil.ServerError(w, "Failed to list tasks")
			return
		}
		apiutil.OK(w, http.StatusOK, list)
		return
	}

	projectIDs, err := h.Projects.AccessibleIDs(r.Context(), userID)
	if err != nil {
		h.Log.Error("list accessible projects", zap.Error(err))
		apiutil.ServerError(w, "Failed to list tasks")
		return
	}
	list, err := h.Tasks.ListByProjects(r.Context(), projectIDs)
	if err != nil {
		h.Log.Error("list tasks", zap.Error(err))
		apiutil.ServerError(w, "Failed to list tasks")
		return
	}
	apiutil.OK(w, http.StatusOK, list)
}

// HandleGet handles GET /api/tasks/{taskID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	task, _ := h.loadTask(w, r)
	if task == nil {
		return
	}
	apiutil.OK(w, http.StatusOK, task)
}

// HandleDelete handles DELETE /api/tasks/{taskID}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	task, actor := h.loadTask(w, r)
	if task == nil {
		return
	}

	if err := h.Tasks.Delete(r.Context(), task.ID); err != nil {
		h.Log.Error("delete task", zap.Error(err))
		apiutil.ServerError(w, "Failed to delete task")
		return
	}

	h.Tracker.TaskDeleted(r.Context(), actor, task)
	apiutil.OK(w, http.StatusOK, map[string]any{"deleted": true})
}
