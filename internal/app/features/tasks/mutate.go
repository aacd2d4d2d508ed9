// internal/app/features/tasks/mutate.go
package tasks

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	taskstore "github.com/promanagehq/promanage/internal/app/store/tasks"
	"github.com/promanagehq/promanage/internal/app/system/apiutil"
	"github.com/promanagehq/promanage/internal/app/system/authz"
	"github.com/promanagehq/promanage/internal/app/system/htmlsanitize"
	"github.com/promanagehq/promanage/internal/app/system/tracker"
	"github.com/promanagehq/promanage/internal/domain/models"
)

type createRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ProjectID   string     `json:"projectId"`
	AssignedTo  string     `json:"assignedTo"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	Tags        []string   `json:"tags"`
	BoardColumn string     `json:"boardColumn"`
	Swimlane    string     `json:"swimlane"`
}

// HandleCreate handles POST /api/tasks.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	_, name, userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiutil.BadRequest(w, "Invalid request body")
		return
	}
	req.Title = strings.TrimSpace(htmlsanitize.PlainText(req.Title))
	if req.Title == "" {
		apiutil.BadRequest(w, "Task title is required")
		return
	}
	projectID, err := primitive.ObjectIDFromHex(req.ProjectID)
	if err != nil {
		apiutil.BadRequest(w, "Invalid project id")
		return
	}
	if !h.canAccessProject(w, r, projectID, userID) {
		return
	}

	t := models.Task{
		Title:       req.Title,
		Description: htmlsanitize.Sanitize(req.Description),
		ProjectID:   projectID,
		CreatedBy:   userID,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		Tags:        req.Tags,
		BoardColumn: req.BoardColumn,
		Swimlane:    req.Swimlane,
	}
	if req.AssignedTo != "" {
		assignee, err := primitive.ObjectIDFromHex(req.AssignedTo)
		if err != nil {
			apiutil.BadRequest(w, "Invalid assignee id")
			return
		}
		t.AssignedTo = &assignee
	}

	task, err := h.Tasks.Create(r.Context(), t)
	if err != nil {
		h.Log.Error("create task", zap.Error(err))
		apiutil.ServerError(w, "Failed to create task")
		return
	}

	h.Tracker.TaskCreated(r.Context(), tracker.Actor{ID: userID, Name: name}, &task)
	apiutil.OK(w, http.StatusCreated, task)
}

type updateRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority"`
	AssignedTo  *string    `json:"assignedTo"`
	DueDate     *time.Time `json:"dueDate"`
	Tags        []string   `json:"tags"`
}

// HandleUpdate handles PUT /api/tasks/{taskID}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	before, actor := h.loadTask(w, r)
	if before == nil {
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiutil.BadRequest(w, "Invalid request body")
		return
	}

	upd := taskstore.Update{
		Status:   req.Status,
		Priority: req.Priority,
		DueDate:  req.DueDate,
		Tags:     req.Tags,
	}
	if req.Title != nil {
		clean := strings.TrimSpace(htmlsanitize.PlainText(*req.Title))
		if clean == "" {
			apiutil.BadRequest(w, "Task title cannot be empty")
			return
		}
		upd.Title = &clean
	}
	if req.Description != nil {
		clean := htmlsanitize.Sanitize(*req.Description)
		upd.Description = &clean
	}
	if req.AssignedTo != nil {
		if *req.AssignedTo == "" {
			upd.ClearAssignee = true
		} else {
			assignee, err := primitive.ObjectIDFromHex(*req.AssignedTo)
			if err != nil {
				apiutil.BadRequest(w, "Invalid assignee id")
				return
			}
			upd.AssignedTo = &assignee
		}
	}

	after, err := h.Tasks.Apply(r.Context(), before.ID, upd)
	if err != nil {
		h.Log.Error("update task", zap.Error(err))
		apiutil.ServerError(w, "Failed to update task")
		return
	}

	h.Tracker.TaskUpdated(r.Context(), actor, before, after)
	apiutil.OK(w, http.StatusOK, after)
}

type positionRequest struct {
	BoardColumn   string `json:"boardColumn"`
	BoardPosition int    `json:"boardPosition"`
	Swimlane      string `json:"swimlane"`
}

// HandlePosition handles PUT /api/tasks/{taskID}/position.
func (h *Handler) HandlePosition(w http.ResponseWriter, r *http.Request) {
	before, actor := h.loadTask(w, r)
	if before == nil {
		return
	}

	var req positionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiutil.BadRequest(w, "Invalid request body")
		return
	}
	if req.BoardColumn == "" {
		apiutil.BadRequest(w, "Board column is required")
		return
	}

	after, err := h.Tasks.SetPosition(r.Context(), before.ID, taskstore.Position{
		BoardColumn:   req.BoardColumn,
		BoardPosition: req.BoardPosition,
		Swimlane:      req.Swimlane,
	})
	if err != nil {
		h.Log.Error("move task", zap.Error(err))
		apiutil.ServerError(w, "Failed to move task")
		return
	}

	h.Tracker.TaskMoved(r.Context(), actor, before, after)
	apiutil.OK(w, http.StatusOK, after)
}
