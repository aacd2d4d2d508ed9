// internal/app/features/projects/handler.go
package projects

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	projectstore "github.com/promanagehq/promanage/internal/app/store/projects"
	taskstore "github.com/promanagehq/promanage/internal/app/store/tasks"
	userstore "github.com/promanagehq/promanage/internal/app/store/users"
	"github.com/promanagehq/promanage/internal/app/system/apiutil"
	"github.com/promanagehq/promanage/internal/app/system/authz"
	"github.com/promanagehq/promanage/internal/app/system/htmlsanitize"
	"github.com/promanagehq/promanage/internal/app/system/tracker"
	"github.com/promanagehq/promanage/internal/domain/models"
)

// Handler owns the project CRUD and team endpoints.
type Handler struct {
	Projects *projectstore.Store
	Tasks    *taskstore.Store
	Users    *userstore.Store
	Tracker  *tracker.Tracker
	Log      *zap.Logger
}

// NewHandler creates a new projects Handler.
func NewHandler(projects *projectstore.Store, tasks *taskstore.Store, users *userstore.Store, trk *tracker.Tracker, logger *zap.Logger) *Handler {
	return &Handler{Projects: projects, Tasks: tasks, Users: users, Tracker: trk, Log: logger}
}

// loadProject resolves {projectID} and checks the caller can see it.
// It writes the error response itself and returns nil when the caller
// should stop.
func (h *Handler) loadProject(w http.ResponseWriter, r *http.Request) (*models.Project, tracker.Actor) {
	_, name, userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, http.StatusUnauthorized, "Not authorized")
		return nil, tracker.Actor{}
	}
	actor := tracker.Actor{ID: userID, Name: name}

	projectID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "projectID"))
	if err != nil {
		apiutil.BadRequest(w, "Invalid project id")
		return nil, actor
	}

	project, err := h.Projects.GetByID(r.Context(), projectID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			apiutil.NotFound(w, "Project not found")
		} else {
			h.Log.Error("load project", zap.Error(err))
			apiutil.ServerError(w, "Failed to load project")
		}
		return nil, actor
	}
	if !project.HasMember(userID) && !authz.IsAdmin(r) {
		apiutil.Forbidden(w, "Not authorized to access this project")
		return nil, actor
	}
	return project, actor
}

// HandleList handles GET /api/projects.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, http.StatusUnauthorized, "Not authorized")
		return
	}
	list, err := h.Projects.ListForUser(r.Context(), userID)
	if err != nil {
		h.Log.Error("list projects", zap.Error(err))
		apiutil.ServerError(w, "Failed to list projects")
		return
	}
	apiutil.OK(w, http.StatusOK, list)
}

type createRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
}

// HandleCreate handles POST /api/projects.
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
	req.Name = strings.TrimSpace(htmlsanitize.PlainText(req.Name))
	if req.Name == "" {
		apiutil.BadRequest(w, "Project name is required")
		return
	}

	p := models.Project{
		Name:        req.Name,
		Description: htmlsanitize.Sanitize(req.Description),
		Status:      req.Status,
		Priority:    req.Priority,
		CreatedBy:   userID,
	}
	if req.StartDate != nil {
		p.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		p.EndDate = *req.EndDate
	}

	project, err := h.Projects.Create(r.Context(), p)
	if err != nil {
		h.Log.Error("create project", zap.Error(err))
		apiutil.ServerError(w, "Failed to create project")
		return
	}

	h.Tracker.ProjectCreated(r.Context(), tracker.Actor{ID: userID, Name: name}, &project)
	apiutil.OK(w, http.StatusCreated, project)
}

// HandleGet handles GET /api/projects/{projectID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	project, _ := h.loadProject(w, r)
	if project == nil {
		return
	}
	apiutil.OK(w, http.StatusOK, project)
}

type updateRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
}

// HandleUpdate handles PUT /api/projects/{projectID}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	project, actor := h.loadProject(w, r)
	if project == nil {
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiutil.BadRequest(w, "Invalid request body")
		return
	}

	upd := projectstore.Update{
		Status:    req.Status,
		Priority:  req.Priority,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	}
	if req.Name != nil {
		clean := strings.TrimSpace(htmlsanitize.PlainText(*req.Name))
		if clean == "" {
			apiutil.BadRequest(w, "Project name cannot be empty")
			return
		}
		upd.Name = &clean
	}
	if req.Description != nil {
		clean := htmlsanitize.Sanitize(*req.Description)
		upd.Description = &clean
	}

	updated, err := h.Projects.Apply(r.Context(), project.ID, upd)
	if err != nil {
		h.Log.Error("update project", zap.Error(err))
		apiutil.ServerError(w, "Failed to update project")
		return
	}

	h.Tracker.ProjectUpdated(r.Context(), actor, updated)
	apiutil.OK(w, http.StatusOK, updated)
}

// HandleDelete handles DELETE /api/projects/{projectID}. Only the
// creator or an admin may delete; tasks under the project are removed
// with it.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	project, actor := h.loadProject(w, r)
	if project == nil {
		return
	}
	if project.CreatedBy != actor.ID && !authz.IsAdmin(r) {
		apiutil.Forbidden(w, "Only the project creator can delete it")
		return
	}

	cascaded, err := h.Tasks.DeleteByProject(r.Context(), project.ID)
	if err != nil {
		h.Log.Error("delete project tasks", zap.Error(err))
		apiutil.ServerError(w, "Failed to delete project")
		return
	}
	if err := h.Projects.Delete(r.Context(), project.ID); err != nil {
		h.Log.Error("delete project", zap.Error(err))
		apiutil.ServerError(w, "Failed to delete project")
		return
	}

	h.Tracker.ProjectDeleted(r.Context(), actor, project, cascaded)
	apiutil.OK(w, http.StatusOK, map[string]any{"deleted": true})
}

type addMemberRequest struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// HandleAddMember handles POST /api/projects/{projectID}/team.
func (h *Handler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	project, actor := h.loadProject(w, r)
	if project == nil {
		return
	}

	var req addMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiutil.BadRequest(w, "Invalid request body")
		return
	}
	memberID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		apiutil.BadRequest(w, "Invalid user id")
		return
	}

	member, err := h.Users.GetByID(r.Context(), memberID)
	if err != nil {
		apiutil.NotFound(w, "User not found")
		return
	}

	updated, err := h.Projects.AddTeamMember(r.Context(), project.ID, models.TeamMember{
		UserID: memberID,
		Role:   req.Role,
	})
	if err != nil {
		h.Log.Error("add team member", zap.Error(err))
		apiutil.ServerError(w, "Failed to add team member")
		return
	}

	h.Tracker.MemberAdded(r.Context(), actor, updated, member.Ref())
	apiutil.OK(w, http.StatusOK, updated)
}
