// internal/app/features/activities/handler.go
package activities

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/promanagehq/promanage/internal/app/store/activity"
	projectstore "github.com/promanagehq/promanage/internal/app/store/projects"
	"github.com/promanagehq/promanage/internal/app/system/apiutil"
	"github.com/promanagehq/promanage/internal/app/system/authz"
	"github.com/promanagehq/promanage/internal/app/system/paging"
)

// Handler owns the activity feed endpoints. Every listing is scoped to
// what the caller can see: admins see everything, everyone else sees
// activity on projects they belong to plus their own.
type Handler struct {
	Activity *activity.Store
	Projects *projectstore.Store
	Log      *zap.Logger
}

// NewHandler creates a new activities Handler.
func NewHandler(activityStore *activity.Store, projects *projectstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Activity: activityStore, Projects: projects, Log: logger}
}

// HandleList handles GET /api/activities.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	var filter activity.Filter
	if !authz.IsAdmin(r) {
		ids, err := h.Projects.AccessibleIDs(r.Context(), userID)
		if err != nil {
			h.Log.Error("list accessible projects", zap.Error(err))
			apiutil.ServerError(w, "Failed to list activities")
			return
		}
		if len(ids) == 0 {
			// No projects means no visible activity; an empty filter
			// would list everything.
			h.emptyPage(w, r)
			return
		}
		filter.ProjectIDs = ids
	}
	if entity := r.URL.Query().Get("entity"); entity != "" {
		filter.Entity = entity
	}

	h.respond(w, r, filter)
}

// HandleListByProject handles GET /api/activities/project/{projectID}.
func (h *Handler) HandleListByProject(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	projectID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "projectID"))
	if err != nil {
		apiutil.BadRequest(w, "Invalid project id")
		return
	}

	if !authz.IsAdmin(r) {
		canSee, err := h.Projects.CanAccess(r.Context(), projectID, userID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				apiutil.NotFound(w, "Project not found")
			} else {
				h.Log.Error("check project access", zap.Error(err))
				apiutil.ServerError(w, "Failed to list activities")
			}
			return
		}
		if !canSee {
			apiutil.Forbidden(w, "Not authorized to access this project")
			return
		}
	}

	h.respond(w, r, activity.Filter{ProjectID: &projectID})
}

// HandleListByUser handles GET /api/activities/user/{userID}. Callers
// may read their own history; admins may read anyone's. Non-admin
// results are intersected with the caller's accessible projects, so
// leaving a project also hides its history.
func (h *Handler) HandleListByUser(w http.ResponseWriter, r *http.Request) {
	_, _, callerID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	targetID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		apiutil.BadRequest(w, "Invalid user id")
		return
	}
	if targetID != callerID && !authz.IsAdmin(r) {
		apiutil.Forbidden(w, "Not authorized to view this user's activity")
		return
	}

	filter := activity.Filter{UserID: &targetID}
	if !authz.IsAdmin(r) {
		ids, err := h.Projects.AccessibleIDs(r.Context(), callerID)
		if err != nil {
			h.Log.Error("list accessible projects", zap.Error(err))
			apiutil.ServerError(w, "Failed to list activities")
			return
		}
		if len(ids) == 0 {
			h.emptyPage(w, r)
			return
		}
		filter.ProjectIDs = ids
	}

	h.respond(w, r, filter)
}

func (h *Handler) emptyPage(w http.ResponseWriter, r *http.Request) {
	p := paging.Parse(r)
	apiutil.List(w, []activity.Record{}, 0, 0, apiutil.Pagination{
		Page: p.Page, Limit: p.Limit, Pages: 0,
	})
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, filter activity.Filter) {
	p := paging.Parse(r)
	records, total, err := h.Activity.List(r.Context(), filter, activity.Page{Page: p.Page, Limit: p.Limit})
	if err != nil {
		h.Log.Error("list activities", zap.Error(err))
		apiutil.ServerError(w, "Failed to list activities")
		return
	}

	apiutil.List(w, records, len(records), total, apiutil.Pagination{
		Page:  p.Page,
		Limit: p.Limit,
		Pages: apiutil.PageCount(total, p.Limit),
	})
}
