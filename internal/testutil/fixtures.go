package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/promanagehq/promanage/internal/domain/models"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a test user with the given name, email, and role.
func (f *Fixtures) CreateUser(ctx context.Context, name, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Email:     email,
		Password:  "$2a$10$test-hash-not-a-real-credential",
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateProject creates a test project owned by creatorID with the
// given team members.
func (f *Fixtures) CreateProject(ctx context.Context, name string, creatorID primitive.ObjectID, memberIDs ...primitive.ObjectID) models.Project {
	f.t.Helper()

	now := time.Now().UTC()
	project := models.Project{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Status:      models.ProjectActive,
		Priority:    models.PriorityMedium,
		CreatedBy:   creatorID,
		TeamMembers: []models.TeamMember{},
		Columns:     models.DefaultBoardColumns(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, id := range memberIDs {
		project.TeamMembers = append(project.TeamMembers, models.TeamMember{
			UserID:  id,
			Role:    "developer",
			AddedAt: now,
		})
	}
	if _, err := f.db.Collection("projects").InsertOne(ctx, project); err != nil {
		f.t.Fatalf("failed to create test project: %v", err)
	}
	return project
}

// CreateTask creates a test task in the given project.
func (f *Fixtures) CreateTask(ctx context.Context, projectID, creatorID primitive.ObjectID, title string) models.Task {
	f.t.Helper()

	now := time.Now().UTC()
	task := models.Task{
		ID:          primitive.NewObjectID(),
		Title:       title,
		ProjectID:   projectID,
		CreatedBy:   creatorID,
		Status:      models.TaskTodo,
		Priority:    models.PriorityMedium,
		BoardColumn: models.TaskTodo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("tasks").InsertOne(ctx, task); err != nil {
		f.t.Fatalf("failed to create test task: %v", err)
	}
	return task
}
