// internal/app/features/activities/handler_test.go
package activities

import (
	"encoding/json"
	"net/http"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/promanagehq/promanage/internal/app/store/activity"
	projectstore "github.com/promanagehq/promanage/internal/app/store/projects"
	"github.com/promanagehq/promanage/internal/testutil"
)

type listBody struct {
	Success    bool  `json:"success"`
	Count      int   `json:"count"`
	Total      int64 `json:"total"`
	Pagination struct {
		Page  int `json:"page"`
		Limit int `json:"limit"`
		Pages int `json:"pages"`
	} `json:"pagination"`
	Data []activity.Record `json:"data"`
}

func decodeList(t *testing.T, rec *testutil.ResponseRecorder) listBody {
	t.Helper()
	var body listBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func seedActivity(t *testing.T, store *activity.Store, projectID, userID primitive.ObjectID, n int) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	for i := 0; i < n; i++ {
		if _, err := store.Insert(ctx, activity.Record{
			UserID:    userID,
			UserName:  "Seed User",
			Action:    activity.ActionUpdated,
			Entity:    activity.EntityTask,
			EntityID:  primitive.NewObjectID(),
			ProjectID: &projectID,
		}); err != nil {
			t.Fatalf("seed activity: %v", err)
		}
	}
}

func TestListScopedToAccessibleProjects(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fix := testutil.NewFixtures(t, db)

	ada := fix.CreateUser(ctx, "Ada", "ada@test.com", "member")
	ben := fix.CreateUser(ctx, "Ben", "ben@test.com", "member")
	projectA := fix.CreateProject(ctx, "Project A", ada.ID)
	projectB := fix.CreateProject(ctx, "Project B", ben.ID)

	activityStore := activity.New(db)
	seedActivity(t, activityStore, projectA.ID, ada.ID, 2)
	seedActivity(t, activityStore, projectB.ID, ben.ID, 3)

	h := NewHandler(activityStore, projectstore.New(db), zap.NewNop())

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/api/activities", testutil.UserFor(ada))
	rec := testutil.NewRecorder()
	h.HandleList(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusOK)
	body := decodeList(t, rec)
	if body.Total != 2 {
		t.Errorf("ada's feed total: got %d, want 2", body.Total)
	}
	for _, r := range body.Data {
		if r.ProjectID == nil || *r.ProjectID != projectA.ID {
			t.Errorf("leaked record from another project: %+v", r)
		}
	}
}

func TestListEmptyForUserWithNoProjects(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fix := testutil.NewFixtures(t, db)

	ada := fix.CreateUser(ctx, "Ada", "ada@test.com", "member")
	loner := fix.CreateUser(ctx, "Lone", "lone@test.com", "member")
	projectA := fix.CreateProject(ctx, "Project A", ada.ID)

	activityStore := activity.New(db)
	seedActivity(t, activityStore, projectA.ID, ada.ID, 4)

	h := NewHandler(activityStore, projectstore.New(db), zap.NewNop())

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/api/activities", testutil.UserFor(loner))
	rec := testutil.NewRecorder()
	h.HandleList(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusOK)
	body := decodeList(t, rec)
	if body.Total != 0 || len(body.Data) != 0 {
		t.Errorf("projectless user saw activity: %+v", body)
	}
}

func TestListByProjectForbiddenForNonMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fix := testutil.NewFixtures(t, db)

	ada := fix.CreateUser(ctx, "Ada", "ada@test.com", "member")
	ben := fix.CreateUser(ctx, "Ben", "ben@test.com", "member")
	projectA := fix.CreateProject(ctx, "Project A", ada.ID)

	activityStore := activity.New(db)
	seedActivity(t, activityStore, projectA.ID, ada.ID, 1)

	h := NewHandler(activityStore, projectstore.New(db), zap.NewNop())

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/api/activities/project/"+projectA.ID.Hex(), testutil.UserFor(ben))
	req = testutil.WithChiURLParam(req, "projectID", projectA.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleListByProject(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusForbidden)
}

func TestListByProjectPaginates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fix := testutil.NewFixtures(t, db)

	ada := fix.CreateUser(ctx, "Ada", "ada@test.com", "member")
	projectA := fix.CreateProject(ctx, "Project A", ada.ID)

	activityStore := activity.New(db)
	seedActivity(t, activityStore, projectA.ID, ada.ID, 25)

	h := NewHandler(activityStore, projectstore.New(db), zap.NewNop())

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/api/activities/project/"+projectA.ID.Hex()+"?page=2&limit=10", testutil.UserFor(ada))
	req = testutil.WithChiURLParam(req, "projectID", projectA.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleListByProject(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusOK)
	body := decodeList(t, rec)
	if body.Count != 10 || body.Total != 25 {
		t.Errorf("page 2: count %d total %d", body.Count, body.Total)
	}
	if body.Pagination.Page != 2 || body.Pagination.Pages != 3 {
		t.Errorf("pagination: %+v", body.Pagination)
	}
}

func TestListByUserHidesProjectsCallerLeft(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fix := testutil.NewFixtures(t, db)

	ada := fix.CreateUser(ctx, "Ada", "ada@test.com", "member")
	ben := fix.CreateUser(ctx, "Ben", "ben@test.com", "member")
	projectA := fix.CreateProject(ctx, "Project A", ada.ID)
	// Ada authored activity here but is no longer a member.
	projectB := fix.CreateProject(ctx, "Project B", ben.ID)

	activityStore := activity.New(db)
	seedActivity(t, activityStore, projectA.ID, ada.ID, 2)
	seedActivity(t, activityStore, projectB.ID, ada.ID, 3)

	h := NewHandler(activityStore, projectstore.New(db), zap.NewNop())

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/api/activities/user/"+ada.ID.Hex(), testutil.UserFor(ada))
	req = testutil.WithChiURLParam(req, "userID", ada.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleListByUser(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusOK)
	body := decodeList(t, rec)
	if body.Total != 2 {
		t.Errorf("own history total: got %d, want 2", body.Total)
	}
	for _, r := range body.Data {
		if r.ProjectID == nil || *r.ProjectID != projectA.ID {
			t.Errorf("record from inaccessible project leaked: %+v", r)
		}
	}

	// Admins still see the full history.
	admin := fix.CreateUser(ctx, "Root", "root@test.com", "admin")
	req = testutil.NewAuthenticatedRequest(http.MethodGet, "/api/activities/user/"+ada.ID.Hex(), testutil.UserFor(admin))
	req = testutil.WithChiURLParam(req, "userID", ada.ID.Hex())
	rec = testutil.NewRecorder()
	h.HandleListByUser(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)
	if body := decodeList(t, rec); body.Total != 5 {
		t.Errorf("admin view total: got %d, want 5", body.Total)
	}
}

func TestListByUserSelfAndAdminOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fix := testutil.NewFixtures(t, db)

	ada := fix.CreateUser(ctx, "Ada", "ada@test.com", "member")
	ben := fix.CreateUser(ctx, "Ben", "ben@test.com", "member")
	admin := fix.CreateUser(ctx, "Root", "root@test.com", "admin")
	projectA := fix.CreateProject(ctx, "Project A", ada.ID)

	activityStore := activity.New(db)
	seedActivity(t, activityStore, projectA.ID, ada.ID, 3)

	h := NewHandler(activityStore, projectstore.New(db), zap.NewNop())

	// Self access is allowed.
	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/api/activities/user/"+ada.ID.Hex(), testutil.UserFor(ada))
	req = testutil.WithChiURLParam(req, "userID", ada.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleListByUser(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)
	if body := decodeList(t, rec); body.Total != 3 {
		t.Errorf("self history total: got %d, want 3", body.Total)
	}

	// Another member is forbidden.
	req = testutil.NewAuthenticatedRequest(http.MethodGet, "/api/activities/user/"+ada.ID.Hex(), testutil.UserFor(ben))
	req = testutil.WithChiURLParam(req, "userID", ada.ID.Hex())
	rec = testutil.NewRecorder()
	h.HandleListByUser(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusForbidden)

	// Admins can read anyone's history.
	req = testutil.NewAuthenticatedRequest(http.MethodGet, "/api/activities/user/"+ada.ID.Hex(), testutil.UserFor(admin))
	req = testutil.WithChiURLParam(req, "userID", ada.ID.Hex())
	rec = testutil.NewRecorder()
	h.HandleListByUser(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)
}
