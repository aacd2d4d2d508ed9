package tracker

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/promanagehq/promanage/internal/app/realtime"
	"github.com/promanagehq/promanage/internal/app/store/activity"
	"github.com/promanagehq/promanage/internal/app/system/activitylog"
	"github.com/promanagehq/promanage/internal/domain/models"
)

type published struct {
	room    string
	event   string
	payload any
}

type fakeHub struct {
	events []published
	direct []published
}

func (f *fakeHub) Publish(projectID, event string, payload any, exclude *realtime.Client) {
	f.events = append(f.events, published{room: projectID, event: event, payload: payload})
}

func (f *fakeHub) PublishToUser(userID, event string, payload any) {
	f.direct = append(f.direct, published{room: userID, event: event, payload: payload})
}

type fakeRecorder struct {
	entries []activitylog.Entry
}

func (f *fakeRecorder) Record(ctx context.Context, e activitylog.Entry) *activity.Record {
	f.entries = append(f.entries, e)
	return &activity.Record{}
}

type fakeBlobs struct {
	storage.Store
	deleted []string
}

func (f *fakeBlobs) Delete(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func newTestTracker() (*Tracker, *fakeHub, *fakeRecorder, *fakeBlobs) {
	hub := &fakeHub{}
	rec := &fakeRecorder{}
	blobs := &fakeBlobs{}
	return New(hub, rec, blobs, zap.NewNop()), hub, rec, blobs
}

func testActor() Actor {
	return Actor{ID: primitive.NewObjectID(), Name: "Ada"}
}

func baseTask() *models.Task {
	return &models.Task{
		ID:          primitive.NewObjectID(),
		Title:       "Wire up billing",
		ProjectID:   primitive.NewObjectID(),
		Status:      models.TaskTodo,
		Priority:    models.PriorityMedium,
		BoardColumn: models.TaskTodo,
	}
}

func TestTaskUpdatedIgnoresUntrackedChanges(t *testing.T) {
	trk, hub, rec, _ := newTestTracker()

	before := baseTask()
	after := *before
	after.Description = "new description"

	trk.TaskUpdated(context.Background(), testActor(), before, &after)

	if len(rec.entries) != 0 {
		t.Errorf("description-only edit recorded activity: %+v", rec.entries)
	}
	if len(hub.events) != 0 {
		t.Errorf("description-only edit published events: %+v", hub.events)
	}
}

func TestTaskUpdatedActionPrecedence(t *testing.T) {
	assignee := primitive.NewObjectID()

	cases := []struct {
		name   string
		mutate func(*models.Task)
		want   string
	}{
		{"status to completed wins", func(task *models.Task) {
			task.Status = models.TaskCompleted
			task.AssignedTo = &assignee
			task.BoardColumn = models.TaskCompleted
		}, activity.ActionCompleted},
		{"assignee beats move", func(task *models.Task) {
			task.AssignedTo = &assignee
			task.BoardColumn = models.TaskInProgress
		}, activity.ActionAssigned},
		{"column change alone is a move", func(task *models.Task) {
			task.BoardColumn = models.TaskReview
		}, activity.ActionMoved},
		{"priority change is an update", func(task *models.Task) {
			task.Priority = models.PriorityHigh
		}, activity.ActionUpdated},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			trk, hub, rec, _ := newTestTracker()
			before := baseTask()
			after := *before
			tc.mutate(&after)

			trk.TaskUpdated(context.Background(), testActor(), before, &after)

			if len(rec.entries) != 1 {
				t.Fatalf("recorded entries: got %d, want 1", len(rec.entries))
			}
			if rec.entries[0].Action != tc.want {
				t.Errorf("action: got %s, want %s", rec.entries[0].Action, tc.want)
			}
			if len(hub.events) != 1 || hub.events[0].event != realtime.EventTaskUpdated {
				t.Errorf("expected one task:updated event, got %+v", hub.events)
			}
		})
	}
}

func TestTaskMovedRecordsOnlyOnColumnChange(t *testing.T) {
	trk, hub, rec, _ := newTestTracker()

	before := baseTask()
	after := *before
	after.BoardPosition = 3

	trk.TaskMoved(context.Background(), testActor(), before, &after)

	if len(rec.entries) != 0 {
		t.Errorf("same-column move recorded activity: %+v", rec.entries)
	}
	if len(hub.events) != 1 || hub.events[0].event != realtime.EventTaskMoved {
		t.Fatalf("expected task:moved event, got %+v", hub.events)
	}

	after2 := *before
	after2.BoardColumn = models.TaskInProgress
	trk.TaskMoved(context.Background(), testActor(), before, &after2)

	if len(rec.entries) != 1 {
		t.Fatalf("column move entries: got %d, want 1", len(rec.entries))
	}
	col, ok := rec.entries[0].Changes["column"].(map[string]any)
	if !ok {
		t.Fatalf("changes.column missing: %+v", rec.entries[0].Changes)
	}
	if col["fromColumn"] != models.TaskTodo || col["toColumn"] != models.TaskInProgress {
		t.Errorf("column transition: got %+v", col)
	}
}

func TestTaskDeletedPurgesBlobs(t *testing.T) {
	trk, hub, rec, blobs := newTestTracker()

	task := baseTask()
	task.Attachments = []models.Attachment{
		{ID: primitive.NewObjectID(), Name: "spec.pdf", Key: "attachments/2026/01/a-spec.pdf"},
		{ID: primitive.NewObjectID(), Name: "mock.png", Key: "attachments/2026/01/b-mock.png"},
	}

	trk.TaskDeleted(context.Background(), testActor(), task)

	if len(blobs.deleted) != 2 {
		t.Errorf("deleted blobs: got %d, want 2 (%v)", len(blobs.deleted), blobs.deleted)
	}
	if len(rec.entries) != 1 || rec.entries[0].Action != activity.ActionDeleted {
		t.Errorf("expected one deleted record, got %+v", rec.entries)
	}
	if rec.entries[0].EntityName != task.Title {
		t.Errorf("entity name snapshot: got %q, want %q", rec.entries[0].EntityName, task.Title)
	}
	if len(hub.events) != 1 || hub.events[0].event != realtime.EventTaskDeleted {
		t.Errorf("expected task:deleted event, got %+v", hub.events)
	}
}

func TestCommentAddedTruncatesExcerpt(t *testing.T) {
	trk, hub, rec, _ := newTestTracker()

	task := baseTask()
	long := strings.Repeat("x", 80)
	comment := &models.Comment{
		ID:        primitive.NewObjectID(),
		UserID:    primitive.NewObjectID(),
		Text:      long,
		CreatedAt: time.Now().UTC(),
	}

	trk.CommentAdded(context.Background(), testActor(), task, comment)

	if len(rec.entries) != 1 {
		t.Fatalf("recorded entries: got %d, want 1", len(rec.entries))
	}
	excerpt, _ := rec.entries[0].Changes["comment"].(string)
	want := strings.Repeat("x", 50) + "..."
	if excerpt != want {
		t.Errorf("excerpt: got %q, want %q", excerpt, want)
	}
	if len(hub.events) != 1 || hub.events[0].event != realtime.EventCommentAdded {
		t.Errorf("expected comment:added event, got %+v", hub.events)
	}
}

func TestExcerptShortTextUnchanged(t *testing.T) {
	if got := Excerpt("short note"); got != "short note" {
		t.Errorf("short excerpt: got %q", got)
	}
	exact := strings.Repeat("y", 50)
	if got := Excerpt(exact); got != exact {
		t.Errorf("50-rune excerpt should be unchanged, got %q", got)
	}
}

func TestFileDeletedPurgesSingleBlob(t *testing.T) {
	trk, hub, rec, blobs := newTestTracker()

	task := baseTask()
	att := &models.Attachment{
		ID:   primitive.NewObjectID(),
		Name: "notes.txt",
		Key:  "attachments/2026/02/c-notes.txt",
	}

	trk.FileDeleted(context.Background(), testActor(), task, att)

	if len(blobs.deleted) != 1 || blobs.deleted[0] != att.Key {
		t.Errorf("deleted blobs: got %v", blobs.deleted)
	}
	if len(rec.entries) != 1 || rec.entries[0].Entity != activity.EntityFile {
		t.Errorf("expected file entity record, got %+v", rec.entries)
	}
	if len(hub.events) != 1 || hub.events[0].event != realtime.EventFileDeleted {
		t.Errorf("expected file:deleted event, got %+v", hub.events)
	}
}

func TestProjectDeletedPurgesCascadedAttachments(t *testing.T) {
	trk, _, rec, blobs := newTestTracker()

	project := &models.Project{ID: primitive.NewObjectID(), Name: "Apollo"}
	cascaded := []models.Task{
		{Attachments: []models.Attachment{{Key: "k1"}, {Key: "k2"}}},
		{Attachments: []models.Attachment{{Key: "k3"}}},
	}

	trk.ProjectDeleted(context.Background(), testActor(), project, cascaded)

	if len(blobs.deleted) != 3 {
		t.Errorf("deleted blobs: got %v", blobs.deleted)
	}
	if len(rec.entries) != 1 || rec.entries[0].Entity != activity.EntityProject {
		t.Errorf("expected project record, got %+v", rec.entries)
	}
}
