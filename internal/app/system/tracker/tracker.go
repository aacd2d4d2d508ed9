// internal/app/system/tracker/tracker.go
//
// Package tracker turns successful store writes into activity records
// and room broadcasts. Handlers call it after the write is confirmed;
// the order is always record first, then publish.
package tracker

import (
	"context"

	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/promanagehq/promanage/internal/app/realtime"
	"github.com/promanagehq/promanage/internal/app/store/activity"
	"github.com/promanagehq/promanage/internal/app/system/activitylog"
	"github.com/promanagehq/promanage/internal/domain/models"
)

// Actor identifies the user that performed a mutation.
type Actor struct {
	ID   primitive.ObjectID
	Name string
}

// Broadcaster is the slice of the hub the tracker needs.
type Broadcaster interface {
	Publish(projectID, event string, payload any, exclude *realtime.Client)
	PublishToUser(userID, event string, payload any)
}

// Recorder is the slice of the activity log the tracker needs.
type Recorder interface {
	Record(ctx context.Context, e activitylog.Entry) *activity.Record
}

// Tracker fans mutations out as activity records plus realtime events.
type Tracker struct {
	Hub      Broadcaster
	Recorder Recorder
	Blobs    storage.Store
	Log      *zap.Logger
}

func New(hub Broadcaster, rec Recorder, blobs storage.Store, logger *zap.Logger) *Tracker {
	return &Tracker{Hub: hub, Recorder: rec, Blobs: blobs, Log: logger}
}

// transition is one field change in an activity's change payload.
type transition struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// TaskCreated records the creation and announces the new task to the
// project room.
func (t *Tracker) TaskCreated(ctx context.Context, actor Actor, task *models.Task) {
	t.Recorder.Record(ctx, activitylog.Entry{
		UserID:     actor.ID,
		UserName:   actor.Name,
		Action:     activity.ActionCreated,
		Entity:     activity.EntityTask,
		EntityID:   task.ID,
		EntityName: task.Title,
		ProjectID:  &task.ProjectID,
		Changes: map[string]any{
			"status":   task.Status,
			"priority": task.Priority,
		},
	})
	t.Hub.Publish(task.ProjectID.Hex(), realtime.EventTaskCreated, map[string]any{
		"task": task,
	}, nil)
}

// TaskUpdated diffs the tracked fields of a task edit. An edit that
// touches none of them (a description tweak, say) produces no record
// and no event.
func (t *Tracker) TaskUpdated(ctx context.Context, actor Actor, before, after *models.Task) {
	changes := map[string]any{}
	action := activity.ActionUpdated

	if before.Status != after.Status {
		changes["status"] = transition{From: before.Status, To: after.Status}
		if after.Status == models.TaskCompleted {
			action = activity.ActionCompleted
		}
	}
	if before.Priority != after.Priority {
		changes["priority"] = transition{From: before.Priority, To: after.Priority}
	}
	if assigneeChanged(before.AssignedTo, after.AssignedTo) {
		changes["assignee"] = transition{From: hexOrNil(before.AssignedTo), To: hexOrNil(after.AssignedTo)}
		if action != activity.ActionCompleted {
			action = activity.ActionAssigned
		}
	}
	if before.BoardColumn != after.BoardColumn {
		changes["column"] = transition{From: before.BoardColumn, To: after.BoardColumn}
		if action == activity.ActionUpdated {
			action = activity.ActionMoved
		}
	}

	if len(changes) == 0 {
		return
	}

	t.Recorder.Record(ctx, activitylog.Entry{
		UserID:     actor.ID,
		UserName:   actor.Name,
		Action:     action,
		Entity:     activity.EntityTask,
		EntityID:   after.ID,
		EntityName: after.Title,
		ProjectID:  &after.ProjectID,
		Changes:    changes,
	})
	t.Hub.Publish(after.ProjectID.Hex(), realtime.EventTaskUpdated, map[string]any{
		"task": after,
	}, nil)
}

// TaskMoved always announces the new board position so open boards can
// reflect the drag, but only a column change is worth an activity
// record.
func (t *Tracker) TaskMoved(ctx context.Context, actor Actor, before, after *models.Task) {
	if before.BoardColumn != after.BoardColumn {
		t.Recorder.Record(ctx, activitylog.Entry{
			UserID:     actor.ID,
			UserName:   actor.Name,
			Action:     activity.ActionMoved,
			Entity:     activity.EntityTask,
			EntityID:   after.ID,
			EntityName: after.Title,
			ProjectID:  &after.ProjectID,
			Changes: map[string]any{
				"column": map[string]any{
					"fromColumn": before.BoardColumn,
					"toColumn":   after.BoardColumn,
				},
			},
		})
	}
	t.Hub.Publish(after.ProjectID.Hex(), realtime.EventTaskMoved, map[string]any{
		"taskId":        after.ID.Hex(),
		"boardColumn":   after.BoardColumn,
		"boardPosition": after.BoardPosition,
		"swimlane":      after.Swimlane,
		"project":       after.ProjectID.Hex(),
	}, nil)
}

// TaskDeleted records the deletion using the pre-read title, purges the
// task's attachment blobs, and announces the removal. Blob purge
// failures are logged and never block the delete.
func (t *Tracker) TaskDeleted(ctx context.Context, actor Actor, task *models.Task) {
	t.Recorder.Record(ctx, activitylog.Entry{
		UserID:     actor.ID,
		UserName:   actor.Name,
		Action:     activity.ActionDeleted,
		Entity:     activity.EntityTask,
		EntityID:   task.ID,
		EntityName: task.Title,
		ProjectID:  &task.ProjectID,
	})
	t.purgeAttachments(ctx, task.Attachments)
	t.Hub.Publish(task.ProjectID.Hex(), realtime.EventTaskDeleted, map[string]any{
		"id":      task.ID.Hex(),
		"project": task.ProjectID.Hex(),
	}, nil)
}

// CommentAdded records the comment with a truncated excerpt and
// announces it to the project room.
func (t *Tracker) CommentAdded(ctx context.Context, actor Actor, task *models.Task, comment *models.Comment) {
	t.Recorder.Record(ctx, activitylog.Entry{
		UserID:     actor.ID,
		UserName:   actor.Name,
		Action:     activity.ActionCommented,
		Entity:     activity.EntityComment,
		EntityID:   task.ID,
		EntityName: task.Title,
		ProjectID:  &task.ProjectID,
		Changes: map[string]any{
			"comment": Excerpt(comment.Text),
		},
	})
	t.Hub.Publish(task.ProjectID.Hex(), realtime.EventCommentAdded, map[string]any{
		"taskId":  task.ID.Hex(),
		"comment": comment,
		"project": task.ProjectID.Hex(),
	}, nil)
}

// FileUploaded records the upload and announces the new attachment.
func (t *Tracker) FileUploaded(ctx context.Context, actor Actor, task *models.Task, att *models.Attachment) {
	t.Recorder.Record(ctx, activitylog.Entry{
		UserID:     actor.ID,
		UserName:   actor.Name,
		Action:     activity.ActionUploaded,
		Entity:     activity.EntityFile,
		EntityID:   task.ID,
		EntityName: task.Title,
		ProjectID:  &task.ProjectID,
		Metadata: map[string]any{
			"fileName": att.Name,
		},
	})
	t.Hub.Publish(task.ProjectID.Hex(), realtime.EventFileUploaded, map[string]any{
		"taskId":     task.ID.Hex(),
		"attachment": att,
		"project":    task.ProjectID.Hex(),
	}, nil)
}

// FileDeleted purges the blob, records the removal, and announces it.
func (t *Tracker) FileDeleted(ctx context.Context, actor Actor, task *models.Task, att *models.Attachment) {
	t.Recorder.Record(ctx, activitylog.Entry{
		UserID:     actor.ID,
		UserName:   actor.Name,
		Action:     activity.ActionDeleted,
		Entity:     activity.EntityFile,
		EntityID:   task.ID,
		EntityName: task.Title,
		ProjectID:  &task.ProjectID,
		Metadata: map[string]any{
			"fileName": att.Name,
		},
	})
	t.purgeAttachments(ctx, []models.Attachment{*att})
	t.Hub.Publish(task.ProjectID.Hex(), realtime.EventFileDeleted, map[string]any{
		"taskId":  task.ID.Hex(),
		"fileId":  att.ID.Hex(),
		"project": task.ProjectID.Hex(),
	}, nil)
}

// FileDownloaded records the download. Downloads do not broadcast.
func (t *Tracker) FileDownloaded(ctx context.Context, actor Actor, task *models.Task, att *models.Attachment) {
	t.Recorder.Record(ctx, activitylog.Entry{
		UserID:     actor.ID,
		UserName:   actor.Name,
		Action:     activity.ActionDownloaded,
		Entity:     activity.EntityFile,
		EntityID:   task.ID,
		EntityName: task.Title,
		ProjectID:  &task.ProjectID,
		Metadata: map[string]any{
			"fileName": att.Name,
		},
	})
}

// ProjectCreated records the creation. There is no room to announce to
// yet; members join the room after the project exists.
func (t *Tracker) ProjectCreated(ctx context.Context, actor Actor, project *models.Project) {
	t.Recorder.Record(ctx, activitylog.Entry{
		UserID:     actor.ID,
		UserName:   actor.Name,
		Action:     activity.ActionCreated,
		Entity:     activity.EntityProject,
		EntityID:   project.ID,
		EntityName: project.Name,
		ProjectID:  &project.ID,
	})
}

// ProjectUpdated records the edit and announces it to the project room.
func (t *Tracker) ProjectUpdated(ctx context.Context, actor Actor, project *models.Project) {
	t.Recorder.Record(ctx, activitylog.Entry{
		UserID:     actor.ID,
		UserName:   actor.Name,
		Action:     activity.ActionUpdated,
		Entity:     activity.EntityProject,
		EntityID:   project.ID,
		EntityName: project.Name,
		ProjectID:  &project.ID,
	})
	t.Hub.Publish(project.ID.Hex(), realtime.EventProjectUpdated, map[string]any{
		"project": project,
	}, nil)
}

// ProjectDeleted records the deletion, purges the attachment blobs of
// the cascaded tasks, and announces the removal to the room.
func (t *Tracker) ProjectDeleted(ctx context.Context, actor Actor, project *models.Project, cascaded []models.Task) {
	t.Recorder.Record(ctx, activitylog.Entry{
		UserID:     actor.ID,
		UserName:   actor.Name,
		Action:     activity.ActionDeleted,
		Entity:     activity.EntityProject,
		EntityID:   project.ID,
		EntityName: project.Name,
		ProjectID:  &project.ID,
	})
	for i := range cascaded {
		t.purgeAttachments(ctx, cascaded[i].Attachments)
	}
	t.Hub.Publish(project.ID.Hex(), realtime.EventProjectDeleted, map[string]any{
		"id": project.ID.Hex(),
	}, nil)
}

// MemberAdded records the team change and tells the new member's open
// sessions directly, since they are not in the project room yet.
func (t *Tracker) MemberAdded(ctx context.Context, actor Actor, project *models.Project, member models.UserRef) {
	t.Recorder.Record(ctx, activitylog.Entry{
		UserID:     actor.ID,
		UserName:   actor.Name,
		Action:     activity.ActionUpdated,
		Entity:     activity.EntityProject,
		EntityID:   project.ID,
		EntityName: project.Name,
		ProjectID:  &project.ID,
		Metadata: map[string]any{
			"addedMember": member.Name,
		},
	})
	payload := map[string]any{"project": project}
	t.Hub.Publish(project.ID.Hex(), realtime.EventProjectUpdated, payload, nil)
	t.Hub.PublishToUser(member.ID.Hex(), realtime.EventProjectUpdated, payload)
}

func (t *Tracker) purgeAttachments(ctx context.Context, atts []models.Attachment) {
	if t.Blobs == nil {
		return
	}
	for i := range atts {
		if atts[i].Key == "" {
			continue
		}
		if err := t.Blobs.Delete(ctx, atts[i].Key); err != nil {
			t.Log.Warn("delete attachment blob",
				zap.String("key", atts[i].Key),
				zap.Error(err))
		}
	}
}

// Excerpt shortens comment text for activity payloads.
func Excerpt(text string) string {
	const max = 50
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}

func assigneeChanged(a, b *primitive.ObjectID) bool {
	switch {
	case a == nil && b == nil:
		return false
	case a == nil || b == nil:
		return true
	default:
		return *a != *b
	}
}

func hexOrNil(id *primitive.ObjectID) any {
	if id == nil {
		return nil
	}
	return id.Hex()
}
