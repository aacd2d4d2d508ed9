// internal/app/system/activitylog/recorder.go
package activitylog

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/promanagehq/promanage/internal/app/store/activity"
)

// Recorder writes activity records to MongoDB and mirrors them to
// structured logs. A storage fault never surfaces to the caller: the
// failure is logged and the mutation that triggered the record
// proceeds unaffected. A nil Recorder is safe to call.
type Recorder struct {
	store  *activity.Store
	zapLog *zap.Logger
}

// New creates a new activity Recorder.
func New(store *activity.Store, zapLog *zap.Logger) *Recorder {
	return &Recorder{store: store, zapLog: zapLog}
}

// Entry describes one activity to record. Action and Entity use the
// constants from the activity store.
type Entry struct {
	UserID     primitive.ObjectID
	UserName   string
	Action     string
	Entity     string
	EntityID   primitive.ObjectID
	EntityName string
	ProjectID  *primitive.ObjectID
	Changes    map[string]any
	Metadata   map[string]any
}

// Record persists one activity. The returned record is nil when
// persistence failed; callers never branch on it.
func (r *Recorder) Record(ctx context.Context, e Entry) *activity.Record {
	if r == nil || r.store == nil {
		return nil
	}

	rec, err := r.store.Insert(ctx, activity.Record{
		UserID:     e.UserID,
		UserName:   e.UserName,
		Action:     e.Action,
		Entity:     e.Entity,
		EntityID:   e.EntityID,
		EntityName: e.EntityName,
		ProjectID:  e.ProjectID,
		Changes:    e.Changes,
		Metadata:   e.Metadata,
	})
	if err != nil {
		r.zapLog.Error("record activity",
			zap.String("action", e.Action),
			zap.String("entity", e.Entity),
			zap.String("entity_id", e.EntityID.Hex()),
			zap.Error(err))
		return nil
	}

	r.zapLog.Debug("activity recorded",
		zap.String("action", e.Action),
		zap.String("entity", e.Entity),
		zap.String("entity_id", e.EntityID.Hex()),
		zap.String("user_id", e.UserID.Hex()))
	return &rec
}
