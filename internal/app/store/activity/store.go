// internal/app/store/activity/store.go
package activity

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Action values. Every record carries exactly one.
const (
	ActionCreated    = "created"
	ActionUpdated    = "updated"
	ActionDeleted    = "deleted"
	ActionCommented  = "commented"
	ActionAssigned   = "assigned"
	ActionCompleted  = "completed"
	ActionMoved      = "moved"
	ActionUploaded   = "uploaded"
	ActionDownloaded = "downloaded"
)

// Entity kinds an action can apply to.
const (
	EntityTask    = "task"
	EntityProject = "project"
	EntityUser    = "user"
	EntityComment = "comment"
	EntityFile    = "file"
)

// Record is one immutable audit-log entry for a user-caused mutation.
// EntityName is a snapshot taken at write time so listings never need
// to resolve an entity that may since have been deleted. ProjectID is
// nil only for user-entity actions with no project context.
type Record struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID  `bson:"user_id" json:"user_id"`
	UserName   string              `bson:"user_name" json:"user_name"`
	Action     string              `bson:"action" json:"action"`
	Entity     string              `bson:"entity" json:"entity"`
	EntityID   primitive.ObjectID  `bson:"entity_id" json:"entity_id"`
	EntityName string              `bson:"entity_name" json:"entity_name"`
	ProjectID  *primitive.ObjectID `bson:"project_id,omitempty" json:"project_id,omitempty"`
	Changes    map[string]any      `bson:"changes,omitempty" json:"changes,omitempty"`
	Metadata   map[string]any      `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt  time.Time           `bson:"created_at" json:"created_at"`
}

// Filter restricts a List query. ProjectIDs and ProjectID are mutually
// exclusive; callers without an explicit project filter must pass the
// set of projects the requesting user can access (ProjectIDs) so the
// result never leaks activity from inaccessible projects.
type Filter struct {
	ProjectID  *primitive.ObjectID
	ProjectIDs []primitive.ObjectID
	UserID     *primitive.ObjectID
	Entity     string
}

// Page is 1-based page/limit pagination.
type Page struct {
	Page  int
	Limit int
}

// Store manages the append-only activity collection.
type Store struct {
	c *mongo.Collection
}

// New creates a Store over the "activities" collection.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("activities")}
}

// EnsureIndexes creates the indexes List depends on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "project_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_activity_project"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_activity_user"),
		},
		{
			Keys:    bson.D{{Key: "entity", Value: 1}, {Key: "entity_id", Value: 1}},
			Options: options.Index().SetName("idx_activity_entity"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_activity_created"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Insert appends a record, filling ID and CreatedAt if unset. Records
// are never updated or deleted after this point.
func (s *Store) Insert(ctx context.Context, rec Record) (Record, error) {
	if rec.ID.IsZero() {
		rec.ID = primitive.NewObjectID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, rec)
	return rec, err
}

func (f Filter) query() bson.M {
	q := bson.M{}
	if len(f.ProjectIDs) > 0 {
		q["project_id"] = bson.M{"$in": f.ProjectIDs}
	} else if f.ProjectID != nil {
		q["project_id"] = *f.ProjectID
	}
	if f.UserID != nil {
		q["user_id"] = *f.UserID
	}
	if f.Entity != "" {
		q["entity"] = f.Entity
	}
	return q
}

// normalize applies the pagination defaults: page 1, limit 20.
func (p Page) normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 20
	}
	return p
}

// List returns one page of records newest-first plus the total match
// count across all pages.
func (s *Store) List(ctx context.Context, filter Filter, page Page) ([]Record, int64, error) {
	page = page.normalize()
	q := filter.query()

	total, err := s.c.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page.Page - 1) * page.Limit)).
		SetLimit(int64(page.Limit))

	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var records []Record
	if err := cur.All(ctx, &records); err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// CountByEntity returns how many records reference the given entity.
func (s *Store) CountByEntity(ctx context.Context, entity string, entityID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"entity": entity, "entity_id": entityID})
}
