package taskstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/promanagehq/promanage/internal/domain/models"
)

var (
	errTitleRequired   = errors.New("task title is required")
	errProjectRequired = errors.New("task must belong to a project")
	errBadStatus       = errors.New(`status must be "todo"|"in-progress"|"review"|"completed"|"blocked"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("tasks")}
}

// EnsureIndexes creates the indexes list queries depend on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "project_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_tasks_project_status"),
		},
		{
			Keys:    bson.D{{Key: "assigned_to", Value: 1}},
			Options: options.Index().SetName("idx_tasks_assignee"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// GetByID loads a task. Returns mongo.ErrNoDocuments if absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	var t models.Task
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListByProject returns a project's tasks, newest first.
func (s *Store) ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Task, error) {
	return s.list(ctx, bson.M{"project_id": projectID})
}

// ListByProjects returns tasks across the given projects, newest first.
func (s *Store) ListByProjects(ctx context.Context, projectIDs []primitive.ObjectID) ([]models.Task, error) {
	return s.list(ctx, bson.M{"project_id": bson.M{"$in": projectIDs}})
}

func (s *Store) list(ctx context.Context, q bson.M) ([]models.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var tasks []models.Task
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Create inserts a task with defaults applied.
func (s *Store) Create(ctx context.Context, t models.Task) (models.Task, error) {
	t.ID = primitive.NewObjectID()
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return models.Task{}, errTitleRequired
	}
	if t.ProjectID.IsZero() {
		return models.Task{}, errProjectRequired
	}
	if t.Status == "" {
		t.Status = models.TaskTodo
	}
	switch t.Status {
	case models.TaskTodo, models.TaskInProgress, models.TaskReview,
		models.TaskCompleted, models.TaskBlocked:
	default:
		return models.Task{}, errBadStatus
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	if t.BoardColumn == "" {
		t.BoardColumn = t.Status
	}

	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// Update holds updatable task fields; nil means leave unchanged.
type Update struct {
	Title         *string
	Description   *string
	Status        *string
	Priority      *string
	AssignedTo    *primitive.ObjectID
	ClearAssignee bool
	DueDate       *time.Time
	Tags          []string
}

// Apply updates a task and returns the new document. A status
// transition to completed stamps CompletedAt once.
func (s *Store) Apply(ctx context.Context, id primitive.ObjectID, upd Update) (*models.Task, error) {
	now := time.Now().UTC()
	set := bson.M{"updated_at": now}
	unset := bson.M{}
	if upd.Title != nil {
		set["title"] = strings.TrimSpace(*upd.Title)
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Status != nil {
		set["status"] = *upd.Status
		if *upd.Status == models.TaskCompleted {
			set["completed_at"] = now
		}
	}
	if upd.Priority != nil {
		set["priority"] = *upd.Priority
	}
	if upd.ClearAssignee {
		unset["assigned_to"] = ""
	} else if upd.AssignedTo != nil {
		set["assigned_to"] = *upd.AssignedTo
	}
	if upd.DueDate != nil {
		set["due_date"] = *upd.DueDate
	}
	if upd.Tags != nil {
		set["tags"] = upd.Tags
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var t models.Task
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Position describes a board placement update.
type Position struct {
	BoardColumn   string
	BoardPosition int
	Swimlane      string
}

// SetPosition moves a task on the board and returns the new document.
// When the column is a status-backed column, status follows the column.
func (s *Store) SetPosition(ctx context.Context, id primitive.ObjectID, pos Position) (*models.Task, error) {
	set := bson.M{
		"board_column":   pos.BoardColumn,
		"board_position": pos.BoardPosition,
		"swimlane":       pos.Swimlane,
		"updated_at":     time.Now().UTC(),
	}
	switch pos.BoardColumn {
	case models.TaskTodo, models.TaskInProgress, models.TaskReview, models.TaskCompleted:
		set["status"] = pos.BoardColumn
		if pos.BoardColumn == models.TaskCompleted {
			set["completed_at"] = time.Now().UTC()
		}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var t models.Task
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// AddComment appends an embedded comment and returns the stored comment.
func (s *Store) AddComment(ctx context.Context, taskID, userID primitive.ObjectID, text string) (*models.Comment, error) {
	comment := models.Comment{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	update := bson.M{
		"$push": bson.M{"comments": comment},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": taskID}, update)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, mongo.ErrNoDocuments
	}
	return &comment, nil
}

// AddAttachment appends attachment metadata to the task.
func (s *Store) AddAttachment(ctx context.Context, taskID primitive.ObjectID, att models.Attachment) error {
	update := bson.M{
		"$push": bson.M{"attachments": att},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": taskID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// RemoveAttachment pulls attachment metadata off the task.
func (s *Store) RemoveAttachment(ctx context.Context, taskID, fileID primitive.ObjectID) error {
	update := bson.M{
		"$pull": bson.M{"attachments": bson.M{"_id": fileID}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": taskID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes the task document.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// DeleteByProject removes every task in a project (project-delete
// cascade) and returns the removed tasks so attachment blobs can be
// purged.
func (s *Store) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Task, error) {
	tasks, err := s.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if _, err := s.c.DeleteMany(ctx, bson.M{"project_id": projectID}); err != nil {
		return nil, err
	}
	return tasks, nil
}
