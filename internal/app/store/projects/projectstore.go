package projectstore

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
	errNameRequired = errors.New("project name is required")
	errBadStatus    = errors.New(`status must be "planning"|"active"|"on-hold"|"completed"|"cancelled"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("projects")}
}

// EnsureIndexes creates the indexes access queries depend on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "created_by", Value: 1}},
			Options: options.Index().SetName("idx_projects_creator"),
		},
		{
			Keys:    bson.D{{Key: "team_members.user_id", Value: 1}},
			Options: options.Index().SetName("idx_projects_members"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// GetByID loads a project. Returns mongo.ErrNoDocuments if absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	var p models.Project
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// accessibleQuery matches projects the user created or is a team member of.
func accessibleQuery(userID primitive.ObjectID) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"created_by": userID},
		bson.M{"team_members.user_id": userID},
	}}
}

// ListForUser returns all projects the user can access, newest first.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Project, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, accessibleQuery(userID), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var projects []models.Project
	if err := cur.All(ctx, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// AccessibleIDs returns the IDs of every project where the user is the
// creator or a team member. Activity queries use this to scope results
// when no explicit project filter is given.
func (s *Store) AccessibleIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cur, err := s.c.Find(ctx, accessibleQuery(userID), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}

// CanAccess reports whether the user created the project or is on its
// team. Returns mongo.ErrNoDocuments if the project does not exist.
func (s *Store) CanAccess(ctx context.Context, projectID, userID primitive.ObjectID) (bool, error) {
	p, err := s.GetByID(ctx, projectID)
	if err != nil {
		return false, err
	}
	return p.HasMember(userID), nil
}

// Create inserts a project with defaults applied.
func (s *Store) Create(ctx context.Context, p models.Project) (models.Project, error) {
	p.ID = primitive.NewObjectID()
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return models.Project{}, errNameRequired
	}
	if p.Status == "" {
		p.Status = models.ProjectPlanning
	}
	switch p.Status {
	case models.ProjectPlanning, models.ProjectActive, models.ProjectOnHold,
		models.ProjectCompleted, models.ProjectCancelled:
	default:
		return models.Project{}, errBadStatus
	}
	if p.Priority == "" {
		p.Priority = models.PriorityMedium
	}
	if len(p.Columns) == 0 {
		p.Columns = models.DefaultBoardColumns()
	}
	if p.TeamMembers == nil {
		p.TeamMembers = []models.TeamMember{}
	}

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Project{}, err
	}
	return p, nil
}

// Update holds updatable project fields; nil means leave unchanged.
type Update struct {
	Name        *string
	Description *string
	Status      *string
	Priority    *string
	StartDate   *time.Time
	EndDate     *time.Time
	Tags        []string
	Progress    *int
}

// Apply updates a project and returns the new document.
func (s *Store) Apply(ctx context.Context, id primitive.ObjectID, upd Update) (*models.Project, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		set["name"] = strings.TrimSpace(*upd.Name)
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Status != nil {
		set["status"] = *upd.Status
	}
	if upd.Priority != nil {
		set["priority"] = *upd.Priority
	}
	if upd.StartDate != nil {
		set["start_date"] = *upd.StartDate
	}
	if upd.EndDate != nil {
		set["end_date"] = *upd.EndDate
	}
	if upd.Tags != nil {
		set["tags"] = upd.Tags
	}
	if upd.Progress != nil {
		set["progress"] = *upd.Progress
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.Project
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// AddTeamMember appends a member if not already present.
func (s *Store) AddTeamMember(ctx context.Context, projectID primitive.ObjectID, m models.TeamMember) (*models.Project, error) {
	if m.AddedAt.IsZero() {
		m.AddedAt = time.Now().UTC()
	}
	filter := bson.M{"_id": projectID, "team_members.user_id": bson.M{"$ne": m.UserID}}
	update := bson.M{
		"$push": bson.M{"team_members": m},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.Project
	err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p)
	if err == mongo.ErrNoDocuments {
		// Already a member or project absent; return current state.
		return s.GetByID(ctx, projectID)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes the project document. Task cascade is the caller's
// responsibility (tasks store owns that collection).
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
