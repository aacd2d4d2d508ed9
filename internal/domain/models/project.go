// internal/domain/models/project.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Project status values.
const (
	ProjectPlanning  = "planning"
	ProjectActive    = "active"
	ProjectOnHold    = "on-hold"
	ProjectCompleted = "completed"
	ProjectCancelled = "cancelled"
)

// TeamMember links a user to a project with a role.
type TeamMember struct {
	UserID  primitive.ObjectID `bson:"user_id" json:"user_id"`
	Role    string             `bson:"role" json:"role"` // owner | manager | developer | designer | tester
	AddedAt time.Time          `bson:"added_at" json:"added_at"`
}

// BoardColumn is one column of a project's kanban board.
type BoardColumn struct {
	ID       string `bson:"id" json:"id"`
	Name     string `bson:"name" json:"name"`
	Position int    `bson:"position" json:"position"`
}

// DefaultBoardColumns returns the board layout new projects start with.
func DefaultBoardColumns() []BoardColumn {
	return []BoardColumn{
		{ID: "todo", Name: "To Do", Position: 0},
		{ID: "in-progress", Name: "In Progress", Position: 1},
		{ID: "review", Name: "Review", Position: 2},
		{ID: "completed", Name: "Completed", Position: 3},
	}
}

// Project is a unit of work owning tasks and a team.
type Project struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Status      string             `bson:"status" json:"status"`
	Priority    string             `bson:"priority" json:"priority"`
	StartDate   time.Time          `bson:"start_date" json:"start_date"`
	EndDate     time.Time          `bson:"end_date" json:"end_date"`
	CreatedBy   primitive.ObjectID `bson:"created_by" json:"created_by"`
	TeamMembers []TeamMember       `bson:"team_members" json:"team_members"`
	Tags        []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	Progress    int                `bson:"progress" json:"progress"`
	Columns     []BoardColumn      `bson:"columns" json:"columns"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasMember reports whether the user created the project or is on its team.
func (p *Project) HasMember(userID primitive.ObjectID) bool {
	if p.CreatedBy == userID {
		return true
	}
	for _, m := range p.TeamMembers {
		if m.UserID == userID {
			return true
		}
	}
	return false
}
