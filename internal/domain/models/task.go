// internal/domain/models/task.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task status values.
const (
	TaskTodo       = "todo"
	TaskInProgress = "in-progress"
	TaskReview     = "review"
	TaskCompleted  = "completed"
	TaskBlocked    = "blocked"
)

// Priority values shared by tasks and projects.
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// Comment is embedded on the task document.
type Comment struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Attachment describes a blob stored outside Mongo. Key is the storage
// path used for deletion.
type Attachment struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Key        string             `bson:"key" json:"key"`
	Size       int64              `bson:"size" json:"size"`
	Type       string             `bson:"type,omitempty" json:"type,omitempty"`
	UploadedBy primitive.ObjectID `bson:"uploaded_by" json:"uploaded_by"`
	UploadedAt time.Time          `bson:"uploaded_at" json:"uploaded_at"`
}

// Task belongs to a project and carries board placement for the kanban
// view alongside the usual workflow fields.
type Task struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title       string              `bson:"title" json:"title"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	ProjectID   primitive.ObjectID  `bson:"project_id" json:"project_id"`
	AssignedTo  *primitive.ObjectID `bson:"assigned_to,omitempty" json:"assigned_to,omitempty"`
	CreatedBy   primitive.ObjectID  `bson:"created_by" json:"created_by"`
	Status      string              `bson:"status" json:"status"`
	Priority    string              `bson:"priority" json:"priority"`
	DueDate     *time.Time          `bson:"due_date,omitempty" json:"due_date,omitempty"`
	Tags        []string            `bson:"tags,omitempty" json:"tags,omitempty"`

	// Kanban board placement
	BoardColumn   string `bson:"board_column" json:"board_column"`
	BoardPosition int    `bson:"board_position" json:"board_position"`
	Swimlane      string `bson:"swimlane,omitempty" json:"swimlane,omitempty"`

	Comments    []Comment    `bson:"comments,omitempty" json:"comments,omitempty"`
	Attachments []Attachment `bson:"attachments,omitempty" json:"attachments,omitempty"`

	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}
