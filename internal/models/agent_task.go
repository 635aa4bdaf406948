// internal/models/agent_task.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// AgentTask maps public.agent_tasks: a mission assigned to a user. Tasks are
// archived, never deleted.
type AgentTask struct {
	ID                 uuid.UUID          `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID             uuid.UUID          `json:"user_id" gorm:"type:uuid;not null"`
	AgentID            string             `json:"agent_id" gorm:"not null"`
	ConversationID     *uuid.UUID         `json:"conversation_id" gorm:"type:uuid"`
	Title              string             `json:"title" gorm:"not null"`
	Description        string             `json:"description"`
	Relevance          TaskRelevance      `json:"relevance" gorm:"not null;default:'medium'"`
	ProgressPercentage int                `json:"progress_percentage" gorm:"not null;default:0"`
	Status             TaskStatus         `json:"status" gorm:"not null;default:'pending'"`
	Priority           int                `json:"priority" gorm:"not null;default:3"`
	DueDate            *time.Time         `json:"due_date"`
	CompletedAt        *time.Time         `json:"completed_at"`
	Subtasks           JSONArray          `json:"subtasks" gorm:"type:jsonb"`
	Notes              string             `json:"notes"`
	StepsCompleted     JSONB              `json:"steps_completed" gorm:"type:jsonb"`
	Resources          JSONArray          `json:"resources" gorm:"type:jsonb"`
	TimeSpent          int                `json:"time_spent" gorm:"default:0"`
	IsArchived         bool               `json:"is_archived" gorm:"not null;default:false"`
	Environment        string             `json:"environment" gorm:"not null;default:'production'"`
	DeliverableType    *string            `json:"deliverable_type"`
	MilestoneCategory  *MilestoneCategory `json:"milestone_category"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

func (AgentTask) TableName() string {
	return "agent_tasks"
}

// ClampPriority keeps priority inside the 1..5 range enforced by the table.
func ClampPriority(p int) int {
	if p < 1 {
		return 1
	}
	if p > 5 {
		return 5
	}
	return p
}
