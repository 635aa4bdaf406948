// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, err := jsonBytes(value)
	if err != nil {
		return err
	}

	return json.Unmarshal(bytes, j)
}

// String returns the string stored under key, or "".
func (j JSONB) String(key string) string {
	if j == nil {
		return ""
	}
	if s, ok := j[key].(string); ok {
		return s
	}
	return ""
}

// JSONArray is a jsonb column holding a list (colors, certifications, subtasks).
type JSONArray []interface{}

func (a JSONArray) Value() (driver.Value, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}

func (a *JSONArray) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}

	bytes, err := jsonBytes(value)
	if err != nil {
		return err
	}

	return json.Unmarshal(bytes, a)
}

func jsonBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported jsonb scan type %T", value)
	}
}

// Enums
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleShopOwner Role = "shop_owner"
)

type CreationStatus string

const (
	CreationStatusDraft      CreationStatus = "draft"
	CreationStatusIncomplete CreationStatus = "incomplete"
	CreationStatusComplete   CreationStatus = "complete"
)

type PublishStatus string

const (
	PublishStatusPending   PublishStatus = "pending_publish"
	PublishStatusPublished PublishStatus = "published"
)

type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

type BankDataStatus string

const (
	BankDataStatusNotSet   BankDataStatus = "not_set"
	BankDataStatusPending  BankDataStatus = "pending"
	BankDataStatusApproved BankDataStatus = "approved"
)

type ModerationStatus string

const (
	ModerationStatusDraft             ModerationStatus = "draft"
	ModerationStatusPending           ModerationStatus = "pending_moderation"
	ModerationStatusApproved          ModerationStatus = "approved"
	ModerationStatusApprovedWithEdits ModerationStatus = "approved_with_edits"
	ModerationStatusChangesRequested  ModerationStatus = "changes_requested"
	ModerationStatusRejected          ModerationStatus = "rejected"
	ModerationStatusArchived          ModerationStatus = "archived"
)

// Visible reports whether a product in this state may appear in the marketplace.
func (s ModerationStatus) Visible() bool {
	return s == ModerationStatusApproved || s == ModerationStatusApprovedWithEdits
}

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

type TaskRelevance string

const (
	RelevanceLow    TaskRelevance = "low"
	RelevanceMedium TaskRelevance = "medium"
	RelevanceHigh   TaskRelevance = "high"
)

type MilestoneCategory string

const (
	MilestoneFormalization MilestoneCategory = "formalization"
	MilestoneBrand         MilestoneCategory = "brand"
	MilestoneShop          MilestoneCategory = "shop"
	MilestoneSales         MilestoneCategory = "sales"
	MilestoneCommunity     MilestoneCategory = "community"
)
