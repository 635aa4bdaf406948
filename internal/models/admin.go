// internal/models/admin.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type AdminSettings struct {
	BaseModel
	Category    string     `json:"category" gorm:"size:50;not null;index"`
	Key         string     `json:"key" gorm:"size:100;not null;index"`
	Value       JSONB      `json:"value" gorm:"type:jsonb;not null"`
	DataType    string     `json:"data_type" gorm:"size:20;not null"`
	Description string     `json:"description" gorm:"type:text"`
	UpdatedBy   *uuid.UUID `json:"updated_by" gorm:"type:uuid"`
}

type AuditLog struct {
	BaseModel
	UserID       *uuid.UUID `json:"user_id" gorm:"type:uuid;index"`
	Action       string     `json:"action" gorm:"size:100;not null;index"`
	ResourceType string     `json:"resource_type" gorm:"size:50;not null;index"`
	ResourceID   *uuid.UUID `json:"resource_id" gorm:"type:uuid;index"`
	OldValues    JSONB      `json:"old_values" gorm:"type:jsonb"`
	NewValues    JSONB      `json:"new_values" gorm:"type:jsonb"`
	IPAddress    string     `json:"ip_address" gorm:"size:45"`
	UserAgent    string     `json:"user_agent" gorm:"type:text"`
}

// Notification is shown in the user's notification center.
type Notification struct {
	BaseModel
	UserID              uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	Type                string     `json:"type" gorm:"type:varchar(50);not null;index"`
	Title               string     `json:"title" gorm:"size:255;not null"`
	Message             string     `json:"message" gorm:"type:text;not null"`
	Metadata            JSONB      `json:"metadata" gorm:"type:jsonb"`
	RelatedResourceType string     `json:"related_resource_type,omitempty" gorm:"size:50"`
	RelatedResourceID   *uuid.UUID `json:"related_resource_id" gorm:"type:uuid"`
	Read                bool       `json:"read" gorm:"not null;default:false;index"`
	ReadAt              *time.Time `json:"read_at"`
}
