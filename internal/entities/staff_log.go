package entities

import "time"

type StaffAction string

const (
	StaffActionBookCreate StaffAction = "book_create"
	StaffActionBookUpdate StaffAction = "book_update"
	StaffActionBookRetire StaffAction = "book_retire"
	StaffActionBookEnrich StaffAction = "book_enrich"
	StaffActionRoleChange StaffAction = "role_change"
)

// StaffLog is an immutable audit record of an admin/staff action.
// OldValue and NewValue hold JSON snapshots of the affected entity.
type StaffLog struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	ActorID     uint        `gorm:"index" json:"actor_id"`
	Action      StaffAction `gorm:"index;size:50" json:"action"`
	EntityType  string      `gorm:"size:50" json:"entity_type"`
	EntityID    *uint       `gorm:"index" json:"entity_id,omitempty"`
	Description string      `gorm:"size:500" json:"description"`
	OldValue    string      `gorm:"type:text" json:"old_value,omitempty"`
	NewValue    string      `gorm:"type:text" json:"new_value,omitempty"`
	IPAddress   string      `gorm:"size:45" json:"ip_address,omitempty"`
	CreatedAt   time.Time   `gorm:"index" json:"created_at"`
}

func (StaffLog) TableName() string {
	return "staff_logs"
}
