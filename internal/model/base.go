package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel carries the UUID key, timestamps, soft delete and the audit trail.
type BaseModel struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key;" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	CreatedBy string `gorm:"type:varchar(255)" json:"created_by"`
	UpdatedBy string `gorm:"type:varchar(255)" json:"updated_by"`
	DeletedBy string `gorm:"type:varchar(255)" json:"-"`
}

// BeforeCreate assigns an id unless the caller already picked one; codes such
// as TRANS/YYYYMMDD/xxxx are derived from the id before the insert.
func (base *BaseModel) BeforeCreate(tx *gorm.DB) (err error) {
	if base.ID == uuid.Nil {
		base.ID = uuid.New()
	}
	return
}

// Audit stamps both audit columns for a fresh row.
func (base *BaseModel) Audit(userID string) {
	base.CreatedBy = userID
	base.UpdatedBy = userID
}
