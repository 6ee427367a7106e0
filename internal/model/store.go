package model

import "time"

// StoreProfileID is the primary key of the one store row.
const StoreProfileID = 1

// Store is the shop profile printed on receipts.
type Store struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Name      string    `gorm:"type:varchar(128);not null" json:"name"`
	Address   string    `gorm:"type:varchar(255);not null" json:"address"`
	Phone     string    `gorm:"type:varchar(20);not null" json:"phone"`
	Email     *string   `gorm:"type:varchar(255)" json:"email"`
	Site      *string   `gorm:"type:varchar(255)" json:"site"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy string    `gorm:"type:varchar(255)" json:"updated_by"`
}

func (Store) TableName() string {
	return "store"
}
