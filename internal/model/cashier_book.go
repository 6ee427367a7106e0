package model

import (
	"time"

	"github.com/google/uuid"
)

// CashierBook is a cashier's till session. A cashier has at most one open book.
type CashierBook struct {
	BaseModel
	Code       string     `gorm:"type:varchar(32);uniqueIndex;not null" json:"code"`
	CashierID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"cashier_id"`
	Cashier    *User      `gorm:"foreignKey:CashierID" json:"cashier,omitempty"`
	CashDrawer int64      `gorm:"not null;default:0" json:"cash_drawer"`
	TimeOpen   time.Time  `gorm:"not null" json:"time_open"`
	TimeClosed *time.Time `json:"time_closed,omitempty"`
}

func (b *CashierBook) IsOpen() bool {
	return b.TimeClosed == nil
}

type CashierBookResponse struct {
	ID         uuid.UUID     `json:"id"`
	Code       string        `json:"code"`
	CashierID  uuid.UUID     `json:"cashier_id"`
	Cashier    *UserResponse `json:"cashier,omitempty"`
	CashDrawer int64         `json:"cash_drawer"`
	TimeOpen   time.Time     `json:"time_open"`
	TimeClosed *time.Time    `json:"time_closed,omitempty"`
	Status     string        `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	CreatedBy  string        `json:"created_by"`
}

func (b *CashierBook) ToResponse() CashierBookResponse {
	resp := CashierBookResponse{
		ID:         b.ID,
		Code:       b.Code,
		CashierID:  b.CashierID,
		CashDrawer: b.CashDrawer,
		TimeOpen:   b.TimeOpen,
		TimeClosed: b.TimeClosed,
		Status:     "open",
		CreatedAt:  b.CreatedAt,
		CreatedBy:  b.CreatedBy,
	}
	if !b.IsOpen() {
		resp.Status = "closed"
	}
	if b.Cashier != nil {
		u := b.Cashier.ToResponse()
		resp.Cashier = &u
	}
	return resp
}

// CashierBookStats summarises the paid, non-draft sales recorded in a book.
type CashierBookStats struct {
	CashCount      int64 `json:"cash_count"`
	CashValue      int64 `json:"cash_value"`
	CashlessCount  int64 `json:"cashless_count"`
	CashlessValue  int64 `json:"cashless_value"`
	VoucherCount   int64 `json:"voucher_count"`
	VoucherValue   int64 `json:"voucher_value"`
	DiscountCount  int64 `json:"discount_count"`
	DiscountValue  int64 `json:"discount_value"`
	ExpectedDrawer int64 `json:"expected_drawer"`
}
