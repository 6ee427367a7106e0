package model

import (
	"time"

	"github.com/google/uuid"

	"retail-backoffice/internal/settlement"
)

// Coupon defines a voucher (fixed value) or a percentage discount and its
// validity window. Codes are the redeemable units.
type Coupon struct {
	BaseModel
	Name               string                `gorm:"type:varchar(255);not null" json:"name"`
	Type               settlement.CouponType `gorm:"type:varchar(10);not null" json:"type"`
	VoucherValue       *int64                `json:"voucher_value,omitempty"`
	DiscountPercentage *int                  `json:"discount_percentage,omitempty"`
	StartTime          time.Time             `gorm:"not null" json:"start_time"`
	EndTime            time.Time             `gorm:"not null" json:"end_time"`
	Disabled           bool                  `gorm:"not null;default:false" json:"disabled"`
	Codes              []CouponCode          `gorm:"foreignKey:CouponID" json:"codes,omitempty"`
}

type CouponCode struct {
	BaseModel
	CouponID uuid.UUID `gorm:"type:uuid;not null;index" json:"coupon_id"`
	Coupon   *Coupon   `gorm:"foreignKey:CouponID" json:"coupon,omitempty"`
	Code     string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	Stock    int       `gorm:"not null;default:0" json:"stock"`
	Used     int       `gorm:"not null;default:0" json:"used"`
	Disabled bool      `gorm:"not null;default:false" json:"disabled"`
}

// State projects the code and its coupon onto what the availability checks read.
func (c *CouponCode) State() settlement.CouponState {
	s := settlement.CouponState{
		Code:     c.Code,
		Stock:    c.Stock,
		Used:     c.Used,
		Disabled: c.Disabled,
	}
	if c.Coupon != nil {
		s.CouponDisabled = c.Coupon.Disabled
		s.StartTime = c.Coupon.StartTime
		s.EndTime = c.Coupon.EndTime
	}
	return s
}

// Line describes the code as a discount line redeemed amount times.
func (c *CouponCode) Line(amount int) settlement.CouponLine {
	l := settlement.CouponLine{Code: c.Code, Amount: amount}
	if c.Coupon == nil {
		return l
	}
	l.Type = c.Coupon.Type
	if c.Coupon.VoucherValue != nil {
		l.VoucherValue = *c.Coupon.VoucherValue
	}
	if c.Coupon.DiscountPercentage != nil {
		l.DiscountPercentage = *c.Coupon.DiscountPercentage
	}
	return l
}
