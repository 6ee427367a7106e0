package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"retail-backoffice/internal/settlement"
)

const (
	PaymentCash     = "cash"
	PaymentCashless = "cashless"
)

// Transaction is one sale. Totals are always derived from the item and
// coupon rows; paid_time marks settlement.
type Transaction struct {
	BaseModel
	Code          string              `gorm:"type:varchar(32);uniqueIndex;not null" json:"code"`
	CashierBookID uuid.UUID           `gorm:"type:uuid;not null;index" json:"cashier_book_id"`
	CashierBook   *CashierBook        `gorm:"foreignKey:CashierBookID" json:"cashier_book,omitempty"`
	Pay           *int64              `json:"pay"`
	SubTotal      int64               `gorm:"not null;default:0" json:"sub_total"`
	DiscountTotal int64               `gorm:"not null;default:0" json:"discount_total"`
	Total         int64               `gorm:"not null;default:0" json:"total"`
	Payment       *string             `gorm:"type:varchar(10)" json:"payment"`
	Note          *string             `gorm:"type:text" json:"note"`
	IsSaved       bool                `gorm:"not null;default:false;index" json:"is_saved"`
	PaidTime      *time.Time          `gorm:"index" json:"paid_time"`
	Items         []TransactionItem   `gorm:"foreignKey:TransactionID" json:"items"`
	Coupons       []TransactionCoupon `gorm:"foreignKey:TransactionID" json:"coupons"`
}

func (t *Transaction) Status() settlement.Status {
	return settlement.StatusOf(t.IsSaved, t.PaidTime)
}

// Change is the amount handed back to the customer, nil until paid.
func (t *Transaction) Change() *int64 {
	if t.Pay == nil || t.PaidTime == nil {
		return nil
	}
	c := *t.Pay - t.Total
	return &c
}

// TransactionItem snapshots the unit price when the line is added and the
// SKU supplier discount when the line is settled.
type TransactionItem struct {
	ID               uuid.UUID           `gorm:"type:uuid;primary_key" json:"id"`
	TransactionID    uuid.UUID           `gorm:"type:uuid;not null;index" json:"transaction_id"`
	ProductSKUID     uuid.UUID           `gorm:"type:uuid;not null;index" json:"product_sku_id"`
	ProductSKU       *ProductSKU         `gorm:"foreignKey:ProductSKUID" json:"product_sku,omitempty"`
	UnitPrice        int64               `gorm:"not null" json:"unit_price"`
	Amount           int                 `gorm:"not null" json:"amount"`
	SupplierDiscount decimal.NullDecimal `gorm:"type:numeric(5,2)" json:"supplier_discount"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

func (i *TransactionItem) SKUCode() string {
	if i.ProductSKU == nil {
		return ""
	}
	return i.ProductSKU.SKU
}

type TransactionCoupon struct {
	ID                uuid.UUID   `gorm:"type:uuid;primary_key" json:"id"`
	TransactionID     uuid.UUID   `gorm:"type:uuid;not null;index" json:"transaction_id"`
	CouponCodeID      uuid.UUID   `gorm:"type:uuid;not null;index" json:"coupon_code_id"`
	CouponCode        *CouponCode `gorm:"foreignKey:CouponCodeID" json:"coupon_code,omitempty"`
	Amount            int         `gorm:"not null" json:"amount"`
	ItemVoucherValue  *int64      `json:"item_voucher_value"`
	ItemDiscountValue *int64      `json:"item_discount_value"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

func (c *TransactionCoupon) Code() string {
	if c.CouponCode == nil {
		return ""
	}
	return c.CouponCode.Code
}

// TransactionFilter narrows the transaction list. Status values are saved,
// unpaid and paid; payment values are cash and cashless.
type TransactionFilter struct {
	Search        string
	CashierID     *uuid.UUID
	CashierBookID *uuid.UUID
	StartDate     *time.Time
	EndDate       *time.Time
	Statuses      []string
	Payments      []string
	Limit         int
	Offset        int
}

func (i *TransactionItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (c *TransactionCoupon) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
