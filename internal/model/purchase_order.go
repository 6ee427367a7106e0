package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Supplier struct {
	BaseModel
	Code     string          `gorm:"type:varchar(16);uniqueIndex;not null" json:"code"`
	Name     string          `gorm:"type:varchar(255);not null" json:"name"`
	Address  string          `gorm:"type:text" json:"address"`
	Phone    string          `gorm:"type:varchar(32)" json:"phone"`
	Email    string          `gorm:"type:varchar(255)" json:"email"`
	Discount decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"discount"`
}

// SupplierPayment is a bank account a supplier is paid into.
type SupplierPayment struct {
	BaseModel
	SupplierID    uuid.UUID `gorm:"type:uuid;not null;index" json:"supplier_id"`
	Supplier      *Supplier `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	Name          string    `gorm:"type:varchar(128);not null" json:"name"`
	Owner         string    `gorm:"type:varchar(128);not null" json:"owner"`
	AccountNumber string    `gorm:"type:varchar(64);not null" json:"account_number"`
}

type PurchaseOrderStatus string

const (
	PODraft           PurchaseOrderStatus = "draft"
	POWaitingApproval PurchaseOrderStatus = "waiting_approval"
	POApproved        PurchaseOrderStatus = "approved"
	PORejected        PurchaseOrderStatus = "rejected"
	POCompleted       PurchaseOrderStatus = "completed"
)

var poNext = map[PurchaseOrderStatus][]PurchaseOrderStatus{
	PODraft:           {PODraft, POWaitingApproval},
	POWaitingApproval: {PODraft, POWaitingApproval, POApproved, PORejected},
	PORejected:        {PODraft, PORejected},
	POApproved:        {POCompleted},
	POCompleted:       {},
}

func (s PurchaseOrderStatus) Valid() bool {
	_, ok := poNext[s]
	return ok
}

func (s PurchaseOrderStatus) CanMoveTo(next PurchaseOrderStatus) bool {
	for _, n := range poNext[s] {
		if n == next {
			return true
		}
	}
	return false
}

// ItemsEditable reports whether lines may still be added, changed or removed.
func (s PurchaseOrderStatus) ItemsEditable() bool {
	return s == PODraft || s == POWaitingApproval
}

type PurchaseOrder struct {
	BaseModel
	Code             string              `gorm:"type:varchar(32);uniqueIndex;not null" json:"code"`
	Name             string              `gorm:"type:varchar(255)" json:"name"`
	RequesterID      uuid.UUID           `gorm:"type:uuid;not null;index" json:"requester_id"`
	Requester        *User               `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	ApproverID       *uuid.UUID          `gorm:"type:uuid" json:"approver_id"`
	SupplierID       uuid.UUID           `gorm:"type:uuid;not null;index" json:"supplier_id"`
	Supplier         *Supplier           `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	PaymentOption    string              `gorm:"type:varchar(32)" json:"payment_option"`
	Note             string              `gorm:"type:text" json:"note"`
	Status           PurchaseOrderStatus `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	RejectionMessage string              `gorm:"type:text" json:"rejection_message"`
	StockApplied     bool                `gorm:"not null;default:false" json:"stock_applied"`
	Items            []PoItem            `gorm:"foreignKey:PurchaseOrderID" json:"items"`
}

// PoItem is one line of a purchase order: Amounts units bought at Price.
type PoItem struct {
	BaseModel
	PurchaseOrderID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"purchase_order_id"`
	ProductSKUID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_sku_id"`
	ProductSKU       *ProductSKU     `gorm:"foreignKey:ProductSKUID" json:"product_sku,omitempty"`
	Price            int64           `gorm:"not null" json:"price"`
	Amounts          int             `gorm:"not null" json:"amounts"`
	SupplierDiscount decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"supplier_discount"`
}

func (PoItem) TableName() string {
	return "po_items"
}
