package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductCategory struct {
	BaseModel
	Name string `gorm:"type:varchar(255);uniqueIndex;not null" json:"name" validate:"required,max=255"`
}

// Product holds the selling price shared by all its SKUs.
type Product struct {
	BaseModel
	Name        string           `gorm:"type:varchar(255);not null" json:"name"`
	Description string           `gorm:"type:text" json:"description"`
	Price       int64            `gorm:"not null;default:0" json:"price"`
	CategoryID  *uuid.UUID       `gorm:"type:uuid;index" json:"category_id"`
	Category    *ProductCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	SKUs        []ProductSKU     `gorm:"foreignKey:ProductID" json:"skus,omitempty"`
}

// ProductSKU is the stock keeping unit a cashier scans. Stock is only ever
// changed through atomic increments.
type ProductSKU struct {
	BaseModel
	ProductID        uuid.UUID           `gorm:"type:uuid;not null;index" json:"product_id"`
	Product          *Product            `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	SKU              string              `gorm:"column:sku;type:varchar(12);uniqueIndex;not null" json:"sku"`
	Stock            int                 `gorm:"not null;default:0" json:"stock"`
	SupplierDiscount decimal.NullDecimal `gorm:"type:numeric(5,2)" json:"supplier_discount"`
}

func (ProductSKU) TableName() string {
	return "product_skus"
}

// Price is the current selling price, zero when the product is not loaded.
func (s *ProductSKU) Price() int64 {
	if s.Product == nil {
		return 0
	}
	return s.Product.Price
}
