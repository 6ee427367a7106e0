package repository

import (
	"context"

	"retail-backoffice/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SupplierRepository interface {
	Create(tx *gorm.DB, supplier *model.Supplier) error
	Update(ctx context.Context, supplier *model.Supplier) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error)
	FindAll(ctx context.Context, search string) ([]model.Supplier, error)
	// Delete soft deletes the supplier and its payment accounts.
	Delete(ctx context.Context, id uuid.UUID, deletedBy string) error
	// NextSequence returns 1 + the number of suppliers ever created, counted
	// under a table lock so concurrent creates get distinct codes.
	NextSequence(tx *gorm.DB) (int, error)
}

type supplierRepo struct {
	db *gorm.DB
}

func NewSupplierRepo(db *gorm.DB) SupplierRepository {
	return &supplierRepo{db}
}

func (r *supplierRepo) Create(tx *gorm.DB, supplier *model.Supplier) error {
	return tx.Create(supplier).Error
}

func (r *supplierRepo) Update(ctx context.Context, supplier *model.Supplier) error {
	return r.db.WithContext(ctx).Model(supplier).
		Select("name", "address", "phone", "email", "discount", "updated_by").
		Updates(supplier).Error
}

func (r *supplierRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	var s model.Supplier
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *supplierRepo) FindAll(ctx context.Context, search string) ([]model.Supplier, error) {
	var list []model.Supplier
	q := r.db.WithContext(ctx).Order("code")
	if search != "" {
		q = q.Where("name ILIKE ? OR code ILIKE ?", "%"+search+"%", "%"+search+"%")
	}
	err := q.Find(&list).Error
	return list, err
}

func (r *supplierRepo) Delete(ctx context.Context, id uuid.UUID, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.SupplierPayment{}).Where("supplier_id = ?", id).Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		if err := tx.Where("supplier_id = ?", id).Delete(&model.SupplierPayment{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Supplier{}).Where("id = ?", id).Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Supplier{}, "id = ?", id).Error
	})
}

func (r *supplierRepo) NextSequence(tx *gorm.DB) (int, error) {
	if err := tx.Exec("LOCK TABLE suppliers IN SHARE ROW EXCLUSIVE MODE").Error; err != nil {
		return 0, err
	}
	var n int64
	if err := tx.Unscoped().Model(&model.Supplier{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n) + 1, nil
}

type SupplierPaymentFilter struct {
	Search     string
	SupplierID *uuid.UUID
}

type SupplierPaymentRepository interface {
	Create(ctx context.Context, payment *model.SupplierPayment) error
	Update(ctx context.Context, payment *model.SupplierPayment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.SupplierPayment, error)
	FindAll(ctx context.Context, f SupplierPaymentFilter) ([]model.SupplierPayment, error)
	Delete(ctx context.Context, id uuid.UUID, deletedBy string) error
}

type supplierPaymentRepo struct {
	db *gorm.DB
}

func NewSupplierPaymentRepo(db *gorm.DB) SupplierPaymentRepository {
	return &supplierPaymentRepo{db}
}

func (r *supplierPaymentRepo) Create(ctx context.Context, payment *model.SupplierPayment) error {
	return r.db.WithContext(ctx).Omit("Supplier").Create(payment).Error
}

func (r *supplierPaymentRepo) Update(ctx context.Context, payment *model.SupplierPayment) error {
	return r.db.WithContext(ctx).Model(payment).
		Select("name", "owner", "account_number", "updated_by").
		Updates(payment).Error
}

func (r *supplierPaymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.SupplierPayment, error) {
	var p model.SupplierPayment
	if err := r.db.WithContext(ctx).Preload("Supplier").First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// FindAll skips accounts of deleted suppliers; the join applies the
// suppliers soft delete scope by hand.
func (r *supplierPaymentRepo) FindAll(ctx context.Context, f SupplierPaymentFilter) ([]model.SupplierPayment, error) {
	var list []model.SupplierPayment
	q := r.db.WithContext(ctx).
		Joins("JOIN suppliers ON suppliers.id = supplier_payments.supplier_id AND suppliers.deleted_at IS NULL").
		Preload("Supplier").
		Order("supplier_payments.updated_at DESC")
	if f.SupplierID != nil {
		q = q.Where("supplier_payments.supplier_id = ?", *f.SupplierID)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("supplier_payments.name ILIKE ? OR supplier_payments.owner ILIKE ? OR supplier_payments.account_number ILIKE ? OR suppliers.name ILIKE ? OR suppliers.code ILIKE ?",
			like, like, like, like, like)
	}
	err := q.Find(&list).Error
	return list, err
}

func (r *supplierPaymentRepo) Delete(ctx context.Context, id uuid.UUID, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.SupplierPayment{}).Where("id = ?", id).Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		return tx.Delete(&model.SupplierPayment{}, "id = ?", id).Error
	})
}

type PurchaseOrderFilter struct {
	Search     string
	Statuses   []model.PurchaseOrderStatus
	SupplierID *uuid.UUID
}

type PurchaseOrderRepository interface {
	Create(tx *gorm.DB, po *model.PurchaseOrder) error
	Save(tx *gorm.DB, po *model.PurchaseOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error)
	FindByIDForUpdate(tx *gorm.DB, id uuid.UUID) (*model.PurchaseOrder, error)
	FindAll(ctx context.Context, f PurchaseOrderFilter) ([]model.PurchaseOrder, error)
	ReplaceItems(tx *gorm.DB, poID uuid.UUID, items []model.PoItem) error
}

type purchaseOrderRepo struct {
	db *gorm.DB
}

func NewPurchaseOrderRepo(db *gorm.DB) PurchaseOrderRepository {
	return &purchaseOrderRepo{db}
}

func (r *purchaseOrderRepo) Create(tx *gorm.DB, po *model.PurchaseOrder) error {
	return tx.Omit(clause.Associations).Create(po).Error
}

func (r *purchaseOrderRepo) Save(tx *gorm.DB, po *model.PurchaseOrder) error {
	return tx.Omit(clause.Associations).Save(po).Error
}

func (r *purchaseOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Supplier").
		Preload("Requester").
		Preload("Items.ProductSKU.Product").
		First(&po, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &po, nil
}

func (r *purchaseOrderRepo) FindByIDForUpdate(tx *gorm.DB, id uuid.UUID) (*model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	if err := forUpdate(tx.Model(&model.PurchaseOrder{})).First(&po, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("purchase_order_id = ?", id).Order("created_at, id").Find(&po.Items).Error; err != nil {
		return nil, err
	}
	return &po, nil
}

func (r *purchaseOrderRepo) FindAll(ctx context.Context, f PurchaseOrderFilter) ([]model.PurchaseOrder, error) {
	var list []model.PurchaseOrder
	q := r.db.WithContext(ctx).Preload("Supplier").Preload("Requester").Order("created_at DESC")
	if f.Search != "" {
		q = q.Where("code ILIKE ? OR name ILIKE ?", "%"+f.Search+"%", "%"+f.Search+"%")
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.SupplierID != nil {
		q = q.Where("supplier_id = ?", *f.SupplierID)
	}
	err := q.Find(&list).Error
	return list, err
}

// ReplaceItems drops the current lines and inserts items.
func (r *purchaseOrderRepo) ReplaceItems(tx *gorm.DB, poID uuid.UUID, items []model.PoItem) error {
	if err := tx.Unscoped().Where("purchase_order_id = ?", poID).Delete(&model.PoItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].PurchaseOrderID = poID
	}
	return tx.Omit("ProductSKU").Create(&items).Error
}
