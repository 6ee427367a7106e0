package repository

import (
	"context"

	"retail-backoffice/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindAll(ctx context.Context, search string, categoryID *uuid.UUID) ([]model.Product, error)
	UpdatePrice(tx *gorm.DB, id uuid.UUID, price int64, updatedBy string) error
	// Delete soft deletes the product together with its SKUs.
	Delete(ctx context.Context, id uuid.UUID, deletedBy string) error

	CreateCategory(ctx context.Context, category *model.ProductCategory) error
	FindCategoryByID(ctx context.Context, id uuid.UUID) (*model.ProductCategory, error)
	FindAllCategories(ctx context.Context) ([]model.ProductCategory, error)
	// DeleteCategory soft deletes the category and detaches its products.
	DeleteCategory(ctx context.Context, id uuid.UUID, deletedBy string) error
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Omit("SKUs", "Category").Create(product).Error
}

func (r *productRepo) Update(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Omit("SKUs", "Category").Save(product).Error
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).Preload("Category").Preload("SKUs").First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindAll(ctx context.Context, search string, categoryID *uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	q := r.db.WithContext(ctx).Preload("Category").Preload("SKUs").Order("name")
	if search != "" {
		q = q.Where("name ILIKE ?", "%"+search+"%")
	}
	if categoryID != nil {
		q = q.Where("category_id = ?", *categoryID)
	}
	err := q.Find(&products).Error
	return products, err
}

// UpdatePrice runs inside the caller's transaction.
func (r *productRepo) UpdatePrice(tx *gorm.DB, id uuid.UUID, price int64, updatedBy string) error {
	return tx.Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"price":      price,
			"updated_by": updatedBy,
		}).Error
}

func (r *productRepo) Delete(ctx context.Context, id uuid.UUID, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.ProductSKU{}).Where("product_id = ?", id).Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&model.ProductSKU{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Product{}).Where("id = ?", id).Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Product{}, "id = ?", id).Error
	})
}

func (r *productRepo) CreateCategory(ctx context.Context, category *model.ProductCategory) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *productRepo) FindCategoryByID(ctx context.Context, id uuid.UUID) (*model.ProductCategory, error) {
	var category model.ProductCategory
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *productRepo) FindAllCategories(ctx context.Context) ([]model.ProductCategory, error) {
	var categories []model.ProductCategory
	err := r.db.WithContext(ctx).Order("name").Find(&categories).Error
	return categories, err
}

func (r *productRepo) DeleteCategory(ctx context.Context, id uuid.UUID, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Product{}).Where("category_id = ?", id).Update("category_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.ProductCategory{}).Where("id = ?", id).Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		return tx.Delete(&model.ProductCategory{}, "id = ?", id).Error
	})
}

type SKURepository interface {
	Create(ctx context.Context, sku *model.ProductSKU) error
	Update(ctx context.Context, sku *model.ProductSKU) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ProductSKU, error)
	FindByCode(ctx context.Context, code string) (*model.ProductSKU, error)
	FindAvailable(ctx context.Context, search string) ([]model.ProductSKU, error)
	FindByCodesForUpdate(tx *gorm.DB, codes []string) ([]model.ProductSKU, error)
	FindByIDsForUpdate(tx *gorm.DB, ids []uuid.UUID) ([]model.ProductSKU, error)
	AdjustStock(tx *gorm.DB, id uuid.UUID, delta int) error
}

type skuRepo struct {
	db *gorm.DB
}

func NewSKURepo(db *gorm.DB) SKURepository {
	return &skuRepo{db}
}

func (r *skuRepo) Create(ctx context.Context, sku *model.ProductSKU) error {
	return r.db.WithContext(ctx).Omit("Product").Create(sku).Error
}

// Update writes everything but stock, which only moves via AdjustStock.
func (r *skuRepo) Update(ctx context.Context, sku *model.ProductSKU) error {
	return r.db.WithContext(ctx).Model(sku).
		Select("sku", "supplier_discount", "updated_by").
		Updates(sku).Error
}

func (r *skuRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ProductSKU, error) {
	var sku model.ProductSKU
	if err := r.db.WithContext(ctx).Preload("Product").First(&sku, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sku, nil
}

func (r *skuRepo) FindByCode(ctx context.Context, code string) (*model.ProductSKU, error) {
	var sku model.ProductSKU
	if err := r.db.WithContext(ctx).Preload("Product").First(&sku, "sku = ?", code).Error; err != nil {
		return nil, err
	}
	return &sku, nil
}

// FindAvailable is the sellable catalogue: SKUs with stock left.
func (r *skuRepo) FindAvailable(ctx context.Context, search string) ([]model.ProductSKU, error) {
	var skus []model.ProductSKU
	q := r.db.WithContext(ctx).Preload("Product").Preload("Product.Category").
		Joins("JOIN products ON products.id = product_skus.product_id AND products.deleted_at IS NULL").
		Where("product_skus.stock > 0").
		Order("products.name, product_skus.sku")
	if search != "" {
		q = q.Where("products.name ILIKE ? OR product_skus.sku ILIKE ?", "%"+search+"%", "%"+search+"%")
	}
	err := q.Find(&skus).Error
	return skus, err
}

// FindByCodesForUpdate locks the rows in a stable order so two sales touching
// the same SKUs cannot deadlock.
func (r *skuRepo) FindByCodesForUpdate(tx *gorm.DB, codes []string) ([]model.ProductSKU, error) {
	var skus []model.ProductSKU
	if len(codes) == 0 {
		return skus, nil
	}
	err := forUpdate(tx.Model(&model.ProductSKU{})).
		Where("sku IN ?", codes).
		Order("id").
		Find(&skus).Error
	if err != nil {
		return nil, err
	}
	return skus, r.attachProducts(tx, skus)
}

func (r *skuRepo) FindByIDsForUpdate(tx *gorm.DB, ids []uuid.UUID) ([]model.ProductSKU, error) {
	var skus []model.ProductSKU
	if len(ids) == 0 {
		return skus, nil
	}
	err := forUpdate(tx.Model(&model.ProductSKU{})).
		Where("id IN ?", ids).
		Order("id").
		Find(&skus).Error
	if err != nil {
		return nil, err
	}
	return skus, r.attachProducts(tx, skus)
}

// attachProducts loads products separately; FOR UPDATE cannot be combined
// with the outer join a Joins preload would produce.
func (r *skuRepo) attachProducts(tx *gorm.DB, skus []model.ProductSKU) error {
	if len(skus) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(skus))
	for _, s := range skus {
		ids = append(ids, s.ProductID)
	}
	var products []model.Product
	if err := tx.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return err
	}
	byID := make(map[uuid.UUID]*model.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	for i := range skus {
		skus[i].Product = byID[skus[i].ProductID]
	}
	return nil
}

// AdjustStock applies stock = stock + delta atomically.
func (r *skuRepo) AdjustStock(tx *gorm.DB, id uuid.UUID, delta int) error {
	if delta == 0 {
		return nil
	}
	return tx.Model(&model.ProductSKU{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("stock + ?", delta)).Error
}
