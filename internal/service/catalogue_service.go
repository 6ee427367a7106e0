package service

import (
	"context"
	"errors"
	"strings"

	"retail-backoffice/internal/events"
	"retail-backoffice/internal/model"
	"retail-backoffice/internal/repository"
	"retail-backoffice/internal/settlement"
	"retail-backoffice/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	StockIn  = "in"
	StockOut = "out"
)

type CatalogueService interface {
	CreateProduct(ctx context.Context, req *ProductRequest, actor Actor) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req *ProductRequest, actor Actor) (*model.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	ListProducts(ctx context.Context, search string, categoryID *uuid.UUID) ([]model.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID, actor Actor) error

	CreateCategory(ctx context.Context, req *CategoryRequest, actor Actor) (*model.ProductCategory, error)
	ListCategories(ctx context.Context) ([]model.ProductCategory, error)
	DeleteCategory(ctx context.Context, id uuid.UUID, actor Actor) error

	CreateSKU(ctx context.Context, productID uuid.UUID, req *CreateSKURequest, actor Actor) (*model.ProductSKU, error)
	UpdateSKU(ctx context.Context, id uuid.UUID, req *UpdateSKURequest, actor Actor) (*model.ProductSKU, error)
	AdjustStock(ctx context.Context, id uuid.UUID, req *StockAdjustmentRequest, actor Actor) (*model.ProductSKU, error)
	CheckSKU(ctx context.Context, code string, amount int) (*SKUCheck, error)
	Available(ctx context.Context, search string) ([]model.ProductSKU, error)
}

type ProductRequest struct {
	Name        string     `json:"name" validate:"required,max=255"`
	Description string     `json:"description"`
	Price       int64      `json:"price" validate:"gte=0"`
	CategoryID  *uuid.UUID `json:"category_id"`
}

type CategoryRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

type CreateSKURequest struct {
	SKU              string           `json:"sku" validate:"required,max=12"`
	Stock            int              `json:"stock" validate:"gte=0"`
	SupplierDiscount *decimal.Decimal `json:"supplier_discount"`
}

type UpdateSKURequest struct {
	SKU              *string          `json:"sku" validate:"omitempty,max=12"`
	SupplierDiscount *decimal.Decimal `json:"supplier_discount"`
}

// StockAdjustmentRequest is a manual stock count correction.
type StockAdjustmentRequest struct {
	Type     string `json:"type" validate:"required,oneof=in out"`
	Quantity int    `json:"quantity" validate:"gt=0"`
	Note     string `json:"note" validate:"max=255"`
}

type SKUCheck struct {
	SKU       *model.ProductSKU `json:"sku"`
	Available bool              `json:"available"`
	Stock     int               `json:"stock"`
}

type catalogueService struct {
	txm       repository.TxManager
	products  repository.ProductRepository
	skus      repository.SKURepository
	publisher events.Publisher
	log       *logrus.Logger
	producer  string
}

func NewCatalogueService(txm repository.TxManager, products repository.ProductRepository, skus repository.SKURepository, publisher events.Publisher, log *logrus.Logger, producer string) CatalogueService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if log == nil {
		log = logger.Get()
	}
	return &catalogueService{
		txm:       txm,
		products:  products,
		skus:      skus,
		publisher: publisher,
		log:       log,
		producer:  producer,
	}
}

var hundred = decimal.NewFromInt(100)

func checkDiscount(d *decimal.Decimal) error {
	if d != nil && (d.IsNegative() || d.GreaterThan(hundred)) {
		return settlement.Invalid("supplier_discount", "supplier_discount must be between 0 and 100")
	}
	return nil
}

func (s *catalogueService) CreateProduct(ctx context.Context, req *ProductRequest, actor Actor) (*model.Product, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	p := &model.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
	}
	p.Audit(actor.AuditID())
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *catalogueService) UpdateProduct(ctx context.Context, id uuid.UUID, req *ProductRequest, actor Actor) (*model.Product, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "id", "Product not found.")
	}
	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	p.Name = strings.TrimSpace(req.Name)
	p.Description = req.Description
	p.Price = req.Price
	p.CategoryID = req.CategoryID
	p.UpdatedBy = actor.AuditID()
	p.SKUs = nil
	p.Category = nil
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	return s.products.FindByID(ctx, id)
}

func (s *catalogueService) checkCategory(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	_, err := s.products.FindCategoryByID(ctx, *id)
	return notFound(err, "category_id", "Category not found.")
}

func (s *catalogueService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "id", "Product not found.")
	}
	return p, nil
}

func (s *catalogueService) ListProducts(ctx context.Context, search string, categoryID *uuid.UUID) ([]model.Product, error) {
	return s.products.FindAll(ctx, strings.TrimSpace(search), categoryID)
}

// DeleteProduct also retires its SKUs, so they can no longer be sold. Past
// transaction lines keep pointing at them.
func (s *catalogueService) DeleteProduct(ctx context.Context, id uuid.UUID, actor Actor) error {
	if _, err := s.products.FindByID(ctx, id); err != nil {
		return notFound(err, "id", "Product not found.")
	}
	if err := s.products.Delete(ctx, id, actor.AuditID()); err != nil {
		logger.LogError(s.log, "catalogue_service", "DeleteProduct", "delete product", id, err)
		return err
	}
	return nil
}

func (s *catalogueService) CreateCategory(ctx context.Context, req *CategoryRequest, actor Actor) (*model.ProductCategory, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	c := &model.ProductCategory{Name: strings.TrimSpace(req.Name)}
	c.Audit(actor.AuditID())
	if err := s.products.CreateCategory(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, settlement.Conflict("name", "Category %s already exists.", c.Name)
		}
		return nil, err
	}
	return c, nil
}

func (s *catalogueService) ListCategories(ctx context.Context) ([]model.ProductCategory, error) {
	return s.products.FindAllCategories(ctx)
}

func (s *catalogueService) DeleteCategory(ctx context.Context, id uuid.UUID, actor Actor) error {
	if _, err := s.products.FindCategoryByID(ctx, id); err != nil {
		return notFound(err, "id", "Category not found.")
	}
	return s.products.DeleteCategory(ctx, id, actor.AuditID())
}

func (s *catalogueService) CreateSKU(ctx context.Context, productID uuid.UUID, req *CreateSKURequest, actor Actor) (*model.ProductSKU, error) {
	req.SKU = strings.TrimSpace(req.SKU)
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := checkDiscount(req.SupplierDiscount); err != nil {
		return nil, err
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, notFound(err, "product_id", "Product not found.")
	}

	sku := &model.ProductSKU{ProductID: productID, SKU: req.SKU, Stock: req.Stock}
	if req.SupplierDiscount != nil {
		sku.SupplierDiscount = decimal.NewNullDecimal(*req.SupplierDiscount)
	}
	sku.Audit(actor.AuditID())
	if err := s.skus.Create(ctx, sku); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, settlement.Conflict("sku", "SKU already exists")
		}
		return nil, err
	}
	return s.skus.FindByID(ctx, sku.ID)
}

func (s *catalogueService) UpdateSKU(ctx context.Context, id uuid.UUID, req *UpdateSKURequest, actor Actor) (*model.ProductSKU, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := checkDiscount(req.SupplierDiscount); err != nil {
		return nil, err
	}
	sku, err := s.skus.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "id", "Product SKU not found.")
	}

	if req.SKU != nil {
		code := strings.TrimSpace(*req.SKU)
		if code == "" {
			return nil, settlement.Invalid("sku", "SKU cannot be empty")
		}
		if existing, err := s.skus.FindByCode(ctx, code); err == nil && existing.ID != sku.ID {
			return nil, settlement.Conflict("sku", "SKU already exists")
		}
		sku.SKU = code
	}
	if req.SupplierDiscount != nil {
		sku.SupplierDiscount = decimal.NewNullDecimal(*req.SupplierDiscount)
	}
	sku.UpdatedBy = actor.AuditID()
	if err := s.skus.Update(ctx, sku); err != nil {
		return nil, err
	}
	return s.skus.FindByID(ctx, id)
}

// AdjustStock applies a manual in/out movement under a row lock. Outgoing
// movements may not take the stock below zero.
func (s *catalogueService) AdjustStock(ctx context.Context, id uuid.UUID, req *StockAdjustmentRequest, actor Actor) (*model.ProductSKU, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	var moved stockLog
	err := s.txm.WithTx(ctx, func(tx *gorm.DB) error {
		locked, err := s.skus.FindByIDsForUpdate(tx, []uuid.UUID{id})
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			return settlement.NotFound("id", "Product SKU not found.")
		}
		sku := locked[0]

		delta := req.Quantity
		if req.Type == StockOut {
			if sku.Stock < req.Quantity {
				return settlement.Conflict("quantity", "insufficient stock remaining")
			}
			delta = -req.Quantity
		}
		if err := s.skus.AdjustStock(tx, sku.ID, delta); err != nil {
			return err
		}
		moved.add(sku.ID, sku.SKU, delta)
		return nil
	})
	if err != nil {
		return nil, err
	}

	payload := events.StockPayload{Reason: "adjustment", ReferenceID: id.String(), Changes: moved}
	if err := publish(ctx, s.publisher, s.producer, events.StockUpdated, id.String(), actor, payload); err != nil {
		logger.LogError(s.log, "catalogue_service", "AdjustStock", "publish stock event", req, err)
	}
	return s.skus.FindByID(ctx, id)
}

func (s *catalogueService) CheckSKU(ctx context.Context, code string, amount int) (*SKUCheck, error) {
	if amount <= 0 {
		amount = 1
	}
	sku, err := s.skus.FindByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, notFound(err, "sku", "Product SKU %s not found.", code)
	}
	return &SKUCheck{SKU: sku, Available: sku.Stock >= amount, Stock: sku.Stock}, nil
}

func (s *catalogueService) Available(ctx context.Context, search string) ([]model.ProductSKU, error) {
	return s.skus.FindAvailable(ctx, strings.TrimSpace(search))
}
