package service

import (
	"context"
	"strings"
	"time"

	"retail-backoffice/internal/events"
	"retail-backoffice/internal/model"
	"retail-backoffice/internal/repository"
	"retail-backoffice/internal/settlement"
	"retail-backoffice/pkg/logger"
	"retail-backoffice/pkg/redisx"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const poModule = "purchase_order_service"

type PurchaseOrderService interface {
	CreateSupplier(ctx context.Context, req *SupplierRequest, actor Actor) (*model.Supplier, error)
	UpdateSupplier(ctx context.Context, id uuid.UUID, req *SupplierRequest, actor Actor) (*model.Supplier, error)
	GetSupplier(ctx context.Context, id uuid.UUID) (*model.Supplier, error)
	ListSuppliers(ctx context.Context, search string) ([]model.Supplier, error)
	DeleteSupplier(ctx context.Context, id uuid.UUID, actor Actor) error

	CreateSupplierPayment(ctx context.Context, req *CreateSupplierPaymentRequest, actor Actor) (*model.SupplierPayment, error)
	UpdateSupplierPayment(ctx context.Context, id uuid.UUID, req *UpdateSupplierPaymentRequest, actor Actor) (*model.SupplierPayment, error)
	GetSupplierPayment(ctx context.Context, id uuid.UUID) (*model.SupplierPayment, error)
	ListSupplierPayments(ctx context.Context, f repository.SupplierPaymentFilter) ([]model.SupplierPayment, error)
	DeleteSupplierPayment(ctx context.Context, id uuid.UUID, actor Actor) error

	Create(ctx context.Context, req *PurchaseOrderRequest, actor Actor) (*model.PurchaseOrder, error)
	Update(ctx context.Context, id uuid.UUID, req *PurchaseOrderRequest, actor Actor) (*model.PurchaseOrder, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, req *PurchaseOrderStatusRequest, actor Actor) (*model.PurchaseOrder, error)
	Get(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error)
	List(ctx context.Context, f repository.PurchaseOrderFilter) ([]model.PurchaseOrder, error)
}

type SupplierRequest struct {
	Name     string           `json:"name" validate:"required,max=255"`
	Address  string           `json:"address"`
	Phone    string           `json:"phone" validate:"max=32"`
	Email    string           `json:"email" validate:"omitempty,email"`
	Discount *decimal.Decimal `json:"discount"`
}

type CreateSupplierPaymentRequest struct {
	SupplierID    uuid.UUID `json:"supplier_id" validate:"uuid_required"`
	Name          string    `json:"name" validate:"required,max=128"`
	Owner         string    `json:"owner" validate:"required,max=128"`
	AccountNumber string    `json:"account_number" validate:"required,max=64"`
}

type UpdateSupplierPaymentRequest struct {
	Name          *string `json:"name" validate:"omitempty,max=128"`
	Owner         *string `json:"owner" validate:"omitempty,max=128"`
	AccountNumber *string `json:"account_number" validate:"omitempty,max=64"`
}

type PoItemRequest struct {
	ProductSKUID uuid.UUID `json:"product_sku_id" validate:"uuid_required"`
	Price        int64     `json:"price" validate:"gte=0"`
	Amounts      int       `json:"amounts" validate:"gt=0"`
}

// PurchaseOrderRequest serves create and update. On update a nil Items
// keeps the current lines.
type PurchaseOrderRequest struct {
	Name          string          `json:"name" validate:"max=255"`
	SupplierID    uuid.UUID       `json:"supplier_id" validate:"uuid_required"`
	PaymentOption string          `json:"payment_option" validate:"max=32"`
	Note          string          `json:"note"`
	Items         []PoItemRequest `json:"items" validate:"omitempty,dive"`
}

type PurchaseOrderStatusRequest struct {
	Status           model.PurchaseOrderStatus `json:"status" validate:"required,oneof=draft waiting_approval approved rejected completed"`
	RejectionMessage string                    `json:"rejection_message"`
}

type purchaseOrderService struct {
	txm       repository.TxManager
	suppliers repository.SupplierRepository
	payments  repository.SupplierPaymentRepository
	orders    repository.PurchaseOrderRepository
	products  repository.ProductRepository
	skus      repository.SKURepository
	locker    *redisx.Locker
	publisher events.Publisher
	log       *logrus.Logger
	producer  string
	now       Clock
}

type PurchaseOrderServiceConfig struct {
	TxManager      repository.TxManager
	Suppliers      repository.SupplierRepository
	Payments       repository.SupplierPaymentRepository
	PurchaseOrders repository.PurchaseOrderRepository
	Products       repository.ProductRepository
	SKUs           repository.SKURepository
	Locker         *redisx.Locker
	Publisher      events.Publisher
	Logger         *logrus.Logger
	Producer       string
	Clock          Clock
}

func NewPurchaseOrderService(cfg PurchaseOrderServiceConfig) PurchaseOrderService {
	s := &purchaseOrderService{
		txm:       cfg.TxManager,
		suppliers: cfg.Suppliers,
		payments:  cfg.Payments,
		orders:    cfg.PurchaseOrders,
		products:  cfg.Products,
		skus:      cfg.SKUs,
		locker:    cfg.Locker,
		publisher: cfg.Publisher,
		log:       cfg.Logger,
		producer:  cfg.Producer,
		now:       cfg.Clock,
	}
	if s.publisher == nil {
		s.publisher = events.Nop{}
	}
	if s.log == nil {
		s.log = logger.Get()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *purchaseOrderService) CreateSupplier(ctx context.Context, req *SupplierRequest, actor Actor) (*model.Supplier, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := checkSupplierDiscount(req.Discount); err != nil {
		return nil, err
	}

	supplier := &model.Supplier{
		Name:    strings.TrimSpace(req.Name),
		Address: req.Address,
		Phone:   req.Phone,
		Email:   req.Email,
	}
	if req.Discount != nil {
		supplier.Discount = *req.Discount
	}
	supplier.Audit(actor.AuditID())

	err := s.txm.WithTx(ctx, func(tx *gorm.DB) error {
		seq, err := s.suppliers.NextSequence(tx)
		if err != nil {
			return err
		}
		supplier.Code = settlement.SupplierCode(supplier.Name, seq)
		return s.suppliers.Create(tx, supplier)
	})
	if err != nil {
		logger.LogError(s.log, poModule, "CreateSupplier", "create supplier", req, err)
		return nil, err
	}
	return supplier, nil
}

// UpdateSupplier keeps the code it was created with.
func (s *purchaseOrderService) UpdateSupplier(ctx context.Context, id uuid.UUID, req *SupplierRequest, actor Actor) (*model.Supplier, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := checkSupplierDiscount(req.Discount); err != nil {
		return nil, err
	}
	supplier, err := s.suppliers.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "id", "Supplier not found.")
	}
	supplier.Name = strings.TrimSpace(req.Name)
	supplier.Address = req.Address
	supplier.Phone = req.Phone
	supplier.Email = req.Email
	if req.Discount != nil {
		supplier.Discount = *req.Discount
	}
	supplier.UpdatedBy = actor.AuditID()
	if err := s.suppliers.Update(ctx, supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}

func checkSupplierDiscount(d *decimal.Decimal) error {
	if d != nil && (d.IsNegative() || d.GreaterThan(hundred)) {
		return settlement.Invalid("discount", "discount must be between 0 and 100")
	}
	return nil
}

func (s *purchaseOrderService) GetSupplier(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	supplier, err := s.suppliers.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "id", "Supplier not found.")
	}
	return supplier, nil
}

func (s *purchaseOrderService) ListSuppliers(ctx context.Context, search string) ([]model.Supplier, error) {
	return s.suppliers.FindAll(ctx, strings.TrimSpace(search))
}

// DeleteSupplier refuses while the supplier still has an order in flight.
func (s *purchaseOrderService) DeleteSupplier(ctx context.Context, id uuid.UUID, actor Actor) error {
	supplier, err := s.suppliers.FindByID(ctx, id)
	if err != nil {
		return notFound(err, "id", "Supplier not found.")
	}
	open, err := s.orders.FindAll(ctx, repository.PurchaseOrderFilter{
		SupplierID: &supplier.ID,
		Statuses:   []model.PurchaseOrderStatus{model.PODraft, model.POWaitingApproval, model.POApproved},
	})
	if err != nil {
		return err
	}
	if len(open) > 0 {
		return settlement.Conflict("id", "Supplier %s still has %d open purchase orders.", supplier.Code, len(open))
	}
	if err := s.suppliers.Delete(ctx, id, actor.AuditID()); err != nil {
		logger.LogError(s.log, poModule, "DeleteSupplier", "delete supplier", id, err)
		return err
	}
	return nil
}

func (s *purchaseOrderService) CreateSupplierPayment(ctx context.Context, req *CreateSupplierPaymentRequest, actor Actor) (*model.SupplierPayment, error) {
	trimPayment(&req.Name, &req.Owner, &req.AccountNumber)
	if err := validate(req); err != nil {
		return nil, err
	}
	if _, err := s.suppliers.FindByID(ctx, req.SupplierID); err != nil {
		return nil, notFound(err, "supplier_id", "Supplier not found.")
	}

	payment := &model.SupplierPayment{
		SupplierID:    req.SupplierID,
		Name:          req.Name,
		Owner:         req.Owner,
		AccountNumber: req.AccountNumber,
	}
	payment.Audit(actor.AuditID())
	if err := s.payments.Create(ctx, payment); err != nil {
		logger.LogError(s.log, poModule, "CreateSupplierPayment", "create supplier payment", req, err)
		return nil, err
	}
	return s.payments.FindByID(ctx, payment.ID)
}

func (s *purchaseOrderService) UpdateSupplierPayment(ctx context.Context, id uuid.UUID, req *UpdateSupplierPaymentRequest, actor Actor) (*model.SupplierPayment, error) {
	trimPayment(req.Name, req.Owner, req.AccountNumber)
	if err := validate(req); err != nil {
		return nil, err
	}
	payment, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "id", "Supplier payment not found.")
	}

	set := func(dst *string, v *string, field string) error {
		if v == nil {
			return nil
		}
		if *v == "" {
			return settlement.Invalid(field, "%s cannot be empty", field)
		}
		*dst = *v
		return nil
	}
	if err := set(&payment.Name, req.Name, "name"); err != nil {
		return nil, err
	}
	if err := set(&payment.Owner, req.Owner, "owner"); err != nil {
		return nil, err
	}
	if err := set(&payment.AccountNumber, req.AccountNumber, "account_number"); err != nil {
		return nil, err
	}
	payment.UpdatedBy = actor.AuditID()
	if err := s.payments.Update(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

func trimPayment(fields ...*string) {
	for _, f := range fields {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
}

func (s *purchaseOrderService) GetSupplierPayment(ctx context.Context, id uuid.UUID) (*model.SupplierPayment, error) {
	payment, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "id", "Supplier payment not found.")
	}
	return payment, nil
}

func (s *purchaseOrderService) ListSupplierPayments(ctx context.Context, f repository.SupplierPaymentFilter) ([]model.SupplierPayment, error) {
	f.Search = strings.TrimSpace(f.Search)
	return s.payments.FindAll(ctx, f)
}

func (s *purchaseOrderService) DeleteSupplierPayment(ctx context.Context, id uuid.UUID, actor Actor) error {
	if _, err := s.payments.FindByID(ctx, id); err != nil {
		return notFound(err, "id", "Supplier payment not found.")
	}
	return s.payments.Delete(ctx, id, actor.AuditID())
}

func (s *purchaseOrderService) Create(ctx context.Context, req *PurchaseOrderRequest, actor Actor) (*model.PurchaseOrder, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := checkPoItems(req.Items); err != nil {
		return nil, err
	}
	supplier, err := s.suppliers.FindByID(ctx, req.SupplierID)
	if err != nil {
		return nil, notFound(err, "supplier_id", "Supplier not found.")
	}

	po := &model.PurchaseOrder{
		Name:          strings.TrimSpace(req.Name),
		RequesterID:   actor.ID,
		SupplierID:    supplier.ID,
		PaymentOption: req.PaymentOption,
		Note:          req.Note,
		Status:        model.PODraft,
	}
	po.ID = uuid.New()
	po.Code = settlement.PurchaseOrderCode(s.now(), po.ID)
	po.Audit(actor.AuditID())

	err = s.txm.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.orders.Create(tx, po); err != nil {
			return err
		}
		return s.writeItems(tx, po.ID, req.Items, supplier, actor)
	})
	if err != nil {
		logger.LogError(s.log, poModule, "Create", "create purchase order", req, err)
		return nil, err
	}
	return s.orders.FindByID(ctx, po.ID)
}

func (s *purchaseOrderService) Update(ctx context.Context, id uuid.UUID, req *PurchaseOrderRequest, actor Actor) (*model.PurchaseOrder, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := checkPoItems(req.Items); err != nil {
		return nil, err
	}
	supplier, err := s.suppliers.FindByID(ctx, req.SupplierID)
	if err != nil {
		return nil, notFound(err, "supplier_id", "Supplier not found.")
	}

	err = s.txm.WithTx(ctx, func(tx *gorm.DB) error {
		po, err := s.orders.FindByIDForUpdate(tx, id)
		if err != nil {
			return notFound(err, "id", "Purchase order not found.")
		}
		if !po.Status.ItemsEditable() {
			return settlement.Conflict("status", "Purchase order in status %s can no longer be edited.", po.Status)
		}

		po.Name = strings.TrimSpace(req.Name)
		po.SupplierID = supplier.ID
		po.PaymentOption = req.PaymentOption
		po.Note = req.Note
		po.UpdatedBy = actor.AuditID()
		po.Items = nil
		if err := s.orders.Save(tx, po); err != nil {
			return err
		}
		if req.Items == nil {
			return nil
		}
		return s.writeItems(tx, po.ID, req.Items, supplier, actor)
	})
	if err != nil {
		return nil, err
	}
	return s.orders.FindByID(ctx, id)
}

// writeItems replaces the lines, snapshotting the supplier discount.
func (s *purchaseOrderService) writeItems(tx *gorm.DB, poID uuid.UUID, reqs []PoItemRequest, supplier *model.Supplier, actor Actor) error {
	ids := make([]uuid.UUID, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.ProductSKUID)
	}
	found, err := s.skus.FindByIDsForUpdate(tx, ids)
	if err != nil {
		return err
	}
	known := make(map[uuid.UUID]bool, len(found))
	for _, sku := range found {
		known[sku.ID] = true
	}

	items := make([]model.PoItem, 0, len(reqs))
	for _, r := range reqs {
		if !known[r.ProductSKUID] {
			return settlement.NotFound("items", "Product SKU %s not found.", r.ProductSKUID)
		}
		item := model.PoItem{
			PurchaseOrderID:  poID,
			ProductSKUID:     r.ProductSKUID,
			Price:            r.Price,
			Amounts:          r.Amounts,
			SupplierDiscount: supplier.Discount,
		}
		item.Audit(actor.AuditID())
		items = append(items, item)
	}
	return s.orders.ReplaceItems(tx, poID, items)
}

func checkPoItems(items []PoItemRequest) error {
	seen := make(map[uuid.UUID]bool, len(items))
	for _, it := range items {
		if seen[it.ProductSKUID] {
			return settlement.Invalid("items", "Product SKU %s is listed more than once.", it.ProductSKUID)
		}
		seen[it.ProductSKUID] = true
	}
	return nil
}

// UpdateStatus moves the order through its workflow. The first move to
// approved receives the goods: stock goes up by each line's amount and the
// product price follows the purchase price when it is higher or the SKU had
// run out.
func (s *purchaseOrderService) UpdateStatus(ctx context.Context, id uuid.UUID, req *PurchaseOrderStatusRequest, actor Actor) (*model.PurchaseOrder, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	to := req.Status
	if (to == model.POApproved || to == model.PORejected) && !actor.Can(model.PrivPurchaseOrderApprove) {
		return nil, ErrForbidden
	}
	if to == model.PORejected && strings.TrimSpace(req.RejectionMessage) == "" {
		return nil, settlement.Invalid("rejection_message", "A rejection message is required.")
	}

	release, err := s.locker.Obtain(ctx, redisx.KeyLockPurchaseOrder, id.String(), redisx.TTLLock)
	if err != nil {
		return nil, settlement.Conflict("id", "Purchase order is being updated by another request.")
	}
	defer release()

	var from model.PurchaseOrderStatus
	var moved stockLog
	var code string

	err = s.txm.WithTx(ctx, func(tx *gorm.DB) error {
		po, err := s.orders.FindByIDForUpdate(tx, id)
		if err != nil {
			return notFound(err, "id", "Purchase order not found.")
		}
		from = po.Status
		code = po.Code
		if !from.CanMoveTo(to) {
			return settlement.Conflict("status", "Purchase order cannot move from %s to %s.", from, to)
		}

		switch to {
		case model.POApproved:
			if !po.StockApplied {
				if err := s.receive(tx, po, actor, &moved); err != nil {
					return err
				}
				po.StockApplied = true
			}
			po.ApproverID = &actor.ID
			po.RejectionMessage = ""
		case model.PORejected:
			po.ApproverID = &actor.ID
			po.RejectionMessage = strings.TrimSpace(req.RejectionMessage)
		}

		po.Status = to
		po.UpdatedBy = actor.AuditID()
		po.Items = nil
		return s.orders.Save(tx, po)
	})
	if err != nil {
		return nil, err
	}

	payload := events.PurchaseOrderPayload{PurchaseOrderID: id.String(), Code: code, From: string(from), To: string(to)}
	if err := publish(ctx, s.publisher, s.producer, events.PurchaseOrderStatusChanged, id.String(), actor, payload); err != nil {
		logger.LogError(s.log, poModule, "UpdateStatus", "publish status event", req, err)
	}
	if len(moved) > 0 {
		stock := events.StockPayload{Reason: "purchase_order", ReferenceID: id.String(), Changes: moved}
		if err := publish(ctx, s.publisher, s.producer, events.StockUpdated, id.String(), actor, stock); err != nil {
			logger.LogError(s.log, poModule, "UpdateStatus", "publish stock event", req, err)
		}
	}
	return s.orders.FindByID(ctx, id)
}

func (s *purchaseOrderService) receive(tx *gorm.DB, po *model.PurchaseOrder, actor Actor, moved *stockLog) error {
	if len(po.Items) == 0 {
		return settlement.Conflict("items", "Purchase order %s has no items.", po.Code)
	}
	ids := make([]uuid.UUID, 0, len(po.Items))
	for _, it := range po.Items {
		ids = append(ids, it.ProductSKUID)
	}
	locked, err := s.skus.FindByIDsForUpdate(tx, ids)
	if err != nil {
		return err
	}
	skus := make(map[uuid.UUID]model.ProductSKU, len(locked))
	for _, sku := range locked {
		skus[sku.ID] = sku
	}

	// several SKUs can share a product; compare against the latest price
	prices := make(map[uuid.UUID]int64)
	for _, it := range po.Items {
		sku, ok := skus[it.ProductSKUID]
		if !ok {
			return settlement.NotFound("items", "Product SKU %s not found.", it.ProductSKUID)
		}
		price, seen := prices[sku.ProductID]
		if !seen {
			price = sku.Price()
		}
		if sku.Stock <= 0 || price < it.Price {
			if err := s.products.UpdatePrice(tx, sku.ProductID, it.Price, actor.AuditID()); err != nil {
				return err
			}
			price = it.Price
		}
		prices[sku.ProductID] = price

		if err := s.skus.AdjustStock(tx, sku.ID, it.Amounts); err != nil {
			return err
		}
		moved.add(sku.ID, sku.SKU, it.Amounts)
	}
	return nil
}

func (s *purchaseOrderService) Get(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	po, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "id", "Purchase order not found.")
	}
	return po, nil
}

func (s *purchaseOrderService) List(ctx context.Context, f repository.PurchaseOrderFilter) ([]model.PurchaseOrder, error) {
	return s.orders.FindAll(ctx, f)
}
