package service

import (
	"context"
	"maps"
	"slices"
	"strings"
	"time"

	"retail-backoffice/internal/model"
	"retail-backoffice/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// memDB is a tiny in-memory stand-in for the tables the services touch.
// fakeTx snapshots it before each unit of work and restores it on error, so
// tests can assert rollback.
type memDB struct {
	products   map[uuid.UUID]model.Product
	categories map[uuid.UUID]model.ProductCategory
	skus       map[uuid.UUID]model.ProductSKU
	coupons    map[uuid.UUID]model.Coupon
	codes      map[uuid.UUID]model.CouponCode
	books      map[uuid.UUID]model.CashierBook
	users      map[uuid.UUID]model.User
	headers    map[uuid.UUID]model.Transaction
	items      []model.TransactionItem
	lines      []model.TransactionCoupon
	suppliers  map[uuid.UUID]model.Supplier
	payments   map[uuid.UUID]model.SupplierPayment
	orders     map[uuid.UUID]model.PurchaseOrder
	poItems    []model.PoItem
	stats      map[uuid.UUID]model.CashierBookStats

	supplierSeq int
}

func newMemDB() *memDB {
	return &memDB{
		products:   map[uuid.UUID]model.Product{},
		categories: map[uuid.UUID]model.ProductCategory{},
		skus:       map[uuid.UUID]model.ProductSKU{},
		coupons:    map[uuid.UUID]model.Coupon{},
		codes:      map[uuid.UUID]model.CouponCode{},
		books:      map[uuid.UUID]model.CashierBook{},
		users:      map[uuid.UUID]model.User{},
		headers:    map[uuid.UUID]model.Transaction{},
		suppliers:  map[uuid.UUID]model.Supplier{},
		payments:   map[uuid.UUID]model.SupplierPayment{},
		orders:     map[uuid.UUID]model.PurchaseOrder{},
		stats:      map[uuid.UUID]model.CashierBookStats{},
	}
}

func (db *memDB) snapshot() memDB {
	return memDB{
		products:    maps.Clone(db.products),
		categories:  maps.Clone(db.categories),
		skus:        maps.Clone(db.skus),
		coupons:     maps.Clone(db.coupons),
		codes:       maps.Clone(db.codes),
		books:       maps.Clone(db.books),
		users:       maps.Clone(db.users),
		headers:     maps.Clone(db.headers),
		items:       slices.Clone(db.items),
		lines:       slices.Clone(db.lines),
		suppliers:   maps.Clone(db.suppliers),
		payments:    maps.Clone(db.payments),
		orders:      maps.Clone(db.orders),
		poItems:     slices.Clone(db.poItems),
		stats:       maps.Clone(db.stats),
		supplierSeq: db.supplierSeq,
	}
}

func (db *memDB) addProduct(name string, price int64) model.Product {
	p := model.Product{Name: name, Price: price}
	p.ID = uuid.New()
	db.products[p.ID] = p
	return p
}

func (db *memDB) addSKU(product model.Product, code string, stock int) model.ProductSKU {
	s := model.ProductSKU{ProductID: product.ID, SKU: code, Stock: stock}
	s.ID = uuid.New()
	db.skus[s.ID] = s
	return s
}

func (db *memDB) addCoupon(c model.Coupon, code string, stock int) model.CouponCode {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	db.coupons[c.ID] = c
	cc := model.CouponCode{CouponID: c.ID, Code: code, Stock: stock}
	cc.ID = uuid.New()
	db.codes[cc.ID] = cc
	return cc
}

func (db *memDB) skuByCode(code string) model.ProductSKU {
	for _, s := range db.skus {
		if s.SKU == code {
			return s
		}
	}
	return model.ProductSKU{}
}

func (db *memDB) codeByCode(code string) model.CouponCode {
	for _, c := range db.codes {
		if c.Code == code {
			return c
		}
	}
	return model.CouponCode{}
}

func (db *memDB) withProduct(s model.ProductSKU) model.ProductSKU {
	if p, ok := db.products[s.ProductID]; ok {
		s.Product = &p
	}
	return s
}

func (db *memDB) withCoupon(c model.CouponCode) model.CouponCode {
	if cp, ok := db.coupons[c.CouponID]; ok {
		c.Coupon = &cp
	}
	return c
}

func (db *memDB) loadTransaction(id uuid.UUID) (*model.Transaction, error) {
	h, ok := db.headers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	h.Items = nil
	h.Coupons = nil
	for _, it := range db.items {
		if it.TransactionID == id {
			if s, ok := db.skus[it.ProductSKUID]; ok {
				s = db.withProduct(s)
				it.ProductSKU = &s
			}
			h.Items = append(h.Items, it)
		}
	}
	for _, c := range db.lines {
		if c.TransactionID == id {
			if cc, ok := db.codes[c.CouponCodeID]; ok {
				cc = db.withCoupon(cc)
				c.CouponCode = &cc
			}
			h.Coupons = append(h.Coupons, c)
		}
	}
	return &h, nil
}

type fakeTx struct {
	db *memDB
}

func (f *fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	snap := f.db.snapshot()
	if err := fn(nil); err != nil {
		*f.db = snap
		return err
	}
	return nil
}

type fakeProductRepo struct {
	repository.ProductRepository
	db *memDB
}

func (r *fakeProductRepo) Create(ctx context.Context, p *model.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	stored := *p
	stored.SKUs = nil
	stored.Category = nil
	r.db.products[p.ID] = stored
	return nil
}

func (r *fakeProductRepo) Update(ctx context.Context, p *model.Product) error {
	return r.Create(ctx, p)
}

func (r *fakeProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.db.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	for _, s := range r.db.skus {
		if s.ProductID == id {
			p.SKUs = append(p.SKUs, s)
		}
	}
	return &p, nil
}

func (r *fakeProductRepo) FindAll(ctx context.Context, search string, categoryID *uuid.UUID) ([]model.Product, error) {
	var out []model.Product
	for _, p := range r.db.products {
		if search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(search)) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *fakeProductRepo) UpdatePrice(tx *gorm.DB, id uuid.UUID, price int64, updatedBy string) error {
	p := r.db.products[id]
	p.Price = price
	p.UpdatedBy = updatedBy
	r.db.products[id] = p
	return nil
}

func (r *fakeProductRepo) Delete(ctx context.Context, id uuid.UUID, deletedBy string) error {
	delete(r.db.products, id)
	maps.DeleteFunc(r.db.skus, func(_ uuid.UUID, s model.ProductSKU) bool { return s.ProductID == id })
	return nil
}

func (r *fakeProductRepo) CreateCategory(ctx context.Context, c *model.ProductCategory) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.db.categories[c.ID] = *c
	return nil
}

func (r *fakeProductRepo) FindCategoryByID(ctx context.Context, id uuid.UUID) (*model.ProductCategory, error) {
	c, ok := r.db.categories[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r *fakeProductRepo) DeleteCategory(ctx context.Context, id uuid.UUID, deletedBy string) error {
	for pid, p := range r.db.products {
		if p.CategoryID != nil && *p.CategoryID == id {
			p.CategoryID = nil
			r.db.products[pid] = p
		}
	}
	delete(r.db.categories, id)
	return nil
}

type fakeSKURepo struct {
	repository.SKURepository
	db *memDB
}

func (r *fakeSKURepo) Create(ctx context.Context, s *model.ProductSKU) error {
	for _, existing := range r.db.skus {
		if existing.SKU == s.SKU {
			return gorm.ErrDuplicatedKey
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	stored := *s
	stored.Product = nil
	r.db.skus[s.ID] = stored
	return nil
}

func (r *fakeSKURepo) Update(ctx context.Context, s *model.ProductSKU) error {
	stored := r.db.skus[s.ID]
	stored.SKU = s.SKU
	stored.SupplierDiscount = s.SupplierDiscount
	stored.UpdatedBy = s.UpdatedBy
	r.db.skus[s.ID] = stored
	return nil
}

func (r *fakeSKURepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ProductSKU, error) {
	s, ok := r.db.skus[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	s = r.db.withProduct(s)
	return &s, nil
}

func (r *fakeSKURepo) FindByCode(ctx context.Context, code string) (*model.ProductSKU, error) {
	for _, s := range r.db.skus {
		if s.SKU == code {
			s = r.db.withProduct(s)
			return &s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSKURepo) FindAvailable(ctx context.Context, search string) ([]model.ProductSKU, error) {
	var out []model.ProductSKU
	for _, s := range r.db.skus {
		if s.Stock > 0 && strings.Contains(s.SKU, search) {
			out = append(out, r.db.withProduct(s))
		}
	}
	return out, nil
}

func (r *fakeSKURepo) FindByCodesForUpdate(tx *gorm.DB, codes []string) ([]model.ProductSKU, error) {
	var out []model.ProductSKU
	for _, s := range r.db.skus {
		if slices.Contains(codes, s.SKU) {
			out = append(out, r.db.withProduct(s))
		}
	}
	return out, nil
}

func (r *fakeSKURepo) FindByIDsForUpdate(tx *gorm.DB, ids []uuid.UUID) ([]model.ProductSKU, error) {
	var out []model.ProductSKU
	for _, id := range ids {
		if s, ok := r.db.skus[id]; ok {
			out = append(out, r.db.withProduct(s))
		}
	}
	return out, nil
}

func (r *fakeSKURepo) AdjustStock(tx *gorm.DB, id uuid.UUID, delta int) error {
	s := r.db.skus[id]
	s.Stock += delta
	r.db.skus[id] = s
	return nil
}

type fakeCouponRepo struct {
	repository.CouponRepository
	db *memDB
}

func (r *fakeCouponRepo) Create(ctx context.Context, c *model.Coupon) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	stored := *c
	stored.Codes = nil
	r.db.coupons[c.ID] = stored
	return nil
}

func (r *fakeCouponRepo) Update(ctx context.Context, c *model.Coupon) error {
	return r.Create(ctx, c)
}

func (r *fakeCouponRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error) {
	c, ok := r.db.coupons[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	for _, cc := range r.db.codes {
		if cc.CouponID == id {
			c.Codes = append(c.Codes, cc)
		}
	}
	return &c, nil
}

func (r *fakeCouponRepo) FindAll(ctx context.Context, search string) ([]model.Coupon, error) {
	var out []model.Coupon
	for _, c := range r.db.coupons {
		out = append(out, c)
	}
	return out, nil
}

func (r *fakeCouponRepo) CreateCode(ctx context.Context, code *model.CouponCode) error {
	for _, existing := range r.db.codes {
		if existing.Code == code.Code {
			return gorm.ErrDuplicatedKey
		}
	}
	if code.ID == uuid.Nil {
		code.ID = uuid.New()
	}
	stored := *code
	stored.Coupon = nil
	r.db.codes[code.ID] = stored
	return nil
}

func (r *fakeCouponRepo) UpdateCode(ctx context.Context, code *model.CouponCode) error {
	stored := r.db.codes[code.ID]
	stored.Stock = code.Stock
	stored.Disabled = code.Disabled
	stored.UpdatedBy = code.UpdatedBy
	r.db.codes[code.ID] = stored
	return nil
}

func (r *fakeCouponRepo) FindCodeByID(ctx context.Context, id uuid.UUID) (*model.CouponCode, error) {
	c, ok := r.db.codes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c = r.db.withCoupon(c)
	return &c, nil
}

func (r *fakeCouponRepo) FindCodeByCode(ctx context.Context, code string) (*model.CouponCode, error) {
	for _, c := range r.db.codes {
		if c.Code == code {
			c = r.db.withCoupon(c)
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCouponRepo) FindCodesByCoupon(ctx context.Context, couponID uuid.UUID) ([]model.CouponCode, error) {
	var out []model.CouponCode
	for _, c := range r.db.codes {
		if c.CouponID == couponID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCouponRepo) FindCodesForUpdate(tx *gorm.DB, codes []string) ([]model.CouponCode, error) {
	var out []model.CouponCode
	for _, c := range r.db.codes {
		if slices.Contains(codes, c.Code) {
			out = append(out, r.db.withCoupon(c))
		}
	}
	return out, nil
}

func (r *fakeCouponRepo) AdjustUsed(tx *gorm.DB, id uuid.UUID, delta int) error {
	c := r.db.codes[id]
	c.Used += delta
	r.db.codes[id] = c
	return nil
}

type fakeBookRepo struct {
	repository.CashierBookRepository
	db *memDB
}

func (r *fakeBookRepo) Create(tx *gorm.DB, b *model.CashierBook) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	stored := *b
	stored.Cashier = nil
	r.db.books[b.ID] = stored
	return nil
}

func (r *fakeBookRepo) Close(tx *gorm.DB, id uuid.UUID, at time.Time, updatedBy string) error {
	b := r.db.books[id]
	if b.TimeClosed == nil {
		b.TimeClosed = &at
		b.UpdatedBy = updatedBy
		r.db.books[id] = b
	}
	return nil
}

func (r *fakeBookRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CashierBook, error) {
	b, ok := r.db.books[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if u, ok := r.db.users[b.CashierID]; ok {
		b.Cashier = &u
	}
	return &b, nil
}

func (r *fakeBookRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.CashierBook, error) {
	return r.FindByID(context.Background(), id)
}

func (r *fakeBookRepo) FindOpenByCashier(tx *gorm.DB, cashierID uuid.UUID) (*model.CashierBook, error) {
	for _, b := range r.db.books {
		if b.CashierID == cashierID && b.IsOpen() {
			return &b, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeBookRepo) FindAll(ctx context.Context, f repository.CashierBookFilter) ([]model.CashierBook, int64, error) {
	var out []model.CashierBook
	for _, b := range r.db.books {
		if f.CashierID != nil && b.CashierID != *f.CashierID {
			continue
		}
		out = append(out, b)
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookRepo) Stats(ctx context.Context, bookID uuid.UUID) (*model.CashierBookStats, error) {
	s := r.db.stats[bookID]
	return &s, nil
}

type fakeTransactionRepo struct {
	repository.TransactionRepository
	db *memDB
}

func (r *fakeTransactionRepo) Create(tx *gorm.DB, t *model.Transaction) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	stored := *t
	stored.Items = nil
	stored.Coupons = nil
	stored.CashierBook = nil
	r.db.headers[t.ID] = stored
	return nil
}

func (r *fakeTransactionRepo) Save(tx *gorm.DB, t *model.Transaction) error {
	stored, ok := r.db.headers[t.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Pay = t.Pay
	stored.SubTotal = t.SubTotal
	stored.DiscountTotal = t.DiscountTotal
	stored.Total = t.Total
	stored.Payment = t.Payment
	stored.Note = t.Note
	stored.IsSaved = t.IsSaved
	stored.PaidTime = t.PaidTime
	stored.UpdatedBy = t.UpdatedBy
	r.db.headers[t.ID] = stored
	return nil
}

func (r *fakeTransactionRepo) FindByIDForUpdate(tx *gorm.DB, id uuid.UUID) (*model.Transaction, error) {
	return r.db.loadTransaction(id)
}

func (r *fakeTransactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	t, err := r.db.loadTransaction(id)
	if err != nil {
		return nil, err
	}
	if b, ok := r.db.books[t.CashierBookID]; ok {
		t.CashierBook = &b
	}
	return t, nil
}

func (r *fakeTransactionRepo) FindAll(ctx context.Context, f model.TransactionFilter) ([]model.Transaction, int64, error) {
	var out []model.Transaction
	for id, h := range r.db.headers {
		if f.CashierBookID != nil && h.CashierBookID != *f.CashierBookID {
			continue
		}
		t, _ := r.db.loadTransaction(id)
		out = append(out, *t)
	}
	return out, int64(len(out)), nil
}

func (r *fakeTransactionRepo) CreateItems(tx *gorm.DB, items []model.TransactionItem) error {
	for _, it := range items {
		if it.ID == uuid.Nil {
			it.ID = uuid.New()
		}
		it.ProductSKU = nil
		r.db.items = append(r.db.items, it)
	}
	return nil
}

func (r *fakeTransactionRepo) UpdateItem(tx *gorm.DB, item *model.TransactionItem) error {
	for i := range r.db.items {
		if r.db.items[i].ID == item.ID {
			r.db.items[i].Amount = item.Amount
			r.db.items[i].SupplierDiscount = item.SupplierDiscount
		}
	}
	return nil
}

func (r *fakeTransactionRepo) DeleteItems(tx *gorm.DB, ids []uuid.UUID) error {
	r.db.items = slices.DeleteFunc(r.db.items, func(it model.TransactionItem) bool {
		return slices.Contains(ids, it.ID)
	})
	return nil
}

func (r *fakeTransactionRepo) CreateCoupons(tx *gorm.DB, coupons []model.TransactionCoupon) error {
	for _, c := range coupons {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		c.CouponCode = nil
		r.db.lines = append(r.db.lines, c)
	}
	return nil
}

func (r *fakeTransactionRepo) UpdateCoupon(tx *gorm.DB, c *model.TransactionCoupon) error {
	for i := range r.db.lines {
		if r.db.lines[i].ID == c.ID {
			r.db.lines[i].Amount = c.Amount
			r.db.lines[i].ItemVoucherValue = c.ItemVoucherValue
			r.db.lines[i].ItemDiscountValue = c.ItemDiscountValue
		}
	}
	return nil
}

func (r *fakeTransactionRepo) DeleteCoupons(tx *gorm.DB, ids []uuid.UUID) error {
	r.db.lines = slices.DeleteFunc(r.db.lines, func(c model.TransactionCoupon) bool {
		return slices.Contains(ids, c.ID)
	})
	return nil
}

type fakeSupplierRepo struct {
	repository.SupplierRepository
	db *memDB
}

func (r *fakeSupplierRepo) Create(tx *gorm.DB, s *model.Supplier) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.db.suppliers[s.ID] = *s
	return nil
}

func (r *fakeSupplierRepo) Update(ctx context.Context, s *model.Supplier) error {
	r.db.suppliers[s.ID] = *s
	return nil
}

func (r *fakeSupplierRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	s, ok := r.db.suppliers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &s, nil
}

func (r *fakeSupplierRepo) FindAll(ctx context.Context, search string) ([]model.Supplier, error) {
	var out []model.Supplier
	for _, s := range r.db.suppliers {
		out = append(out, s)
	}
	return out, nil
}

func (r *fakeSupplierRepo) Delete(ctx context.Context, id uuid.UUID, deletedBy string) error {
	delete(r.db.suppliers, id)
	maps.DeleteFunc(r.db.payments, func(_ uuid.UUID, p model.SupplierPayment) bool { return p.SupplierID == id })
	return nil
}

func (r *fakeSupplierRepo) NextSequence(tx *gorm.DB) (int, error) {
	r.db.supplierSeq++
	return r.db.supplierSeq, nil
}

type fakePaymentRepo struct {
	db *memDB
}

func (r *fakePaymentRepo) Create(ctx context.Context, p *model.SupplierPayment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.db.payments[p.ID] = *p
	return nil
}

func (r *fakePaymentRepo) Update(ctx context.Context, p *model.SupplierPayment) error {
	stored := *p
	stored.Supplier = nil
	r.db.payments[p.ID] = stored
	return nil
}

func (r *fakePaymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.SupplierPayment, error) {
	p, ok := r.db.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if s, ok := r.db.suppliers[p.SupplierID]; ok {
		p.Supplier = &s
	}
	return &p, nil
}

func (r *fakePaymentRepo) FindAll(ctx context.Context, f repository.SupplierPaymentFilter) ([]model.SupplierPayment, error) {
	var out []model.SupplierPayment
	for _, p := range r.db.payments {
		if f.SupplierID != nil && p.SupplierID != *f.SupplierID {
			continue
		}
		if f.Search != "" && !strings.Contains(p.Name+" "+p.Owner+" "+p.AccountNumber, f.Search) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *fakePaymentRepo) Delete(ctx context.Context, id uuid.UUID, deletedBy string) error {
	delete(r.db.payments, id)
	return nil
}

type fakePurchaseOrderRepo struct {
	repository.PurchaseOrderRepository
	db *memDB
}

func (r *fakePurchaseOrderRepo) Create(tx *gorm.DB, po *model.PurchaseOrder) error {
	if po.ID == uuid.Nil {
		po.ID = uuid.New()
	}
	stored := *po
	stored.Items = nil
	stored.Supplier = nil
	r.db.orders[po.ID] = stored
	return nil
}

func (r *fakePurchaseOrderRepo) Save(tx *gorm.DB, po *model.PurchaseOrder) error {
	if _, ok := r.db.orders[po.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	return r.Create(tx, po)
}

func (r *fakePurchaseOrderRepo) load(id uuid.UUID) (*model.PurchaseOrder, error) {
	po, ok := r.db.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	po.Items = nil
	for _, it := range r.db.poItems {
		if it.PurchaseOrderID == id {
			if s, ok := r.db.skus[it.ProductSKUID]; ok {
				s = r.db.withProduct(s)
				it.ProductSKU = &s
			}
			po.Items = append(po.Items, it)
		}
	}
	return &po, nil
}

func (r *fakePurchaseOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	po, err := r.load(id)
	if err != nil {
		return nil, err
	}
	if s, ok := r.db.suppliers[po.SupplierID]; ok {
		po.Supplier = &s
	}
	return po, nil
}

func (r *fakePurchaseOrderRepo) FindByIDForUpdate(tx *gorm.DB, id uuid.UUID) (*model.PurchaseOrder, error) {
	return r.load(id)
}

func (r *fakePurchaseOrderRepo) FindAll(ctx context.Context, f repository.PurchaseOrderFilter) ([]model.PurchaseOrder, error) {
	var out []model.PurchaseOrder
	for _, po := range r.db.orders {
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, po.Status) {
			continue
		}
		if f.SupplierID != nil && po.SupplierID != *f.SupplierID {
			continue
		}
		out = append(out, po)
	}
	return out, nil
}

func (r *fakePurchaseOrderRepo) ReplaceItems(tx *gorm.DB, poID uuid.UUID, items []model.PoItem) error {
	r.db.poItems = slices.DeleteFunc(r.db.poItems, func(it model.PoItem) bool {
		return it.PurchaseOrderID == poID
	})
	for _, it := range items {
		if it.ID == uuid.Nil {
			it.ID = uuid.New()
		}
		it.PurchaseOrderID = poID
		it.ProductSKU = nil
		r.db.poItems = append(r.db.poItems, it)
	}
	return nil
}

type fakeStoreRepo struct {
	store *model.Store
}

func (r *fakeStoreRepo) Get(ctx context.Context) (*model.Store, error) {
	if r.store == nil {
		return nil, gorm.ErrRecordNotFound
	}
	s := *r.store
	return &s, nil
}

func (r *fakeStoreRepo) Save(ctx context.Context, s *model.Store) error {
	s.ID = model.StoreProfileID
	stored := *s
	r.store = &stored
	return nil
}
