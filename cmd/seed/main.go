package main

import (
	"context"
	"errors"
	"time"

	"retail-backoffice/internal/config"
	"retail-backoffice/internal/model"
	"retail-backoffice/internal/repository"
	"retail-backoffice/internal/service"
	"retail-backoffice/internal/settlement"
	"retail-backoffice/pkg/database"
	"retail-backoffice/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Loads demo data for local development: one staff user per role, a small
// catalogue, a supplier and a couple of coupons. Safe to run twice; rows that
// already exist are skipped.
func main() {
	cfg := config.Load()
	log := logger.Init(cfg.LogLevel)
	ctx := context.Background()

	db, err := database.Connect(database.DSN(cfg.DatabaseURL), log)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("migration failed")
	}

	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	if err := privilegeRepo.SeedDefaults(); err != nil {
		log.WithError(err).Fatal("seed privileges")
	}
	if err := roleRepo.SeedDefaults(); err != nil {
		log.WithError(err).Fatal("seed roles")
	}

	txm := repository.NewTxManager(db)
	productRepo := repository.NewProductRepo(db)
	skuRepo := repository.NewSKURepo(db)
	users := service.NewUserService(repository.NewUserRepo(db), privilegeRepo, roleRepo)
	catalogue := service.NewCatalogueService(txm, productRepo, skuRepo, nil, log, cfg.ServiceName)
	coupons := service.NewCouponService(repository.NewCouponRepo(db))
	store := service.NewStoreService(repository.NewStoreRepo(db))
	procurement := service.NewPurchaseOrderService(service.PurchaseOrderServiceConfig{
		TxManager:      txm,
		Suppliers:      repository.NewSupplierRepo(db),
		Payments:       repository.NewSupplierPaymentRepo(db),
		PurchaseOrders: repository.NewPurchaseOrderRepo(db),
		Products:       productRepo,
		SKUs:           skuRepo,
		Logger:         log,
		Producer:       cfg.ServiceName,
	})

	system := service.Actor{}

	if _, err := store.Get(ctx); errors.Is(err, settlement.ErrNotFound) {
		name, address, phone := "Toko Demo", "Jl. Sudirman 1, Jakarta", "021555000"
		_, _, err := store.Update(ctx, &service.StoreRequest{Name: &name, Address: &address, Phone: &phone}, system)
		skip(log, "store", name, err)
	}

	staff := []struct {
		email, name, role string
	}{
		{"cashier@example.com", "Demo Cashier", model.RoleCashier},
		{"checker@example.com", "Demo Checker", model.RoleChecker},
		{"procurement@example.com", "Demo Procurement", model.RoleProcurement},
	}
	for _, u := range staff {
		role, err := roleRepo.FindByCode(u.role)
		if err != nil {
			log.WithError(err).Fatalf("role %s missing", u.role)
		}
		_, err = users.CreateUser(&service.CreateUserRequest{
			Email:    u.email,
			Password: "password123",
			FullName: u.name,
			RoleID:   role.ID,
		}, system.AuditID())
		skip(log, "user", u.email, err)
	}

	category, err := catalogue.CreateCategory(ctx, &service.CategoryRequest{Name: "Minuman"}, system)
	if skip(log, "category", "Minuman", err) {
		list, _ := catalogue.ListCategories(ctx)
		for i := range list {
			if list[i].Name == "Minuman" {
				category = &list[i]
			}
		}
	}

	products := []struct {
		name  string
		price int64
		skus  []string
	}{
		{"Teh Botol 350ml", 5000, []string{"TB350"}},
		{"Kopi Susu 250ml", 8000, []string{"KS250", "KS250-LS"}},
		{"Air Mineral 600ml", 3500, []string{"AM600"}},
	}
	existing, _ := catalogue.ListProducts(ctx, "", nil)
	for _, p := range products {
		if hasProduct(existing, p.name) {
			log.WithField("product", p.name).Info("already exists, skipped")
			continue
		}
		req := &service.ProductRequest{Name: p.name, Price: p.price}
		if category != nil {
			req.CategoryID = &category.ID
		}
		product, err := catalogue.CreateProduct(ctx, req, system)
		if err != nil {
			log.WithError(err).Fatalf("create product %s", p.name)
		}
		for _, code := range p.skus {
			_, err := catalogue.CreateSKU(ctx, product.ID, &service.CreateSKURequest{SKU: code, Stock: 100}, system)
			skip(log, "sku", code, err)
		}
	}

	discount := decimal.NewFromInt(5)
	suppliers, _ := procurement.ListSuppliers(ctx, "Sinar Jaya")
	if len(suppliers) == 0 {
		supplier, err := procurement.CreateSupplier(ctx, &service.SupplierRequest{
			Name:     "Sinar Jaya",
			Address:  "Jl. Gatot Subroto 12, Jakarta",
			Phone:    "021555010",
			Discount: &discount,
		}, system)
		if !skip(log, "supplier", "Sinar Jaya", err) {
			_, err = procurement.CreateSupplierPayment(ctx, &service.CreateSupplierPaymentRequest{
				SupplierID:    supplier.ID,
				Name:          "BCA",
				Owner:         "PT Sinar Jaya",
				AccountNumber: "1234567890",
			}, system)
			skip(log, "supplier payment", "BCA", err)
		}
	}

	now := time.Now()
	voucher := int64(10000)
	percent := 10
	demoCoupons := []struct {
		req  service.CreateCouponRequest
		code string
	}{
		{service.CreateCouponRequest{Name: "Potongan 10rb", Type: settlement.CouponVoucher, VoucherValue: &voucher}, "HEMAT10K"},
		{service.CreateCouponRequest{Name: "Diskon 10%", Type: settlement.CouponDiscount, DiscountPercentage: &percent}, "DISKON10"},
	}
	for _, dc := range demoCoupons {
		if check, err := coupons.CheckCode(ctx, dc.code, 1); err == nil && check.Code != nil {
			log.WithField("code", dc.code).Info("already exists, skipped")
			continue
		}
		dc.req.StartTime = now.AddDate(0, 0, -1)
		dc.req.EndTime = now.AddDate(0, 3, 0)
		coupon, err := coupons.Create(ctx, &dc.req, system)
		if err != nil {
			log.WithError(err).Fatalf("create coupon %s", dc.req.Name)
		}
		_, err = coupons.CreateCode(ctx, coupon.ID, &service.CreateCouponCodeRequest{Code: dc.code, Stock: 50}, system)
		skip(log, "coupon code", dc.code, err)
	}

	log.Info("seed complete")
}

// skip logs conflicts as already-present rows and aborts on anything else.
// It reports whether the row already existed.
func skip(log *logrus.Logger, kind, name string, err error) bool {
	if err == nil {
		log.WithField(kind, name).Info("created")
		return false
	}
	if errors.Is(err, service.ErrEmailExists) || errors.Is(err, settlement.ErrConflict) {
		log.WithField(kind, name).Info("already exists, skipped")
		return true
	}
	log.WithError(err).Fatalf("create %s %s", kind, name)
	return false
}

func hasProduct(list []model.Product, name string) bool {
	for _, p := range list {
		if p.Name == name {
			return true
		}
	}
	return false
}
