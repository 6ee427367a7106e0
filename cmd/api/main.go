package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"retail-backoffice/internal/config"
	"retail-backoffice/internal/events"
	"retail-backoffice/internal/handler"
	"retail-backoffice/internal/middleware"
	"retail-backoffice/internal/model"
	"retail-backoffice/internal/repository"
	"retail-backoffice/internal/service"
	"retail-backoffice/internal/ws"
	"retail-backoffice/pkg/database"
	"retail-backoffice/pkg/jwt"
	"retail-backoffice/pkg/logger"
	"retail-backoffice/pkg/redisx"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func main() {
	// 1. Load config
	cfg := config.Load()
	log := logger.Init(cfg.LogLevel)
	loc := cfg.Location()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Setup Database
	db, err := database.Connect(database.DSN(cfg.DatabaseURL), log)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("migration failed")
	}
	log.Info("Database connection established")

	// 3. Seed default privileges, roles, and admin user
	seedPrivilegesRolesAndAdmin(db, cfg, log)

	// 4. Redis: idempotency keys and locks. Optional.
	rdb := redisx.New(cfg.RedisAddr)
	if err := redisx.Ping(ctx, rdb); err != nil {
		log.WithError(err).Warn("redis unreachable, continuing without idempotency and locks")
		rdb = nil
	}
	locker := redisx.NewLocker(rdb, log)
	idem := redisx.NewIdempotencyStore(rdb, redisx.KeyIdemTransactionCreate, redisx.TTLIdempotency)

	// 5. WebSocket hub and event publishers
	wsHub := ws.NewHub(log)
	go wsHub.Run()

	publisher := events.Multi{events.NewHubPublisher(wsHub, log)}
	var kafkaPub *events.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPub = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, 256, log)
		kafkaPub.Start(ctx)
		publisher = append(publisher, kafkaPub)
		log.WithField("topic", cfg.KafkaTopic).Info("kafka publisher started")
	}

	// 6. Dependency Injection (Wiring Layers)
	txm := repository.NewTxManager(db)
	userRepo := repository.NewUserRepo(db)
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	productRepo := repository.NewProductRepo(db)
	skuRepo := repository.NewSKURepo(db)
	couponRepo := repository.NewCouponRepo(db)
	bookRepo := repository.NewCashierBookRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	supplierRepo := repository.NewSupplierRepo(db)
	paymentRepo := repository.NewSupplierPaymentRepo(db)
	storeRepo := repository.NewStoreRepo(db)
	poRepo := repository.NewPurchaseOrderRepo(db)

	authService := service.NewAuthService(userRepo, jwt.NewIssuer(cfg.JWTSecret), wsHub, log)
	userService := service.NewUserService(userRepo, privilegeRepo, roleRepo)
	catalogueService := service.NewCatalogueService(txm, productRepo, skuRepo, publisher, log, cfg.ServiceName)
	couponService := service.NewCouponService(couponRepo)
	bookService := service.NewCashierBookService(txm, bookRepo, publisher, log, cfg.ServiceName, loc)
	txService := service.NewTransactionService(service.TransactionServiceConfig{
		TxManager:    txm,
		Transactions: txRepo,
		SKUs:         skuRepo,
		Coupons:      couponRepo,
		CashierBooks: bookRepo,
		Locker:       locker,
		Publisher:    publisher,
		Logger:       log,
		Producer:     cfg.ServiceName,
	})
	poService := service.NewPurchaseOrderService(service.PurchaseOrderServiceConfig{
		TxManager:      txm,
		Suppliers:      supplierRepo,
		Payments:       paymentRepo,
		PurchaseOrders: poRepo,
		Products:       productRepo,
		SKUs:           skuRepo,
		Locker:         locker,
		Publisher:      publisher,
		Logger:         log,
		Producer:       cfg.ServiceName,
	})
	dashService := service.NewDashboardService(txRepo, loc)
	storeService := service.NewStoreService(storeRepo)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(userService)
	catalogueHandler := handler.NewCatalogueHandler(catalogueService)
	couponHandler := handler.NewCouponHandler(couponService)
	bookHandler := handler.NewCashierBookHandler(bookService)
	txHandler := handler.NewTransactionHandler(txService, loc)
	poHandler := handler.NewPurchaseOrderHandler(poService)
	dashHandler := handler.NewDashboardHandler(dashService)
	storeHandler := handler.NewStoreHandler(storeService)

	// 7. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Retail Backoffice v1.0",
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "ws_clients": wsHub.ClientCount()})
	})

	// 8. Routes
	api := app.Group("/api/v1")
	requireAuth := middleware.RequireAuth(authService)
	priv := middleware.RequirePrivilege

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/reset-password", authHandler.ResetPassword)
	auth.Post("/validate-token", authHandler.ValidateToken)
	auth.Post("/heartbeat", requireAuth, authHandler.Heartbeat)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", requireAuth)

	// Dashboard
	protected.Get("/dashboard/stats", priv(model.PrivDashboardView), dashHandler.GetDashboardStats)
	protected.Get("/dashboard/sales-per-day", priv(model.PrivDashboardView), dashHandler.GetSalesPerDay)

	// Users and roles
	protected.Get("/users", priv(model.PrivUserView), userHandler.GetUsers)
	protected.Get("/users/:id", priv(model.PrivUserView), userHandler.GetUser)
	protected.Post("/users", priv(model.PrivUserManage), userHandler.CreateUser)
	protected.Put("/users/:id", priv(model.PrivUserManage), userHandler.UpdateUser)
	protected.Delete("/users/:id", priv(model.PrivUserManage), userHandler.DeleteUser)
	protected.Put("/users/:id/privileges", priv(model.PrivUserManage), userHandler.UpdateUserPrivileges)
	protected.Get("/roles", roleHandler.GetRoles)
	protected.Get("/privileges", roleHandler.GetPrivileges)

	// Store profile, readable by every signed-in user for receipts
	protected.Get("/store", storeHandler.GetStore)
	protected.Patch("/store", priv(model.PrivStoreManage), storeHandler.UpdateStore)

	// Catalogue
	catalogueView := middleware.RequireAnyPrivilege(model.PrivCatalogueView, model.PrivCatalogueManage)
	protected.Get("/categories", catalogueView, catalogueHandler.GetCategories)
	protected.Post("/categories", priv(model.PrivCatalogueManage), catalogueHandler.CreateCategory)
	protected.Delete("/categories/:id", priv(model.PrivCatalogueManage), catalogueHandler.DeleteCategory)
	protected.Get("/products", catalogueView, catalogueHandler.GetProducts)
	protected.Get("/products/:id", catalogueView, catalogueHandler.GetProduct)
	protected.Post("/products", priv(model.PrivCatalogueManage), catalogueHandler.CreateProduct)
	protected.Put("/products/:id", priv(model.PrivCatalogueManage), catalogueHandler.UpdateProduct)
	protected.Delete("/products/:id", priv(model.PrivCatalogueManage), catalogueHandler.DeleteProduct)
	protected.Post("/products/:id/skus", priv(model.PrivCatalogueManage), catalogueHandler.CreateSKU)
	protected.Get("/skus/available", catalogueView, catalogueHandler.GetAvailableSKUs)
	protected.Get("/skus/:code/check", catalogueView, catalogueHandler.CheckSKU)
	protected.Put("/skus/:id", priv(model.PrivCatalogueManage), catalogueHandler.UpdateSKU)
	protected.Post("/skus/:id/stock", priv(model.PrivCatalogueManage), catalogueHandler.AdjustStock)

	// Coupons
	couponView := middleware.RequireAnyPrivilege(model.PrivCouponView, model.PrivCouponManage)
	protected.Get("/coupons", couponView, couponHandler.GetCoupons)
	protected.Get("/coupons/:id", couponView, couponHandler.GetCoupon)
	protected.Post("/coupons", priv(model.PrivCouponManage), couponHandler.CreateCoupon)
	protected.Put("/coupons/:id", priv(model.PrivCouponManage), couponHandler.UpdateCoupon)
	protected.Get("/coupons/:id/codes", couponView, couponHandler.GetCouponCodes)
	protected.Post("/coupons/:id/codes", priv(model.PrivCouponManage), couponHandler.CreateCouponCode)
	protected.Put("/coupon-codes/:id", priv(model.PrivCouponManage), couponHandler.UpdateCouponCode)
	protected.Get("/coupon-codes/:code/check", couponView, couponHandler.CheckCouponCode)
	protected.Get("/coupon-codes/:code/usage", couponView, couponHandler.CheckCouponCodeUsage)

	// Cashier books. The /active routes go before /:id. Cashiers without the
	// view privilege only see their own books.
	bookAccess := middleware.RequireAnyPrivilege(model.PrivCashierBookOpen, model.PrivCashierBookView)
	protected.Post("/cashier-books", priv(model.PrivCashierBookOpen), bookHandler.OpenCashierBook)
	protected.Get("/cashier-books/active", priv(model.PrivCashierBookOpen), bookHandler.GetActiveCashierBook)
	protected.Get("/cashier-books/active/stats", priv(model.PrivCashierBookOpen), bookHandler.GetActiveCashierBookStats)
	protected.Post("/cashier-books/active/close", priv(model.PrivCashierBookOpen), bookHandler.CloseActiveCashierBook)
	protected.Get("/cashier-books", bookAccess, bookHandler.GetCashierBooks)
	protected.Get("/cashier-books/:id", bookAccess, bookHandler.GetCashierBook)
	protected.Get("/cashier-books/:id/stats", bookAccess, bookHandler.GetCashierBookStats)
	protected.Post("/cashier-books/:id/close", priv(model.PrivCashierBookOpen), bookHandler.CloseCashierBook)

	// Transactions
	protected.Get("/transactions", priv(model.PrivTransactionView), txHandler.GetTransactions)
	protected.Get("/transactions/:id", priv(model.PrivTransactionView), txHandler.GetTransaction)
	protected.Post("/transactions", priv(model.PrivTransactionCreate), middleware.Idempotency(idem, log), txHandler.CreateTransaction)
	protected.Put("/transactions/:id", priv(model.PrivTransactionUpdate), txHandler.UpdateTransaction)

	// Procurement. The /payments routes go before /:id.
	supplierManage := priv(model.PrivSupplierManage)
	protected.Get("/suppliers/payments", supplierManage, poHandler.GetSupplierPayments)
	protected.Post("/suppliers/payments", supplierManage, poHandler.CreateSupplierPayment)
	protected.Get("/suppliers/payments/:id", supplierManage, poHandler.GetSupplierPayment)
	protected.Put("/suppliers/payments/:id", supplierManage, poHandler.UpdateSupplierPayment)
	protected.Delete("/suppliers/payments/:id", supplierManage, poHandler.DeleteSupplierPayment)
	protected.Get("/suppliers", supplierManage, poHandler.GetSuppliers)
	protected.Get("/suppliers/:id", supplierManage, poHandler.GetSupplier)
	protected.Post("/suppliers", supplierManage, poHandler.CreateSupplier)
	protected.Put("/suppliers/:id", supplierManage, poHandler.UpdateSupplier)
	protected.Delete("/suppliers/:id", supplierManage, poHandler.DeleteSupplier)
	poView := middleware.RequireAnyPrivilege(model.PrivPurchaseOrderView, model.PrivPurchaseOrderManage)
	protected.Get("/purchase-orders", poView, poHandler.GetPurchaseOrders)
	protected.Get("/purchase-orders/:id", poView, poHandler.GetPurchaseOrder)
	protected.Post("/purchase-orders", priv(model.PrivPurchaseOrderManage), poHandler.CreatePurchaseOrder)
	protected.Put("/purchase-orders/:id", priv(model.PrivPurchaseOrderManage), poHandler.UpdatePurchaseOrder)
	// Approval privilege is checked inside the service for the approved/rejected targets.
	protected.Patch("/purchase-orders/:id/status", priv(model.PrivPurchaseOrderManage), poHandler.UpdatePurchaseOrderStatus)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 9. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Panic("listen failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	if err := app.ShutdownWithTimeout(cfg.ShutdownWait); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}
	if kafkaPub != nil {
		kafkaPub.Close()
		kafkaPub.WaitClosed()
	}
	wsHub.Stop()
	if rdb != nil {
		_ = rdb.Close()
	}

	log.Info("Server exited")
}

// seedPrivilegesRolesAndAdmin creates default privileges, roles, and the
// admin user if they don't exist.
func seedPrivilegesRolesAndAdmin(db *gorm.DB, cfg config.Config, log *logrus.Logger) {
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	userRepo := repository.NewUserRepo(db)

	if err := privilegeRepo.SeedDefaults(); err != nil {
		logger.LogError(log, "main", "seedPrivilegesRolesAndAdmin", "seed privileges", nil, err)
	}
	if err := roleRepo.SeedDefaults(); err != nil {
		logger.LogError(log, "main", "seedPrivilegesRolesAndAdmin", "seed roles", nil, err)
	}

	email := cfg.AdminEmail
	if _, err := userRepo.FindByEmail(email); err == nil {
		return
	}

	adminRole, err := roleRepo.FindByCode(model.RoleAdmin)
	if err != nil {
		logger.LogError(log, "main", "seedPrivilegesRolesAndAdmin", "find admin role", nil, err)
		return
	}

	admin := &model.User{
		Email:    email,
		FullName: "Administrator",
		RoleID:   &adminRole.ID,
		IsActive: true,
	}
	admin.Audit("system")
	if err := admin.SetPassword(cfg.AdminPassword); err != nil {
		logger.LogError(log, "main", "seedPrivilegesRolesAndAdmin", "hash admin password", nil, err)
		return
	}
	if err := userRepo.Create(admin); err != nil {
		logger.LogError(log, "main", "seedPrivilegesRolesAndAdmin", "create admin user", email, err)
		return
	}
	log.WithField("email", email).Info("admin user created")
}
