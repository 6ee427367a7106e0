package database

import (
	"fmt"
	"os"
	"time"

	"retail-backoffice/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DSN returns url when set, otherwise builds one from the DB_* variables.
func DSN(url string) string {
	if url != "" {
		return url
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=Asia/Jakarta",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)
}

// Connect opens the pool. SQL is logged through log at warn level and above
// unless log is at debug.
func Connect(dsn string, log *logrus.Logger) (*gorm.DB, error) {
	level := logger.Warn
	if log.IsLevelEnabled(logrus.DebugLevel) {
		level = logger.Info
	}

	gormLogger := logger.New(
		log,
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true, // Disables implicit prepared statements for pgbouncer transaction mode
	}), &gorm.Config{
		Logger:         gormLogger,
		PrepareStmt:    false,
		TranslateError: true, // unique violations surface as gorm.ErrDuplicatedKey
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// Models lists every persisted type in dependency order.
func Models() []any {
	return []any{
		&model.Privilege{},
		&model.Role{},
		&model.User{},
		&model.ProductCategory{},
		&model.Product{},
		&model.ProductSKU{},
		&model.Coupon{},
		&model.CouponCode{},
		&model.CashierBook{},
		&model.Transaction{},
		&model.TransactionItem{},
		&model.TransactionCoupon{},
		&model.Supplier{},
		&model.SupplierPayment{},
		&model.PurchaseOrder{},
		&model.PoItem{},
		&model.Store{},
	}
}

// Migrate runs AutoMigrate plus the indexes gorm tags cannot express.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	// One open book per cashier.
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_cashier_books_one_open
		ON cashier_books (cashier_id)
		WHERE time_closed IS NULL AND deleted_at IS NULL`).Error; err != nil {
		return fmt.Errorf("create open book index: %w", err)
	}
	return nil
}
