package repository

import (
	"context"
	"time"

	"retail-backoffice/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CashierBookFilter struct {
	Search    string
	CashierID *uuid.UUID
	Statuses  []string // open, closed
	OpenedOn  *time.Time
	ClosedOn  *time.Time
	Limit     int
	Offset    int
}

type CashierBookRepository interface {
	Create(tx *gorm.DB, book *model.CashierBook) error
	Close(tx *gorm.DB, id uuid.UUID, at time.Time, updatedBy string) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CashierBook, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.CashierBook, error)
	FindOpenByCashier(tx *gorm.DB, cashierID uuid.UUID) (*model.CashierBook, error)
	FindAll(ctx context.Context, f CashierBookFilter) ([]model.CashierBook, int64, error)
	Stats(ctx context.Context, bookID uuid.UUID) (*model.CashierBookStats, error)
}

type cashierBookRepo struct {
	db *gorm.DB
}

func NewCashierBookRepo(db *gorm.DB) CashierBookRepository {
	return &cashierBookRepo{db}
}

func (r *cashierBookRepo) Create(tx *gorm.DB, book *model.CashierBook) error {
	return tx.Omit("Cashier").Create(book).Error
}

func (r *cashierBookRepo) Close(tx *gorm.DB, id uuid.UUID, at time.Time, updatedBy string) error {
	return tx.Model(&model.CashierBook{}).
		Where("id = ? AND time_closed IS NULL", id).
		Updates(map[string]interface{}{
			"time_closed": at,
			"updated_by":  updatedBy,
		}).Error
}

func (r *cashierBookRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CashierBook, error) {
	var book model.CashierBook
	if err := r.db.WithContext(ctx).Preload("Cashier").First(&book, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// FindByIDTx reads the book under a share lock so it cannot be closed while a
// sale is being recorded into it.
func (r *cashierBookRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.CashierBook, error) {
	var book model.CashierBook
	err := tx.Clauses(clause.Locking{Strength: "SHARE"}).First(&book, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *cashierBookRepo) FindOpenByCashier(tx *gorm.DB, cashierID uuid.UUID) (*model.CashierBook, error) {
	var book model.CashierBook
	err := forUpdate(tx.Model(&model.CashierBook{})).
		Where("cashier_id = ? AND time_closed IS NULL", cashierID).
		Order("time_open DESC").
		First(&book).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *cashierBookRepo) FindAll(ctx context.Context, f CashierBookFilter) ([]model.CashierBook, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.CashierBook{})
	if f.Search != "" {
		q = q.Where("code ILIKE ?", "%"+f.Search+"%")
	}
	if f.CashierID != nil {
		q = q.Where("cashier_id = ?", *f.CashierID)
	}
	if f.OpenedOn != nil {
		q = q.Where("DATE(time_open) = DATE(?)", *f.OpenedOn)
	}
	if f.ClosedOn != nil {
		q = q.Where("DATE(time_closed) = DATE(?)", *f.ClosedOn)
	}
	open, closed := false, false
	for _, s := range f.Statuses {
		switch s {
		case "open":
			open = true
		case "closed":
			closed = true
		}
	}
	switch {
	case open && !closed:
		q = q.Where("time_closed IS NULL")
	case closed && !open:
		q = q.Where("time_closed IS NOT NULL")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var books []model.CashierBook
	q = q.Preload("Cashier").Order("time_open DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	err := q.Find(&books).Error
	return books, total, err
}

// Stats only counts paid, non-draft transactions.
func (r *cashierBookRepo) Stats(ctx context.Context, bookID uuid.UUID) (*model.CashierBookStats, error) {
	var stats model.CashierBookStats
	db := r.db.WithContext(ctx)

	err := db.Model(&model.Transaction{}).
		Select(`
			COUNT(*) FILTER (WHERE payment = 'cash') AS cash_count,
			COALESCE(SUM(total) FILTER (WHERE payment = 'cash'), 0) AS cash_value,
			COUNT(*) FILTER (WHERE payment = 'cashless') AS cashless_count,
			COALESCE(SUM(total) FILTER (WHERE payment = 'cashless'), 0) AS cashless_value
		`).
		Where("cashier_book_id = ? AND is_saved = ? AND paid_time IS NOT NULL", bookID, false).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}

	var coupons struct {
		VoucherCount  int64
		VoucherValue  int64
		DiscountCount int64
		DiscountValue int64
	}
	err = db.Table("transaction_coupons AS tc").
		Select(`
			COALESCE(SUM(tc.amount) FILTER (WHERE tc.item_voucher_value IS NOT NULL), 0) AS voucher_count,
			COALESCE(SUM(tc.item_voucher_value * tc.amount), 0) AS voucher_value,
			COALESCE(SUM(tc.amount) FILTER (WHERE tc.item_discount_value IS NOT NULL), 0) AS discount_count,
			COALESCE(SUM(tc.item_discount_value * tc.amount), 0) AS discount_value
		`).
		Joins("JOIN transactions t ON t.id = tc.transaction_id AND t.deleted_at IS NULL").
		Where("t.cashier_book_id = ? AND t.is_saved = ? AND t.paid_time IS NOT NULL", bookID, false).
		Scan(&coupons).Error
	if err != nil {
		return nil, err
	}

	stats.VoucherCount = coupons.VoucherCount
	stats.VoucherValue = coupons.VoucherValue
	stats.DiscountCount = coupons.DiscountCount
	stats.DiscountValue = coupons.DiscountValue
	return &stats, nil
}
