package repository

import (
	"context"
	"time"

	"retail-backoffice/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TransactionRepository interface {
	Create(tx *gorm.DB, t *model.Transaction) error
	Save(tx *gorm.DB, t *model.Transaction) error
	FindByIDForUpdate(tx *gorm.DB, id uuid.UUID) (*model.Transaction, error)

	CreateItems(tx *gorm.DB, items []model.TransactionItem) error
	UpdateItem(tx *gorm.DB, item *model.TransactionItem) error
	DeleteItems(tx *gorm.DB, ids []uuid.UUID) error
	CreateCoupons(tx *gorm.DB, coupons []model.TransactionCoupon) error
	UpdateCoupon(tx *gorm.DB, c *model.TransactionCoupon) error
	DeleteCoupons(tx *gorm.DB, ids []uuid.UUID) error

	FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	FindAll(ctx context.Context, f model.TransactionFilter) ([]model.Transaction, int64, error)

	GetDashboardStats(ctx context.Context, lowStock int, since time.Time) (*DashboardStats, error)
	GetSalesPerDay(ctx context.Context, startDate, endDate time.Time) ([]SalesPerDay, error)
}

// SalesPerDay is one point of the dashboard sales chart.
type SalesPerDay struct {
	Date         string `json:"date"`
	Transactions int64  `json:"transactions"`
	Revenue      int64  `json:"revenue"`
	ItemsSold    int64  `json:"items_sold"`
}

type DashboardStats struct {
	TotalSKUs        int64 `json:"total_skus"`
	LowStockCount    int64 `json:"low_stock_count"`
	TotalValuation   int64 `json:"total_valuation"`
	OpenCashierBooks int64 `json:"open_cashier_books"`
	UnpaidCount      int64 `json:"unpaid_count"`
	TodaySales       int64 `json:"today_sales"`
	TodayRevenue     int64 `json:"today_revenue"`
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db}
}

func (r *transactionRepo) Create(tx *gorm.DB, t *model.Transaction) error {
	return tx.Omit(clause.Associations).Create(t).Error
}

// Save writes the header columns only; lines have their own methods.
func (r *transactionRepo) Save(tx *gorm.DB, t *model.Transaction) error {
	return tx.Model(t).
		Select("pay", "sub_total", "discount_total", "total", "payment", "note", "is_saved", "paid_time", "updated_by").
		Updates(t).Error
}

func (r *transactionRepo) FindByIDForUpdate(tx *gorm.DB, id uuid.UUID) (*model.Transaction, error) {
	var t model.Transaction
	if err := forUpdate(tx.Model(&model.Transaction{})).First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	// lines keep pointing at SKUs that were deleted after the sale
	if err := tx.Preload("ProductSKU", unscoped).
		Preload("ProductSKU.Product", unscoped).
		Where("transaction_id = ?", id).
		Order("created_at, id").
		Find(&t.Items).Error; err != nil {
		return nil, err
	}
	if err := tx.Preload("CouponCode.Coupon").
		Where("transaction_id = ?", id).
		Order("created_at, id").
		Find(&t.Coupons).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func unscoped(db *gorm.DB) *gorm.DB { return db.Unscoped() }

func (r *transactionRepo) CreateItems(tx *gorm.DB, items []model.TransactionItem) error {
	if len(items) == 0 {
		return nil
	}
	return tx.Omit("ProductSKU").Create(&items).Error
}

func (r *transactionRepo) UpdateItem(tx *gorm.DB, item *model.TransactionItem) error {
	return tx.Model(item).Select("amount", "supplier_discount").Updates(item).Error
}

func (r *transactionRepo) DeleteItems(tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.Where("id IN ?", ids).Delete(&model.TransactionItem{}).Error
}

func (r *transactionRepo) CreateCoupons(tx *gorm.DB, coupons []model.TransactionCoupon) error {
	if len(coupons) == 0 {
		return nil
	}
	return tx.Omit("CouponCode").Create(&coupons).Error
}

func (r *transactionRepo) UpdateCoupon(tx *gorm.DB, c *model.TransactionCoupon) error {
	return tx.Model(c).Select("amount", "item_voucher_value", "item_discount_value").Updates(c).Error
}

func (r *transactionRepo) DeleteCoupons(tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.Where("id IN ?", ids).Delete(&model.TransactionCoupon{}).Error
}

func (r *transactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var t model.Transaction
	err := r.db.WithContext(ctx).
		Preload("CashierBook.Cashier").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") }).
		Preload("Items.ProductSKU.Product").
		Preload("Coupons", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") }).
		Preload("Coupons.CouponCode.Coupon").
		First(&t, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *transactionRepo) FindAll(ctx context.Context, f model.TransactionFilter) ([]model.Transaction, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Transaction{})

	if f.Search != "" {
		q = q.Where("transactions.code ILIKE ?", "%"+f.Search+"%")
	}
	if f.CashierBookID != nil {
		q = q.Where("transactions.cashier_book_id = ?", *f.CashierBookID)
	}
	if f.CashierID != nil {
		q = q.Where("transactions.cashier_book_id IN (?)",
			r.db.Model(&model.CashierBook{}).Select("id").Where("cashier_id = ?", *f.CashierID))
	}
	if f.StartDate != nil {
		q = q.Where("transactions.created_at >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("transactions.created_at < ?", f.EndDate.AddDate(0, 0, 1))
	}
	if len(f.Statuses) > 0 {
		var conds []string
		for _, s := range f.Statuses {
			switch s {
			case "saved":
				conds = append(conds, "(transactions.is_saved = TRUE AND transactions.paid_time IS NULL)")
			case "unpaid":
				conds = append(conds, "(transactions.is_saved = FALSE AND transactions.paid_time IS NULL)")
			case "paid":
				conds = append(conds, "transactions.paid_time IS NOT NULL")
			}
		}
		if len(conds) > 0 {
			q = q.Where(joinOr(conds))
		}
	}
	if len(f.Payments) > 0 {
		q = q.Where("transactions.payment IN ?", f.Payments)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []model.Transaction
	q = q.Preload("CashierBook.Cashier").
		Preload("Items.ProductSKU.Product").
		Preload("Coupons.CouponCode").
		Order("transactions.created_at DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	err := q.Find(&list).Error
	return list, total, err
}

func joinOr(conds []string) string {
	out := conds[0]
	for _, c := range conds[1:] {
		out += " OR " + c
	}
	return "(" + out + ")"
}

// GetDashboardStats counts sales paid at or after since as today's.
func (r *transactionRepo) GetDashboardStats(ctx context.Context, lowStock int, since time.Time) (*DashboardStats, error) {
	var stats DashboardStats
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.ProductSKU{}).Count(&stats.TotalSKUs).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.ProductSKU{}).Where("stock < ?", lowStock).Count(&stats.LowStockCount).Error; err != nil {
		return nil, err
	}

	// stock * price of every positive stock line
	if err := db.Model(&model.ProductSKU{}).
		Joins("JOIN products ON products.id = product_skus.product_id AND products.deleted_at IS NULL").
		Where("product_skus.stock > 0").
		Select("COALESCE(SUM(product_skus.stock * products.price), 0)").
		Scan(&stats.TotalValuation).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&model.CashierBook{}).Where("time_closed IS NULL").Count(&stats.OpenCashierBooks).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Transaction{}).
		Where("is_saved = ? AND paid_time IS NULL", false).
		Count(&stats.UnpaidCount).Error; err != nil {
		return nil, err
	}
	var today struct {
		Sales   int64
		Revenue int64
	}
	if err := db.Model(&model.Transaction{}).
		Where("paid_time >= ?", since).
		Select("COUNT(*) AS sales, COALESCE(SUM(total), 0) AS revenue").
		Scan(&today).Error; err != nil {
		return nil, err
	}
	stats.TodaySales, stats.TodayRevenue = today.Sales, today.Revenue
	return &stats, nil
}

const salesPerDaySQL = `
SELECT TO_CHAR(d.day, 'YYYY-MM-DD') AS date, d.transactions, d.revenue, COALESCE(i.items, 0) AS items_sold
FROM (
	SELECT DATE(paid_time) AS day, COUNT(*) AS transactions, COALESCE(SUM(total), 0) AS revenue
	FROM transactions
	WHERE deleted_at IS NULL AND paid_time BETWEEN ? AND ?
	GROUP BY DATE(paid_time)
) d
LEFT JOIN (
	SELECT DATE(t.paid_time) AS day, SUM(ti.amount) AS items
	FROM transaction_items ti
	JOIN transactions t ON t.id = ti.transaction_id
	WHERE t.deleted_at IS NULL AND t.paid_time BETWEEN ? AND ?
	GROUP BY DATE(t.paid_time)
) i ON i.day = d.day
ORDER BY d.day`

func (r *transactionRepo) GetSalesPerDay(ctx context.Context, startDate, endDate time.Time) ([]SalesPerDay, error) {
	var results []SalesPerDay

	rows, err := r.db.WithContext(ctx).Raw(salesPerDaySQL, startDate, endDate, startDate, endDate).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data SalesPerDay
		if err := rows.Scan(&data.Date, &data.Transactions, &data.Revenue, &data.ItemsSold); err != nil {
			return nil, err
		}
		results = append(results, data)
	}
	return results, rows.Err()
}
