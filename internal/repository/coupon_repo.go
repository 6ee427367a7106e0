package repository

import (
	"context"

	"retail-backoffice/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CouponRepository interface {
	Create(ctx context.Context, coupon *model.Coupon) error
	Update(ctx context.Context, coupon *model.Coupon) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error)
	FindAll(ctx context.Context, search string) ([]model.Coupon, error)

	CreateCode(ctx context.Context, code *model.CouponCode) error
	UpdateCode(ctx context.Context, code *model.CouponCode) error
	FindCodeByID(ctx context.Context, id uuid.UUID) (*model.CouponCode, error)
	FindCodeByCode(ctx context.Context, code string) (*model.CouponCode, error)
	FindCodesByCoupon(ctx context.Context, couponID uuid.UUID) ([]model.CouponCode, error)
	FindCodesForUpdate(tx *gorm.DB, codes []string) ([]model.CouponCode, error)
	AdjustUsed(tx *gorm.DB, id uuid.UUID, delta int) error
}

type couponRepo struct {
	db *gorm.DB
}

func NewCouponRepo(db *gorm.DB) CouponRepository {
	return &couponRepo{db}
}

func (r *couponRepo) Create(ctx context.Context, coupon *model.Coupon) error {
	return r.db.WithContext(ctx).Omit("Codes").Create(coupon).Error
}

func (r *couponRepo) Update(ctx context.Context, coupon *model.Coupon) error {
	return r.db.WithContext(ctx).Omit("Codes").Save(coupon).Error
}

func (r *couponRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error) {
	var coupon model.Coupon
	if err := r.db.WithContext(ctx).Preload("Codes").First(&coupon, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *couponRepo) FindAll(ctx context.Context, search string) ([]model.Coupon, error) {
	var coupons []model.Coupon
	q := r.db.WithContext(ctx).Order("start_time DESC")
	if search != "" {
		q = q.Where("name ILIKE ?", "%"+search+"%")
	}
	err := q.Find(&coupons).Error
	return coupons, err
}

func (r *couponRepo) CreateCode(ctx context.Context, code *model.CouponCode) error {
	return r.db.WithContext(ctx).Omit("Coupon").Create(code).Error
}

// UpdateCode never writes used; that counter belongs to the transactions.
func (r *couponRepo) UpdateCode(ctx context.Context, code *model.CouponCode) error {
	return r.db.WithContext(ctx).Model(code).
		Select("stock", "disabled", "updated_by").
		Updates(code).Error
}

func (r *couponRepo) FindCodeByID(ctx context.Context, id uuid.UUID) (*model.CouponCode, error) {
	var code model.CouponCode
	if err := r.db.WithContext(ctx).Preload("Coupon").First(&code, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &code, nil
}

func (r *couponRepo) FindCodeByCode(ctx context.Context, code string) (*model.CouponCode, error) {
	var c model.CouponCode
	if err := r.db.WithContext(ctx).Preload("Coupon").First(&c, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *couponRepo) FindCodesByCoupon(ctx context.Context, couponID uuid.UUID) ([]model.CouponCode, error) {
	var codes []model.CouponCode
	err := r.db.WithContext(ctx).Where("coupon_id = ?", couponID).Order("code").Find(&codes).Error
	return codes, err
}

// FindCodesForUpdate locks the code rows; the coupons are read without a lock.
func (r *couponRepo) FindCodesForUpdate(tx *gorm.DB, codes []string) ([]model.CouponCode, error) {
	var rows []model.CouponCode
	if len(codes) == 0 {
		return rows, nil
	}
	if err := forUpdate(tx.Model(&model.CouponCode{})).
		Where("code IN ?", codes).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return rows, nil
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, c := range rows {
		ids = append(ids, c.CouponID)
	}
	var coupons []model.Coupon
	if err := tx.Where("id IN ?", ids).Find(&coupons).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*model.Coupon, len(coupons))
	for i := range coupons {
		byID[coupons[i].ID] = &coupons[i]
	}
	for i := range rows {
		rows[i].Coupon = byID[rows[i].CouponID]
	}
	return rows, nil
}

// AdjustUsed applies used = used + delta atomically.
func (r *couponRepo) AdjustUsed(tx *gorm.DB, id uuid.UUID, delta int) error {
	if delta == 0 {
		return nil
	}
	return tx.Model(&model.CouponCode{}).
		Where("id = ?", id).
		UpdateColumn("used", gorm.Expr("used + ?", delta)).Error
}
