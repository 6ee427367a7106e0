package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"retail-backoffice/internal/model"
	"retail-backoffice/internal/repository"
	"retail-backoffice/internal/settlement"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CouponService interface {
	Create(ctx context.Context, req *CreateCouponRequest, actor Actor) (*model.Coupon, error)
	Update(ctx context.Context, id uuid.UUID, req *UpdateCouponRequest, actor Actor) (*model.Coupon, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Coupon, error)
	List(ctx context.Context, search string) ([]model.Coupon, error)

	CreateCode(ctx context.Context, couponID uuid.UUID, req *CreateCouponCodeRequest, actor Actor) (*model.CouponCode, error)
	UpdateCode(ctx context.Context, id uuid.UUID, req *UpdateCouponCodeRequest, actor Actor) (*model.CouponCode, error)
	ListCodes(ctx context.Context, couponID uuid.UUID) ([]model.CouponCode, error)
	CheckCode(ctx context.Context, code string, amount int) (*CouponCheck, error)
	CheckUsage(ctx context.Context, code string) (*CouponUsage, error)
}

type CreateCouponRequest struct {
	Name               string                `json:"name" validate:"required,max=255"`
	Type               settlement.CouponType `json:"type" validate:"required,oneof=voucher discount"`
	VoucherValue       *int64                `json:"voucher_value" validate:"omitempty,gt=0"`
	DiscountPercentage *int                  `json:"discount_percentage" validate:"omitempty,min=1,max=100"`
	StartTime          time.Time             `json:"start_time" validate:"required"`
	EndTime            time.Time             `json:"end_time" validate:"required"`
	Disabled           bool                  `json:"disabled"`
}

// UpdateCouponRequest cannot change the coupon type.
type UpdateCouponRequest struct {
	Name               *string    `json:"name" validate:"omitempty,max=255"`
	VoucherValue       *int64     `json:"voucher_value" validate:"omitempty,gt=0"`
	DiscountPercentage *int       `json:"discount_percentage" validate:"omitempty,min=1,max=100"`
	StartTime          *time.Time `json:"start_time"`
	EndTime            *time.Time `json:"end_time"`
	Disabled           *bool      `json:"disabled"`
}

type CreateCouponCodeRequest struct {
	Code  string `json:"code" validate:"required,max=64"`
	Stock int    `json:"stock" validate:"gte=0"`
}

type UpdateCouponCodeRequest struct {
	Stock    *int  `json:"stock" validate:"omitempty,gte=0"`
	Disabled *bool `json:"disabled"`
}

// CouponCheck is the answer to "can this code be redeemed amount times now".
type CouponCheck struct {
	Code      *model.CouponCode `json:"code"`
	Available bool              `json:"available"`
	Remaining int               `json:"remaining"`
	Reason    string            `json:"reason,omitempty"`
}

// CouponUsage reports whether a code has anything left to hand out, ignoring
// the validity window.
type CouponUsage struct {
	Code   string `json:"code"`
	Stock  int    `json:"stock"`
	Used   int    `json:"used"`
	CanUse bool   `json:"can_use"`
}

type couponService struct {
	coupons repository.CouponRepository
	now     Clock
}

func NewCouponService(coupons repository.CouponRepository) CouponService {
	return &couponService{coupons: coupons, now: time.Now}
}

func checkCouponShape(t settlement.CouponType, voucher *int64, pct *int, start, end time.Time) error {
	switch t {
	case settlement.CouponVoucher:
		if voucher == nil {
			return settlement.Invalid("voucher_value", "Voucher coupons need a voucher_value greater than 0.")
		}
		if pct != nil {
			return settlement.Invalid("discount_percentage", "Voucher coupons cannot carry a discount_percentage.")
		}
	case settlement.CouponDiscount:
		if pct == nil {
			return settlement.Invalid("discount_percentage", "Discount coupons need a discount_percentage between 1 and 100.")
		}
		if voucher != nil {
			return settlement.Invalid("voucher_value", "Discount coupons cannot carry a voucher_value.")
		}
	default:
		return settlement.Invalid("type", "Unknown coupon type %q.", t)
	}
	if !end.After(start) {
		return settlement.Invalid("end_time", "end_time must be after start_time")
	}
	return nil
}

func (s *couponService) Create(ctx context.Context, req *CreateCouponRequest, actor Actor) (*model.Coupon, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := checkCouponShape(req.Type, req.VoucherValue, req.DiscountPercentage, req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	coupon := &model.Coupon{
		Name:               strings.TrimSpace(req.Name),
		Type:               req.Type,
		VoucherValue:       req.VoucherValue,
		DiscountPercentage: req.DiscountPercentage,
		StartTime:          req.StartTime,
		EndTime:            req.EndTime,
		Disabled:           req.Disabled,
	}
	coupon.Audit(actor.AuditID())
	if err := s.coupons.Create(ctx, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

func (s *couponService) Update(ctx context.Context, id uuid.UUID, req *UpdateCouponRequest, actor Actor) (*model.Coupon, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	coupon, err := s.coupons.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "id", "Coupon not found.")
	}

	if req.Name != nil {
		coupon.Name = strings.TrimSpace(*req.Name)
	}
	if req.VoucherValue != nil {
		coupon.VoucherValue = req.VoucherValue
	}
	if req.DiscountPercentage != nil {
		coupon.DiscountPercentage = req.DiscountPercentage
	}
	if req.StartTime != nil {
		coupon.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		coupon.EndTime = *req.EndTime
	}
	if req.Disabled != nil {
		coupon.Disabled = *req.Disabled
	}
	if err := checkCouponShape(coupon.Type, coupon.VoucherValue, coupon.DiscountPercentage, coupon.StartTime, coupon.EndTime); err != nil {
		return nil, err
	}

	coupon.UpdatedBy = actor.AuditID()
	coupon.Codes = nil
	if err := s.coupons.Update(ctx, coupon); err != nil {
		return nil, err
	}
	return s.coupons.FindByID(ctx, id)
}

func (s *couponService) Get(ctx context.Context, id uuid.UUID) (*model.Coupon, error) {
	coupon, err := s.coupons.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "id", "Coupon not found.")
	}
	return coupon, nil
}

func (s *couponService) List(ctx context.Context, search string) ([]model.Coupon, error) {
	return s.coupons.FindAll(ctx, strings.TrimSpace(search))
}

func (s *couponService) CreateCode(ctx context.Context, couponID uuid.UUID, req *CreateCouponCodeRequest, actor Actor) (*model.CouponCode, error) {
	req.Code = strings.TrimSpace(req.Code)
	if err := validate(req); err != nil {
		return nil, err
	}
	if _, err := s.coupons.FindByID(ctx, couponID); err != nil {
		return nil, notFound(err, "coupon_id", "Coupon not found.")
	}

	code := &model.CouponCode{CouponID: couponID, Code: req.Code, Stock: req.Stock}
	code.Audit(actor.AuditID())
	if err := s.coupons.CreateCode(ctx, code); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, settlement.Conflict("code", "Coupon code %s already exists.", req.Code)
		}
		return nil, err
	}
	return code, nil
}

func (s *couponService) UpdateCode(ctx context.Context, id uuid.UUID, req *UpdateCouponCodeRequest, actor Actor) (*model.CouponCode, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	code, err := s.coupons.FindCodeByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "id", "Coupon code not found.")
	}
	if req.Stock != nil {
		if *req.Stock < code.Used {
			return nil, settlement.Conflict("stock", "Stock cannot be lower than the %d already used.", code.Used)
		}
		code.Stock = *req.Stock
	}
	if req.Disabled != nil {
		code.Disabled = *req.Disabled
	}
	code.UpdatedBy = actor.AuditID()
	if err := s.coupons.UpdateCode(ctx, code); err != nil {
		return nil, err
	}
	return code, nil
}

func (s *couponService) ListCodes(ctx context.Context, couponID uuid.UUID) ([]model.CouponCode, error) {
	return s.coupons.FindCodesByCoupon(ctx, couponID)
}

// CheckCode never errors on an unavailable code; the reason is reported instead.
func (s *couponService) CheckCode(ctx context.Context, code string, amount int) (*CouponCheck, error) {
	if amount <= 0 {
		amount = 1
	}
	cc, err := s.coupons.FindCodeByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, notFound(err, "code", "Coupon %s not found.", code)
	}

	state := cc.State()
	check := &CouponCheck{Code: cc, Available: true, Remaining: state.Remaining()}
	if err := settlement.CheckCouponAvailability(state, amount, s.now()); err != nil {
		var ve *settlement.ValidationError
		if !errors.As(err, &ve) {
			return nil, err
		}
		check.Available = false
		check.Reason = ve.Message
	}
	return check, nil
}

func (s *couponService) CheckUsage(ctx context.Context, code string) (*CouponUsage, error) {
	cc, err := s.coupons.FindCodeByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, notFound(err, "code", "Coupon %s not found.", code)
	}
	state := cc.State()
	return &CouponUsage{
		Code:   cc.Code,
		Stock:  cc.Stock,
		Used:   cc.Used,
		CanUse: !state.CouponDisabled && !state.Disabled && state.Remaining() > 0,
	}, nil
}
