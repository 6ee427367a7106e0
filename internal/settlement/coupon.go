package settlement

import "time"

// CouponType distinguishes fixed-value vouchers from percentage discounts.
type CouponType string

const (
	CouponVoucher  CouponType = "voucher"
	CouponDiscount CouponType = "discount"
)

func (t CouponType) Valid() bool {
	return t == CouponVoucher || t == CouponDiscount
}

// CouponState is what the availability check needs to know about a code and
// the coupon it redeems.
type CouponState struct {
	Code           string
	Stock          int
	Used           int
	Disabled       bool
	CouponDisabled bool
	StartTime      time.Time
	EndTime        time.Time
}

// Remaining is how many more redemptions the code allows.
func (c CouponState) Remaining() int {
	return c.Stock - c.Used
}

// CheckCouponAvailability validates a fresh redemption of amount units at now.
func CheckCouponAvailability(c CouponState, amount int, now time.Time) error {
	if c.Disabled || c.CouponDisabled {
		return newError(ErrDisabled, "coupons", "Coupon %s is disabled.", c.Code)
	}
	if err := CheckCouponIncrease(c, amount); err != nil {
		return err
	}
	if c.StartTime.After(now) || c.EndTime.Before(now) {
		return newError(ErrTemporalInvalid, "coupons", "Coupon %s is not valid at this time.", c.Code)
	}
	return nil
}

// CheckCouponIncrease validates raising an existing redemption by diff units.
func CheckCouponIncrease(c CouponState, diff int) error {
	if c.Stock < c.Used+diff {
		return Conflict("coupons", "Coupon %s out of stock.", c.Code)
	}
	return nil
}

// CouponLine is one applied coupon as seen by the discount calculation.
type CouponLine struct {
	Code               string
	Type               CouponType
	VoucherValue       int64
	DiscountPercentage int
	Amount             int
}

// CouponValue is the per-line snapshot stored on the transaction coupon row.
// Exactly one of the two is set, depending on the coupon type.
type CouponValue struct {
	ItemVoucherValue  *int64
	ItemDiscountValue *int64
}

// Discounts is the outcome of applying a coupon set to a sub total.
type Discounts struct {
	Voucher    int64
	Percentage int64
	Values     []CouponValue
}

func (d Discounts) Total() int64 {
	return d.Voucher + d.Percentage
}

// CalculateDiscounts applies lines against subTotal. At most one percentage
// coupon may be present and its amount must be 1; the percentage is floored.
func CalculateDiscounts(subTotal int64, lines []CouponLine) (Discounts, error) {
	d := Discounts{Values: make([]CouponValue, len(lines))}
	percentageCount := 0

	for i, line := range lines {
		switch line.Type {
		case CouponDiscount:
			percentageCount++
			if percentageCount > 1 {
				return Discounts{}, Conflict("coupons", "Only one percentage discount coupon is allowed.")
			}
			if line.Amount > 1 {
				return Discounts{}, Conflict("coupons", "Percentage discount coupon amount cannot be more than 1.")
			}
			value := subTotal * int64(line.DiscountPercentage) / 100
			d.Percentage += value
			d.Values[i].ItemDiscountValue = &value
		case CouponVoucher:
			value := line.VoucherValue
			d.Voucher += value * int64(line.Amount)
			d.Values[i].ItemVoucherValue = &value
		default:
			return Discounts{}, Invalid("coupons", "Coupon %s has unknown type %q.", line.Code, line.Type)
		}
	}
	return d, nil
}

// Total is the amount due: never negative.
func Total(subTotal, discountTotal int64) int64 {
	return max(0, subTotal-discountTotal)
}

// PricedLine is an item line carrying its snapshotted unit price.
type PricedLine struct {
	UnitPrice int64
	Amount    int
}

func SubTotal(lines []PricedLine) int64 {
	var sum int64
	for _, l := range lines {
		sum += l.UnitPrice * int64(l.Amount)
	}
	return sum
}
