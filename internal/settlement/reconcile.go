package settlement

import (
	"sort"
	"strings"
)

// ItemRequest is one requested line of a sale.
type ItemRequest struct {
	SKU    string `json:"product_sku" validate:"required,max=12"`
	Amount int    `json:"amount" validate:"gt=0"`
}

// CouponRequest is one requested coupon redemption.
type CouponRequest struct {
	Code   string `json:"code" validate:"required,max=64"`
	Amount int    `json:"amount" validate:"gt=0"`
}

// ValidateItemRequests rejects empty SKUs, non-positive amounts and a SKU
// listed twice.
func ValidateItemRequests(items []ItemRequest) error {
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		sku := strings.TrimSpace(it.SKU)
		if sku == "" {
			return Invalid("items", "Product SKU is required.")
		}
		if it.Amount <= 0 {
			return Invalid("items", "Amount for %s must be greater than 0.", sku)
		}
		if seen[sku] {
			return Invalid("items", "Product SKU %s is listed more than once.", sku)
		}
		seen[sku] = true
	}
	return nil
}

// ValidateCouponRequests applies the same rules to coupon codes.
func ValidateCouponRequests(coupons []CouponRequest) error {
	seen := make(map[string]bool, len(coupons))
	for _, c := range coupons {
		code := strings.TrimSpace(c.Code)
		if code == "" {
			return Invalid("coupons", "Coupon code is required.")
		}
		if c.Amount <= 0 {
			return Invalid("coupons", "Amount for coupon %s must be greater than 0.", code)
		}
		if seen[code] {
			return Invalid("coupons", "Coupon %s is listed more than once.", code)
		}
		seen[code] = true
	}
	return nil
}

// ItemChange describes what happens to one SKU line. StockDelta is the signed
// change to the SKU stock; Settle marks an existing line that becomes paid in
// this edit.
type ItemChange struct {
	SKU        string
	OldAmount  int
	NewAmount  int
	StockDelta int
	Settle     bool
}

// ItemPlan is the diff between the stored lines and the requested ones.
type ItemPlan struct {
	Removed  []ItemChange
	Updated  []ItemChange
	Inserted []ItemChange
}

// StockDeltas sums the plan per SKU, skipping zero entries.
func (p ItemPlan) StockDeltas() map[string]int {
	out := make(map[string]int)
	for _, group := range [][]ItemChange{p.Removed, p.Updated, p.Inserted} {
		for _, ch := range group {
			if ch.StockDelta != 0 {
				out[ch.SKU] += ch.StockDelta
			}
		}
	}
	return out
}

// ReconcileItems diffs old (SKU -> stored amount) against next. wasPaid is the
// state before the edit, paidNow the state after it.
//
// Stock only moves for paid lines: a removed line gives back its amount if it
// had been paid, a kept line moves by the amount difference when it was
// already paid or by its full new amount when it settles now, and a new line
// takes its amount once paid.
func ReconcileItems(old map[string]int, next []ItemRequest, wasPaid, paidNow bool) ItemPlan {
	var plan ItemPlan
	wanted := make(map[string]bool, len(next))
	for _, it := range next {
		wanted[it.SKU] = true
	}

	removed := make([]string, 0)
	for sku := range old {
		if !wanted[sku] {
			removed = append(removed, sku)
		}
	}
	sort.Strings(removed)
	for _, sku := range removed {
		ch := ItemChange{SKU: sku, OldAmount: old[sku]}
		if wasPaid {
			ch.StockDelta = ch.OldAmount
		}
		plan.Removed = append(plan.Removed, ch)
	}

	for _, it := range next {
		prev, ok := old[it.SKU]
		if !ok {
			ch := ItemChange{SKU: it.SKU, NewAmount: it.Amount}
			if paidNow {
				ch.StockDelta = -it.Amount
			}
			plan.Inserted = append(plan.Inserted, ch)
			continue
		}

		ch := ItemChange{SKU: it.SKU, OldAmount: prev, NewAmount: it.Amount}
		switch {
		case wasPaid:
			ch.StockDelta = prev - it.Amount
		case paidNow:
			ch.StockDelta = -it.Amount
			ch.Settle = true
		}
		plan.Updated = append(plan.Updated, ch)
	}
	return plan
}

// CouponChange describes what happens to one coupon code on the transaction.
// UsedDelta is the signed change to the code's used counter.
type CouponChange struct {
	Code      string
	OldAmount int
	NewAmount int
	UsedDelta int
}

type CouponPlan struct {
	Removed []CouponChange
	Changed []CouponChange
	Added   []CouponChange
}

// ReconcileCoupons diffs old (code -> stored amount) against next. Codes whose
// amount did not change are left out of the plan.
func ReconcileCoupons(old map[string]int, next []CouponRequest) CouponPlan {
	var plan CouponPlan
	wanted := make(map[string]bool, len(next))
	for _, c := range next {
		wanted[c.Code] = true
	}

	removed := make([]string, 0)
	for code := range old {
		if !wanted[code] {
			removed = append(removed, code)
		}
	}
	sort.Strings(removed)
	for _, code := range removed {
		plan.Removed = append(plan.Removed, CouponChange{Code: code, OldAmount: old[code], UsedDelta: -old[code]})
	}

	for _, c := range next {
		prev, ok := old[c.Code]
		switch {
		case !ok:
			plan.Added = append(plan.Added, CouponChange{Code: c.Code, NewAmount: c.Amount, UsedDelta: c.Amount})
		case prev != c.Amount:
			plan.Changed = append(plan.Changed, CouponChange{Code: c.Code, OldAmount: prev, NewAmount: c.Amount, UsedDelta: c.Amount - prev})
		}
	}
	return plan
}
