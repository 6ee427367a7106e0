package settlement

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCalculateDiscounts(t *testing.T) {
	cases := []struct {
		name       string
		subTotal   int64
		lines      []CouponLine
		voucher    int64
		percentage int64
	}{
		{"no coupons", 30000, nil, 0, 0},
		{"single voucher", 30000, []CouponLine{{Code: "V1", Type: CouponVoucher, VoucherValue: 5000, Amount: 1}}, 5000, 0},
		{"voucher times amount", 30000, []CouponLine{{Code: "V1", Type: CouponVoucher, VoucherValue: 5000, Amount: 3}}, 15000, 0},
		{"ten percent", 100000, []CouponLine{{Code: "D10", Type: CouponDiscount, DiscountPercentage: 10, Amount: 1}}, 0, 10000},
		{"percentage floors", 999, []CouponLine{{Code: "D15", Type: CouponDiscount, DiscountPercentage: 15, Amount: 1}}, 0, 149},
		{"voucher and percentage", 50000, []CouponLine{
			{Code: "V1", Type: CouponVoucher, VoucherValue: 2000, Amount: 2},
			{Code: "D20", Type: CouponDiscount, DiscountPercentage: 20, Amount: 1},
		}, 4000, 10000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := CalculateDiscounts(tc.subTotal, tc.lines)
			if err != nil {
				t.Fatalf("CalculateDiscounts error: %v", err)
			}
			if d.Voucher != tc.voucher || d.Percentage != tc.percentage {
				t.Fatalf("expected voucher=%d percentage=%d, got voucher=%d percentage=%d", tc.voucher, tc.percentage, d.Voucher, d.Percentage)
			}
			if len(d.Values) != len(tc.lines) {
				t.Fatalf("expected %d values, got %d", len(tc.lines), len(d.Values))
			}
			for i, line := range tc.lines {
				v := d.Values[i]
				switch line.Type {
				case CouponVoucher:
					if v.ItemVoucherValue == nil || *v.ItemVoucherValue != line.VoucherValue || v.ItemDiscountValue != nil {
						t.Fatalf("line %d: unexpected voucher snapshot %+v", i, v)
					}
				case CouponDiscount:
					if v.ItemDiscountValue == nil || *v.ItemDiscountValue != tc.percentage || v.ItemVoucherValue != nil {
						t.Fatalf("line %d: unexpected discount snapshot %+v", i, v)
					}
				}
			}
		})
	}
}

func TestCalculateDiscountsRejectsSecondPercentageCoupon(t *testing.T) {
	_, err := CalculateDiscounts(100000, []CouponLine{
		{Code: "D10", Type: CouponDiscount, DiscountPercentage: 10, Amount: 1},
		{Code: "D5", Type: CouponDiscount, DiscountPercentage: 5, Amount: 1},
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if err.Error() != "Only one percentage discount coupon is allowed." {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestCalculateDiscountsRejectsPercentageAmountAboveOne(t *testing.T) {
	_, err := CalculateDiscounts(100000, []CouponLine{
		{Code: "D10", Type: CouponDiscount, DiscountPercentage: 10, Amount: 2},
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestTotalNeverNegative(t *testing.T) {
	cases := []struct {
		sub, discount, want int64
	}{
		{30000, 5000, 25000},
		{5000, 5000, 0},
		{5000, 8000, 0},
		{0, 0, 0},
	}
	for _, tc := range cases {
		if got := Total(tc.sub, tc.discount); got != tc.want {
			t.Fatalf("Total(%d, %d) = %d, want %d", tc.sub, tc.discount, got, tc.want)
		}
	}
}

func TestSubTotalUsesSnapshotPrices(t *testing.T) {
	got := SubTotal([]PricedLine{{UnitPrice: 10000, Amount: 3}, {UnitPrice: 2500, Amount: 2}})
	if got != 35000 {
		t.Fatalf("expected 35000, got %d", got)
	}
}

func TestCheckPay(t *testing.T) {
	low, exact := int64(50000), int64(90000)
	if err := CheckPay(&low, 90000); !errors.Is(err, ErrConflict) || err.Error() != UnderpaidMessage {
		t.Fatalf("expected underpaid conflict, got %v", err)
	}
	if err := CheckPay(&exact, 90000); err != nil {
		t.Fatalf("exact pay rejected: %v", err)
	}
	if err := CheckPay(nil, 90000); err != nil {
		t.Fatalf("nil pay rejected: %v", err)
	}
}

func TestCheckCouponAvailability(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	base := CouponState{
		Code:      "HEMAT",
		Stock:     10,
		Used:      8,
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(time.Hour),
	}

	cases := []struct {
		name   string
		mutate func(c *CouponState)
		amount int
		kind   error
	}{
		{"available", func(c *CouponState) {}, 2, nil},
		{"out of stock", func(c *CouponState) {}, 3, ErrConflict},
		{"code disabled", func(c *CouponState) { c.Disabled = true }, 1, ErrDisabled},
		{"coupon disabled", func(c *CouponState) { c.CouponDisabled = true }, 1, ErrDisabled},
		{"not started", func(c *CouponState) { c.StartTime = now.Add(time.Minute) }, 1, ErrTemporalInvalid},
		{"expired", func(c *CouponState) { c.EndTime = now.Add(-time.Minute) }, 1, ErrTemporalInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := base
			tc.mutate(&c)
			err := CheckCouponAvailability(c, tc.amount, now)
			if tc.kind == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.kind) {
				t.Fatalf("expected %v, got %v", tc.kind, err)
			}
		})
	}
}

func TestStatusTransitions(t *testing.T) {
	paidAt := time.Now()
	if StatusOf(true, nil) != StatusDraft || StatusOf(false, nil) != StatusUnpaid || StatusOf(false, &paidAt) != StatusPaid {
		t.Fatalf("StatusOf mapping is wrong")
	}
	if StatusOf(true, &paidAt) != StatusPaid {
		t.Fatalf("paid time must win over the draft flag")
	}

	allowed := [][2]Status{
		{StatusDraft, StatusUnpaid}, {StatusDraft, StatusPaid}, {StatusUnpaid, StatusPaid},
		{StatusUnpaid, StatusDraft}, {StatusPaid, StatusPaid},
	}
	for _, tr := range allowed {
		if err := Transition(tr[0], tr[1]); err != nil {
			t.Fatalf("%s -> %s should be allowed: %v", tr[0], tr[1], err)
		}
	}
	for _, to := range []Status{StatusDraft, StatusUnpaid} {
		if err := Transition(StatusPaid, to); !errors.Is(err, ErrConflict) {
			t.Fatalf("paid -> %s should be rejected, got %v", to, err)
		}
	}
	if TargetStatus(true, true) != StatusDraft || TargetStatus(false, true) != StatusPaid || TargetStatus(false, false) != StatusUnpaid {
		t.Fatalf("TargetStatus mapping is wrong")
	}
}

func TestReconcileItemsPaidTransaction(t *testing.T) {
	old := map[string]int{"SKU-A": 3, "SKU-B": 2, "SKU-C": 1}
	next := []ItemRequest{{SKU: "SKU-A", Amount: 5}, {SKU: "SKU-C", Amount: 1}, {SKU: "SKU-D", Amount: 4}}

	plan := ReconcileItems(old, next, true, true)

	wantRemoved := []ItemChange{{SKU: "SKU-B", OldAmount: 2, StockDelta: 2}}
	wantUpdated := []ItemChange{
		{SKU: "SKU-A", OldAmount: 3, NewAmount: 5, StockDelta: -2},
		{SKU: "SKU-C", OldAmount: 1, NewAmount: 1, StockDelta: 0},
	}
	wantInserted := []ItemChange{{SKU: "SKU-D", NewAmount: 4, StockDelta: -4}}

	if !reflect.DeepEqual(plan.Removed, wantRemoved) {
		t.Fatalf("removed: got %+v", plan.Removed)
	}
	if !reflect.DeepEqual(plan.Updated, wantUpdated) {
		t.Fatalf("updated: got %+v", plan.Updated)
	}
	if !reflect.DeepEqual(plan.Inserted, wantInserted) {
		t.Fatalf("inserted: got %+v", plan.Inserted)
	}
	wantDeltas := map[string]int{"SKU-B": 2, "SKU-A": -2, "SKU-D": -4}
	if got := plan.StockDeltas(); !reflect.DeepEqual(got, wantDeltas) {
		t.Fatalf("deltas: got %v", got)
	}
}

func TestReconcileItemsUnpaidNeverMovesStock(t *testing.T) {
	old := map[string]int{"SKU-A": 3, "SKU-B": 2}
	plan := ReconcileItems(old, []ItemRequest{{SKU: "SKU-A", Amount: 1}, {SKU: "SKU-E", Amount: 2}}, false, false)
	if deltas := plan.StockDeltas(); len(deltas) != 0 {
		t.Fatalf("unpaid edit must not move stock, got %v", deltas)
	}
	if len(plan.Removed) != 1 || len(plan.Updated) != 1 || len(plan.Inserted) != 1 {
		t.Fatalf("unexpected plan %+v", plan)
	}
}

func TestReconcileItemsBecomingPaidSettlesFullAmounts(t *testing.T) {
	old := map[string]int{"SKU-A": 3, "SKU-B": 2}
	plan := ReconcileItems(old, []ItemRequest{{SKU: "SKU-A", Amount: 4}, {SKU: "SKU-F", Amount: 1}}, false, true)

	if len(plan.Removed) != 1 || plan.Removed[0].StockDelta != 0 {
		t.Fatalf("removing an unpaid line must not restore stock: %+v", plan.Removed)
	}
	if len(plan.Updated) != 1 || plan.Updated[0].StockDelta != -4 || !plan.Updated[0].Settle {
		t.Fatalf("kept line must settle its full new amount: %+v", plan.Updated)
	}
	if len(plan.Inserted) != 1 || plan.Inserted[0].StockDelta != -1 {
		t.Fatalf("new line must take its amount: %+v", plan.Inserted)
	}
}

func TestReconcileItemsRemoveThenReaddRestoresStock(t *testing.T) {
	stock := 20
	old := map[string]int{"SKU-A": 3}

	removal := ReconcileItems(old, []ItemRequest{}, true, true)
	for _, d := range removal.StockDeltas() {
		stock += d
	}
	if stock != 23 {
		t.Fatalf("removal should restore 3 units, stock=%d", stock)
	}

	readd := ReconcileItems(map[string]int{}, []ItemRequest{{SKU: "SKU-A", Amount: 3}}, true, true)
	for _, d := range readd.StockDeltas() {
		stock += d
	}
	if stock != 20 {
		t.Fatalf("re-adding should return stock to 20, got %d", stock)
	}
}

func TestReconcileCoupons(t *testing.T) {
	old := map[string]int{"V1": 2, "V2": 1, "D10": 1}
	next := []CouponRequest{{Code: "V1", Amount: 3}, {Code: "D10", Amount: 1}, {Code: "V9", Amount: 2}}

	plan := ReconcileCoupons(old, next)

	if !reflect.DeepEqual(plan.Removed, []CouponChange{{Code: "V2", OldAmount: 1, UsedDelta: -1}}) {
		t.Fatalf("removed: got %+v", plan.Removed)
	}
	if !reflect.DeepEqual(plan.Changed, []CouponChange{{Code: "V1", OldAmount: 2, NewAmount: 3, UsedDelta: 1}}) {
		t.Fatalf("changed: got %+v", plan.Changed)
	}
	if !reflect.DeepEqual(plan.Added, []CouponChange{{Code: "V9", NewAmount: 2, UsedDelta: 2}}) {
		t.Fatalf("added: got %+v", plan.Added)
	}
}

func TestReconcileCouponsApplyThenRemoveKeepsUsed(t *testing.T) {
	used := 4
	apply := ReconcileCoupons(map[string]int{}, []CouponRequest{{Code: "V1", Amount: 2}})
	for _, ch := range apply.Added {
		used += ch.UsedDelta
	}
	remove := ReconcileCoupons(map[string]int{"V1": 2}, nil)
	for _, ch := range remove.Removed {
		used += ch.UsedDelta
	}
	if used != 4 {
		t.Fatalf("apply then remove should leave used at 4, got %d", used)
	}
}

func TestValidateRequests(t *testing.T) {
	if err := ValidateItemRequests([]ItemRequest{{SKU: "A", Amount: 1}, {SKU: "A", Amount: 2}}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("duplicate SKU should be invalid, got %v", err)
	}
	if err := ValidateItemRequests([]ItemRequest{{SKU: "A", Amount: 0}}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("zero amount should be invalid, got %v", err)
	}
	if err := ValidateItemRequests([]ItemRequest{{SKU: "A", Amount: 1}, {SKU: "B", Amount: 2}}); err != nil {
		t.Fatalf("valid items rejected: %v", err)
	}
	if err := ValidateCouponRequests([]CouponRequest{{Code: "V1", Amount: 1}, {Code: "V1", Amount: 1}}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("duplicate coupon should be invalid, got %v", err)
	}
}

func TestCodes(t *testing.T) {
	id := uuid.MustParse("a1b2c3d4-0000-0000-0000-000000000000")
	day := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

	if got := TransactionCode(day, id); got != "TRANS/20261014/a1b2" {
		t.Fatalf("TransactionCode = %q", got)
	}
	if got := CashierBookCode(day, id); got != "C-BOOK/20261014/a1b2" {
		t.Fatalf("CashierBookCode = %q", got)
	}
	if got := PurchaseOrderCode(day, id); got != "PO-20261014-a1b2" {
		t.Fatalf("PurchaseOrderCode = %q", got)
	}

	suppliers := map[string]string{
		"Sinar":                "0007-SIN",
		"Go":                   "0007-GOX",
		"Sinar Jaya":           "0007-SJX",
		"Sinar Jaya Abadi Tbk": "0007-SJA",
		"":                     "0007-XXX",
	}
	for name, want := range suppliers {
		if got := SupplierCode(name, 7); got != want {
			t.Fatalf("SupplierCode(%q) = %q, want %q", name, got, want)
		}
	}
}
