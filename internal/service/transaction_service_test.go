package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"retail-backoffice/internal/events"
	"retail-backoffice/internal/model"
	"retail-backoffice/internal/settlement"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)

type saleFixture struct {
	db   *memDB
	rec  *events.Recorder
	svc  TransactionService
	book model.CashierBook
}

func i64(v int64) *int64 { return &v }
func str(v string) *string { return &v }
func boolp(v bool) *bool { return &v }

func newSaleFixture(t *testing.T) *saleFixture {
	t.Helper()
	db := newMemDB()

	kopi := db.addProduct("Kopi Susu", 10000)
	sku := db.addSKU(kopi, "KOPI-01", 10)
	sku.SupplierDiscount = decimal.NewNullDecimal(decimal.RequireFromString("5.00"))
	db.skus[sku.ID] = sku
	db.addSKU(db.addProduct("Teh Manis", 5000), "TEH-01", 10)
	db.addSKU(db.addProduct("Blender", 100000), "BLEND-01", 10)

	window := func(c model.Coupon) model.Coupon {
		c.StartTime = testNow.Add(-24 * time.Hour)
		c.EndTime = testNow.Add(24 * time.Hour)
		return c
	}
	fiveK := int64(5000)
	ten := 10
	db.addCoupon(window(model.Coupon{Name: "Voucher 5K", Type: settlement.CouponVoucher, VoucherValue: &fiveK}), "HEMAT5", 5)
	db.addCoupon(window(model.Coupon{Name: "Diskon 10%", Type: settlement.CouponDiscount, DiscountPercentage: &ten}), "DISC10", 5)
	db.addCoupon(window(model.Coupon{Name: "Habis", Type: settlement.CouponVoucher, VoucherValue: &fiveK}), "HABIS", 0)
	db.addCoupon(window(model.Coupon{Name: "Mati", Type: settlement.CouponVoucher, VoucherValue: &fiveK, Disabled: true}), "MATI", 5)
	db.addCoupon(model.Coupon{
		Name: "Lama", Type: settlement.CouponVoucher, VoucherValue: &fiveK,
		StartTime: testNow.AddDate(0, -2, 0), EndTime: testNow.AddDate(0, -1, 0),
	}, "LAMA", 5)

	book := model.CashierBook{Code: "C-BOOK/20261014/0001", CashierID: uuid.New(), TimeOpen: testNow.Add(-time.Hour)}
	book.ID = uuid.New()
	db.books[book.ID] = book

	rec := &events.Recorder{}
	svc := NewTransactionService(TransactionServiceConfig{
		TxManager:    &fakeTx{db: db},
		Transactions: &fakeTransactionRepo{db: db},
		SKUs:         &fakeSKURepo{db: db},
		Coupons:      &fakeCouponRepo{db: db},
		CashierBooks: &fakeBookRepo{db: db},
		Publisher:    rec,
		Producer:     "retail-backoffice-test",
		Clock:        func() time.Time { return testNow },
	})
	return &saleFixture{db: db, rec: rec, svc: svc, book: book}
}

func (f *saleFixture) stock(code string) int { return f.db.skuByCode(code).Stock }
func (f *saleFixture) used(code string) int { return f.db.codeByCode(code).Used }

func (f *saleFixture) create(t *testing.T, req *CreateTransactionRequest) *model.Transaction {
	t.Helper()
	if req.CashierBookID == uuid.Nil {
		req.CashierBookID = f.book.ID
	}
	trx, err := f.svc.Create(context.Background(), req, Actor{ID: f.book.CashierID, Name: "Kasir"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return trx
}

func items(pairs ...any) []settlement.ItemRequest {
	var out []settlement.ItemRequest
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, settlement.ItemRequest{SKU: pairs[i].(string), Amount: pairs[i+1].(int)})
	}
	return out
}

func coupons(pairs ...any) []settlement.CouponRequest {
	out := []settlement.CouponRequest{}
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, settlement.CouponRequest{Code: pairs[i].(string), Amount: pairs[i+1].(int)})
	}
	return out
}

func TestCreatePaidWithVoucher(t *testing.T) {
	f := newSaleFixture(t)
	trx := f.create(t, &CreateTransactionRequest{
		Items:   items("KOPI-01", 3),
		Coupons: coupons("HEMAT5", 1),
		Pay:     i64(25000),
		Payment: str(model.PaymentCash),
	})

	if trx.SubTotal != 30000 || trx.DiscountTotal != 5000 || trx.Total != 25000 {
		t.Fatalf("totals = %d/%d/%d, want 30000/5000/25000", trx.SubTotal, trx.DiscountTotal, trx.Total)
	}
	if trx.Status() != settlement.StatusPaid || trx.PaidTime == nil {
		t.Fatalf("status = %s, want paid", trx.Status())
	}
	if c := trx.Change(); c == nil || *c != 0 {
		t.Fatalf("change = %v, want 0", c)
	}
	if !strings.HasPrefix(trx.Code, "TRANS/20261014/") {
		t.Fatalf("code = %q", trx.Code)
	}
	if got := f.stock("KOPI-01"); got != 7 {
		t.Fatalf("stock = %d, want 7", got)
	}
	if got := f.used("HEMAT5"); got != 1 {
		t.Fatalf("used = %d, want 1", got)
	}
	if len(trx.Items) != 1 || !trx.Items[0].SupplierDiscount.Valid || trx.Items[0].UnitPrice != 10000 {
		t.Fatalf("item snapshot = %+v", trx.Items)
	}
	if v := trx.Coupons[0].ItemVoucherValue; v == nil || *v != 5000 {
		t.Fatalf("voucher snapshot = %v, want 5000", v)
	}

	want := []string{events.TransactionCreated, events.TransactionPaid, events.StockUpdated}
	if got := f.rec.Types(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("events = %v, want %v", got, want)
	}
}

func TestCreateUnderpaidRollsBack(t *testing.T) {
	f := newSaleFixture(t)
	_, err := f.svc.Create(context.Background(), &CreateTransactionRequest{
		CashierBookID: f.book.ID,
		Items:         items("BLEND-01", 1),
		Coupons:       coupons("DISC10", 1),
		Pay:           i64(50000),
	}, Actor{})

	var ve *settlement.ValidationError
	if !errors.As(err, &ve) || ve.Message != settlement.UnderpaidMessage {
		t.Fatalf("err = %v, want underpaid rejection", err)
	}
	if f.stock("BLEND-01") != 10 || f.used("DISC10") != 0 || len(f.db.headers) != 0 || len(f.db.items) != 0 {
		t.Fatalf("state changed after rejected create")
	}
	if len(f.rec.Events) != 0 {
		t.Fatalf("events published for rejected create: %v", f.rec.Types())
	}
}

func TestCreateZeroTotalIsPaid(t *testing.T) {
	f := newSaleFixture(t)
	trx := f.create(t, &CreateTransactionRequest{
		Items:   items("TEH-01", 1),
		Coupons: coupons("HEMAT5", 1),
	})
	if trx.Total != 0 || trx.Pay == nil || *trx.Pay != 0 || trx.PaidTime == nil {
		t.Fatalf("total=%d pay=%v paid=%v, want auto paid with pay 0", trx.Total, trx.Pay, trx.PaidTime)
	}
	if got := f.stock("TEH-01"); got != 9 {
		t.Fatalf("stock = %d, want 9", got)
	}
}

func TestCreateDraftKeepsStockAndCoupons(t *testing.T) {
	f := newSaleFixture(t)
	trx := f.create(t, &CreateTransactionRequest{
		Items:   items("KOPI-01", 2),
		Coupons: coupons("HEMAT5", 1),
		IsSaved: true,
		Pay:     i64(50000),
	})
	if trx.Status() != settlement.StatusDraft {
		t.Fatalf("status = %s, want draft", trx.Status())
	}
	if got := f.stock("KOPI-01"); got != 10 {
		t.Fatalf("stock = %d, want 10", got)
	}
	if got := f.used("HEMAT5"); got != 0 {
		t.Fatalf("used = %d, want 0 for a draft", got)
	}
	if len(trx.Coupons) != 0 || trx.DiscountTotal != 0 || trx.Total != 20000 {
		t.Fatalf("draft coupons=%d discount=%d total=%d, want no coupons", len(trx.Coupons), trx.DiscountTotal, trx.Total)
	}
	if trx.Items[0].SupplierDiscount.Valid {
		t.Fatalf("draft item carries a supplier discount snapshot")
	}
}

func TestCreateRejections(t *testing.T) {
	tests := []struct {
		name string
		req  func(f *saleFixture) *CreateTransactionRequest
		kind error
	}{
		{"no items", func(f *saleFixture) *CreateTransactionRequest {
			return &CreateTransactionRequest{CashierBookID: f.book.ID, Items: items()}
		}, settlement.ErrInvalid},
		{"duplicate sku", func(f *saleFixture) *CreateTransactionRequest {
			return &CreateTransactionRequest{CashierBookID: f.book.ID, Items: items("KOPI-01", 1, "KOPI-01", 2)}
		}, settlement.ErrInvalid},
		{"unknown book", func(f *saleFixture) *CreateTransactionRequest {
			return &CreateTransactionRequest{CashierBookID: uuid.New(), Items: items("KOPI-01", 1)}
		}, settlement.ErrNotFound},
		{"unknown sku", func(f *saleFixture) *CreateTransactionRequest {
			return &CreateTransactionRequest{CashierBookID: f.book.ID, Items: items("NOPE-01", 1)}
		}, settlement.ErrNotFound},
		{"unknown coupon", func(f *saleFixture) *CreateTransactionRequest {
			return &CreateTransactionRequest{CashierBookID: f.book.ID, Items: items("KOPI-01", 1), Coupons: coupons("NOPE", 1)}
		}, settlement.ErrNotFound},
		{"coupon out of stock", func(f *saleFixture) *CreateTransactionRequest {
			return &CreateTransactionRequest{CashierBookID: f.book.ID, Items: items("KOPI-01", 1), Coupons: coupons("HABIS", 1)}
		}, settlement.ErrConflict},
		{"coupon disabled", func(f *saleFixture) *CreateTransactionRequest {
			return &CreateTransactionRequest{CashierBookID: f.book.ID, Items: items("KOPI-01", 1), Coupons: coupons("MATI", 1)}
		}, settlement.ErrDisabled},
		{"coupon expired", func(f *saleFixture) *CreateTransactionRequest {
			return &CreateTransactionRequest{CashierBookID: f.book.ID, Items: items("KOPI-01", 1), Coupons: coupons("LAMA", 1)}
		}, settlement.ErrTemporalInvalid},
		{"percentage amount above one", func(f *saleFixture) *CreateTransactionRequest {
			return &CreateTransactionRequest{CashierBookID: f.book.ID, Items: items("KOPI-01", 1), Coupons: coupons("DISC10", 2)}
		}, settlement.ErrConflict},
		{"closed book", func(f *saleFixture) *CreateTransactionRequest {
			b := f.db.books[f.book.ID]
			closed := testNow
			b.TimeClosed = &closed
			f.db.books[b.ID] = b
			return &CreateTransactionRequest{CashierBookID: f.book.ID, Items: items("KOPI-01", 1)}
		}, settlement.ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSaleFixture(t)
			_, err := f.svc.Create(context.Background(), tt.req(f), Actor{})
			if !errors.Is(err, tt.kind) {
				t.Fatalf("err = %v, want kind %v", err, tt.kind)
			}
			if len(f.db.headers) != 0 {
				t.Fatalf("transaction row written for rejected create")
			}
		})
	}
}

func TestUpdateSettlesUnpaidOnce(t *testing.T) {
	f := newSaleFixture(t)
	ctx := context.Background()
	trx := f.create(t, &CreateTransactionRequest{Items: items("KOPI-01", 2)})
	if trx.Status() != settlement.StatusUnpaid || f.stock("KOPI-01") != 10 {
		t.Fatalf("unpaid create moved stock or got status %s", trx.Status())
	}

	paid, err := f.svc.Update(ctx, trx.ID, &UpdateTransactionRequest{Pay: i64(20000), Payment: str(model.PaymentCashless)}, Actor{})
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if paid.Status() != settlement.StatusPaid {
		t.Fatalf("status = %s, want paid", paid.Status())
	}
	if got := f.stock("KOPI-01"); got != 8 {
		t.Fatalf("stock after pay = %d, want 8", got)
	}
	if !paid.Items[0].SupplierDiscount.Valid {
		t.Fatalf("supplier discount not snapshotted on settlement")
	}

	if _, err := f.svc.Update(ctx, trx.ID, &UpdateTransactionRequest{Note: str("bungkus")}, Actor{}); err != nil {
		t.Fatalf("note: %v", err)
	}
	if got := f.stock("KOPI-01"); got != 8 {
		t.Fatalf("stock after second update = %d, want 8", got)
	}
}

func TestUpdatePaidItemChangesMoveStock(t *testing.T) {
	f := newSaleFixture(t)
	trx := f.create(t, &CreateTransactionRequest{Items: items("KOPI-01", 2, "TEH-01", 1), Pay: i64(25000)})
	if f.stock("KOPI-01") != 8 || f.stock("TEH-01") != 9 {
		t.Fatalf("paid create stock = %d/%d", f.stock("KOPI-01"), f.stock("TEH-01"))
	}

	out, err := f.svc.Update(context.Background(), trx.ID, &UpdateTransactionRequest{
		Items: items("KOPI-01", 1, "BLEND-01", 1),
		Pay:   i64(110000),
	}, Actor{})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := f.stock("TEH-01"); got != 10 {
		t.Fatalf("removed item stock = %d, want 10", got)
	}
	if got := f.stock("KOPI-01"); got != 9 {
		t.Fatalf("reduced item stock = %d, want 9", got)
	}
	if got := f.stock("BLEND-01"); got != 9 {
		t.Fatalf("added item stock = %d, want 9", got)
	}
	if len(out.Items) != 2 || out.SubTotal != 110000 {
		t.Fatalf("items=%d sub_total=%d, want 2/110000", len(out.Items), out.SubTotal)
	}
}

func TestUpdateKeepsExistingUnitPrice(t *testing.T) {
	f := newSaleFixture(t)
	trx := f.create(t, &CreateTransactionRequest{Items: items("KOPI-01", 1)})

	p := f.db.products[f.db.skuByCode("KOPI-01").ProductID]
	p.Price = 12000
	f.db.products[p.ID] = p

	out, err := f.svc.Update(context.Background(), trx.ID, &UpdateTransactionRequest{Items: items("KOPI-01", 2, "TEH-01", 1)}, Actor{})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if out.SubTotal != 25000 {
		t.Fatalf("sub_total = %d, want 25000", out.SubTotal)
	}
}

func TestUpdatePaidToDraftRejected(t *testing.T) {
	f := newSaleFixture(t)
	trx := f.create(t, &CreateTransactionRequest{Items: items("KOPI-01", 1), Pay: i64(10000)})

	_, err := f.svc.Update(context.Background(), trx.ID, &UpdateTransactionRequest{IsSaved: boolp(true), Items: items()}, Actor{})
	if !errors.Is(err, settlement.ErrConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
	if got := f.stock("KOPI-01"); got != 9 {
		t.Fatalf("stock = %d, want 9", got)
	}
}

func TestUpdateCouponRoundTrip(t *testing.T) {
	f := newSaleFixture(t)
	ctx := context.Background()
	trx := f.create(t, &CreateTransactionRequest{Items: items("KOPI-01", 3)})

	out, err := f.svc.Update(ctx, trx.ID, &UpdateTransactionRequest{Coupons: coupons("HEMAT5", 2)}, Actor{})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if out.DiscountTotal != 10000 || out.Total != 20000 || f.used("HEMAT5") != 2 {
		t.Fatalf("apply: discount=%d total=%d used=%d", out.DiscountTotal, out.Total, f.used("HEMAT5"))
	}

	out, err = f.svc.Update(ctx, trx.ID, &UpdateTransactionRequest{Coupons: coupons("HEMAT5", 1)}, Actor{})
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}
	if out.Total != 25000 || f.used("HEMAT5") != 1 {
		t.Fatalf("reduce: total=%d used=%d", out.Total, f.used("HEMAT5"))
	}

	out, err = f.svc.Update(ctx, trx.ID, &UpdateTransactionRequest{Coupons: coupons()}, Actor{})
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if out.DiscountTotal != 0 || out.Total != 30000 || f.used("HEMAT5") != 0 || len(out.Coupons) != 0 {
		t.Fatalf("remove: discount=%d total=%d used=%d", out.DiscountTotal, out.Total, f.used("HEMAT5"))
	}
}

func TestUpdateFailureRollsBack(t *testing.T) {
	f := newSaleFixture(t)
	trx := f.create(t, &CreateTransactionRequest{Items: items("KOPI-01", 1), Pay: i64(10000)})

	_, err := f.svc.Update(context.Background(), trx.ID, &UpdateTransactionRequest{
		Items:   items("KOPI-01", 1, "TEH-01", 1),
		Coupons: coupons("HABIS", 1),
		Pay:     i64(15000),
	}, Actor{})
	if !errors.Is(err, settlement.ErrConflict) {
		t.Fatalf("err = %v, want out of stock conflict", err)
	}
	if got := f.stock("TEH-01"); got != 10 {
		t.Fatalf("stock = %d, want 10 after rollback", got)
	}
	reloaded, _ := f.db.loadTransaction(trx.ID)
	if len(reloaded.Items) != 1 || reloaded.Total != 10000 {
		t.Fatalf("transaction changed after rollback: %+v", reloaded)
	}
}

func TestUpdateZeroTotalIsPaid(t *testing.T) {
	f := newSaleFixture(t)
	trx := f.create(t, &CreateTransactionRequest{Items: items("TEH-01", 1)})

	out, err := f.svc.Update(context.Background(), trx.ID, &UpdateTransactionRequest{Coupons: coupons("HEMAT5", 1)}, Actor{})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if out.Status() != settlement.StatusPaid || *out.Pay != 0 {
		t.Fatalf("status=%s pay=%v, want paid with pay 0", out.Status(), out.Pay)
	}
	if got := f.stock("TEH-01"); got != 9 {
		t.Fatalf("stock = %d, want 9", got)
	}
	types := f.rec.Types()
	if types[len(types)-2] != events.TransactionPaid {
		t.Fatalf("events = %v, want paid before stock update", types)
	}
}

func TestUpdateZeroTotalDropsSuppliedPay(t *testing.T) {
	f := newSaleFixture(t)
	trx := f.create(t, &CreateTransactionRequest{Items: items("TEH-01", 1)})

	out, err := f.svc.Update(context.Background(), trx.ID, &UpdateTransactionRequest{
		Coupons: coupons("HEMAT5", 1),
		Pay:     i64(5000),
	}, Actor{})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if out.Total != 0 || out.Pay == nil || *out.Pay != 0 || out.Status() != settlement.StatusPaid {
		t.Fatalf("total=%d pay=%v status=%s, want paid with pay 0", out.Total, out.Pay, out.Status())
	}
	if got := f.stock("TEH-01"); got != 9 {
		t.Fatalf("stock = %d, want 9", got)
	}
}

func TestUpdateLinesOfDeletedSKUs(t *testing.T) {
	f := newSaleFixture(t)
	trx := f.create(t, &CreateTransactionRequest{Items: items("KOPI-01", 1, "TEH-01", 1), Pay: i64(15000)})

	// both SKUs are gone, so the lines load without a ProductSKU
	delete(f.db.skus, f.db.skuByCode("KOPI-01").ID)
	delete(f.db.skus, f.db.skuByCode("TEH-01").ID)

	out, err := f.svc.Update(context.Background(), trx.ID, &UpdateTransactionRequest{
		Items: items("BLEND-01", 1),
		Pay:   i64(100000),
	}, Actor{})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(out.Items) != 1 || out.SubTotal != 100000 {
		t.Fatalf("items=%d sub_total=%d, want only the blender line", len(out.Items), out.SubTotal)
	}
	if got := f.stock("BLEND-01"); got != 9 {
		t.Fatalf("stock = %d, want 9", got)
	}
}

func TestUpdateUnknownTransaction(t *testing.T) {
	f := newSaleFixture(t)
	_, err := f.svc.Update(context.Background(), uuid.New(), &UpdateTransactionRequest{Note: str("x")}, Actor{})
	if !errors.Is(err, settlement.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}
