package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"retail-backoffice/internal/events"
	"retail-backoffice/internal/model"
	"retail-backoffice/internal/repository"
	"retail-backoffice/internal/settlement"
	"retail-backoffice/pkg/logger"
	"retail-backoffice/pkg/redisx"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const transactionModule = "transaction_service"

type TransactionService interface {
	Create(ctx context.Context, req *CreateTransactionRequest, actor Actor) (*model.Transaction, error)
	Update(ctx context.Context, id uuid.UUID, req *UpdateTransactionRequest, actor Actor) (*model.Transaction, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	List(ctx context.Context, f model.TransactionFilter) ([]model.Transaction, int64, error)
}

type CreateTransactionRequest struct {
	CashierBookID uuid.UUID                  `json:"cashier_book_id" validate:"uuid_required"`
	Items         []settlement.ItemRequest   `json:"items" validate:"required,min=1,dive"`
	Coupons       []settlement.CouponRequest `json:"coupons" validate:"omitempty,dive"`
	Pay           *int64                     `json:"pay" validate:"omitempty,gte=0"`
	Payment       *string                    `json:"payment" validate:"omitempty,oneof=cash cashless"`
	Note          *string                    `json:"note" validate:"omitempty,max=1000"`
	IsSaved       bool                       `json:"is_saved"`
}

// UpdateTransactionRequest leaves a nil slice untouched; an empty slice
// removes every line.
type UpdateTransactionRequest struct {
	Items   []settlement.ItemRequest   `json:"items" validate:"omitempty,dive"`
	Coupons []settlement.CouponRequest `json:"coupons" validate:"omitempty,dive"`
	Pay     *int64                     `json:"pay" validate:"omitempty,gte=0"`
	Payment *string                    `json:"payment" validate:"omitempty,oneof=cash cashless"`
	Note    *string                    `json:"note" validate:"omitempty,max=1000"`
	IsSaved *bool                      `json:"is_saved"`
}

type TransactionServiceConfig struct {
	TxManager    repository.TxManager
	Transactions repository.TransactionRepository
	SKUs         repository.SKURepository
	Coupons      repository.CouponRepository
	CashierBooks repository.CashierBookRepository
	Locker       *redisx.Locker
	Publisher    events.Publisher
	Logger       *logrus.Logger
	Producer     string
	Clock        Clock
}

type transactionService struct {
	txm          repository.TxManager
	transactions repository.TransactionRepository
	skus         repository.SKURepository
	coupons      repository.CouponRepository
	books        repository.CashierBookRepository
	locker       *redisx.Locker
	publisher    events.Publisher
	log          *logrus.Logger
	producer     string
	now          Clock
}

func NewTransactionService(cfg TransactionServiceConfig) TransactionService {
	s := &transactionService{
		txm:          cfg.TxManager,
		transactions: cfg.Transactions,
		skus:         cfg.SKUs,
		coupons:      cfg.Coupons,
		books:        cfg.CashierBooks,
		locker:       cfg.Locker,
		publisher:    cfg.Publisher,
		log:          cfg.Logger,
		producer:     cfg.Producer,
		now:          cfg.Clock,
	}
	if s.publisher == nil {
		s.publisher = events.Nop{}
	}
	if s.log == nil {
		s.log = logger.Get()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// stockLog collects the stock moves of one request for the post-commit event.
type stockLog []events.StockChange

func (l *stockLog) add(id uuid.UUID, sku string, delta int) {
	if delta != 0 {
		*l = append(*l, events.StockChange{SKUID: id.String(), SKU: sku, Delta: delta})
	}
}

func (s *transactionService) Create(ctx context.Context, req *CreateTransactionRequest, actor Actor) (*model.Transaction, error) {
	normalizeItems(req.Items)
	normalizeCoupons(req.Coupons)
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := settlement.ValidateItemRequests(req.Items); err != nil {
		return nil, err
	}
	if err := settlement.ValidateCouponRequests(req.Coupons); err != nil {
		return nil, err
	}

	// a draft holds no coupons until it is updated with them
	coupons := req.Coupons
	if req.IsSaved {
		coupons = nil
	}

	now := s.now()
	var id uuid.UUID
	var moved stockLog

	err := s.txm.WithTx(ctx, func(tx *gorm.DB) error {
		book, err := s.books.FindByIDTx(tx, req.CashierBookID)
		if err != nil {
			return notFound(err, "cashier_book_id", "Cashier book not found.")
		}
		if !book.IsOpen() {
			return settlement.Conflict("cashier_book_id", "Cashier book %s is already closed.", book.Code)
		}

		skus, err := s.lockSKUs(tx, itemCodes(req.Items))
		if err != nil {
			return err
		}
		codes, err := s.lockCouponCodes(tx, couponCodes(coupons))
		if err != nil {
			return err
		}

		priced := make([]settlement.PricedLine, 0, len(req.Items))
		for _, it := range req.Items {
			priced = append(priced, settlement.PricedLine{UnitPrice: skus[it.SKU].Price(), Amount: it.Amount})
		}
		subTotal := settlement.SubTotal(priced)

		lines := make([]settlement.CouponLine, 0, len(coupons))
		for _, c := range coupons {
			code := codes[c.Code]
			if err := settlement.CheckCouponAvailability(code.State(), c.Amount, now); err != nil {
				return err
			}
			lines = append(lines, code.Line(c.Amount))
		}
		discounts, err := settlement.CalculateDiscounts(subTotal, lines)
		if err != nil {
			return err
		}
		total := settlement.Total(subTotal, discounts.Total())

		pay := req.Pay
		if total == 0 && !req.IsSaved {
			zero := int64(0)
			pay = &zero
		}
		if err := settlement.CheckPay(pay, total); err != nil {
			return err
		}
		paid := !req.IsSaved && pay != nil

		trx := model.Transaction{
			CashierBookID: book.ID,
			Pay:           pay,
			SubTotal:      subTotal,
			DiscountTotal: discounts.Total(),
			Total:         total,
			Payment:       req.Payment,
			Note:          req.Note,
			IsSaved:       req.IsSaved,
		}
		trx.ID = uuid.New()
		trx.Code = settlement.TransactionCode(now, trx.ID)
		trx.Audit(actor.AuditID())
		if paid {
			trx.PaidTime = &now
		}
		if err := s.transactions.Create(tx, &trx); err != nil {
			return err
		}
		id = trx.ID

		items := make([]model.TransactionItem, 0, len(req.Items))
		for _, it := range req.Items {
			sku := skus[it.SKU]
			item := model.TransactionItem{
				TransactionID: trx.ID,
				ProductSKUID:  sku.ID,
				UnitPrice:     sku.Price(),
				Amount:        it.Amount,
			}
			if paid {
				item.SupplierDiscount = sku.SupplierDiscount
				if err := s.skus.AdjustStock(tx, sku.ID, -it.Amount); err != nil {
					return err
				}
				moved.add(sku.ID, sku.SKU, -it.Amount)
			}
			items = append(items, item)
		}
		if err := s.transactions.CreateItems(tx, items); err != nil {
			return err
		}

		applied := make([]model.TransactionCoupon, 0, len(coupons))
		for i, c := range coupons {
			code := codes[c.Code]
			applied = append(applied, model.TransactionCoupon{
				TransactionID:     trx.ID,
				CouponCodeID:      code.ID,
				Amount:            c.Amount,
				ItemVoucherValue:  discounts.Values[i].ItemVoucherValue,
				ItemDiscountValue: discounts.Values[i].ItemDiscountValue,
			})
			if err := s.coupons.AdjustUsed(tx, code.ID, c.Amount); err != nil {
				return err
			}
		}
		return s.transactions.CreateCoupons(tx, applied)
	})
	if err != nil {
		s.logFailure("Create", "create transaction", req, err)
		return nil, err
	}

	out, err := s.transactions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.announce(ctx, events.TransactionCreated, out, actor)
	if out.PaidTime != nil {
		s.announce(ctx, events.TransactionPaid, out, actor)
	}
	s.announceStock(ctx, "sale", out.ID, moved, actor)
	return out, nil
}

func (s *transactionService) Update(ctx context.Context, id uuid.UUID, req *UpdateTransactionRequest, actor Actor) (*model.Transaction, error) {
	normalizeItems(req.Items)
	normalizeCoupons(req.Coupons)
	if err := validate(req); err != nil {
		return nil, err
	}
	if req.Items != nil {
		if err := settlement.ValidateItemRequests(req.Items); err != nil {
			return nil, err
		}
	}
	if req.Coupons != nil {
		if err := settlement.ValidateCouponRequests(req.Coupons); err != nil {
			return nil, err
		}
	}

	release, err := s.locker.Obtain(ctx, redisx.KeyLockTransaction, id.String(), redisx.TTLLock)
	if errors.Is(err, redisx.ErrLocked) {
		return nil, settlement.Conflict("id", "Transaction is being updated by another request.")
	}
	defer release()

	now := s.now()
	var moved stockLog
	becamePaid := false

	err = s.txm.WithTx(ctx, func(tx *gorm.DB) error {
		trx, err := s.transactions.FindByIDForUpdate(tx, id)
		if err != nil {
			return notFound(err, "id", "Transaction not found.")
		}

		from := trx.Status()
		wasPaid := from == settlement.StatusPaid
		isSaved := trx.IsSaved
		if req.IsSaved != nil {
			isSaved = *req.IsSaved
		}
		becomingPaid := !wasPaid && !isSaved && req.Pay != nil && *req.Pay > 0
		paidNow := wasPaid || becomingPaid
		if err := settlement.Transition(from, settlement.TargetStatus(isSaved, paidNow)); err != nil {
			return err
		}

		if req.Items != nil {
			if err := s.reconcileItems(tx, trx, req.Items, wasPaid, paidNow, &moved); err != nil {
				return err
			}
		} else if becomingPaid {
			if err := s.settleItems(tx, trx.Items, &moved); err != nil {
				return err
			}
		}

		if req.Coupons != nil {
			if err := s.reconcileCoupons(tx, trx, req.Coupons, now); err != nil {
				return err
			}
		}

		if req.Pay != nil {
			trx.Pay = req.Pay
		}
		if req.Payment != nil {
			trx.Payment = req.Payment
		}
		if req.Note != nil {
			trx.Note = req.Note
		}
		trx.IsSaved = isSaved
		trx.UpdatedBy = actor.AuditID()
		if becomingPaid {
			trx.PaidTime = &now
			becamePaid = true
		}

		if req.Items != nil || req.Coupons != nil {
			if err := s.recomputeTotals(tx, trx); err != nil {
				return err
			}
		}
		if err := settlement.CheckPay(trx.Pay, trx.Total); err != nil {
			return err
		}

		// a free sale is settled with nothing paid
		if trx.Total == 0 && !trx.IsSaved {
			zero := int64(0)
			trx.Pay = &zero
			if trx.PaidTime == nil {
				trx.PaidTime = &now
				becamePaid = true
				if err := s.settleItems(tx, trx.Items, &moved); err != nil {
					return err
				}
			}
		}

		return s.transactions.Save(tx, trx)
	})
	if err != nil {
		s.logFailure("Update", "update transaction", map[string]any{"id": id, "request": req}, err)
		return nil, err
	}

	out, err := s.transactions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.announce(ctx, events.TransactionUpdated, out, actor)
	if becamePaid {
		s.announce(ctx, events.TransactionPaid, out, actor)
	}
	s.announceStock(ctx, "sale_update", out.ID, moved, actor)
	return out, nil
}

// reconcileItems applies the item diff. Existing lines keep their unit price;
// new lines take the current product price. Lines are matched by SKU id, so a
// line whose SKU was since deleted still pairs with its stored row.
func (s *transactionService) reconcileItems(tx *gorm.DB, trx *model.Transaction, next []settlement.ItemRequest, wasPaid, paidNow bool, moved *stockLog) error {
	old := make(map[string]int, len(trx.Items))
	stored := make(map[string]*model.TransactionItem, len(trx.Items))
	known := make(map[string]uuid.UUID, len(trx.Items))
	codeOf := make(map[string]string, len(trx.Items)+len(next))
	for i := range trx.Items {
		it := &trx.Items[i]
		key := it.ProductSKUID.String()
		old[key] = it.Amount
		stored[key] = it
		if code := it.SKUCode(); code != "" {
			known[code] = it.ProductSKUID
			codeOf[key] = code
		}
	}

	// codes no stored line carries must name a live SKU
	newCodes := make([]string, 0, len(next))
	for _, n := range next {
		if _, ok := known[n.SKU]; !ok {
			newCodes = append(newCodes, n.SKU)
		}
	}
	fresh, err := s.lockSKUs(tx, newCodes)
	if err != nil {
		return err
	}
	freshByID := make(map[string]*model.ProductSKU, len(fresh))
	keyed := make([]settlement.ItemRequest, 0, len(next))
	for _, n := range next {
		id, ok := known[n.SKU]
		if !ok {
			sku := fresh[n.SKU]
			id = sku.ID
			freshByID[id.String()] = sku
		}
		codeOf[id.String()] = n.SKU
		keyed = append(keyed, settlement.ItemRequest{SKU: id.String(), Amount: n.Amount})
	}
	plan := settlement.ReconcileItems(old, keyed, wasPaid, paidNow)

	lockIDs := make([]uuid.UUID, 0, len(plan.Removed)+len(plan.Updated))
	for _, ch := range append(append([]settlement.ItemChange{}, plan.Removed...), plan.Updated...) {
		if ch.StockDelta != 0 {
			lockIDs = append(lockIDs, stored[ch.SKU].ProductSKUID)
		}
	}
	if _, err := s.skus.FindByIDsForUpdate(tx, lockIDs); err != nil {
		return err
	}

	removed := make([]uuid.UUID, 0, len(plan.Removed))
	for _, ch := range plan.Removed {
		it := stored[ch.SKU]
		removed = append(removed, it.ID)
		if err := s.skus.AdjustStock(tx, it.ProductSKUID, ch.StockDelta); err != nil {
			return err
		}
		moved.add(it.ProductSKUID, codeOf[ch.SKU], ch.StockDelta)
	}
	if err := s.transactions.DeleteItems(tx, removed); err != nil {
		return err
	}

	for _, ch := range plan.Updated {
		it := stored[ch.SKU]
		changed := it.Amount != ch.NewAmount
		it.Amount = ch.NewAmount
		if ch.Settle && it.ProductSKU != nil {
			it.SupplierDiscount = it.ProductSKU.SupplierDiscount
			changed = true
		}
		if changed {
			if err := s.transactions.UpdateItem(tx, it); err != nil {
				return err
			}
		}
		if err := s.skus.AdjustStock(tx, it.ProductSKUID, ch.StockDelta); err != nil {
			return err
		}
		moved.add(it.ProductSKUID, codeOf[ch.SKU], ch.StockDelta)
	}

	inserted := make([]model.TransactionItem, 0, len(plan.Inserted))
	for _, ch := range plan.Inserted {
		sku := freshByID[ch.SKU]
		item := model.TransactionItem{
			TransactionID: trx.ID,
			ProductSKUID:  sku.ID,
			UnitPrice:     sku.Price(),
			Amount:        ch.NewAmount,
		}
		if paidNow {
			item.SupplierDiscount = sku.SupplierDiscount
		}
		inserted = append(inserted, item)
		if err := s.skus.AdjustStock(tx, sku.ID, ch.StockDelta); err != nil {
			return err
		}
		moved.add(sku.ID, sku.SKU, ch.StockDelta)
	}
	return s.transactions.CreateItems(tx, inserted)
}

// settleItems takes the full amount of every line out of stock and snapshots
// the supplier discount. Only called on the unpaid to paid edge.
func (s *transactionService) settleItems(tx *gorm.DB, items []model.TransactionItem, moved *stockLog) error {
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductSKUID)
	}
	if _, err := s.skus.FindByIDsForUpdate(tx, ids); err != nil {
		return err
	}
	for i := range items {
		it := &items[i]
		if it.ProductSKU != nil {
			it.SupplierDiscount = it.ProductSKU.SupplierDiscount
		}
		if err := s.transactions.UpdateItem(tx, it); err != nil {
			return err
		}
		if err := s.skus.AdjustStock(tx, it.ProductSKUID, -it.Amount); err != nil {
			return err
		}
		moved.add(it.ProductSKUID, it.SKUCode(), -it.Amount)
	}
	return nil
}

func (s *transactionService) reconcileCoupons(tx *gorm.DB, trx *model.Transaction, next []settlement.CouponRequest, now time.Time) error {
	old := make(map[string]int, len(trx.Coupons))
	stored := make(map[string]*model.TransactionCoupon, len(trx.Coupons))
	for i := range trx.Coupons {
		c := &trx.Coupons[i]
		old[c.Code()] = c.Amount
		stored[c.Code()] = c
	}
	plan := settlement.ReconcileCoupons(old, next)

	wanted := make([]string, 0, len(plan.Changed)+len(plan.Added))
	for _, ch := range append(append([]settlement.CouponChange{}, plan.Changed...), plan.Added...) {
		wanted = append(wanted, ch.Code)
	}
	codes, err := s.lockCouponCodes(tx, wanted)
	if err != nil {
		return err
	}

	removed := make([]uuid.UUID, 0, len(plan.Removed))
	for _, ch := range plan.Removed {
		tc := stored[ch.Code]
		removed = append(removed, tc.ID)
		if err := s.coupons.AdjustUsed(tx, tc.CouponCodeID, ch.UsedDelta); err != nil {
			return err
		}
	}
	if err := s.transactions.DeleteCoupons(tx, removed); err != nil {
		return err
	}

	for _, ch := range plan.Changed {
		code := codes[ch.Code]
		if ch.UsedDelta > 0 {
			if err := settlement.CheckCouponIncrease(code.State(), ch.UsedDelta); err != nil {
				return err
			}
		}
		tc := stored[ch.Code]
		tc.Amount = ch.NewAmount
		if err := s.transactions.UpdateCoupon(tx, tc); err != nil {
			return err
		}
		if err := s.coupons.AdjustUsed(tx, code.ID, ch.UsedDelta); err != nil {
			return err
		}
	}

	added := make([]model.TransactionCoupon, 0, len(plan.Added))
	for _, ch := range plan.Added {
		code := codes[ch.Code]
		if err := settlement.CheckCouponAvailability(code.State(), ch.NewAmount, now); err != nil {
			return err
		}
		added = append(added, model.TransactionCoupon{
			TransactionID: trx.ID,
			CouponCodeID:  code.ID,
			Amount:        ch.NewAmount,
		})
		if err := s.coupons.AdjustUsed(tx, code.ID, ch.UsedDelta); err != nil {
			return err
		}
	}
	return s.transactions.CreateCoupons(tx, added)
}

// recomputeTotals reloads the lines and derives sub total, discount and
// total again, refreshing each coupon's snapshot value.
func (s *transactionService) recomputeTotals(tx *gorm.DB, trx *model.Transaction) error {
	current, err := s.transactions.FindByIDForUpdate(tx, trx.ID)
	if err != nil {
		return err
	}

	priced := make([]settlement.PricedLine, 0, len(current.Items))
	for _, it := range current.Items {
		priced = append(priced, settlement.PricedLine{UnitPrice: it.UnitPrice, Amount: it.Amount})
	}
	subTotal := settlement.SubTotal(priced)

	lines := make([]settlement.CouponLine, 0, len(current.Coupons))
	for _, c := range current.Coupons {
		if c.CouponCode == nil {
			return settlement.NotFound("coupons", "Coupon code for line %s not found.", c.ID)
		}
		lines = append(lines, c.CouponCode.Line(c.Amount))
	}
	discounts, err := settlement.CalculateDiscounts(subTotal, lines)
	if err != nil {
		return err
	}

	for i := range current.Coupons {
		c := &current.Coupons[i]
		c.ItemVoucherValue = discounts.Values[i].ItemVoucherValue
		c.ItemDiscountValue = discounts.Values[i].ItemDiscountValue
		if err := s.transactions.UpdateCoupon(tx, c); err != nil {
			return err
		}
	}

	trx.Items = current.Items
	trx.Coupons = current.Coupons
	trx.SubTotal = subTotal
	trx.DiscountTotal = discounts.Total()
	trx.Total = settlement.Total(subTotal, discounts.Total())
	return nil
}

func (s *transactionService) Get(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	t, err := s.transactions.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "id", "Transaction not found.")
	}
	return t, nil
}

func (s *transactionService) List(ctx context.Context, f model.TransactionFilter) ([]model.Transaction, int64, error) {
	return s.transactions.FindAll(ctx, f)
}

// lockSKUs locks the SKUs by code and fails on the first unknown one.
func (s *transactionService) lockSKUs(tx *gorm.DB, codes []string) (map[string]*model.ProductSKU, error) {
	rows, err := s.skus.FindByCodesForUpdate(tx, codes)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*model.ProductSKU, len(rows))
	for i := range rows {
		out[rows[i].SKU] = &rows[i]
	}
	for _, c := range codes {
		sku, ok := out[c]
		if !ok || sku.Product == nil {
			return nil, settlement.NotFound("items", "Product SKU %s not found.", c)
		}
	}
	return out, nil
}

func (s *transactionService) lockCouponCodes(tx *gorm.DB, codes []string) (map[string]*model.CouponCode, error) {
	rows, err := s.coupons.FindCodesForUpdate(tx, codes)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*model.CouponCode, len(rows))
	for i := range rows {
		out[rows[i].Code] = &rows[i]
	}
	for _, c := range codes {
		code, ok := out[c]
		if !ok || code.Coupon == nil {
			return nil, settlement.NotFound("coupons", "Coupon %s not found.", c)
		}
	}
	return out, nil
}

func (s *transactionService) announce(ctx context.Context, eventType string, t *model.Transaction, actor Actor) {
	payload := events.TransactionPayload{
		TransactionID: t.ID.String(),
		Code:          t.Code,
		CashierBookID: t.CashierBookID.String(),
		Status:        string(t.Status()),
		SubTotal:      t.SubTotal,
		DiscountTotal: t.DiscountTotal,
		Total:         t.Total,
		Pay:           t.Pay,
		Payment:       t.Payment,
		PaidTime:      t.PaidTime,
	}
	if err := publish(ctx, s.publisher, s.producer, eventType, t.ID.String(), actor, payload); err != nil {
		logger.LogError(s.log, transactionModule, "announce", eventType, t.ID, err)
	}
}

func (s *transactionService) announceStock(ctx context.Context, reason string, ref uuid.UUID, moved stockLog, actor Actor) {
	if len(moved) == 0 {
		return
	}
	payload := events.StockPayload{Reason: reason, ReferenceID: ref.String(), Changes: moved}
	if err := publish(ctx, s.publisher, s.producer, events.StockUpdated, ref.String(), actor, payload); err != nil {
		logger.LogError(s.log, transactionModule, "announceStock", reason, ref, err)
	}
}

// logFailure only logs errors that are not plain user rejections.
func (s *transactionService) logFailure(funcName, context string, data any, err error) {
	var ve *settlement.ValidationError
	if errors.As(err, &ve) {
		s.log.WithFields(logrus.Fields{"module": transactionModule, "funcName": funcName, "field": ve.Field}).Debug(ve.Message)
		return
	}
	logger.LogError(s.log, transactionModule, funcName, context, data, err)
}

func normalizeItems(items []settlement.ItemRequest) {
	for i := range items {
		items[i].SKU = strings.TrimSpace(items[i].SKU)
	}
}

func normalizeCoupons(coupons []settlement.CouponRequest) {
	for i := range coupons {
		coupons[i].Code = strings.TrimSpace(coupons[i].Code)
	}
}

func itemCodes(items []settlement.ItemRequest) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.SKU)
	}
	return out
}

func couponCodes(coupons []settlement.CouponRequest) []string {
	out := make([]string, 0, len(coupons))
	for _, c := range coupons {
		out = append(out, c.Code)
	}
	return out
}
