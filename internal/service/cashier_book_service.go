package service

import (
	"context"
	"errors"
	"time"

	"retail-backoffice/internal/events"
	"retail-backoffice/internal/model"
	"retail-backoffice/internal/repository"
	"retail-backoffice/internal/settlement"
	"retail-backoffice/pkg/logger"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const BookAlreadyOpenMessage = "User already has an open cashier book. Please close it first."

type CashierBookService interface {
	Open(ctx context.Context, req *OpenCashierBookRequest, actor Actor) (*model.CashierBook, error)
	Close(ctx context.Context, id uuid.UUID, actor Actor) (*model.CashierBook, error)
	CloseActive(ctx context.Context, actor Actor) (*model.CashierBook, error)
	Active(ctx context.Context, actor Actor) (*model.CashierBook, error)
	Get(ctx context.Context, id uuid.UUID, actor Actor) (*model.CashierBook, error)
	List(ctx context.Context, req *ListCashierBooksRequest, actor Actor) ([]model.CashierBookResponse, int64, error)
	Stats(ctx context.Context, id uuid.UUID, actor Actor) (*model.CashierBookStats, error)
	ActiveStats(ctx context.Context, actor Actor) (*model.CashierBookStats, error)
}

type OpenCashierBookRequest struct {
	CashDrawer int64 `json:"cash_drawer" validate:"gte=0"`
}

type ListCashierBooksRequest struct {
	Search    string   `query:"search"`
	CashierID string   `query:"cashier_id"`
	Statuses  []string `query:"status"`
	OpenedOn  string   `query:"opened_on"` // YYYY-MM-DD
	ClosedOn  string   `query:"closed_on"` // YYYY-MM-DD
	Limit     int      `query:"limit"`
	Offset    int      `query:"offset"`
}

type cashierBookService struct {
	txm       repository.TxManager
	books     repository.CashierBookRepository
	publisher events.Publisher
	log       *logrus.Logger
	producer  string
	loc       *time.Location
	now       Clock
}

func NewCashierBookService(txm repository.TxManager, books repository.CashierBookRepository, publisher events.Publisher, log *logrus.Logger, producer string, loc *time.Location) CashierBookService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if log == nil {
		log = logger.Get()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &cashierBookService{
		txm:       txm,
		books:     books,
		publisher: publisher,
		log:       log,
		producer:  producer,
		loc:       loc,
		now:       time.Now,
	}
}

func (s *cashierBookService) Open(ctx context.Context, req *OpenCashierBookRequest, actor Actor) (*model.CashierBook, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	now := s.now().In(s.loc)
	book := &model.CashierBook{
		CashierID:  actor.ID,
		CashDrawer: req.CashDrawer,
		TimeOpen:   now,
	}
	book.ID = uuid.New()
	book.Code = settlement.CashierBookCode(now, book.ID)
	book.Audit(actor.AuditID())

	err := s.txm.WithTx(ctx, func(tx *gorm.DB) error {
		open, err := s.books.FindOpenByCashier(tx, actor.ID)
		if err == nil && open != nil {
			return settlement.Conflict("cashier_book", BookAlreadyOpenMessage)
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		// the partial unique index catches a concurrent open
		if err := s.books.Create(tx, book); errors.Is(err, gorm.ErrDuplicatedKey) {
			return settlement.Conflict("cashier_book", BookAlreadyOpenMessage)
		} else if err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.announce(ctx, events.CashierBookOpened, book, actor)
	return s.books.FindByID(ctx, book.ID)
}

func (s *cashierBookService) Close(ctx context.Context, id uuid.UUID, actor Actor) (*model.CashierBook, error) {
	book, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if !book.IsOpen() {
		return nil, settlement.Conflict("cashier_book", "Cashier book %s is already closed.", book.Code)
	}

	now := s.now().In(s.loc)
	err = s.txm.WithTx(ctx, func(tx *gorm.DB) error {
		return s.books.Close(tx, book.ID, now, actor.AuditID())
	})
	if err != nil {
		logger.LogError(s.log, "cashier_book_service", "Close", "close cashier book", id, err)
		return nil, err
	}

	book.TimeClosed = &now
	s.announce(ctx, events.CashierBookClosed, book, actor)
	return s.books.FindByID(ctx, book.ID)
}

func (s *cashierBookService) CloseActive(ctx context.Context, actor Actor) (*model.CashierBook, error) {
	book, err := s.Active(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.Close(ctx, book.ID, actor)
}

func (s *cashierBookService) Active(ctx context.Context, actor Actor) (*model.CashierBook, error) {
	var book *model.CashierBook
	err := s.txm.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		book, err = s.books.FindOpenByCashier(tx, actor.ID)
		return notFound(err, "cashier_book", "You have no open cashier book.")
	})
	if err != nil {
		return nil, err
	}
	return s.books.FindByID(ctx, book.ID)
}

// Get hides other cashiers' books from anyone without the view privilege.
func (s *cashierBookService) Get(ctx context.Context, id uuid.UUID, actor Actor) (*model.CashierBook, error) {
	book, err := s.books.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "id", "Cashier book not found.")
	}
	if book.CashierID != actor.ID && !actor.Can(model.PrivCashierBookView) {
		return nil, settlement.NotFound("id", "Cashier book not found.")
	}
	return book, nil
}

func (s *cashierBookService) List(ctx context.Context, req *ListCashierBooksRequest, actor Actor) ([]model.CashierBookResponse, int64, error) {
	f := repository.CashierBookFilter{
		Search:   req.Search,
		Statuses: req.Statuses,
		Limit:    req.Limit,
		Offset:   req.Offset,
	}

	if !actor.Can(model.PrivCashierBookView) {
		f.CashierID = &actor.ID
	} else if req.CashierID != "" {
		id, err := uuid.Parse(req.CashierID)
		if err != nil {
			return nil, 0, settlement.Invalid("cashier_id", "Invalid cashier ID")
		}
		f.CashierID = &id
	}

	var err error
	if f.OpenedOn, err = s.parseDay("opened_on", req.OpenedOn); err != nil {
		return nil, 0, err
	}
	if f.ClosedOn, err = s.parseDay("closed_on", req.ClosedOn); err != nil {
		return nil, 0, err
	}

	books, total, err := s.books.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]model.CashierBookResponse, len(books))
	for i := range books {
		out[i] = books[i].ToResponse()
	}
	return out, total, nil
}

func (s *cashierBookService) Stats(ctx context.Context, id uuid.UUID, actor Actor) (*model.CashierBookStats, error) {
	book, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	return s.stats(ctx, book)
}

func (s *cashierBookService) ActiveStats(ctx context.Context, actor Actor) (*model.CashierBookStats, error) {
	book, err := s.Active(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.stats(ctx, book)
}

func (s *cashierBookService) stats(ctx context.Context, book *model.CashierBook) (*model.CashierBookStats, error) {
	stats, err := s.books.Stats(ctx, book.ID)
	if err != nil {
		return nil, err
	}
	stats.ExpectedDrawer = book.CashDrawer + stats.CashValue
	return stats, nil
}

func (s *cashierBookService) parseDay(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	day, err := time.ParseInLocation("2006-01-02", value, s.loc)
	if err != nil {
		return nil, settlement.Invalid(field, "invalid date format, use YYYY-MM-DD")
	}
	return &day, nil
}

func (s *cashierBookService) announce(ctx context.Context, eventType string, book *model.CashierBook, actor Actor) {
	payload := events.CashierBookPayload{
		CashierBookID: book.ID.String(),
		Code:          book.Code,
		CashierID:     book.CashierID.String(),
		TimeOpen:      book.TimeOpen,
		TimeClosed:    book.TimeClosed,
	}
	if err := publish(ctx, s.publisher, s.producer, eventType, book.ID.String(), actor, payload); err != nil {
		logger.LogError(s.log, "cashier_book_service", "announce", eventType, book.ID, err)
	}
}
