package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"retail-backoffice/internal/events"
	"retail-backoffice/internal/settlement"
	"retail-backoffice/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Actor is the authenticated staff member a request runs as.
type Actor struct {
	ID         uuid.UUID
	Name       string
	Email      string
	Role       string
	Privileges []string
}

// AuditID is what lands in created_by / updated_by.
func (a Actor) AuditID() string {
	if a.ID == uuid.Nil {
		return "system"
	}
	return a.ID.String()
}

func (a Actor) Can(privilege string) bool {
	for _, p := range a.Privileges {
		if p == privilege {
			return true
		}
	}
	return false
}

func (a Actor) event() *events.Actor {
	return &events.Actor{ID: a.AuditID(), Name: a.Name, Email: a.Email}
}

// Clock is swapped in tests.
type Clock func() time.Time

// validate runs the struct tags and reports the first failure.
func validate(req any) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		first := errs[0]
		return settlement.Invalid(first.FailedField, "Validation failed: Field '%s' failed on tag '%s'", first.FailedField, first.Tag)
	}
	return nil
}

// notFound converts gorm.ErrRecordNotFound into a user-facing rejection and
// passes every other error through.
func notFound(err error, field, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return settlement.NotFound(field, format, args...)
	}
	return err
}

func publish(ctx context.Context, p events.Publisher, producer, eventType, id string, actor Actor, payload any) error {
	e, err := events.New(producer, eventType, id, actor.event(), payload)
	if err != nil {
		return fmt.Errorf("build %s event: %w", eventType, err)
	}
	p.Publish(ctx, e)
	return nil
}

// ErrForbidden is returned when the actor holds the route privilege but not
// the one a specific action needs.
var ErrForbidden = errors.New("forbidden")
