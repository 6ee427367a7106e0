package service

import (
	"context"
	"errors"
	"strings"

	"retail-backoffice/internal/model"
	"retail-backoffice/internal/repository"
	"retail-backoffice/internal/settlement"

	"gorm.io/gorm"
)

type StoreService interface {
	Get(ctx context.Context) (*model.Store, error)
	// Update patches the profile and reports whether it had to be created.
	Update(ctx context.Context, req *StoreRequest, actor Actor) (*model.Store, bool, error)
}

// StoreRequest is a partial update. An empty email or site clears it.
type StoreRequest struct {
	Name    *string `json:"name" validate:"omitempty,max=128"`
	Address *string `json:"address" validate:"omitempty,max=255"`
	Phone   *string `json:"phone" validate:"omitempty,max=20"`
	Email   *string `json:"email" validate:"omitempty,email,max=255"`
	Site    *string `json:"site" validate:"omitempty,max=255"`
}

type storeService struct {
	stores repository.StoreRepository
}

func NewStoreService(stores repository.StoreRepository) StoreService {
	return &storeService{stores: stores}
}

func (s *storeService) Get(ctx context.Context) (*model.Store, error) {
	store, err := s.stores.Get(ctx)
	if err != nil {
		return nil, notFound(err, "store", "Store not found.")
	}
	return store, nil
}

func (s *storeService) Update(ctx context.Context, req *StoreRequest, actor Actor) (*model.Store, bool, error) {
	for _, f := range []*string{req.Name, req.Address, req.Phone, req.Email, req.Site} {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
	if err := validate(req); err != nil {
		return nil, false, err
	}

	created := false
	store, err := s.stores.Get(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		store, created = &model.Store{}, true
	} else if err != nil {
		return nil, false, err
	}

	if req.Name != nil {
		store.Name = *req.Name
	}
	if req.Address != nil {
		store.Address = *req.Address
	}
	if req.Phone != nil {
		store.Phone = *req.Phone
	}
	if req.Email != nil {
		store.Email = optional(*req.Email)
	}
	if req.Site != nil {
		store.Site = optional(*req.Site)
	}

	switch {
	case store.Name == "":
		return nil, false, settlement.Invalid("name", "Store name is required.")
	case store.Address == "":
		return nil, false, settlement.Invalid("address", "Store address is required.")
	case store.Phone == "":
		return nil, false, settlement.Invalid("phone", "Store phone is required.")
	}

	store.UpdatedBy = actor.AuditID()
	if err := s.stores.Save(ctx, store); err != nil {
		return nil, false, err
	}
	return store, created, nil
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
