package repository

import (
	"context"

	"retail-backoffice/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StoreRepository interface {
	Get(ctx context.Context) (*model.Store, error)
	// Save writes the profile row, creating it on first use.
	Save(ctx context.Context, store *model.Store) error
}

type storeRepo struct {
	db *gorm.DB
}

func NewStoreRepo(db *gorm.DB) StoreRepository {
	return &storeRepo{db}
}

func (r *storeRepo) Get(ctx context.Context) (*model.Store, error) {
	var s model.Store
	if err := r.db.WithContext(ctx).First(&s, "id = ?", model.StoreProfileID).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *storeRepo) Save(ctx context.Context, store *model.Store) error {
	store.ID = model.StoreProfileID
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "address", "phone", "email", "site", "updated_at", "updated_by"}),
	}).Create(store).Error
}
