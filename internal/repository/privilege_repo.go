package repository

import (
	"retail-backoffice/internal/model"

	"gorm.io/gorm"
)

type PrivilegeRepository interface {
	FindByCodes(codes []string) ([]model.Privilege, error)
	FindAll() ([]model.Privilege, error)
	SeedDefaults() error
}

type privilegeRepo struct {
	db *gorm.DB
}

func NewPrivilegeRepo(db *gorm.DB) PrivilegeRepository {
	return &privilegeRepo{db}
}

func (r *privilegeRepo) FindByCodes(codes []string) ([]model.Privilege, error) {
	var privileges []model.Privilege
	if len(codes) == 0 {
		return privileges, nil
	}
	err := r.db.Where("code IN ?", codes).Order("code").Find(&privileges).Error
	return privileges, err
}

func (r *privilegeRepo) FindAll() ([]model.Privilege, error) {
	var privileges []model.Privilege
	err := r.db.Order("code").Find(&privileges).Error
	return privileges, err
}

// SeedDefaults inserts missing privileges and renames changed ones.
func (r *privilegeRepo) SeedDefaults() error {
	for _, p := range model.DefaultPrivileges {
		row := model.Privilege{Code: p.Code}
		if err := r.db.Where(model.Privilege{Code: p.Code}).
			Assign(model.Privilege{Name: p.Name}).
			FirstOrCreate(&row).Error; err != nil {
			return err
		}
	}
	return nil
}
