package repository

import (
	"errors"

	"retail-backoffice/internal/model"

	"gorm.io/gorm"
)

type RoleRepository interface {
	FindAll() ([]model.Role, error)
	FindByID(id uint) (*model.Role, error)
	FindByCode(code string) (*model.Role, error)
	SeedDefaults() error
}

type roleRepo struct {
	db *gorm.DB
}

func NewRoleRepo(db *gorm.DB) RoleRepository {
	return &roleRepo{db: db}
}

func (r *roleRepo) FindAll() ([]model.Role, error) {
	var roles []model.Role
	err := r.db.Preload("Privileges").Order("id").Find(&roles).Error
	return roles, err
}

func (r *roleRepo) FindByID(id uint) (*model.Role, error) {
	var role model.Role
	if err := r.db.Preload("Privileges").First(&role, id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepo) FindByCode(code string) (*model.Role, error) {
	var role model.Role
	if err := r.db.Preload("Privileges").Where("code = ?", code).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// SeedDefaults creates the staff roles and, for a role that has no privileges
// yet, attaches its default set. ADMIN gets every privilege.
func (r *roleRepo) SeedDefaults() error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var all []model.Privilege
		if err := tx.Find(&all).Error; err != nil {
			return err
		}
		byCode := make(map[string]model.Privilege, len(all))
		for _, p := range all {
			byCode[p.Code] = p
		}

		for _, def := range model.DefaultRoles {
			var role model.Role
			err := tx.Preload("Privileges").Where("code = ?", def.Code).First(&role).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				role = model.Role{Code: def.Code, Name: def.Name, Description: def.Description}
				if err := tx.Create(&role).Error; err != nil {
					return err
				}
			} else if err != nil {
				return err
			}
			// ADMIN is topped up with privileges added since it was seeded
			if len(role.Privileges) > 0 && def.Code != model.RoleAdmin {
				continue
			}

			grant := all
			if def.Code != model.RoleAdmin {
				grant = nil
				for _, code := range model.DefaultRolePrivileges[def.Code] {
					if p, ok := byCode[code]; ok {
						grant = append(grant, p)
					}
				}
			}
			if len(grant) == 0 {
				continue
			}
			if err := tx.Model(&role).Association("Privileges").Replace(grant); err != nil {
				return err
			}
		}
		return nil
	})
}
