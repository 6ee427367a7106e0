package repository

import (
	"retail-backoffice/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	FindByEmail(email string) (*model.User, error)
	FindByID(id uuid.UUID) (*model.User, error)
	Create(user *model.User) error
	Update(user *model.User) error
	Delete(id uuid.UUID, deletedBy string) error
	UpdatePassword(userID uuid.UUID, hashedPassword string) error
	FindAll(roleCode string) ([]model.User, error)
	UpdateSession(userID uuid.UUID, version string) error
	UpdateLastSeen(userID uuid.UUID) error
	UpdatePrivileges(userID uuid.UUID, privileges []model.Privilege) error
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db}
}

func (r *userRepo) withRole() *gorm.DB {
	return r.db.Preload("Role").Preload("Role.Privileges").Preload("Privileges")
}

func (r *userRepo) FindByEmail(email string) (*model.User, error) {
	var user model.User
	if err := r.withRole().Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) FindByID(id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.withRole().First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) Create(user *model.User) error {
	return r.db.Create(user).Error
}

func (r *userRepo) Update(user *model.User) error {
	return r.db.Omit("Role", "Privileges").Save(user).Error
}

func (r *userRepo) UpdatePassword(userID uuid.UUID, hashedPassword string) error {
	return r.db.Model(&model.User{}).Where("id = ?", userID).Update("password", hashedPassword).Error
}

func (r *userRepo) Delete(id uuid.UUID, deletedBy string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.User{}).Where("id = ?", id).Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		return tx.Delete(&model.User{}, "id = ?", id).Error
	})
}

// FindAll lists users, optionally only those holding roleCode.
func (r *userRepo) FindAll(roleCode string) ([]model.User, error) {
	var users []model.User
	q := r.withRole().Order("full_name")
	if roleCode != "" {
		q = q.Joins("JOIN roles ON roles.id = users.role_id").Where("roles.code = ?", roleCode)
	}
	err := q.Find(&users).Error
	return users, err
}

// UpdateSession rotates the token version and marks the user as seen, which
// invalidates every token issued before.
func (r *userRepo) UpdateSession(userID uuid.UUID, version string) error {
	return r.db.Model(&model.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"token_version": version,
		"last_seen_at":  gorm.Expr("NOW()"),
	}).Error
}

func (r *userRepo) UpdateLastSeen(userID uuid.UUID) error {
	return r.db.Model(&model.User{}).Where("id = ?", userID).Update("last_seen_at", gorm.Expr("NOW()")).Error
}

// UpdatePrivileges replaces the privileges granted directly to the user.
// Role privileges are not touched.
func (r *userRepo) UpdatePrivileges(userID uuid.UUID, privileges []model.Privilege) error {
	user := model.User{}
	user.ID = userID
	return r.db.Model(&user).Association("Privileges").Replace(privileges)
}
