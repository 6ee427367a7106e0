package service

import (
	"errors"
	"strings"

	"retail-backoffice/internal/model"
	"retail-backoffice/internal/repository"
	"retail-backoffice/internal/settlement"

	"github.com/google/uuid"
)

var (
	ErrEmailExists  = errors.New("email already exists")
	ErrRoleNotFound = errors.New("role not found")
)

type UserService interface {
	CreateUser(req *CreateUserRequest, creatorID string) (*model.User, error)
	UpdateUser(userID uuid.UUID, req *UpdateUserRequest, updaterID string) (*model.User, error)
	DeleteUser(userID uuid.UUID, deleterID string) error
	UpdateUserPrivileges(userID uuid.UUID, privilegeCodes []string, updaterID string) (*model.User, error)
	GetAllUsers(roleCode string) ([]model.UserResponse, error)
	GetUserByID(id uuid.UUID) (*model.UserResponse, error)
	GetRoles() ([]model.Role, error)
	GetPrivileges() ([]model.Privilege, error)
}

type CreateUserRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	FullName    string `json:"full_name" validate:"required"`
	PhoneNumber string `json:"phone_number" validate:"max=20"`
	RoleID      uint   `json:"role_id" validate:"required"`
}

type UpdateUserRequest struct {
	Email       string  `json:"email" validate:"required,email"`
	Password    *string `json:"password,omitempty" validate:"omitempty,min=6"` // Optional
	FullName    string  `json:"full_name" validate:"required"`
	PhoneNumber string  `json:"phone_number" validate:"max=20"`
	RoleID      uint    `json:"role_id" validate:"required"`
	IsActive    *bool   `json:"is_active"`
}

type userService struct {
	userRepo      repository.UserRepository
	privilegeRepo repository.PrivilegeRepository
	roleRepo      repository.RoleRepository
}

func NewUserService(userRepo repository.UserRepository, privilegeRepo repository.PrivilegeRepository, roleRepo repository.RoleRepository) UserService {
	return &userService{
		userRepo:      userRepo,
		privilegeRepo: privilegeRepo,
		roleRepo:      roleRepo,
	}
}

func (s *userService) CreateUser(req *CreateUserRequest, creatorID string) (*model.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate(req); err != nil {
		return nil, err
	}

	if existing, _ := s.userRepo.FindByEmail(req.Email); existing != nil {
		return nil, ErrEmailExists
	}
	role, err := s.roleRepo.FindByID(req.RoleID)
	if err != nil {
		return nil, ErrRoleNotFound
	}

	user := &model.User{
		Email:       req.Email,
		FullName:    strings.TrimSpace(req.FullName),
		PhoneNumber: req.PhoneNumber,
		RoleID:      &role.ID,
		IsActive:    true,
	}
	user.Audit(creatorID)
	if err := user.SetPassword(req.Password); err != nil {
		return nil, errors.New("failed to hash password")
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	return s.userRepo.FindByID(user.ID)
}

func (s *userService) UpdateUser(userID uuid.UUID, req *UpdateUserRequest, updaterID string) (*model.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if req.Email != user.Email {
		if existing, _ := s.userRepo.FindByEmail(req.Email); existing != nil {
			return nil, ErrEmailExists
		}
	}
	role, err := s.roleRepo.FindByID(req.RoleID)
	if err != nil {
		return nil, ErrRoleNotFound
	}

	user.Email = req.Email
	user.FullName = strings.TrimSpace(req.FullName)
	user.PhoneNumber = req.PhoneNumber
	user.RoleID = &role.ID
	user.Role = nil
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	user.UpdatedBy = updaterID

	if req.Password != nil && *req.Password != "" {
		if err := user.SetPassword(*req.Password); err != nil {
			return nil, errors.New("failed to hash password")
		}
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return s.userRepo.FindByID(userID)
}

// DeleteUser soft-deletes. A user cannot delete their own account.
func (s *userService) DeleteUser(userID uuid.UUID, deleterID string) error {
	if userID.String() == deleterID {
		return settlement.Conflict("id", "You cannot delete your own account.")
	}
	if _, err := s.userRepo.FindByID(userID); err != nil {
		return ErrUserNotFound
	}
	return s.userRepo.Delete(userID, deleterID)
}

// UpdateUserPrivileges sets the privileges granted on top of the user's role.
func (s *userService) UpdateUserPrivileges(userID uuid.UUID, privilegeCodes []string, updaterID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	privileges, err := s.privilegeRepo.FindByCodes(privilegeCodes)
	if err != nil {
		return nil, errors.New("failed to find privileges")
	}
	if len(privileges) != len(privilegeCodes) {
		return nil, settlement.Invalid("privileges", "Unknown privilege code.")
	}

	if err := s.userRepo.UpdatePrivileges(userID, privileges); err != nil {
		return nil, err
	}

	user.UpdatedBy = updaterID
	user.Role = nil
	user.Privileges = nil
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return s.userRepo.FindByID(userID)
}

func (s *userService) GetAllUsers(roleCode string) ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAll(strings.ToUpper(strings.TrimSpace(roleCode)))
	if err != nil {
		return nil, err
	}

	responses := make([]model.UserResponse, len(users))
	for i, user := range users {
		responses[i] = user.ToResponse()
	}
	return responses, nil
}

func (s *userService) GetUserByID(id uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	response := user.ToResponse()
	return &response, nil
}

func (s *userService) GetRoles() ([]model.Role, error) {
	return s.roleRepo.FindAll()
}

func (s *userService) GetPrivileges() ([]model.Privilege, error) {
	return s.privilegeRepo.FindAll()
}
