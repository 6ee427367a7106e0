package service

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"retail-backoffice/internal/model"
	"retail-backoffice/internal/repository"
	"retail-backoffice/internal/ws"
	"retail-backoffice/pkg/jwt"
	"retail-backoffice/pkg/logger"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrSessionTimeout     = errors.New("session expired due to inactivity")
	ErrSessionReplaced    = errors.New("session expired (logged in on another device)")
)

// IdleTimeout ends a session that has not sent a heartbeat for this long.
const IdleTimeout = 5 * time.Minute

type AuthService interface {
	Login(email, password string) (*LoginResponse, error)
	ResetPassword(email, oldPassword, newPassword string) error
	ValidateToken(tokenString string) (*TokenValidationResponse, error)
	Heartbeat(userID uuid.UUID) error
}

type LoginResponse struct {
	Token      string             `json:"token"`
	User       model.UserResponse `json:"user"`
	Role       *model.Role        `json:"role"`
	Privileges []string           `json:"privileges"`
}

type TokenValidationResponse struct {
	User       model.UserResponse `json:"user"`
	Role       *model.Role        `json:"role"`
	Privileges []string           `json:"privileges"`
}

// Actor builds the request identity from a validated session.
func (r *TokenValidationResponse) Actor() Actor {
	return Actor{
		ID:         r.User.ID,
		Name:       r.User.FullName,
		Email:      r.User.Email,
		Role:       r.User.RoleCode,
		Privileges: r.Privileges,
	}
}

type authService struct {
	userRepo repository.UserRepository
	tokens   *jwt.Issuer
	wsHub    *ws.Hub
	log      *logrus.Logger
	now      Clock
}

func NewAuthService(userRepo repository.UserRepository, tokens *jwt.Issuer, hub *ws.Hub, log *logrus.Logger) AuthService {
	if log == nil {
		log = logger.Get()
	}
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		wsHub:    hub,
		log:      log,
		now:      time.Now,
	}
}

func (s *authService) Login(email, password string) (*LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	// single session: a new version invalidates every earlier token
	version := uuid.New().String()
	if err := s.userRepo.UpdateSession(user.ID, version); err != nil {
		logger.LogError(s.log, "auth_service", "Login", "update session", email, err)
		return nil, errors.New("failed to update session")
	}

	privileges := user.PrivilegeCodes()
	token, err := s.tokens.Generate(user.ID, user.Email, user.FullName, user.RoleCode(), privileges, version)
	if err != nil {
		logger.LogError(s.log, "auth_service", "Login", "generate token", email, err)
		return nil, errors.New("failed to generate token")
	}

	now := s.now()
	user.LastSeenAt = &now
	return &LoginResponse{
		Token:      token,
		User:       user.ToResponse(),
		Role:       user.Role,
		Privileges: privileges,
	}, nil
}

func (s *authService) ResetPassword(email, oldPassword, newPassword string) error {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return ErrUserNotFound
	}
	if !user.CheckPassword(oldPassword) {
		return ErrWrongPassword
	}
	if err := user.SetPassword(newPassword); err != nil {
		return errors.New("failed to hash new password")
	}
	if err := s.userRepo.UpdatePassword(user.ID, user.Password); err != nil {
		return err
	}
	// log out everywhere
	return s.userRepo.UpdateSession(user.ID, uuid.New().String())
}

func (s *authService) ValidateToken(tokenString string) (*TokenValidationResponse, error) {
	claims, err := s.tokens.Validate(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionReplaced
	}
	// a missing last_seen_at means the session was never started by Login
	if user.LastSeenAt == nil || s.now().Sub(*user.LastSeenAt) > IdleTimeout {
		return nil, ErrSessionTimeout
	}

	return &TokenValidationResponse{
		User:       user.ToResponse(),
		Role:       user.Role,
		Privileges: user.PrivilegeCodes(),
	}, nil
}

func (s *authService) Heartbeat(userID uuid.UUID) error {
	if err := s.userRepo.UpdateLastSeen(userID); err != nil {
		return err
	}
	if s.wsHub == nil {
		return nil
	}

	msg, err := json.Marshal(map[string]interface{}{
		"type":         "user.status_updated",
		"user_id":      userID.String(),
		"status":       "online",
		"last_seen_at": s.now(),
	})
	if err != nil {
		return err
	}
	s.wsHub.Send(msg)
	return nil
}
