package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"olza-admin/internal/logger"
	"olza-admin/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Service authenticates admin users stored in the database.
type Service struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewService(db *gorm.DB, logger *logger.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger,
	}
}

// Authenticate returns the user when username and password match.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.AdminUser, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var user models.AdminUser
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Warn("Failed login attempt for unknown user: %s", username)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if !CheckPassword(user.PasswordHash, password) {
		s.logger.Warn("Failed login attempt for user: %s", username)
		return nil, ErrInvalidCredentials
	}

	s.logger.Info("User logged in: %s", username)
	return &user, nil
}

// User loads an admin by id.
func (s *Service) User(ctx context.Context, id string) (*models.AdminUser, error) {
	var user models.AdminUser
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser stores a new admin with a hashed password.
func (s *Service) CreateUser(ctx context.Context, username, password string, role models.Role) (*models.AdminUser, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.AdminUser{
		Username:     strings.TrimSpace(username),
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", username, err)
	}
	return user, nil
}

// EnsureAdmin creates the bootstrap administrator when the user table is empty.
// Nothing happens when users exist or no password is configured.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.AdminUser{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}
	if password == "" {
		s.logger.Warn("No admin users exist and ADMIN_PASSWORD is empty; nobody can log in")
		return nil
	}

	if _, err := s.CreateUser(ctx, username, password, models.RoleAdministrator); err != nil {
		return err
	}
	s.logger.Info("Created bootstrap administrator %q", username)
	return nil
}
