package service

import (
	"errors"
	"strings"
	"time"

	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// UserService 提供用户目录的查询与登录校验能力。
type UserService struct {
	db *gorm.DB
}

// NewUserService creates a UserService instance.
func NewUserService(gdb *gorm.DB) *UserService {
	return &UserService{db: gdb}
}

// Get fetches a directory entry by email.
func (s *UserService) Get(email string) (*db.User, error) {
	var user db.User
	err := s.db.Where("email = ?", normalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Authenticate verifies the password and bumps last_login on success.
func (s *UserService) Authenticate(email, password string) (*db.User, error) {
	user, err := s.Get(email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.db.Model(user).Update("last_login", now).Error; err != nil {
		return nil, err
	}
	user.LastLogin = &now

	return user, nil
}

// Create 新建一个目录条目，密码以 bcrypt 哈希存储。
func (s *UserService) Create(email, name, role, password string) (*db.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	if role != db.RoleApprover {
		role = db.RoleUser
	}

	user := db.User{
		Email:    normalizeEmail(email),
		Name:     strings.TrimSpace(name),
		Role:     role,
		Password: string(hashed),
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
