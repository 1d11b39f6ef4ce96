package db

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User 定义了内部用户目录条目，角色区分投稿人与审核人
type User struct {
	gorm.Model
	Email     string `gorm:"size:255;uniqueIndex;not null"`
	Name      string `gorm:"size:255;not null"`
	Role      string `gorm:"size:20;not null;default:user"`
	Password  string `gorm:"not null"`
	LastLogin *time.Time
}

const (
	// RoleUser 表示普通投稿人。
	RoleUser = "user"
	// RoleApprover 表示审核发布人。
	RoleApprover = "approver"
)

// EnsureUser 存在性检查：若邮箱不存在对应账号则创建一个 bcrypt 哈希的用户。
func EnsureUser(email, name, role, password string) error {
	trimmedEmail := strings.ToLower(strings.TrimSpace(email))
	trimmedPassword := strings.TrimSpace(password)
	if trimmedEmail == "" || trimmedPassword == "" {
		return nil
	}

	if DB == nil {
		return errors.New("database not initialized")
	}

	if role != RoleApprover {
		role = RoleUser
	}

	var existing User
	if err := DB.Where("email = ?", trimmedEmail).First(&existing).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(trimmedPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		return DB.Create(&User{
			Email:    trimmedEmail,
			Name:     strings.TrimSpace(name),
			Role:     role,
			Password: string(hashed),
		}).Error
	}

	return nil
}
