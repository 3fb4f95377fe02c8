package user

import (
	"time"

	"foodshare/internal/domain"
)

type UserModel struct {
	ID           string `gorm:"primaryKey;type:varchar(32)"`
	Email        string `gorm:"uniqueIndex;size:255;not null"`
	Name         string `gorm:"size:64;not null"`
	Phone        string `gorm:"size:32"`
	PasswordHash string `gorm:"size:100;not null"`
	Role         string `gorm:"size:16;not null;default:recipient"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string { return "users" }

func (m UserModel) ToDomain() domain.User {
	return domain.User{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Phone:     m.Phone,
		Role:      domain.Role(m.Role),
		CreatedAt: m.CreatedAt,
	}
}

func FromCredentials(c *domain.Credentials) UserModel {
	return UserModel{
		ID:           c.User.ID,
		Email:        c.User.Email,
		Name:         c.User.Name,
		Phone:        c.User.Phone,
		PasswordHash: c.PasswordHash,
		Role:         string(c.User.Role),
		CreatedAt:    c.User.CreatedAt,
	}
}
