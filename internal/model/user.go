package model

import (
	"time"
)

type UserRole string

const (
	Student UserRole = "student"
	Teacher UserRole = "teacher"
	Admin   UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name           string    `gorm:"size:100;not null" json:"name"`
	Email          string    `gorm:"size:100;unique;not null" json:"email"`
	Password       string    `gorm:"size:100;not null" json:"-"`
	Role           UserRole  `gorm:"size:20;default:'student'" json:"role"`
	NativeLanguage string    `gorm:"size:10;default:'zh'" json:"nativeLanguage"`
	TargetLanguage string    `gorm:"size:10;default:'en'" json:"targetLanguage"`
	Disabled       bool      `gorm:"default:false" json:"disabled"`
	LastLogin      time.Time `json:"lastLogin"`
	LastSeen       time.Time `json:"lastSeen"`
}

func (User) TableName() string {
	return "users"
}
