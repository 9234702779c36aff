package model

import (
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"size:50;uniqueIndex"`
	Email        string `gorm:"size:100;uniqueIndex"`
	PasswordHash string `gorm:"size:255"`
	Avatar       string `gorm:"size:255"`
	// RefreshToken mirrors the single currently valid refresh token.
	// Overwriting it on login invalidates any previously issued one.
	RefreshToken string `gorm:"size:512"`
	Confirmed    bool   `gorm:"default:false"`
	Role         Role   `gorm:"type:varchar(16);default:'user'"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile is the projection of a user that handlers see and the session
// cache stores. It never carries the password hash or the refresh token.
type Profile struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
	Role     Role   `json:"role"`
}

func (u User) Profile() Profile {
	return Profile{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Avatar:   u.Avatar,
		Role:     u.Role,
	}
}

type Contact struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"size:50;not null;uniqueIndex:uniq_owner_contact"`
	Lastname  string    `gorm:"size:50;not null;uniqueIndex:uniq_owner_contact"`
	Email     string    `gorm:"size:100;not null"`
	Phone     string    `gorm:"size:20;not null"`
	Birthdate time.Time `gorm:"type:date;not null"`
	Notes     string    `gorm:"size:250"`
	UserID    uint      `gorm:"index;uniqueIndex:uniq_owner_contact"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}
