package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleDoctor    Role = "doctor"
	RoleSecretary Role = "secretary"
	RolePatient   Role = "patient"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RoleSecretary, RolePatient:
		return true
	}
	return false
}

type UserStatus string

const (
	UserStatusActive UserStatus = "active"
	UserStatusLocked UserStatus = "locked"
)

type User struct {
	Base
	Email            string     `db:"email" json:"email"`
	Name             string     `db:"name" json:"name"`
	PasswordHash     string     `db:"password_hash" json:"-"`
	Role             Role       `db:"role" json:"role"`
	Status           UserStatus `db:"status" json:"status"`
	PatientID        *uuid.UUID `db:"patient_id" json:"patient_id,omitempty"`
	LoginAttempts    int        `db:"login_attempts" json:"-"`
	LastLoginAttempt *time.Time `db:"last_login_attempt" json:"-"`
	LastLoginAt      *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
}

type CreateUserRequest struct {
	Email     string     `json:"email" binding:"required,email"`
	Name      string     `json:"name" binding:"required"`
	Password  string     `json:"password" binding:"required,min=8"`
	Role      Role       `json:"role" binding:"required,oneof=admin doctor secretary patient"`
	PatientID *uuid.UUID `json:"patient_id"`
}
