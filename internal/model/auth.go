package model

import "github.com/google/uuid"

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	Role        Role   `json:"role"`
}

// Principal is the authenticated caller passed explicitly into services.
type Principal struct {
	UserID uuid.UUID
	Email  string
	Role   Role
	// PatientID links a patient login to its patient record
	PatientID *uuid.UUID
}
