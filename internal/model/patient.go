package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InsurancePlan carries the discount applied to a patient's invoices.
type InsurancePlan struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	Name            string          `db:"name" json:"name"`
	DiscountPercent decimal.Decimal `db:"discount_percent" json:"discount_percent"`
}

type Patient struct {
	Base
	Name            string     `db:"name" json:"name"`
	Email           string     `db:"email" json:"email"`
	Phone           string     `db:"phone" json:"phone"`
	DateOfBirth     *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	InsurancePlanID *uuid.UUID `db:"insurance_plan_id" json:"insurance_plan_id,omitempty"`
}

type CreatePatientRequest struct {
	Name            string     `json:"name" binding:"required"`
	Email           string     `json:"email" binding:"omitempty,email"`
	Phone           string     `json:"phone"`
	DateOfBirth     *time.Time `json:"date_of_birth"`
	InsurancePlanID *uuid.UUID `json:"insurance_plan_id"`
}
