package model

import "github.com/shopspring/decimal"

// Service is a billable entry of the clinic's service catalog.
type Service struct {
	Base
	Code        string          `db:"code" json:"code"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Active      bool            `db:"active" json:"active"`
}
