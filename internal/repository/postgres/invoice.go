package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-api/internal/model"
)

const invoiceColumns = `
	id, patient_id, appointment_id, discount_percent, amount_tendered, status,
	subtotal, discount_amount, total_due, change_due, finalized_at,
	created_by, created_at, updated_at`

func (r *invoiceRepository) Create(ctx context.Context, invoice *model.Invoice) (err error) {
	defer r.track("invoice_create")(&err)

	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	invoice.CreatedAt = time.Now()
	invoice.UpdatedAt = invoice.CreatedAt

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO invoices (
				id, patient_id, appointment_id, discount_percent, amount_tendered, status,
				subtotal, discount_amount, total_due, change_due, created_by, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`,
			invoice.ID,
			invoice.PatientID,
			invoice.AppointmentID,
			invoice.DiscountPercent,
			invoice.AmountTendered,
			invoice.Status,
			invoice.Subtotal,
			invoice.DiscountAmount,
			invoice.TotalDue,
			invoice.Change,
			invoice.CreatedBy,
			invoice.CreatedAt,
			invoice.UpdatedAt,
		)
		if err != nil {
			return wrap(err, "failed to create invoice")
		}
		return insertItems(ctx, tx, invoice)
	})
}

func (r *invoiceRepository) Get(ctx context.Context, id uuid.UUID) (_ *model.Invoice, err error) {
	defer r.track("invoice_get")(&err)

	var invoice model.Invoice
	query := `SELECT` + invoiceColumns + ` FROM invoices WHERE id = $1`
	if err = r.db.GetContext(ctx, &invoice, query, id); err != nil {
		return nil, wrap(err, "failed to get invoice %s", id)
	}

	invoice.Items = []model.LineItem{}
	err = r.db.SelectContext(ctx, &invoice.Items, `
		SELECT service_code, description, unit_price, quantity
		FROM invoice_line_items
		WHERE invoice_id = $1
		ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, wrap(err, "failed to get invoice items")
	}
	return &invoice, nil
}

// List returns invoice headers without their line items.
func (r *invoiceRepository) List(ctx context.Context, filters *model.InvoiceFilters) (_ []*model.Invoice, err error) {
	defer r.track("invoice_list")(&err)

	query := `SELECT` + invoiceColumns + ` FROM invoices WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filters.PatientID != uuid.Nil {
		query += fmt.Sprintf(" AND patient_id = $%d", argCount)
		args = append(args, filters.PatientID)
		argCount++
	}

	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argCount, argCount+1)
	args = append(args, filters.Limit(), filters.Offset())

	invoices := []*model.Invoice{}
	if err = r.db.SelectContext(ctx, &invoices, query, args...); err != nil {
		return nil, wrap(err, "failed to list invoices")
	}
	return invoices, nil
}

func (r *invoiceRepository) SaveItems(ctx context.Context, invoice *model.Invoice) (err error) {
	defer r.track("invoice_save_items")(&err)

	invoice.UpdatedAt = time.Now()

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE invoices SET updated_at = $1 WHERE id = $2 AND status = $3`,
			invoice.UpdatedAt, invoice.ID, model.InvoiceStatusDraft,
		)
		if err != nil {
			return wrap(err, "failed to touch invoice")
		}
		if err := checkAffected(result, "draft invoice"); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM invoice_line_items WHERE invoice_id = $1`, invoice.ID); err != nil {
			return wrap(err, "failed to clear invoice items")
		}
		return insertItems(ctx, tx, invoice)
	})
}

func (r *invoiceRepository) Finalize(ctx context.Context, invoice *model.Invoice) (err error) {
	defer r.track("invoice_finalize")(&err)

	invoice.UpdatedAt = time.Now()
	query := `
		UPDATE invoices
		SET status = $1, amount_tendered = $2, subtotal = $3, discount_amount = $4,
			total_due = $5, change_due = $6, finalized_at = $7, updated_at = $8
		WHERE id = $9 AND status = $10
	`
	result, err := r.db.ExecContext(ctx, query,
		invoice.Status,
		invoice.AmountTendered,
		invoice.Subtotal,
		invoice.DiscountAmount,
		invoice.TotalDue,
		invoice.Change,
		invoice.FinalizedAt,
		invoice.UpdatedAt,
		invoice.ID,
		model.InvoiceStatusDraft,
	)
	if err != nil {
		return wrap(err, "failed to finalize invoice")
	}
	return checkAffected(result, "draft invoice")
}

func insertItems(ctx context.Context, tx *sqlx.Tx, invoice *model.Invoice) error {
	for i, item := range invoice.Items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO invoice_line_items (
				invoice_id, position, service_code, description, unit_price, quantity
			) VALUES ($1, $2, $3, $4, $5, $6)
		`, invoice.ID, i, item.ServiceCode, item.Description, item.UnitPrice, item.Quantity)
		if err != nil {
			return wrap(err, "failed to insert invoice item %d", i)
		}
	}
	return nil
}
