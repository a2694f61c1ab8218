package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-api/internal/model"
)

const appointmentColumns = `
	id, patient_id, doctor_id, scheduled_at, reason, status,
	notes, cancel_reason, created_by, created_at, updated_at`

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) (err error) {
	defer r.track("appointment_create")(&err)

	query := `
		INSERT INTO appointments (
			id, patient_id, doctor_id, scheduled_at, reason, status,
			notes, cancel_reason, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = appointment.CreatedAt

	_, err = r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.PatientID,
		appointment.DoctorID,
		appointment.ScheduledAt,
		appointment.Reason,
		appointment.Status,
		appointment.Notes,
		appointment.CancelReason,
		appointment.CreatedBy,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	return wrap(err, "failed to create appointment")
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (_ *model.Appointment, err error) {
	defer r.track("appointment_get")(&err)

	query := `SELECT` + appointmentColumns + ` FROM appointments WHERE id = $1`
	var appointment model.Appointment
	if err = r.db.GetContext(ctx, &appointment, query, id); err != nil {
		return nil, wrap(err, "failed to get appointment %s", id)
	}
	return &appointment, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) (err error) {
	defer r.track("appointment_update")(&err)

	query := `
		UPDATE appointments
		SET scheduled_at = $1, reason = $2, notes = $3, updated_at = $4
		WHERE id = $5
	`
	appointment.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		appointment.ScheduledAt,
		appointment.Reason,
		appointment.Notes,
		appointment.UpdatedAt,
		appointment.ID,
	)
	if err != nil {
		return wrap(err, "failed to update appointment")
	}
	return checkAffected(result, "appointment")
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, appointment *model.Appointment, change *model.AppointmentStatusChange) (err error) {
	defer r.track("appointment_update_status")(&err)

	appointment.UpdatedAt = time.Now()
	if change.ID == uuid.Nil {
		change.ID = uuid.New()
	}
	change.AppointmentID = appointment.ID
	change.ChangedAt = appointment.UpdatedAt

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		// Guard on the previous status so a concurrent change is not overwritten.
		result, err := tx.ExecContext(ctx, `
			UPDATE appointments
			SET status = $1, cancel_reason = $2, updated_at = $3
			WHERE id = $4 AND status = $5
		`,
			appointment.Status,
			appointment.CancelReason,
			appointment.UpdatedAt,
			appointment.ID,
			change.FromStatus,
		)
		if err != nil {
			return wrap(err, "failed to update appointment status")
		}
		if err := checkAffected(result, "appointment"); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO appointment_status_history (
				id, appointment_id, from_status, to_status, reason, changed_by, changed_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
		`,
			change.ID,
			change.AppointmentID,
			change.FromStatus,
			change.ToStatus,
			change.Reason,
			change.ChangedBy,
			change.ChangedAt,
		)
		return wrap(err, "failed to record status change")
	})
}

func (r *appointmentRepository) History(ctx context.Context, appointmentID uuid.UUID) (_ []*model.AppointmentStatusChange, err error) {
	defer r.track("appointment_history")(&err)

	query := `
		SELECT id, appointment_id, from_status, to_status, reason, changed_by, changed_at
		FROM appointment_status_history
		WHERE appointment_id = $1
		ORDER BY changed_at ASC
	`
	var history []*model.AppointmentStatusChange
	if err = r.db.SelectContext(ctx, &history, query, appointmentID); err != nil {
		return nil, wrap(err, "failed to list status history")
	}
	return history, nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) (_ []*model.Appointment, err error) {
	defer r.track("appointment_list")(&err)

	query := `SELECT` + appointmentColumns + ` FROM appointments WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filters.PatientID != uuid.Nil {
		query += fmt.Sprintf(" AND patient_id = $%d", argCount)
		args = append(args, filters.PatientID)
		argCount++
	}

	if filters.DoctorID != uuid.Nil {
		query += fmt.Sprintf(" AND doctor_id = $%d", argCount)
		args = append(args, filters.DoctorID)
		argCount++
	}

	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}

	if !filters.From.IsZero() {
		query += fmt.Sprintf(" AND scheduled_at >= $%d", argCount)
		args = append(args, filters.From)
		argCount++
	}

	if !filters.To.IsZero() {
		query += fmt.Sprintf(" AND scheduled_at < $%d", argCount)
		args = append(args, filters.To)
		argCount++
	}

	query += fmt.Sprintf(" ORDER BY scheduled_at ASC LIMIT $%d OFFSET $%d", argCount, argCount+1)
	args = append(args, filters.Limit(), filters.Offset())

	appointments := []*model.Appointment{}
	if err = r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, wrap(err, "failed to list appointments")
	}
	return appointments, nil
}

func (r *appointmentRepository) HasDoctorConflict(ctx context.Context, doctorID uuid.UUID, at time.Time, excludeID *uuid.UUID) (_ bool, err error) {
	defer r.track("appointment_conflict")(&err)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1
			AND scheduled_at = $2
			AND status NOT IN ('cancelled', 'completed')
	`
	args := []interface{}{doctorID, at}

	if excludeID != nil {
		query += " AND id != $3"
		args = append(args, *excludeID)
	}

	query += ")"

	var hasConflict bool
	if err = r.db.GetContext(ctx, &hasConflict, query, args...); err != nil {
		return false, wrap(err, "failed to check conflicts")
	}
	return hasConflict, nil
}
