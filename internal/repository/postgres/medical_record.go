package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
)

func (r *medicalRecordRepository) Create(ctx context.Context, record *model.MedicalRecord) (err error) {
	defer r.track("medical_record_create")(&err)

	query := `
		INSERT INTO medical_records (
			id, patient_id, appointment_id, diagnosis, treatment, notes,
			created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt

	_, err = r.db.ExecContext(ctx, query,
		record.ID,
		record.PatientID,
		record.AppointmentID,
		record.Diagnosis,
		record.Treatment,
		record.Notes,
		record.CreatedBy,
		record.CreatedAt,
		record.UpdatedAt,
	)
	return wrap(err, "failed to create medical record")
}

func (r *medicalRecordRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) (_ []*model.MedicalRecord, err error) {
	defer r.track("medical_record_list")(&err)

	query := `
		SELECT id, patient_id, appointment_id, diagnosis, treatment, notes,
			created_by, created_at, updated_at
		FROM medical_records
		WHERE patient_id = $1
		ORDER BY created_at DESC
	`
	records := []*model.MedicalRecord{}
	if err = r.db.SelectContext(ctx, &records, query, patientID); err != nil {
		return nil, wrap(err, "failed to list medical records")
	}
	return records, nil
}
