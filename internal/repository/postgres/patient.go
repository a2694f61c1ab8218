package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
)

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) (err error) {
	defer r.track("patient_create")(&err)

	query := `
		INSERT INTO patients (id, name, email, phone, date_of_birth, insurance_plan_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if patient.ID == uuid.Nil {
		patient.ID = uuid.New()
	}
	patient.CreatedAt = time.Now()
	patient.UpdatedAt = patient.CreatedAt

	_, err = r.db.ExecContext(ctx, query,
		patient.ID,
		patient.Name,
		patient.Email,
		patient.Phone,
		patient.DateOfBirth,
		patient.InsurancePlanID,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	return wrap(err, "failed to create patient")
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (_ *model.Patient, err error) {
	defer r.track("patient_get")(&err)

	query := `
		SELECT id, name, email, phone, date_of_birth, insurance_plan_id, created_at, updated_at
		FROM patients WHERE id = $1
	`
	var patient model.Patient
	if err = r.db.GetContext(ctx, &patient, query, id); err != nil {
		return nil, wrap(err, "failed to get patient %s", id)
	}
	return &patient, nil
}

func (r *patientRepository) List(ctx context.Context, page model.Pagination) (_ []*model.Patient, err error) {
	defer r.track("patient_list")(&err)

	query := `
		SELECT id, name, email, phone, date_of_birth, insurance_plan_id, created_at, updated_at
		FROM patients
		ORDER BY name ASC
		LIMIT $1 OFFSET $2
	`
	patients := []*model.Patient{}
	if err = r.db.SelectContext(ctx, &patients, query, page.Limit(), page.Offset()); err != nil {
		return nil, wrap(err, "failed to list patients")
	}
	return patients, nil
}

// GetInsurancePlan returns the patient's plan, or ErrNotFound when the
// patient has none.
func (r *patientRepository) GetInsurancePlan(ctx context.Context, patientID uuid.UUID) (_ *model.InsurancePlan, err error) {
	defer r.track("patient_insurance_plan")(&err)

	query := `
		SELECT ip.id, ip.name, ip.discount_percent
		FROM patients p
		JOIN insurance_plans ip ON ip.id = p.insurance_plan_id
		WHERE p.id = $1
	`
	var plan model.InsurancePlan
	if err = r.db.GetContext(ctx, &plan, query, patientID); err != nil {
		return nil, wrap(err, "failed to get insurance plan for patient %s", patientID)
	}
	return &plan, nil
}
