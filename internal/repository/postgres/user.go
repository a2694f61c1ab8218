package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
)

const userColumns = `
	id, email, name, password_hash, role, status, patient_id,
	login_attempts, last_login_attempt, last_login_at, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *model.User) (err error) {
	defer r.track("user_create")(&err)

	query := `
		INSERT INTO users (
			id, email, name, password_hash, role, status, patient_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.Email = strings.ToLower(user.Email)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	_, err = r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.Role,
		user.Status,
		user.PatientID,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return wrap(err, "failed to create user")
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (_ *model.User, err error) {
	defer r.track("user_get")(&err)

	var user model.User
	if err = r.db.GetContext(ctx, &user, `SELECT`+userColumns+` FROM users WHERE id = $1`, id); err != nil {
		return nil, wrap(err, "failed to get user %s", id)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (_ *model.User, err error) {
	defer r.track("user_get_by_email")(&err)

	var user model.User
	query := `SELECT` + userColumns + ` FROM users WHERE email = $1`
	if err = r.db.GetContext(ctx, &user, query, strings.ToLower(email)); err != nil {
		return nil, wrap(err, "failed to get user by email")
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) (err error) {
	defer r.track("user_update")(&err)

	query := `
		UPDATE users
		SET name = $1, role = $2, status = $3, login_attempts = $4,
			last_login_attempt = $5, last_login_at = $6, updated_at = $7
		WHERE id = $8
	`
	user.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		user.Name,
		user.Role,
		user.Status,
		user.LoginAttempts,
		user.LastLoginAttempt,
		user.LastLoginAt,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return wrap(err, "failed to update user")
	}
	return checkAffected(result, "user")
}
