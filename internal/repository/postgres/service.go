package postgres

import (
	"context"

	"github.com/jwalitptl/clinic-api/internal/model"
)

func (r *serviceRepository) GetByCode(ctx context.Context, code string) (_ *model.Service, err error) {
	defer r.track("service_get_by_code")(&err)

	query := `
		SELECT id, code, name, description, price, active, created_at, updated_at
		FROM services WHERE code = $1
	`
	var svc model.Service
	if err = r.db.GetContext(ctx, &svc, query, code); err != nil {
		return nil, wrap(err, "failed to get service %q", code)
	}
	return &svc, nil
}

func (r *serviceRepository) List(ctx context.Context, activeOnly bool) (_ []*model.Service, err error) {
	defer r.track("service_list")(&err)

	query := `
		SELECT id, code, name, description, price, active, created_at, updated_at
		FROM services
	`
	if activeOnly {
		query += " WHERE active"
	}
	query += " ORDER BY code ASC"

	services := []*model.Service{}
	if err = r.db.SelectContext(ctx, &services, query); err != nil {
		return nil, wrap(err, "failed to list services")
	}
	return services, nil
}
