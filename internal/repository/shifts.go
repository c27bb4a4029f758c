package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shield-staffing/shield/backend/internal/domain"
)

func (r *Repository) CreateShift(ctx context.Context, shift *domain.Shift) error {
	query := `
		INSERT INTO shifts (venue_name, location, starts_at, ends_at, hourly_rate_cents, manager_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, status, created_at, version
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	args := []any{shift.VenueName, shift.Location, shift.StartsAt, shift.EndsAt, shift.HourlyRateCents, shift.ManagerID}
	dst := []any{&shift.ID, &shift.Status, &shift.CreatedAt, &shift.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetShiftByID(ctx context.Context, id int64) (*domain.Shift, error) {
	query := `
		SELECT venue_name, location, starts_at, ends_at, hourly_rate_cents, manager_id, assigned_personnel_id, status, created_at, version
		FROM shifts WHERE id = $1
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	shift := &domain.Shift{
		ID: id,
	}

	var assigned sql.NullInt64
	dst := []any{&shift.VenueName, &shift.Location, &shift.StartsAt, &shift.EndsAt, &shift.HourlyRateCents, &shift.ManagerID, &assigned, &shift.Status, &shift.CreatedAt, &shift.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrShiftNotFound
		}
		return nil, err
	}

	if assigned.Valid {
		shift.AssignedPersonnelID = &assigned.Int64
	}

	return shift, nil
}

func (r *Repository) GetOpenShifts(ctx context.Context) ([]*domain.Shift, error) {
	query := `
		SELECT id, venue_name, location, starts_at, ends_at, hourly_rate_cents, manager_id, assigned_personnel_id, status, created_at, version
		FROM shifts
		WHERE status = 'open' AND starts_at > NOW()
		ORDER BY starts_at
	`

	return r.queryShifts(ctx, query)
}

func (r *Repository) GetShiftsByManager(ctx context.Context, managerID int64) ([]*domain.Shift, error) {
	query := `
		SELECT id, venue_name, location, starts_at, ends_at, hourly_rate_cents, manager_id, assigned_personnel_id, status, created_at, version
		FROM shifts
		WHERE manager_id = $1
		ORDER BY starts_at
	`

	return r.queryShifts(ctx, query, managerID)
}

func (r *Repository) queryShifts(ctx context.Context, query string, args ...any) ([]*domain.Shift, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shifts := make([]*domain.Shift, 0)
	for rows.Next() {
		shift := &domain.Shift{}
		var assigned sql.NullInt64
		dst := []any{&shift.ID, &shift.VenueName, &shift.Location, &shift.StartsAt, &shift.EndsAt, &shift.HourlyRateCents, &shift.ManagerID, &assigned, &shift.Status, &shift.CreatedAt, &shift.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		if assigned.Valid {
			shift.AssignedPersonnelID = &assigned.Int64
		}
		shifts = append(shifts, shift)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return shifts, nil
}

// UpdateShift rewrites the listing fields of a shift that is still open. The
// status guard keeps managers from editing a shift someone already claimed.
func (r *Repository) UpdateShift(ctx context.Context, shift *domain.Shift) error {
	query := `
		UPDATE shifts
		SET
			venue_name = $1,
			location = $2,
			starts_at = $3,
			ends_at = $4,
			hourly_rate_cents = $5,
			version = version + 1
		WHERE id = $6 AND version = $7 AND status = 'open'
		RETURNING version
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	args := []any{shift.VenueName, shift.Location, shift.StartsAt, shift.EndsAt, shift.HourlyRateCents, shift.ID, shift.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&shift.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrShiftNotOpen
		}
		return err
	}

	return nil
}

func (r *Repository) CancelShift(ctx context.Context, id int64) error {
	query := `
		UPDATE shifts
		SET status = 'cancelled', version = version + 1
		WHERE id = $1 AND status = 'open'
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrShiftNotOpen
	}

	return nil
}

// ClaimShift is the conditional claim at the heart of offer resolution: a
// single UPDATE that assigns the shift only if it is still open and
// unassigned. When several accepts race on the same shift, the database
// serializes the row writes and exactly one of them matches the WHERE clause;
// everyone else gets zero rows and loses.
func (r *Repository) ClaimShift(ctx context.Context, shiftID int64, personnelID int64) error {
	query := `
		UPDATE shifts
		SET assigned_personnel_id = $1, status = 'assigned', version = version + 1
		WHERE id = $2 AND status = 'open' AND assigned_personnel_id IS NULL
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, query, personnelID, shiftID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrShiftClaimed
	}

	return nil
}
