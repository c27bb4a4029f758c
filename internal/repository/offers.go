package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shield-staffing/shield/backend/internal/domain"
)

func (r *Repository) CreateOffer(ctx context.Context, offer *domain.ShiftOffer) error {
	query := `
		INSERT INTO shift_offers (shift_id, personnel_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, status, created_at, version
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	args := []any{offer.ShiftID, offer.PersonnelID, offer.ExpiresAt}
	dst := []any{&offer.ID, &offer.Status, &offer.CreatedAt, &offer.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetOfferByID(ctx context.Context, id int64) (*domain.ShiftOffer, error) {
	query := `
		SELECT shift_id, personnel_id, status, created_at, expires_at, responded_at, version
		FROM shift_offers WHERE id = $1
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	offer := &domain.ShiftOffer{
		ID: id,
	}

	var respondedAt sql.NullTime
	dst := []any{&offer.ShiftID, &offer.PersonnelID, &offer.Status, &offer.CreatedAt, &offer.ExpiresAt, &respondedAt, &offer.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOfferNotFound
		}
		return nil, err
	}

	if respondedAt.Valid {
		offer.RespondedAt = &respondedAt.Time
	}

	return offer, nil
}

func (r *Repository) GetOffersByPersonnel(ctx context.Context, personnelID int64) ([]*domain.ShiftOffer, error) {
	query := `
		SELECT id, shift_id, personnel_id, status, created_at, expires_at, responded_at, version
		FROM shift_offers
		WHERE personnel_id = $1
		ORDER BY created_at DESC
	`

	return r.queryOffers(ctx, query, personnelID)
}

func (r *Repository) GetOffersByShift(ctx context.Context, shiftID int64) ([]*domain.ShiftOffer, error) {
	query := `
		SELECT id, shift_id, personnel_id, status, created_at, expires_at, responded_at, version
		FROM shift_offers
		WHERE shift_id = $1
		ORDER BY created_at
	`

	return r.queryOffers(ctx, query, shiftID)
}

func (r *Repository) queryOffers(ctx context.Context, query string, args ...any) ([]*domain.ShiftOffer, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	offers := make([]*domain.ShiftOffer, 0)
	for rows.Next() {
		offer := &domain.ShiftOffer{}
		var respondedAt sql.NullTime
		dst := []any{&offer.ID, &offer.ShiftID, &offer.PersonnelID, &offer.Status, &offer.CreatedAt, &offer.ExpiresAt, &respondedAt, &offer.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		if respondedAt.Valid {
			offer.RespondedAt = &respondedAt.Time
		}
		offers = append(offers, offer)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return offers, nil
}

func (r *Repository) MarkOfferAccepted(ctx context.Context, id int64, respondedAt time.Time) error {
	return r.markOfferResponded(ctx, id, domain.OfferStatusAccepted, respondedAt)
}

func (r *Repository) MarkOfferDeclined(ctx context.Context, id int64, respondedAt time.Time) error {
	return r.markOfferResponded(ctx, id, domain.OfferStatusDeclined, respondedAt)
}

// markOfferResponded records a candidate's answer. The status guard makes a
// responded offer immutable: a second write against the same row matches
// nothing and reports the conflict instead of touching responded_at again.
func (r *Repository) markOfferResponded(ctx context.Context, id int64, status domain.OfferStatus, respondedAt time.Time) error {
	query := `
		UPDATE shift_offers
		SET status = $1, responded_at = $2, version = version + 1
		WHERE id = $3 AND status = 'pending'
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, query, status, respondedAt, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrAlreadyResolved
	}

	return nil
}

// MarkOfferExpired closes out a stale or losing offer. Expiring an offer that
// already reached a terminal state is a no-op, so late duplicate requests and
// the cascade can overlap without conflict.
func (r *Repository) MarkOfferExpired(ctx context.Context, id int64) error {
	query := `
		UPDATE shift_offers
		SET status = 'expired', version = version + 1
		WHERE id = $1 AND status = 'pending'
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return nil
}

// ExpirePendingOffers is the cascade after a successful claim: every other
// pending offer for the shift dies in one fan-out write.
func (r *Repository) ExpirePendingOffers(ctx context.Context, shiftID int64, exceptOfferID int64) (int64, error) {
	query := `
		UPDATE shift_offers
		SET status = 'expired', version = version + 1
		WHERE shift_id = $1 AND id <> $2 AND status = 'pending'
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, query, shiftID, exceptOfferID)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

func (r *Repository) HasPendingOffer(ctx context.Context, shiftID int64, personnelID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM shift_offers
			WHERE shift_id = $1 AND personnel_id = $2 AND status = 'pending'
		)
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	exists := false
	if err := r.dbpool.QueryRowContext(ctx, query, shiftID, personnelID).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}
