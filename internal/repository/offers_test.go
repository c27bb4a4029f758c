package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shield-staffing/shield/backend/internal/config"
	"github.com/shield-staffing/shield/backend/internal/domain"
)

func newTestRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{}
	cfg.Database.QueryTimeout = 5

	return NewRepository(cfg, db), mock
}

func TestClaimShiftWinsWhenStillOpen(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE shifts`)).
		WithArgs(int64(7), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.ClaimShift(context.Background(), 42, 7)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimShiftLosesWhenAlreadyAssigned(t *testing.T) {
	repo, mock := newTestRepository(t)

	// the conditional WHERE clause matched nothing: someone else won
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE shifts`)).
		WithArgs(int64(7), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ClaimShift(context.Background(), 42, 7)
	assert.ErrorIs(t, err, domain.ErrShiftClaimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkOfferDeclinedConflictsOnRespondedOffer(t *testing.T) {
	repo, mock := newTestRepository(t)
	respondedAt := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE shift_offers`)).
		WithArgs(domain.OfferStatusDeclined, respondedAt, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkOfferDeclined(context.Background(), 5, respondedAt)
	assert.ErrorIs(t, err, domain.ErrAlreadyResolved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkOfferExpiredIgnoresTerminalOffers(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE shift_offers`)).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkOfferExpired(context.Background(), 5)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpirePendingOffersReportsCascadeSize(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE shift_offers`)).
		WithArgs(int64(42), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.ExpirePendingOffers(context.Background(), 42, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOfferByIDNotFound(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT shift_id, personnel_id, status, created_at, expires_at, responded_at, version`)).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"shift_id", "personnel_id", "status", "created_at", "expires_at", "responded_at", "version"}))

	_, err := repo.GetOfferByID(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrOfferNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOfferByIDScansNullableRespondedAt(t *testing.T) {
	repo, mock := newTestRepository(t)
	created := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	expires := created.Add(2 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT shift_id, personnel_id, status, created_at, expires_at, responded_at, version`)).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"shift_id", "personnel_id", "status", "created_at", "expires_at", "responded_at", "version"}).
			AddRow(int64(42), int64(7), "pending", created, expires, nil, int32(1)))

	offer, err := repo.GetOfferByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(42), offer.ShiftID)
	assert.Equal(t, domain.OfferStatusPending, offer.Status)
	assert.Nil(t, offer.RespondedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
