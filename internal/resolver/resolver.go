package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shield-staffing/shield/backend/internal/domain"
)

// Store is the slice of persistence the resolver needs. ClaimShift must be a
// single indivisible conditional write: it assigns the shift to the candidate
// only if the shift is still open and unassigned, and reports
// domain.ErrShiftClaimed otherwise. Every other method is an unconditional
// row transition.
type Store interface {
	GetOfferByID(ctx context.Context, id int64) (*domain.ShiftOffer, error)
	GetShiftByID(ctx context.Context, id int64) (*domain.Shift, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	MarkOfferAccepted(ctx context.Context, id int64, respondedAt time.Time) error
	MarkOfferDeclined(ctx context.Context, id int64, respondedAt time.Time) error
	MarkOfferExpired(ctx context.Context, id int64) error
	ClaimShift(ctx context.Context, shiftID int64, personnelID int64) error
	ExpirePendingOffers(ctx context.Context, shiftID int64, exceptOfferID int64) (int64, error)
}

// Notifier delivers an outcome notification to the shift's manager. Delivery
// is best effort: the resolver logs failures and never rolls back or retries.
type Notifier interface {
	Notify(ctx context.Context, msg *domain.NotificationMessage) error
}

type Decision string

const (
	DecisionAccepted Decision = "accepted"
	DecisionDeclined Decision = "declined"
)

type Outcome struct {
	Outcome       string `json:"outcome"`
	ShiftID       int64  `json:"shiftID,omitempty"`
	PersonnelName string `json:"personnelName,omitempty"`
}

const (
	OutcomeDeclined = "declined"
	OutcomeAssigned = "assigned"
)

// Resolver arbitrates concurrent accept/decline responses to broadcast shift
// offers so that exactly one accept per shift wins.
type Resolver struct {
	store    Store
	notifier Notifier
	now      func() time.Time
}

func New(store Store, notifier Notifier) *Resolver {
	return &Resolver{
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

// ResolveResponse processes one candidate's response to one offer. All the
// returned domain errors are terminal, non-retryable outcomes: a candidate
// who lost the race does not get this shift back, they wait for the next
// offer.
func (rs *Resolver) ResolveResponse(ctx context.Context, offerID int64, personnelID int64, decision Decision) (*Outcome, error) {
	offer, err := rs.store.GetOfferByID(ctx, offerID)
	if err != nil {
		return nil, err
	}

	// Identity check before any state inspection: a caller who does not own
	// the offer must not learn its state, let alone mutate it.
	if offer.PersonnelID != personnelID {
		return nil, domain.ErrForbidden
	}

	if offer.Status != domain.OfferStatusPending {
		return nil, domain.ErrAlreadyResolved
	}

	now := rs.now()

	// expires_at is a passive deadline checked on access. A late response
	// always loses, even while the shift itself is still unassigned.
	if !now.Before(offer.ExpiresAt) {
		if err := rs.store.MarkOfferExpired(ctx, offer.ID); err != nil {
			return nil, err
		}
		return nil, domain.ErrOfferExpired
	}

	switch decision {
	case DecisionDeclined:
		return rs.resolveDecline(ctx, offer, now)
	case DecisionAccepted:
		return rs.resolveAccept(ctx, offer, now)
	default:
		return nil, fmt.Errorf("unknown decision %q", decision)
	}
}

func (rs *Resolver) resolveDecline(ctx context.Context, offer *domain.ShiftOffer, now time.Time) (*Outcome, error) {
	if err := rs.store.MarkOfferDeclined(ctx, offer.ID, now); err != nil {
		return nil, err
	}

	return &Outcome{Outcome: OutcomeDeclined}, nil
}

func (rs *Resolver) resolveAccept(ctx context.Context, offer *domain.ShiftOffer, now time.Time) (*Outcome, error) {
	// The conditional claim is the sole ordering arbiter between concurrent
	// accepts: exactly one caller's write finds the shift still open.
	if err := rs.store.ClaimShift(ctx, offer.ShiftID, offer.PersonnelID); err != nil {
		switch {
		case errors.Is(err, domain.ErrShiftClaimed):
			// Lost the race. This is the expected outcome for everyone but
			// the winner, not a fault; close out this offer so it cannot be
			// answered again.
			if markErr := rs.store.MarkOfferExpired(ctx, offer.ID); markErr != nil {
				return nil, markErr
			}
			return nil, domain.ErrShiftClaimed
		default:
			return nil, err
		}
	}

	// The claim is committed. The offer row must follow in the same logical
	// sequence so no state is observable with a shift assigned but no
	// accepted offer.
	if err := rs.store.MarkOfferAccepted(ctx, offer.ID, now); err != nil {
		return nil, err
	}

	// Cascade: every other pending offer for this shift is dead now. Each
	// row transition is independent, so a single fan-out write is enough.
	if _, err := rs.store.ExpirePendingOffers(ctx, offer.ShiftID, offer.ID); err != nil {
		return nil, err
	}

	winner, err := rs.store.GetUserByID(ctx, offer.PersonnelID)
	if err != nil {
		return nil, err
	}

	rs.notifyAssigned(ctx, offer, winner)

	return &Outcome{
		Outcome:       OutcomeAssigned,
		ShiftID:       offer.ShiftID,
		PersonnelName: winner.FullName,
	}, nil
}

// notifyAssigned tells the shift's manager who won. The assignment is already
// committed when this runs, so every failure here is logged and swallowed.
func (rs *Resolver) notifyAssigned(ctx context.Context, offer *domain.ShiftOffer, winner *domain.User) {
	shift, err := rs.store.GetShiftByID(ctx, offer.ShiftID)
	if err != nil {
		slog.Error("cannot load shift for assignment notification", "shift_id", offer.ShiftID, "error", err)
		return
	}

	manager, err := rs.store.GetUserByID(ctx, shift.ManagerID)
	if err != nil {
		slog.Error("cannot load manager for assignment notification", "manager_id", shift.ManagerID, "error", err)
		return
	}

	msg := &domain.NotificationMessage{
		RecipientID: manager.ID,
		To:          manager.Email,
		Kind:        domain.NotificationKindShiftAssigned,
		Title:       "Shift assigned",
		Body:        fmt.Sprintf("%s accepted your shift at %s.", winner.FullName, shift.VenueName),
		Payload: map[string]any{
			"shiftID":       shift.ID,
			"outcome":       OutcomeAssigned,
			"personnelName": winner.FullName,
			"venueName":     shift.VenueName,
		},
	}

	if err := rs.notifier.Notify(ctx, msg); err != nil {
		slog.Error("cannot publish assignment notification", "shift_id", shift.ID, "error", err)
	}
}
