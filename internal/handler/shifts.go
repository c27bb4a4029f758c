package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shield-staffing/shield/backend/internal/domain"
	"github.com/shield-staffing/shield/backend/internal/utils"
)

func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VenueName       string    `json:"venueName" validate:"required"`
		Location        string    `json:"location" validate:"required"`
		StartsAt        time.Time `json:"startsAt" validate:"required"`
		EndsAt          time.Time `json:"endsAt" validate:"required"`
		HourlyRateCents int64     `json:"hourlyRateCents" validate:"required,gt=0"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	shift := &domain.Shift{
		VenueName:       req.VenueName,
		Location:        req.Location,
		StartsAt:        req.StartsAt,
		EndsAt:          req.EndsAt,
		HourlyRateCents: req.HourlyRateCents,
		ManagerID:       myInfo.ID,
	}

	if err := utils.ValidateShiftWindow(shift, time.Now()); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.CreateShift(r.Context(), shift); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "shift created", shift)
}

// ListShifts shows managers their own listings and everyone else the open
// marketplace.
func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var (
		shifts []*domain.Shift
		err    error
	)
	switch myInfo.Role {
	case domain.RoleManager:
		shifts, err = h.repository.GetShiftsByManager(r.Context(), myInfo.ID)
	default:
		shifts, err = h.repository.GetOpenShifts(r.Context())
	}
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "shifts fetched", shifts)
}

func (h *Handler) GetShift(w http.ResponseWriter, r *http.Request) {
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)
	h.successResponse(w, r, "shift fetched", shift)
}

// requireShiftOwnership lets a manager act only on their own shifts; admins
// may act on any.
func (h *Handler) requireShiftOwnership(w http.ResponseWriter, r *http.Request) (*domain.Shift, bool) {
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	if myInfo.Role != domain.RoleAdmin && shift.ManagerID != myInfo.ID {
		h.errorResponse(w, r, http.StatusForbidden, codeForbidden, "this shift belongs to another manager")
		return nil, false
	}

	return shift, true
}

func (h *Handler) UpdateShift(w http.ResponseWriter, r *http.Request) {
	shift, ok := h.requireShiftOwnership(w, r)
	if !ok {
		return
	}

	var req struct {
		VenueName       *string    `json:"venueName"`
		Location        *string    `json:"location"`
		StartsAt        *time.Time `json:"startsAt"`
		EndsAt          *time.Time `json:"endsAt"`
		HourlyRateCents *int64     `json:"hourlyRateCents" validate:"omitempty,gt=0"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if req.VenueName != nil {
		shift.VenueName = *req.VenueName
	}
	if req.Location != nil {
		shift.Location = *req.Location
	}
	if req.StartsAt != nil {
		shift.StartsAt = *req.StartsAt
	}
	if req.EndsAt != nil {
		shift.EndsAt = *req.EndsAt
	}
	if req.HourlyRateCents != nil {
		shift.HourlyRateCents = *req.HourlyRateCents
	}

	if err := utils.ValidateShiftWindow(shift, time.Now()); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.UpdateShift(r.Context(), shift); err != nil {
		switch {
		case errors.Is(err, domain.ErrShiftNotOpen):
			h.errorResponse(w, r, http.StatusConflict, codeShiftNotOpen, "shift can no longer be edited")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "shift updated", shift)
}

func (h *Handler) CancelShift(w http.ResponseWriter, r *http.Request) {
	shift, ok := h.requireShiftOwnership(w, r)
	if !ok {
		return
	}

	if err := h.repository.CancelShift(r.Context(), shift.ID); err != nil {
		switch {
		case errors.Is(err, domain.ErrShiftNotOpen):
			h.errorResponse(w, r, http.StatusConflict, codeShiftNotOpen, "shift can no longer be cancelled")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// pending offers for a cancelled shift are dead on arrival
	if _, err := h.repository.ExpirePendingOffers(r.Context(), shift.ID, 0); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "shift cancelled", nil)
}

// BroadcastShift fans an open shift out to named personnel as pending offers.
// How the caller picked the candidates (distance, rating, agency roster) is
// their business; Shield only records the offers and notifies the recipients.
func (h *Handler) BroadcastShift(w http.ResponseWriter, r *http.Request) {
	shift, ok := h.requireShiftOwnership(w, r)
	if !ok {
		return
	}

	if shift.Status != domain.ShiftStatusOpen {
		h.errorResponse(w, r, http.StatusConflict, codeShiftNotOpen, "shift is no longer open for offers")
		return
	}

	var req struct {
		PersonnelIDs     []int64 `json:"personnelIDs" validate:"required,min=1,dive,gt=0"`
		ExpiresInSeconds *int    `json:"expiresInSeconds" validate:"omitempty,gt=0"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	expiresIn := h.config.Offers.DefaultExpiration
	if req.ExpiresInSeconds != nil {
		expiresIn = *req.ExpiresInSeconds
	}
	expiresAt := time.Now().Add(time.Duration(expiresIn) * time.Second)

	offers := make([]*domain.ShiftOffer, 0, len(req.PersonnelIDs))
	for _, personnelID := range req.PersonnelIDs {
		candidate, err := h.repository.GetUserByID(r.Context(), personnelID)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrUserNotFound):
				h.errorResponse(w, r, http.StatusBadRequest, codeBadRequest, "unknown personnel id")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}
		if candidate.Role != domain.RolePersonnel || !candidate.IsActive {
			h.errorResponse(w, r, http.StatusBadRequest, codeBadRequest, "candidate is not active personnel")
			return
		}

		// at most one live offer per (shift, candidate)
		exists, err := h.repository.HasPendingOffer(r.Context(), shift.ID, personnelID)
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}
		if exists {
			continue
		}

		offer := &domain.ShiftOffer{
			ShiftID:     shift.ID,
			PersonnelID: personnelID,
			ExpiresAt:   expiresAt,
		}

		if err := h.repository.CreateOffer(r.Context(), offer); err != nil {
			var pgErr *pgconn.PgError
			switch {
			case errors.As(err, &pgErr) && pgErr.ConstraintName == "shift_offers_pending_key":
				// raced with a concurrent broadcast for the same candidate
				continue
			default:
				h.internalServerError(w, r, err)
				return
			}
		}
		offers = append(offers, offer)

		msg := &domain.NotificationMessage{
			RecipientID: candidate.ID,
			To:          candidate.Email,
			Kind:        domain.NotificationKindOfferReceived,
			Title:       "New shift offer",
			Payload: map[string]any{
				"fullName":  candidate.FullName,
				"venueName": shift.VenueName,
				"location":  shift.Location,
				"startsAt":  shift.StartsAt,
				"shiftID":   shift.ID,
				"offerID":   offer.ID,
				"expiresAt": expiresAt,
			},
		}
		if err := h.notifier.Notify(r.Context(), msg); err != nil {
			// the offer row exists either way; the candidate will still see
			// it in their feed
			slog.Error("cannot publish offer notification", "offer_id", offer.ID, "error", err)
		}
	}

	h.successResponse(w, r, "offers broadcast", offers)
}

func (h *Handler) ListShiftOffers(w http.ResponseWriter, r *http.Request) {
	shift, ok := h.requireShiftOwnership(w, r)
	if !ok {
		return
	}

	offers, err := h.repository.GetOffersByShift(r.Context(), shift.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "offers fetched", offers)
}
