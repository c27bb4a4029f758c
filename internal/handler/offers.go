package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shield-staffing/shield/backend/internal/domain"
	"github.com/shield-staffing/shield/backend/internal/resolver"
)

func (h *Handler) ListMyOffers(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	offers, err := h.repository.GetOffersByPersonnel(r.Context(), myInfo.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "offers fetched", offers)
}

func (h *Handler) GetOffer(w http.ResponseWriter, r *http.Request) {
	offerID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.badRequest(w, r, errors.New("invalid offer id"))
		return
	}

	offer, err := h.repository.GetOfferByID(r.Context(), offerID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOfferNotFound):
			h.errorResponse(w, r, http.StatusNotFound, codeNotFound, "offer not found")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	// visible to its recipient, the shift's manager, and admins
	if offer.PersonnelID != myInfo.ID && myInfo.Role != domain.RoleAdmin {
		shift, err := h.repository.GetShiftByID(r.Context(), offer.ShiftID)
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}
		if shift.ManagerID != myInfo.ID {
			h.errorResponse(w, r, http.StatusForbidden, codeForbidden, "this offer belongs to someone else")
			return
		}
	}

	h.successResponse(w, r, "offer fetched", offer)
}

// RespondToOffer records an accept or decline. Accepting races against every
// other recipient of the same shift; exactly one of them wins the assignment
// and the rest learn the shift is already claimed.
func (h *Handler) RespondToOffer(w http.ResponseWriter, r *http.Request) {
	offerID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.badRequest(w, r, errors.New("invalid offer id"))
		return
	}

	var req struct {
		Decision string `json:"decision" validate:"required,oneof=accepted declined"`
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

	outcome, err := h.resolver.ResolveResponse(r.Context(), offerID, myInfo.ID, resolver.Decision(req.Decision))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOfferNotFound):
			h.errorResponse(w, r, http.StatusNotFound, codeNotFound, "offer not found")
		case errors.Is(err, domain.ErrForbidden):
			h.errorResponse(w, r, http.StatusForbidden, codeForbidden, "this offer was not sent to you")
		case errors.Is(err, domain.ErrOfferExpired):
			h.errorResponse(w, r, http.StatusGone, codeOfferExpired, "this offer has expired")
		case errors.Is(err, domain.ErrAlreadyResolved):
			h.errorResponse(w, r, http.StatusConflict, codeAlreadyResolved, "this offer has already been resolved")
		case errors.Is(err, domain.ErrShiftClaimed):
			h.errorResponse(w, r, http.StatusConflict, codeShiftClaimed, "someone else already claimed this shift")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "response recorded", outcome)
}
