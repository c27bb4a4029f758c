package domain

import "time"

type OfferStatus string

const (
	OfferStatusPending  OfferStatus = "pending"
	OfferStatusAccepted OfferStatus = "accepted"
	OfferStatusDeclined OfferStatus = "declined"
	OfferStatusExpired  OfferStatus = "expired"
)

// ShiftOffer proposes one shift to one candidate. At most one pending offer
// exists per (shift, personnel) pair; once responded the status is never
// rewritten. Terminal rows are kept for audit.
type ShiftOffer struct {
	ID          int64       `json:"id"`
	ShiftID     int64       `json:"shiftID"`
	PersonnelID int64       `json:"personnelID"`
	Status      OfferStatus `json:"status"`
	CreatedAt   time.Time   `json:"createdAt"`
	ExpiresAt   time.Time   `json:"expiresAt"`
	RespondedAt *time.Time  `json:"respondedAt"`
	Version     int32       `json:"-"`
}
