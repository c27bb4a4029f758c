package domain

import "time"

type ShiftStatus string

const (
	ShiftStatusOpen       ShiftStatus = "open"
	ShiftStatusAssigned   ShiftStatus = "assigned"
	ShiftStatusInProgress ShiftStatus = "in_progress"
	ShiftStatusCompleted  ShiftStatus = "completed"
	ShiftStatusCancelled  ShiftStatus = "cancelled"
)

// Shift is the bookable unit of work being offered to personnel. Invariant:
// AssignedPersonnelID is non-nil exactly when Status is no longer open, and
// the only write path from open to assigned is the conditional claim in the
// repository.
type Shift struct {
	ID                  int64       `json:"id"`
	VenueName           string      `json:"venueName"`
	Location            string      `json:"location"`
	StartsAt            time.Time   `json:"startsAt"`
	EndsAt              time.Time   `json:"endsAt"`
	HourlyRateCents     int64       `json:"hourlyRateCents"`
	ManagerID           int64       `json:"managerID"`
	AssignedPersonnelID *int64      `json:"assignedPersonnelID"`
	Status              ShiftStatus `json:"status"`
	CreatedAt           time.Time   `json:"createdAt"`
	Version             int32       `json:"-"`
}
