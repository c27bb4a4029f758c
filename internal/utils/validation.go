package utils

import (
	"errors"
	"time"

	"github.com/shield-staffing/shield/backend/internal/domain"
)

// ValidateShiftWindow checks a shift's time window against the clock value
// the caller considers "now".
func ValidateShiftWindow(shift *domain.Shift, now time.Time) error {
	if !shift.EndsAt.After(shift.StartsAt) {
		return errors.New("shift must end after it starts")
	}
	if !shift.StartsAt.After(now) {
		return errors.New("shift must start in the future")
	}
	return nil
}
