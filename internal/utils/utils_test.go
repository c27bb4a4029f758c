package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shield-staffing/shield/backend/internal/domain"
)

func TestGenerateRandomOTP(t *testing.T) {
	for i := 0; i < 50; i++ {
		otp := GenerateRandomOTP()
		assert.Len(t, otp, 6)
		for _, c := range otp {
			assert.True(t, c >= '0' && c <= '9')
		}
	}
}

func TestGenerateRandomPassword(t *testing.T) {
	assert.Len(t, GenerateRandomPassword(12), 12)
}

func TestGenerateRandomUser(t *testing.T) {
	user, err := GenerateRandomUser(domain.RolePersonnel, "secret-password", "shield.example")
	require.NoError(t, err)

	assert.Equal(t, domain.RolePersonnel, user.Role)
	assert.NotEmpty(t, user.Username)
	assert.Contains(t, user.Email, "@shield.example")
	assert.NotEqual(t, "secret-password", user.PasswordHash)
}

func TestValidateShiftWindow(t *testing.T) {
	now := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)

	valid := &domain.Shift{
		StartsAt: now.Add(24 * time.Hour),
		EndsAt:   now.Add(30 * time.Hour),
	}
	assert.NoError(t, ValidateShiftWindow(valid, now))

	endsBeforeStarts := &domain.Shift{
		StartsAt: now.Add(24 * time.Hour),
		EndsAt:   now.Add(20 * time.Hour),
	}
	assert.Error(t, ValidateShiftWindow(endsBeforeStarts, now))

	startsInPast := &domain.Shift{
		StartsAt: now.Add(-time.Hour),
		EndsAt:   now.Add(time.Hour),
	}
	assert.Error(t, ValidateShiftWindow(startsInPast, now))
}
