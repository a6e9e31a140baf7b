package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestUserBeforeCreateGeneratesUUID(t *testing.T) {
	u := &User{Email: "a@example.com"}
	assert.NoError(t, u.BeforeCreate(nil))

	_, err := uuid.Parse(u.ID)
	assert.NoError(t, err)
}

func TestUserBeforeCreatePreservesID(t *testing.T) {
	d := &Department{ID: "fixed"}
	assert.NoError(t, d.BeforeCreate(nil))
	assert.Equal(t, "fixed", d.ID)
}

func TestOTPExpiry(t *testing.T) {
	created := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	rec := &OTPRecord{Email: "a@example.com", OTP: "123456", CreatedAt: created}

	assert.False(t, rec.Expired(created.Add(4*time.Minute)))
	assert.True(t, rec.Expired(created.Add(5*time.Minute)))
}

func TestEnumValidation(t *testing.T) {
	assert.True(t, IsValidStatus("Under Review"))
	assert.False(t, IsValidStatus("Pending"))
	assert.True(t, IsValidWorkStatus("Pending"))
	assert.True(t, IsValidPriority("Critical"))
	assert.False(t, IsValidAccountType("Admin"))
	assert.True(t, IsValidGender("Prefer not to say"))
}
