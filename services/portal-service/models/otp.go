package models

import "time"

const OTPTTL = 5 * time.Minute

type OTPRecord struct {
	Email     string    `json:"email"`
	OTP       string    `json:"otp"`
	CreatedAt time.Time `json:"createdAt"`
}

func (o *OTPRecord) Expired(now time.Time) bool {
	return !now.Before(o.CreatedAt.Add(OTPTTL))
}
