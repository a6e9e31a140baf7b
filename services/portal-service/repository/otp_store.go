package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"grievance-portal/services/portal-service/models"

	"github.com/redis/go-redis/v9"
)

// OTPStore keeps the most recent signup code per email. Records expire on
// their own after models.OTPTTL.
type OTPStore interface {
	Save(ctx context.Context, rec *models.OTPRecord) error
	Latest(ctx context.Context, email string) (*models.OTPRecord, error)
	DeleteAll(ctx context.Context, email string) error
}

type redisOTPStore struct {
	rdb *redis.Client
}

func NewRedisOTPStore(rdb *redis.Client) OTPStore {
	return &redisOTPStore{rdb: rdb}
}

func otpKey(email string) string {
	return "otp:" + strings.ToLower(strings.TrimSpace(email))
}

func (s *redisOTPStore) Save(ctx context.Context, rec *models.OTPRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, otpKey(rec.Email), payload, models.OTPTTL).Err()
}

// Latest returns nil without error when no live code exists.
func (s *redisOTPStore) Latest(ctx context.Context, email string) (*models.OTPRecord, error) {
	raw, err := s.rdb.Get(ctx, otpKey(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rec models.OTPRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *redisOTPStore) DeleteAll(ctx context.Context, email string) error {
	return s.rdb.Del(ctx, otpKey(email)).Err()
}

// TokenDenylist records revoked JWT ids until the token would have expired.
type TokenDenylist interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type redisDenylist struct {
	rdb *redis.Client
	now func() time.Time
}

func NewRedisDenylist(rdb *redis.Client) TokenDenylist {
	return &redisDenylist{rdb: rdb, now: time.Now}
}

func denyKey(jti string) string { return "jwt:revoked:" + jti }

func (d *redisDenylist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(d.now())
	if ttl <= 0 {
		return nil
	}
	return d.rdb.Set(ctx, denyKey(jti), "1", ttl).Err()
}

func (d *redisDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := d.rdb.Exists(ctx, denyKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
