// source: users.sql

package database

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const getUserByEmail = `-- name: GetUserByEmail :one
SELECT id, email, full_name, role, is_active, created_at
FROM users
WHERE email = $1
`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByEmail, email)
	var i User
	err := row.Scan(&i.ID, &i.Email, &i.FullName, &i.Role, &i.IsActive, &i.CreatedAt)
	return i, err
}

const getUserByID = `-- name: GetUserByID :one
SELECT id, email, full_name, role, is_active, created_at
FROM users
WHERE id = $1
`

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	row := q.db.QueryRow(ctx, getUserByID, id)
	var i User
	err := row.Scan(&i.ID, &i.Email, &i.FullName, &i.Role, &i.IsActive, &i.CreatedAt)
	return i, err
}

const createOtpCode = `-- name: CreateOtpCode :one
INSERT INTO otp_codes (user_id, code_hash, expires_at)
VALUES ($1, $2, $3)
RETURNING id, user_id, code_hash, expires_at, attempts, consumed_at, created_at
`

type CreateOtpCodeParams struct {
	UserID    uuid.UUID `json:"user_id"`
	CodeHash  string    `json:"code_hash"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (q *Queries) CreateOtpCode(ctx context.Context, arg CreateOtpCodeParams) (OtpCode, error) {
	row := q.db.QueryRow(ctx, createOtpCode, arg.UserID, arg.CodeHash, arg.ExpiresAt)
	var i OtpCode
	err := row.Scan(&i.ID, &i.UserID, &i.CodeHash, &i.ExpiresAt, &i.Attempts, &i.ConsumedAt, &i.CreatedAt)
	return i, err
}

const getActiveOtpCode = `-- name: GetActiveOtpCode :one
SELECT id, user_id, code_hash, expires_at, attempts, consumed_at, created_at
FROM otp_codes
WHERE user_id = $1 AND consumed_at IS NULL
ORDER BY created_at DESC
LIMIT 1
`

func (q *Queries) GetActiveOtpCode(ctx context.Context, userID uuid.UUID) (OtpCode, error) {
	row := q.db.QueryRow(ctx, getActiveOtpCode, userID)
	var i OtpCode
	err := row.Scan(&i.ID, &i.UserID, &i.CodeHash, &i.ExpiresAt, &i.Attempts, &i.ConsumedAt, &i.CreatedAt)
	return i, err
}

const claimOtpAttempt = `-- name: ClaimOtpAttempt :one
UPDATE otp_codes SET attempts = attempts + 1
WHERE id = $1 AND attempts < $2 AND consumed_at IS NULL
RETURNING attempts
`

type ClaimOtpAttemptParams struct {
	ID          uuid.UUID `json:"id"`
	MaxAttempts int32     `json:"max_attempts"`
}

// ClaimOtpAttempt reserves one verification attempt. It returns
// pgx.ErrNoRows once the limit is reached or the code is consumed.
func (q *Queries) ClaimOtpAttempt(ctx context.Context, arg ClaimOtpAttemptParams) (int32, error) {
	row := q.db.QueryRow(ctx, claimOtpAttempt, arg.ID, arg.MaxAttempts)
	var attempts int32
	err := row.Scan(&attempts)
	return attempts, err
}

const consumeOtpCode = `-- name: ConsumeOtpCode :one
UPDATE otp_codes SET consumed_at = now()
WHERE id = $1 AND consumed_at IS NULL
RETURNING id
`

// ConsumeOtpCode returns pgx.ErrNoRows if the code was consumed concurrently.
func (q *Queries) ConsumeOtpCode(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, consumeOtpCode, id)
	var consumed uuid.UUID
	err := row.Scan(&consumed)
	return consumed, err
}
