package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) GetCompletionFlags(ctx context.Context, userID int64) (bool, bool, error) {
	if r.pool == nil {
		return false, false, fmt.Errorf("postgres pool is nil")
	}

	var onboarding, profile bool
	err := r.pool.QueryRow(ctx, `
SELECT is_onboarding_completed, is_profile_completed
FROM users
WHERE id = $1
`, userID).Scan(&onboarding, &profile)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, false, ErrUserNotFound
		}
		return false, false, fmt.Errorf("get completion flags: %w", err)
	}

	return onboarding, profile, nil
}

func (r *UserRepo) SetCompletionFlags(ctx context.Context, userID int64, onboarding, profile bool) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE users
SET is_onboarding_completed = $2, is_profile_completed = $3, updated_at = NOW()
WHERE id = $1
`, userID, onboarding, profile)
	if err != nil {
		return fmt.Errorf("set completion flags: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}
