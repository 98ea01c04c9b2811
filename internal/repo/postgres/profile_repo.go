package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	completionsvc "github.com/marcucus/goldwen-backend/internal/services/completion"
	profilesvc "github.com/marcucus/goldwen-backend/internal/services/profiles"
)

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

func (r *ProfileRepo) UpsertBasics(ctx context.Context, userID int64, birthdate time.Time, bio string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO profiles (user_id, birthdate, bio, is_visible, created_at, updated_at)
VALUES ($1, $2, $3, FALSE, NOW(), NOW())
ON CONFLICT (user_id) DO UPDATE
SET birthdate = EXCLUDED.birthdate, bio = EXCLUDED.bio, updated_at = NOW()
`, userID, birthdate.UTC(), bio); err != nil {
		return fmt.Errorf("upsert profile basics: %w", err)
	}

	return nil
}

func (r *ProfileRepo) GetProfile(ctx context.Context, userID int64) (profilesvc.Profile, error) {
	if r.pool == nil {
		return profilesvc.Profile{}, fmt.Errorf("postgres pool is nil")
	}

	var profile profilesvc.Profile
	err := r.pool.QueryRow(ctx, `
SELECT user_id, birthdate, COALESCE(bio, ''), is_visible, updated_at
FROM profiles
WHERE user_id = $1
`, userID).Scan(&profile.UserID, &profile.Birthdate, &profile.Bio, &profile.IsVisible, &profile.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return profilesvc.Profile{}, profilesvc.ErrProfileNotFound
		}
		return profilesvc.Profile{}, fmt.Errorf("get profile: %w", err)
	}

	return profile, nil
}

// GetBasics reads the completion-relevant bits of the profile row. A user
// without a profile row simply has nothing filled in yet.
func (r *ProfileRepo) GetBasics(ctx context.Context, userID int64) (completionsvc.Basics, error) {
	if r.pool == nil {
		return completionsvc.Basics{}, fmt.Errorf("postgres pool is nil")
	}

	var basics completionsvc.Basics
	err := r.pool.QueryRow(ctx, `
SELECT birthdate IS NOT NULL, COALESCE(bio, '') <> ''
FROM profiles
WHERE user_id = $1
`, userID).Scan(&basics.HasBirthdate, &basics.HasBio)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return completionsvc.Basics{}, nil
		}
		return completionsvc.Basics{}, fmt.Errorf("get profile basics: %w", err)
	}

	return basics, nil
}

func (r *ProfileRepo) SetVisibility(ctx context.Context, userID int64, visible bool) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE profiles SET is_visible = $2, updated_at = NOW()
WHERE user_id = $1
`, userID, visible)
	if err != nil {
		return fmt.Errorf("set profile visibility: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return profilesvc.ErrProfileNotFound
	}

	return nil
}
