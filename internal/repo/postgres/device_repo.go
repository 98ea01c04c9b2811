package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type DeviceRepo struct {
	pool *pgxpool.Pool
}

func NewDeviceRepo(pool *pgxpool.Pool) *DeviceRepo {
	return &DeviceRepo{pool: pool}
}

// RegisterDevice upserts on the token so a reinstalled app moving between
// accounts takes its token with it.
func (r *DeviceRepo) RegisterDevice(ctx context.Context, userID int64, token string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 || token == "" {
		return fmt.Errorf("user id and device token are required")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO user_devices (user_id, device_token, created_at, updated_at)
VALUES ($1, $2, NOW(), NOW())
ON CONFLICT (device_token) DO UPDATE
SET user_id = EXCLUDED.user_id, updated_at = NOW()
`, userID, token); err != nil {
		return fmt.Errorf("register device: %w", err)
	}

	return nil
}

func (r *DeviceRepo) ListTokens(ctx context.Context, userID int64) ([]string, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT device_token
FROM user_devices
WHERE user_id = $1
ORDER BY created_at ASC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list device tokens: %w", err)
	}
	defer rows.Close()

	tokens := make([]string, 0)
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("scan device token: %w", err)
		}
		tokens = append(tokens, token)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate device tokens: %w", rows.Err())
	}

	return tokens, nil
}
