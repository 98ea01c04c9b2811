package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marcucus/goldwen-backend/internal/domain/enums"
	modsvc "github.com/marcucus/goldwen-backend/internal/services/moderation"
	photosvc "github.com/marcucus/goldwen-backend/internal/services/photos"
)

type PhotoRepo struct {
	pool *pgxpool.Pool
}

func NewPhotoRepo(pool *pgxpool.Pool) *PhotoRepo {
	return &PhotoRepo{pool: pool}
}

func (r *PhotoRepo) CreatePhoto(ctx context.Context, profileID int64, objectKey string) (photosvc.PhotoRecord, error) {
	if r.pool == nil {
		return photosvc.PhotoRecord{}, fmt.Errorf("postgres pool is nil")
	}

	var record photosvc.PhotoRecord
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
SELECT position
FROM photos
WHERE profile_id = $1
ORDER BY position
FOR UPDATE
`, profileID)
		if err != nil {
			return fmt.Errorf("query photo positions: %w", err)
		}

		count := 0
		maxPosition := 0
		for rows.Next() {
			var position int
			if err := rows.Scan(&position); err != nil {
				rows.Close()
				return fmt.Errorf("scan photo position: %w", err)
			}
			count++
			if position > maxPosition {
				maxPosition = position
			}
		}
		rows.Close()
		if rows.Err() != nil {
			return fmt.Errorf("iterate photo positions: %w", rows.Err())
		}

		if count >= photosvc.MaxPhotos() {
			return photosvc.ErrPhotoLimitReached
		}

		err = tx.QueryRow(ctx, `
INSERT INTO photos (profile_id, s3_key, position, is_primary, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, 'pending', NOW(), NOW())
RETURNING id, profile_id, s3_key, position, is_primary, status, COALESCE(rejection_reason, ''), created_at
`, profileID, objectKey, maxPosition+1, count == 0).Scan(
			&record.ID, &record.ProfileID, &record.ObjectKey, &record.Position,
			&record.IsPrimary, &record.Status, &record.RejectionReason, &record.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert photo: %w", err)
		}
		return nil
	})
	if err != nil {
		return photosvc.PhotoRecord{}, err
	}

	return record, nil
}

func (r *PhotoRepo) ListPhotos(ctx context.Context, profileID int64) ([]photosvc.PhotoRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, profile_id, s3_key, position, is_primary, status, COALESCE(rejection_reason, ''), created_at
FROM photos
WHERE profile_id = $1
ORDER BY position ASC, created_at ASC
`, profileID)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	defer rows.Close()

	photos := make([]photosvc.PhotoRecord, 0)
	for rows.Next() {
		var record photosvc.PhotoRecord
		if err := rows.Scan(
			&record.ID, &record.ProfileID, &record.ObjectKey, &record.Position,
			&record.IsPrimary, &record.Status, &record.RejectionReason, &record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		photos = append(photos, record)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate photos: %w", rows.Err())
	}

	return photos, nil
}

func (r *PhotoRepo) GetPhoto(ctx context.Context, photoID int64) (photosvc.PhotoRecord, error) {
	if r.pool == nil {
		return photosvc.PhotoRecord{}, fmt.Errorf("postgres pool is nil")
	}

	var record photosvc.PhotoRecord
	err := r.pool.QueryRow(ctx, `
SELECT id, profile_id, s3_key, position, is_primary, status, COALESCE(rejection_reason, ''), created_at
FROM photos
WHERE id = $1
`, photoID).Scan(
		&record.ID, &record.ProfileID, &record.ObjectKey, &record.Position,
		&record.IsPrimary, &record.Status, &record.RejectionReason, &record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return photosvc.PhotoRecord{}, photosvc.ErrPhotoNotFound
		}
		return photosvc.PhotoRecord{}, fmt.Errorf("get photo: %w", err)
	}

	return record, nil
}

func (r *PhotoRepo) DeletePhoto(ctx context.Context, photoID int64) (string, error) {
	if r.pool == nil {
		return "", fmt.Errorf("postgres pool is nil")
	}

	var objectKey string
	err := r.pool.QueryRow(ctx, `
DELETE FROM photos
WHERE id = $1
RETURNING s3_key
`, photoID).Scan(&objectKey)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", photosvc.ErrPhotoNotFound
		}
		return "", fmt.Errorf("delete photo: %w", err)
	}

	return objectKey, nil
}

// MovePhoto shifts positions inside one transaction with every row of the
// profile locked. The moved photo parks at position zero first so the
// per-row updates never collide on the unique (profile_id, position) key.
func (r *PhotoRepo) MovePhoto(ctx context.Context, profileID, photoID int64, position int) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	return WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
SELECT id, position
FROM photos
WHERE profile_id = $1
ORDER BY position
FOR UPDATE
`, profileID)
		if err != nil {
			return fmt.Errorf("lock photo rows: %w", err)
		}

		var records []photosvc.PhotoRecord
		for rows.Next() {
			var rec photosvc.PhotoRecord
			if err := rows.Scan(&rec.ID, &rec.Position); err != nil {
				rows.Close()
				return fmt.Errorf("scan photo row: %w", err)
			}
			records = append(records, rec)
		}
		rows.Close()
		if rows.Err() != nil {
			return fmt.Errorf("iterate photo rows: %w", rows.Err())
		}

		plan, err := photosvc.PlanMove(records, photoID, position)
		if err != nil {
			return err
		}
		if len(plan) == 0 {
			return nil
		}

		if _, err := tx.Exec(ctx, `
UPDATE photos SET position = 0, updated_at = NOW() WHERE id = $1
`, photoID); err != nil {
			return fmt.Errorf("park moved photo: %w", err)
		}

		for _, update := range plan {
			if _, err := tx.Exec(ctx, `
UPDATE photos SET position = $2, updated_at = NOW() WHERE id = $1
`, update.PhotoID, update.Position); err != nil {
				return fmt.Errorf("apply position update: %w", err)
			}
		}
		return nil
	})
}

func (r *PhotoRepo) SetPrimary(ctx context.Context, profileID, photoID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	return WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
UPDATE photos SET is_primary = FALSE, updated_at = NOW()
WHERE profile_id = $1 AND is_primary
`, profileID); err != nil {
			return fmt.Errorf("clear primary flag: %w", err)
		}

		tag, err := tx.Exec(ctx, `
UPDATE photos SET is_primary = TRUE, updated_at = NOW()
WHERE id = $1 AND profile_id = $2
`, photoID, profileID)
		if err != nil {
			return fmt.Errorf("set primary flag: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return photosvc.ErrPhotoNotFound
		}
		return nil
	})
}

func (r *PhotoRepo) CountByProfile(ctx context.Context, profileID int64) (int, int, error) {
	if r.pool == nil {
		return 0, 0, fmt.Errorf("postgres pool is nil")
	}

	var total, approved int
	err := r.pool.QueryRow(ctx, `
SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'approved')
FROM photos
WHERE profile_id = $1
`, profileID).Scan(&total, &approved)
	if err != nil {
		return 0, 0, fmt.Errorf("count photos: %w", err)
	}

	return total, approved, nil
}

func (r *PhotoRepo) GetPhotoForModeration(ctx context.Context, photoID int64) (modsvc.PhotoItem, error) {
	if r.pool == nil {
		return modsvc.PhotoItem{}, fmt.Errorf("postgres pool is nil")
	}

	var item modsvc.PhotoItem
	err := r.pool.QueryRow(ctx, `
SELECT id, profile_id, s3_key, status
FROM photos
WHERE id = $1
`, photoID).Scan(&item.ID, &item.ProfileID, &item.ObjectKey, &item.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return modsvc.PhotoItem{}, modsvc.ErrPhotoNotFound
		}
		return modsvc.PhotoItem{}, fmt.Errorf("get photo for moderation: %w", err)
	}

	return item, nil
}

func (r *PhotoRepo) SetModeration(ctx context.Context, photoID int64, status enums.ModerationStatus, reason string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE photos
SET status = $2, rejection_reason = NULLIF($3, ''), updated_at = NOW()
WHERE id = $1
`, photoID, string(status), reason)
	if err != nil {
		return fmt.Errorf("set photo moderation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return modsvc.ErrPhotoNotFound
	}

	return nil
}

// ListPendingOlderThan feeds the sweep job photos whose async moderation
// never landed a verdict.
func (r *PhotoRepo) ListPendingOlderThan(ctx context.Context, olderThan time.Time) ([]int64, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id
FROM photos
WHERE status = 'pending' AND created_at < $1
ORDER BY created_at ASC
`, olderThan.UTC())
	if err != nil {
		return nil, fmt.Errorf("list pending photos: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan pending photo id: %w", err)
		}
		ids = append(ids, id)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate pending photos: %w", rows.Err())
	}

	return ids, nil
}
