package photos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/marcucus/goldwen-backend/internal/domain/enums"
	"github.com/marcucus/goldwen-backend/internal/services/moderation"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrPhotoNotFound     = errors.New("photo not found")
	ErrPhotoLimitReached = errors.New("photo limit reached")
)

const (
	signedURLTTL    = 5 * time.Minute
	maxPhotos       = 6
	moveRetries     = 3
	moderationGrace = 30 * time.Second
)

// PhotoRecord is the persisted shape of a profile photo.
type PhotoRecord struct {
	ID              int64
	ProfileID       int64
	ObjectKey       string
	Position        int
	IsPrimary       bool
	Status          enums.ModerationStatus
	RejectionReason string
	CreatedAt       time.Time
}

// Photo is the client-facing shape: the object key never leaves the
// backend, only a short-lived signed URL does.
type Photo struct {
	ID              int64                  `json:"id"`
	Position        int                    `json:"position"`
	IsPrimary       bool                   `json:"is_primary"`
	Status          enums.ModerationStatus `json:"status"`
	RejectionReason string                 `json:"rejection_reason,omitempty"`
	URL             string                 `json:"url"`
	CreatedAt       time.Time              `json:"created_at"`
}

type Store interface {
	CreatePhoto(ctx context.Context, profileID int64, objectKey string) (PhotoRecord, error)
	ListPhotos(ctx context.Context, profileID int64) ([]PhotoRecord, error)
	GetPhoto(ctx context.Context, photoID int64) (PhotoRecord, error)
	DeletePhoto(ctx context.Context, photoID int64) (objectKey string, err error)
	MovePhoto(ctx context.Context, profileID, photoID int64, position int) error
	SetPrimary(ctx context.Context, profileID, photoID int64) error
	CountByProfile(ctx context.Context, profileID int64) (total int, approved int, err error)
}

type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	PutPhoto(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type Moderator interface {
	ModeratePhoto(ctx context.Context, photoID int64) (moderation.PhotoResult, error)
}

type Reconciler interface {
	Reconcile(ctx context.Context, userID int64) error
}

type Dependencies struct {
	Store      Store
	Storage    ObjectStorage
	Moderator  Moderator
	Completion Reconciler
	Logger     *zap.Logger
}

type Service struct {
	store      Store
	storage    ObjectStorage
	moderator  Moderator
	completion Reconciler
	logger     *zap.Logger
	now        func() time.Time
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:      deps.Store,
		storage:    deps.Storage,
		moderator:  deps.Moderator,
		completion: deps.Completion,
		logger:     logger,
		now:        time.Now,
	}
}

// Upload stores the photo object, creates its record at the next free
// position, and queues moderation. The response carries a pending status;
// the verdict arrives asynchronously.
func (s *Service) Upload(ctx context.Context, profileID int64, fileName, contentType string, body io.Reader, size int64) (Photo, error) {
	if profileID <= 0 || body == nil || size <= 0 {
		return Photo{}, ErrValidation
	}
	if s.store == nil || s.storage == nil {
		return Photo{}, fmt.Errorf("photo dependencies are not configured")
	}

	if err := s.storage.EnsureBucket(ctx); err != nil {
		return Photo{}, fmt.Errorf("ensure bucket: %w", err)
	}

	objectKey := buildObjectKey(profileID, fileName)
	if strings.TrimSpace(contentType) == "" {
		contentType = "application/octet-stream"
	}

	if err := s.storage.PutPhoto(ctx, objectKey, body, size, contentType); err != nil {
		return Photo{}, fmt.Errorf("put object: %w", err)
	}

	record, err := s.store.CreatePhoto(ctx, profileID, objectKey)
	if err != nil {
		_ = s.storage.Delete(ctx, objectKey)
		if errors.Is(err, ErrPhotoLimitReached) {
			return Photo{}, ErrPhotoLimitReached
		}
		return Photo{}, fmt.Errorf("create photo record: %w", err)
	}

	s.queueModeration(ctx, record.ID)
	s.reconcile(ctx, profileID)

	url, err := s.storage.PresignGet(ctx, record.ObjectKey, signedURLTTL)
	if err != nil {
		return Photo{}, fmt.Errorf("presign photo url: %w", err)
	}
	return toPhoto(record, url), nil
}

func (s *Service) List(ctx context.Context, profileID int64) ([]Photo, error) {
	if profileID <= 0 {
		return nil, ErrValidation
	}
	if s.store == nil || s.storage == nil {
		return nil, fmt.Errorf("photo dependencies are not configured")
	}

	records, err := s.store.ListPhotos(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("list photo records: %w", err)
	}

	photos := make([]Photo, 0, len(records))
	for _, rec := range records {
		url, err := s.storage.PresignGet(ctx, rec.ObjectKey, signedURLTTL)
		if err != nil {
			return nil, fmt.Errorf("presign photo url: %w", err)
		}
		photos = append(photos, toPhoto(rec, url))
	}
	return photos, nil
}

func (s *Service) Delete(ctx context.Context, profileID, photoID int64) error {
	if _, err := s.owned(ctx, profileID, photoID); err != nil {
		return err
	}

	objectKey, err := s.store.DeletePhoto(ctx, photoID)
	if err != nil {
		return fmt.Errorf("delete photo record: %w", err)
	}
	if err := s.storage.Delete(ctx, objectKey); err != nil {
		s.logger.Warn("orphaned photo object left in storage",
			zap.String("object_key", objectKey), zap.Error(err))
	}

	s.reconcile(ctx, profileID)
	return nil
}

// SetOrder moves a photo to the requested position. Every photo between
// the old and new slot shifts by one; no other photo moves.
func (s *Service) SetOrder(ctx context.Context, profileID, photoID int64, position int) error {
	if position < 1 {
		return fmt.Errorf("position must be at least 1: %w", ErrValidation)
	}
	if _, err := s.owned(ctx, profileID, photoID); err != nil {
		return err
	}

	return s.withRetry(ctx, "move photo", func() error {
		return s.store.MovePhoto(ctx, profileID, photoID, position)
	})
}

// SetPrimary marks one photo as the profile's primary and clears the flag
// from whichever photo held it. Positions do not change.
func (s *Service) SetPrimary(ctx context.Context, profileID, photoID int64) error {
	record, err := s.owned(ctx, profileID, photoID)
	if err != nil {
		return err
	}
	if record.Status == enums.ModerationStatusRejected {
		return fmt.Errorf("rejected photo cannot be primary: %w", ErrValidation)
	}

	return s.withRetry(ctx, "set primary photo", func() error {
		return s.store.SetPrimary(ctx, profileID, photoID)
	})
}

// owned resolves a photo and verifies it belongs to the caller. A photo
// owned by someone else reads as not found so ids cannot be probed.
func (s *Service) owned(ctx context.Context, profileID, photoID int64) (PhotoRecord, error) {
	if profileID <= 0 || photoID <= 0 {
		return PhotoRecord{}, ErrValidation
	}
	if s.store == nil || s.storage == nil {
		return PhotoRecord{}, fmt.Errorf("photo dependencies are not configured")
	}

	record, err := s.store.GetPhoto(ctx, photoID)
	if err != nil {
		return PhotoRecord{}, err
	}
	if record.ProfileID != profileID {
		return PhotoRecord{}, ErrPhotoNotFound
	}
	return record, nil
}

// withRetry reruns a transactional store operation after a serialization
// failure or deadlock. Concurrent reorders of the same profile are rare,
// so a handful of attempts is enough.
func (s *Service) withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= moveRetries; attempt++ {
		err = fn()
		if err == nil || !isRetryable(err) {
			return err
		}
		s.logger.Warn("retrying after transaction conflict",
			zap.String("op", op), zap.Int("attempt", attempt), zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 25 * time.Millisecond):
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	// serialization_failure and deadlock_detected
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

// queueModeration runs the verdict in the background on a detached context
// so the upload response does not wait on the classifier.
func (s *Service) queueModeration(ctx context.Context, photoID int64) {
	if s.moderator == nil {
		return
	}

	detached := context.WithoutCancel(ctx)
	go func() {
		modCtx, cancel := context.WithTimeout(detached, moderationGrace)
		defer cancel()

		result, err := s.moderator.ModeratePhoto(modCtx, photoID)
		if err != nil {
			s.logger.Error("background photo moderation failed",
				zap.Int64("photo_id", photoID), zap.Error(err))
			return
		}
		s.logger.Info("photo moderated",
			zap.Int64("photo_id", photoID), zap.Bool("approved", result.Approved))
	}()
}

func (s *Service) reconcile(ctx context.Context, profileID int64) {
	if s.completion == nil {
		return
	}
	if err := s.completion.Reconcile(ctx, profileID); err != nil {
		s.logger.Error("completion reconcile failed",
			zap.Int64("user_id", profileID), zap.Error(err))
	}
}

func buildObjectKey(profileID int64, fileName string) string {
	ext := strings.ToLower(path.Ext(strings.TrimSpace(fileName)))
	if ext == "" {
		ext = ".bin"
	}
	return fmt.Sprintf("users/%d/photos/%s%s", profileID, uuid.NewString(), ext)
}

func toPhoto(rec PhotoRecord, url string) Photo {
	return Photo{
		ID:              rec.ID,
		Position:        rec.Position,
		IsPrimary:       rec.IsPrimary,
		Status:          rec.Status,
		RejectionReason: rec.RejectionReason,
		URL:             url,
		CreatedAt:       rec.CreatedAt,
	}
}

func MaxPhotos() int {
	return maxPhotos
}
