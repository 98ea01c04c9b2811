package moderation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/marcucus/goldwen-backend/internal/domain/enums"
)

var ErrPhotoNotFound = errors.New("photo not found")

// Verdict is the outcome of passing one content item through the pipeline.
// It is immutable once returned and never persisted.
type Verdict struct {
	Approved     bool
	Reason       string
	MatchedTerms []string
	Categories   []enums.ContentCategory
	NeedsReview  bool
}

type PhotoResult struct {
	PhotoID  int64
	Approved bool
	Reason   string
}

type PhotoItem struct {
	ID        int64
	ProfileID int64
	ObjectKey string
	Status    enums.ModerationStatus
}

type PhotoStore interface {
	GetPhotoForModeration(ctx context.Context, photoID int64) (PhotoItem, error)
	SetModeration(ctx context.Context, photoID int64, status enums.ModerationStatus, reason string) error
}

type ObjectSource interface {
	GetObject(ctx context.Context, key string) (data []byte, contentType string, err error)
}

type VerdictCache interface {
	Get(ctx context.Context, key string) (Verdict, bool, error)
	Set(ctx context.Context, key string, verdict Verdict) error
}

type Notifier interface {
	Notify(ctx context.Context, userID int64, title, body string, data map[string]string)
}

type Dependencies struct {
	Blocklist  *Blocklist
	Classifier *ClassifierAdapter
	Photos     PhotoStore
	Objects    ObjectSource
	Cache      VerdictCache
	Notifier   Notifier
	Logger     *zap.Logger
}

type Config struct {
	BatchConcurrency int
}

// Service runs the layered moderation pipeline: the deterministic blocklist
// filter first (cheap, zero false-negative tolerance for legally mandated
// terms), then the external classifier only for items the blocklist passed.
type Service struct {
	blocklist        *Blocklist
	classifier       *ClassifierAdapter
	photos           PhotoStore
	objects          ObjectSource
	cache            VerdictCache
	notifier         Notifier
	logger           *zap.Logger
	batchConcurrency int
}

func NewService(deps Dependencies, cfg Config) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	concurrency := cfg.BatchConcurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	return &Service{
		blocklist:        deps.Blocklist,
		classifier:       deps.Classifier,
		photos:           deps.Photos,
		objects:          deps.Objects,
		cache:            deps.Cache,
		notifier:         deps.Notifier,
		logger:           logger,
		batchConcurrency: concurrency,
	}
}

// ModerateText screens a single text item. A userID of 0 means anonymous:
// no rejection notification is emitted. The notification side effect is
// best-effort and never changes the returned verdict.
func (s *Service) ModerateText(ctx context.Context, text string, userID int64) Verdict {
	verdict := s.moderateOne(ctx, text)
	if !verdict.Approved {
		s.notifyTextRejection(ctx, userID, verdict)
	}
	return verdict
}

// ModerateTextBatch returns exactly one verdict per input, in input order.
// Blocklisted items are rejected without classifier spend, but the remaining
// items are still classified independently; a blocklist hit never aborts the
// rest of the batch.
func (s *Service) ModerateTextBatch(ctx context.Context, texts []string) []Verdict {
	verdicts := make([]Verdict, len(texts))

	var pending []int
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			verdicts[i] = Verdict{Approved: true}
			continue
		}
		if result := s.checkBlocklist(text); result.Blocked {
			verdicts[i] = blocklistVerdict(result)
			continue
		}
		pending = append(pending, i)
	}

	if len(pending) == 0 {
		return verdicts
	}

	// Classify the surviving items in parallel, bounded so a large batch
	// cannot overwhelm the classifier. Each goroutine owns its slot, so
	// the order mapping holds regardless of completion order.
	sem := make(chan struct{}, s.batchConcurrency)
	var wg sync.WaitGroup
	for _, idx := range pending {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			verdicts[i] = s.classifyText(ctx, texts[i])
		}(idx)
	}
	wg.Wait()

	return verdicts
}

// ModeratePhoto runs the image classification pass for a stored photo and
// writes the outcome back. Safe to invoke repeatedly: every run re-evaluates
// the photo against the current policy.
func (s *Service) ModeratePhoto(ctx context.Context, photoID int64) (PhotoResult, error) {
	if photoID <= 0 {
		return PhotoResult{}, fmt.Errorf("invalid photo id")
	}
	if s.photos == nil || s.objects == nil {
		return PhotoResult{}, fmt.Errorf("photo moderation dependencies are not configured")
	}

	photo, err := s.photos.GetPhotoForModeration(ctx, photoID)
	if err != nil {
		return PhotoResult{}, err
	}

	data, contentType, err := s.objects.GetObject(ctx, photo.ObjectKey)
	if err != nil {
		return PhotoResult{}, fmt.Errorf("load photo object: %w", err)
	}

	classification := s.classifier.ClassifyImage(ctx, data, contentType)

	status := enums.ModerationStatusApproved
	reason := ""
	if classification.ShouldBlock {
		status = enums.ModerationStatusRejected
		reason = classification.Reason
		if reason == "" {
			reason = flaggedCategoriesReason(classification.Categories)
		}
	}

	if err := s.photos.SetModeration(ctx, photoID, status, reason); err != nil {
		return PhotoResult{}, fmt.Errorf("write photo moderation verdict: %w", err)
	}

	if status == enums.ModerationStatusRejected {
		s.logger.Info("photo rejected",
			zap.Int64("photo_id", photoID),
			zap.Int64("user_id", photo.ProfileID),
			zap.String("reason", reason),
		)
		if s.notifier != nil {
			s.notifier.Notify(context.WithoutCancel(ctx), photo.ProfileID, rejectedPhotoTitle, rejectedPhotoBody(reason), map[string]string{
				"photo_id": strconv.FormatInt(photoID, 10),
			})
		}
	}

	return PhotoResult{
		PhotoID:  photoID,
		Approved: status == enums.ModerationStatusApproved,
		Reason:   reason,
	}, nil
}

func (s *Service) moderateOne(ctx context.Context, text string) Verdict {
	if strings.TrimSpace(text) == "" {
		return Verdict{Approved: true}
	}

	if result := s.checkBlocklist(text); result.Blocked {
		return blocklistVerdict(result)
	}

	return s.classifyText(ctx, text)
}

func (s *Service) checkBlocklist(text string) BlocklistResult {
	if s.blocklist == nil {
		return BlocklistResult{}
	}
	return s.blocklist.Check(text)
}

func (s *Service) classifyText(ctx context.Context, text string) Verdict {
	key := verdictCacheKey(text)

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("verdict cache read failed", zap.Error(err))
		} else if ok {
			return cached
		}
	}

	classification := s.classifier.ClassifyText(ctx, text)
	verdict := verdictFromClassification(classification)

	// Fail-open verdicts are provisional: never cache them, the next
	// attempt should hit the real classifier.
	if s.cache != nil && !classification.NeedsReview {
		if err := s.cache.Set(ctx, key, verdict); err != nil {
			s.logger.Warn("verdict cache write failed", zap.Error(err))
		}
	}

	return verdict
}

func (s *Service) notifyTextRejection(ctx context.Context, userID int64, verdict Verdict) {
	s.logger.Info("text content rejected",
		zap.Int64("user_id", userID),
		zap.String("reason", verdict.Reason),
		zap.Strings("matched_terms", verdict.MatchedTerms),
	)

	if s.notifier == nil || userID <= 0 {
		return
	}
	s.notifier.Notify(context.WithoutCancel(ctx), userID, rejectedTextTitle, rejectedTextBody(verdict.Reason), nil)
}

func blocklistVerdict(result BlocklistResult) Verdict {
	return Verdict{
		Approved:     false,
		Reason:       result.Reason,
		MatchedTerms: result.FoundTerms,
		Categories:   []enums.ContentCategory{enums.ContentCategoryBlocklist},
	}
}

func verdictFromClassification(c Classification) Verdict {
	verdict := Verdict{
		Approved:    !c.ShouldBlock,
		Categories:  c.Categories,
		NeedsReview: c.NeedsReview,
	}
	if !verdict.Approved {
		verdict.Reason = c.Reason
		if verdict.Reason == "" {
			verdict.Reason = flaggedCategoriesReason(c.Categories)
		}
	}
	return verdict
}

func verdictCacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "text:" + hex.EncodeToString(sum[:])
}
