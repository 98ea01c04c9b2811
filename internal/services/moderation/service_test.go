package moderation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/marcucus/goldwen-backend/internal/domain/enums"
)

type recordingClassifier struct {
	mu      sync.Mutex
	texts   []string
	blockOn string
	err     error
}

func (c *recordingClassifier) ClassifyText(_ context.Context, text string) (Classification, error) {
	c.mu.Lock()
	c.texts = append(c.texts, text)
	c.mu.Unlock()

	if c.err != nil {
		return Classification{}, c.err
	}
	if c.blockOn != "" && strings.Contains(text, c.blockOn) {
		return Classification{
			Flagged:     true,
			ShouldBlock: true,
			Categories:  []enums.ContentCategory{enums.ContentCategoryHarassment},
			Reason:      "harassment",
		}, nil
	}
	return Classification{}, nil
}

func (c *recordingClassifier) ClassifyImage(_ context.Context, _ []byte, _ string) (Classification, error) {
	if c.err != nil {
		return Classification{}, c.err
	}
	if c.blockOn == "image" {
		return Classification{
			Flagged:     true,
			ShouldBlock: true,
			Categories:  []enums.ContentCategory{enums.ContentCategorySexuallyExplicit},
			Reason:      "explicit image",
		}, nil
	}
	return Classification{}, nil
}

func (c *recordingClassifier) classified() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.texts))
	copy(out, c.texts)
	return out
}

type fakePhotoStore struct {
	photos  map[int64]PhotoItem
	updates []struct {
		photoID int64
		status  enums.ModerationStatus
		reason  string
	}
}

func (f *fakePhotoStore) GetPhotoForModeration(_ context.Context, photoID int64) (PhotoItem, error) {
	photo, ok := f.photos[photoID]
	if !ok {
		return PhotoItem{}, ErrPhotoNotFound
	}
	return photo, nil
}

func (f *fakePhotoStore) SetModeration(_ context.Context, photoID int64, status enums.ModerationStatus, reason string) error {
	f.updates = append(f.updates, struct {
		photoID int64
		status  enums.ModerationStatus
		reason  string
	}{photoID, status, reason})

	photo := f.photos[photoID]
	photo.Status = status
	f.photos[photoID] = photo
	return nil
}

type fakeObjectSource struct{}

func (fakeObjectSource) GetObject(_ context.Context, _ string) ([]byte, string, error) {
	return []byte{0xFF, 0xD8}, "image/jpeg", nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []struct {
		userID int64
		title  string
	}
}

func (f *fakeNotifier) Notify(_ context.Context, userID int64, title, _ string, _ map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, struct {
		userID int64
		title  string
	}{userID, title})
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]Verdict
	hits    int
}

func (c *memoryCache) Get(_ context.Context, key string) (Verdict, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	verdict, ok := c.entries[key]
	if ok {
		c.hits++
	}
	return verdict, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, verdict Verdict) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = map[string]Verdict{}
	}
	c.entries[key] = verdict
	return nil
}

func newTestService(classifier Classifier, extra ...func(*Dependencies)) (*Service, *fakeNotifier) {
	notifier := &fakeNotifier{}
	deps := Dependencies{
		Blocklist:  NewBlocklist([]string{"badterm"}),
		Classifier: NewClassifierAdapter(classifier, FailOpen, nil),
		Notifier:   notifier,
	}
	for _, fn := range extra {
		fn(&deps)
	}
	return NewService(deps, Config{BatchConcurrency: 2}), notifier
}

func TestModerateTextBlocklistShortCircuitsClassifier(t *testing.T) {
	classifier := &recordingClassifier{}
	svc, notifier := newTestService(classifier)

	verdict := svc.ModerateText(context.Background(), "this has badterm inside", 42)
	if verdict.Approved {
		t.Fatalf("blocklisted text must be rejected")
	}
	if len(verdict.MatchedTerms) != 1 || verdict.MatchedTerms[0] != "badterm" {
		t.Fatalf("unexpected matched terms: %v", verdict.MatchedTerms)
	}
	if len(classifier.classified()) != 0 {
		t.Fatalf("classifier must not run for blocklisted text")
	}
	if len(notifier.calls) != 1 || notifier.calls[0].userID != 42 {
		t.Fatalf("expected one rejection notification for user 42, got %+v", notifier.calls)
	}
}

func TestModerateTextAnonymousRejectionSkipsNotification(t *testing.T) {
	svc, notifier := newTestService(&recordingClassifier{})

	verdict := svc.ModerateText(context.Background(), "badterm", 0)
	if verdict.Approved {
		t.Fatalf("expected rejection")
	}
	if len(notifier.calls) != 0 {
		t.Fatalf("anonymous moderation must not notify, got %+v", notifier.calls)
	}
}

func TestModerateTextApprovedCombinesBothStages(t *testing.T) {
	classifier := &recordingClassifier{}
	svc, notifier := newTestService(classifier)

	verdict := svc.ModerateText(context.Background(), "a friendly bio", 42)
	if !verdict.Approved {
		t.Fatalf("clean text must be approved: %+v", verdict)
	}
	if len(classifier.classified()) != 1 {
		t.Fatalf("classifier should have run once, ran %d times", len(classifier.classified()))
	}
	if len(notifier.calls) != 0 {
		t.Fatalf("approval must not notify")
	}
}

func TestModerateTextBatchPreservesOrderAndLength(t *testing.T) {
	classifier := &recordingClassifier{blockOn: "offensive"}
	svc, _ := newTestService(classifier)

	texts := []string{"badterm first", "clean one", "", "offensive words", "clean two"}
	verdicts := svc.ModerateTextBatch(context.Background(), texts)

	if len(verdicts) != len(texts) {
		t.Fatalf("expected %d verdicts, got %d", len(texts), len(verdicts))
	}
	if verdicts[0].Approved {
		t.Fatalf("blocklisted item must be rejected")
	}
	if !verdicts[1].Approved {
		t.Fatalf("clean item after a blocklist hit must still be classified and approved")
	}
	if !verdicts[2].Approved {
		t.Fatalf("empty string must yield an approved verdict")
	}
	if verdicts[3].Approved {
		t.Fatalf("classifier-flagged item must be rejected")
	}
	if !verdicts[4].Approved {
		t.Fatalf("trailing clean item must be approved")
	}

	// The blocklisted item must not reach the classifier, the rest must.
	classified := classifier.classified()
	if len(classified) != 3 {
		t.Fatalf("expected 3 classifier calls, got %d (%v)", len(classified), classified)
	}
	for _, text := range classified {
		if strings.Contains(text, "badterm") {
			t.Fatalf("blocklisted text leaked to classifier: %q", text)
		}
	}
}

func TestModerateTextBatchEmptyInput(t *testing.T) {
	svc, _ := newTestService(&recordingClassifier{})

	verdicts := svc.ModerateTextBatch(context.Background(), nil)
	if len(verdicts) != 0 {
		t.Fatalf("expected empty result for empty batch, got %d", len(verdicts))
	}
}

func TestModerateTextFailOpenApprovesButFlagsReview(t *testing.T) {
	classifier := &recordingClassifier{err: errors.New("boom")}
	svc, _ := newTestService(classifier)

	verdict := svc.ModerateText(context.Background(), "anything", 1)
	if !verdict.Approved {
		t.Fatalf("fail-open verdict must approve")
	}
	if !verdict.NeedsReview {
		t.Fatalf("fail-open verdict must flag manual review")
	}
}

func TestModerateTextFailClosedRejects(t *testing.T) {
	classifier := &recordingClassifier{err: errors.New("boom")}
	notifier := &fakeNotifier{}
	svc := NewService(Dependencies{
		Blocklist:  NewBlocklist(nil),
		Classifier: NewClassifierAdapter(classifier, FailClosed, nil),
		Notifier:   notifier,
	}, Config{})

	verdict := svc.ModerateText(context.Background(), "anything", 7)
	if verdict.Approved {
		t.Fatalf("fail-closed verdict must reject")
	}
	if len(notifier.calls) != 1 {
		t.Fatalf("rejection must notify the user")
	}
}

func TestModerateTextUsesVerdictCache(t *testing.T) {
	classifier := &recordingClassifier{}
	cache := &memoryCache{}
	svc, _ := newTestService(classifier, func(d *Dependencies) { d.Cache = cache })

	text := "a repeated clean bio"
	svc.ModerateText(context.Background(), text, 0)
	svc.ModerateText(context.Background(), text, 0)

	if got := len(classifier.classified()); got != 1 {
		t.Fatalf("second call should hit the cache, classifier ran %d times", got)
	}
	if cache.hits != 1 {
		t.Fatalf("expected exactly one cache hit, got %d", cache.hits)
	}
}

func TestModerateTextDoesNotCacheFailOpenVerdicts(t *testing.T) {
	classifier := &recordingClassifier{err: errors.New("down")}
	cache := &memoryCache{}
	svc, _ := newTestService(classifier, func(d *Dependencies) { d.Cache = cache })

	svc.ModerateText(context.Background(), "some text", 0)
	if len(cache.entries) != 0 {
		t.Fatalf("provisional verdicts must not be cached")
	}
}

func TestModeratePhotoApprovesAndRejects(t *testing.T) {
	store := &fakePhotoStore{photos: map[int64]PhotoItem{
		10: {ID: 10, ProfileID: 5, ObjectKey: "users/5/photos/a.jpg", Status: enums.ModerationStatusPending},
	}}
	classifier := &recordingClassifier{}
	notifier := &fakeNotifier{}
	svc := NewService(Dependencies{
		Blocklist:  NewBlocklist(nil),
		Classifier: NewClassifierAdapter(classifier, FailOpen, nil),
		Photos:     store,
		Objects:    fakeObjectSource{},
		Notifier:   notifier,
	}, Config{})

	result, err := svc.ModeratePhoto(context.Background(), 10)
	if err != nil {
		t.Fatalf("moderate photo: %v", err)
	}
	if !result.Approved {
		t.Fatalf("clean image must be approved")
	}
	if len(notifier.calls) != 0 {
		t.Fatalf("approval must not notify")
	}

	// Second run with a stricter policy flips the verdict; the operation is
	// a pure re-evaluation of current state.
	classifier.blockOn = "image"
	result, err = svc.ModeratePhoto(context.Background(), 10)
	if err != nil {
		t.Fatalf("re-moderate photo: %v", err)
	}
	if result.Approved {
		t.Fatalf("flagged image must be rejected on re-run")
	}
	if store.photos[10].Status != enums.ModerationStatusRejected {
		t.Fatalf("rejection must be written back, got %s", store.photos[10].Status)
	}
	if len(notifier.calls) != 1 || notifier.calls[0].userID != 5 {
		t.Fatalf("rejected photo must notify its owner, got %+v", notifier.calls)
	}
}

func TestModeratePhotoNotFound(t *testing.T) {
	svc := NewService(Dependencies{
		Blocklist:  NewBlocklist(nil),
		Classifier: NewClassifierAdapter(&recordingClassifier{}, FailOpen, nil),
		Photos:     &fakePhotoStore{photos: map[int64]PhotoItem{}},
		Objects:    fakeObjectSource{},
	}, Config{})

	if _, err := svc.ModeratePhoto(context.Background(), 99); !errors.Is(err, ErrPhotoNotFound) {
		t.Fatalf("expected ErrPhotoNotFound, got %v", err)
	}
}
