package moderation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/marcucus/goldwen-backend/internal/domain/enums"
)

// Classification is the normalized output of the external content
// classifier, independent of the provider's raw category vocabulary.
type Classification struct {
	Flagged     bool
	Categories  []enums.ContentCategory
	ShouldBlock bool
	Reason      string
	// NeedsReview marks verdicts produced while the classifier was
	// unavailable (fail-open policy), so they can be routed to manual
	// review instead of being trusted.
	NeedsReview bool
}

// Classifier is the external text/image classification capability.
type Classifier interface {
	ClassifyText(ctx context.Context, text string) (Classification, error)
	ClassifyImage(ctx context.Context, data []byte, mimeType string) (Classification, error)
}

type FailPolicy string

const (
	FailOpen   FailPolicy = "open"
	FailClosed FailPolicy = "closed"
)

func ParseFailPolicy(raw string) (FailPolicy, error) {
	switch FailPolicy(raw) {
	case FailOpen, FailClosed:
		return FailPolicy(raw), nil
	default:
		return "", fmt.Errorf("unknown fail policy %q", raw)
	}
}

// ClassifierAdapter shields callers from classifier failures: a dependency
// error never propagates, it is converted into a policy-driven verdict. The
// same policy applies on the single and batch paths since the batch path is
// built on top of this adapter.
type ClassifierAdapter struct {
	classifier Classifier
	policy     FailPolicy
	logger     *zap.Logger
}

func NewClassifierAdapter(classifier Classifier, policy FailPolicy, logger *zap.Logger) *ClassifierAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy == "" {
		policy = FailOpen
	}

	return &ClassifierAdapter{
		classifier: classifier,
		policy:     policy,
		logger:     logger,
	}
}

func (a *ClassifierAdapter) ClassifyText(ctx context.Context, text string) Classification {
	if a.classifier == nil {
		return a.unavailable(fmt.Errorf("classifier is not configured"))
	}

	result, err := a.classifier.ClassifyText(ctx, text)
	if err != nil {
		return a.unavailable(err)
	}

	return result
}

func (a *ClassifierAdapter) ClassifyImage(ctx context.Context, data []byte, mimeType string) Classification {
	if a.classifier == nil {
		return a.unavailable(fmt.Errorf("classifier is not configured"))
	}

	result, err := a.classifier.ClassifyImage(ctx, data, mimeType)
	if err != nil {
		return a.unavailable(err)
	}

	return result
}

func (a *ClassifierAdapter) unavailable(err error) Classification {
	a.logger.Warn("content classifier unavailable", zap.Error(err), zap.String("policy", string(a.policy)))

	if a.policy == FailClosed {
		return Classification{
			Flagged:     true,
			ShouldBlock: true,
			Reason:      classifierUnavailableReason,
			NeedsReview: true,
		}
	}

	return Classification{
		Reason:      classifierUnavailableReason,
		NeedsReview: true,
	}
}
