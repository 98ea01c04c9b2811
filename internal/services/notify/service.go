package notify

import (
	"context"

	"go.uber.org/zap"
)

// DeviceStore resolves a user's registered device tokens.
type DeviceStore interface {
	ListTokens(ctx context.Context, userID int64) ([]string, error)
}

// Sender delivers one push to one device.
type Sender interface {
	Send(ctx context.Context, deviceToken, title, body string, data map[string]string) error
}

// Service fans a notification out to every device a user has registered.
// Delivery is best effort: failures are logged and never surface to the
// caller, a moderation verdict must not fail because a push did.
type Service struct {
	devices DeviceStore
	sender  Sender
	logger  *zap.Logger
}

func NewService(devices DeviceStore, sender Sender, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{devices: devices, sender: sender, logger: logger}
}

func (s *Service) Notify(ctx context.Context, userID int64, title, body string, data map[string]string) {
	if s.devices == nil || s.sender == nil || userID <= 0 {
		return
	}

	tokens, err := s.devices.ListTokens(ctx, userID)
	if err != nil {
		s.logger.Error("list device tokens", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	if len(tokens) == 0 {
		return
	}

	for _, token := range tokens {
		if err := s.sender.Send(ctx, token, title, body, data); err != nil {
			s.logger.Warn("push delivery failed",
				zap.Int64("user_id", userID), zap.Error(err))
		}
	}
}

// Nop drops every notification. Used when push credentials are absent.
type Nop struct{}

func (Nop) Notify(context.Context, int64, string, string, map[string]string) {}
