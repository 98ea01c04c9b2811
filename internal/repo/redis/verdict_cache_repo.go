package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	modsvc "github.com/marcucus/goldwen-backend/internal/services/moderation"
)

const verdictKeyPrefix = "modverdict:"

// VerdictCacheRepo stores moderation verdicts keyed by content hash so
// identical text never hits the classifier twice within the TTL.
type VerdictCacheRepo struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewVerdictCacheRepo(client *goredis.Client, ttl time.Duration) *VerdictCacheRepo {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &VerdictCacheRepo{client: client, ttl: ttl}
}

func (r *VerdictCacheRepo) Get(ctx context.Context, key string) (modsvc.Verdict, bool, error) {
	if r.client == nil {
		return modsvc.Verdict{}, false, fmt.Errorf("redis client is nil")
	}
	if key == "" {
		return modsvc.Verdict{}, false, fmt.Errorf("cache key is required")
	}

	raw, err := r.client.Get(ctx, verdictKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return modsvc.Verdict{}, false, nil
		}
		return modsvc.Verdict{}, false, fmt.Errorf("get cached verdict: %w", err)
	}

	var verdict modsvc.Verdict
	if err := json.Unmarshal(raw, &verdict); err != nil {
		// A corrupt entry reads as a miss and gets overwritten.
		return modsvc.Verdict{}, false, nil
	}

	return verdict, true, nil
}

func (r *VerdictCacheRepo) Set(ctx context.Context, key string, verdict modsvc.Verdict) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if key == "" {
		return fmt.Errorf("cache key is required")
	}

	raw, err := json.Marshal(verdict)
	if err != nil {
		return fmt.Errorf("marshal verdict: %w", err)
	}

	if err := r.client.Set(ctx, verdictKeyPrefix+key, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("set cached verdict: %w", err)
	}

	return nil
}
