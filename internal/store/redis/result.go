package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/enumlive/internal/domain"
)

// DefaultResultTTL is the default expiry of mirrored results (24 hours)
const DefaultResultTTL = 24 * time.Hour

// ErrNotFound is returned when a hostname has no stored result.
var ErrNotFound = errors.New("result not found")

// Store mirrors probe results into Redis
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a new Redis store. A non-positive ttl selects DefaultResultTTL.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultResultTTL
	}
	return &Store{
		client: client,
		ttl:    ttl,
	}
}

// SaveResult stores the result under its host key and appends the hostname
// to the scan's completion-order list. Both writes share one transaction.
func (s *Store) SaveResult(ctx context.Context, scanID string, result domain.ProbeResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	order := ScanOrderKey(scanID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, HostKey(result.Hostname), data, s.ttl)
		pipe.RPush(ctx, order, result.Hostname)
		pipe.Expire(ctx, order, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}

// GetResult retrieves the latest stored result for a hostname
func (s *Store) GetResult(ctx context.Context, hostname string) (*domain.ProbeResult, error) {
	data, err := s.client.Get(ctx, HostKey(hostname)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, hostname)
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	var result domain.ProbeResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &result, nil
}

// GetScanResults returns the results of a scan in completion order.
// Each entry is the latest result for that hostname; expired hosts are skipped.
func (s *Store) GetScanResults(ctx context.Context, scanID string) ([]domain.ProbeResult, error) {
	hosts, err := s.client.LRange(ctx, ScanOrderKey(scanID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get scan order: %w", err)
	}
	if len(hosts) == 0 {
		return []domain.ProbeResult{}, nil
	}

	keys := make([]string, len(hosts))
	for i, h := range hosts {
		keys[i] = HostKey(h)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get results: %w", err)
	}

	results := make([]domain.ProbeResult, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var r domain.ProbeResult
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			continue
		}
		results = append(results, r)
	}
	return results, nil
}
