package redis

import (
	"context"
	"fmt"
	"time"
)

// ScanMeta describes one run of the scanner.
type ScanMeta struct {
	ID         string `redis:"id" json:"id"`
	InputFile  string `redis:"input_file" json:"input_file"`
	Total      int    `redis:"total" json:"total"`
	StartedAt  int64  `redis:"started_at" json:"started_at"`   // unix seconds
	FinishedAt int64  `redis:"finished_at" json:"finished_at"` // 0 while running
	Live       int    `redis:"live" json:"live"`
	Down       int    `redis:"down" json:"down"`
}

// SaveScanMeta writes meta under its scan key with the store TTL
func (s *Store) SaveScanMeta(ctx context.Context, meta ScanMeta) error {
	key := ScanMetaKey(meta.ID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, meta)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save scan meta: %w", err)
	}
	return nil
}

// FinishScan records the outcome counts and completion time of a scan
func (s *Store) FinishScan(ctx context.Context, scanID string, live, down int, at time.Time) error {
	err := s.client.HSet(ctx, ScanMetaKey(scanID),
		"live", live,
		"down", down,
		"finished_at", at.Unix(),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to finish scan: %w", err)
	}
	return nil
}

// GetScanMeta retrieves scan metadata
func (s *Store) GetScanMeta(ctx context.Context, scanID string) (*ScanMeta, error) {
	cmd := s.client.HGetAll(ctx, ScanMetaKey(scanID))
	fields, err := cmd.Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get scan meta: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: scan %s", ErrNotFound, scanID)
	}

	var meta ScanMeta
	if err := cmd.Scan(&meta); err != nil {
		return nil, fmt.Errorf("failed to decode scan meta: %w", err)
	}
	return &meta, nil
}
