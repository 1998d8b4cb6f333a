package state

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/thewebartisan7/platform/cache"
	"github.com/thewebartisan7/platform/idgen"
)

// KeyPrefix starts every snapshot key. The full format is
// "screen-<principalID>-<random suffix>".
const KeyPrefix = "screen-"

// Store persists screen-state snapshots in a shared cache. Keys are
// single-use: Restore consumes the entry it reads.
type Store struct {
	cache  cache.Cache
	ttl    time.Duration
	suffix idgen.Generator
	logger *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithTTL sets how long an unconsumed snapshot survives. This should match
// the host's session lifetime. Default: 30 minutes.
func WithTTL(d time.Duration) StoreOption {
	return func(s *Store) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithKeySuffix sets the generator for the random key suffix.
func WithKeySuffix(gen idgen.Generator) StoreOption {
	return func(s *Store) { s.suffix = gen }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// NewStore creates a Store over the given cache.
func NewStore(c cache.Cache, opts ...StoreOption) *Store {
	s := &Store{
		cache:  c,
		ttl:    30 * time.Minute,
		suffix: idgen.NanoID(13),
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Persist stores a snapshot under a fresh key scoped to the principal and
// returns the key. The caller embeds the key in rendered output (the
// "_screen" hidden field) so the next state-changing request can present it.
func (s *Store) Persist(ctx context.Context, principalID string, snapshot map[string]any) (string, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("state: encode snapshot: %w", err)
	}

	key := KeyPrefix + principalID + "-" + s.suffix()
	if err := s.cache.SetWithTTL(ctx, key, data, s.ttl); err != nil {
		return "", fmt.Errorf("state: persist %s: %w", key, err)
	}
	return key, nil
}

// Restore consumes and returns the snapshot stored under key. A key is
// single-use: the entry is gone after the first successful Restore. Absent
// or expired keys yield an empty snapshot, not an error — an expired session
// simply starts from defaults.
func (s *Store) Restore(ctx context.Context, key string) (map[string]any, error) {
	if key == "" {
		return map[string]any{}, nil
	}

	data, ok, err := s.cache.GetAndDelete(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("state: restore %s: %w", key, err)
	}
	if !ok {
		s.logger.Debug("state snapshot absent or expired", "key", key)
		return map[string]any{}, nil
	}

	var snapshot map[string]any
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("state: decode snapshot %s: %w", key, err)
	}
	if snapshot == nil {
		snapshot = map[string]any{}
	}
	return snapshot, nil
}
