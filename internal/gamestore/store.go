// Package gamestore mirrors live tables into Redis so operators can inspect
// running games. The mirror is write-behind: game flow never waits on it.
package gamestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/park285/checkers-server/internal/lobby"
)

// ErrStale reports a snapshot whose version is not newer than the stored one.
var ErrStale = errors.New("stale table snapshot")

const defaultTTL = 24 * time.Hour

// Store persists table snapshots.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// New connects to redisURL (redis:// or rediss://) and pings it.
func New(ctx context.Context, redisURL string, ttl time.Duration) (*Store, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for table mirror")
	}
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewWithClient(rdb, ttl), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

// Save writes snap if its version is newer than the stored copy. Closed
// tables leave the active index but their final snapshot is kept until TTL.
func (s *Store) Save(ctx context.Context, snap lobby.TableSnapshot) error {
	if strings.TrimSpace(snap.ID) == "" {
		return fmt.Errorf("table id required")
	}
	key := tableKey(snap.ID)
	raw, err := json.Marshal(&snap)
	if err != nil {
		return err
	}
	// optimistic concurrency on the table key
	return s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			var stored lobby.TableSnapshot
			if jerr := json.Unmarshal(cur, &stored); jerr == nil && stored.Version >= snap.Version {
				return ErrStale
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, s.ttl)
			if snap.Closed {
				pipe.SRem(ctx, activeKey, snap.ID)
			} else {
				pipe.SAdd(ctx, activeKey, snap.ID)
			}
			return nil
		})
		return err
	}, key)
}

// Get returns the stored snapshot, or nil when absent.
func (s *Store) Get(ctx context.Context, id string) (*lobby.TableSnapshot, error) {
	raw, err := s.rdb.Get(ctx, tableKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap lobby.TableSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// ListActive returns every indexed open table, oldest first. Index entries
// whose snapshot expired are pruned.
func (s *Store) ListActive(ctx context.Context) ([]lobby.TableSnapshot, error) {
	ids, err := s.rdb.SMembers(ctx, activeKey).Result()
	if err != nil {
		return nil, err
	}
	out := make([]lobby.TableSnapshot, 0, len(ids))
	for _, id := range ids {
		snap, gerr := s.Get(ctx, id)
		if gerr != nil {
			return nil, gerr
		}
		if snap == nil || snap.Closed {
			_ = s.rdb.SRem(ctx, activeKey, id).Err()
			continue
		}
		out = append(out, *snap)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out, nil
}

const activeKey = "checkers:tables:active"

func tableKey(id string) string { return "checkers:table:" + strings.TrimSpace(id) }

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redis db %q", p)
		}
		db = n
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Username: u.User.Username(), Password: pass, DB: db}, nil
}
