package storage

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"kanban-api/domain"
)

const (
	stateKey     = "kanban-state-v2"
	backupPrefix = "kanban-backup-"

	// DefaultBackupRetain is how many snapshots survive rotation.
	DefaultBackupRetain = 5
)

// Store persists the board record under a fixed key and keeps rotating
// timestamped backup snapshots, all in redis.
type Store struct {
	redis  *redis.Client
	retain int
}

// New creates a Store using the provided redis client. retain <= 0 selects
// the default backup retention.
func New(client *redis.Client, retain int) *Store {
	if client == nil {
		panic("storage.New: redis client is nil")
	}
	if retain <= 0 {
		retain = DefaultBackupRetain
	}
	return &Store{redis: client, retain: retain}
}

// Load reads the board record. ok is false when no record exists yet.
func (s *Store) Load(ctx context.Context) (domain.BoardState, bool, error) {
	data, err := s.redis.Get(ctx, stateKey).Bytes()
	if err == redis.Nil {
		return domain.BoardState{}, false, nil
	}
	if err != nil {
		return domain.BoardState{}, false, err
	}
	var state domain.BoardState
	if err := json.Unmarshal(data, &state); err != nil {
		return domain.BoardState{}, false, err
	}
	return state, true, nil
}

// Save writes the board record.
func (s *Store) Save(ctx context.Context, state domain.BoardState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, stateKey, data, 0).Err()
}

var lastBackupStamp int64

// nextBackupStamp returns a strictly increasing millisecond stamp so two
// snapshots taken in the same millisecond never share a key.
func nextBackupStamp() int64 {
	for {
		now := time.Now().UnixMilli()
		last := atomic.LoadInt64(&lastBackupStamp)
		if now <= last {
			now = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastBackupStamp, last, now) {
			return now
		}
	}
}

type snapshot struct {
	Timestamp string            `json:"timestamp"`
	Data      domain.BoardState `json:"data"`
}

// CreateBackup stores a timestamped snapshot of the given state and rotates
// old snapshots away, keeping only the newest ones.
func (s *Store) CreateBackup(ctx context.Context, state domain.BoardState) (string, error) {
	snap := snapshot{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      state,
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return "", err
	}
	key := backupPrefix + strconv.FormatInt(nextBackupStamp(), 10)
	if err := s.redis.Set(ctx, key, data, 0).Err(); err != nil {
		return "", err
	}
	if err := s.rotateBackups(ctx); err != nil {
		return key, err
	}
	return key, nil
}

// ListBackups returns the stored snapshots, newest first.
func (s *Store) ListBackups(ctx context.Context) ([]domain.BackupInfo, error) {
	keys, err := s.backupKeys(ctx)
	if err != nil {
		return nil, err
	}
	infos := make([]domain.BackupInfo, 0, len(keys))
	for _, key := range keys {
		data, err := s.redis.Get(ctx, key).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, err
		}
		var snap snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			// A corrupt snapshot is skipped, not fatal.
			continue
		}
		infos = append(infos, domain.BackupInfo{Key: key, Timestamp: snap.Timestamp})
	}
	return infos, nil
}

// RestoreBackup loads the snapshot stored under key. ok is false when the
// key does not exist.
func (s *Store) RestoreBackup(ctx context.Context, key string) (domain.BoardState, bool, error) {
	data, err := s.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return domain.BoardState{}, false, nil
	}
	if err != nil {
		return domain.BoardState{}, false, err
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.BoardState{}, false, err
	}
	return snap.Data, true, nil
}

// backupKeys returns backup keys sorted newest first. Keys embed a
// millisecond timestamp, so reverse lexicographic order is chronological
// for keys of equal length and numeric comparison covers the rest.
func (s *Store) backupKeys(ctx context.Context) ([]string, error) {
	keys, err := s.redis.Keys(ctx, backupPrefix+"*").Result()
	if err != nil {
		return nil, err
	}
	sort.Slice(keys, func(i, j int) bool {
		a, _ := strconv.ParseInt(keys[i][len(backupPrefix):], 10, 64)
		b, _ := strconv.ParseInt(keys[j][len(backupPrefix):], 10, 64)
		return a > b
	})
	return keys, nil
}

func (s *Store) rotateBackups(ctx context.Context) error {
	keys, err := s.backupKeys(ctx)
	if err != nil {
		return err
	}
	if len(keys) <= s.retain {
		return nil
	}
	return s.redis.Del(ctx, keys[s.retain:]...).Err()
}
