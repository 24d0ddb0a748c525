package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

// Namespaces partition the registry. Jobs holds scheduler ownership of
// documents; Intake holds the per-org content hash gate.
const (
	NamespaceJobs   = "jobs"
	NamespaceIntake = "intake"
)

// ErrNotFound is returned when no entry is registered under an id.
var ErrNotFound = errors.New("registry entry not found")

// State is the lifecycle of an entry.
type State string

const (
	StateRunning State = "RUNNING"
	StateFailed  State = "FAILED"
)

// Entry is the msgpack-encoded value stored per id.
type Entry struct {
	ID         string    `msgpack:"id" json:"id"`
	Owner      string    `msgpack:"owner" json:"owner"`
	State      State     `msgpack:"state" json:"state"`
	RetryCount int       `msgpack:"retry_count" json:"retry_count"`
	LastRun    time.Time `msgpack:"last_run" json:"last_run"`
	Error      string    `msgpack:"error,omitempty" json:"error,omitempty"`
	CreatedAt  time.Time `msgpack:"created_at" json:"created_at"`
}

// Registry is the shared in-flight registry. AddIfAbsent and Remove are the
// primitives every owner relies on; Swap lets a single caller take over a
// stale entry without racing other takers.
type Registry interface {
	AddIfAbsent(ctx context.Context, ns string, e Entry) (bool, error)
	Get(ctx context.Context, ns, id string) (*Entry, error)
	Put(ctx context.Context, ns string, e Entry) error
	Swap(ctx context.Context, ns string, old, next Entry) (bool, error)
	Remove(ctx context.Context, ns, id string) error
	List(ctx context.Context, ns string) ([]Entry, error)
	Count(ctx context.Context, ns string) (int, error)
}

// Redis implements Registry on a Redis server. Entries live under
// <prefix>:<ns>:<id>; the set <prefix>:<ns> indexes them for listing.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis wraps a connected client.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "remitapi"
	}
	return &Redis{client: client, prefix: prefix}
}

var _ Registry = (*Redis)(nil)

func (r *Redis) entryKey(ns, id string) string { return fmt.Sprintf("%s:%s:%s", r.prefix, ns, id) }

func (r *Redis) indexKey(ns string) string { return fmt.Sprintf("%s:%s", r.prefix, ns) }

func encode(e Entry) ([]byte, error) {
	b, err := msgpack.Marshal(&e)
	if err != nil {
		return nil, fmt.Errorf("encode registry entry %s: %w", e.ID, err)
	}
	return b, nil
}

func decode(b []byte) (*Entry, error) {
	var e Entry
	if err := msgpack.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("decode registry entry: %w", err)
	}
	return &e, nil
}

// AddIfAbsent stores e only when its id is not registered. It reports whether
// the caller now owns the entry.
func (r *Redis) AddIfAbsent(ctx context.Context, ns string, e Entry) (bool, error) {
	b, err := encode(e)
	if err != nil {
		return false, err
	}
	ok, err := r.client.SetNX(ctx, r.entryKey(ns, e.ID), b, 0).Result()
	if err != nil {
		return false, fmt.Errorf("registry add %s/%s: %w", ns, e.ID, err)
	}
	if !ok {
		return false, nil
	}
	if err := r.client.SAdd(ctx, r.indexKey(ns), e.ID).Err(); err != nil {
		return true, fmt.Errorf("registry index %s/%s: %w", ns, e.ID, err)
	}
	return true, nil
}

func (r *Redis) Get(ctx context.Context, ns, id string) (*Entry, error) {
	b, err := r.client.Get(ctx, r.entryKey(ns, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("registry get %s/%s: %w", ns, id, err)
	}
	return decode(b)
}

// Put overwrites an entry unconditionally.
func (r *Redis) Put(ctx context.Context, ns string, e Entry) error {
	b, err := encode(e)
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.entryKey(ns, e.ID), b, 0)
		p.SAdd(ctx, r.indexKey(ns), e.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("registry put %s/%s: %w", ns, e.ID, err)
	}
	return nil
}

// Swap replaces old with next only if the stored entry still encodes to old.
func (r *Redis) Swap(ctx context.Context, ns string, old, next Entry) (bool, error) {
	want, err := encode(old)
	if err != nil {
		return false, err
	}
	b, err := encode(next)
	if err != nil {
		return false, err
	}
	key := r.entryKey(ns, next.ID)

	swapped := false
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		if string(cur) != string(want) {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, b, 0)
			p.SAdd(ctx, r.indexKey(ns), next.ID)
			return nil
		})
		if err != nil {
			return err
		}
		swapped = true
		return nil
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("registry swap %s/%s: %w", ns, next.ID, err)
	}
	return swapped, nil
}

func (r *Redis) Remove(ctx context.Context, ns, id string) error {
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, r.entryKey(ns, id))
		p.SRem(ctx, r.indexKey(ns), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("registry remove %s/%s: %w", ns, id, err)
	}
	return nil
}

// List returns every entry of a namespace. Index members whose entry vanished
// are pruned.
func (r *Redis) List(ctx context.Context, ns string) ([]Entry, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey(ns)).Result()
	if err != nil {
		return nil, fmt.Errorf("registry list %s: %w", ns, err)
	}
	out := make([]Entry, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.entryKey(ns, id)
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("registry list %s: %w", ns, err)
	}

	stale := make([]any, 0)
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		e, err := decode([]byte(s))
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	if len(stale) > 0 {
		_ = r.client.SRem(ctx, r.indexKey(ns), stale...).Err()
	}
	return out, nil
}

func (r *Redis) Count(ctx context.Context, ns string) (int, error) {
	n, err := r.client.SCard(ctx, r.indexKey(ns)).Result()
	if err != nil {
		return 0, fmt.Errorf("registry count %s: %w", ns, err)
	}
	return int(n), nil
}

// Connect dials Redis and verifies the connection.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}
