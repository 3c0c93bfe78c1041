package blob

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/pixelforge/pkg/errors"
)

// RedisStore keeps each blob in a Redis string and indexes names in a sorted
// set scored by the last write time.
type RedisStore struct {
	client  *redis.Client
	prefix  string
	baseURL string
}

// NewRedisStore wraps client. Keys are "<prefix>blob:<name>" and the index
// is "<prefix>blobs".
func NewRedisStore(client *redis.Client, prefix, baseURL string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, baseURL: baseURL}
}

// DialRedisStore connects to addr and verifies the connection with PING.
func DialRedisStore(ctx context.Context, addr, password string, db int, prefix, baseURL string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to redis at %s", addr)
	}
	return NewRedisStore(client, prefix, baseURL), nil
}

func (s *RedisStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	if err := errors.ValidateBlobName(name); err != nil {
		return "", err
	}
	now := time.Now()
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.dataKey(name), data, 0)
		pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(now.UnixMilli()), Member: name})
		return nil
	})
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeIO, err, "store blob %s", name)
	}
	return publicURL(s.baseURL, name), nil
}

func (s *RedisStore) Get(ctx context.Context, name string) ([]byte, bool, error) {
	if err := errors.ValidateBlobName(name); err != nil {
		return nil, false, err
	}
	data, err := s.client.Get(ctx, s.dataKey(name)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeIO, err, "read blob %s", name)
	}
	return data, true, nil
}

func (s *RedisStore) List(ctx context.Context, prefix string) ([]Info, error) {
	entries, err := s.client.ZRangeWithScores(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "list blobs")
	}

	var matched []redis.Z
	for _, z := range entries {
		if name, ok := z.Member.(string); ok && strings.HasPrefix(name, prefix) {
			matched = append(matched, z)
		}
	}

	sizes := make([]*redis.IntCmd, len(matched))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, z := range matched {
			sizes[i] = pipe.StrLen(ctx, s.dataKey(z.Member.(string)))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "list blobs")
	}

	infos := make([]Info, 0, len(matched))
	for i, z := range matched {
		name := z.Member.(string)
		infos = append(infos, Info{
			Name:        name,
			Size:        sizes[i].Val(),
			ContentType: ContentType(name),
			UpdatedAt:   time.UnixMilli(int64(z.Score)),
			URL:         publicURL(s.baseURL, name),
		})
	}
	slices.SortFunc(infos, func(a, b Info) int { return strings.Compare(a.Name, b.Name) })
	return infos, nil
}

func (s *RedisStore) Delete(ctx context.Context, name string) (bool, error) {
	if err := errors.ValidateBlobName(name); err != nil {
		return false, err
	}
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, s.dataKey(name))
		pipe.ZRem(ctx, s.indexKey(), name)
		return nil
	})
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeIO, err, "delete blob %s", name)
	}
	return del.Val() > 0, nil
}

func (s *RedisStore) Close() error { return s.client.Close() }

func (s *RedisStore) dataKey(name string) string { return s.prefix + "blob:" + name }
func (s *RedisStore) indexKey() string           { return s.prefix + "blobs" }

var _ Store = (*RedisStore)(nil)
