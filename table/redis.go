package table

import (
	"context"
	"errors"
	"sort"

	"github.com/ZaguanLabs/duotext"
	"github.com/redis/go-redis/v9"
)

// RedisTable stores fields in one Redis hash and originals in a second hash
// under the same name.
type RedisTable struct {
	client    redis.UniversalClient
	fields    string
	originals string
}

var _ duotext.FieldTable = (*RedisTable)(nil)

// NewRedisTable opens the table called name. prefix defaults to "duotext:".
func NewRedisTable(client redis.UniversalClient, prefix, name string) *RedisTable {
	if prefix == "" {
		prefix = "duotext:"
	}
	base := prefix + "table:" + name
	return &RedisTable{
		client:    client,
		fields:    base + ":fields",
		originals: base + ":originals",
	}
}

// FieldsKey returns the Redis key of the field hash.
func (t *RedisTable) FieldsKey() string { return t.fields }

// OriginalsKey returns the Redis key of the metadata hash.
func (t *RedisTable) OriginalsKey() string { return t.originals }

// Keys returns the field names sorted, since hash order is unspecified.
func (t *RedisTable) Keys(ctx context.Context) ([]string, error) {
	keys, err := t.client.HKeys(ctx, t.fields).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func (t *RedisTable) GetText(ctx context.Context, key string) (string, error) {
	v, err := t.client.HGet(ctx, t.fields, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", notFound(key)
	}
	return v, err
}

func (t *RedisTable) SetText(ctx context.Context, key, value string) error {
	ok, err := t.client.HExists(ctx, t.fields, key).Result()
	if err != nil {
		return err
	}
	if !ok {
		return notFound(key)
	}
	return t.client.HSet(ctx, t.fields, key, value).Err()
}

// Put creates or overwrites a field.
func (t *RedisTable) Put(ctx context.Context, key, value string) error {
	return t.client.HSet(ctx, t.fields, key, value).Err()
}

// GetOriginal does not check that the field exists.
func (t *RedisTable) GetOriginal(ctx context.Context, key string) (string, error) {
	v, err := t.client.HGet(ctx, t.originals, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

func (t *RedisTable) SetOriginal(ctx context.Context, key, original string) error {
	if original == "" {
		return t.client.HDel(ctx, t.originals, key).Err()
	}
	return t.client.HSet(ctx, t.originals, key, original).Err()
}

// Delete removes both hashes.
func (t *RedisTable) Delete(ctx context.Context) error {
	return t.client.Del(ctx, t.fields, t.originals).Err()
}
