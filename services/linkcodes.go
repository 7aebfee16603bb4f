package services

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// CodeStore holds short-lived, single-use link codes. The production
// implementation is Redis so codes survive process restarts and are
// shared across replicas; expiry is the store's TTL, no sweeper needed.
type CodeStore interface {
	Put(ctx context.Context, code string, ttl time.Duration) (bool, error)
	Consume(ctx context.Context, code string) (bool, error)
	TTL(ctx context.Context, code string) (time.Duration, bool, error)
}

// LinkCodeStore is the Redis-backed CodeStore.
type LinkCodeStore struct {
	client *redis.Client
}

func NewLinkCodeStore(addr, password string, db int) (*LinkCodeStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &LinkCodeStore{client: client}, nil
}

func (s *LinkCodeStore) Close() error { return s.client.Close() }

func key(code string) string { return "linkcode:" + code }

// Put stores the code with its TTL. Returns false if the code already
// exists (caller should regenerate).
func (s *LinkCodeStore) Put(ctx context.Context, code string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key(code), "1", ttl).Result()
}

// Consume atomically deletes the code, returning whether it was present.
// Single use falls out of GETDEL: two concurrent completions cannot both
// succeed.
func (s *LinkCodeStore) Consume(ctx context.Context, code string) (bool, error) {
	_, err := s.client.GetDel(ctx, key(code)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// TTL reports the remaining lifetime of a code without consuming it.
func (s *LinkCodeStore) TTL(ctx context.Context, code string) (time.Duration, bool, error) {
	ttl, err := s.client.TTL(ctx, key(code)).Result()
	if err != nil {
		return 0, false, err
	}
	if ttl <= 0 {
		return 0, false, nil
	}
	return ttl, true, nil
}
