// Package redis persists the credential pair in a Redis hash.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/microtask/taskhub/internal/core/domain"
	"github.com/microtask/taskhub/internal/infrastructure/credstore"
)

const (
	pingTimeout = 3 * time.Second

	fieldToken    = "token"
	fieldSnapshot = "snapshot"
	fieldSavedAt  = "saved_at"
)

// CredentialStore keeps the credential pair in one hash so both halves are
// written and removed by a single transaction.
// Key format: taskhub:credential:<profile>
type CredentialStore struct {
	client *redis.Client
	key    string
}

// Options selects the Redis database and the login profile to store.
type Options struct {
	Addr    string
	DB      int
	Profile string
}

// Open dials Redis, refuses to start if it does not answer a ping, and
// returns a store that owns the connection. Close releases it.
func Open(ctx context.Context, opts Options) (*CredentialStore, error) {
	client := redis.NewClient(&redis.Options{Addr: opts.Addr, DB: opts.DB, DialTimeout: pingTimeout})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("credential store %s unreachable: %w", opts.Addr, err)
	}
	return NewCredentialStore(client, opts.Profile), nil
}

// NewCredentialStore wraps client; profile separates several logins on one
// Redis database.
func NewCredentialStore(client *redis.Client, profile string) *CredentialStore {
	if profile == "" {
		profile = "default"
	}
	return &CredentialStore{client: client, key: "taskhub:credential:" + profile}
}

func (s *CredentialStore) Close() error {
	return s.client.Close()
}

func (s *CredentialStore) Load(ctx context.Context) (*domain.PersistedCredential, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("credential load: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrNoCredential
	}

	cred := domain.PersistedCredential{Token: fields[fieldToken]}
	if raw := fields[fieldSnapshot]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &cred.Snapshot); err != nil {
			cred.Snapshot = domain.Session{}
		}
	}
	if ts, err := time.Parse(time.RFC3339Nano, fields[fieldSavedAt]); err == nil {
		cred.SavedAt = ts
	}

	if !cred.Complete() {
		if err := s.client.Del(ctx, s.key).Err(); err != nil {
			return nil, fmt.Errorf("credential heal: %w", err)
		}
		return nil, domain.ErrNoCredential
	}
	return &cred, nil
}

func (s *CredentialStore) Save(ctx context.Context, cred domain.PersistedCredential) error {
	if !cred.Complete() {
		return domain.ErrIncompleteCredential
	}
	snap, err := json.Marshal(cred.Snapshot)
	if err != nil {
		return fmt.Errorf("credential encode: %w", err)
	}
	exp, hasExp := credstore.TokenExpiry(cred.Token)

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		pipe.HSet(ctx, s.key,
			fieldToken, cred.Token,
			fieldSnapshot, string(snap),
			fieldSavedAt, cred.SavedAt.UTC().Format(time.RFC3339Nano),
		)
		if hasExp {
			pipe.ExpireAt(ctx, s.key, exp)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("credential save: %w", err)
	}
	return nil
}

func (s *CredentialStore) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("credential delete: %w", err)
	}
	return nil
}

// Check pings Redis.
func (s *CredentialStore) Check(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
