package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/classhub/classhub-server/internal/model"
)

var _ model.SessionStore = (*Store)(nil)

const defaultPrefix = "session:"

const scanBatch = 100

// Store is a Redis-backed session store. Each session is a single expiring
// key mapping the opaque token to its owning user id; Redis TTL carries the
// validity window. Password reset tokens share the same mapping with a
// shorter TTL.
type Store struct {
	client redis.UniversalClient
	prefix string
}

// NewStore creates a session Store backed by the given Redis client.
// An empty prefix falls back to "session:".
func NewStore(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// Create sets token→userID with the given TTL.
func (s *Store) Create(ctx context.Context, userID uuid.UUID, token string, ttl time.Duration) error {
	if token == "" {
		return fmt.Errorf("session token must not be empty")
	}
	if ttl <= 0 {
		ttl = model.RefreshSessionTTL
	}

	if err := s.client.Set(ctx, s.key(token), userID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Get returns the session for the token. A missing or expired key is
// model.ErrNotFound, not a store failure.
func (s *Store) Get(ctx context.Context, token string) (model.Session, error) {
	value, err := s.client.Get(ctx, s.key(token)).Result()
	if errors.Is(err, redis.Nil) {
		return model.Session{}, model.ErrNotFound
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to get session: %w", err)
	}

	userID, err := uuid.Parse(value)
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to parse session owner: %w", err)
	}

	session := model.Session{Token: token, UserID: userID}
	if ttl, err := s.client.TTL(ctx, s.key(token)).Result(); err == nil && ttl > 0 {
		session.ExpiresAt = time.Now().Add(ttl)
	}

	return session, nil
}

// Delete removes the session and reports whether it existed. Deleting an
// absent session is not an error.
func (s *Store) Delete(ctx context.Context, token string) (bool, error) {
	deleted, err := s.client.Del(ctx, s.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to delete session: %w", err)
	}
	return deleted > 0, nil
}

// Refresh slides the session expiry without changing the token value.
func (s *Store) Refresh(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = model.RefreshSessionTTL
	}

	ok, err := s.client.Expire(ctx, s.key(token), ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to refresh session: %w", err)
	}
	if !ok {
		return model.ErrNotFound
	}
	return nil
}

// GetAllByUser enumerates every session owned by the user. This scans the
// whole session namespace and filters by owner, an O(total sessions)
// operation; a per-user secondary index is the way out if session counts
// ever grow past what a scan can serve.
func (s *Store) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]model.Session, error) {
	owner := userID.String()
	var sessions []model.Session

	err := s.scan(ctx, func(key, value string) error {
		if value != owner {
			return nil
		}
		session := model.Session{
			Token:  strings.TrimPrefix(key, s.prefix),
			UserID: userID,
		}
		if ttl, err := s.client.TTL(ctx, key).Result(); err == nil && ttl > 0 {
			session.ExpiresAt = time.Now().Add(ttl)
		}
		sessions = append(sessions, session)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return sessions, nil
}

// DeleteAllByUser revokes every session owned by the user and returns the
// number removed. Same scan cost as GetAllByUser.
func (s *Store) DeleteAllByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	owner := userID.String()
	count := 0

	err := s.scan(ctx, func(key, value string) error {
		if value != owner {
			return nil
		}
		deleted, err := s.client.Del(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		count += int(deleted)
		return nil
	})
	if err != nil {
		return count, err
	}

	return count, nil
}

// CountByUser returns the number of live sessions owned by the user.
func (s *Store) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	sessions, err := s.GetAllByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return len(sessions), nil
}

func (s *Store) key(token string) string {
	return s.prefix + token
}

func (s *Store) scan(ctx context.Context, visit func(key, value string) error) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", scanBatch).Result()
		if err != nil {
			return fmt.Errorf("failed to scan sessions: %w", err)
		}

		for _, key := range keys {
			value, err := s.client.Get(ctx, key).Result()
			if errors.Is(err, redis.Nil) {
				// Expired between SCAN and GET.
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to read session: %w", err)
			}
			if err := visit(key, value); err != nil {
				return err
			}
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
