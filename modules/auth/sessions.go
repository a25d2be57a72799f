package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kvjetstream "github.com/go-monolith/mono/plugin/kv-jetstream"
)

// ErrSessionNotFound is returned when a refresh session has expired, was
// rotated or was revoked.
var ErrSessionNotFound = errors.New("session not found")

// Session is the server-side record behind one refresh token.
type Session struct {
	UserID   string    `json:"user_id"`
	IssuedAt time.Time `json:"issued_at"`
}

// SessionStore persists refresh sessions.
type SessionStore interface {
	Put(id string, s Session, ttl time.Duration) error
	Get(id string) (*Session, error)
	Delete(id string) error
}

// KVSessionStore stores sessions in a kv-jetstream bucket. Entries expire
// with the bucket TTL.
type KVSessionStore struct {
	bucket kvjetstream.KVStoragePort
}

// NewKVSessionStore wraps a kv-jetstream bucket.
func NewKVSessionStore(bucket kvjetstream.KVStoragePort) *KVSessionStore {
	return &KVSessionStore{bucket: bucket}
}

// Put stores a session.
func (s *KVSessionStore) Put(id string, session Session, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.bucket.Set(id, data, ttl); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Get loads a session.
func (s *KVSessionStore) Get(id string) (*Session, error) {
	data, err := s.bucket.Get(id)
	if err != nil {
		if errors.Is(err, kvjetstream.ErrKeyNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// Delete removes a session. Deleting a missing session succeeds.
func (s *KVSessionStore) Delete(id string) error {
	if err := s.bucket.Delete(id); err != nil && !errors.Is(err, kvjetstream.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
