package model

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"loan-eligibility/internal/common/logger"
	"loan-eligibility/internal/eligibility"
)

const sessionKeyPrefix = "eligibility:model:"

// SessionStore keeps the artifact uploaded for each session. Raw bytes live
// in Redis so any instance can rebuild the handle; decoded handles are
// cached in process and keyed by checksum. Cache entries expire with the
// Redis key and are swept whenever a handle is cached.
type SessionStore struct {
	redis   redis.Cmdable
	builder *Builder
	ttl     time.Duration
	log     logger.Logger
	now     func() time.Time

	mu    sync.RWMutex
	cache map[string]cachedHandle
}

type cachedHandle struct {
	handle  *Handle
	expires time.Time // zero when the session never expires
}

func NewSessionStore(rdb redis.Cmdable, builder *Builder, ttl time.Duration, log logger.Logger) *SessionStore {
	return &SessionStore{
		redis:   rdb,
		builder: builder,
		ttl:     ttl,
		log:     log,
		now:     time.Now,
		cache:   make(map[string]cachedHandle),
	}
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

// Put builds data and, only if it is a valid artifact, stores it for the
// session, replacing any previous model.
func (s *SessionStore) Put(ctx context.Context, sessionID string, data []byte) (*Handle, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}

	handle, err := s.builder.Build("session:"+sessionID, data)
	if err != nil {
		return nil, err
	}

	if err := s.redis.Set(ctx, sessionKey(sessionID), data, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("failed to store model for session %s: %w", sessionID, err)
	}

	s.remember(sessionID, handle)

	s.log.Info("Session model stored", map[string]interface{}{
		"sessionId": sessionID,
		"model":     handle.Metadata().Name,
		"checksum":  handle.Metadata().Checksum,
		"ttl":       s.ttl.String(),
	})
	return handle, nil
}

// Get returns the session's handle, or nil when no model was uploaded or
// it expired.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (*Handle, error) {
	data, err := s.redis.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		s.evict(sessionID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read model for session %s: %w", sessionID, err)
	}

	checksum := Checksum(data)

	s.mu.RLock()
	cached, ok := s.cache[sessionID]
	s.mu.RUnlock()
	if ok && cached.handle.Metadata().Checksum == checksum {
		return cached.handle, nil
	}

	handle, err := s.builder.Build("session:"+sessionID, data)
	if err != nil {
		return nil, err
	}

	s.remember(sessionID, handle)
	return handle, nil
}

// Provider is Get for callers that hand the result straight to the
// eligibility package: a missing model is an untyped nil Provider.
func (s *SessionStore) Provider(ctx context.Context, sessionID string) (eligibility.Provider, error) {
	handle, err := s.Get(ctx, sessionID)
	if err != nil || handle == nil {
		return nil, err
	}
	return handle, nil
}

// Delete forgets the session's model.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	s.evict(sessionID)
	if err := s.redis.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete model for session %s: %w", sessionID, err)
	}
	return nil
}

// remember caches handle until the session's TTL runs out and drops every
// entry whose TTL already has.
func (s *SessionStore) remember(sessionID string, handle *Handle) {
	now := s.now()
	entry := cachedHandle{handle: handle}
	if s.ttl > 0 {
		entry.expires = now.Add(s.ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.cache {
		if !c.expires.IsZero() && !now.Before(c.expires) {
			delete(s.cache, id)
		}
	}
	s.cache[sessionID] = entry
}

func (s *SessionStore) evict(sessionID string) {
	s.mu.Lock()
	delete(s.cache, sessionID)
	s.mu.Unlock()
}
