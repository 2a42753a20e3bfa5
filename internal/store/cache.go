package store

import (
	"context"
	"time"

	"smartx-backend/internal/components/assert"
	"smartx-backend/internal/components/chrono"
	"smartx-backend/internal/components/telemetry"
)

const (
	report_cache_load  = "cache.load"
	report_cache_store = "cache.store"
	report_cache_clear = "cache.clear"
)

// Window is how long a cached payload stays fresh.
const Window = 15 * time.Minute

// Cache serves payloads that were written less than Window ago. Only users with a
// session may have cached payloads.
type Cache struct {
	sessions SessionStore
	backend  CacheBackend
	time     chrono.TimeAPI
	tel      telemetry.API
}

func NewCache(sessions SessionStore, backend CacheBackend, clock chrono.TimeAPI, tel telemetry.API) Cache {
	assert.NotNil(sessions)
	assert.NotNil(backend)
	assert.NotNil(clock)
	assert.NotNil(tel)
	return Cache{
		sessions: sessions,
		backend:  backend,
		time:     clock,
		tel:      telemetry.NewScopedAPI("store", tel),
	}
}

// Get returns the payload of a (user, kind) pair if it is still fresh. Backend failures
// are reported and treated as a miss.
func (c Cache) Get(ctx context.Context, userId, kind string) ([]byte, bool) {
	entry, ok, err := c.backend.Load(ctx, userId, kind)
	if err != nil {
		c.tel.ReportBroken(report_cache_load, err, userId, kind)
		return nil, false
	}
	if !ok || len(entry.Payload) == 0 {
		return nil, false
	}
	if !c.time.Now().Before(entry.Timestamp.Add(Window)) {
		c.tel.ReportDebug("cache stale", userId, kind)
		return nil, false
	}
	c.tel.ReportDebug("cache hit", userId, kind)
	return entry.Payload, true
}

// Set writes the payload of a (user, kind) pair stamped with the current time. It does
// nothing and returns false if the user has no session.
func (c Cache) Set(ctx context.Context, userId, kind string, payload []byte) bool {
	if _, ok := c.sessions.Get(userId); !ok {
		c.tel.ReportDebug("cache write without session", userId, kind)
		return false
	}
	return c.store(ctx, userId, kind, payload)
}

// SetFor is Set for data fetched with the cookies of a specific session. It does nothing
// and returns false if the user logged out or logged in again since.
func (c Cache) SetFor(ctx context.Context, session Session, kind string, payload []byte) bool {
	current, ok := c.sessions.Get(session.UserId)
	if !ok || !current.Same(session) {
		c.tel.ReportDebug("cache write from a replaced session", session.UserId, kind)
		return false
	}
	return c.store(ctx, session.UserId, kind, payload)
}

func (c Cache) store(ctx context.Context, userId, kind string, payload []byte) bool {
	err := c.backend.Store(ctx, Entry{
		UserId:    userId,
		Kind:      kind,
		Timestamp: c.time.Now(),
		Payload:   payload,
	})
	if err != nil {
		c.tel.ReportBroken(report_cache_store, err, userId, kind)
		return false
	}
	return true
}

// Invalidate drops every cached payload of a user.
func (c Cache) Invalidate(ctx context.Context, userId string) {
	err := c.backend.Clear(ctx, userId)
	if err != nil {
		c.tel.ReportBroken(report_cache_clear, err, userId)
	}
}
