package eventlog

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	TypeTenantCreated   = "tenant_created"
	TypeTenantUpdated   = "tenant_updated"
	TypePlanUpgraded    = "plan_upgraded"
	TypeFeatureEnabled  = "feature_enabled"
	TypeFeatureDisabled = "feature_disabled"
)

// TenantEvent is an immutable record of an entitlement-affecting action.
type TenantEvent struct {
	ID        string                 `json:"id"`
	TenantID  uint                   `json:"tenant_id"`
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// DefaultCapacity is how many events the log retains per process instance.
const DefaultCapacity = 100

// Log is a bounded, append-only, most-recent-first event feed. Once full,
// the oldest entries are silently dropped. It is a notification feed, not a
// durable audit trail.
type Log struct {
	mu       sync.Mutex
	capacity int
	events   []TenantEvent
}

// New creates a log with the default capacity.
func New() *Log {
	return NewWithCapacity(DefaultCapacity)
}

// NewWithCapacity creates a log retaining at most capacity events.
func NewWithCapacity(capacity int) *Log {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Log{capacity: capacity}
}

// Append records an event, assigning its id and timestamp, and evicts the
// oldest entry when the log is full.
func (l *Log) Append(tenantID uint, eventType string, data map[string]interface{}) TenantEvent {
	event := TenantEvent{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append([]TenantEvent{event}, l.events...)
	if len(l.events) > l.capacity {
		l.events = l.events[:l.capacity]
	}
	return event
}

// EventsFor returns the retained events for a tenant, most recent first.
func (l *Log) EventsFor(tenantID uint) []TenantEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []TenantEvent
	for _, e := range l.events {
		if e.TenantID == tenantID {
			out = append(out, e)
		}
	}
	return out
}

// All returns every retained event, most recent first.
func (l *Log) All() []TenantEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]TenantEvent, len(l.events))
	copy(out, l.events)
	return out
}

// Len returns the number of retained events.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}
