package eventlog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAssignsIDAndTimestamp(t *testing.T) {
	l := New()

	event := l.Append(1, TypeTenantCreated, map[string]interface{}{"name": "Acme"})

	assert.NotEmpty(t, event.ID)
	assert.False(t, event.Timestamp.IsZero())
	assert.Equal(t, uint(1), event.TenantID)
}

func TestEventsForMostRecentFirst(t *testing.T) {
	l := New()

	l.Append(1, TypeTenantCreated, nil)
	l.Append(2, TypeTenantCreated, nil)
	l.Append(1, TypePlanUpgraded, map[string]interface{}{"new_plan": "starter"})

	events := l.EventsFor(1)
	require.Len(t, events, 2)
	assert.Equal(t, TypePlanUpgraded, events[0].Type)
	assert.Equal(t, TypeTenantCreated, events[1].Type)
}

func TestCapacityEviction(t *testing.T) {
	l := New()

	for i := 0; i < DefaultCapacity+20; i++ {
		l.Append(1, TypeTenantUpdated, map[string]interface{}{"seq": i})
	}

	assert.Equal(t, DefaultCapacity, l.Len())
	events := l.EventsFor(1)
	require.Len(t, events, DefaultCapacity)
	// Newest survives, oldest 20 were dropped.
	assert.Equal(t, DefaultCapacity+19, events[0].Data["seq"])
	assert.Equal(t, 20, events[len(events)-1].Data["seq"])
}

func TestConcurrentAppends(t *testing.T) {
	l := NewWithCapacity(50)

	done := make(chan struct{})
	for g := 0; g < 4; g++ {
		go func(g int) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 100; i++ {
				l.Append(uint(g), TypeTenantUpdated, map[string]interface{}{"g": fmt.Sprint(g)})
			}
		}(g)
	}
	for g := 0; g < 4; g++ {
		<-done
	}

	assert.Equal(t, 50, l.Len())
}
