package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(window time.Duration, max int) (*Limiter, *time.Time) {
	l := New(map[Group]WindowConfig{
		GroupWrite: {Window: window, Max: max},
		GroupRead:  {Window: window, Max: max * 2},
	})
	now := time.Unix(1700000000, 0)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestCeilingWithinWindow(t *testing.T) {
	l, _ := newTestLimiter(10*time.Second, 5)

	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow(GroupWrite, "1.2.3.4"), "request %d should pass", i+1)
	}
	assert.False(t, l.Allow(GroupWrite, "1.2.3.4"), "request over ceiling should fail")
}

func TestCeilingHoldsForSpacedRequests(t *testing.T) {
	l, now := newTestLimiter(10*time.Second, 5)

	// spreading requests across the window must not buy extra admissions
	admitted := 0
	for i := 0; i < 6; i++ {
		if l.Allow(GroupWrite, "1.2.3.4") {
			admitted++
		}
		*now = now.Add(1670 * time.Millisecond)
	}
	assert.Equal(t, 5, admitted, "exactly the ceiling should be admitted per window")
}

func TestDeniedRequestsDoNotExtendWindow(t *testing.T) {
	l, now := newTestLimiter(10*time.Second, 1)

	assert.True(t, l.Allow(GroupWrite, "1.2.3.4"))
	*now = now.Add(9 * time.Second)
	assert.False(t, l.Allow(GroupWrite, "1.2.3.4"))
	*now = now.Add(2 * time.Second)
	assert.True(t, l.Allow(GroupWrite, "1.2.3.4"), "a denial must not restart the window")
}

func TestGroupsAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(10*time.Second, 2)

	assert.True(t, l.Allow(GroupWrite, "1.2.3.4"))
	assert.True(t, l.Allow(GroupWrite, "1.2.3.4"))
	assert.False(t, l.Allow(GroupWrite, "1.2.3.4"))

	// exhausting the write group must not touch the read group
	assert.True(t, l.Allow(GroupRead, "1.2.3.4"))
}

func TestClientsAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(10*time.Second, 1)

	assert.True(t, l.Allow(GroupWrite, "1.2.3.4"))
	assert.False(t, l.Allow(GroupWrite, "1.2.3.4"))
	assert.True(t, l.Allow(GroupWrite, "5.6.7.8"))
}

func TestWindowRefill(t *testing.T) {
	l, now := newTestLimiter(10*time.Second, 2)

	assert.True(t, l.Allow(GroupWrite, "1.2.3.4"))
	assert.True(t, l.Allow(GroupWrite, "1.2.3.4"))
	assert.False(t, l.Allow(GroupWrite, "1.2.3.4"))

	*now = now.Add(11 * time.Second)
	assert.True(t, l.Allow(GroupWrite, "1.2.3.4"), "ceiling should reset after the window")
}

func TestUnknownGroupAdmits(t *testing.T) {
	l, _ := newTestLimiter(time.Second, 1)
	assert.True(t, l.Allow(Group("unknown"), "1.2.3.4"))
}

func TestIdleClientsArePruned(t *testing.T) {
	l, now := newTestLimiter(time.Second, 1)

	l.Allow(GroupWrite, "1.2.3.4")
	*now = now.Add(10 * time.Second)
	l.Allow(GroupWrite, "5.6.7.8")

	l.mu.Lock()
	defer l.mu.Unlock()
	_, stale := l.groups[GroupWrite].clients["1.2.3.4"]
	assert.False(t, stale, "idle client should be pruned")
}
