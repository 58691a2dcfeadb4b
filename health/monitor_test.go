package health

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitor_UpdateAndGet(t *testing.T) {
	m := NewMonitor()

	m.Update("storage", NewHealthy("storage", "ok"))

	status, exists := m.Get("storage")
	require.True(t, exists)
	assert.True(t, status.IsHealthy())

	_, exists = m.Get("missing")
	assert.False(t, exists)
}

func TestMonitor_UpdateOverwritesServiceName(t *testing.T) {
	m := NewMonitor()

	// Name passed to Update wins over the name inside the status
	m.Update("storage", NewHealthy("wrong-name", "ok"))

	status, _ := m.Get("storage")
	assert.Equal(t, "storage", status.Service)
}

func TestMonitor_All_ReturnsCopy(t *testing.T) {
	m := NewMonitor()
	m.Update("a", NewHealthy("a", "ok"))

	all := m.All()
	all["b"] = NewHealthy("b", "ok")

	_, exists := m.Get("b")
	assert.False(t, exists)
}

func TestMonitor_RemoveAndClear(t *testing.T) {
	m := NewMonitor()
	m.Update("a", NewHealthy("a", "ok"))
	m.Update("b", NewHealthy("b", "ok"))

	m.Remove("a")
	_, exists := m.Get("a")
	assert.False(t, exists)

	m.Clear()
	assert.Empty(t, m.All())
}

func TestMonitor_Snapshot(t *testing.T) {
	m := NewMonitor()
	m.Update("zeta", NewHealthy("zeta", "ok"))
	m.Update("alpha", NewUnhealthy("alpha", "dial 10.1.1.1:80 refused"))

	snap := m.Snapshot("echoplayer")

	assert.True(t, snap.IsUnhealthy())
	require.Len(t, snap.SubStatuses, 2)
	// Ordered by service name
	assert.Equal(t, "alpha", snap.SubStatuses[0].Service)
	assert.Equal(t, "zeta", snap.SubStatuses[1].Service)
	// Sanitized
	assert.Equal(t, "dial [IP][PORT] refused", snap.SubStatuses[0].Message)
}

func TestMonitor_ConcurrentAccess(t *testing.T) {
	m := NewMonitor()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			m.Update("svc", NewHealthy("svc", "ok"))
		}()
		go func() {
			defer wg.Done()
			m.All()
		}()
	}
	wg.Wait()

	_, exists := m.Get("svc")
	assert.True(t, exists)
}
