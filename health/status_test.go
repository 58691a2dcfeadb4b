package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHealthy(t *testing.T) {
	status := NewHealthy("storage", "operating normally")

	assert.Equal(t, "storage", status.Service)
	assert.True(t, status.Healthy)
	assert.True(t, status.IsHealthy())
	assert.False(t, status.IsUnhealthy())
	assert.Equal(t, "operating normally", status.Message)
	assert.WithinDuration(t, time.Now(), status.Timestamp, time.Second)
}

func TestNewUnhealthy(t *testing.T) {
	status := NewUnhealthy("dictionary", "not initialized")

	assert.False(t, status.Healthy)
	assert.True(t, status.IsUnhealthy())
	assert.False(t, status.IsHealthy())
}

func TestNewDegraded(t *testing.T) {
	status := NewDegraded("bridge", "reconnecting")

	assert.False(t, status.Healthy)
	assert.True(t, status.IsDegraded())
	assert.False(t, status.IsHealthy())
	assert.False(t, status.IsUnhealthy())
}

func TestStatus_WithDetails(t *testing.T) {
	status := NewHealthy("storage", "ok").WithDetails(map[string]any{"items": 42})

	require.NotNil(t, status.Details)
	assert.Equal(t, 42, status.Details["items"])

	// Merging does not mutate the original
	merged := status.WithDetails(map[string]any{"hits": 7})
	assert.Equal(t, 7, merged.Details["hits"])
	assert.Equal(t, 42, merged.Details["items"])
	assert.NotContains(t, status.Details, "hits")
}

func TestStatus_WithDetails_Empty(t *testing.T) {
	status := NewHealthy("storage", "ok").WithDetails(nil)
	assert.Nil(t, status.Details)
}

func TestAggregate_AllHealthy(t *testing.T) {
	agg := Aggregate("echoplayer", []Status{
		NewHealthy("a", "ok"),
		NewHealthy("b", "ok"),
	})

	assert.True(t, agg.IsHealthy())
	assert.Len(t, agg.SubStatuses, 2)
}

func TestAggregate_OneUnhealthy(t *testing.T) {
	agg := Aggregate("echoplayer", []Status{
		NewHealthy("a", "ok"),
		NewUnhealthy("b", "down"),
		NewDegraded("c", "slow"),
	})

	assert.True(t, agg.IsUnhealthy())
}

func TestAggregate_DegradedWinsOverHealthy(t *testing.T) {
	agg := Aggregate("echoplayer", []Status{
		NewHealthy("a", "ok"),
		NewDegraded("b", "slow"),
	})

	assert.True(t, agg.IsDegraded())
}

func TestAggregate_Empty(t *testing.T) {
	agg := Aggregate("echoplayer", nil)
	assert.True(t, agg.IsHealthy())
}

func TestSanitized(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		expected string
	}{
		{"http url", "failed to reach https://dict.example.com/api", "failed to reach [URL]"},
		{"ws url", "bridge peer ws://127.0.0.1:9300 gone", "bridge peer [URL] gone"},
		{"unix path", "cannot open /home/user/.echoplayer/store.db", "cannot open [PATH]"},
		{"ip and port", "dial 10.0.0.5:8443 refused", "dial [IP][PORT] refused"},
		{"credential", "auth failed: token=abc123", "auth failed: [REDACTED]"},
		{"clean message", "service not initialized", "service not initialized"},
		{"empty", "", ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			status := NewUnhealthy("svc", test.message).Sanitized()
			assert.Equal(t, test.expected, status.Message)
		})
	}
}

func TestSanitized_SubStatuses(t *testing.T) {
	agg := Aggregate("echoplayer", []Status{
		NewUnhealthy("bridge", "listen on 192.168.0.2:9300 failed"),
	}).Sanitized()

	require.Len(t, agg.SubStatuses, 1)
	assert.Equal(t, "listen on [IP][PORT] failed", agg.SubStatuses[0].Message)
}
