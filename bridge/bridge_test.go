package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkdir700/EchoPlayer-sub001/errors"
	"github.com/mkdir700/EchoPlayer-sub001/health"
	"github.com/mkdir700/EchoPlayer-sub001/metric"
	"github.com/mkdir700/EchoPlayer-sub001/service"
)

func newReady(t *testing.T, opts ...Option) *Service {
	t.Helper()
	s := New(opts...)
	require.NoError(t, s.Initialize(context.Background(), service.InitOptions{
		"listen_addr":     "127.0.0.1:0",
		"snapshot_period": "20ms",
	}))
	t.Cleanup(func() { _ = s.Dispose(context.Background()) })
	return s
}

func dial(t *testing.T, s *Service) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+s.Addr()+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitForClients(t *testing.T, s *Service, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", want, s.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBridge_Broadcast(t *testing.T) {
	s := newReady(t)
	conn := dial(t, s)
	waitForClients(t, s, 1)

	require.NoError(t, s.Broadcast(context.Background(), "word-saved",
		map[string]string{"word": "serendipity"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var envelope Envelope
	require.NoError(t, json.Unmarshal(data, &envelope))
	assert.Equal(t, "word-saved", envelope.Type)
	assert.NotEmpty(t, envelope.ID)
	assert.NotZero(t, envelope.Timestamp)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, "serendipity", payload["word"])
}

func TestBridge_MultipleClients(t *testing.T) {
	s := newReady(t)
	first := dial(t, s)
	second := dial(t, s)
	waitForClients(t, s, 2)

	require.NoError(t, s.Broadcast(context.Background(), "ping", nil))

	for _, conn := range []*websocket.Conn{first, second} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var envelope Envelope
		require.NoError(t, json.Unmarshal(data, &envelope))
		assert.Equal(t, "ping", envelope.Type)
	}
}

func TestBridge_ClientDisconnect(t *testing.T) {
	s := newReady(t)
	conn := dial(t, s)
	waitForClients(t, s, 1)

	require.NoError(t, conn.Close())
	waitForClients(t, s, 0)

	// Broadcasting with no clients is not an error
	assert.NoError(t, s.Broadcast(context.Background(), "ping", nil))
}

func TestBridge_HealthSnapshotBroadcast(t *testing.T) {
	monitor := health.NewMonitor()
	monitor.Update("storage", health.NewHealthy("storage", "Service operating normally"))

	s := newReady(t, WithMonitor(monitor))
	conn := dial(t, s)
	waitForClients(t, s, 1)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var envelope Envelope
	require.NoError(t, json.Unmarshal(data, &envelope))
	assert.Equal(t, "health", envelope.Type)

	var snapshot health.Status
	require.NoError(t, json.Unmarshal(envelope.Payload, &snapshot))
	assert.True(t, snapshot.Healthy)
}

func TestBridge_Healthz(t *testing.T) {
	monitor := health.NewMonitor()
	monitor.Update("storage", health.NewUnhealthy("storage", "cache exploded"))
	s := newReady(t, WithMonitor(monitor))

	resp, err := http.Get("http://" + s.Addr() + "/healthz")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var snapshot health.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snapshot))
	assert.False(t, snapshot.Healthy)
}

func TestBridge_MetricsEndpoint(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	s := newReady(t, WithBaseOptions(service.WithMetrics(registry)))

	resp, err := http.Get("http://" + s.Addr() + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBridge_DisposeDuringSnapshotBroadcast(t *testing.T) {
	// Teardown races the snapshot loop: the loop's broadcast runs
	// through the readiness check while Dispose waits for the loop to
	// finish. Teardown must always complete.
	monitor := health.NewMonitor()
	monitor.Update("storage", health.NewHealthy("storage", "Service operating normally"))

	for i := 0; i < 20; i++ {
		s := New(WithMonitor(monitor))
		require.NoError(t, s.Initialize(context.Background(), service.InitOptions{
			"listen_addr":     "127.0.0.1:0",
			"snapshot_period": "1ms",
		}))
		conn := dial(t, s)
		waitForClients(t, s, 1)

		// Let snapshots flow so Dispose lands mid-broadcast
		time.Sleep(3 * time.Millisecond)

		done := make(chan error, 1)
		go func() { done <- s.Dispose(context.Background()) }()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(3 * time.Second):
			t.Fatal("dispose hung while the snapshot loop was broadcasting")
		}
		_ = conn.Close()
	}
}

func TestBridge_DisposeClosesClients(t *testing.T) {
	s := newReady(t)
	conn := dial(t, s)
	waitForClients(t, s, 1)

	require.NoError(t, s.Dispose(context.Background()))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)

	err = s.Broadcast(context.Background(), "ping", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDisposed)
}

func TestBridge_BindFailure(t *testing.T) {
	first := newReady(t)

	second := New()
	err := second.Initialize(context.Background(), service.InitOptions{
		"listen_addr": first.Addr(),
	})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeNetwork))
	assert.Equal(t, service.StatusError, second.Status())
}

func TestBridge_RequiresInitialization(t *testing.T) {
	s := New()

	err := s.Broadcast(context.Background(), "ping", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNotInitialized)
}
