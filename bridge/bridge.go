// Package bridge provides the IPC bridge between the player core and
// the UI process.
//
// The bridge runs a local WebSocket server the UI connects to. Events
// from core services are broadcast to every connected client as typed
// envelopes, and the latest service health snapshot is pushed
// periodically. An HTTP surface next to the WebSocket endpoint exposes
// /healthz for diagnostics and /metrics for Prometheus scrapes.
package bridge

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mkdir700/EchoPlayer-sub001/errors"
	"github.com/mkdir700/EchoPlayer-sub001/health"
	"github.com/mkdir700/EchoPlayer-sub001/service"
)

// Name is the service name bridge registers under
const Name = "bridge"

// Version is the bridge service version
const Version = "1.0.0"

const (
	defaultListenAddr     = "127.0.0.1:43017"
	defaultSnapshotPeriod = 5 * time.Second
	writeTimeout          = 5 * time.Second
)

// Envelope wraps every message crossing the bridge with type
// discrimination and correlation metadata
type Envelope struct {
	Type      string          `json:"type"`
	ID        string          `json:"id"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Option configures the bridge service beyond the base options
type Option func(*Service)

// WithMonitor wires the health monitor whose snapshots the bridge
// broadcasts
func WithMonitor(monitor *health.Monitor) Option {
	return func(s *Service) {
		s.monitor = monitor
	}
}

// WithBaseOptions passes options through to the embedded base service
func WithBaseOptions(opts ...service.Option) Option {
	return func(s *Service) {
		s.baseOpts = append(s.baseOpts, opts...)
	}
}

// client is one connected UI process
type client struct {
	id          string
	conn        *websocket.Conn
	connectedAt time.Time
	writeMu     sync.Mutex
}

func (c *client) write(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(messageType, data)
}

// Service is the IPC bridge service
type Service struct {
	*service.Base

	baseOpts []service.Option
	monitor  *health.Monitor

	upgrader websocket.Upgrader
	server   *http.Server
	listener net.Listener

	clientsMu sync.RWMutex
	clients   map[string]*client

	snapshotPeriod time.Duration
	shutdown       chan struct{}
	shutdownOnce   sync.Once
	wg             sync.WaitGroup
}

// New creates the bridge service
func New(opts ...Option) *Service {
	s := &Service{
		clients: make(map[string]*client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The bridge binds to loopback for a local UI process, so
			// origin checks stay permissive.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Base = service.NewBase(Name, Version, append(s.baseOpts,
		service.WithInitialize(s.initialize),
		service.WithHealthDetails(s.healthDetails),
		service.WithDispose(s.dispose))...)
	return s
}

func (s *Service) initialize(_ context.Context, opts service.InitOptions) error {
	addr := service.OptionString(opts, "listen_addr", defaultListenAddr)
	s.snapshotPeriod = service.OptionDuration(opts, "snapshot_period", defaultSnapshotPeriod)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.WrapTyped(err, errors.TypeNetwork, Name, "Initialize", "bind "+addr)
	}
	s.listener = listener
	s.shutdown = make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", s.handleHealthz)
	if s.Metrics() != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(
			s.Metrics().PrometheusRegistry(), promhttp.HandlerOpts{}))
	}

	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		serveErr := s.server.Serve(listener)
		if serveErr != nil && serveErr != http.ErrServerClosed && !stderrors.Is(serveErr, net.ErrClosed) {
			s.Logger().Error("Bridge server stopped unexpectedly", "error", serveErr)
		}
	}()

	if s.monitor != nil && s.snapshotPeriod > 0 {
		s.wg.Add(1)
		go s.snapshotLoop()
	}

	s.Logger().Info("Bridge listening", "addr", listener.Addr().String())
	return nil
}

func (s *Service) healthDetails(context.Context) (map[string]any, error) {
	s.clientsMu.RLock()
	connected := len(s.clients)
	s.clientsMu.RUnlock()
	return map[string]any{
		"listen_addr": s.listener.Addr().String(),
		"clients":     connected,
	}, nil
}

func (s *Service) dispose(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	// Stop the snapshot loop and new connections before sweeping clients.
	// handleWebSocket checks the shutdown channel under clientsMu, so
	// once the sweep has run no late upgrade can slip into the map.
	s.shutdownOnce.Do(func() { close(s.shutdown) })
	_ = s.listener.Close()

	s.clientsMu.Lock()
	for _, c := range s.clients {
		_ = c.write(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		_ = c.conn.Close()
	}
	s.clients = make(map[string]*client)
	s.clientsMu.Unlock()

	if err := s.server.Shutdown(ctx); err != nil {
		return errors.WrapTyped(err, errors.TypeNetwork, Name, "Dispose", "server shutdown")
	}
	s.wg.Wait()
	return nil
}

// Addr returns the address the bridge is listening on
func (s *Service) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Broadcast sends one typed event to every connected client. Clients
// whose connection fails are dropped.
func (s *Service) Broadcast(ctx context.Context, eventType string, payload any) error {
	return s.SafeExecute(ctx, "Broadcast", func(context.Context) error {
		raw, err := json.Marshal(payload)
		if err != nil {
			return errors.Newf(errors.TypeValidation, "unencodable payload: %v", err)
		}
		data, err := json.Marshal(Envelope{
			Type:      eventType,
			ID:        uuid.NewString(),
			Timestamp: time.Now().UnixMilli(),
			Payload:   raw,
		})
		if err != nil {
			return errors.Newf(errors.TypeInternal, "envelope encoding: %v", err)
		}

		s.clientsMu.RLock()
		targets := make([]*client, 0, len(s.clients))
		for _, c := range s.clients {
			targets = append(targets, c)
		}
		s.clientsMu.RUnlock()

		for _, c := range targets {
			if writeErr := c.write(websocket.TextMessage, data); writeErr != nil {
				s.Logger().Warn("Dropping bridge client after write failure",
					"client", c.id, "error", writeErr)
				s.removeClient(c.id, "write_failure")
				continue
			}
			s.countMessage("out")
		}
		return nil
	})
}

// ClientCount returns the number of connected clients
func (s *Service) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

func (s *Service) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Logger().Warn("WebSocket upgrade failed", "error", err)
		return
	}

	c := &client{
		id:          uuid.NewString(),
		conn:        conn,
		connectedAt: time.Now(),
	}

	s.clientsMu.Lock()
	select {
	case <-s.shutdown:
		// Upgraded after the dispose sweep: the connection would never
		// be closed and its read loop would outlive wg.Wait
		s.clientsMu.Unlock()
		_ = conn.Close()
		return
	default:
	}
	s.clients[c.id] = c
	s.clientsMu.Unlock()

	if s.Metrics() != nil {
		s.Metrics().CoreMetrics().BridgeConnections.Inc()
	}
	s.Logger().Info("Bridge client connected", "client", c.id, "remote", r.RemoteAddr)

	s.wg.Add(1)
	go s.readLoop(c)
}

// readLoop drains inbound messages until the connection drops. The
// bridge protocol is push-oriented; inbound traffic is counted and
// otherwise ignored.
func (s *Service) readLoop(c *client) {
	defer s.wg.Done()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			select {
			case <-s.shutdown:
			default:
				s.removeClient(c.id, "read_failure")
			}
			return
		}
		s.countMessage("in")
	}
}

func (s *Service) removeClient(id, reason string) {
	s.clientsMu.Lock()
	c, exists := s.clients[id]
	if exists {
		delete(s.clients, id)
	}
	s.clientsMu.Unlock()

	if !exists {
		return
	}
	_ = c.conn.Close()
	if s.Metrics() != nil {
		s.Metrics().CoreMetrics().BridgeConnections.Dec()
	}
	s.Logger().Info("Bridge client disconnected", "client", c.id, "reason", reason)
}

func (s *Service) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	var snapshot health.Status
	if s.monitor != nil {
		snapshot = s.monitor.Snapshot("echoplayer")
	} else {
		snapshot = health.NewHealthy("echoplayer", "no monitor attached")
	}

	w.Header().Set("Content-Type", "application/json")
	if !snapshot.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(snapshot)
}

// snapshotLoop periodically broadcasts the aggregated health snapshot
// so the UI can surface service state without polling
func (s *Service) snapshotLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.snapshotPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.shutdown:
			return
		case <-ticker.C:
			if s.ClientCount() == 0 {
				continue
			}
			snapshot := s.monitor.Snapshot("echoplayer")
			if err := s.Broadcast(context.Background(), "health", snapshot); err != nil {
				s.Logger().Warn("Health snapshot broadcast failed", "error", err)
			}
		}
	}
}

func (s *Service) countMessage(direction string) {
	if s.Metrics() != nil {
		s.Metrics().CoreMetrics().BridgeMessages.WithLabelValues(direction).Inc()
	}
}
