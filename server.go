// Package fixture implements an in-memory HTTP/1.1 and WebSocket server
// that acts as a programmable test fixture (spec §1): a test harness
// registers handlers for (path, method) pairs, drives a real client
// against a loopback port, and observes every byte and lifecycle event
// that crosses the wire.
//
// The package wires together the HTTP message codec (internal/httpmsg),
// the WebSocket frame codec (internal/wsframe), the handler family
// (internal/handler), the registry and dispatcher (internal/registry),
// the per-connection state machine (internal/connio), and the observable
// event hub (internal/events) into the single embedder-facing Server type
// below.
package fixture

import (
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/arrowlake/fixture/internal/connio"
	"github.com/arrowlake/fixture/internal/events"
	"github.com/arrowlake/fixture/internal/handler"
	"github.com/arrowlake/fixture/internal/httpmsg"
	"github.com/arrowlake/fixture/internal/registry"
	"github.com/arrowlake/fixture/internal/wsframe"
	"github.com/google/uuid"
)

// defaultBufferSize is used when a Server is constructed without an
// explicit BufferSize call; it matches the teacher's own socket buffer
// sizing conventions (a few KiB is ample for the small fixture requests
// and frames this server handles).
const defaultBufferSize = 4096

// Server binds a loopback TCP listener, accepts connections, and routes
// each to a registered handler (spec §4.6, component C6). The zero value
// is not usable; construct with NewServer.
type Server struct {
	mu         sync.Mutex
	port       int
	bufferSize int
	started    bool
	listener   net.Listener
	logger     *slog.Logger

	registry   *registry.Registry
	dispatcher *dispatchNotifier

	connMu      sync.Mutex
	connections map[string]*connio.Connection

	logMu    sync.Mutex
	logLines []string

	wg sync.WaitGroup

	// OnDataReceived fires after a connection decodes a received chunk
	// (spec §4.7.1).
	OnDataReceived *events.ObservableEvent[DataReceivedEvent]
	// OnDataSent fires after any write to a connection's socket.
	OnDataSent *events.ObservableEvent[DataSentEvent]
	// OnClientConnected fires when a connection's receive loop starts.
	OnClientConnected *events.ObservableEvent[ConnectionEvent]
	// OnClientDisconnected fires when a connection's receive loop ends.
	OnClientDisconnected *events.ObservableEvent[ConnectionEvent]
	// OnRequestHandling fires before the dispatcher invokes a handler.
	OnRequestHandling *events.ObservableEvent[RequestEvent]
	// OnRequestHandled fires after the dispatcher's handler returns.
	OnRequestHandled *events.ObservableEvent[RequestHandledEvent]
}

// NewServer creates a Server. Called with no arguments, it binds an
// OS-assigned port (0) on Start; called with one argument, it binds that
// specific port. This variadic-int shape is this module's rendering of
// spec §6's overloaded "new Server() or new Server(port)" constructor —
// Go has no constructor overloading.
func NewServer(port ...int) *Server {
	p := 0
	if len(port) > 0 {
		p = port[0]
	}

	s := &Server{
		port:        p,
		bufferSize:  defaultBufferSize,
		logger:      slog.Default(),
		registry:    registry.New(),
		connections: make(map[string]*connio.Connection),

		OnDataReceived:       events.New[DataReceivedEvent](0),
		OnDataSent:           events.New[DataSentEvent](0),
		OnClientConnected:    events.New[ConnectionEvent](0),
		OnClientDisconnected: events.New[ConnectionEvent](0),
		OnRequestHandling:    events.New[RequestEvent](0),
		OnRequestHandled:     events.New[RequestHandledEvent](0),
	}
	s.dispatcher = &dispatchNotifier{
		registry:   s.registry,
		onHandling: s.OnRequestHandling,
		onHandled:  s.OnRequestHandled,
	}
	return s
}

// SetLogger replaces the server's internal diagnostic logger, used for
// operator-facing messages distinct from the in-memory Log() vector
// (AMBIENT STACK). Defaults to slog.Default().
func (s *Server) SetLogger(logger *slog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
}

// Port reports the bound port. Before Start, it reports the configured
// port (possibly 0, meaning "OS-assigned"); after Start, it reports the
// actual bound port.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// Addr returns the "host:port" string this server is (or will be) bound
// to, a convenience over Port (SPEC_FULL §4.6.1).
func (s *Server) Addr() string {
	return fmt.Sprintf("127.0.0.1:%d", s.Port())
}

// BufferSize reports the per-read buffer size new connections are
// constructed with.
func (s *Server) BufferSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bufferSize
}

// SetBufferSize sets the per-read buffer size for connections constructed
// after this call. It fails with ErrConfigurationError once Start has
// been called (spec §4.6).
func (s *Server) SetBufferSize(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("%w: bufferSize cannot change after Start", ErrConfigurationError)
	}
	s.bufferSize = n
	return nil
}

// RegisterHandler binds h to (path, GET), per spec §4.3's
// "register(path, handler) ≡ register(path, GET, handler)".
func (s *Server) RegisterHandler(path string, h handler.Handler) {
	s.registry.RegisterDefault(path, h)
}

// RegisterHandlerMethod binds h to (path, method).
func (s *Server) RegisterHandlerMethod(path string, method httpmsg.Method, h handler.Handler) {
	s.registry.Register(path, method, h)
}

// HandlerEvents returns the per-handler scoped observable pair for
// (path, method) (SPEC_FULL §4.7.1).
func (s *Server) HandlerEvents(path string, method httpmsg.Method) *registry.HandlerEvents {
	return s.registry.HandlerEvents(path, method)
}

// Start binds a TCP listener on 127.0.0.1:port (spec §4.6) and begins
// accepting connections in the background. Calling Start on an
// already-started Server is a no-op.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", s.port))
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("fixture: listen: %w", err)
	}
	s.listener = ln
	s.port = ln.Addr().(*net.TCPAddr).Port
	s.started = true
	s.mu.Unlock()

	s.logger.Info("fixture server listening", slog.String("addr", s.Addr()))

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Stop flips isAcceptingConnections to false, closes the listener,
// instructs every active connection to stop receiving, and waits for all
// connection goroutines and the accept loop to exit (spec §4.6). Calling
// Stop on a Server that was never started, or already stopped, is a
// no-op.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	ln := s.listener
	s.mu.Unlock()

	_ = ln.Close()

	s.connMu.Lock()
	conns := make([]*connio.Connection, 0, len(s.connections))
	for _, c := range s.connections {
		conns = append(conns, c)
	}
	s.connMu.Unlock()
	for _, c := range conns {
		c.StopReceiving()
	}

	s.wg.Wait()
	return nil
}

// Close is an alias for Stop, so Server composes naturally with defer in
// tests (SPEC_FULL §6: Server implements io.Closer).
func (s *Server) Close() error {
	return s.Stop()
}

// SendData encodes text as a WebSocket Text frame (spec §4.6: "the
// caller's responsibility... to have already encoded data as a WebSocket
// text frame" before handing raw bytes to the connection) and writes it
// to the named connection. It fails with ErrUnknownConnection if id is
// not active.
func (s *Server) SendData(connectionID, text string) error {
	c, err := s.lookupConnection(connectionID)
	if err != nil {
		return err
	}
	return c.SendData(wsframe.Encode([]byte(text), wsframe.OpcodeText))
}

// Disconnect calls the named connection's Disconnect. It fails with
// ErrUnknownConnection if id is not active.
func (s *Server) Disconnect(connectionID string) error {
	c, err := s.lookupConnection(connectionID)
	if err != nil {
		return err
	}
	c.Disconnect()
	return nil
}

// IgnoreCloseConnectionRequest sets the named connection's testing switch
// (spec §4.5/§4.6). It fails with ErrUnknownConnection if id is not
// active.
func (s *Server) IgnoreCloseConnectionRequest(connectionID string, ignore bool) error {
	c, err := s.lookupConnection(connectionID)
	if err != nil {
		return err
	}
	c.SetIgnoreCloseRequest(ignore)
	return nil
}

// ActiveConnectionIDs returns a snapshot of currently active connection
// IDs (SPEC_FULL §4.6.1).
func (s *Server) ActiveConnectionIDs() []string {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	ids := make([]string, 0, len(s.connections))
	for id := range s.connections {
		ids = append(ids, id)
	}
	return ids
}

// Log returns a snapshot of the append-only log vector (spec §6).
func (s *Server) Log() []string {
	s.logMu.Lock()
	defer s.logMu.Unlock()
	out := make([]string, len(s.logLines))
	copy(out, s.logLines)
	return out
}

func (s *Server) lookupConnection(id string) (*connio.Connection, error) {
	s.connMu.Lock()
	c, ok := s.connections[id]
	s.connMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownConnection, id)
	}
	return c, nil
}

func (s *Server) appendLog(msg string) {
	s.logMu.Lock()
	s.logLines = append(s.logLines, msg)
	s.logMu.Unlock()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}

		id := uuid.NewString()
		c := connio.New(id, conn, s.dispatcher, s.BufferSize())
		s.wireConnectionEvents(c)
		s.appendLog("Client connected")

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			c.Run()
		}()
	}
}

// wireConnectionEvents subscribes the server to one connection's events,
// forwarding DataReceived/DataSent to the server-level observables,
// LogMessage to the log buffer, and Starting/Stopped to active-connection
// registry maintenance plus OnClientConnected/OnClientDisconnected (spec
// §4.6).
func (s *Server) wireConnectionEvents(c *connio.Connection) {
	id := c.ID

	_, _ = c.OnStarting.AddObserver(func(string) {
		s.connMu.Lock()
		s.connections[id] = c
		s.connMu.Unlock()
		s.OnClientConnected.Notify(ConnectionEvent{ConnectionID: id})
	}, events.ObserverOptions{})

	_, _ = c.OnStopped.AddObserver(func(string) {
		s.connMu.Lock()
		delete(s.connections, id)
		s.connMu.Unlock()
		s.OnClientDisconnected.Notify(ConnectionEvent{ConnectionID: id})
	}, events.ObserverOptions{})

	_, _ = c.OnDataReceived.AddObserver(func(data string) {
		s.OnDataReceived.Notify(DataReceivedEvent{ConnectionID: id, Data: data})
	}, events.ObserverOptions{})

	_, _ = c.OnDataSent.AddObserver(func(data string) {
		s.OnDataSent.Notify(DataSentEvent{ConnectionID: id, Data: data})
	}, events.ObserverOptions{})

	_, _ = c.OnLogMessage.AddObserver(func(msg string) {
		s.appendLog(msg)
	}, events.ObserverOptions{})
}

// dispatchNotifier wraps *registry.Registry so that dispatch also fires
// the server-level RequestHandling/RequestHandled events (spec §4.3: "The
// dispatcher emits two observable events per handled request"), leaving
// per-handler scoped notification to the Registry's own HandlerEvents
// (SPEC_FULL §4.7.1).
type dispatchNotifier struct {
	registry   *registry.Registry
	onHandling *events.ObservableEvent[RequestEvent]
	onHandled  *events.ObservableEvent[RequestHandledEvent]
}

func (d *dispatchNotifier) Dispatch(connID string, req *httpmsg.Request) *httpmsg.Response {
	d.onHandling.Notify(RequestEvent{ConnectionID: connID, Request: req})
	resp := d.registry.Dispatch(connID, req)
	d.onHandled.Notify(RequestHandledEvent{ConnectionID: connID, Request: req, Response: resp})
	return resp
}
