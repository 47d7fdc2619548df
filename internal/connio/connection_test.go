package connio

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/arrowlake/fixture/internal/events"
	"github.com/arrowlake/fixture/internal/handler"
	"github.com/arrowlake/fixture/internal/registry"
	"github.com/arrowlake/fixture/internal/wsframe"
)

func newPipePair(t *testing.T) (server, client net.Conn) {
	t.Helper()
	server, client = net.Pipe()
	t.Cleanup(func() {
		server.Close()
		client.Close()
	})
	return server, client
}

func waitFor(t *testing.T, ch chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for signal")
	}
}

func TestConnectionServesHTTPRequest(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	reg.RegisterDefault("/", handler.NewResource([]byte("hello world"), ""))

	server, client := newPipePair(t)
	conn := New("conn-1", server, reg, 4096)

	done := make(chan struct{})
	go func() {
		conn.Run()
		close(done)
	}()

	if _, err := client.Write([]byte("GET / HTTP/1.1\r\nHost: localhost\r\n\r\n")); err != nil {
		t.Fatalf("client write: %v", err)
	}

	buf := make([]byte, 4096)
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := client.Read(buf)
	if err != nil {
		t.Fatalf("client read: %v", err)
	}
	resp := string(buf[:n])
	for _, want := range []string{"200", "hello world", "Content-Length: 11"} {
		if !strings.Contains(resp, want) {
			t.Errorf("response = %q, missing %q", resp, want)
		}
	}

	conn.StopReceiving()
	waitFor(t, done)
}

func TestConnectionUpgradeTransitionsState(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	server, client := newPipePair(t)
	conn := New("conn-1", server, reg, 4096)

	done := make(chan struct{})
	go func() {
		conn.Run()
		close(done)
	}()

	req := "GET /ws HTTP/1.1\r\nHost: localhost\r\n" +
		"Connection: Upgrade\r\nUpgrade: websocket\r\n" +
		"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n\r\n"
	if _, err := client.Write([]byte(req)); err != nil {
		t.Fatalf("client write: %v", err)
	}

	buf := make([]byte, 4096)
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := client.Read(buf)
	if err != nil {
		t.Fatalf("client read: %v", err)
	}
	handshake := string(buf[:n])
	if !strings.Contains(handshake, "101") || !strings.Contains(handshake, "Sec-WebSocket-Accept") {
		t.Fatalf("handshake response = %q", handshake)
	}

	deadline := time.Now().Add(2 * time.Second)
	for conn.State() != StateWebSocketOpen && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if conn.State() != StateWebSocketOpen {
		t.Fatalf("State() = %v, want WebSocketOpen", conn.State())
	}

	conn.StopReceiving()
	waitFor(t, done)
}

func TestConnectionEchoesTextFrameAsDataReceived(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	server, client := newPipePair(t)
	conn := New("conn-1", server, reg, 4096)
	conn.state.Store(int32(StateWebSocketOpen))

	received := make(chan string, 1)
	if _, err := conn.OnDataReceived.AddObserver(func(s string) { received <- s }, events.ObserverOptions{}); err != nil {
		t.Fatalf("AddObserver: %v", err)
	}

	done := make(chan struct{})
	go func() {
		conn.Run()
		close(done)
	}()

	frame := wsframe.Encode([]byte("Received from client"), wsframe.OpcodeText)
	if _, err := client.Write(frame); err != nil {
		t.Fatalf("client write: %v", err)
	}

	select {
	case got := <-received:
		if got != "Received from client" {
			t.Errorf("DataReceived payload = %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for DataReceived")
	}

	conn.StopReceiving()
	waitFor(t, done)
}

func TestConnectionIgnoreCloseRequestSuppressesReply(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	server, client := newPipePair(t)
	conn := New("conn-1", server, reg, 4096)
	conn.state.Store(int32(StateWebSocketOpen))
	conn.SetIgnoreCloseRequest(true)

	done := make(chan struct{})
	go func() {
		conn.Run()
		close(done)
	}()

	frame := wsframe.Encode([]byte("bye"), wsframe.OpcodeClose)
	if _, err := client.Write(frame); err != nil {
		t.Fatalf("client write: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if conn.State() == StateClosed {
		t.Fatal("connection closed despite ignoreCloseRequest=true")
	}

	// No Close reply may reach the client.
	client.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	if n, err := client.Read(make([]byte, 64)); err == nil {
		t.Fatalf("client received %d bytes, want no Close reply", n)
	}

	// Disconnect sends the server's own Close frame and leaves the
	// connection in CloseSent until the peer tears down the socket.
	go conn.Disconnect()
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := client.Read(make([]byte, 64)); err != nil {
		t.Fatalf("client read of server Close frame: %v", err)
	}
	client.Close()
	waitFor(t, done)
}
