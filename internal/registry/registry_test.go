package registry

import (
	"testing"

	"github.com/arrowlake/fixture/internal/events"
	"github.com/arrowlake/fixture/internal/handler"
	"github.com/arrowlake/fixture/internal/httpmsg"
)

func mustRequest(t *testing.T, raw string) *httpmsg.Request {
	t.Helper()
	req, err := httpmsg.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	return req
}

func TestDispatchRoutesToRegisteredHandler(t *testing.T) {
	t.Parallel()

	r := New()
	r.RegisterDefault("/", handler.NewResource([]byte("hello world"), ""))

	req := mustRequest(t, "GET / HTTP/1.1\r\nHost: localhost\r\n\r\n")
	resp := r.Dispatch("conn-1", req)

	if resp.Status != 200 {
		t.Errorf("Status = %d, want 200", resp.Status)
	}
	if string(resp.Body) != "hello world" {
		t.Errorf("Body = %q", resp.Body)
	}
}

func TestDispatchUnknownPathIsNotFound(t *testing.T) {
	t.Parallel()

	r := New()
	req := mustRequest(t, "GET /missing HTTP/1.1\r\nHost: localhost\r\n\r\n")
	resp := r.Dispatch("conn-1", req)

	if resp.Status != 404 {
		t.Errorf("Status = %d, want 404", resp.Status)
	}
}

func TestDispatchWrongMethodIsMethodNotAllowedWithSortedAllow(t *testing.T) {
	t.Parallel()

	r := New()
	r.Register("/", httpmsg.MethodPost, handler.NewResource([]byte("post"), ""))
	r.Register("/", httpmsg.MethodDelete, handler.NewResource([]byte("delete"), ""))

	req := mustRequest(t, "GET / HTTP/1.1\r\nHost: localhost\r\n\r\n")
	resp := r.Dispatch("conn-1", req)

	if resp.Status != 405 {
		t.Errorf("Status = %d, want 405", resp.Status)
	}
	if got := resp.Headers.Get("Allow"); got != "DELETE, POST" {
		t.Errorf("Allow = %q, want %q", got, "DELETE, POST")
	}
}

func TestDispatchMalformedRequestIsBadRequest(t *testing.T) {
	t.Parallel()

	r := New()
	// Simulates the synthetic request the connection state machine builds
	// when httpmsg.Parse fails: an ID but no URI.
	req := &httpmsg.Request{ID: "synthetic"}
	resp := r.Dispatch("conn-1", req)

	if resp.Status != 400 {
		t.Errorf("Status = %d, want 400", resp.Status)
	}
}

func TestDispatchUpgradeRequestDoesNotRequireRegistration(t *testing.T) {
	t.Parallel()

	r := New()
	req := mustRequest(t, "GET /ws HTTP/1.1\r\nHost: localhost\r\n"+
		"Connection: Upgrade\r\nUpgrade: websocket\r\n"+
		"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n\r\n")
	resp := r.Dispatch("conn-1", req)

	if resp.Status != 101 {
		t.Errorf("Status = %d, want 101", resp.Status)
	}
}

func TestLaterRegistrationReplacesEarlier(t *testing.T) {
	t.Parallel()

	r := New()
	r.RegisterDefault("/", handler.NewResource([]byte("first"), ""))
	r.RegisterDefault("/", handler.NewResource([]byte("second"), ""))

	req := mustRequest(t, "GET / HTTP/1.1\r\nHost: localhost\r\n\r\n")
	resp := r.Dispatch("conn-1", req)

	if string(resp.Body) != "second" {
		t.Errorf("Body = %q, want %q", resp.Body, "second")
	}
}

func TestHandlerEventsFireAroundDispatch(t *testing.T) {
	t.Parallel()

	r := New()
	r.RegisterDefault("/", handler.NewResource([]byte("hi"), ""))

	he := r.HandlerEvents("/", httpmsg.MethodGet)
	var handlingFired, handledFired bool
	if _, err := he.OnRequestHandling.AddObserver(func(*httpmsg.Request) { handlingFired = true }, events.ObserverOptions{}); err != nil {
		t.Fatalf("AddObserver: %v", err)
	}
	if _, err := he.OnRequestHandled.AddObserver(func(*httpmsg.Response) { handledFired = true }, events.ObserverOptions{}); err != nil {
		t.Fatalf("AddObserver: %v", err)
	}

	req := mustRequest(t, "GET / HTTP/1.1\r\nHost: localhost\r\n\r\n")
	r.Dispatch("conn-1", req)

	if !handlingFired {
		t.Error("expected OnRequestHandling to fire")
	}
	if !handledFired {
		t.Error("expected OnRequestHandled to fire")
	}
}

func TestHandlerEventsNotFiredForUnmatchedRoute(t *testing.T) {
	t.Parallel()

	r := New()
	he := r.HandlerEvents("/missing", httpmsg.MethodGet)
	var handlingFired, handledFired bool
	if _, err := he.OnRequestHandling.AddObserver(func(*httpmsg.Request) { handlingFired = true }, events.ObserverOptions{}); err != nil {
		t.Fatalf("AddObserver: %v", err)
	}
	if _, err := he.OnRequestHandled.AddObserver(func(*httpmsg.Response) { handledFired = true }, events.ObserverOptions{}); err != nil {
		t.Fatalf("AddObserver: %v", err)
	}

	req := mustRequest(t, "GET /missing HTTP/1.1\r\nHost: localhost\r\n\r\n")
	resp := r.Dispatch("conn-1", req)
	if resp.Status != 404 {
		t.Fatalf("Status = %d, want 404", resp.Status)
	}
	if handlingFired || handledFired {
		t.Error("expected no per-handler events for an unregistered route")
	}
}
