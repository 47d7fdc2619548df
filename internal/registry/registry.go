// Package registry implements the handler registry and dispatcher
// described in spec §4.3 (component C3): a path → method → handler map,
// plus the dispatch decision tree that routes a parsed request to one of
// the sealed handler variants in internal/handler. It is grounded in the
// teacher's internal/server/rest package, which layers a small number of
// fixed routes (health, alerts, hosts) over a shared middleware chain; this
// Registry generalizes that fixed route table into one the embedder
// populates at runtime.
package registry

import (
	"sort"
	"strings"
	"sync"

	"github.com/arrowlake/fixture/internal/events"
	"github.com/arrowlake/fixture/internal/handler"
	"github.com/arrowlake/fixture/internal/httpmsg"
)

// HandlerEvents is the per-handler scoped observable pair described in
// SPEC_FULL §4.7.1: a test can observe "this specific (path, method)
// handler fired" without filtering the server-wide RequestHandling/
// RequestHandled stream.
type HandlerEvents struct {
	OnRequestHandling *events.ObservableEvent[*httpmsg.Request]
	OnRequestHandled  *events.ObservableEvent[*httpmsg.Response]
}

func newHandlerEvents() *HandlerEvents {
	return &HandlerEvents{
		OnRequestHandling: events.New[*httpmsg.Request](0),
		OnRequestHandled:  events.New[*httpmsg.Response](0),
	}
}

type routeKey struct {
	path   string
	method httpmsg.Method
}

// Registry maps (path, method) pairs to handlers. Per spec §5, writes are
// expected only before the server starts accepting connections; reads
// during dispatch are concurrent. The embedded RWMutex makes concurrent
// registration during serving safe rather than merely undefined, without
// committing to supporting it as a feature.
type Registry struct {
	mu     sync.RWMutex
	routes map[string]map[httpmsg.Method]handler.Handler
	events map[routeKey]*HandlerEvents

	notFound   *handler.NotFound
	badRequest *handler.BadRequest
	upgrade    *handler.Upgrade
}

// New creates an empty Registry using the default built-in NotFound and
// BadRequest pages.
func New() *Registry {
	return &Registry{
		routes:     make(map[string]map[httpmsg.Method]handler.Handler),
		events:     make(map[routeKey]*HandlerEvents),
		notFound:   handler.NewNotFound(nil, ""),
		badRequest: handler.NewBadRequest(nil, ""),
		upgrade:    handler.NewUpgrade(),
	}
}

// Register binds h to (path, method), replacing any prior handler for that
// exact pair. Registering the same pair twice is idempotent in the sense
// that the later call wins — no error is raised for re-registration.
func (r *Registry) Register(path string, method httpmsg.Method, h handler.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	methods, ok := r.routes[path]
	if !ok {
		methods = make(map[httpmsg.Method]handler.Handler)
		r.routes[path] = methods
	}
	methods[method] = h

	key := routeKey{path: path, method: method}
	if _, ok := r.events[key]; !ok {
		r.events[key] = newHandlerEvents()
	}
}

// RegisterDefault binds h to (path, GET), per spec §4.3's
// "register(path, handler) ≡ register(path, GET, handler)".
func (r *Registry) RegisterDefault(path string, h handler.Handler) {
	r.Register(path, httpmsg.MethodGet, h)
}

// HandlerEvents returns the per-handler scoped observable pair for
// (path, method), creating it if the pair has not been registered yet, so
// a test can subscribe before calling Register.
func (r *Registry) HandlerEvents(path string, method httpmsg.Method) *HandlerEvents {
	key := routeKey{path: path, method: method}

	r.mu.RLock()
	he, ok := r.events[key]
	r.mu.RUnlock()
	if ok {
		return he
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if he, ok := r.events[key]; ok {
		return he
	}
	he = newHandlerEvents()
	r.events[key] = he
	return he
}

// Dispatch routes req to a handler following the decision tree in spec
// §4.3: malformed request (req.URI == nil) → BadRequest; WebSocket upgrade
// → the built-in Upgrade handler; unknown path → NotFound; known path, wrong
// method → MethodNotAllowed with a sorted, uppercased Allow list; otherwise
// the registered handler. It fires the matched route's per-handler scoped
// events (if any route matched) around the handler invocation.
func (r *Registry) Dispatch(connID string, req *httpmsg.Request) *httpmsg.Response {
	if req == nil || req.URI == nil {
		return r.badRequest.Handle(connID, req)
	}

	if req.IsWebSocketUpgrade() {
		return r.upgrade.Handle(connID, req)
	}

	path := req.URI.Path

	r.mu.RLock()
	methods, pathKnown := r.routes[path]
	var h handler.Handler
	var allowed []httpmsg.Method
	if pathKnown {
		h = methods[req.Method]
		if h == nil {
			allowed = make([]httpmsg.Method, 0, len(methods))
			for m := range methods {
				allowed = append(allowed, m)
			}
		}
	}
	var he *HandlerEvents
	if h != nil {
		he = r.events[routeKey{path: path, method: req.Method}]
	}
	r.mu.RUnlock()

	switch {
	case !pathKnown:
		return r.notFound.Handle(connID, req)
	case h == nil:
		sort.Slice(allowed, func(i, j int) bool {
			return strings.ToUpper(string(allowed[i])) < strings.ToUpper(string(allowed[j]))
		})
		// allowed is only empty when a path entry exists with zero
		// methods, which Register never produces.
		mna, err := handler.NewMethodNotAllowed(allowed, nil, "")
		if err != nil {
			return r.notFound.Handle(connID, req)
		}
		return mna.Handle(connID, req)
	default:
		if he != nil {
			he.OnRequestHandling.Notify(req)
		}
		resp := h.Handle(connID, req)
		if he != nil {
			he.OnRequestHandled.Notify(resp)
		}
		return resp
	}
}
