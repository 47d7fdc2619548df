package handler

import (
	"github.com/arrowlake/fixture/internal/handler/auth"
	"github.com/arrowlake/fixture/internal/httpmsg"
)

const (
	defaultUnauthorizedBody = "<html><body><h1>401 Unauthorized</h1></body></html>"
	defaultForbiddenBody    = "<html><body><h1>403 Forbidden</h1></body></html>"
)

// AuthenticatedResource wraps a Resource behind an ordered list of
// Authenticators, per spec §4.5. The first authenticator whose Accepts
// predicate returns true for the request's Authorization value wins; an
// empty authenticator list means "authentication is not enforced" — any
// present, non-empty value is accepted.
type AuthenticatedResource struct {
	resource       *Resource
	authenticators []auth.Authenticator
	unauthorized   []byte
	badRequestBody []byte
	forbidden      []byte
}

// NewAuthenticatedResource wraps resource behind authenticators.
func NewAuthenticatedResource(resource *Resource, authenticators ...auth.Authenticator) *AuthenticatedResource {
	return &AuthenticatedResource{
		resource:       resource,
		authenticators: authenticators,
		unauthorized:   []byte(defaultUnauthorizedBody),
		badRequestBody: []byte(defaultBadRequestBody),
		forbidden:      []byte(defaultForbiddenBody),
	}
}

func (h *AuthenticatedResource) Handle(connID string, req *httpmsg.Request) *httpmsg.Response {
	values := req.Headers.Values("Authorization")

	if len(values) == 0 {
		resp := decorate(req, 401, DefaultMIME, h.unauthorized)
		resp.Headers.Set("Www-Authenticate", "Basic")
		return resp
	}

	first := values[0]
	if first == "" {
		return decorate(req, 400, DefaultMIME, h.badRequestBody)
	}

	if h.accepted(first) {
		return h.resource.Handle(connID, req)
	}

	return decorate(req, 403, DefaultMIME, h.forbidden)
}

func (h *AuthenticatedResource) accepted(value string) bool {
	if len(h.authenticators) == 0 {
		return true
	}
	for _, a := range h.authenticators {
		if a.Accepts(value) {
			return true
		}
	}
	return false
}
