package handler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/arrowlake/fixture/internal/httpmsg"
)

const defaultMethodNotAllowedBody = "<html><body><h1>405 Method Not Allowed</h1></body></html>"

// MethodNotAllowed serves a fixed 405 page and sets the Allow header from
// the set of methods registered for the path (spec §4.3 step 4).
//
// Unlike the source this codebase was derived from, the allowed-method set
// is bound at construction time rather than passed as an optional argument
// to Handle — see ErrHandlerMisuse and spec §9's design note on this point.
type MethodNotAllowed struct {
	Payload []byte
	MIME    string
	allow   string
}

// NewMethodNotAllowed creates a MethodNotAllowed handler for the given set
// of registered methods. methods must be non-empty; an empty set returns
// ErrHandlerMisuse, since a 405 response with no Allow candidates is a
// caller bug, not a fixture scenario.
func NewMethodNotAllowed(methods []httpmsg.Method, payload []byte, mime string) (*MethodNotAllowed, error) {
	if len(methods) == 0 {
		return nil, fmt.Errorf("%w: MethodNotAllowed requires a non-empty method set", ErrHandlerMisuse)
	}
	if payload == nil {
		payload = []byte(defaultMethodNotAllowedBody)
	}
	if mime == "" {
		mime = DefaultMIME
	}

	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = strings.ToUpper(string(m))
	}
	sort.Strings(names)

	return &MethodNotAllowed{
		Payload: payload,
		MIME:    mime,
		allow:   strings.Join(names, ", "),
	}, nil
}

func (h *MethodNotAllowed) Handle(_ string, req *httpmsg.Request) *httpmsg.Response {
	resp := decorate(req, 405, h.MIME, h.Payload)
	resp.Headers.Set("Allow", h.allow)
	return resp
}
