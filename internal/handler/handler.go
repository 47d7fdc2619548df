// Package handler implements the sealed family of response-producing
// handlers described in spec §4.4: Resource, Redirect, NotFound, BadRequest,
// MethodNotAllowed, AuthenticatedResource, and Upgrade. Every variant shares
// a payload + MIME type fixed at construction and produces its response
// through the standard decoration helper in internal/httpmsg.
package handler

import (
	"errors"

	"github.com/arrowlake/fixture/internal/httpmsg"
)

// ErrHandlerMisuse is returned when a handler is constructed in a way its
// contract forbids — currently only NewMethodNotAllowed with an empty
// method set (spec §7). Modeling this as a constructor-time error keeps the
// invalid state from being representable at all, per spec §9's design note
// that the auxiliary-argument shape is better replaced by a distinct
// constructor.
var ErrHandlerMisuse = errors.New("handler: misuse")

// Handler is the single-operation contract every variant implements.
type Handler interface {
	// Handle produces the response for req, arriving on connID. It never
	// returns an error for a well-formed req; failures in this package are
	// all constructor-time (ErrHandlerMisuse).
	Handle(connID string, req *httpmsg.Request) *httpmsg.Response
}

// DefaultMIME is the MIME type Resource uses when none is supplied.
const DefaultMIME = "text/html;charset=utf-8"

// decorate builds a Response for req with the given status and body, then
// applies ApplyStandardDecoration so Content-Length is computed from that
// body. Callers may override headers on the returned Response.
func decorate(req *httpmsg.Request, status int, mime string, body []byte) *httpmsg.Response {
	resp := httpmsg.NewResponse(req.ID, status)
	resp.Body = body
	httpmsg.ApplyStandardDecoration(resp, mime)
	return resp
}
