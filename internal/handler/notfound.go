package handler

import "github.com/arrowlake/fixture/internal/httpmsg"

// defaultNotFoundBody is the built-in 404 page used when the dispatcher
// synthesizes a NotFound response without an explicit registration.
const defaultNotFoundBody = "<html><body><h1>404 Not Found</h1></body></html>"

// NotFound serves a fixed 404 page. The dispatcher's built-in instance uses
// defaultNotFoundBody; a test may also register its own NotFound for a
// specific path.
type NotFound struct {
	Payload []byte
	MIME    string
}

// NewNotFound creates a NotFound handler. A nil payload defaults to the
// built-in page.
func NewNotFound(payload []byte, mime string) *NotFound {
	if payload == nil {
		payload = []byte(defaultNotFoundBody)
	}
	if mime == "" {
		mime = DefaultMIME
	}
	return &NotFound{Payload: payload, MIME: mime}
}

func (h *NotFound) Handle(_ string, req *httpmsg.Request) *httpmsg.Response {
	return decorate(req, 404, h.MIME, h.Payload)
}
