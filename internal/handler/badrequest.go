package handler

import "github.com/arrowlake/fixture/internal/httpmsg"

const defaultBadRequestBody = "<html><body><h1>400 Bad Request</h1></body></html>"

// BadRequest serves a fixed 400 page. The dispatcher falls back to this
// when a request fails to parse (spec §4.3 step 1).
type BadRequest struct {
	Payload []byte
	MIME    string
}

// NewBadRequest creates a BadRequest handler. A nil payload defaults to
// the built-in page.
func NewBadRequest(payload []byte, mime string) *BadRequest {
	if payload == nil {
		payload = []byte(defaultBadRequestBody)
	}
	if mime == "" {
		mime = DefaultMIME
	}
	return &BadRequest{Payload: payload, MIME: mime}
}

func (h *BadRequest) Handle(_ string, req *httpmsg.Request) *httpmsg.Response {
	return decorate(req, 400, h.MIME, h.Payload)
}
