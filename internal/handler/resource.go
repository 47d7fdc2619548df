package handler

import "github.com/arrowlake/fixture/internal/httpmsg"

// Resource serves a fixed byte payload with status 200. This is the
// workhorse handler a test registers for "serve this page" fixtures.
type Resource struct {
	Payload []byte
	MIME    string
}

// NewResource creates a Resource. An empty mime defaults to DefaultMIME.
func NewResource(payload []byte, mime string) *Resource {
	if mime == "" {
		mime = DefaultMIME
	}
	return &Resource{Payload: payload, MIME: mime}
}

func (h *Resource) Handle(_ string, req *httpmsg.Request) *httpmsg.Response {
	return decorate(req, 200, h.MIME, h.Payload)
}
