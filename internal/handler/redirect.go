package handler

import "github.com/arrowlake/fixture/internal/httpmsg"

// Redirect replies 301 Moved Permanently with a Location header and no
// body, per spec §4.4.
type Redirect struct {
	Target string
}

// NewRedirect creates a Redirect pointing at target.
func NewRedirect(target string) *Redirect {
	return &Redirect{Target: target}
}

func (h *Redirect) Handle(_ string, req *httpmsg.Request) *httpmsg.Response {
	resp := decorate(req, 301, DefaultMIME, nil)
	resp.Headers.Set("Location", h.Target)
	resp.Headers.Set("Content-Length", "0")
	return resp
}
