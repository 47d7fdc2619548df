package handler

import (
	"github.com/arrowlake/fixture/internal/httpmsg"
	"github.com/arrowlake/fixture/internal/wsframe"
)

// Upgrade answers a WebSocket handshake request with 101 Switching
// Protocols. The dispatcher holds one built-in instance and uses it for
// every upgrade request — it never needs registration (spec §4.3 step 2).
type Upgrade struct{}

// NewUpgrade creates an Upgrade handler.
func NewUpgrade() *Upgrade {
	return &Upgrade{}
}

func (h *Upgrade) Handle(_ string, req *httpmsg.Request) *httpmsg.Response {
	resp := decorate(req, 101, DefaultMIME, nil)
	resp.Headers.Set("Connection", "Upgrade")
	resp.Headers.Set("Upgrade", "websocket")
	resp.Headers.Set("Sec-WebSocket-Accept", wsframe.AcceptKey(req.Headers.Get("Sec-WebSocket-Key")))
	resp.Headers.Del("Content-Type")
	resp.Headers.Set("Content-Length", "0")
	return resp
}
