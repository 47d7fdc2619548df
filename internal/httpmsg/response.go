package httpmsg

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
)

// ProductName and ProductVersion identify this server in the default
// Server header. Any implementation-chosen identifier is acceptable per
// spec §6; these name the fixture itself.
const (
	ProductName    = "fixture"
	ProductVersion = "1.0"
)

// Response is a mutable response builder. A Handler fills it in and returns
// it; the connection state machine serializes it with Serialize.
type Response struct {
	RequestID string
	Status    int
	Version   string
	Headers   Headers
	Body      []byte
}

// NewResponse creates a Response for requestID with the given status and an
// empty body. Version defaults to HTTP/1.1 per spec §3.
func NewResponse(requestID string, status int) *Response {
	return &Response{
		RequestID: requestID,
		Status:    status,
		Version:   "HTTP/1.1",
	}
}

// ApplyStandardDecoration sets the default response headers described in
// spec §4.1/§6: Connection, Server, Date, Content-Type, Content-Length. A
// handler may override any of these after calling this helper (the upgrade
// handler, for instance, overrides Connection to "Upgrade").
func ApplyStandardDecoration(resp *Response, mimeType string) {
	resp.Headers.Set("Connection", "keep-alive")
	resp.Headers.Set("Server", fmt.Sprintf("%s/%s", ProductName, ProductVersion))
	resp.Headers.Set("Date", time.Now().UTC().Format("Mon, 02 Jan 2006 15:04:05 GMT"))
	resp.Headers.Set("Content-Type", mimeType)
	resp.Headers.Set("Content-Length", strconv.Itoa(len(resp.Body)))
}

// Serialize renders resp as HTTP/1.1 response bytes: status line, header
// lines (one per value, insertion order), a blank CRLF line, then the body
// verbatim. No transfer-encoding is applied.
func Serialize(resp *Response) []byte {
	var buf bytes.Buffer

	reason := ReasonPhrase(resp.Status)
	statusLine := fmt.Sprintf("%s %d %s", resp.Version, resp.Status, reason)
	// Trim trailing whitespace left behind when reason is empty.
	for len(statusLine) > 0 && statusLine[len(statusLine)-1] == ' ' {
		statusLine = statusLine[:len(statusLine)-1]
	}
	buf.WriteString(statusLine)
	buf.WriteString("\r\n")

	for _, p := range resp.Headers.Pairs() {
		buf.WriteString(p.Key)
		buf.WriteString(": ")
		buf.WriteString(p.Value)
		buf.WriteString("\r\n")
	}
	buf.WriteString("\r\n")
	buf.Write(resp.Body)

	return buf.Bytes()
}
