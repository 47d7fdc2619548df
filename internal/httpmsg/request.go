package httpmsg

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// ErrMalformed is the sentinel wrapped by every parse failure. Callers that
// only care whether parsing succeeded can use errors.Is(err, ErrMalformed).
var ErrMalformed = errors.New("httpmsg: malformed request")

// Request is an immutable, fully-parsed HTTP/1.1 request.
type Request struct {
	ID      string
	Version string
	Method  Method
	URI     *url.URL
	Headers Headers
	Body    []byte
}

// IsWebSocketUpgrade reports whether this request carries the RFC 6455
// handshake headers: Connection contains the "Upgrade" token, Upgrade
// contains the "websocket" token, and Sec-WebSocket-Key is present and
// non-empty.
func (r *Request) IsWebSocketUpgrade() bool {
	conn := r.Headers.Get("Connection")
	upg := r.Headers.Get("Upgrade")
	key := r.Headers.Get("Sec-WebSocket-Key")
	return containsToken(conn, "upgrade") && containsToken(upg, "websocket") && key != ""
}

// Parse parses a single complete HTTP/1.1 request out of buf. It assumes buf
// contains exactly one request (the connection state machine is responsible
// for collecting a complete message before calling Parse). On any violation
// of the grammar described in spec §4.1 it returns a nil Request and an
// error wrapping ErrMalformed.
func Parse(buf []byte) (*Request, error) {
	lines := bytes.Split(buf, []byte("\r\n"))
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: empty buffer", ErrMalformed)
	}

	startLine := strings.Fields(string(lines[0]))
	if len(startLine) != 3 {
		return nil, fmt.Errorf("%w: request line %q does not have 3 tokens", ErrMalformed, lines[0])
	}
	methodTok, target, version := startLine[0], startLine[1], startLine[2]

	method, ok := ParseMethod(methodTok)
	if !ok {
		return nil, fmt.Errorf("%w: unknown method %q", ErrMalformed, methodTok)
	}

	var headers Headers
	headerEnd := -1
	for i := 1; i < len(lines); i++ {
		line := lines[i]
		if len(line) == 0 {
			headerEnd = i
			break
		}
		idx := bytes.IndexByte(line, ':')
		if idx < 0 {
			return nil, fmt.Errorf("%w: header line %q has no colon", ErrMalformed, line)
		}
		key := strings.TrimSpace(string(line[:idx]))
		value := strings.TrimSpace(string(line[idx+1:]))
		headers.Add(key, value)
	}
	if headerEnd < 0 {
		return nil, fmt.Errorf("%w: no blank line terminating headers", ErrMalformed)
	}

	if n := headers.Count("Host"); n != 1 {
		return nil, fmt.Errorf("%w: expected exactly one Host header, got %d", ErrMalformed, n)
	}
	host := headers.Get("Host")

	var bodyLines []string
	for i := headerEnd + 1; i < len(lines); i++ {
		bodyLines = append(bodyLines, string(lines[i]))
	}
	// Drop one trailing empty element produced by a message with no body
	// (the split of "...\r\n\r\n" yields a final empty string after the
	// separator). Any other body keeps its trailing empty lines as trailing
	// "\n" characters — see spec §9 on the lossy join.
	if len(bodyLines) == 1 && bodyLines[0] == "" {
		bodyLines = nil
	}
	body := []byte(strings.Join(bodyLines, "\n"))

	uri, err := url.Parse("http://" + host + target)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot build URI from host %q target %q: %v", ErrMalformed, host, target, err)
	}

	return &Request{
		ID:      uuid.NewString(),
		Version: version,
		Method:  method,
		URI:     uri,
		Headers: headers,
		Body:    body,
	}, nil
}
