package httpmsg

import "strings"

// Method is the closed set of HTTP methods this fixture understands. Any
// other token fails parsing (spec: unknown tokens are Malformed).
type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
	MethodTrace   Method = "TRACE"
	MethodConnect Method = "CONNECT"
)

// knownMethods maps the uppercase token to its Method value.
var knownMethods = map[string]Method{
	string(MethodGet):     MethodGet,
	string(MethodPost):    MethodPost,
	string(MethodPut):     MethodPut,
	string(MethodDelete):  MethodDelete,
	string(MethodHead):    MethodHead,
	string(MethodOptions): MethodOptions,
	string(MethodTrace):   MethodTrace,
	string(MethodConnect): MethodConnect,
}

// ParseMethod parses tok case-insensitively into one of the known methods.
// ok is false for any token outside that set.
func ParseMethod(tok string) (m Method, ok bool) {
	m, ok = knownMethods[strings.ToUpper(tok)]
	return m, ok
}
