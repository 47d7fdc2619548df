package httpmsg

// reasonPhrases is the minimum table required by spec §6. Codes outside this
// table still produce a valid status line, just with an empty (trimmed)
// reason phrase.
var reasonPhrases = map[int]string{
	101: "Switching Protocols",
	200: "OK",
	301: "Moved Permanently",
	400: "Bad Request",
	401: "Unauthorized",
	403: "Forbidden",
	404: "Not Found",
	405: "Method Not Allowed",
	500: "Internal Server Error",
}

// ReasonPhrase returns the known reason phrase for code, or "" if unknown.
func ReasonPhrase(code int) string {
	return reasonPhrases[code]
}
