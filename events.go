package fixture

import "github.com/arrowlake/fixture/internal/httpmsg"

// DataReceivedEvent is the payload of Server.OnDataReceived.
type DataReceivedEvent struct {
	ConnectionID string
	Data         string
}

// DataSentEvent is the payload of Server.OnDataSent.
type DataSentEvent struct {
	ConnectionID string
	Data         string
}

// ConnectionEvent is the payload of Server.OnClientConnected and
// Server.OnClientDisconnected.
type ConnectionEvent struct {
	ConnectionID string
}

// RequestEvent is the payload of Server.OnRequestHandling.
type RequestEvent struct {
	ConnectionID string
	Request      *httpmsg.Request
}

// RequestHandledEvent is the payload of Server.OnRequestHandled.
type RequestHandledEvent struct {
	ConnectionID string
	Request      *httpmsg.Request
	Response     *httpmsg.Response
}
