package kvrouter

import "context"

// Forwarder delivers a command to the backend.
type Forwarder interface {
	// Forward posts req to the backend and returns its response body as is.
	//
	// The backend's HTTP status is not interpreted. An error means the
	// exchange itself failed.
	Forward(ctx context.Context, req *OutboundRequest) (string, error)
}
