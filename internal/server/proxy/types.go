// Package proxy implements the same-origin forwarding endpoint of the
// library gateway. It relays caller requests to the fixed upstream base URL
// and wraps every upstream reply in a uniform envelope, without interpreting
// payload semantics.
package proxy

import "encoding/json"

// Request is the body of POST /api/proxy.
type Request struct {
	Endpoint string            `json:"endpoint"`
	Method   string            `json:"method,omitempty"`
	Headers  map[string]string `json:"headers,omitempty"`
	Data     json.RawMessage   `json:"data,omitempty"`
}

// Response is the uniform envelope returned for proxied calls.
type Response struct {
	Success    bool              `json:"success"`
	Status     int               `json:"status,omitempty"`
	StatusText string            `json:"statusText,omitempty"`
	Data       any               `json:"data,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	Error      string            `json:"error,omitempty"`
	Details    string            `json:"details,omitempty"`
}
