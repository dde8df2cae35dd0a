package proxy

import "time"

// Config is the proxy server configuration.
type Config struct {
	// Address to listen on (e.g., ":8080")
	ListenAddr string

	// Upstream model server URL, without the /v1 suffix
	// (e.g., "http://localhost:1234")
	UpstreamURL string

	// Model is the fallback model identifier reported when the upstream
	// omits one.
	Model string

	// APIKey is sent upstream as a bearer credential when non-empty.
	APIKey string

	// Timeout bounds each upstream call.
	Timeout time.Duration
}
