package providers

import (
	"log/slog"
	"net/http"
)

// HTTPProvider is the transport shared by the SDK-backed variants. It owns
// the pooled HTTP client and the resolved client configuration. SDK retries
// are disabled by every variant; pkg/retry owns retrying.
type HTTPProvider struct {
	// config contains the client configuration
	config ClientConfig

	// client is the HTTP client with connection pooling
	client *http.Client

	logger *slog.Logger
}

// NewHTTPProvider creates a transport with connection pooling.
func NewHTTPProvider(config ClientConfig) *HTTPProvider {
	config = config.WithDefaults()

	transport := &http.Transport{
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConns,
		IdleConnTimeout:     config.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	return &HTTPProvider{
		config: config,
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
		logger: slog.Default().With("component", "providers.http", "provider", config.Name),
	}
}

// Config returns the client configuration.
func (p *HTTPProvider) Config() ClientConfig {
	return p.config
}

// HTTPClient exposes the pooled client so SDK-backed variants can share it.
func (p *HTTPProvider) HTTPClient() *http.Client {
	return p.client
}

// Close closes idle pooled connections.
func (p *HTTPProvider) Close() error {
	p.client.CloseIdleConnections()
	p.logger.Debug("provider closed")
	return nil
}
