package probe

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// Doer is the slice of *http.Client the prober needs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewClient builds the HTTP client used for liveness probes.
//
// Every dial, handshake and header wait is bounded by the per-attempt
// timeout and keep-alives are off. Redirects are followed with the standard
// library policy; the recorded status code is the one at the end of the chain.
func NewClient(opts Options) *http.Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 0,
				}).DialContext(ctx, network, addr)
			},
			TLSHandshakeTimeout:   timeout,
			ResponseHeaderTimeout: timeout,
			TLSClientConfig: &tls.Config{
				MinVersion:         tls.VersionTLS12,
				InsecureSkipVerify: opts.InsecureSkipVerify, //nolint:gosec // opt-in via --insecure
			},
			DisableKeepAlives: true,
			IdleConnTimeout:   10 * time.Second,
		},
	}
}
