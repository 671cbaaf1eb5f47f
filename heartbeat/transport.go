package heartbeat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	sdkerrors "github.com/vinayprograms/gsdk/errors"
)

// DefaultAttemptTimeout bounds a single HTTP attempt.
const DefaultAttemptTimeout = time.Second

// maxResponseBytes caps how much of an agent response is read.
const maxResponseBytes = 1 << 20

// Transport performs a single heartbeat attempt. Retries are the caller's job.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

// Send implements Transport.
func (f TransportFunc) Send(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// InfoSender reports SDK identity to the agent once at startup.
type InfoSender interface {
	SendInfo(ctx context.Context, info any) error
}

// HTTPConfig configures an HTTPTransport.
type HTTPConfig struct {
	// Endpoint is the agent's host[:port]. A scheme prefix is tolerated.
	Endpoint string

	// ServerID is the session host id used in request paths.
	ServerID string

	// Timeout bounds each attempt.
	// Default: 1 second
	Timeout time.Duration

	// Base is the underlying round tripper.
	// Default: http.DefaultTransport
	Base http.RoundTripper
}

// HTTPTransport talks to the agent's local HTTP endpoint.
type HTTPTransport struct {
	client       *http.Client
	heartbeatURL string
	infoURL      string
}

var _ Transport = (*HTTPTransport)(nil)
var _ InfoSender = (*HTTPTransport)(nil)

// NewHTTPTransport creates a transport for cfg. Each request is traced
// through otelhttp.
func NewHTTPTransport(cfg HTTPConfig) *HTTPTransport {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultAttemptTimeout
	}
	base := cfg.Base
	if base == nil {
		base = http.DefaultTransport
	}

	endpoint := strings.TrimSuffix(cfg.Endpoint, "/")
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "http://" + endpoint
	}

	return &HTTPTransport{
		client: &http.Client{
			Timeout: timeout,
			Transport: otelhttp.NewTransport(base,
				otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
					if r.Method == http.MethodPatch {
						return "heartbeat.attempt"
					}
					return "heartbeat.info"
				}),
			),
		},
		heartbeatURL: fmt.Sprintf("%s/v1/sessionHosts/%s", endpoint, cfg.ServerID),
		infoURL:      fmt.Sprintf("%s/v1/metrics/%s/gsdkinfo", endpoint, cfg.ServerID),
	}
}

// HeartbeatURL returns the URL heartbeats are sent to.
func (t *HTTPTransport) HeartbeatURL() string {
	return t.heartbeatURL
}

// Send PATCHes req to the agent and decodes the reply. Network failures and
// non-2xx statuses are TRANSPORT errors; empty, malformed or invalid bodies
// are PROTOCOL errors. Both are retryable.
func (t *HTTPTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	data, err := t.do(ctx, http.MethodPatch, t.heartbeatURL, req)
	if err != nil {
		return nil, err
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, sdkerrors.Protocol("empty heartbeat response")
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, sdkerrors.Protocol("decoding heartbeat response", sdkerrors.WithCause(err))
	}
	if err := resp.Validate(); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SendInfo POSTs info to the agent's gsdkinfo endpoint.
func (t *HTTPTransport) SendInfo(ctx context.Context, info any) error {
	_, err := t.do(ctx, http.MethodPost, t.infoURL, info)
	return err
}

func (t *HTTPTransport) do(ctx context.Context, method, url string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, sdkerrors.Internal("encoding request", sdkerrors.WithCause(err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return nil, sdkerrors.Internal("building request", sdkerrors.WithCause(err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, sdkerrors.Wrap(ctx.Err(), "request aborted")
		}
		return nil, sdkerrors.Transport("contacting agent", sdkerrors.WithCause(err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, sdkerrors.Transport("reading agent response", sdkerrors.WithCause(err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, sdkerrors.Transport(
			fmt.Sprintf("agent returned status %d", resp.StatusCode),
			sdkerrors.WithMetadata("status", strconv.Itoa(resp.StatusCode)),
		)
	}
	return data, nil
}
