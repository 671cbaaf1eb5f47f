package heartbeat

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	sdkerrors "github.com/vinayprograms/gsdk/errors"
)

type recordedRequest struct {
	method string
	path   string
	ctype  string
	body   []byte
}

func newAgent(t *testing.T, status int, body string) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var got []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		got = append(got, recordedRequest{r.Method, r.URL.Path, r.Header.Get("Content-Type"), data})
		mu.Unlock()
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestHTTPTransport_Send(t *testing.T) {
	srv, got := newAgent(t, http.StatusOK, `{"nextHeartbeatIntervalMs":1000,"operation":"Continue"}`)
	tr := NewHTTPTransport(HTTPConfig{Endpoint: srv.URL, ServerID: "host-1"})

	req := &Request{
		CurrentGameState:  StatusStandingBy,
		CurrentGameHealth: Healthy,
		CurrentPlayers:    []ConnectedPlayer{{PlayerID: "p1"}},
	}
	resp, err := tr.Send(context.Background(), req)
	if err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if resp.Operation != OperationContinue || resp.Interval() != time.Second {
		t.Errorf("response = %+v", resp)
	}

	if len(*got) != 1 {
		t.Fatalf("agent saw %d requests, want 1", len(*got))
	}
	r := (*got)[0]
	if r.method != http.MethodPatch {
		t.Errorf("method = %s, want PATCH", r.method)
	}
	if r.path != "/v1/sessionHosts/host-1" {
		t.Errorf("path = %s", r.path)
	}
	if r.ctype != "application/json" {
		t.Errorf("Content-Type = %s", r.ctype)
	}

	var sent Request
	if err := json.Unmarshal(r.body, &sent); err != nil {
		t.Fatalf("agent could not decode body %s: %v", r.body, err)
	}
	if sent.CurrentGameState != StatusStandingBy || sent.CurrentGameHealth != Healthy || len(sent.CurrentPlayers) != 1 {
		t.Errorf("sent = %+v", sent)
	}
}

func TestHTTPTransport_Endpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		want     string
	}{
		{"localhost:56001", "http://localhost:56001/v1/sessionHosts/host-1"},
		{"http://localhost:56001", "http://localhost:56001/v1/sessionHosts/host-1"},
		{"http://localhost:56001/", "http://localhost:56001/v1/sessionHosts/host-1"},
		{"https://agent", "https://agent/v1/sessionHosts/host-1"},
	}

	for _, tt := range tests {
		tr := NewHTTPTransport(HTTPConfig{Endpoint: tt.endpoint, ServerID: "host-1"})
		if got := tr.HeartbeatURL(); got != tt.want {
			t.Errorf("HeartbeatURL() for %q = %s, want %s", tt.endpoint, got, tt.want)
		}
	}
}

func TestHTTPTransport_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode sdkerrors.ErrorCode
	}{
		{"server error", http.StatusServiceUnavailable, "", sdkerrors.ErrCodeTransport},
		{"not found", http.StatusNotFound, `{"operation":"Continue"}`, sdkerrors.ErrCodeTransport},
		{"empty body", http.StatusOK, "", sdkerrors.ErrCodeProtocol},
		{"whitespace body", http.StatusOK, "  \n", sdkerrors.ErrCodeProtocol},
		{"malformed json", http.StatusOK, "{not json", sdkerrors.ErrCodeProtocol},
		{"unknown operation", http.StatusOK, `{"nextHeartbeatIntervalMs":1000,"operation":"explode"}`, sdkerrors.ErrCodeProtocol},
		{"missing operation", http.StatusOK, `{"nextHeartbeatIntervalMs":1000}`, sdkerrors.ErrCodeProtocol},
		{"missing interval", http.StatusOK, `{"operation":"Continue"}`, sdkerrors.ErrCodeProtocol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newAgent(t, tt.status, tt.body)
			tr := NewHTTPTransport(HTTPConfig{Endpoint: srv.URL, ServerID: "host-1"})

			_, err := tr.Send(context.Background(), &Request{CurrentGameState: StatusStandingBy, CurrentPlayers: []ConnectedPlayer{}})
			if err == nil {
				t.Fatal("Send() error = nil")
			}
			if got := sdkerrors.Code(err); got != tt.wantCode {
				t.Errorf("Code() = %q, want %q (%v)", got, tt.wantCode, err)
			}
			if !sdkerrors.IsRetryable(err) {
				t.Errorf("error should be retryable: %v", err)
			}
		})
	}
}

func TestHTTPTransport_StatusMetadata(t *testing.T) {
	srv, _ := newAgent(t, http.StatusBadGateway, "")
	tr := NewHTTPTransport(HTTPConfig{Endpoint: srv.URL, ServerID: "host-1"})

	_, err := tr.Send(context.Background(), &Request{CurrentGameState: StatusStandingBy})
	if got := sdkerrors.GetMetadata(err)["status"]; got != "502" {
		t.Errorf("status metadata = %q, want 502", got)
	}
}

func TestHTTPTransport_Unreachable(t *testing.T) {
	srv, _ := newAgent(t, http.StatusOK, "")
	endpoint := srv.URL
	srv.Close()

	tr := NewHTTPTransport(HTTPConfig{Endpoint: endpoint, ServerID: "host-1", Timeout: 200 * time.Millisecond})
	_, err := tr.Send(context.Background(), &Request{CurrentGameState: StatusInitializing})
	if !sdkerrors.Is(err, sdkerrors.ErrCodeTransport) {
		t.Errorf("error = %v, want TRANSPORT", err)
	}
}

func TestHTTPTransport_SendInfo(t *testing.T) {
	srv, got := newAgent(t, http.StatusOK, "")
	tr := NewHTTPTransport(HTTPConfig{Endpoint: srv.URL, ServerID: "host-1"})

	info := map[string]string{"flavor": "Go", "version": "1.0.0"}
	if err := tr.SendInfo(context.Background(), info); err != nil {
		t.Fatalf("SendInfo error: %v", err)
	}

	r := (*got)[0]
	if r.method != http.MethodPost || r.path != "/v1/metrics/host-1/gsdkinfo" {
		t.Errorf("request = %s %s", r.method, r.path)
	}
	if !strings.Contains(string(r.body), `"flavor":"Go"`) {
		t.Errorf("body = %s", r.body)
	}
}
