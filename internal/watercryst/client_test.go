package watercryst

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient("test-key",
		WithBaseURL(srv.URL),
		WithRetryDelay(time.Millisecond),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func TestRequest_SendsAPIKeyHeader(t *testing.T) {
	var gotKey, gotAccept string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-KEY")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"online":true}`))
	}))

	if _, err := c.GetState(context.Background()); err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if gotKey != "test-key" {
		t.Errorf("X-API-KEY = %q, want test-key", gotKey)
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept = %q, want application/json", gotAccept)
	}
}

func TestRequest_EmptyBodyRetriesThenFails(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		// empty body on a 200
	}))

	_, err := c.request(context.Background(), "state", nil, false)
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("error = %v, want ErrEmptyResponse", err)
	}
	if got := calls.Load(); got != DefaultMaxAttempts {
		t.Errorf("attempts = %d, want %d", got, DefaultMaxAttempts)
	}
}

func TestRequest_EmptyBodyRecoversOnRetry(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) < 3 {
			return // empty body
		}
		w.Write([]byte(`{"online":true}`))
	}))

	data, err := c.request(context.Background(), "state", nil, false)
	if err != nil {
		t.Fatalf("request() error = %v", err)
	}
	if string(data) != `{"online":true}` {
		t.Errorf("body = %s", data)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestRequest_AllowEmptySucceedsImmediately(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
	}))

	data, err := c.request(context.Background(), "state", nil, true)
	if err != nil {
		t.Fatalf("request() error = %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("body = %s, want {}", data)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("attempts = %d, want 1 (no retry on allowed empty)", got)
	}
}

func TestRequest_UnauthorizedNeverRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := c.request(context.Background(), "state", nil, false)
	if !errors.Is(err, ErrAuthentication) {
		t.Fatalf("error = %v, want ErrAuthentication", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("attempts = %d, want 1", got)
	}
}

func TestRequest_FatalStatuses(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusForbidden, ErrDisabled},
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusBadRequest, ErrUnsupported},
	}

	for _, tt := range tests {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		_, err := c.request(context.Background(), "state", nil, false)
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: error = %v, want %v", tt.status, err, tt.want)
		}
	}
}

func TestRequest_ServerErrorRetriesThenRecovers(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"online":false}`))
	}))

	data, err := c.request(context.Background(), "state", nil, false)
	if err != nil {
		t.Fatalf("request() error = %v", err)
	}
	if string(data) != `{"online":false}` {
		t.Errorf("body = %s", data)
	}
}

func TestRequest_ServerErrorExhaustsAttempts(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := c.request(context.Background(), "state", nil, false)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", statusErr.StatusCode)
	}
	if got := calls.Load(); got != DefaultMaxAttempts {
		t.Errorf("attempts = %d, want %d", got, DefaultMaxAttempts)
	}
}

func TestRequest_ErrorPageOnOK(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<!DOCTYPE html><html>Bad Gateway</html>"))
	}))

	_, err := c.request(context.Background(), "state", nil, false)
	if !errors.Is(err, ErrServerError) {
		t.Fatalf("error = %v, want ErrServerError", err)
	}
}

func TestRequest_NonJSONBodyWrapped(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("all good"))
	}))

	data, err := c.request(context.Background(), "status", nil, false)
	if err != nil {
		t.Fatalf("request() error = %v", err)
	}
	if string(data) != `{"raw_response":"all good"}` {
		t.Errorf("body = %s", data)
	}
}

func TestRequest_ConnectionErrorWrapped(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // nothing listening anymore

	c := NewClient("test-key",
		WithBaseURL(srv.URL),
		WithRetryDelay(time.Millisecond),
		WithMaxAttempts(2),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	_, err := c.request(context.Background(), "state", nil, false)
	if !IsConnectionError(err) {
		t.Fatalf("error = %v, want connection error", err)
	}
}

func TestRequestRaw_NumericCoercion(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("123.45"))
	}))

	got, err := c.GetDailyConsumption(context.Background())
	if err != nil {
		t.Fatalf("GetDailyConsumption() error = %v", err)
	}
	if got != 123.45 {
		t.Errorf("consumption = %v, want 123.45", got)
	}
}

func TestRequestRaw_NonNumericBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not a number"))
	}))

	_, err := c.GetTotalConsumption(context.Background())
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("error = %v, want ErrInvalidResponse", err)
	}
}

func TestRequestRaw_EmptyAlwaysTransient(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	_, err := c.GetDailyConsumption(context.Background())
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("error = %v, want ErrEmptyResponse", err)
	}
	if got := calls.Load(); got != DefaultMaxAttempts {
		t.Errorf("attempts = %d, want %d", got, DefaultMaxAttempts)
	}
}

func TestGetState_FillsModeName(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"online":true,"mode":{"id":"WT"}}`))
	}))

	state, err := c.GetState(context.Background())
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if state.Mode.Name != "Water Treatment" {
		t.Errorf("Mode.Name = %q, want Water Treatment", state.Mode.Name)
	}
}

func TestTestConnectivity(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			// empty body is tolerated by the probe
		}))
		ok, err := c.TestConnectivity(context.Background())
		if err != nil || !ok {
			t.Errorf("TestConnectivity() = %v, %v, want true, nil", ok, err)
		}
	})

	t.Run("bad key re-raised", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		ok, err := c.TestConnectivity(context.Background())
		if ok || !errors.Is(err, ErrAuthentication) {
			t.Errorf("TestConnectivity() = %v, %v, want false, ErrAuthentication", ok, err)
		}
	})

	t.Run("other failures are not errors", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		ok, err := c.TestConnectivity(context.Background())
		if ok || err != nil {
			t.Errorf("TestConnectivity() = %v, %v, want false, nil", ok, err)
		}
	})
}
