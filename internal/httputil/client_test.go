package httputil

import (
	"errors"
	"io"
	"net/http"
	"testing"
)

func newRequest(t *testing.T, url string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	return req
}

func TestHTTPClientSatisfiedByStdlib(t *testing.T) {
	var _ HTTPClient = &http.Client{}
	var _ HTTPClient = NewMockHTTPClient()
}

func TestMockHTTPClient_QueuedResponses(t *testing.T) {
	mock := NewMockHTTPClient()
	mock.AddResponse(http.StatusOK, `{"n":1}`)
	mock.AddResponseWithHeaders(http.StatusTooManyRequests, "", http.Header{"Retry-After": {"2"}})

	resp, err := mock.Do(newRequest(t, "http://example.com/a"))
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != `{"n":1}` {
		t.Errorf("first response = %d %q", resp.StatusCode, body)
	}

	resp, err = mock.Do(newRequest(t, "http://example.com/b"))
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", resp.StatusCode)
	}
	if got := resp.Header.Get("Retry-After"); got != "2" {
		t.Errorf("Retry-After = %q, want 2", got)
	}

	// Exhausted queue falls back to an empty 200.
	resp, err = mock.Do(newRequest(t, "http://example.com/c"))
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("default status = %d, want 200", resp.StatusCode)
	}

	if mock.RequestCount() != 3 {
		t.Errorf("RequestCount = %d, want 3", mock.RequestCount())
	}
	if got := mock.GetRequest(1).URL.Path; got != "/b" {
		t.Errorf("second request path = %q, want /b", got)
	}
	if mock.GetRequest(5) != nil {
		t.Error("GetRequest out of range should be nil")
	}
}

func TestMockHTTPClient_Errors(t *testing.T) {
	boom := errors.New("connection reset")

	mock := NewMockHTTPClient()
	mock.AddErrorResponse(boom)
	if _, err := mock.Do(newRequest(t, "http://example.com")); !errors.Is(err, boom) {
		t.Errorf("queued error = %v, want %v", err, boom)
	}

	mock = NewMockHTTPClient()
	mock.DefaultError = boom
	if _, err := mock.Do(newRequest(t, "http://example.com")); !errors.Is(err, boom) {
		t.Errorf("default error = %v, want %v", err, boom)
	}
}

func TestMockHTTPClient_DoFunc(t *testing.T) {
	mock := NewMockHTTPClient()
	mock.DoFunc = func(req *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusTeapot, Body: http.NoBody, Request: req}, nil
	}
	resp, err := mock.Do(newRequest(t, "http://example.com"))
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode != http.StatusTeapot {
		t.Errorf("status = %d, want 418", resp.StatusCode)
	}
}
