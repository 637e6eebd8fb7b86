package gql

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/brightloom/pointsminer/internal/session"
)

// scriptedTransport replays a fixed sequence of responses/errors, one per
// call, regardless of request target — Client's endpoint is a compile-time
// constant, so intercepting at the RoundTripper is the only seam available
// without standing up a real listener.
type scriptedTransport struct {
	calls     int32
	responses []func() (*http.Response, error)
}

func (t *scriptedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	i := int(atomic.AddInt32(&t.calls, 1)) - 1
	if i >= len(t.responses) {
		i = len(t.responses) - 1
	}
	return t.responses[i]()
}

func (t *scriptedTransport) callCount() int {
	return int(atomic.LoadInt32(&t.calls))
}

func jsonResponse(status int, body string) func() (*http.Response, error) {
	return func() (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(bytes.NewReader([]byte(body))),
			Header:     make(http.Header),
		}, nil
	}
}

func transportError(msg string) func() (*http.Response, error) {
	return func() (*http.Response, error) {
		return nil, errors.New(msg)
	}
}

func newTestClient(transport http.RoundTripper) *Client {
	c := NewClient(&session.ClientSession{
		AuthToken: "token", DeviceID: "device", SessionID: "session", UserAgent: "agent",
	})
	c.http = &http.Client{Transport: transport}
	c.SetRetryPolicy(RetryPolicy{Attempts: 3, IntervalSeconds: 0})
	return c
}

func testOp() Operation {
	return newOperation("TestOperation", "deadbeef")
}

func TestDoSucceedsOnFirstTry(t *testing.T) {
	transport := &scriptedTransport{responses: []func() (*http.Response, error){
		jsonResponse(http.StatusOK, `{"data":{"ok":true}}`),
	}}
	c := newTestClient(transport)

	val, err := c.Do(testOp())
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if transport.callCount() != 1 {
		t.Errorf("callCount = %d, want 1", transport.callCount())
	}
	ok, err := val.Property("data")
	if err != nil {
		t.Fatalf("Property(data) error = %v", err)
	}
	if _, err := ok.Property("ok"); err != nil {
		t.Errorf("Property(ok) error = %v", err)
	}
}

func TestDoRetriesOnRecoverableErrorThenSucceeds(t *testing.T) {
	transport := &scriptedTransport{responses: []func() (*http.Response, error){
		jsonResponse(http.StatusInternalServerError, ""),
		jsonResponse(http.StatusOK, `{"data":{}}`),
	}}
	c := newTestClient(transport)

	_, err := c.Do(testOp())
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if transport.callCount() != 2 {
		t.Errorf("callCount = %d, want 2 (one failure, one success)", transport.callCount())
	}
}

func TestDoRetriesOn429(t *testing.T) {
	transport := &scriptedTransport{responses: []func() (*http.Response, error){
		jsonResponse(http.StatusTooManyRequests, ""),
		jsonResponse(http.StatusOK, `{"data":{}}`),
	}}
	c := newTestClient(transport)

	if _, err := c.Do(testOp()); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if transport.callCount() != 2 {
		t.Errorf("callCount = %d, want 2", transport.callCount())
	}
}

func TestDoExhaustsRetriesAndReturnsRetryError(t *testing.T) {
	transport := &scriptedTransport{responses: []func() (*http.Response, error){
		jsonResponse(http.StatusInternalServerError, ""),
		jsonResponse(http.StatusInternalServerError, ""),
		jsonResponse(http.StatusInternalServerError, ""),
	}}
	c := newTestClient(transport)

	_, err := c.Do(testOp())
	if err == nil {
		t.Fatal("Do() error = nil, want a RetryError after exhausting all attempts")
	}
	var retryErr *RetryError
	if !errors.As(err, &retryErr) {
		t.Fatalf("error type = %T, want *RetryError", err)
	}
	if len(retryErr.Attempts) != 3 {
		t.Errorf("len(Attempts) = %d, want 3", len(retryErr.Attempts))
	}
	if transport.callCount() != 3 {
		t.Errorf("callCount = %d, want 3 (retry exhausted, no more attempts)", transport.callCount())
	}
}

func TestDoDoesNotRetryOnNonRecoverable4xx(t *testing.T) {
	transport := &scriptedTransport{responses: []func() (*http.Response, error){
		jsonResponse(http.StatusBadRequest, `{"errors":["bad query"]}`),
		jsonResponse(http.StatusOK, `{"data":{}}`),
	}}
	c := newTestClient(transport)

	_, err := c.Do(testOp())
	if err == nil {
		t.Fatal("Do() error = nil, want an error for a 400 response")
	}
	if transport.callCount() != 1 {
		t.Errorf("callCount = %d, want 1: a non-429 4xx must not be retried", transport.callCount())
	}
}

func TestDoRetriesOnRecoverableGQLErrorThenSucceeds(t *testing.T) {
	transport := &scriptedTransport{responses: []func() (*http.Response, error){
		jsonResponse(http.StatusOK, `{"errors":[{"message":"service timeout"}]}`),
		jsonResponse(http.StatusOK, `{"data":{}}`),
	}}
	c := newTestClient(transport)

	_, err := c.Do(testOp())
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if transport.callCount() != 2 {
		t.Errorf("callCount = %d, want 2 (one recoverable GQL error, one success)", transport.callCount())
	}
}

func TestDoDoesNotRetryOnNonRecoverableGQLError(t *testing.T) {
	transport := &scriptedTransport{responses: []func() (*http.Response, error){
		jsonResponse(http.StatusOK, `{"errors":[{"message":"some other failure"}]}`),
		jsonResponse(http.StatusOK, `{"data":{}}`),
	}}
	c := newTestClient(transport)

	_, err := c.Do(testOp())
	if err == nil {
		t.Fatal("Do() error = nil, want an error for a non-recoverable GQL error message")
	}
	var retryErr *RetryError
	if !errors.As(err, &retryErr) {
		t.Fatalf("error type = %T, want *RetryError", err)
	}
	if len(retryErr.Attempts) != 1 {
		t.Errorf("len(Attempts) = %d, want 1: a non-recoverable GQL error message must abort immediately", len(retryErr.Attempts))
	}
	var gqlErr *GQLResponseError
	if !errors.As(err, &gqlErr) {
		t.Fatalf("error chain does not contain *GQLResponseError: %v", err)
	}
	if transport.callCount() != 1 {
		t.Errorf("callCount = %d, want 1: a non-recoverable GQL error message must not be retried", transport.callCount())
	}
}

func TestDoRetriesOnTransportError(t *testing.T) {
	transport := &scriptedTransport{responses: []func() (*http.Response, error){
		transportError("connection reset"),
		jsonResponse(http.StatusOK, `{"data":{}}`),
	}}
	c := newTestClient(transport)

	if _, err := c.Do(testOp()); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if transport.callCount() != 2 {
		t.Errorf("callCount = %d, want 2", transport.callCount())
	}
}
