package http

import (
	"context"
	"net/http"
	"sync/atomic"
)

type statusContextKey struct{}

// StatusCapture holds the status code of the last response seen for a request
// context. Some SDKs drop the status when they turn a response into an error.
type StatusCapture struct {
	code atomic.Int32
}

func (s *StatusCapture) Code() int {
	if s == nil {
		return 0
	}
	return int(s.code.Load())
}

// WithStatusCapture returns a child context that records response status codes
func WithStatusCapture(ctx context.Context) (context.Context, *StatusCapture) {
	capture := &StatusCapture{}
	return context.WithValue(ctx, statusContextKey{}, capture), capture
}

type statusTransport struct {
	transport http.RoundTripper
}

func (t *statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.transport.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if capture, ok := req.Context().Value(statusContextKey{}).(*StatusCapture); ok {
		capture.code.Store(int32(resp.StatusCode))
	}

	return resp, nil
}

// WithStatusRecording enables StatusCapture for requests sent through the client
func WithStatusRecording() HttpOpts {
	return WithTransport(func(rt http.RoundTripper) http.RoundTripper {
		return &statusTransport{transport: rt}
	})
}
