// Package mocktransport provides a testify-based http.RoundTripper mock.
// Plug it into the fetcher to script responses and to count outbound
// requests in tests.
package mocktransport

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/stretchr/testify/mock"
)

// RoundTripperMock is a testify mock implementing http.RoundTripper.
type RoundTripperMock struct {
	mock.Mock
}

// RoundTrip mocks a single HTTP exchange. The first return value may be a
// *http.Response or a func(*http.Request) *http.Response; the latter builds a
// fresh response (and body) for every call.
func (m *RoundTripperMock) RoundTrip(req *http.Request) (*http.Response, error) {
	args := m.Called(req)

	var resp *http.Response
	switch v := args.Get(0).(type) {
	case *http.Response:
		resp = v
	case func(*http.Request) *http.Response:
		resp = v(req)
	}
	if resp != nil && resp.Request == nil {
		resp.Request = req
	}
	return resp, args.Error(1)
}

// Requests returns how many times RoundTrip was invoked.
func (m *RoundTripperMock) Requests() int {
	count := 0
	for _, call := range m.Calls {
		if call.Method == "RoundTrip" {
			count++
		}
	}
	return count
}

// Responder returns a response factory for RoundTripperMock.Return.
func Responder(statusCode int, body string) func(*http.Request) *http.Response {
	return func(*http.Request) *http.Response {
		return NewResponse(statusCode, body)
	}
}

// NewResponse builds a response carrying the given status and body.
func NewResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Status:     fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}
