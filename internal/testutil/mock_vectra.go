// Package testutil provides a mock Vectra appliance for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"time"
)

// APIPrefix is the versioned path the mock serves.
const APIPrefix = "/api/v2.5/"

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode  int
	Body        string
	ContentType string
	Delay       time.Duration
}

// RecordedRequest is a request seen by the mock.
type RecordedRequest struct {
	Method   string
	Endpoint string
	Query    url.Values
	Header   http.Header
	Body     []byte
}

// JSON decodes the recorded body into a map.
func (r RecordedRequest) JSON() map[string]any {
	var out map[string]any
	_ = json.Unmarshal(r.Body, &out)
	return out
}

// MockVectra is a configurable mock of the Vectra REST API.
type MockVectra struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc
	requests []RecordedRequest
}

// NewMockVectra creates and starts a mock server. Unconfigured endpoints
// answer 404 with a JSON detail body.
func NewMockVectra() *MockVectra {
	mock := &MockVectra{
		handlers: make(map[string]http.HandlerFunc),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		endpoint := strings.TrimPrefix(r.URL.Path, APIPrefix)

		mock.mu.Lock()
		mock.requests = append(mock.requests, RecordedRequest{
			Method:   r.Method,
			Endpoint: endpoint,
			Query:    r.URL.Query(),
			Header:   r.Header.Clone(),
			Body:     body,
		})
		handler, ok := mock.handlers[r.Method+" "+endpoint]
		if !ok {
			handler, ok = mock.handlers[endpoint]
		}
		mock.mu.Unlock()

		if ok {
			handler(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail": "Not found."}`))
	}))

	return mock
}

// URL returns the mock server base URL (without the API prefix).
func (m *MockVectra) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockVectra) Close() {
	m.server.Close()
}

// Reset clears recorded requests.
func (m *MockVectra) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
}

// SetHandler sets a custom handler for an endpoint such as "detections/42".
// Prefix the endpoint with a method ("PATCH detections") to match only
// that method.
func (m *MockVectra) SetHandler(endpoint string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[endpoint] = handler
}

// SetResponse configures a fixed response for an endpoint.
func (m *MockVectra) SetResponse(endpoint string, resp MockResponse) {
	m.SetHandler(endpoint, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		if resp.ContentType != "" {
			w.Header().Set("Content-Type", resp.ContentType)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetJSON configures a 200 JSON response for an endpoint.
func (m *MockVectra) SetJSON(endpoint string, body any) {
	m.SetResponse(endpoint, NewJSONResponse(http.StatusOK, body))
}

// SetPages serves pages as a Vectra pagination envelope. The "page" query
// parameter selects the page (1-based); "next" links point back at the mock.
func (m *MockVectra) SetPages(endpoint string, pages ...[]any) {
	total := 0
	for _, p := range pages {
		total += len(p)
	}

	m.SetHandler(endpoint, func(w http.ResponseWriter, r *http.Request) {
		page := 1
		if raw := r.URL.Query().Get("page"); raw != "" {
			fmt.Sscanf(raw, "%d", &page)
		}
		if page < 1 || page > len(pages) {
			writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Invalid page."})
			return
		}

		link := func(p int) any {
			if p < 1 || p > len(pages) {
				return nil
			}
			q := r.URL.Query()
			q.Set("page", fmt.Sprint(p))
			return m.server.URL + r.URL.Path + "?" + q.Encode()
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"count":    total,
			"next":     link(page + 1),
			"previous": link(page - 1),
			"results":  pages[page-1],
		})
	})
}

// Requests returns a copy of the recorded requests.
func (m *MockVectra) Requests() []RecordedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]RecordedRequest(nil), m.requests...)
}

// RequestCount returns the number of requests made to the server.
func (m *MockVectra) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// LastRequest returns the most recent request, or the zero value.
func (m *MockVectra) LastRequest() RecordedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.requests) == 0 {
		return RecordedRequest{}
	}
	return m.requests[len(m.requests)-1]
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// NewJSONResponse creates a JSON response with the given status.
func NewJSONResponse(status int, body any) MockResponse {
	data, err := json.Marshal(body)
	if err != nil {
		panic(err)
	}
	return MockResponse{
		StatusCode:  status,
		Body:        string(data),
		ContentType: "application/json",
	}
}

// NewErrorResponse creates an error response with a JSON message field.
func NewErrorResponse(status int, message string) MockResponse {
	return NewJSONResponse(status, map[string]any{"message": message})
}

// NewTextResponse creates a plain text response.
func NewTextResponse(status int, body string) MockResponse {
	return MockResponse{
		StatusCode:  status,
		Body:        body,
		ContentType: "text/plain; charset=utf-8",
	}
}
