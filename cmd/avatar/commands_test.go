package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
	Auth   string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
			Auth:   r.Header.Get("Authorization"),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"error":{"message":"not found","type":"not_found"}}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		token:      "test-token",
		httpClient: ts.server.Client(),
	}
}

var ctx = context.Background()

func TestAskPostsChatRequest(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /api/chat": `{"reply":"Here are some of my projects: QuickCart"}`,
	})
	client := ts.client()

	resp, err := client.post(ctx, "/api/chat", map[string]string{
		"message":   "tell me about your projects",
		"sessionId": "cli",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var result struct {
		Reply string `json:"reply"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if !strings.Contains(result.Reply, "QuickCart") {
		t.Errorf("reply = %q", result.Reply)
	}

	r := ts.requests[0]
	if r.Method != "POST" || r.Path != "/api/chat" {
		t.Errorf("request = %s %s", r.Method, r.Path)
	}
	if !strings.Contains(r.Body, `"sessionId":"cli"`) {
		t.Errorf("body = %s", r.Body)
	}
}

func TestSessionsListSendsBearerToken(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /api/sessions/": `{"sessions":[{"id":"s1","tone":"neutral","language":"en","messages":4}]}`,
	})
	client := ts.client()

	resp, err := client.get(ctx, "/api/sessions/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var body struct {
		Sessions []struct {
			ID string `json:"id"`
		} `json:"sessions"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(body.Sessions) != 1 || body.Sessions[0].ID != "s1" {
		t.Errorf("sessions = %+v", body.Sessions)
	}
	if ts.requests[0].Auth != "Bearer test-token" {
		t.Errorf("auth = %q", ts.requests[0].Auth)
	}
}

func TestDecodeJSONSurfacesServerError(t *testing.T) {
	ts := newTestServer(t, nil)
	client := ts.client()

	resp, err := client.get(ctx, "/api/sessions/missing")
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}

	var v any
	err = decodeJSON(resp, &v)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error = %v", err)
	}
}

func TestPIDFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := pidFilePath(dir)

	if err := writePIDFile(path); err != nil {
		t.Fatalf("writePIDFile: %v", err)
	}
	pid, err := readPIDFile(path)
	if err != nil {
		t.Fatalf("readPIDFile: %v", err)
	}
	if pid <= 0 {
		t.Errorf("pid = %d", pid)
	}

	removePIDFile(path)
	if _, err := readPIDFile(path); err == nil {
		t.Error("expected error reading removed PID file")
	}
}
