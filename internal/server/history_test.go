package server

import (
	"net/http"
	"testing"

	"style-rush/internal/config"
)

func TestHistoryWithoutDatabaseIsEmpty(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	roomID := joinQueue(t, ts, "u1", "Ada")
	resp := doRequest(t, ts, http.MethodGet, "/api/rooms/"+roomID+"/history", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	events, ok := body["events"].([]any)
	if !ok || len(events) != 0 {
		t.Fatalf("expected empty history, got %#v", body["events"])
	}
}

func TestHistoryUnknownRoom(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	resp := doRequest(t, ts, http.MethodGet, "/api/rooms/nope/history", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}
