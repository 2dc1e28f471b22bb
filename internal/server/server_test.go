package server

import (
	"net/http"
	"testing"

	"style-rush/internal/config"
)

func TestJoinQueueCreatesRoom(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	resp := doRequest(t, ts, http.MethodPost, "/api/queue/join", map[string]string{
		"user_id":      "u1",
		"display_name": "Ada",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["status"] != "waiting" {
		t.Fatalf("expected waiting room, got %v", body["status"])
	}
	if body["game_phase"] != "lobby" {
		t.Fatalf("expected lobby phase, got %v", body["game_phase"])
	}
	if body["current_players"].(float64) != 1 {
		t.Fatalf("expected 1 player, got %v", body["current_players"])
	}
	if body["theme"].(string) == "" {
		t.Fatal("expected a theme to be assigned")
	}
}

func TestJoinQueueFillsExistingRoom(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	first := joinQueue(t, ts, "u1", "Ada")
	second := joinQueue(t, ts, "u2", "Ben")
	if first != second {
		t.Fatalf("expected the second player to join the same room, got %s and %s", first, second)
	}

	snapshot := fetchSnapshot(t, ts, first)
	if snapshot["current_players"].(float64) != 2 {
		t.Fatalf("expected 2 players, got %v", snapshot["current_players"])
	}
}

func TestJoinQueueOverflowsToNewRoom(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	full := joinQueue(t, ts, "u1", "Ada")
	for i, id := range []string{"u2", "u3", "u4"} {
		got := joinQueue(t, ts, id, "Player")
		if got != full {
			t.Fatalf("player %d expected room %s, got %s", i+2, full, got)
		}
	}

	overflow := joinQueue(t, ts, "u5", "Eve")
	if overflow == full {
		t.Fatal("expected the fifth player to land in a new room")
	}

	snapshot := fetchSnapshot(t, ts, full)
	if snapshot["current_players"].(float64) != 4 {
		t.Fatalf("expected full room to keep 4 players, got %v", snapshot["current_players"])
	}
}

func TestJoinQueueRejectsDoubleJoin(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	joinQueue(t, ts, "u1", "Ada")
	resp := doRequest(t, ts, http.MethodPost, "/api/queue/join", map[string]string{
		"user_id":      "u1",
		"display_name": "Ada",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, resp.StatusCode)
	}
}

func TestJoinQueueValidatesInput(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	resp := doRequest(t, ts, http.MethodPost, "/api/queue/join", map[string]string{
		"user_id": "u1",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/queue/join", map[string]string{
		"display_name": "Ada",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestGetRoomNotFound(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	resp := doRequest(t, ts, http.MethodGet, "/api/rooms/nope", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestThemesEndpoint(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	resp := doRequest(t, ts, http.MethodGet, "/api/themes", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	themes, ok := body["themes"].([]any)
	if !ok || len(themes) != len(gameThemes) {
		t.Fatalf("expected %d themes, got %#v", len(gameThemes), body["themes"])
	}
	budgets, ok := body["budgets"].([]any)
	if !ok || len(budgets) != len(budgetTiers) {
		t.Fatalf("expected %d budget tiers, got %#v", len(budgetTiers), body["budgets"])
	}
}

func TestLeaveRoom(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	roomID := joinQueue(t, ts, "u1", "Ada")
	joinQueue(t, ts, "u2", "Ben")

	resp := doRequest(t, ts, http.MethodPost, "/api/rooms/"+roomID+"/leave", map[string]string{
		"user_id": "u2",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	snapshot := fetchSnapshot(t, ts, roomID)
	if snapshot["current_players"].(float64) != 1 {
		t.Fatalf("expected 1 player after leave, got %v", snapshot["current_players"])
	}
}

func TestLeaveLastPlayerDeletesRoom(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	roomID := joinQueue(t, ts, "u1", "Ada")
	resp := doRequest(t, ts, http.MethodPost, "/api/rooms/"+roomID+"/leave", map[string]string{
		"user_id": "u1",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodGet, "/api/rooms/"+roomID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d after room emptied, got %d", http.StatusNotFound, resp.StatusCode)
	}
}
