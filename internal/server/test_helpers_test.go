package server

import (
	"bytes"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	return ts
}

func joinQueue(t *testing.T, ts *httptest.Server, userID, name string) string {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/queue/join", map[string]string{
		"user_id":      userID,
		"display_name": name,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	roomID, ok := body["room_id"].(string)
	if !ok || roomID == "" {
		t.Fatalf("expected room_id, got %#v", body["room_id"])
	}
	return roomID
}

func markReady(t *testing.T, ts *httptest.Server, roomID, userID string) map[string]any {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/rooms/"+roomID+"/ready", map[string]string{
		"user_id": userID,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	return decodeBody(t, resp)
}

func fetchSnapshot(t *testing.T, ts *httptest.Server, roomID string) map[string]any {
	t.Helper()
	resp := doRequest(t, ts, http.MethodGet, "/api/rooms/"+roomID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	return decodeBody(t, resp)
}

// setRoomBudget pins the randomly assigned budget so cart assertions are
// deterministic.
func setRoomBudget(t *testing.T, srv *Server, roomID string, amount int64) {
	t.Helper()
	if _, err := srv.store.Update(roomID, func(room *Room) error {
		room.Budget = decimal.NewFromInt(amount)
		return nil
	}); err != nil {
		t.Fatalf("set budget: %v", err)
	}
}

func mustDecimal(value int64) decimal.Decimal {
	return decimal.NewFromInt(value)
}

func cartItem(productID, name string, price int64) CartItem {
	return CartItem{
		ProductID: productID,
		Name:      name,
		Price:     decimal.NewFromInt(price),
	}
}

func doRequest(t *testing.T, ts *httptest.Server, method, path string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}
