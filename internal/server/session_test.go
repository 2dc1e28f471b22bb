package server

import (
	"sync"
	"testing"
	"time"

	"style-rush/internal/config"
)

type payloadRecorder struct {
	mu       sync.Mutex
	payloads []map[string]any
}

func (r *payloadRecorder) send(payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if snapshot, ok := payload.(map[string]any); ok {
		r.payloads = append(r.payloads, snapshot)
	}
}

func (r *payloadRecorder) last() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.payloads) == 0 {
		return nil
	}
	return r.payloads[len(r.payloads)-1]
}

func TestSessionRequiresMembership(t *testing.T) {
	srv := New(nil, config.Default())

	room, err := srv.JoinQueue("u1", "Ada", "")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := srv.NewSession(room.ID, "ghost", nil); err != ErrPlayerNotFound {
		t.Fatalf("expected ErrPlayerNotFound, got %v", err)
	}
	if _, err := srv.NewSession("missing", "u1", nil); err != ErrRoomNotFound {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestSessionPushesSnapshotsOnRoomChanges(t *testing.T) {
	srv := New(nil, config.Default())

	room, err := srv.JoinQueue("u1", "Ada", "")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	rec := &payloadRecorder{}
	sess, err := srv.NewSession(room.ID, "u1", rec.send)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	t.Cleanup(func() { sess.Close(false) })

	initial := rec.last()
	if initial == nil || initial["room_id"] != room.ID {
		t.Fatalf("expected an initial snapshot, got %#v", initial)
	}

	if _, err := srv.JoinQueue("u2", "Ben", ""); err != nil {
		t.Fatalf("second join: %v", err)
	}
	latest := rec.last()
	if latest["current_players"].(int) != 2 {
		t.Fatalf("expected pushed snapshot with 2 players, got %v", latest["current_players"])
	}
}

func TestSessionPhaseAndCountdown(t *testing.T) {
	srv := New(nil, config.Default())

	room, err := srv.JoinQueue("u1", "Ada", "")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := srv.JoinQueue("u2", "Ben", ""); err != nil {
		t.Fatalf("join: %v", err)
	}
	sess, err := srv.NewSession(room.ID, "u1", nil)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	t.Cleanup(func() { sess.Close(false) })

	if got := sess.GamePhase(); got != phaseLobby {
		t.Fatalf("expected lobby, got %s", got)
	}
	if got := sess.TimeRemaining(timeNowUTC()); got != 0 {
		t.Fatalf("expected no countdown in lobby, got %d", got)
	}

	if _, err := srv.MarkReady(room.ID, "u1"); err != nil {
		t.Fatalf("ready: %v", err)
	}
	if _, err := srv.MarkReady(room.ID, "u2"); err != nil {
		t.Fatalf("ready: %v", err)
	}

	if got := sess.GamePhase(); got != phaseStyling {
		t.Fatalf("expected styling, got %s", got)
	}
	current := sess.CurrentRoom()
	remaining := sess.TimeRemaining(current.StartTime.Add(time.Minute))
	want := (current.TimeLimit - 1) * 60
	if remaining != want {
		t.Fatalf("expected %d seconds remaining, got %d", want, remaining)
	}
	if sess.TimeRemaining(current.EndTime.Add(time.Second)) != 0 {
		t.Fatal("expected countdown to floor at zero past the deadline")
	}
}

func TestSessionCanStartGame(t *testing.T) {
	srv := New(nil, config.Default())

	room, err := srv.JoinQueue("u1", "Ada", "")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	sess, err := srv.NewSession(room.ID, "u1", nil)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	t.Cleanup(func() { sess.Close(false) })

	if sess.CanStartGame() {
		t.Fatal("solo lobby must not be startable")
	}
}

func TestSessionCloseWithLeave(t *testing.T) {
	srv := New(nil, config.Default())

	room, err := srv.JoinQueue("u1", "Ada", "")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := srv.JoinQueue("u2", "Ben", ""); err != nil {
		t.Fatalf("join: %v", err)
	}
	sess, err := srv.NewSession(room.ID, "u2", nil)
	if err != nil {
		t.Fatalf("session: %v", err)
	}

	sess.Close(true)

	current, ok := srv.store.Get(room.ID)
	if !ok {
		t.Fatal("room vanished")
	}
	if current.hasPlayer("u2") {
		t.Fatal("close with leave did not remove the player")
	}
}

func TestSessionNotifiedOnRoomDeletion(t *testing.T) {
	srv := New(nil, config.Default())

	room, err := srv.JoinQueue("u1", "Ada", "")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	rec := &payloadRecorder{}
	sess, err := srv.NewSession(room.ID, "u1", rec.send)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	t.Cleanup(func() { sess.Close(false) })

	if err := srv.LeaveRoom(room.ID, "u1"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	latest := rec.last()
	if latest == nil {
		t.Fatal("expected a closing payload")
	}
	if room, present := latest["room"]; !present || room != nil {
		t.Fatalf("expected nil room payload on deletion, got %#v", latest)
	}
}
