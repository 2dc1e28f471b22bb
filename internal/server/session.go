package server

import (
	"log"
	"sync"
	"time"
)

// Session is the per-client orchestrator: it holds the client's single
// active room subscription, derives the locally observed phase and
// countdown, and fires deadline transitions it observes. One player holds
// at most one session at a time, which is what keeps a player in at most
// one room.
type Session struct {
	server      *Server
	roomID      string
	userID      string
	send        func(payload any)
	unsubscribe func()

	mu     sync.Mutex
	room   *Room
	closed bool
	done   chan struct{}
}

// NewSession subscribes the player to their room and starts the countdown
// loop. The send callback receives a fresh snapshot after every room change
// and a closing payload when the room is deleted.
func (s *Server) NewSession(roomID, userID string, send func(payload any)) (*Session, error) {
	room, ok := s.store.Get(roomID)
	if !ok {
		return nil, ErrRoomNotFound
	}
	if !room.hasPlayer(userID) {
		return nil, ErrPlayerNotFound
	}
	sess := &Session{
		server: s,
		roomID: roomID,
		userID: userID,
		send:   send,
		room:   room,
		done:   make(chan struct{}),
	}
	sess.unsubscribe = s.store.Subscribe(roomID, sess.onRoomChange)
	sess.push(room)
	go sess.tick()
	return sess, nil
}

func (sess *Session) onRoomChange(room *Room) {
	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		return
	}
	sess.room = room
	sess.mu.Unlock()
	sess.push(room)
}

func (sess *Session) push(room *Room) {
	if sess.send == nil {
		return
	}
	if room == nil {
		sess.send(map[string]any{"room": nil, "game_phase": nil})
		return
	}
	sess.send(sess.server.snapshotFor(room, sess.userID))
}

// tick polls once per second: it renews the player's lease and compares
// the local clock against the stored deadlines. Only the comparison is
// local; the deadline itself lives in the store.
func (sess *Session) tick() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-sess.done:
			return
		case now := <-ticker.C:
			room := sess.CurrentRoom()
			if room == nil {
				return
			}
			if err := sess.server.Heartbeat(sess.roomID, sess.userID); err != nil {
				return
			}
			sess.server.observeDeadlines(room, now.UTC())
		}
	}
}

// Close tears the session down. With leave set the player is removed from
// the room; without it the heartbeat lease is left to lapse, covering
// transports that reconnect.
func (sess *Session) Close(leave bool) {
	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		return
	}
	sess.closed = true
	close(sess.done)
	sess.mu.Unlock()
	if sess.unsubscribe != nil {
		sess.unsubscribe()
	}
	if leave {
		if err := sess.server.LeaveRoom(sess.roomID, sess.userID); err != nil {
			log.Printf("session leave failed room_id=%s player_id=%s error=%v", sess.roomID, sess.userID, err)
		}
	}
}

func (sess *Session) CurrentRoom() *Room {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.room
}

func (sess *Session) GamePhase() string {
	room := sess.CurrentRoom()
	if room == nil {
		return ""
	}
	return gamePhase(room.Status)
}

// TimeRemaining is the whole seconds left in the current countdown,
// derived from the stored absolute deadline.
func (sess *Session) TimeRemaining(now time.Time) int {
	room := sess.CurrentRoom()
	if room == nil {
		return 0
	}
	return timeRemaining(room, now)
}

func timeRemaining(room *Room, now time.Time) int {
	var deadline time.Time
	switch room.Status {
	case statusActive:
		deadline = room.EndTime
	case statusVoting:
		deadline = room.VotingEnd
	default:
		return 0
	}
	if deadline.IsZero() || !now.Before(deadline) {
		return 0
	}
	return int(deadline.Sub(now).Round(time.Second) / time.Second)
}

func (sess *Session) CurrentPlayer() *Player {
	room := sess.CurrentRoom()
	if room == nil {
		return nil
	}
	player, ok := room.findPlayer(sess.userID)
	if !ok {
		return nil
	}
	return player
}

func (sess *Session) OtherPlayers() []Player {
	room := sess.CurrentRoom()
	if room == nil {
		return nil
	}
	others := make([]Player, 0, len(room.Players))
	for _, player := range room.Players {
		if player.UserID != sess.userID {
			others = append(others, player)
		}
	}
	return others
}

func (sess *Session) CanStartGame() bool {
	room := sess.CurrentRoom()
	if room == nil {
		return false
	}
	if len(room.Players) < room.MinPlayers {
		return false
	}
	for _, player := range room.Players {
		if !player.Ready {
			return false
		}
	}
	return true
}

func (sess *Session) PlayersGameCarts() map[string][]CartItem {
	room := sess.CurrentRoom()
	if room == nil {
		return nil
	}
	return playersGameCarts(room)
}

func (sess *Session) CartVotingResults() map[string]PlayerResult {
	room := sess.CurrentRoom()
	if room == nil {
		return nil
	}
	return buildResults(room)
}
