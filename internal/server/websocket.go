package server

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// wsClient serializes writes to one connection; snapshot pushes arrive
// from store notification and ticker goroutines concurrently.
type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsClient) Send(payload any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.WriteJSON(payload)
}

func (c *wsClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.Close()
}

func (s *Server) handleRoomWebsocket(w http.ResponseWriter, r *http.Request) {
	roomID, ok := parseWebsocketPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	room, exists := s.store.Get(roomID)
	if !exists {
		http.NotFound(w, r)
		return
	}
	if !room.hasPlayer(userID) {
		writeError(w, http.StatusForbidden, "not a member of this room")
		return
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := &wsClient{conn: conn}
	sess, err := s.NewSession(roomID, userID, client.Send)
	if err != nil {
		client.Close()
		return
	}
	log.Printf("ws connected room_id=%s player_id=%s remote=%s", roomID, userID, r.RemoteAddr)
	go s.readWS(sess, client, roomID, userID)
}

// readWS drains the connection. A read error is the disconnect signal:
// the player is removed as if they had left, the leave-on-disconnect
// behavior an abrupt exit must get.
func (s *Server) readWS(sess *Session, client *wsClient, roomID, userID string) {
	defer func() {
		sess.Close(true)
		client.Close()
	}()
	for {
		if _, _, err := sess.readNext(client); err != nil {
			log.Printf("ws disconnected room_id=%s player_id=%s error=%v", roomID, userID, err)
			return
		}
	}
}

// readNext renews the lease on every inbound frame, so an idle but
// connected client never lapses.
func (sess *Session) readNext(client *wsClient) (int, []byte, error) {
	kind, data, err := client.conn.ReadMessage()
	if err == nil {
		_ = sess.server.Heartbeat(sess.roomID, sess.userID)
	}
	return kind, data, err
}
