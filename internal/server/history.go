package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"style-rush/internal/db"

	"gorm.io/gorm"
)

const historyEventLimit = 200

type historyEvent struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt string          `json:"created_at"`
}

// handleHistory serves the room's persisted audit trail. Without a
// database the trail is simply empty; the live room state never depends
// on it.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, roomID string) {
	if _, ok := s.store.Get(roomID); !ok {
		http.NotFound(w, r)
		return
	}
	events, err := s.roomHistory(roomID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"room_id": roomID,
		"events":  events,
	})
}

func (s *Server) roomHistory(roomID string) ([]historyEvent, error) {
	events := []historyEvent{}
	if s.db == nil {
		return events, nil
	}
	record, err := db.RoomByRoomID(s.db, roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return events, nil
		}
		return nil, err
	}
	rows, err := db.EventsForRoom(s.db, record.ID, historyEventLimit)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		events = append(events, historyEvent{
			Type:      row.Type,
			Payload:   json.RawMessage(row.Payload),
			CreatedAt: row.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return events, nil
}
