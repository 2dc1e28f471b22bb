package server

import (
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
)

// JoinQueue seats the player in the first waiting room with space, or
// creates a new room when none accepts. Capacity is rechecked inside the
// store's atomic update, so a candidate that fills between enumeration and
// the write surfaces ErrRoomFull and the next candidate is tried instead
// of failing the whole call.
func (s *Server) JoinQueue(userID, displayName, avatarRef string) (*Room, error) {
	s.collectEmptyRooms()

	for _, candidate := range s.store.List() {
		if candidate.Status != statusWaiting || candidate.CurrentPlayers >= candidate.MaxPlayers {
			continue
		}
		room, err := s.store.Update(candidate.ID, func(room *Room) error {
			if room.hasPlayer(userID) {
				return ErrAlreadyMember
			}
			if room.Status != statusWaiting {
				return ErrWrongPhase
			}
			if len(room.Players) >= room.MaxPlayers {
				return ErrRoomFull
			}
			room.Players = append(room.Players, newSeat(userID, displayName, avatarRef))
			room.CurrentPlayers = len(room.Players)
			return nil
		})
		if err == nil {
			log.Printf("player joined room_id=%s player_id=%s players=%d/%d", room.ID, userID, room.CurrentPlayers, room.MaxPlayers)
			if err := s.persistPlayer(room, userID); err != nil {
				log.Printf("persist player failed room_id=%s player_id=%s error=%v", room.ID, userID, err)
			}
			return room, nil
		}
		if errors.Is(err, ErrAlreadyMember) {
			return nil, ErrAlreadyMember
		}
		// Room filled, vanished, or started since enumeration; try the next.
	}

	room := s.createRoom(userID, displayName, avatarRef)
	log.Printf("room created room_id=%s theme=%q budget=%s player_id=%s", room.ID, room.Theme, room.Budget.String(), userID)
	if err := s.persistRoom(room); err != nil {
		log.Printf("persist room failed room_id=%s error=%v", room.ID, err)
	}
	return room, nil
}

func (s *Server) createRoom(userID, displayName, avatarRef string) *Room {
	theme := randomTheme()
	room := &Room{
		ID:             uuid.NewString(),
		Status:         statusWaiting,
		Theme:          theme.Name,
		Budget:         randomBudget(),
		MaxPlayers:     s.cfg.MaxPlayers,
		MinPlayers:     s.cfg.MinPlayers,
		TimeLimit:      s.cfg.StyleMinutes,
		VotingLimit:    s.cfg.VotingMinutes,
		CreatedAt:      timeNowUTC(),
		Players:        []Player{newSeat(userID, displayName, avatarRef)},
		CurrentPlayers: 1,
	}
	s.store.Create(room)
	return room
}

func newSeat(userID, displayName, avatarRef string) Player {
	now := timeNowUTC()
	return Player{
		UserID:      userID,
		DisplayName: displayName,
		AvatarRef:   avatarRef,
		JoinedAt:    now,
		LastSeenAt:  now,
	}
}

// LeaveRoom removes the player and deletes the room when it empties.
func (s *Server) LeaveRoom(roomID, userID string) error {
	room, err := s.store.Update(roomID, func(room *Room) error {
		index := -1
		for i := range room.Players {
			if room.Players[i].UserID == userID {
				index = i
				break
			}
		}
		if index == -1 {
			return ErrPlayerNotFound
		}
		room.Players = append(room.Players[:index], room.Players[index+1:]...)
		room.CurrentPlayers = len(room.Players)
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("player left room_id=%s player_id=%s players=%d", roomID, userID, room.CurrentPlayers)
	if err := s.persistPlayerLeft(room, userID); err != nil {
		log.Printf("persist leave failed room_id=%s player_id=%s error=%v", roomID, userID, err)
	}
	if room.CurrentPlayers == 0 {
		s.deleteRoom(roomID, "empty")
	}
	return nil
}

// Heartbeat renews the player's lease. A lease that lapses is treated as a
// disconnect by the sweeper, which removes the player as if they had left.
func (s *Server) Heartbeat(roomID, userID string) error {
	_, err := s.store.Update(roomID, func(room *Room) error {
		player, ok := room.findPlayer(userID)
		if !ok {
			return ErrPlayerNotFound
		}
		player.LastSeenAt = timeNowUTC()
		return nil
	})
	return err
}

// CleanupStaleRooms expires lapsed players, deletes empty rooms, and
// deletes non-active rooms older than the room timeout. Rooms mid-game are
// exempt from the age sweep regardless of age.
func (s *Server) CleanupStaleRooms() {
	now := timeNowUTC()
	cutoff := now.Add(-time.Duration(s.cfg.RoomTimeoutMinutes) * time.Minute)
	leaseCutoff := now.Add(-time.Duration(s.cfg.LeaseTTLSeconds) * time.Second)

	for _, room := range s.store.List() {
		for _, player := range room.Players {
			if player.LastSeenAt.Before(leaseCutoff) {
				log.Printf("lease expired room_id=%s player_id=%s", room.ID, player.UserID)
				if err := s.LeaveRoom(room.ID, player.UserID); err != nil && !errors.Is(err, ErrRoomNotFound) && !errors.Is(err, ErrPlayerNotFound) {
					log.Printf("expire player failed room_id=%s player_id=%s error=%v", room.ID, player.UserID, err)
				}
			}
		}
		current, ok := s.store.Get(room.ID)
		if !ok {
			continue
		}
		if len(current.Players) == 0 {
			s.deleteRoom(current.ID, "empty")
			continue
		}
		if current.Status != statusActive && current.CreatedAt.Before(cutoff) {
			s.deleteRoom(current.ID, "stale")
		}
	}
}

func (s *Server) collectEmptyRooms() {
	for _, room := range s.store.List() {
		if len(room.Players) == 0 {
			s.deleteRoom(room.ID, "empty")
		}
	}
}

func (s *Server) deleteRoom(roomID, reason string) {
	if s.store.Delete(roomID) {
		log.Printf("room deleted room_id=%s reason=%s", roomID, reason)
	}
}
