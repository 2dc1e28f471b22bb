package server

import (
	"log"
	"time"

	"github.com/shopspring/decimal"
)

// MarkReady flips the player's ready flag, then starts the styling phase
// when at least MinPlayers are seated and every one of them is ready.
// Fewer players or an unready player is a non-transition, not an error.
func (s *Server) MarkReady(roomID, userID string) (*Room, error) {
	started := false
	room, err := s.store.Update(roomID, func(room *Room) error {
		player, ok := room.findPlayer(userID)
		if !ok {
			return ErrPlayerNotFound
		}
		if room.Status != statusWaiting {
			return ErrWrongPhase
		}
		player.Ready = true
		started = tryStartStyling(room)
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("player ready room_id=%s player_id=%s", roomID, userID)
	if started {
		log.Printf("styling started room_id=%s players=%d ends_at=%s", room.ID, room.CurrentPlayers, room.EndTime.Format(time.RFC3339))
		if err := s.persistPhase(room, "styling_started"); err != nil {
			log.Printf("persist phase failed room_id=%s error=%v", room.ID, err)
		}
	}
	return room, nil
}

// tryStartStyling runs inside a store update. Writing the transition twice
// from two racing observers is harmless: the write is idempotent.
func tryStartStyling(room *Room) bool {
	if room.Status != statusWaiting {
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
	now := timeNowUTC()
	room.Status = statusActive
	room.StartTime = now
	room.EndTime = now.Add(time.Duration(room.TimeLimit) * time.Minute)
	return true
}

// StartCartVoting moves the room from styling to voting. It is invoked by
// whichever session first observes the styling deadline, by the last outfit
// submission, or explicitly; duplicate invocations are no-ops.
func (s *Server) StartCartVoting(roomID string) (*Room, error) {
	transitioned := false
	room, err := s.store.Update(roomID, func(room *Room) error {
		transitioned = startVoting(room)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if transitioned {
		log.Printf("voting started room_id=%s ends_at=%s", room.ID, room.VotingEnd.Format(time.RFC3339))
		if err := s.persistPhase(room, "voting_started"); err != nil {
			log.Printf("persist phase failed room_id=%s error=%v", room.ID, err)
		}
	}
	return room, nil
}

func startVoting(room *Room) bool {
	if statusRank(room.Status) >= statusRank(statusVoting) {
		return false
	}
	if room.Status != statusActive {
		return false
	}
	now := timeNowUTC()
	room.Status = statusVoting
	room.VotingStart = now
	room.VotingEnd = now.Add(time.Duration(room.VotingLimit) * time.Minute)
	return true
}

func finishRoom(room *Room) bool {
	if room.Status == statusFinished {
		return false
	}
	room.Status = statusFinished
	room.VotingEnd = timeNowUTC()
	return true
}

// SubmitOutfit records the player's final selection. The outfit is set
// once and immutable afterward. When every seated player has submitted,
// the room moves straight to voting without waiting for the deadline.
func (s *Server) SubmitOutfit(roomID, userID string, outfit OutfitSelection) (*Room, error) {
	transitioned := false
	room, err := s.store.Update(roomID, func(room *Room) error {
		if room.Status != statusActive {
			return ErrWrongPhase
		}
		player, ok := room.findPlayer(userID)
		if !ok {
			return ErrPlayerNotFound
		}
		if player.Outfit != nil {
			return ErrOutfitSubmitted
		}
		outfit.SubmittedAt = timeNowUTC()
		outfit.TotalCost = outfitTotal(outfit.Items)
		player.Outfit = &outfit
		if allOutfitsSubmitted(room) {
			transitioned = startVoting(room)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("outfit submitted room_id=%s player_id=%s items=%d total=%s", roomID, userID, len(outfit.Items), outfit.TotalCost.String())
	if err := s.persistEvent(room, "outfit_submitted", EventPayload{PlayerID: userID, Count: len(outfit.Items)}); err != nil {
		log.Printf("persist event failed room_id=%s error=%v", roomID, err)
	}
	if transitioned {
		log.Printf("voting started room_id=%s reason=all_outfits_submitted", room.ID)
		if err := s.persistPhase(room, "voting_started"); err != nil {
			log.Printf("persist phase failed room_id=%s error=%v", room.ID, err)
		}
	}
	return room, nil
}

func allOutfitsSubmitted(room *Room) bool {
	if len(room.Players) == 0 {
		return false
	}
	for _, player := range room.Players {
		if player.Outfit == nil {
			return false
		}
	}
	return true
}

func outfitTotal(items []OutfitItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price)
	}
	return total
}

// observeDeadlines fires the deadline-driven transitions for one room.
// Sessions call this once per second; only the comparison against the
// stored absolute instants happens locally, so every observer converges
// on the same deadline regardless of when it started polling.
func (s *Server) observeDeadlines(room *Room, now time.Time) {
	if room == nil {
		return
	}
	switch room.Status {
	case statusActive:
		if !room.EndTime.IsZero() && !now.Before(room.EndTime) {
			if _, err := s.StartCartVoting(room.ID); err != nil {
				log.Printf("deadline transition failed room_id=%s error=%v", room.ID, err)
			}
		}
	case statusVoting:
		if !room.VotingEnd.IsZero() && !now.Before(room.VotingEnd) {
			s.finishByDeadline(room.ID)
		}
	}
}

func (s *Server) finishByDeadline(roomID string) {
	transitioned := false
	room, err := s.store.Update(roomID, func(room *Room) error {
		if room.Status != statusVoting {
			return nil
		}
		transitioned = finishRoom(room)
		return nil
	})
	if err != nil {
		return
	}
	if transitioned {
		log.Printf("room finished room_id=%s reason=voting_deadline", room.ID)
		if err := s.persistPhase(room, "room_finished"); err != nil {
			log.Printf("persist phase failed room_id=%s error=%v", room.ID, err)
		}
	}
}
