package server

import (
	"time"

	"style-rush/internal/config"
)

// snapshotFor is the payload pushed to one viewer. Whether another
// player's in-progress cart is visible during styling is a configuration
// choice; once voting starts every cart is visible to everyone.
func (s *Server) snapshotFor(room *Room, viewerID string) map[string]any {
	now := timeNowUTC()
	players := make([]map[string]any, 0, len(room.Players))
	for _, player := range room.Players {
		entry := map[string]any{
			"user_id":      player.UserID,
			"display_name": player.DisplayName,
			"ready":        player.Ready,
			"joined_at":    player.JoinedAt.UTC().Format(time.RFC3339),
			"has_voted":    player.HasVoted,
			"votes":        receivedVotes(room, player.UserID),
		}
		if player.AvatarRef != "" {
			entry["avatar_ref"] = player.AvatarRef
		}
		if target := votedFor(room, player.UserID); target != "" {
			entry["voted_for"] = target
		}
		if s.cartVisible(room, viewerID, player.UserID) {
			entry["game_cart"] = append([]CartItem(nil), player.GameCart...)
			entry["cart_total"] = cartTotal(player.GameCart)
			if player.Outfit != nil {
				entry["outfit"] = player.Outfit
			}
		}
		players = append(players, entry)
	}

	snapshot := map[string]any{
		"room_id":         room.ID,
		"status":          room.Status,
		"game_phase":      gamePhase(room.Status),
		"theme":           room.Theme,
		"budget":          room.Budget,
		"max_players":     room.MaxPlayers,
		"min_players":     room.MinPlayers,
		"current_players": room.CurrentPlayers,
		"time_limit":      room.TimeLimit,
		"voting_limit":    room.VotingLimit,
		"created_at":      room.CreatedAt.UTC().Format(time.RFC3339),
		"players":         players,
		"host_id":         room.firstJoiner(),
		"time_remaining":  timeRemaining(room, now),
		"can_start":       len(room.Players) >= room.MinPlayers && allReady(room),
	}
	if theme, ok := themeByName(room.Theme); ok {
		snapshot["theme_detail"] = theme
	}
	if !room.StartTime.IsZero() {
		snapshot["start_time"] = room.StartTime.UTC().Format(time.RFC3339)
	}
	if !room.EndTime.IsZero() {
		snapshot["end_time"] = room.EndTime.UTC().Format(time.RFC3339)
	}
	if !room.VotingStart.IsZero() {
		snapshot["voting_start_time"] = room.VotingStart.UTC().Format(time.RFC3339)
	}
	if !room.VotingEnd.IsZero() {
		snapshot["voting_end_time"] = room.VotingEnd.UTC().Format(time.RFC3339)
	}
	if room.Status == statusFinished {
		results := buildResults(room)
		snapshot["results"] = results
		snapshot["winners"] = winners(results)
	}
	return snapshot
}

func (s *Server) cartVisible(room *Room, viewerID, ownerID string) bool {
	if viewerID == ownerID {
		return true
	}
	if statusRank(room.Status) >= statusRank(statusVoting) {
		return true
	}
	return s.cfg.CartVisibility == config.CartVisibilityLive
}

func allReady(room *Room) bool {
	for _, player := range room.Players {
		if !player.Ready {
			return false
		}
	}
	return len(room.Players) > 0
}
