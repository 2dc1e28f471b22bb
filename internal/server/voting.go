package server

import (
	"log"
	"sort"
)

// SubmitCartVote records the voter's score for the target's cart. Votes are
// keyed by (voter, target): a resubmission overwrites the earlier record
// instead of inflating the target's tally, so client retries are idempotent.
func (s *Server) SubmitCartVote(roomID, voterID, targetID string, score int, comment string) (*Room, error) {
	if score < 1 || score > 5 {
		return nil, ErrInvalidScore
	}
	if voterID == targetID {
		return nil, ErrSelfVote
	}
	room, err := s.store.Update(roomID, func(room *Room) error {
		if !room.hasPlayer(voterID) {
			return ErrPlayerNotFound
		}
		if !room.hasPlayer(targetID) {
			return ErrPlayerNotFound
		}
		vote := CartVote{
			VoterID:   voterID,
			TargetID:  targetID,
			CartScore: score,
			Comment:   comment,
			VotedAt:   timeNowUTC(),
		}
		for i := range room.CartVotes {
			if room.CartVotes[i].VoterID == voterID && room.CartVotes[i].TargetID == targetID {
				vote.DBID = room.CartVotes[i].DBID
				room.CartVotes[i] = vote
				return nil
			}
		}
		room.CartVotes = append(room.CartVotes, vote)
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("cart vote submitted room_id=%s voter_id=%s target_id=%s score=%d", roomID, voterID, targetID, score)
	if err := s.persistCartVote(room, voterID, targetID); err != nil {
		log.Printf("persist vote failed room_id=%s voter_id=%s error=%v", roomID, voterID, err)
	}
	return room, nil
}

// SubmitVote is the single-choice voting flow. It is a view over the
// canonical vote model: a top score for exactly one target, replacing any
// earlier single-choice vote by the same voter. Switching targets retracts
// the earlier ballot so the voter never holds two top scores at once.
func (s *Server) SubmitVote(roomID, voterID, targetID string) (*Room, error) {
	if voterID == targetID {
		return nil, ErrSelfVote
	}
	var retracted []string
	room, err := s.store.Update(roomID, func(room *Room) error {
		voter, ok := room.findPlayer(voterID)
		if !ok {
			return ErrPlayerNotFound
		}
		if !room.hasPlayer(targetID) {
			return ErrPlayerNotFound
		}
		vote := CartVote{
			VoterID:   voterID,
			TargetID:  targetID,
			CartScore: 5,
			VotedAt:   timeNowUTC(),
		}
		kept := make([]CartVote, 0, len(room.CartVotes))
		replaced := false
		for _, existing := range room.CartVotes {
			switch {
			case existing.VoterID == voterID && existing.TargetID == targetID:
				vote.DBID = existing.DBID
				kept = append(kept, vote)
				replaced = true
			case existing.VoterID == voterID && existing.CartScore == 5:
				retracted = append(retracted, existing.TargetID)
			default:
				kept = append(kept, existing)
			}
		}
		if !replaced {
			kept = append(kept, vote)
		}
		room.CartVotes = kept
		voter.HasVoted = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("vote submitted room_id=%s voter_id=%s target_id=%s retracted=%d", roomID, voterID, targetID, len(retracted))
	if err := s.persistVoteRetractions(room, voterID, retracted); err != nil {
		log.Printf("persist vote retraction failed room_id=%s voter_id=%s error=%v", roomID, voterID, err)
	}
	if err := s.persistCartVote(room, voterID, targetID); err != nil {
		log.Printf("persist vote failed room_id=%s voter_id=%s error=%v", roomID, voterID, err)
	}
	return room, nil
}

// MarkVotingComplete flags the voter as done, then finishes the room when
// every seated player is done. Completion is detected cooperatively on each
// voter's own submission rather than by a central timer.
func (s *Server) MarkVotingComplete(roomID, voterID string) (*Room, error) {
	finished := false
	room, err := s.store.Update(roomID, func(room *Room) error {
		player, ok := room.findPlayer(voterID)
		if !ok {
			return ErrPlayerNotFound
		}
		player.HasVoted = true
		if allVoted(room) {
			finished = finishRoom(room)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("voting complete room_id=%s player_id=%s", roomID, voterID)
	if finished {
		log.Printf("room finished room_id=%s reason=all_voted", room.ID)
		if err := s.persistPhase(room, "room_finished"); err != nil {
			log.Printf("persist phase failed room_id=%s error=%v", room.ID, err)
		}
	}
	return room, nil
}

func allVoted(room *Room) bool {
	if len(room.Players) == 0 {
		return false
	}
	for _, player := range room.Players {
		if !player.HasVoted {
			return false
		}
	}
	return true
}

// VotingResults aggregates the room's votes per target in one pass.
func (s *Server) VotingResults(roomID string) (map[string]PlayerResult, error) {
	room, ok := s.store.Get(roomID)
	if !ok {
		return nil, ErrRoomNotFound
	}
	return buildResults(room), nil
}

func buildResults(room *Room) map[string]PlayerResult {
	results := make(map[string]PlayerResult, len(room.Players))
	for _, player := range room.Players {
		results[player.UserID] = PlayerResult{
			PlayerID:   player.UserID,
			PlayerName: player.DisplayName,
			Comments:   []string{},
			Cart:       append([]CartItem(nil), player.GameCart...),
		}
	}
	for _, vote := range room.CartVotes {
		result, ok := results[vote.TargetID]
		if !ok {
			continue
		}
		result.TotalScore += vote.CartScore
		result.VoteCount++
		if vote.Comment != "" {
			result.Comments = append(result.Comments, vote.Comment)
		}
		results[vote.TargetID] = result
	}
	for id, result := range results {
		if result.VoteCount > 0 {
			result.AverageScore = float64(result.TotalScore) / float64(result.VoteCount)
			results[id] = result
		}
	}
	return results
}

// winners is every player tied at the maximum average, provided that
// maximum is above zero. A player nobody scored can never win, even when
// everyone is at zero: then there are no winners at all.
func winners(results map[string]PlayerResult) []string {
	best := 0.0
	for _, result := range results {
		if result.AverageScore > best {
			best = result.AverageScore
		}
	}
	if best <= 0 {
		return []string{}
	}
	ids := make([]string, 0, 1)
	for id, result := range results {
		if result.AverageScore == best {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// receivedVotes is the legacy per-player tally, derived from the canonical
// vote list rather than stored as a second source of truth.
func receivedVotes(room *Room, userID string) int {
	count := 0
	for _, vote := range room.CartVotes {
		if vote.TargetID == userID {
			count++
		}
	}
	return count
}

// votedFor reports the single-choice view of the voter's ballot: the target
// of their top-score vote, when they cast exactly one.
func votedFor(room *Room, voterID string) string {
	target := ""
	for _, vote := range room.CartVotes {
		if vote.VoterID != voterID || vote.CartScore != 5 {
			continue
		}
		if target != "" {
			return ""
		}
		target = vote.TargetID
	}
	return target
}
