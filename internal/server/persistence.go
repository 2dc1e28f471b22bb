package server

import (
	"encoding/json"
	"errors"
	"time"

	"style-rush/internal/db"

	"github.com/jackc/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm/clause"
)

// EventPayload is the JSON body stored with every audit event. Only the
// fields relevant to the event type are set.
type EventPayload struct {
	PlayerID  string `json:"player_id,omitempty"`
	TargetID  string `json:"target_id,omitempty"`
	ProductID string `json:"product_id,omitempty"`
	Phase     string `json:"phase,omitempty"`
	Theme     string `json:"theme,omitempty"`
	Budget    string `json:"budget,omitempty"`
	Score     int    `json:"score,omitempty"`
	Count     int    `json:"count,omitempty"`
}

func (s *Server) persistRoom(room *Room) error {
	if s.db == nil {
		return nil
	}
	record := db.Room{
		RoomID:      room.ID,
		Status:      room.Status,
		Theme:       room.Theme,
		Budget:      room.Budget,
		MaxPlayers:  room.MaxPlayers,
		MinPlayers:  room.MinPlayers,
		TimeLimit:   room.TimeLimit,
		VotingLimit: room.VotingLimit,
	}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil {
		return err
	}
	if record.ID != 0 {
		s.storeRoomDBID(room, record.ID)
	}
	if err := s.persistEvent(room, "room_created", EventPayload{
		Theme:  room.Theme,
		Budget: room.Budget.String(),
	}); err != nil {
		return err
	}
	for _, player := range room.Players {
		if err := s.persistPlayer(room, player.UserID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) persistPlayer(room *Room, userID string) error {
	if s.db == nil {
		return nil
	}
	if err := s.ensureRoomDBID(room); err != nil {
		return err
	}
	if room.DBID == 0 {
		return errors.New("room not found")
	}
	player, ok := room.findPlayer(userID)
	if !ok {
		return errors.New("player not found")
	}
	if player.DBID != 0 {
		return nil
	}
	record := db.Player{
		RoomID:      room.DBID,
		UserID:      player.UserID,
		DisplayName: player.DisplayName,
		AvatarRef:   player.AvatarRef,
		JoinedAt:    player.JoinedAt,
	}
	if err := s.db.Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			// Rejoin after an earlier leave; revive the existing row.
			existing, lookupErr := s.findPlayerDBID(room.DBID, userID)
			if lookupErr == nil && existing != 0 {
				s.storePlayerDBID(room, userID, existing)
				return s.db.Model(&db.Player{}).
					Where("id = ?", existing).
					Updates(map[string]any{"left_at": nil, "joined_at": player.JoinedAt}).Error
			}
		}
		return err
	}
	s.storePlayerDBID(room, userID, record.ID)
	return s.persistEvent(room, "player_joined", EventPayload{PlayerID: userID})
}

func (s *Server) persistPlayerLeft(room *Room, userID string) error {
	if s.db == nil {
		return nil
	}
	if err := s.ensureRoomDBID(room); err != nil {
		return err
	}
	if room.DBID == 0 {
		return errors.New("room not found")
	}
	dbID, err := s.findPlayerDBID(room.DBID, userID)
	if err != nil || dbID == 0 {
		return err
	}
	now := time.Now().UTC()
	if err := s.db.Model(&db.Player{}).Where("id = ?", dbID).Update("left_at", now).Error; err != nil {
		return err
	}
	return s.persistEvent(room, "player_left", EventPayload{PlayerID: userID})
}

func (s *Server) persistPhase(room *Room, eventType string) error {
	if s.db == nil {
		return nil
	}
	if err := s.ensureRoomDBID(room); err != nil {
		return err
	}
	if room.DBID == 0 {
		return errors.New("room not found")
	}
	updates := map[string]any{"status": room.Status}
	if !room.StartTime.IsZero() {
		updates["start_time"] = room.StartTime
	}
	if !room.EndTime.IsZero() {
		updates["end_time"] = room.EndTime
	}
	if !room.VotingEnd.IsZero() {
		updates["voting_end_time"] = room.VotingEnd
	}
	if err := s.db.Model(&db.Room{}).Where("id = ?", room.DBID).Updates(updates).Error; err != nil {
		return err
	}
	return s.persistEvent(room, eventType, EventPayload{Phase: room.Status})
}

func (s *Server) persistCartItem(room *Room, userID string, item CartItem) error {
	if s.db == nil {
		return nil
	}
	playerDBID, err := s.resolvePlayerDBID(room, userID)
	if err != nil || playerDBID == 0 {
		return err
	}
	record := db.CartItem{
		PlayerID:      playerDBID,
		ProductID:     item.ProductID,
		Name:          item.Name,
		Price:         item.Price,
		ImageRef:      item.ImageRef,
		Category:      item.Category,
		Quantity:      item.Quantity,
		SelectedSize:  item.SelectedSize,
		SelectedColor: item.SelectedColor,
		AddedAt:       item.AddedAt,
	}
	if err := s.db.Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			// Re-add after removal; revive the existing row.
			return s.db.Model(&db.CartItem{}).
				Where("player_id = ? AND product_id = ?", playerDBID, item.ProductID).
				Updates(map[string]any{
					"price":      item.Price,
					"quantity":   item.Quantity,
					"added_at":   item.AddedAt,
					"removed_at": nil,
				}).Error
		}
		return err
	}
	return s.persistEvent(room, "cart_item_added", EventPayload{
		PlayerID:  userID,
		ProductID: item.ProductID,
	})
}

func (s *Server) persistCartRemoval(room *Room, userID, productID string) error {
	if s.db == nil {
		return nil
	}
	playerDBID, err := s.resolvePlayerDBID(room, userID)
	if err != nil || playerDBID == 0 {
		return err
	}
	now := time.Now().UTC()
	if err := s.db.Model(&db.CartItem{}).
		Where("player_id = ? AND product_id = ? AND removed_at IS NULL", playerDBID, productID).
		Update("removed_at", now).Error; err != nil {
		return err
	}
	return s.persistEvent(room, "cart_item_removed", EventPayload{
		PlayerID:  userID,
		ProductID: productID,
	})
}

func (s *Server) persistCartClear(room *Room, userID string) error {
	if s.db == nil {
		return nil
	}
	playerDBID, err := s.resolvePlayerDBID(room, userID)
	if err != nil || playerDBID == 0 {
		return err
	}
	now := time.Now().UTC()
	if err := s.db.Model(&db.CartItem{}).
		Where("player_id = ? AND removed_at IS NULL", playerDBID).
		Update("removed_at", now).Error; err != nil {
		return err
	}
	return s.persistEvent(room, "cart_cleared", EventPayload{PlayerID: userID})
}

func (s *Server) persistCartVote(room *Room, voterID, targetID string) error {
	if s.db == nil {
		return nil
	}
	if err := s.ensureRoomDBID(room); err != nil {
		return err
	}
	if room.DBID == 0 {
		return errors.New("room not found")
	}
	vote, ok := findCartVote(room, voterID, targetID)
	if !ok {
		return errors.New("vote not found")
	}
	record := db.CartVote{
		RoomID:    room.DBID,
		VoterID:   voterID,
		TargetID:  targetID,
		CartScore: vote.CartScore,
		Comment:   vote.Comment,
		VotedAt:   vote.VotedAt,
	}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_id"}, {Name: "voter_id"}, {Name: "target_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"cart_score", "comment", "voted_at"}),
	}).Create(&record).Error; err != nil {
		return err
	}
	return s.persistEvent(room, "cart_vote_submitted", EventPayload{
		PlayerID: voterID,
		TargetID: targetID,
		Score:    vote.CartScore,
	})
}

func (s *Server) persistVoteRetractions(room *Room, voterID string, targets []string) error {
	if s.db == nil || len(targets) == 0 {
		return nil
	}
	if err := s.ensureRoomDBID(room); err != nil {
		return err
	}
	if room.DBID == 0 {
		return errors.New("room not found")
	}
	return s.db.
		Where("room_id = ? AND voter_id = ? AND target_id IN ?", room.DBID, voterID, targets).
		Delete(&db.CartVote{}).Error
}

func (s *Server) persistEvent(room *Room, eventType string, payload EventPayload) error {
	if s.db == nil {
		return nil
	}
	if err := s.ensureRoomDBID(room); err != nil {
		return err
	}
	if room.DBID == 0 {
		return errors.New("room not found")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	event := db.Event{
		RoomID:   room.DBID,
		PlayerID: s.resolveEventPlayerID(room, payload),
		Type:     eventType,
		Payload:  datatypes.JSON(data),
	}
	return s.db.Create(&event).Error
}

func (s *Server) resolveEventPlayerID(room *Room, payload EventPayload) *uint {
	if payload.PlayerID == "" {
		return nil
	}
	dbID, err := s.resolvePlayerDBID(room, payload.PlayerID)
	if err != nil || dbID == 0 {
		return nil
	}
	return &dbID
}

// ensureRoomDBID resolves the room's database row on demand. The store
// hands out copies, so a resolved ID is written back for later calls.
func (s *Server) ensureRoomDBID(room *Room) error {
	if s.db == nil || room.DBID != 0 {
		return nil
	}
	var record db.Room
	if err := s.db.Where("room_id = ?", room.ID).First(&record).Error; err != nil {
		return nil
	}
	room.DBID = record.ID
	s.storeRoomDBID(room, record.ID)
	return nil
}

func (s *Server) resolvePlayerDBID(room *Room, userID string) (uint, error) {
	if err := s.ensureRoomDBID(room); err != nil {
		return 0, err
	}
	if room.DBID == 0 {
		return 0, errors.New("room not found")
	}
	if player, ok := room.findPlayer(userID); ok && player.DBID != 0 {
		return player.DBID, nil
	}
	dbID, err := s.findPlayerDBID(room.DBID, userID)
	if err != nil || dbID == 0 {
		return 0, err
	}
	s.storePlayerDBID(room, userID, dbID)
	return dbID, nil
}

func (s *Server) findPlayerDBID(roomDBID uint, userID string) (uint, error) {
	var record db.Player
	if err := s.db.Where("room_id = ? AND user_id = ?", roomDBID, userID).First(&record).Error; err != nil {
		return 0, nil
	}
	return record.ID, nil
}

func (s *Server) storeRoomDBID(room *Room, dbID uint) {
	room.DBID = dbID
	s.store.Update(room.ID, func(stored *Room) error {
		stored.DBID = dbID
		return nil
	})
}

func (s *Server) storePlayerDBID(room *Room, userID string, dbID uint) {
	if player, ok := room.findPlayer(userID); ok {
		player.DBID = dbID
	}
	s.store.Update(room.ID, func(stored *Room) error {
		if player, ok := stored.findPlayer(userID); ok {
			player.DBID = dbID
		}
		return nil
	})
}

func findCartVote(room *Room, voterID, targetID string) (CartVote, bool) {
	for _, vote := range room.CartVotes {
		if vote.VoterID == voterID && vote.TargetID == targetID {
			return vote, true
		}
	}
	return CartVote{}, false
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
