package server

import (
	"errors"
	"log"
	"net/http"
)

type joinQueueRequest struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	AvatarRef   string `json:"avatar_ref"`
}

type playerRequest struct {
	UserID string `json:"user_id"`
}

type cartAddRequest struct {
	UserID string   `json:"user_id"`
	Item   CartItem `json:"item"`
}

type cartRemoveRequest struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
}

type outfitRequest struct {
	UserID string          `json:"user_id"`
	Outfit OutfitSelection `json:"outfit"`
}

type cartVoteRequest struct {
	UserID   string `json:"user_id"`
	TargetID string `json:"target_id"`
	Score    int    `json:"score"`
	Comment  string `json:"comment"`
}

type simpleVoteRequest struct {
	UserID   string `json:"user_id"`
	TargetID string `json:"target_id"`
}

func (s *Server) handleJoinQueue(w http.ResponseWriter, r *http.Request) {
	var req joinQueueRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "user_id and display_name are required")
		return
	}
	userID, err := validateUserID(req.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	name, err := validateDisplayName(req.DisplayName)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	room, err := s.JoinQueue(userID, name, req.AvatarRef)
	if err != nil {
		s.writeRoomError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.snapshotFor(room, userID))
}

func (s *Server) handleRoomSubroutes(w http.ResponseWriter, r *http.Request) {
	roomID, action, ok := parseRoomPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		switch action {
		case "":
			s.handleGetRoom(w, r, roomID)
		case "results":
			s.handleResults(w, r, roomID)
		case "history":
			s.handleHistory(w, r, roomID)
		default:
			http.NotFound(w, r)
		}
	case http.MethodPost:
		switch action {
		case "leave":
			s.handleLeave(w, r, roomID)
		case "ready":
			s.handleReady(w, r, roomID)
		case "heartbeat":
			s.handleHeartbeat(w, r, roomID)
		case "cart/add":
			s.handleCartAdd(w, r, roomID)
		case "cart/remove":
			s.handleCartRemove(w, r, roomID)
		case "cart/clear":
			s.handleCartClear(w, r, roomID)
		case "outfit":
			s.handleOutfit(w, r, roomID)
		case "votes":
			s.handleCartVote(w, r, roomID)
		case "votes/simple":
			s.handleSimpleVote(w, r, roomID)
		case "votes/complete":
			s.handleVotingComplete(w, r, roomID)
		case "voting/start":
			s.handleStartVoting(w, r, roomID)
		default:
			http.NotFound(w, r)
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request, roomID string) {
	room, ok := s.store.Get(roomID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, s.snapshotFor(room, r.URL.Query().Get("user_id")))
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request, roomID string) {
	results, err := s.VotingResults(roomID)
	if err != nil {
		s.writeRoomError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"room_id": roomID,
		"results": results,
		"winners": winners(results),
	})
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request, roomID string) {
	req, ok := s.decodePlayerRequest(w, r)
	if !ok {
		return
	}
	if err := s.LeaveRoom(roomID, req.UserID); err != nil {
		s.writeRoomError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"left": true})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request, roomID string) {
	req, ok := s.decodePlayerRequest(w, r)
	if !ok {
		return
	}
	room, err := s.MarkReady(roomID, req.UserID)
	if err != nil {
		s.writeRoomError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.snapshotFor(room, req.UserID))
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request, roomID string) {
	req, ok := s.decodePlayerRequest(w, r)
	if !ok {
		return
	}
	if err := s.Heartbeat(roomID, req.UserID); err != nil {
		s.writeRoomError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleCartAdd(w http.ResponseWriter, r *http.Request, roomID string) {
	var req cartAddRequest
	if err := readJSON(r.Body, &req); err != nil || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id and item are required")
		return
	}
	item, err := validateCartItem(req.Item)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	room, err := s.AddToGameCart(roomID, req.UserID, item)
	if err != nil {
		s.writeRoomError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.snapshotFor(room, req.UserID))
}

func (s *Server) handleCartRemove(w http.ResponseWriter, r *http.Request, roomID string) {
	var req cartRemoveRequest
	if err := readJSON(r.Body, &req); err != nil || req.UserID == "" || req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "user_id and product_id are required")
		return
	}
	room, err := s.RemoveFromGameCart(roomID, req.UserID, req.ProductID)
	if err != nil {
		s.writeRoomError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.snapshotFor(room, req.UserID))
}

func (s *Server) handleCartClear(w http.ResponseWriter, r *http.Request, roomID string) {
	req, ok := s.decodePlayerRequest(w, r)
	if !ok {
		return
	}
	room, err := s.ClearGameCart(roomID, req.UserID)
	if err != nil {
		s.writeRoomError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.snapshotFor(room, req.UserID))
}

func (s *Server) handleOutfit(w http.ResponseWriter, r *http.Request, roomID string) {
	var req outfitRequest
	if err := readJSON(r.Body, &req); err != nil || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id and outfit are required")
		return
	}
	room, err := s.SubmitOutfit(roomID, req.UserID, req.Outfit)
	if err != nil {
		s.writeRoomError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.snapshotFor(room, req.UserID))
}

func (s *Server) handleCartVote(w http.ResponseWriter, r *http.Request, roomID string) {
	var req cartVoteRequest
	if err := readJSON(r.Body, &req); err != nil || req.UserID == "" || req.TargetID == "" {
		writeError(w, http.StatusBadRequest, "user_id, target_id and score are required")
		return
	}
	comment, err := validateComment(req.Comment)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	room, err := s.SubmitCartVote(roomID, req.UserID, req.TargetID, req.Score, comment)
	if err != nil {
		s.writeRoomError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.snapshotFor(room, req.UserID))
}

func (s *Server) handleSimpleVote(w http.ResponseWriter, r *http.Request, roomID string) {
	var req simpleVoteRequest
	if err := readJSON(r.Body, &req); err != nil || req.UserID == "" || req.TargetID == "" {
		writeError(w, http.StatusBadRequest, "user_id and target_id are required")
		return
	}
	room, err := s.SubmitVote(roomID, req.UserID, req.TargetID)
	if err != nil {
		s.writeRoomError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.snapshotFor(room, req.UserID))
}

func (s *Server) handleVotingComplete(w http.ResponseWriter, r *http.Request, roomID string) {
	req, ok := s.decodePlayerRequest(w, r)
	if !ok {
		return
	}
	room, err := s.MarkVotingComplete(roomID, req.UserID)
	if err != nil {
		s.writeRoomError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.snapshotFor(room, req.UserID))
}

func (s *Server) handleStartVoting(w http.ResponseWriter, r *http.Request, roomID string) {
	room, err := s.StartCartVoting(roomID)
	if err != nil {
		s.writeRoomError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.snapshotFor(room, ""))
}

func (s *Server) handleThemes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"themes":  gameThemes,
		"budgets": budgetTiers,
	})
}

func (s *Server) decodePlayerRequest(w http.ResponseWriter, r *http.Request) (playerRequest, bool) {
	var req playerRequest
	if err := readJSON(r.Body, &req); err != nil || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return req, false
	}
	return req, true
}

func (s *Server) writeRoomError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrRoomNotFound), errors.Is(err, ErrPlayerNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrBudgetExceeded),
		errors.Is(err, ErrCartFull),
		errors.Is(err, ErrDuplicateItem),
		errors.Is(err, ErrInvalidScore),
		errors.Is(err, ErrSelfVote),
		errors.Is(err, ErrAlreadyMember),
		errors.Is(err, ErrOutfitSubmitted),
		errors.Is(err, ErrInsufficientPlayers),
		errors.Is(err, ErrRoomFull),
		errors.Is(err, ErrWrongPhase):
		writeError(w, http.StatusConflict, err.Error())
	default:
		log.Printf("internal error path=%s error=%v", r.URL.Path, err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
