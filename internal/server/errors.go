package server

import "errors"

// Validation failures are surfaced synchronously to the acting client and
// never retried. RoomFull and RoomNotFound are absorbed by matchmaking,
// which moves on to the next candidate room instead of failing the join.
var (
	ErrRoomFull            = errors.New("room is full")
	ErrRoomNotFound        = errors.New("room not found")
	ErrAlreadyMember       = errors.New("already in this room")
	ErrPlayerNotFound      = errors.New("player not found")
	ErrBudgetExceeded      = errors.New("adding this item would exceed the room budget")
	ErrCartFull            = errors.New("game cart is full")
	ErrDuplicateItem       = errors.New("item already in your game cart")
	ErrInvalidScore        = errors.New("cart score must be between 1 and 5")
	ErrSelfVote            = errors.New("cannot vote for your own cart")
	ErrInsufficientPlayers = errors.New("not enough players")
	ErrOutfitSubmitted     = errors.New("outfit already submitted")
	ErrWrongPhase          = errors.New("not allowed in this phase")
)
