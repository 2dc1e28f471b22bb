package server

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	statusWaiting  = "waiting"
	statusActive   = "active"
	statusVoting   = "voting"
	statusFinished = "finished"
)

const (
	phaseLobby   = "lobby"
	phaseStyling = "styling"
	phaseVoting  = "voting"
	phaseResults = "results"
)

type RoomSummary struct {
	ID      string
	Status  string
	Theme   string
	Players int
}

type Room struct {
	ID             string
	DBID           uint
	Status         string
	Theme          string
	Budget         decimal.Decimal
	MaxPlayers     int
	MinPlayers     int
	CurrentPlayers int
	TimeLimit      int
	VotingLimit    int
	CreatedAt      time.Time
	StartTime      time.Time
	EndTime        time.Time
	VotingStart    time.Time
	VotingEnd      time.Time
	Players        []Player
	CartVotes      []CartVote
}

type Player struct {
	UserID      string
	DBID        uint
	DisplayName string
	AvatarRef   string
	Ready       bool
	JoinedAt    time.Time
	LastSeenAt  time.Time
	HasVoted    bool
	Outfit      *OutfitSelection
	GameCart    []CartItem
}

type CartItem struct {
	ProductID     string          `json:"product_id"`
	DBID          uint            `json:"-"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	ImageRef      string          `json:"image_ref,omitempty"`
	Category      string          `json:"category,omitempty"`
	Quantity      int             `json:"quantity"`
	SelectedSize  string          `json:"selected_size,omitempty"`
	SelectedColor string          `json:"selected_color,omitempty"`
	AddedAt       time.Time       `json:"added_at"`
}

// CartVote is the one canonical vote record. At most one exists per
// (voter, target) pair in a room; resubmission overwrites in place.
type CartVote struct {
	VoterID   string    `json:"voter_id"`
	DBID      uint      `json:"-"`
	TargetID  string    `json:"target_id"`
	CartScore int       `json:"cart_score"`
	Comment   string    `json:"comment,omitempty"`
	VotedAt   time.Time `json:"voted_at"`
}

type OutfitSelection struct {
	Items       []OutfitItem    `json:"items"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	SubmittedAt time.Time       `json:"submitted_at"`
	Description string          `json:"description,omitempty"`
}

type OutfitItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	ImageRef  string          `json:"image_ref,omitempty"`
	Category  string          `json:"category,omitempty"`
}

// PlayerResult is the aggregated voting outcome for one player.
type PlayerResult struct {
	PlayerID     string     `json:"player_id"`
	PlayerName   string     `json:"player_name"`
	TotalScore   int        `json:"total_score"`
	AverageScore float64    `json:"average_score"`
	VoteCount    int        `json:"vote_count"`
	Comments     []string   `json:"comments"`
	Cart         []CartItem `json:"cart"`
}

// gamePhase maps the stored room status to the phase a client renders.
// Pure and side-effect free; the authoritative state lives in the store.
func gamePhase(status string) string {
	switch status {
	case statusWaiting:
		return phaseLobby
	case statusActive:
		return phaseStyling
	case statusVoting:
		return phaseVoting
	case statusFinished:
		return phaseResults
	default:
		return ""
	}
}

// statusRank orders statuses along the only legal transition path.
// Transitions never move to a lower rank.
func statusRank(status string) int {
	switch status {
	case statusWaiting:
		return 0
	case statusActive:
		return 1
	case statusVoting:
		return 2
	case statusFinished:
		return 3
	default:
		return -1
	}
}

func (r *Room) findPlayer(userID string) (*Player, bool) {
	for i := range r.Players {
		if r.Players[i].UserID == userID {
			return &r.Players[i], true
		}
	}
	return nil, false
}

func (r *Room) hasPlayer(userID string) bool {
	_, ok := r.findPlayer(userID)
	return ok
}

// firstJoiner identifies the host for display purposes only; it confers
// no authority over the room.
func (r *Room) firstJoiner() string {
	if len(r.Players) == 0 {
		return ""
	}
	first := r.Players[0]
	for _, player := range r.Players[1:] {
		if player.JoinedAt.Before(first.JoinedAt) {
			first = player
		}
	}
	return first.UserID
}

func timeNowUTC() time.Time {
	return time.Now().UTC()
}
