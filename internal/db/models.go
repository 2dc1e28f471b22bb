package db

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Room struct {
	ID            uint            `gorm:"primaryKey"`
	RoomID        string          `gorm:"size:64;uniqueIndex;not null"`
	Status        string          `gorm:"size:32;not null"`
	Theme         string          `gorm:"size:64;not null"`
	Budget        decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	MaxPlayers    int             `gorm:"not null"`
	MinPlayers    int             `gorm:"not null"`
	TimeLimit     int             `gorm:"not null"`
	VotingLimit   int             `gorm:"not null"`
	StartTime     *time.Time
	EndTime       *time.Time
	VotingEndTime *time.Time
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
	Players       []Player
	Votes         []CartVote
	Events        []Event
}

type Player struct {
	ID          uint      `gorm:"primaryKey"`
	RoomID      uint      `gorm:"index;not null;uniqueIndex:idx_players_room_user"`
	UserID      string    `gorm:"size:64;not null;uniqueIndex:idx_players_room_user"`
	DisplayName string    `gorm:"size:64;not null"`
	AvatarRef   string    `gorm:"size:255"`
	JoinedAt    time.Time `gorm:"not null"`
	LeftAt      *time.Time
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
	CartItems   []CartItem
}

type CartItem struct {
	ID            uint            `gorm:"primaryKey"`
	PlayerID      uint            `gorm:"index;not null;uniqueIndex:idx_cart_items_player_product"`
	ProductID     string          `gorm:"size:64;not null;uniqueIndex:idx_cart_items_player_product"`
	Name          string          `gorm:"size:128;not null"`
	Price         decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	ImageRef      string          `gorm:"size:255"`
	Category      string          `gorm:"size:64"`
	Quantity      int             `gorm:"not null;default:1"`
	SelectedSize  string          `gorm:"size:16"`
	SelectedColor string          `gorm:"size:32"`
	AddedAt       time.Time       `gorm:"not null"`
	RemovedAt     *time.Time
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

type CartVote struct {
	ID        uint      `gorm:"primaryKey"`
	RoomID    uint      `gorm:"index;not null;uniqueIndex:idx_cart_votes_room_pair"`
	VoterID   string    `gorm:"size:64;not null;uniqueIndex:idx_cart_votes_room_pair"`
	TargetID  string    `gorm:"size:64;not null;uniqueIndex:idx_cart_votes_room_pair"`
	CartScore int       `gorm:"not null"`
	Comment   string    `gorm:"size:280"`
	VotedAt   time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type Event struct {
	ID        uint           `gorm:"primaryKey"`
	RoomID    uint           `gorm:"index;not null"`
	PlayerID  *uint          `gorm:"index"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null"`
}
