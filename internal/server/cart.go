package server

import (
	"log"

	"github.com/shopspring/decimal"
)

// AddToGameCart appends an item to the player's cart. The duplicate and
// budget checks run inside the store update against the committed cart, so
// a racing add from the same player can never push the total past the
// room budget.
func (s *Server) AddToGameCart(roomID, userID string, item CartItem) (*Room, error) {
	room, err := s.store.Update(roomID, func(room *Room) error {
		player, ok := room.findPlayer(userID)
		if !ok {
			return ErrPlayerNotFound
		}
		if len(player.GameCart) >= maxCartItems {
			return ErrCartFull
		}
		for _, existing := range player.GameCart {
			if existing.ProductID == item.ProductID {
				return ErrDuplicateItem
			}
		}
		if cartTotal(player.GameCart).Add(item.Price).GreaterThan(room.Budget) {
			return ErrBudgetExceeded
		}
		if item.Quantity <= 0 {
			item.Quantity = 1
		}
		item.AddedAt = timeNowUTC()
		player.GameCart = append(player.GameCart, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("cart item added room_id=%s player_id=%s product_id=%s price=%s", roomID, userID, item.ProductID, item.Price.String())
	if err := s.persistCartItem(room, userID, item); err != nil {
		log.Printf("persist cart item failed room_id=%s player_id=%s error=%v", roomID, userID, err)
	}
	return room, nil
}

// RemoveFromGameCart filters the item out and rewrites the cart in full.
func (s *Server) RemoveFromGameCart(roomID, userID, productID string) (*Room, error) {
	room, err := s.store.Update(roomID, func(room *Room) error {
		player, ok := room.findPlayer(userID)
		if !ok {
			return ErrPlayerNotFound
		}
		filtered := player.GameCart[:0]
		for _, item := range player.GameCart {
			if item.ProductID != productID {
				filtered = append(filtered, item)
			}
		}
		player.GameCart = filtered
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("cart item removed room_id=%s player_id=%s product_id=%s", roomID, userID, productID)
	if err := s.persistCartRemoval(room, userID, productID); err != nil {
		log.Printf("persist cart removal failed room_id=%s player_id=%s error=%v", roomID, userID, err)
	}
	return room, nil
}

func (s *Server) ClearGameCart(roomID, userID string) (*Room, error) {
	room, err := s.store.Update(roomID, func(room *Room) error {
		player, ok := room.findPlayer(userID)
		if !ok {
			return ErrPlayerNotFound
		}
		player.GameCart = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("cart cleared room_id=%s player_id=%s", roomID, userID)
	if err := s.persistCartClear(room, userID); err != nil {
		log.Printf("persist cart clear failed room_id=%s player_id=%s error=%v", roomID, userID, err)
	}
	return room, nil
}

// CartTotal reports the player's committed cart total. The authoritative
// budget check in AddToGameCart re-reads current state rather than trusting
// a cached total.
func (s *Server) CartTotal(roomID, userID string) (decimal.Decimal, error) {
	room, ok := s.store.Get(roomID)
	if !ok {
		return decimal.Zero, ErrRoomNotFound
	}
	player, ok := room.findPlayer(userID)
	if !ok {
		return decimal.Zero, ErrPlayerNotFound
	}
	return cartTotal(player.GameCart), nil
}

func cartTotal(cart []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range cart {
		total = total.Add(item.Price)
	}
	return total
}

// playersGameCarts flattens every player's cart for room-wide broadcast.
func playersGameCarts(room *Room) map[string][]CartItem {
	carts := make(map[string][]CartItem, len(room.Players))
	for _, player := range room.Players {
		carts[player.UserID] = append([]CartItem(nil), player.GameCart...)
	}
	return carts
}
