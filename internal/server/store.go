package server

import (
	"sort"
	"sync"
)

// RoomStore is the shared room tree. Update runs its mutation atomically
// under the store's lock, which is the check-and-set that keeps concurrent
// joins from oversubscribing a room. Subscribers receive a copy of the room
// after every committed change, and nil when the room is deleted.
type RoomStore interface {
	Get(roomID string) (*Room, bool)
	List() []*Room
	Create(room *Room)
	Update(roomID string, update func(room *Room) error) (*Room, error)
	Delete(roomID string) bool
	Subscribe(roomID string, fn func(room *Room)) func()
}

type memoryRoomStore struct {
	mu       sync.Mutex
	rooms    map[string]*Room
	order    []string
	nextSub  int
	watchers map[string]map[int]func(room *Room)
	pending  map[string][]notification
	draining map[string]bool
}

// notification is one committed change captured under the lock, with the
// watcher set as of that commit.
type notification struct {
	fns  []func(room *Room)
	room *Room
}

func NewRoomStore() RoomStore {
	return &memoryRoomStore{
		rooms:    make(map[string]*Room),
		watchers: make(map[string]map[int]func(room *Room)),
		pending:  make(map[string][]notification),
		draining: make(map[string]bool),
	}
}

func (s *memoryRoomStore) Get(roomID string) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, false
	}
	return cloneRoom(room), true
}

// List returns rooms in creation order, which is the enumeration order
// matchmaking uses when probing candidates.
func (s *memoryRoomStore) List() []*Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*Room, 0, len(s.rooms))
	for _, id := range s.order {
		if room, ok := s.rooms[id]; ok {
			list = append(list, cloneRoom(room))
		}
	}
	return list
}

func (s *memoryRoomStore) Create(room *Room) {
	s.mu.Lock()
	s.rooms[room.ID] = room
	s.order = append(s.order, room.ID)
	s.enqueueLocked(room.ID, cloneRoom(room))
	s.mu.Unlock()
	s.flush(room.ID)
}

func (s *memoryRoomStore) Update(roomID string, update func(room *Room) error) (*Room, error) {
	s.mu.Lock()
	room, ok := s.rooms[roomID]
	if !ok {
		s.mu.Unlock()
		return nil, ErrRoomNotFound
	}
	if err := update(room); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	snapshot := cloneRoom(room)
	s.enqueueLocked(roomID, snapshot)
	s.mu.Unlock()
	s.flush(roomID)
	return snapshot, nil
}

func (s *memoryRoomStore) Delete(roomID string) bool {
	s.mu.Lock()
	if _, ok := s.rooms[roomID]; !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.rooms, roomID)
	for i, id := range s.order {
		if id == roomID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.enqueueLocked(roomID, nil)
	delete(s.watchers, roomID)
	s.mu.Unlock()
	s.flush(roomID)
	return true
}

// enqueueLocked captures the commit for delivery while still holding the
// lock, so subscribers observe commits in the order they happened even
// when two writers race.
func (s *memoryRoomStore) enqueueLocked(roomID string, snapshot *Room) {
	fns := s.watchersFor(roomID)
	if len(fns) == 0 {
		return
	}
	s.pending[roomID] = append(s.pending[roomID], notification{fns: fns, room: snapshot})
}

// flush delivers queued notifications outside the lock. The draining flag
// is a single token per room: whoever holds it delivers until the queue is
// empty, and racing committers hand their entries to the current holder.
func (s *memoryRoomStore) flush(roomID string) {
	for {
		s.mu.Lock()
		if s.draining[roomID] || len(s.pending[roomID]) == 0 {
			if len(s.pending[roomID]) == 0 {
				delete(s.pending, roomID)
			}
			s.mu.Unlock()
			return
		}
		s.draining[roomID] = true
		next := s.pending[roomID][0]
		s.pending[roomID] = s.pending[roomID][1:]
		s.mu.Unlock()

		notify(next.fns, next.room)

		s.mu.Lock()
		delete(s.draining, roomID)
		s.mu.Unlock()
	}
}

func (s *memoryRoomStore) Subscribe(roomID string, fn func(room *Room)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	group := s.watchers[roomID]
	if group == nil {
		group = make(map[int]func(room *Room))
		s.watchers[roomID] = group
	}
	id := s.nextSub
	s.nextSub++
	group[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if group, ok := s.watchers[roomID]; ok {
			delete(group, id)
			if len(group) == 0 {
				delete(s.watchers, roomID)
			}
		}
	}
}

// watchersFor snapshots the callback set in a stable order so callers can
// dispatch outside the lock without racing Subscribe.
func (s *memoryRoomStore) watchersFor(roomID string) []func(room *Room) {
	group := s.watchers[roomID]
	if len(group) == 0 {
		return nil
	}
	ids := make([]int, 0, len(group))
	for id := range group {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(room *Room), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, group[id])
	}
	return fns
}

func notify(watchers []func(room *Room), room *Room) {
	for _, fn := range watchers {
		fn(room)
	}
}

func cloneRoom(room *Room) *Room {
	if room == nil {
		return nil
	}
	copied := *room
	copied.Players = make([]Player, len(room.Players))
	for i, player := range room.Players {
		copied.Players[i] = player
		copied.Players[i].GameCart = append([]CartItem(nil), player.GameCart...)
		if player.Outfit != nil {
			outfit := *player.Outfit
			outfit.Items = append([]OutfitItem(nil), player.Outfit.Items...)
			copied.Players[i].Outfit = &outfit
		}
	}
	copied.CartVotes = append([]CartVote(nil), room.CartVotes...)
	return &copied
}
