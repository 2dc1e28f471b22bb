package db

import "gorm.io/gorm"

// RoomByRoomID looks up the persisted row for an in-memory room.
func RoomByRoomID(conn *gorm.DB, roomID string) (*Room, error) {
	var record Room
	if err := conn.Where("room_id = ?", roomID).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// EventsForRoom returns the room's audit trail oldest first.
func EventsForRoom(conn *gorm.DB, roomDBID uint, limit int) ([]Event, error) {
	var events []Event
	query := conn.Where("room_id = ?", roomDBID).Order("id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
