package domain

import "strings"

// Room is a bed inventory unit. Occupancy is derived, never stored.
type Room struct {
	ID          int64  `json:"id"`
	RoomNumber  string `json:"roomNumber"`
	BedCapacity int    `json:"bedCapacity"`
}

// NormalizeRoomNumber trims and upper-cases a room number for storage and matching
func NormalizeRoomNumber(roomNumber string) string {
	return strings.ToUpper(strings.TrimSpace(roomNumber))
}

// SameRoom is a case-insensitive exact match
func SameRoom(a, b string) bool {
	return NormalizeRoomNumber(a) == NormalizeRoomNumber(b)
}
