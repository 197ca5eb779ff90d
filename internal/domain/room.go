package domain

import (
	"strings"
	"time"
)

// Room is a rentable unit. Occupants is derived from the tenants assigned to
// the room's number and may exceed Capacity; nothing enforces it.
type Room struct {
	ID        string
	Number    string
	Capacity  int
	Occupants int
	OwnerID   string
	CreatedAt time.Time
}

// Full reports whether the room has no free places left.
func (r Room) Full() bool {
	return r.Occupants >= r.Capacity
}

// RoomValues holds the editable fields of a room.
type RoomValues struct {
	Number   string
	Capacity int
}

// Valid reports whether the values may be saved.
func (v RoomValues) Valid() bool {
	return strings.TrimSpace(v.Number) != "" && v.Capacity > 0
}

// Values returns the room's current editable fields.
func (r Room) Values() RoomValues {
	return RoomValues{Number: r.Number, Capacity: r.Capacity}
}
