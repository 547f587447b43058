package aggregate

import (
	"github.com/aryan0dhankhar/pgledger/internal/domain"
)

// Floor keys in display order
const (
	FloorGround = "GROUND"
	FloorOther  = "OTHER"
)

// Floors lists the configured floors; rooms on anything else land in FloorOther
var Floors = []string{FloorGround, "1", "2", "3", "4"}

// FloorKey derives the floor from the room number's first character
func FloorKey(roomNumber string) string {
	n := domain.NormalizeRoomNumber(roomNumber)
	if n == "" {
		return FloorOther
	}
	switch c := n[0]; {
	case c == 'G':
		return FloorGround
	case c >= '1' && c <= '4':
		return string(c)
	default:
		return FloorOther
	}
}

// RoomOccupancy is the derived bed usage of one room
type RoomOccupancy struct {
	RoomID      int64   `json:"roomId"`
	RoomNumber  string  `json:"roomNumber"`
	Floor       string  `json:"floor"`
	BedCapacity int     `json:"bedCapacity"`
	Occupants   int     `json:"occupants"`
	Occupied    int     `json:"occupiedBeds"`
	Vacant      int     `json:"vacantBeds"`
	TenantIDs   []int64 `json:"tenantIds"`
}

// FloorOccupancy totals the rooms of one floor
type FloorOccupancy struct {
	Floor    string `json:"floor"`
	Rooms    int    `json:"rooms"`
	Beds     int    `json:"totalBeds"`
	Occupied int    `json:"occupiedBeds"`
	Vacant   int    `json:"vacantBeds"`
}

// Occupancy is the per-room, per-floor and overall bed picture
type Occupancy struct {
	Rooms    []RoomOccupancy  `json:"rooms"`
	Floors   []FloorOccupancy `json:"floors"`
	Beds     int              `json:"totalBeds"`
	Occupied int              `json:"occupiedBeds"`
	Vacant   int              `json:"vacantBeds"`
}

// ComputeOccupancy counts active tenants per room by case-insensitive exact room
// match and caps each room at its bed capacity. Rooms keep their input order.
func ComputeOccupancy(rooms []domain.Room, tenants []domain.Tenant) Occupancy {
	byRoom := make(map[string][]int64)
	for _, t := range tenants {
		if !t.Active {
			continue
		}
		key := domain.NormalizeRoomNumber(t.RoomNumber)
		byRoom[key] = append(byRoom[key], t.ID)
	}

	floors := make(map[string]*FloorOccupancy, len(Floors)+1)
	for _, f := range Floors {
		floors[f] = &FloorOccupancy{Floor: f}
	}

	out := Occupancy{Rooms: make([]RoomOccupancy, 0, len(rooms))}
	for _, room := range rooms {
		beds := max(room.BedCapacity, 0)
		ids := byRoom[domain.NormalizeRoomNumber(room.RoomNumber)]
		occupied := min(len(ids), beds)
		ro := RoomOccupancy{
			RoomID:      room.ID,
			RoomNumber:  room.RoomNumber,
			Floor:       FloorKey(room.RoomNumber),
			BedCapacity: beds,
			Occupants:   len(ids),
			Occupied:    occupied,
			Vacant:      beds - occupied,
			TenantIDs:   append([]int64(nil), ids...),
		}
		out.Rooms = append(out.Rooms, ro)
		out.Beds += beds
		out.Occupied += occupied
		out.Vacant += ro.Vacant

		f, ok := floors[ro.Floor]
		if !ok {
			f = &FloorOccupancy{Floor: ro.Floor}
			floors[ro.Floor] = f
		}
		f.Rooms++
		f.Beds += beds
		f.Occupied += occupied
		f.Vacant += ro.Vacant
	}

	for _, key := range Floors {
		out.Floors = append(out.Floors, *floors[key])
	}
	if other, ok := floors[FloorOther]; ok {
		out.Floors = append(out.Floors, *other)
	}
	return out
}
