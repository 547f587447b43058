package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/aryan0dhankhar/pgledger/internal/aggregate"
	"github.com/aryan0dhankhar/pgledger/internal/domain"
	"github.com/aryan0dhankhar/pgledger/internal/observability/metrics"
	"github.com/aryan0dhankhar/pgledger/internal/ordering"
	"github.com/aryan0dhankhar/pgledger/pkg/cache"
)

const (
	roomsCacheKey = "rooms:all"
	roomsCacheTTL = 5 * time.Minute
)

// DefaultRoomNumbers is the room list offered before any room is configured
func DefaultRoomNumbers() []string {
	rooms := []string{"G1", "G2", "G3", "G4"}
	for floor := 1; floor <= 4; floor++ {
		for n := 1; n <= 6; n++ {
			rooms = append(rooms, fmt.Sprintf("%d%02d", floor, n))
		}
	}
	return rooms
}

// RoomService manages bed inventory and derives occupancy
type RoomService struct {
	rooms       domain.RoomRepository
	tenants     domain.TenantRepository
	customRooms []string
	cache       *cache.Cache[[]domain.Room]
	logger      *slog.Logger
}

// NewRoomService creates a new room service. customRooms extend the room options.
func NewRoomService(
	rooms domain.RoomRepository,
	tenants domain.TenantRepository,
	customRooms []string,
	logger *slog.Logger,
) *RoomService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RoomService{
		rooms:       rooms,
		tenants:     tenants,
		customRooms: customRooms,
		cache:       cache.New[[]domain.Room](),
		logger:      logger,
	}
}

// List returns rooms in room-number order
func (s *RoomService) List(ctx context.Context) ([]domain.Room, error) {
	rooms, err := s.cache.GetOrLoad(ctx, roomsCacheKey, roomsCacheTTL, func(ctx context.Context) ([]domain.Room, error) {
		rooms, err := s.rooms.List(ctx)
		if err != nil {
			return nil, err
		}
		ordering.SortRooms(rooms)
		return rooms, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(rooms), nil
}

// Save creates a room when ID is zero, otherwise updates it
func (s *RoomService) Save(ctx context.Context, room domain.Room) (*domain.Room, error) {
	room.RoomNumber = domain.NormalizeRoomNumber(room.RoomNumber)
	if room.RoomNumber == "" {
		return nil, domain.Validationf("room number is required")
	}
	if room.BedCapacity < 1 {
		return nil, domain.Validationf("bed capacity must be at least 1")
	}
	if err := s.rooms.Save(ctx, &room); err != nil {
		return nil, err
	}
	s.cache.Invalidate("rooms:")
	s.logger.Info("room saved",
		slog.Int64("room_id", room.ID),
		slog.String("room_number", room.RoomNumber),
		slog.Int("bed_capacity", room.BedCapacity),
	)
	return &room, nil
}

// Delete removes a room
func (s *RoomService) Delete(ctx context.Context, id int64) error {
	if err := s.rooms.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate("rooms:")
	return nil
}

// Options lists selectable room numbers: the defaults, configured custom rooms
// and every stored room, upper-cased without duplicates.
func (s *RoomService) Options(ctx context.Context) ([]string, error) {
	rooms, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	out := []string{}
	add := func(n string) {
		n = domain.NormalizeRoomNumber(n)
		if n == "" {
			return
		}
		if _, ok := seen[n]; ok {
			return
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	for _, n := range DefaultRoomNumbers() {
		add(n)
	}
	for _, n := range s.customRooms {
		add(n)
	}
	for _, r := range rooms {
		add(r.RoomNumber)
	}
	ordering.SortRoomNumbers(out)
	return out, nil
}

// Occupancy counts active monthly tenants against room capacity
func (s *RoomService) Occupancy(ctx context.Context) (aggregate.Occupancy, error) {
	rooms, err := s.List(ctx)
	if err != nil {
		return aggregate.Occupancy{}, err
	}
	tenants, err := s.tenants.ListActive(ctx)
	if err != nil {
		return aggregate.Occupancy{}, err
	}
	occ := aggregate.ComputeOccupancy(rooms, tenants)
	metrics.SetOccupancy(occ.Beds, occ.Occupied)
	return occ, nil
}
