package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/pgledger/internal/domain"
)

// PostgresRoomRepository implements domain.RoomRepository using PostgreSQL
type PostgresRoomRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresRoomRepository creates a new room repository
func NewPostgresRoomRepository(db *sql.DB, logger *slog.Logger) *PostgresRoomRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRoomRepository{db: db, logger: logger}
}

// List returns all rooms ordered by id
func (r *PostgresRoomRepository) List(ctx context.Context) ([]domain.Room, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, room_number, bed_capacity FROM rooms ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	rooms := []domain.Room{}
	for rows.Next() {
		var room domain.Room
		if err := rows.Scan(&room.ID, &room.RoomNumber, &room.BedCapacity); err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

// Save inserts a room when its ID is zero, otherwise updates it
func (r *PostgresRoomRepository) Save(ctx context.Context, room *domain.Room) error {
	room.RoomNumber = domain.NormalizeRoomNumber(room.RoomNumber)

	var err error
	if room.ID == 0 {
		err = r.db.QueryRowContext(ctx,
			`INSERT INTO rooms (room_number, bed_capacity) VALUES ($1, $2) RETURNING id`,
			room.RoomNumber, room.BedCapacity,
		).Scan(&room.ID)
	} else {
		var id int64
		err = r.db.QueryRowContext(ctx,
			`UPDATE rooms SET room_number = $1, bed_capacity = $2 WHERE id = $3 RETURNING id`,
			room.RoomNumber, room.BedCapacity, room.ID,
		).Scan(&id)
	}
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return domain.NotFoundf("room %d not found", room.ID)
		case isUniqueViolation(err):
			return domain.Conflictf("room %s already exists", room.RoomNumber)
		}
		r.logger.Error("failed to save room",
			slog.String("room_number", room.RoomNumber),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to save room: %w", err)
	}
	return nil
}

// Delete removes a room
func (r *PostgresRoomRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.NotFoundf("room %d not found", id)
	}
	return nil
}
