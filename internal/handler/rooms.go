package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/pgledger/internal/domain"
	"github.com/aryan0dhankhar/pgledger/internal/service"
)

// RoomHandler serves /api/rooms
type RoomHandler struct {
	rooms  *service.RoomService
	notify Notifier
	logger *slog.Logger
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(rooms *service.RoomService, notify Notifier, logger *slog.Logger) *RoomHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RoomHandler{rooms: rooms, notify: notify, logger: logger}
}

// List handles GET /api/rooms
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.rooms.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

// Options handles GET /api/rooms/options
func (h *RoomHandler) Options(w http.ResponseWriter, r *http.Request) {
	opts, err := h.rooms.Options(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

// Occupancy handles GET /api/rooms/occupancy
func (h *RoomHandler) Occupancy(w http.ResponseWriter, r *http.Request) {
	occ, err := h.rooms.Occupancy(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, occ)
}

// Create handles POST /api/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.Room
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	in.ID = 0
	h.save(w, r, in, http.StatusCreated)
}

// Update handles PUT /api/rooms/{id}
func (h *RoomHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var in domain.Room
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	in.ID = id
	h.save(w, r, in, http.StatusOK)
}

func (h *RoomHandler) save(w http.ResponseWriter, r *http.Request, room domain.Room, status int) {
	saved, err := h.rooms.Save(r.Context(), room)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.notify.Touch()
	writeJSON(w, status, saved)
}

// Delete handles DELETE /api/rooms/{id}
func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.rooms.Delete(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.notify.Touch()
	w.WriteHeader(http.StatusNoContent)
}
