package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mcoot/friendlytable/internal/api/apierr"
	"github.com/mcoot/friendlytable/internal/api/response"
	"github.com/mcoot/friendlytable/internal/model"
)

// RoomReader looks up room snapshots
type RoomReader interface {
	Room(ctx context.Context, roomID model.RoomID) (*model.Room, error)
	Rooms(ctx context.Context) ([]*model.Room, error)
}

// RoomHandler serves read-only room information
type RoomHandler struct {
	rooms RoomReader
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(rooms RoomReader) *RoomHandler {
	return &RoomHandler{rooms: rooms}
}

// List handles GET /api/v1/rooms
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.rooms.Rooms(r.Context())
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	summaries := make([]response.RoomSummary, len(rooms))
	for i, room := range rooms {
		summaries[i] = response.RoomSummaryFromModel(room)
	}
	response.JSON(w, http.StatusOK, response.RoomList{Rooms: summaries})
}

// Get handles GET /api/v1/rooms/{id}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("room id is required"))
		return
	}

	room, err := h.rooms.Room(r.Context(), model.RoomID(id))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(room))
}

// HealthHandler serves GET /api/v1/health
type HealthHandler struct {
	now func() time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(now func() time.Time) *HealthHandler {
	return &HealthHandler{now: now}
}

// Get reports that the server is up
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok", Timestamp: h.now()})
}
