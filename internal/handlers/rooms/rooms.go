package rooms

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pg-manager/internal/handlers/respond"
	"pg-manager/internal/services"
)

type RoomHandler struct {
	Rooms *services.RoomService
}

func NewRoomHandler(rooms *services.RoomService) *RoomHandler {
	return &RoomHandler{Rooms: rooms}
}

// List serves GET /rooms with the optional available filter.
func (h *RoomHandler) List(c *gin.Context) {
	page, err := respond.ParsePage(c)
	if err != nil {
		respond.Error(c, err)
		return
	}
	available, err := respond.ParseBool(c, "available")
	if err != nil {
		respond.Error(c, err)
		return
	}
	h.list(c, services.RoomFilter{Page: page, Available: available})
}

func (h *RoomHandler) Available(c *gin.Context) {
	yes := true
	h.list(c, services.RoomFilter{Page: services.Page{Limit: respond.MaxLimit}, Available: &yes})
}

func (h *RoomHandler) Occupied(c *gin.Context) {
	h.list(c, services.RoomFilter{Page: services.Page{Limit: respond.MaxLimit}, Occupied: true})
}

func (h *RoomHandler) list(c *gin.Context, f services.RoomFilter) {
	rooms, err := h.Rooms.List(c.Request.Context(), f)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

func (h *RoomHandler) Get(c *gin.Context) {
	id, err := respond.ParseID(c, "id")
	if err != nil {
		respond.Error(c, err)
		return
	}
	room, err := h.Rooms.Get(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *RoomHandler) Create(c *gin.Context) {
	var in services.RoomInput
	if err := respond.BindJSON(c, &in); err != nil {
		respond.Error(c, err)
		return
	}
	room, err := h.Rooms.Create(c.Request.Context(), in)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}

func (h *RoomHandler) Update(c *gin.Context) {
	id, err := respond.ParseID(c, "id")
	if err != nil {
		respond.Error(c, err)
		return
	}
	var patch services.RoomPatch
	if err := respond.BindJSON(c, &patch); err != nil {
		respond.Error(c, err)
		return
	}
	room, err := h.Rooms.Update(c.Request.Context(), id, patch)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *RoomHandler) Delete(c *gin.Context) {
	id, err := respond.ParseID(c, "id")
	if err != nil {
		respond.Error(c, err)
		return
	}
	if err := h.Rooms.Delete(c.Request.Context(), id); err != nil {
		respond.Error(c, err)
		return
	}
	respond.NoContent(c)
}
