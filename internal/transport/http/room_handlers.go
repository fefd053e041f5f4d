package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/roomchat-server/internal/catalog"
	"github.com/vovakirdan/roomchat-server/internal/core"
)

// RoomHandlers serves the room catalog together with live presence.
type RoomHandlers struct {
	hub     *core.Hub
	catalog catalog.Catalog
	log     *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(hub *core.Hub, cat catalog.Catalog, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		hub:     hub,
		catalog: cat,
		log:     logger,
	}
}

// RoomResponse represents a room in API responses.
type RoomResponse struct {
	Name    string `json:"name"`
	Image   string `json:"image,omitempty"`
	Members int    `json:"members"`
}

// GroupResponse is a titled list of rooms.
type GroupResponse struct {
	Title string         `json:"title"`
	Rooms []RoomResponse `json:"rooms"`
}

// CategoryResponse is a titled list of groups.
type CategoryResponse struct {
	Title  string          `json:"title"`
	Groups []GroupResponse `json:"groups"`
}

// RoomDetailResponse describes a single room and who is in it.
type RoomDetailResponse struct {
	Name     string   `json:"name"`
	Image    string   `json:"image,omitempty"`
	Category string   `json:"category"`
	Group    string   `json:"group"`
	Members  int      `json:"members"`
	Users    []string `json:"users"`
}

// ListRooms returns the grouped catalog with current member counts.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	response := lo.Map(h.catalog, func(cat catalog.Category, _ int) CategoryResponse {
		return CategoryResponse{
			Title: cat.Title,
			Groups: lo.Map(cat.Groups, func(g catalog.Group, _ int) GroupResponse {
				return GroupResponse{
					Title: g.Title,
					Rooms: lo.Map(g.Rooms, func(r catalog.Room, _ int) RoomResponse {
						return RoomResponse{Name: r.Name, Image: r.Image, Members: h.hub.MemberCount(r.Name)}
					}),
				}
			}),
		}
	})

	h.log.Debug().Int("category_count", len(response)).Msg("rooms listed")
	c.JSON(http.StatusOK, response)
}

// GetRoom returns one catalog room with its roster.
// GET /api/rooms/:name
func (h *RoomHandlers) GetRoom(c *gin.Context) {
	name := c.Param("name")
	entry, ok := h.catalog.Lookup(name)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}

	users, err := h.hub.Rooms.Members(name)
	if err != nil {
		h.log.Error().Err(err).Str("room", name).Msg("catalog room missing from registry")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, RoomDetailResponse{
		Name:     entry.Name,
		Image:    entry.Image,
		Category: entry.Category,
		Group:    entry.Group,
		Members:  len(users),
		Users:    users,
	})
}
