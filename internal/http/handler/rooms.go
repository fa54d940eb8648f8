package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"appforge/internal/collab"
)

func registerRoomRoutes(app *fiber.App, rooms *collab.Registry) {
	// List live collaboration rooms
	app.Get("/rooms", func(c *fiber.Ctx) error {
		infos := rooms.List()
		return c.JSON(fiber.Map{"data": infos, "total": len(infos)})
	})

	// Get one room snapshot
	app.Get("/rooms/:id", func(c *fiber.Ctx) error {
		room, err := rooms.Get(c.Params("id"))
		if err != nil {
			if errors.Is(err, collab.ErrRoomNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "room not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(room.Info())
	})

	// Room websocket: joins the room and relays updates between participants
	app.Get("/rooms/:id/ws", collab.UpgradeRequired(), collab.Handler(rooms))
}
