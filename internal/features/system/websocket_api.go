package system

import (
	"go-bizsuite/internal/common/api"
	"go-bizsuite/internal/config"
	"go-bizsuite/internal/middleware"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type WebSocketApi struct {
	Controller *WebSocketController
	config     *config.Config
}

func NewWebSocketApi(controller *WebSocketController, cfg *config.Config) api.Route {
	return &WebSocketApi{
		Controller: controller,
		config:     cfg,
	}
}

func (h *WebSocketApi) Setup(app *fiber.App) {
	app.Get("/api/ws", middleware.AuthMiddleware(h.config.SkipAuth), upgradeOnly, websocket.New(h.Controller.HandleWebSocket))
}

func upgradeOnly(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	sub, _ := middleware.CurrentSubject(c)
	c.Locals(localOrgID, sub.OrgID)
	return c.Next()
}
