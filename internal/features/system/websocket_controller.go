package system

import (
	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

// localOrgID carries the caller's organization across the upgrade; websocket
// locals only accept string keys
const localOrgID = "ws_org_id"

type WebSocketController struct {
	Hub    *Hub
	Logger *zap.Logger
}

func NewWebSocketController(hub *Hub, logger *zap.Logger) *WebSocketController {
	return &WebSocketController{
		Hub:    hub,
		Logger: logger,
	}
}

// HandleWebSocket pushes change events of the caller's organization until
// the client goes away. Inbound frames are only read to notice the close.
func (h *WebSocketController) HandleWebSocket(c *websocket.Conn) {
	orgID, _ := c.Locals(localOrgID).(string)
	events, cancel := h.Hub.Subscribe(orgID)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case msg, ok := <-events:
			if !ok {
				return
			}
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.Logger.Debug("websocket write failed", zap.String("org_id", orgID), zap.Error(err))
				return
			}
		}
	}
}
