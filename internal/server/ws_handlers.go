package server

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// EventStreamHandler handles GET /api/ws/events: a read-only WebSocket
// stream of committed ledger events. Each frame is one event as JSON, in
// commit order as observed by this instance.
func (s *Server) EventStreamHandler() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		principal, _ := conn.Locals("principal").(string)
		if principal == "" {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}

		if s.hub == nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"event stream unavailable"}`))
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(principal, conn)
		if err != nil {
			log.Printf("event stream: failed to register %s: %v", principal, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		// Rollout can be partial; the flag is evaluated per principal.
		principal, _ := c.Locals("principal").(string)
		if !s.featureFlags.Enabled("event_stream", principal) {
			return fiber.ErrNotFound
		}
		return upgrade(c)
	}
}
