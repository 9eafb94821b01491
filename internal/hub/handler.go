package hub

import (
	"log"

	"github.com/gin-gonic/gin"
	"nhooyr.io/websocket"
)

// ServeWS upgrades GET /ws to a websocket session. Auth middleware already
// validated the token (passed as a query parameter on upgrade requests).
func (h *Hub) ServeWS(c *gin.Context) {
	userID, _ := c.Get("user_id")
	userName, _ := c.Get("user_name")

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Printf("Websocket accept failed: %v", err)
		return
	}

	s := newSession(userID.(uint64), userName.(string), conn, h)
	h.Register <- s

	go s.writePump(c.Request.Context())
	s.readPump(c.Request.Context())
}
