package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/agenthands/lineage/internal/core/model"
	"github.com/agenthands/lineage/internal/logger"
)

var upgrader = websocket.Upgrader{
	// Embedding pages live on other origins.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 64 * 1024,
}

// MessageSocket is the long-lived counterpart of POST /message: every
// configuration message read from the socket is applied and answered with
// the resulting settings and layout.
func (s *Server) MessageSocket(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("failed to upgrade the websocket", "error", err)
		return
	}
	defer ws.Close()
	ws.SetReadLimit(maxSnapshotBytes)

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				logger.Warn("websocket read failed", "error", err)
			}
			return
		}

		var resp MessageResponse
		var msg model.ConfigMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			resp = MessageResponse{Settings: s.Store.Settings(), Error: "Invalid message"}
		} else {
			resp, _ = s.applyMessage(msg)
		}
		if err := ws.WriteJSON(resp); err != nil {
			logger.Warn("failed to write WebSocket JSON", "error", err)
			return
		}
	}
}
