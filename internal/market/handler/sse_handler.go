package handler

import (
	"fmt"
	"time"

	"github.com/bitfantasy/autotrade/internal/market/sse"
	"github.com/gin-gonic/gin"
)

// SSEHandler 实时事件订阅处理器
type SSEHandler struct {
	hub *sse.Hub
}

func NewSSEHandler() *SSEHandler {
	return &SSEHandler{hub: sse.GlobalHub}
}

// Stream GET /api/sse/events?token=xxx&requestId=xxx
// requestId 非空时仅推送该采购需求的报价与谈判事件
func (h *SSEHandler) Stream(c *gin.Context) {
	userID := GetUserID(c)
	requestID := c.Query("requestId")
	clientID := fmt.Sprintf("%s_%d", userID, time.Now().UnixNano())

	client := &sse.Client{
		ID:        clientID,
		UserID:    userID,
		RequestID: requestID,
		Events:    make(chan sse.Event, 64),
	}
	h.hub.Register(client)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	c.Writer.WriteString(fmt.Sprintf("event: connected\ndata: {\"client_id\":%q,\"request_id\":%q}\n\n", clientID, requestID))
	c.Writer.Flush()

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	clientGone := c.Request.Context().Done()

	for {
		select {
		case <-clientGone:
			h.hub.Unregister(clientID)
			return
		case event, ok := <-client.Events:
			if !ok {
				return
			}
			c.Writer.WriteString(fmt.Sprintf("event: %s\ndata: %s\n\n", event.EventType, event.Data))
			c.Writer.Flush()
		case <-heartbeat.C:
			c.Writer.WriteString(": keepalive\n\n")
			c.Writer.Flush()
		}
	}
}
