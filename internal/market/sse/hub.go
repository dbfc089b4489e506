package sse

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Event 推送给订阅端的事件
// RequestID 用于按采购需求路由，为空则广播给所有客户端
type Event struct {
	EventType string
	RequestID string
	Data      string
}

// Client 一个已连接的订阅端
// RequestID 非空时仅接收该需求相关的事件
type Client struct {
	ID        string
	UserID    string
	RequestID string
	Events    chan Event
}

// Hub 管理所有SSE订阅连接
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *zap.Logger
}

// GlobalHub 进程内单例
var GlobalHub = NewHub()

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		logger:  zap.NewNop(),
	}
}

// SetLogger 注入日志器，main在初始化后调用一次
func (h *Hub) SetLogger(logger *zap.Logger) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.logger = logger
}

// Register 注册订阅端
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	h.logger.Info("sse client registered",
		zap.String("client_id", client.ID),
		zap.String("user_id", client.UserID),
		zap.String("request_id", client.RequestID),
		zap.Int("total", len(h.clients)))
}

// Unregister 注销订阅端并关闭其事件通道
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		h.logger.Info("sse client unregistered",
			zap.String("client_id", clientID),
			zap.Int("total", len(h.clients)))
	}
}

// Publish 将事件投递给匹配的订阅端
// 客户端订阅了具体需求时只接收该需求的事件，未订阅则全量接收
func (h *Hub) Publish(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.RequestID != "" && event.RequestID != "" && client.RequestID != event.RequestID {
			continue
		}
		select {
		case client.Events <- event:
		default:
			h.logger.Warn("sse client buffer full, dropping event",
				zap.String("client_id", client.ID),
				zap.String("event", event.EventType))
		}
	}
}

// PublishQuoteUpdate 报价级别更新（创建、接受、拒绝）
func PublishQuoteUpdate(requestID, quoteID, action string) {
	GlobalHub.Publish(Event{
		EventType: "quote_update",
		RequestID: requestID,
		Data:      fmt.Sprintf(`{"request_id":"%s","quote_id":"%s","action":"%s"}`, requestID, quoteID, action),
	})
}

// PublishNegotiationUpdate 谈判消息更新
func PublishNegotiationUpdate(requestID, quoteID, sender, action string) {
	GlobalHub.Publish(Event{
		EventType: "negotiation_update",
		RequestID: requestID,
		Data:      fmt.Sprintf(`{"request_id":"%s","quote_id":"%s","sender":"%s","action":"%s"}`, requestID, quoteID, sender, action),
	})
}
