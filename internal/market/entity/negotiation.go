package entity

import "time"

// Sender 谈判消息发送方（封闭枚举，不做自由字符串比较）
type Sender string

const (
	SenderBuyer    Sender = "buyer"
	SenderVendor   Sender = "vendor"
	SenderAIAgent  Sender = "ai-agent"
	SenderAIBuyer  Sender = "ai-buyer"
	SenderAIVendor Sender = "ai-vendor"
)

// senderNames 发送方展示名
var senderNames = map[Sender]string{
	SenderBuyer:    "Buyer",
	SenderVendor:   "Vendor",
	SenderAIAgent:  "AI Agent",
	SenderAIBuyer:  "AI Buyer Agent",
	SenderAIVendor: "AI Vendor Agent",
}

// Valid 判断是否为合法发送方
func (s Sender) Valid() bool {
	_, ok := senderNames[s]
	return ok
}

// DisplayName 发送方展示名，未知值原样返回
func (s Sender) DisplayName() string {
	if name, ok := senderNames[s]; ok {
		return name
	}
	return string(s)
}

// NegotiationMessage 谈判消息
// 仅追加，按创建时间排序；proposedChanges非空时会回写到所属报价
type NegotiationMessage struct {
	ID      string `json:"id" gorm:"primaryKey;size:32"`
	QuoteID string `json:"quoteId" gorm:"size:32;not null;index"`
	Sender  Sender `json:"sender" gorm:"size:20;not null"`
	Message string `json:"message" gorm:"type:text;not null"`

	// 提议变更 {totalPrice: 950.00, deliveryDate: "2026-01-20"}
	ProposedChanges JSONB `json:"proposedChanges" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"timestamp"`
}

func (NegotiationMessage) TableName() string {
	return "mkt_negotiation_messages"
}
