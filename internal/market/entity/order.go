package entity

import "time"

// Order 订单（报价被接受后生成的最终协议）
// 每个被接受的报价至多生成一个订单
type Order struct {
	ID        string `json:"id" gorm:"primaryKey;size:32"`
	RequestID string `json:"requestId" gorm:"size:32;not null;index"`
	QuoteID   string `json:"quoteId" gorm:"size:32;not null;uniqueIndex"`
	BuyerID   string `json:"buyerId" gorm:"size:32;not null;index"`
	VendorID  string `json:"vendorId" gorm:"size:32;not null;index"`

	FinalPrice   float64 `json:"finalPrice" gorm:"type:decimal(15,2)"`
	DeliveryDate string  `json:"deliveryDate" gorm:"size:10"`
	PaymentTerms string  `json:"paymentTerms" gorm:"size:100"`

	Status       string    `json:"status" gorm:"size:20;default:confirmed"` // confirmed/shipped/delivered/paid/completed
	TrackingInfo JSONB     `json:"trackingInfo" gorm:"type:jsonb"`
	OrderDate    time.Time `json:"orderDate" gorm:"autoCreateTime"`
}

func (Order) TableName() string {
	return "mkt_orders"
}

// 订单状态
const (
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusPaid      = "paid"
	OrderStatusCompleted = "completed"
)

// ValidOrderTransitions 订单履约状态流转表
var ValidOrderTransitions = map[string][]string{
	OrderStatusConfirmed: {OrderStatusShipped},
	OrderStatusShipped:   {OrderStatusDelivered},
	OrderStatusDelivered: {OrderStatusPaid},
	OrderStatusPaid:      {OrderStatusCompleted},
}

// CanOrderTransition 判断订单状态是否允许流转
func CanOrderTransition(from, to string) bool {
	for _, s := range ValidOrderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
