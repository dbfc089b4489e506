package entity

import "time"

// ProcurementRequest 采购需求
type ProcurementRequest struct {
	ID      string `json:"id" gorm:"primaryKey;size:32"`
	BuyerID string `json:"buyerId" gorm:"size:32;not null;index"`

	// 需求信息
	ProductName     string  `json:"productName" gorm:"size:200;not null"`
	Category        string  `json:"category" gorm:"size:100;not null;index"`
	Quantity        float64 `json:"quantity" gorm:"type:decimal(12,2);not null"`
	Unit            string  `json:"unit" gorm:"size:20;not null"` // kg/liters/pieces
	Specifications  JSONB   `json:"specifications" gorm:"type:jsonb"`
	DeliveryDate    string  `json:"deliveryDate" gorm:"size:10"` // YYYY-MM-DD
	DeliveryAddress string  `json:"deliveryAddress" gorm:"size:500"`
	MaxBudget       float64 `json:"maxBudget" gorm:"type:decimal(15,2)"`

	Status  string `json:"status" gorm:"size:20;default:open;index"` // open/negotiating/awarded/completed/cancelled
	Urgency string `json:"urgency" gorm:"size:10;default:medium"`    // low/medium/high

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// 关联
	Quotes []Quote `json:"quotes,omitempty" gorm:"foreignKey:RequestID"`
}

func (ProcurementRequest) TableName() string {
	return "mkt_procurement_requests"
}

// 采购需求状态
const (
	RequestStatusOpen        = "open"
	RequestStatusNegotiating = "negotiating"
	RequestStatusAwarded     = "awarded"
	RequestStatusCompleted   = "completed"
	RequestStatusCancelled   = "cancelled"
)

// 紧急程度
const (
	UrgencyLow    = "low"
	UrgencyMedium = "medium"
	UrgencyHigh   = "high"
)

// ValidRequestTransitions 采购需求状态流转表
// open→negotiating由首个报价入库时引擎写入，不依赖前端推断
var ValidRequestTransitions = map[string][]string{
	RequestStatusOpen:        {RequestStatusNegotiating, RequestStatusCancelled},
	RequestStatusNegotiating: {RequestStatusAwarded, RequestStatusCompleted, RequestStatusCancelled},
	RequestStatusAwarded:     {RequestStatusCompleted, RequestStatusCancelled},
}

// CanRequestTransition 判断采购需求状态是否允许流转
func CanRequestTransition(from, to string) bool {
	for _, s := range ValidRequestTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
