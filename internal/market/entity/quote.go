package entity

import "time"

// Quote 供应商报价
type Quote struct {
	ID        string `json:"id" gorm:"primaryKey;size:32"`
	RequestID string `json:"requestId" gorm:"size:32;not null;index"`
	VendorID  string `json:"vendorId" gorm:"size:32;not null;index"`

	// 报价内容，totalPrice由供应商给出，不强制等于unitPrice×quantity
	UnitPrice    float64 `json:"unitPrice" gorm:"type:decimal(12,4)"`
	TotalPrice   float64 `json:"totalPrice" gorm:"type:decimal(15,2)"`
	DeliveryDate string  `json:"deliveryDate" gorm:"size:10"`
	PaymentTerms string  `json:"paymentTerms" gorm:"size:100"`
	Notes        string  `json:"notes" gorm:"type:text"`

	Status     string     `json:"status" gorm:"size:20;default:pending;index"` // pending/accepted/rejected/countered
	ValidUntil *time.Time `json:"validUntil"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// 关联
	Negotiations []NegotiationMessage `json:"negotiations,omitempty" gorm:"foreignKey:QuoteID"`
}

func (Quote) TableName() string {
	return "mkt_quotes"
}

// 报价状态
const (
	QuoteStatusPending   = "pending"
	QuoteStatusAccepted  = "accepted"
	QuoteStatusRejected  = "rejected"
	QuoteStatusCountered = "countered"
)

// ValidQuoteTransitions 报价状态流转表
// countered可多轮循环，accepted/rejected为终态
var ValidQuoteTransitions = map[string][]string{
	QuoteStatusPending:   {QuoteStatusAccepted, QuoteStatusRejected, QuoteStatusCountered},
	QuoteStatusCountered: {QuoteStatusPending, QuoteStatusCountered, QuoteStatusAccepted, QuoteStatusRejected},
}

// CanQuoteTransition 判断报价状态是否允许流转
func CanQuoteTransition(from, to string) bool {
	for _, s := range ValidQuoteTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal 报价是否处于终态
func (q *Quote) IsTerminal() bool {
	return q.Status == QuoteStatusAccepted || q.Status == QuoteStatusRejected
}
