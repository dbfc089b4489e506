package entity

import "time"

// Buyer 采购方（买家企业）
// 创建后不可变更，仅支持创建和查询
type Buyer struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	CompanyName string    `json:"companyName" gorm:"size:200;not null"`
	Email       string    `json:"email" gorm:"size:200"`
	Phone       string    `json:"phone" gorm:"size:50"`
	Address     string    `json:"address" gorm:"size:500"`
	Industry    string    `json:"industry" gorm:"size:50"` // restaurant/retail/manufacturing
	CreditRating string   `json:"creditRating" gorm:"size:10;default:B"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (Buyer) TableName() string {
	return "mkt_buyers"
}
