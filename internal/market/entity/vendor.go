package entity

import "time"

// Vendor 供应商
type Vendor struct {
	ID         string      `json:"id" gorm:"primaryKey;size:32"`
	Name       string      `json:"name" gorm:"size:200;not null"`
	Email      string      `json:"email" gorm:"size:200"`
	Phone      string      `json:"phone" gorm:"size:50"`
	Address    string      `json:"address" gorm:"size:500"`
	Categories StringArray `json:"categories" gorm:"type:jsonb"` // 可供品类，匹配时精确比较

	Rating        float64 `json:"rating" gorm:"type:decimal(3,1);default:0"` // 0-5
	Verified      bool    `json:"verified" gorm:"default:false"`
	MinOrderValue float64 `json:"minOrderValue" gorm:"type:decimal(12,2);default:0"`
	PaymentTerms  string  `json:"paymentTerms" gorm:"size:100;default:30 days"` // NET 30/NET 15/COD等

	CreatedAt time.Time `json:"createdAt"`
}

func (Vendor) TableName() string {
	return "mkt_vendors"
}
