package entity

import "time"

// ActivityLog 业务操作日志
// 记录需求/报价/订单的状态流转与关键操作，供前端时间线展示
type ActivityLog struct {
	ID         string `json:"id" gorm:"primaryKey;size:32"`
	EntityType string `json:"entity_type" gorm:"size:50;not null;index:idx_mkt_activity_entity"` // request/quote/order
	EntityID   string `json:"entity_id" gorm:"size:32;not null;index:idx_mkt_activity_entity"`

	Action     string `json:"action" gorm:"size:50;not null"` // create/status_change/negotiate/accept等
	FromStatus string `json:"from_status" gorm:"size:20"`
	ToStatus   string `json:"to_status" gorm:"size:20"`

	Content  string `json:"content" gorm:"type:text"`
	Metadata JSONB  `json:"metadata" gorm:"type:jsonb"`

	OperatorID string    `json:"operator_id" gorm:"size:32"`
	CreatedAt  time.Time `json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "mkt_activity_logs"
}
