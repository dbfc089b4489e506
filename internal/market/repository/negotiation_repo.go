package repository

import (
	"context"

	"github.com/bitfantasy/autotrade/internal/market/entity"
	"gorm.io/gorm"
)

// NegotiationRepository 谈判消息仓库（仅追加）
type NegotiationRepository struct {
	db *gorm.DB
}

func NewNegotiationRepository(db *gorm.DB) *NegotiationRepository {
	return &NegotiationRepository{db: db}
}

// FindByQuote 查询报价下的谈判消息，按时间升序
func (r *NegotiationRepository) FindByQuote(ctx context.Context, quoteID string) ([]entity.NegotiationMessage, error) {
	var items []entity.NegotiationMessage
	err := r.db.WithContext(ctx).
		Where("quote_id = ?", quoteID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

// Create 追加谈判消息
func (r *NegotiationRepository) Create(ctx context.Context, msg *entity.NegotiationMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// CountByQuote 统计报价下的谈判消息数量
func (r *NegotiationRepository) CountByQuote(ctx context.Context, quoteID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.NegotiationMessage{}).
		Where("quote_id = ?", quoteID).
		Count(&count).Error
	return count, err
}
