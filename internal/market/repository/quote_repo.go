package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/autotrade/internal/market/entity"
	"gorm.io/gorm"
)

// QuoteRepository 报价仓库
type QuoteRepository struct {
	db *gorm.DB
}

func NewQuoteRepository(db *gorm.DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

// FindAll 查询报价列表，支持需求/供应商过滤
func (r *QuoteRepository) FindAll(ctx context.Context, filters map[string]string) ([]entity.Quote, error) {
	var items []entity.Quote

	query := r.db.WithContext(ctx).Model(&entity.Quote{})

	if requestID := filters["requestId"]; requestID != "" {
		query = query.Where("request_id = ?", requestID)
	}
	if vendorID := filters["vendorId"]; vendorID != "" {
		query = query.Where("vendor_id = ?", vendorID)
	}
	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}

	err := query.Order("created_at DESC").Find(&items).Error
	return items, err
}

// FindByID 根据ID查找报价
func (r *QuoteRepository) FindByID(ctx context.Context, id string) (*entity.Quote, error) {
	var quote entity.Quote
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&quote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &quote, nil
}

// CountByRequest 统计需求下的报价数量
func (r *QuoteRepository) CountByRequest(ctx context.Context, requestID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Quote{}).
		Where("request_id = ?", requestID).
		Count(&count).Error
	return count, err
}

// Create 创建报价
func (r *QuoteRepository) Create(ctx context.Context, quote *entity.Quote) error {
	return r.db.WithContext(ctx).Create(quote).Error
}

// Update 更新报价
func (r *QuoteRepository) Update(ctx context.Context, quote *entity.Quote) error {
	return r.db.WithContext(ctx).Save(quote).Error
}

// Patch 部分更新报价字段
func (r *QuoteRepository) Patch(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&entity.Quote{}).
		Where("id = ?", id).
		Updates(fields).Error
}
