package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/autotrade/internal/market/entity"
	"gorm.io/gorm"
)

// OrderRepository 订单仓库
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// FindAll 查询订单列表，支持买家/供应商过滤
func (r *OrderRepository) FindAll(ctx context.Context, filters map[string]string) ([]entity.Order, error) {
	var items []entity.Order

	query := r.db.WithContext(ctx).Model(&entity.Order{})

	if buyerID := filters["buyerId"]; buyerID != "" {
		query = query.Where("buyer_id = ?", buyerID)
	}
	if vendorID := filters["vendorId"]; vendorID != "" {
		query = query.Where("vendor_id = ?", vendorID)
	}

	err := query.Order("order_date DESC").Find(&items).Error
	return items, err
}

// FindByID 根据ID查找订单
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*entity.Order, error) {
	var order entity.Order
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByQuote 根据报价ID查找订单
func (r *OrderRepository) FindByQuote(ctx context.Context, quoteID string) (*entity.Order, error) {
	var order entity.Order
	err := r.db.WithContext(ctx).Where("quote_id = ?", quoteID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// Create 创建订单
func (r *OrderRepository) Create(ctx context.Context, order *entity.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// UpdateStatus 更新订单履约状态
func (r *OrderRepository) UpdateStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).
		Model(&entity.Order{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// Stats 订单数量与总金额
func (r *OrderRepository) Stats(ctx context.Context) (count int64, totalValue float64, err error) {
	type row struct {
		Count int64
		Total float64
	}
	var v row
	err = r.db.WithContext(ctx).
		Model(&entity.Order{}).
		Select("count(*) as count, COALESCE(sum(final_price), 0) as total").
		Scan(&v).Error
	return v.Count, v.Total, err
}
