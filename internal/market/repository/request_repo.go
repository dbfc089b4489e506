package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/autotrade/internal/market/entity"
	"gorm.io/gorm"
)

// RequestRepository 采购需求仓库
type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// FindAll 查询采购需求列表，支持状态/买家过滤
func (r *RequestRepository) FindAll(ctx context.Context, filters map[string]string) ([]entity.ProcurementRequest, error) {
	var items []entity.ProcurementRequest

	query := r.db.WithContext(ctx).Model(&entity.ProcurementRequest{})

	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if buyerID := filters["buyerId"]; buyerID != "" {
		query = query.Where("buyer_id = ?", buyerID)
	}
	if category := filters["category"]; category != "" {
		query = query.Where("category = ?", category)
	}

	err := query.Order("created_at DESC").Find(&items).Error
	return items, err
}

// FindByID 根据ID查找采购需求
func (r *RequestRepository) FindByID(ctx context.Context, id string) (*entity.ProcurementRequest, error) {
	var request entity.ProcurementRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &request, nil
}

// Create 创建采购需求
func (r *RequestRepository) Create(ctx context.Context, request *entity.ProcurementRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

// Update 更新采购需求
func (r *RequestRepository) Update(ctx context.Context, request *entity.ProcurementRequest) error {
	return r.db.WithContext(ctx).Save(request).Error
}

// UpdateStatus 更新采购需求状态
func (r *RequestRepository) UpdateStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).
		Model(&entity.ProcurementRequest{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// Delete 删除采购需求
func (r *RequestRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.ProcurementRequest{}).Error
}

// CountByStatus 按状态统计采购需求数量
func (r *RequestRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&entity.ProcurementRequest{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, v := range rows {
		counts[v.Status] = v.Count
	}
	return counts, nil
}
