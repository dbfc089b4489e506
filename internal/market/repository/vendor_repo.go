package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/bitfantasy/autotrade/internal/market/entity"
	"gorm.io/gorm"
)

// VendorRepository 供应商仓库
type VendorRepository struct {
	db *gorm.DB
}

func NewVendorRepository(db *gorm.DB) *VendorRepository {
	return &VendorRepository{db: db}
}

// FindAll 查询供应商列表
func (r *VendorRepository) FindAll(ctx context.Context) ([]entity.Vendor, error) {
	var items []entity.Vendor
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&items).Error
	return items, err
}

// FindByCategory 查询可供指定品类的供应商（品类精确匹配）
// categories为JSONB数组，用containment查询避免全表解码
func (r *VendorRepository) FindByCategory(ctx context.Context, category string) ([]entity.Vendor, error) {
	needle, err := json.Marshal([]string{category})
	if err != nil {
		return nil, err
	}
	var items []entity.Vendor
	err = r.db.WithContext(ctx).
		Where("categories @> ?", string(needle)).
		Order("rating DESC").
		Find(&items).Error
	return items, err
}

// FindByID 根据ID查找供应商
func (r *VendorRepository) FindByID(ctx context.Context, id string) (*entity.Vendor, error) {
	var vendor entity.Vendor
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&vendor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &vendor, nil
}

// Create 创建供应商
func (r *VendorRepository) Create(ctx context.Context, vendor *entity.Vendor) error {
	return r.db.WithContext(ctx).Create(vendor).Error
}
