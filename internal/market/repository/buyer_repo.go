package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/autotrade/internal/market/entity"
	"gorm.io/gorm"
)

// BuyerRepository 买家仓库
type BuyerRepository struct {
	db *gorm.DB
}

func NewBuyerRepository(db *gorm.DB) *BuyerRepository {
	return &BuyerRepository{db: db}
}

// FindAll 查询买家列表
func (r *BuyerRepository) FindAll(ctx context.Context) ([]entity.Buyer, error) {
	var items []entity.Buyer
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&items).Error
	return items, err
}

// FindByID 根据ID查找买家
func (r *BuyerRepository) FindByID(ctx context.Context, id string) (*entity.Buyer, error) {
	var buyer entity.Buyer
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&buyer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &buyer, nil
}

// FindByEmail 根据邮箱查找买家（演示登录用）
func (r *BuyerRepository) FindByEmail(ctx context.Context, email string) (*entity.Buyer, error) {
	var buyer entity.Buyer
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&buyer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &buyer, nil
}

// Create 创建买家
func (r *BuyerRepository) Create(ctx context.Context, buyer *entity.Buyer) error {
	return r.db.WithContext(ctx).Create(buyer).Error
}
