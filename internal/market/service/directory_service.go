package service

import (
	"context"
	"fmt"

	"github.com/bitfantasy/autotrade/internal/market/entity"
	"github.com/bitfantasy/autotrade/internal/market/repository"
	"github.com/google/uuid"
)

// DirectoryService 买方与供应商档案服务
type DirectoryService struct {
	buyerRepo  *repository.BuyerRepository
	vendorRepo *repository.VendorRepository
}

func NewDirectoryService(buyerRepo *repository.BuyerRepository, vendorRepo *repository.VendorRepository) *DirectoryService {
	return &DirectoryService{buyerRepo: buyerRepo, vendorRepo: vendorRepo}
}

// CreateBuyerRequest 创建买方请求
type CreateBuyerRequest struct {
	CompanyName  string `json:"companyName" binding:"required"`
	Email        string `json:"email" binding:"required"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	Industry     string `json:"industry"`
	CreditRating string `json:"creditRating"`
}

func (s *DirectoryService) CreateBuyer(ctx context.Context, req *CreateBuyerRequest) (*entity.Buyer, error) {
	if req.CompanyName == "" || req.Email == "" {
		return nil, fmt.Errorf("%w: companyName和email不能为空", ErrValidation)
	}

	creditRating := req.CreditRating
	if creditRating == "" {
		creditRating = "B"
	}

	buyer := &entity.Buyer{
		ID:           uuid.New().String()[:32],
		CompanyName:  req.CompanyName,
		Email:        req.Email,
		Phone:        req.Phone,
		Address:      req.Address,
		Industry:     req.Industry,
		CreditRating: creditRating,
	}
	if err := s.buyerRepo.Create(ctx, buyer); err != nil {
		return nil, fmt.Errorf("创建买方失败: %w", err)
	}
	return buyer, nil
}

func (s *DirectoryService) ListBuyers(ctx context.Context) ([]entity.Buyer, error) {
	return s.buyerRepo.FindAll(ctx)
}

func (s *DirectoryService) GetBuyer(ctx context.Context, id string) (*entity.Buyer, error) {
	return s.buyerRepo.FindByID(ctx, id)
}

// CreateVendorRequest 创建供应商请求
type CreateVendorRequest struct {
	Name          string   `json:"name" binding:"required"`
	Email         string   `json:"email"`
	Phone         string   `json:"phone"`
	Address       string   `json:"address"`
	Categories    []string `json:"categories" binding:"required"`
	Rating        float64  `json:"rating"`
	Verified      bool     `json:"verified"`
	MinOrderValue float64  `json:"minOrderValue"`
	PaymentTerms  string   `json:"paymentTerms"`
}

func (s *DirectoryService) CreateVendor(ctx context.Context, req *CreateVendorRequest) (*entity.Vendor, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name不能为空", ErrValidation)
	}
	if len(req.Categories) == 0 {
		return nil, fmt.Errorf("%w: categories不能为空", ErrValidation)
	}
	if req.Rating < 0 || req.Rating > 5 {
		return nil, fmt.Errorf("%w: rating必须在0到5之间", ErrValidation)
	}

	paymentTerms := req.PaymentTerms
	if paymentTerms == "" {
		paymentTerms = "30 days"
	}

	vendor := &entity.Vendor{
		ID:            uuid.New().String()[:32],
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		Categories:    entity.StringArray(req.Categories),
		Rating:        req.Rating,
		Verified:      req.Verified,
		MinOrderValue: req.MinOrderValue,
		PaymentTerms:  paymentTerms,
	}
	if err := s.vendorRepo.Create(ctx, vendor); err != nil {
		return nil, fmt.Errorf("创建供应商失败: %w", err)
	}
	return vendor, nil
}

// ListVendors 查询供应商，category非空时按品类精确匹配
func (s *DirectoryService) ListVendors(ctx context.Context, category string) ([]entity.Vendor, error) {
	if category != "" {
		return s.vendorRepo.FindByCategory(ctx, category)
	}
	return s.vendorRepo.FindAll(ctx)
}

func (s *DirectoryService) GetVendor(ctx context.Context, id string) (*entity.Vendor, error) {
	return s.vendorRepo.FindByID(ctx, id)
}
