package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bitfantasy/autotrade/internal/market/entity"
	"github.com/bitfantasy/autotrade/internal/market/repository"
	"github.com/bitfantasy/autotrade/internal/market/sse"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProcurementService 采购需求与订单生命周期服务
type ProcurementService struct {
	requestRepo     *repository.RequestRepository
	quoteRepo       *repository.QuoteRepository
	orderRepo       *repository.OrderRepository
	activityLogRepo *repository.ActivityLogRepository
	db              *gorm.DB
}

func NewProcurementService(
	requestRepo *repository.RequestRepository,
	quoteRepo *repository.QuoteRepository,
	orderRepo *repository.OrderRepository,
	activityLogRepo *repository.ActivityLogRepository,
	db *gorm.DB,
) *ProcurementService {
	return &ProcurementService{
		requestRepo:     requestRepo,
		quoteRepo:       quoteRepo,
		orderRepo:       orderRepo,
		activityLogRepo: activityLogRepo,
		db:              db,
	}
}

// CreateRequestRequest 创建采购需求请求
type CreateRequestRequest struct {
	BuyerID         string       `json:"buyerId"`
	ProductName     string       `json:"productName"`
	Category        string       `json:"category"`
	Quantity        float64      `json:"quantity"`
	Unit            string       `json:"unit"`
	Specifications  entity.JSONB `json:"specifications"`
	DeliveryDate    string       `json:"deliveryDate"`
	DeliveryAddress string       `json:"deliveryAddress"`
	MaxBudget       float64      `json:"maxBudget"`
	Urgency         string       `json:"urgency"`
}

// CreateRequest 创建采购需求
// 默认status=open、urgency=medium，必填字段缺失返回ErrValidation
func (s *ProcurementService) CreateRequest(ctx context.Context, req *CreateRequestRequest) (*entity.ProcurementRequest, error) {
	switch {
	case req.BuyerID == "":
		return nil, fmt.Errorf("%w: buyerId不能为空", ErrValidation)
	case req.ProductName == "":
		return nil, fmt.Errorf("%w: productName不能为空", ErrValidation)
	case req.Quantity <= 0:
		return nil, fmt.Errorf("%w: quantity必须大于0", ErrValidation)
	case req.Unit == "":
		return nil, fmt.Errorf("%w: unit不能为空", ErrValidation)
	}

	urgency := req.Urgency
	if urgency == "" {
		urgency = entity.UrgencyMedium
	}
	switch urgency {
	case entity.UrgencyLow, entity.UrgencyMedium, entity.UrgencyHigh:
	default:
		return nil, fmt.Errorf("%w: 非法的urgency %q", ErrValidation, req.Urgency)
	}

	request := &entity.ProcurementRequest{
		ID:              uuid.New().String()[:32],
		BuyerID:         req.BuyerID,
		ProductName:     req.ProductName,
		Category:        req.Category,
		Quantity:        req.Quantity,
		Unit:            req.Unit,
		Specifications:  req.Specifications,
		DeliveryDate:    req.DeliveryDate,
		DeliveryAddress: req.DeliveryAddress,
		MaxBudget:       req.MaxBudget,
		Status:          entity.RequestStatusOpen,
		Urgency:         urgency,
	}

	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("创建采购需求失败: %w", err)
	}

	s.activityLogRepo.LogActivity(ctx, "request", request.ID, "create",
		"", entity.RequestStatusOpen,
		fmt.Sprintf("创建采购需求: %s ×%.0f %s", request.ProductName, request.Quantity, request.Unit),
		request.BuyerID)

	return request, nil
}

// ListRequests 查询采购需求列表
func (s *ProcurementService) ListRequests(ctx context.Context, filters map[string]string) ([]entity.ProcurementRequest, error) {
	return s.requestRepo.FindAll(ctx, filters)
}

// GetRequest 查询采购需求详情
func (s *ProcurementService) GetRequest(ctx context.Context, id string) (*entity.ProcurementRequest, error) {
	return s.requestRepo.FindByID(ctx, id)
}

// CancelRequest 取消采购需求
// 仅open/negotiating/awarded可取消，终态拒绝
func (s *ProcurementService) CancelRequest(ctx context.Context, id, operatorID string) (*entity.ProcurementRequest, error) {
	request, err := s.requestRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !entity.CanRequestTransition(request.Status, entity.RequestStatusCancelled) {
		return nil, fmt.Errorf("%w: 需求状态%s不允许取消", ErrConflict, request.Status)
	}

	fromStatus := request.Status
	request.Status = entity.RequestStatusCancelled
	if err := s.requestRepo.Update(ctx, request); err != nil {
		return nil, fmt.Errorf("取消采购需求失败: %w", err)
	}

	s.activityLogRepo.LogActivity(ctx, "request", id, "cancel",
		fromStatus, entity.RequestStatusCancelled, "采购需求已取消", operatorID)
	return request, nil
}

// AcceptQuote 接受报价并生成订单
// 报价、兄弟报价、订单、需求状态在同一事务内落库：
// 需求已completed/cancelled时拒绝，保证一个需求至多一个订单
func (s *ProcurementService) AcceptQuote(ctx context.Context, quoteID, operatorID string) (*entity.Order, error) {
	quote, err := s.quoteRepo.FindByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if !entity.CanQuoteTransition(quote.Status, entity.QuoteStatusAccepted) {
		return nil, fmt.Errorf("%w: 报价状态%s不允许接受", ErrConflict, quote.Status)
	}

	request, err := s.requestRepo.FindByID(ctx, quote.RequestID)
	if err != nil {
		return nil, err
	}

	order := &entity.Order{
		ID:           uuid.New().String()[:32],
		RequestID:    quote.RequestID,
		QuoteID:      quote.ID,
		BuyerID:      request.BuyerID,
		VendorID:     quote.VendorID,
		FinalPrice:   quote.TotalPrice,
		DeliveryDate: quote.DeliveryDate,
		PaymentTerms: quote.PaymentTerms,
		Status:       entity.OrderStatusConfirmed,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 事务内重读需求状态，拒绝重复接受
		var current entity.ProcurementRequest
		if err := tx.Where("id = ?", request.ID).First(&current).Error; err != nil {
			return err
		}
		if current.Status == entity.RequestStatusCompleted || current.Status == entity.RequestStatusCancelled {
			return fmt.Errorf("%w: 需求已%s，不能再接受报价", ErrConflict, current.Status)
		}

		if err := tx.Model(&entity.Quote{}).Where("id = ?", quote.ID).
			Update("status", entity.QuoteStatusAccepted).Error; err != nil {
			return fmt.Errorf("更新报价状态失败: %w", err)
		}

		// 兄弟报价全部拒绝
		if err := tx.Model(&entity.Quote{}).
			Where("request_id = ? AND id <> ? AND status IN ?", quote.RequestID, quote.ID,
				[]string{entity.QuoteStatusPending, entity.QuoteStatusCountered}).
			Update("status", entity.QuoteStatusRejected).Error; err != nil {
			return fmt.Errorf("拒绝兄弟报价失败: %w", err)
		}

		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("创建订单失败: %w", err)
		}

		if err := tx.Model(&entity.ProcurementRequest{}).Where("id = ?", request.ID).
			Update("status", entity.RequestStatusCompleted).Error; err != nil {
			return fmt.Errorf("更新需求状态失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.activityLogRepo.LogActivity(ctx, "request", request.ID, "accept_quote",
		request.Status, entity.RequestStatusCompleted,
		fmt.Sprintf("接受报价 %s，生成订单 %s，金额 $%.2f", quote.ID, order.ID, order.FinalPrice),
		operatorID)
	sse.PublishQuoteUpdate(quote.RequestID, quote.ID, "accepted")

	return order, nil
}

// CreateOrderRequest 直接下单请求（引用已接受或待接受的报价）
type CreateOrderRequest struct {
	QuoteID string `json:"quoteId" binding:"required"`
}

// CreateOrder 从报价创建订单，与AcceptQuote走同一引擎路径
func (s *ProcurementService) CreateOrder(ctx context.Context, req *CreateOrderRequest, operatorID string) (*entity.Order, error) {
	if req.QuoteID == "" {
		return nil, fmt.Errorf("%w: quoteId不能为空", ErrValidation)
	}
	return s.AcceptQuote(ctx, req.QuoteID, operatorID)
}

// ListOrders 查询订单列表
func (s *ProcurementService) ListOrders(ctx context.Context, filters map[string]string) ([]entity.Order, error) {
	return s.orderRepo.FindAll(ctx, filters)
}

// GetOrder 查询订单详情
func (s *ProcurementService) GetOrder(ctx context.Context, id string) (*entity.Order, error) {
	return s.orderRepo.FindByID(ctx, id)
}

// UpdateOrderStatus 更新订单履约状态
func (s *ProcurementService) UpdateOrderStatus(ctx context.Context, id, status, operatorID string) (*entity.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !entity.CanOrderTransition(order.Status, status) {
		return nil, fmt.Errorf("%w: 订单状态不允许从%s流转到%s", ErrConflict, order.Status, status)
	}

	fromStatus := order.Status
	if err := s.orderRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("更新订单状态失败: %w", err)
	}
	order.Status = status

	s.activityLogRepo.LogActivity(ctx, "order", id, "status_change",
		fromStatus, status, fmt.Sprintf("订单状态变更: %s → %s", fromStatus, status), operatorID)
	return order, nil
}

// DeleteRequest 删除采购需求（演示接口，同时保留取消语义）
func (s *ProcurementService) DeleteRequest(ctx context.Context, id string) error {
	if _, err := s.requestRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return fmt.Errorf("查询采购需求失败: %w", err)
	}
	return s.requestRepo.Delete(ctx, id)
}
