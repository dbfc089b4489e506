package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bitfantasy/autotrade/internal/market/entity"
	"github.com/bitfantasy/autotrade/internal/market/repository"
	"github.com/bitfantasy/autotrade/internal/market/sse"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// priceClampFraction 谈判改价相对当前报价的最大偏移比例
// AI提议的价格不做无界信任，超出±30%按边界截断
const priceClampFraction = 0.30

// QuoteService 报价与谈判消息服务
type QuoteService struct {
	quoteRepo       *repository.QuoteRepository
	requestRepo     *repository.RequestRepository
	negotiationRepo *repository.NegotiationRepository
	activityLogRepo *repository.ActivityLogRepository
	db              *gorm.DB
}

func NewQuoteService(
	quoteRepo *repository.QuoteRepository,
	requestRepo *repository.RequestRepository,
	negotiationRepo *repository.NegotiationRepository,
	activityLogRepo *repository.ActivityLogRepository,
	db *gorm.DB,
) *QuoteService {
	return &QuoteService{
		quoteRepo:       quoteRepo,
		requestRepo:     requestRepo,
		negotiationRepo: negotiationRepo,
		activityLogRepo: activityLogRepo,
		db:              db,
	}
}

// CreateQuoteRequest 创建报价请求
type CreateQuoteRequest struct {
	RequestID    string     `json:"requestId" binding:"required"`
	VendorID     string     `json:"vendorId" binding:"required"`
	UnitPrice    float64    `json:"unitPrice"`
	TotalPrice   float64    `json:"totalPrice"`
	DeliveryDate string     `json:"deliveryDate"`
	PaymentTerms string     `json:"paymentTerms"`
	Notes        string     `json:"notes"`
	ValidUntil   *time.Time `json:"validUntil"`
}

// Create 创建报价，默认pending
// 首个报价入库时将open状态的需求流转为negotiating（引擎写入，不靠前端推断）
func (s *QuoteService) Create(ctx context.Context, req *CreateQuoteRequest) (*entity.Quote, error) {
	if req.RequestID == "" || req.VendorID == "" {
		return nil, fmt.Errorf("%w: requestId和vendorId不能为空", ErrValidation)
	}

	quote := &entity.Quote{
		ID:           uuid.New().String()[:32],
		RequestID:    req.RequestID,
		VendorID:     req.VendorID,
		UnitPrice:    req.UnitPrice,
		TotalPrice:   req.TotalPrice,
		DeliveryDate: req.DeliveryDate,
		PaymentTerms: req.PaymentTerms,
		Notes:        req.Notes,
		Status:       entity.QuoteStatusPending,
		ValidUntil:   req.ValidUntil,
	}
	if quote.ValidUntil == nil {
		until := QuoteValidUntil(time.Now())
		quote.ValidUntil = &until
	}

	if err := s.quoteRepo.Create(ctx, quote); err != nil {
		return nil, fmt.Errorf("创建报价失败: %w", err)
	}

	s.markNegotiating(ctx, req.RequestID)

	sse.PublishQuoteUpdate(quote.RequestID, quote.ID, "created")
	return quote, nil
}

// markNegotiating 需求收到报价后流转为negotiating
// 需求不存在时跳过（引用完整性由存储层约束）
func (s *QuoteService) markNegotiating(ctx context.Context, requestID string) {
	request, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil || request.Status != entity.RequestStatusOpen {
		return
	}
	if err := s.requestRepo.UpdateStatus(ctx, requestID, entity.RequestStatusNegotiating); err != nil {
		return
	}
	s.activityLogRepo.LogActivity(ctx, "request", requestID, "status_change",
		entity.RequestStatusOpen, entity.RequestStatusNegotiating, "收到首个报价，进入谈判", "")
}

// List 查询报价列表
func (s *QuoteService) List(ctx context.Context, filters map[string]string) ([]entity.Quote, error) {
	return s.quoteRepo.FindAll(ctx, filters)
}

// Get 查询报价详情
func (s *QuoteService) Get(ctx context.Context, id string) (*entity.Quote, error) {
	return s.quoteRepo.FindByID(ctx, id)
}

// RecordMessageRequest 追加谈判消息请求
type RecordMessageRequest struct {
	QuoteID         string        `json:"quoteId" binding:"required"`
	Sender          entity.Sender `json:"sender" binding:"required"`
	Message         string        `json:"message" binding:"required"`
	ProposedChanges entity.JSONB  `json:"proposedChanges"`
}

// RecordMessage 追加谈判消息（服务端时间戳）
// proposedChanges非空时回写报价字段并流转为countered，
// 每条消息至多产生一次报价patch
func (s *QuoteService) RecordMessage(ctx context.Context, req *RecordMessageRequest, operatorID string) (*entity.NegotiationMessage, error) {
	if !req.Sender.Valid() {
		return nil, fmt.Errorf("%w: 非法的sender %q", ErrValidation, req.Sender)
	}
	if req.Message == "" {
		return nil, fmt.Errorf("%w: message不能为空", ErrValidation)
	}

	quote, err := s.quoteRepo.FindByID(ctx, req.QuoteID)
	if err != nil {
		return nil, err
	}

	if len(req.ProposedChanges) > 0 && quote.IsTerminal() {
		return nil, fmt.Errorf("%w: 报价已%s，不能再变更", ErrConflict, quote.Status)
	}

	msg := &entity.NegotiationMessage{
		ID:              uuid.New().String()[:32],
		QuoteID:         req.QuoteID,
		Sender:          req.Sender,
		Message:         req.Message,
		ProposedChanges: req.ProposedChanges,
	}
	if err := s.negotiationRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("追加谈判消息失败: %w", err)
	}

	if len(req.ProposedChanges) > 0 {
		if err := s.applyProposedChanges(ctx, quote, req.ProposedChanges); err != nil {
			return nil, err
		}
		s.activityLogRepo.LogActivity(ctx, "quote", quote.ID, "negotiate",
			quote.Status, entity.QuoteStatusCountered,
			fmt.Sprintf("%s 提议变更 %d 项", req.Sender.DisplayName(), len(req.ProposedChanges)), operatorID)
	}

	sse.PublishNegotiationUpdate(quote.RequestID, quote.ID, string(req.Sender), "message")
	return msg, nil
}

// applyProposedChanges 将提议变更回写到报价
// 价格字段相对当前值截断到±30%，其余字段按提议覆盖
func (s *QuoteService) applyProposedChanges(ctx context.Context, quote *entity.Quote, changes entity.JSONB) error {
	fields := make(map[string]interface{})

	for key, value := range changes {
		switch key {
		case "totalPrice", "price":
			if v, ok := toFloat(value); ok {
				fields["total_price"] = clampPrice(v, quote.TotalPrice)
			}
		case "unitPrice":
			if v, ok := toFloat(value); ok {
				fields["unit_price"] = clampPrice(v, quote.UnitPrice)
			}
		case "deliveryDate":
			if v, ok := value.(string); ok {
				fields["delivery_date"] = v
			}
		case "paymentTerms":
			if v, ok := value.(string); ok {
				fields["payment_terms"] = v
			}
		case "notes":
			if v, ok := value.(string); ok {
				fields["notes"] = v
			}
		}
	}

	if len(fields) == 0 {
		return nil
	}

	fields["status"] = entity.QuoteStatusCountered
	if err := s.quoteRepo.Patch(ctx, quote.ID, fields); err != nil {
		return fmt.Errorf("回写报价变更失败: %w", err)
	}
	return nil
}

// clampPrice 相对当前价截断提议价
// 当前价为0时无基准，提议价原样生效
func clampPrice(proposed, current float64) float64 {
	if current <= 0 {
		return Round2(proposed)
	}
	low := current * (1 - priceClampFraction)
	high := current * (1 + priceClampFraction)
	if proposed < low {
		return Round2(low)
	}
	if proposed > high {
		return Round2(high)
	}
	return Round2(proposed)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// ListNegotiations 查询报价下的谈判消息，按时间升序
func (s *QuoteService) ListNegotiations(ctx context.Context, quoteID string) ([]entity.NegotiationMessage, error) {
	return s.negotiationRepo.FindByQuote(ctx, quoteID)
}

// Reject 拒绝报价（终态）
func (s *QuoteService) Reject(ctx context.Context, quoteID, operatorID string) (*entity.Quote, error) {
	quote, err := s.quoteRepo.FindByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if !entity.CanQuoteTransition(quote.Status, entity.QuoteStatusRejected) {
		return nil, fmt.Errorf("%w: 报价状态%s不允许拒绝", ErrConflict, quote.Status)
	}

	fromStatus := quote.Status
	quote.Status = entity.QuoteStatusRejected
	if err := s.quoteRepo.Update(ctx, quote); err != nil {
		return nil, fmt.Errorf("更新报价状态失败: %w", err)
	}

	s.activityLogRepo.LogActivity(ctx, "quote", quote.ID, "reject",
		fromStatus, entity.QuoteStatusRejected, "报价被拒绝", operatorID)
	sse.PublishQuoteUpdate(quote.RequestID, quote.ID, "rejected")
	return quote, nil
}
