package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bitfantasy/autotrade/internal/market/entity"
	"github.com/bitfantasy/autotrade/internal/market/repository"
	"go.uber.org/zap"
)

// TextGenerator 文本生成接口，由LLM客户端实现
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// 单次LLM调用超时
const generateTimeout = 15 * time.Second

// MatchingService 供应商匹配服务
// 按品类筛选供应商，评估意向，自动生成初始报价与首条沟通消息
type MatchingService struct {
	requestRepo  *repository.RequestRepository
	vendorRepo   *repository.VendorRepository
	quoteService *QuoteService
	generator    TextGenerator
	logger       *zap.Logger
}

func NewMatchingService(
	requestRepo *repository.RequestRepository,
	vendorRepo *repository.VendorRepository,
	quoteService *QuoteService,
	generator TextGenerator,
	logger *zap.Logger,
) *MatchingService {
	return &MatchingService{
		requestRepo:  requestRepo,
		vendorRepo:   vendorRepo,
		quoteService: quoteService,
		generator:    generator,
		logger:       logger,
	}
}

// MatchedQuote 单个供应商的匹配结果
// Interested仅供参考，不影响报价生成
type MatchedQuote struct {
	Vendor     *entity.Vendor `json:"vendor"`
	Quote      *entity.Quote  `json:"quote,omitempty"`
	Interested bool           `json:"interested"`
	Error      string         `json:"error,omitempty"`
}

// MatchResult 匹配批次汇总
type MatchResult struct {
	RequestID     string         `json:"requestId"`
	VendorsFound  int            `json:"vendorsFound"`
	QuotesCreated int            `json:"quotesCreated"`
	Results       []MatchedQuote `json:"results"`
}

// MatchVendors 为采购需求匹配供应商并生成报价
// 单个供应商失败不中断批次，失败原因记入结果
func (s *MatchingService) MatchVendors(ctx context.Context, requestID string) (*MatchResult, error) {
	request, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != entity.RequestStatusOpen && request.Status != entity.RequestStatusNegotiating {
		return nil, fmt.Errorf("%w: 需求状态%s不允许匹配供应商", ErrConflict, request.Status)
	}

	vendors, err := s.vendorRepo.FindByCategory(ctx, request.Category)
	if err != nil {
		return nil, fmt.Errorf("查询供应商失败: %w", err)
	}

	result := &MatchResult{
		RequestID:    requestID,
		VendorsFound: len(vendors),
		Results:      make([]MatchedQuote, 0, len(vendors)),
	}

	for i := range vendors {
		vendor := &vendors[i]
		interested := VendorInterested(request.Quantity, vendor)

		quote, err := s.createVendorQuote(ctx, request, vendor)
		if err != nil {
			s.logger.Warn("create matched quote failed",
				zap.String("request_id", requestID),
				zap.String("vendor_id", vendor.ID),
				zap.Error(err))
			result.Results = append(result.Results, MatchedQuote{Vendor: vendor, Interested: interested, Error: err.Error()})
			continue
		}

		result.QuotesCreated++
		result.Results = append(result.Results, MatchedQuote{Vendor: vendor, Quote: quote, Interested: interested})
	}

	return result, nil
}

func (s *MatchingService) createVendorQuote(ctx context.Context, request *entity.ProcurementRequest, vendor *entity.Vendor) (*entity.Quote, error) {
	unitPrice, totalPrice := SimulateQuotePrice(request.ProductName, request.Quantity, vendor)
	validUntil := QuoteValidUntil(time.Now())

	quote, err := s.quoteService.Create(ctx, &CreateQuoteRequest{
		RequestID:    request.ID,
		VendorID:     vendor.ID,
		UnitPrice:    unitPrice,
		TotalPrice:   totalPrice,
		DeliveryDate: SimulateDeliveryDate(request.DeliveryDate, vendor),
		PaymentTerms: vendor.PaymentTerms,
		ValidUntil:   &validUntil,
		Notes:        VendorNotes(vendor),
	})
	if err != nil {
		return nil, err
	}

	outreach := s.vendorOutreach(ctx, request, vendor, quote)
	_, err = s.quoteService.RecordMessage(ctx, &RecordMessageRequest{
		QuoteID: quote.ID,
		Sender:  entity.SenderAIVendor,
		Message: outreach,
	}, "ai-agent")
	if err != nil {
		s.logger.Warn("record outreach message failed",
			zap.String("quote_id", quote.ID), zap.Error(err))
	}
	return quote, nil
}

// vendorOutreach 生成供应商首条沟通消息，LLM失败时使用兜底模板
func (s *MatchingService) vendorOutreach(ctx context.Context, request *entity.ProcurementRequest, vendor *entity.Vendor, quote *entity.Quote) string {
	fallback := fmt.Sprintf(
		"Dear buyer, thank you for your interest in %s. We can supply %.0f %s at $%.2f per unit ($%.2f total), delivered by %s. Payment terms: %s. We look forward to working with you.",
		request.ProductName, request.Quantity, request.Unit,
		quote.UnitPrice, quote.TotalPrice, quote.DeliveryDate, quote.PaymentTerms)

	if s.generator == nil {
		return fallback
	}

	prompt := fmt.Sprintf(`You are a sales representative for %s, a food ingredient supplier (rating %.1f/5).
A buyer requested %.0f %s of %s. You are quoting $%.2f per unit, $%.2f total, delivery by %s, payment terms %s.
Write a short professional outreach message (2-3 sentences) introducing your quote. Respond with the message text only.`,
		vendor.Name, vendor.Rating,
		request.Quantity, request.Unit, request.ProductName,
		quote.UnitPrice, quote.TotalPrice, quote.DeliveryDate, quote.PaymentTerms)

	genCtx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	text, err := s.generator.Generate(genCtx, prompt)
	if err != nil || text == "" {
		s.logger.Debug("outreach generation fell back to template",
			zap.String("vendor_id", vendor.ID), zap.Error(err))
		return fallback
	}
	return text
}
