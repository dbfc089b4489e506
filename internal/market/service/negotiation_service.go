package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bitfantasy/autotrade/internal/market/entity"
	"github.com/bitfantasy/autotrade/internal/market/repository"
	"go.uber.org/zap"
)

// LLM失败或输出不可解析时的兜底回复
const (
	fallbackVendorReply = "Thank you for your message. We'll review your request and get back to you shortly."
	fallbackBuyerReply  = "Thank you for your quote. We're reviewing all proposals and will respond soon."
)

// NegotiationService 自动谈判服务
// 买方消息由AI以供应商身份回复，供应商消息由AI以买方身份回复
type NegotiationService struct {
	quoteRepo    *repository.QuoteRepository
	requestRepo  *repository.RequestRepository
	vendorRepo   *repository.VendorRepository
	quoteService *QuoteService
	generator    TextGenerator
	logger       *zap.Logger
}

func NewNegotiationService(
	quoteRepo *repository.QuoteRepository,
	requestRepo *repository.RequestRepository,
	vendorRepo *repository.VendorRepository,
	quoteService *QuoteService,
	generator TextGenerator,
	logger *zap.Logger,
) *NegotiationService {
	return &NegotiationService{
		quoteRepo:    quoteRepo,
		requestRepo:  requestRepo,
		vendorRepo:   vendorRepo,
		quoteService: quoteService,
		generator:    generator,
		logger:       logger,
	}
}

// NegotiateRequest 自动谈判请求
type NegotiateRequest struct {
	Sender  entity.Sender `json:"sender" binding:"required"`
	Message string        `json:"message" binding:"required"`
}

// NegotiateResult 自动谈判结果：入站消息与AI回复消息
type NegotiateResult struct {
	Inbound *entity.NegotiationMessage `json:"inbound"`
	Reply   *entity.NegotiationMessage `json:"reply"`
}

// generatedReply LLM输出的结构化回复
type generatedReply struct {
	Message         string                 `json:"message"`
	ProposedChanges map[string]interface{} `json:"proposedChanges"`
}

// Negotiate 记录入站消息并由AI生成对手方回复
// sender只接受buyer或vendor，AI身份由sender推导
func (s *NegotiationService) Negotiate(ctx context.Context, quoteID string, req *NegotiateRequest) (*NegotiateResult, error) {
	var replySender entity.Sender
	switch req.Sender {
	case entity.SenderBuyer:
		replySender = entity.SenderAIVendor
	case entity.SenderVendor:
		replySender = entity.SenderAIBuyer
	default:
		return nil, fmt.Errorf("%w: sender必须为buyer或vendor", ErrValidation)
	}
	if req.Message == "" {
		return nil, fmt.Errorf("%w: message不能为空", ErrValidation)
	}

	quote, err := s.quoteRepo.FindByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if quote.IsTerminal() {
		return nil, fmt.Errorf("%w: 报价已%s，谈判已结束", ErrConflict, quote.Status)
	}

	inbound, err := s.quoteService.RecordMessage(ctx, &RecordMessageRequest{
		QuoteID: quoteID,
		Sender:  req.Sender,
		Message: req.Message,
	}, string(req.Sender))
	if err != nil {
		return nil, err
	}

	reply := s.generateReply(ctx, quote, req, replySender)

	replyMsg, err := s.quoteService.RecordMessage(ctx, &RecordMessageRequest{
		QuoteID:         quoteID,
		Sender:          replySender,
		Message:         reply.Message,
		ProposedChanges: entity.JSONB(reply.ProposedChanges),
	}, string(replySender))
	if err != nil {
		return nil, err
	}

	return &NegotiateResult{Inbound: inbound, Reply: replyMsg}, nil
}

// generateReply 调用LLM生成回复，任何失败都退回兜底文案
func (s *NegotiationService) generateReply(ctx context.Context, quote *entity.Quote, req *NegotiateRequest, replySender entity.Sender) *generatedReply {
	fallback := &generatedReply{Message: fallbackVendorReply}
	if replySender == entity.SenderAIBuyer {
		fallback = &generatedReply{Message: fallbackBuyerReply}
	}

	if s.generator == nil {
		return fallback
	}

	prompt, err := s.buildPrompt(ctx, quote, req, replySender)
	if err != nil {
		s.logger.Warn("build negotiation prompt failed",
			zap.String("quote_id", quote.ID), zap.Error(err))
		return fallback
	}

	genCtx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	text, err := s.generator.Generate(genCtx, prompt)
	if err != nil {
		s.logger.Warn("negotiation reply generation failed",
			zap.String("quote_id", quote.ID), zap.Error(err))
		return fallback
	}

	reply, err := parseGeneratedReply(text)
	if err != nil {
		s.logger.Warn("unparseable negotiation reply, using fallback",
			zap.String("quote_id", quote.ID), zap.Error(err))
		return fallback
	}
	return reply
}

// buildPrompt 组装谈判上下文提示词
func (s *NegotiationService) buildPrompt(ctx context.Context, quote *entity.Quote, req *NegotiateRequest, replySender entity.Sender) (string, error) {
	request, err := s.requestRepo.FindByID(ctx, quote.RequestID)
	if err != nil {
		return "", err
	}
	vendor, err := s.vendorRepo.FindByID(ctx, quote.VendorID)
	if err != nil {
		return "", err
	}
	history, err := s.quoteService.ListNegotiations(ctx, quote.ID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if replySender == entity.SenderAIVendor {
		fmt.Fprintf(&b, "You are a sales representative for %s (rating %.1f/5, payment terms %s).\n", vendor.Name, vendor.Rating, vendor.PaymentTerms)
		b.WriteString("Negotiate professionally on behalf of the vendor. Small concessions are acceptable to close the deal.\n")
	} else {
		fmt.Fprintf(&b, "You are a procurement agent negotiating with %s on behalf of the buyer.\n", vendor.Name)
		b.WriteString("Push for better pricing and delivery terms while staying professional.\n")
	}

	fmt.Fprintf(&b, "\nProcurement request: %.0f %s of %s", request.Quantity, request.Unit, request.ProductName)
	if request.MaxBudget > 0 {
		fmt.Fprintf(&b, " (buyer budget $%.2f)", request.MaxBudget)
	}
	fmt.Fprintf(&b, "\nCurrent quote: $%.2f per unit, $%.2f total, delivery %s, payment terms %s, status %s\n",
		quote.UnitPrice, quote.TotalPrice, quote.DeliveryDate, quote.PaymentTerms, quote.Status)

	if len(history) > 0 {
		b.WriteString("\nNegotiation history:\n")
		for _, msg := range history {
			fmt.Fprintf(&b, "- %s: %s\n", msg.Sender.DisplayName(), msg.Message)
		}
	}

	fmt.Fprintf(&b, "\nLatest message from %s: %s\n", req.Sender.DisplayName(), req.Message)
	b.WriteString(`
Respond with JSON only, no other text:
{"message": "your reply (2-3 sentences)", "proposedChanges": {}}
proposedChanges may contain totalPrice, unitPrice, deliveryDate or paymentTerms if you are offering new terms, otherwise leave it empty.`)

	return b.String(), nil
}

// parseGeneratedReply 解析LLM输出
// 容忍markdown代码块包裹，message为空视为解析失败
func parseGeneratedReply(text string) (*generatedReply, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var reply generatedReply
	if err := json.Unmarshal([]byte(cleaned), &reply); err != nil {
		return nil, fmt.Errorf("解析AI回复失败: %w", err)
	}
	if reply.Message == "" {
		return nil, fmt.Errorf("AI回复缺少message字段")
	}
	return &reply, nil
}
