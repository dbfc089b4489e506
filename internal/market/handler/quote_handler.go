package handler

import (
	"net/http"

	"github.com/bitfantasy/autotrade/internal/market/service"
	"github.com/gin-gonic/gin"
)

// QuoteHandler 报价与谈判消息处理器
type QuoteHandler struct {
	quoteSvc       *service.QuoteService
	procurementSvc *service.ProcurementService
}

func NewQuoteHandler(quoteSvc *service.QuoteService, procurementSvc *service.ProcurementService) *QuoteHandler {
	return &QuoteHandler{quoteSvc: quoteSvc, procurementSvc: procurementSvc}
}

// List GET /api/quotes?requestId=&vendorId=&status=
func (h *QuoteHandler) List(c *gin.Context) {
	filters := map[string]string{
		"requestId": c.Query("requestId"),
		"vendorId":  c.Query("vendorId"),
		"status":    c.Query("status"),
	}

	quotes, err := h.quoteSvc.List(c.Request.Context(), filters)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, quotes)
}

// Get GET /api/quotes/:id
func (h *QuoteHandler) Get(c *gin.Context) {
	quote, err := h.quoteSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, quote)
}

// Create POST /api/quotes
func (h *QuoteHandler) Create(c *gin.Context) {
	var req service.CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	quote, err := h.quoteSvc.Create(c.Request.Context(), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, quote)
}

// Accept POST /api/quotes/:id/accept
// 接受报价并生成订单，需求同步流转为completed
func (h *QuoteHandler) Accept(c *gin.Context) {
	order, err := h.procurementSvc.AcceptQuote(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, order)
}

// Reject POST /api/quotes/:id/reject
func (h *QuoteHandler) Reject(c *gin.Context) {
	quote, err := h.quoteSvc.Reject(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, quote)
}

// ListNegotiations GET /api/negotiations/:quoteId
func (h *QuoteHandler) ListNegotiations(c *gin.Context) {
	messages, err := h.quoteSvc.ListNegotiations(c.Request.Context(), c.Param("quoteId"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, messages)
}

// CreateNegotiation POST /api/negotiations
func (h *QuoteHandler) CreateNegotiation(c *gin.Context) {
	var req service.RecordMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	msg, err := h.quoteSvc.RecordMessage(c.Request.Context(), &req, GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, msg)
}
