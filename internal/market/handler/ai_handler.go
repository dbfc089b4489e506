package handler

import (
	"fmt"
	"net/http"

	"github.com/bitfantasy/autotrade/internal/market/service"
	"github.com/gin-gonic/gin"
)

// AIHandler AI匹配与谈判处理器
type AIHandler struct {
	matchingSvc    *service.MatchingService
	negotiationSvc *service.NegotiationService
}

func NewAIHandler(matchingSvc *service.MatchingService, negotiationSvc *service.NegotiationService) *AIHandler {
	return &AIHandler{matchingSvc: matchingSvc, negotiationSvc: negotiationSvc}
}

// MatchVendors POST /api/ai/match-vendors/:requestId
// 单个供应商失败不影响整体，返回逐供应商结果
func (h *AIHandler) MatchVendors(c *gin.Context) {
	result, err := h.matchingSvc.MatchVendors(c.Request.Context(), c.Param("requestId"))
	if err != nil {
		HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Matched %d vendors, created %d quotes", result.VendorsFound, result.QuotesCreated),
		"results": result.Results,
	})
}

// Negotiate POST /api/ai/negotiate/:quoteId
// 记录来信并返回AI生成的对手方回复
func (h *AIHandler) Negotiate(c *gin.Context) {
	var req service.NegotiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.negotiationSvc.Negotiate(c.Request.Context(), c.Param("quoteId"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, result)
}
