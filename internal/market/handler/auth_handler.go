package handler

import (
	"net/http"

	"github.com/bitfantasy/autotrade/internal/market/service"
	"github.com/gin-gonic/gin"
)

// AuthHandler 演示令牌处理器
type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// IssueToken POST /api/auth/token
// 按已注册买方邮箱签发演示令牌
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req service.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.svc.IssueToken(c.Request.Context(), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, result)
}
