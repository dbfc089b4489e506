package handler

import (
	"errors"
	"net/http"

	"github.com/bitfantasy/autotrade/internal/market/repository"
	"github.com/bitfantasy/autotrade/internal/market/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers 处理器集合
type Handlers struct {
	Directory *DirectoryHandler
	Request   *RequestHandler
	Quote     *QuoteHandler
	Order     *OrderHandler
	AI        *AIHandler
	Dashboard *DashboardHandler
	Auth      *AuthHandler
	SSE       *SSEHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(
	directorySvc *service.DirectoryService,
	procurementSvc *service.ProcurementService,
	quoteSvc *service.QuoteService,
	matchingSvc *service.MatchingService,
	negotiationSvc *service.NegotiationService,
	dashboardSvc *service.DashboardService,
	authSvc *service.AuthService,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		Directory: NewDirectoryHandler(directorySvc),
		Request:   NewRequestHandler(procurementSvc),
		Quote:     NewQuoteHandler(quoteSvc, procurementSvc),
		Order:     NewOrderHandler(procurementSvc, logger),
		AI:        NewAIHandler(matchingSvc, negotiationSvc),
		Dashboard: NewDashboardHandler(dashboardSvc),
		Auth:      NewAuthHandler(authSvc),
		SSE:       NewSSEHandler(),
	}
}

// === 响应辅助函数 ===
// 错误统一为 {"error": message}，成功直接返回实体

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

func Error(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// HandleError 按错误类型映射HTTP状态码
// 校验错误400、未找到404、状态冲突409，其余500不透传细节
func HandleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConflict):
		Error(c, http.StatusConflict, err.Error())
	default:
		Error(c, http.StatusInternalServerError, "internal server error")
	}
}

func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}
