package handler

import (
	"net/http"

	"github.com/bitfantasy/autotrade/internal/market/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OrderHandler 订单处理器
type OrderHandler struct {
	svc    *service.ProcurementService
	logger *zap.Logger
}

func NewOrderHandler(svc *service.ProcurementService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{svc: svc, logger: logger}
}

// List GET /api/orders?buyerId=&vendorId=
func (h *OrderHandler) List(c *gin.Context) {
	filters := map[string]string{
		"buyerId":  c.Query("buyerId"),
		"vendorId": c.Query("vendorId"),
	}

	orders, err := h.svc.ListOrders(c.Request.Context(), filters)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, orders)
}

// Get GET /api/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.svc.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, order)
}

// Create POST /api/orders
// 与 POST /api/quotes/:id/accept 走同一引擎路径
func (h *OrderHandler) Create(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	order, err := h.svc.CreateOrder(c.Request.Context(), &req, GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, order)
}

// UpdateStatus PATCH /api/orders/:id/status
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	order, err := h.svc.UpdateOrderStatus(c.Request.Context(), c.Param("id"), req.Status, GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, order)
}

// Export GET /api/orders/export
func (h *OrderHandler) Export(c *gin.Context) {
	filters := map[string]string{
		"buyerId":  c.Query("buyerId"),
		"vendorId": c.Query("vendorId"),
	}

	f, filename, err := h.svc.ExportOrders(c.Request.Context(), filters)
	if err != nil {
		HandleError(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		h.logger.Error("write orders excel failed", zap.Error(err))
	}
}
