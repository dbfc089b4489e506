package handler

import (
	"net/http"

	"github.com/bitfantasy/autotrade/internal/market/service"
	"github.com/gin-gonic/gin"
)

// RequestHandler 采购需求处理器
type RequestHandler struct {
	svc *service.ProcurementService
}

func NewRequestHandler(svc *service.ProcurementService) *RequestHandler {
	return &RequestHandler{svc: svc}
}

// List GET /api/requests?status=&buyerId=&category=
func (h *RequestHandler) List(c *gin.Context) {
	filters := map[string]string{
		"status":   c.Query("status"),
		"buyerId":  c.Query("buyerId"),
		"category": c.Query("category"),
	}

	requests, err := h.svc.ListRequests(c.Request.Context(), filters)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, requests)
}

// Get GET /api/requests/:id
func (h *RequestHandler) Get(c *gin.Context) {
	request, err := h.svc.GetRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, request)
}

// Create POST /api/requests
func (h *RequestHandler) Create(c *gin.Context) {
	var req service.CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	request, err := h.svc.CreateRequest(c.Request.Context(), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, request)
}

// Cancel DELETE /api/requests/:id
// open/negotiating的需求流转为cancelled，不物理删除
func (h *RequestHandler) Cancel(c *gin.Context) {
	request, err := h.svc.CancelRequest(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, request)
}
