package handler

import (
	"net/http"

	"github.com/bitfantasy/autotrade/internal/market/service"
	"github.com/gin-gonic/gin"
)

// DirectoryHandler 买方与供应商档案处理器
type DirectoryHandler struct {
	svc *service.DirectoryService
}

func NewDirectoryHandler(svc *service.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{svc: svc}
}

// ListBuyers GET /api/buyers
func (h *DirectoryHandler) ListBuyers(c *gin.Context) {
	buyers, err := h.svc.ListBuyers(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, buyers)
}

// GetBuyer GET /api/buyers/:id
func (h *DirectoryHandler) GetBuyer(c *gin.Context) {
	buyer, err := h.svc.GetBuyer(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, buyer)
}

// CreateBuyer POST /api/buyers
func (h *DirectoryHandler) CreateBuyer(c *gin.Context) {
	var req service.CreateBuyerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	buyer, err := h.svc.CreateBuyer(c.Request.Context(), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, buyer)
}

// ListVendors GET /api/vendors?category=
func (h *DirectoryHandler) ListVendors(c *gin.Context) {
	vendors, err := h.svc.ListVendors(c.Request.Context(), c.Query("category"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, vendors)
}

// GetVendor GET /api/vendors/:id
func (h *DirectoryHandler) GetVendor(c *gin.Context) {
	vendor, err := h.svc.GetVendor(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, vendor)
}

// CreateVendor POST /api/vendors
func (h *DirectoryHandler) CreateVendor(c *gin.Context) {
	var req service.CreateVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	vendor, err := h.svc.CreateVendor(c.Request.Context(), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, vendor)
}
