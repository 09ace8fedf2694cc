package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	orderdomain "github.com/wyfcoding/onlinestore/internal/order/domain"
	"github.com/wyfcoding/onlinestore/internal/shipment/application"
	"github.com/wyfcoding/onlinestore/internal/shipment/domain"
	"github.com/wyfcoding/onlinestore/pkg/logger"
	"github.com/wyfcoding/onlinestore/pkg/response"
)

// ShipmentHandler 发运标签 HTTP 处理器
type ShipmentHandler struct {
	labelService *application.LabelService
}

// NewShipmentHandler 创建 HTTP 处理器
func NewShipmentHandler(labelService *application.LabelService) *ShipmentHandler {
	return &ShipmentHandler{
		labelService: labelService,
	}
}

// RegisterRoutes 注册路由
func (h *ShipmentHandler) RegisterRoutes(router *gin.Engine) {
	admin := router.Group("/api/v1/admin")
	{
		admin.GET("/orders/:id/label", h.GetLabel)
	}
}

// GetLabel 获取发运标签。create=true 时未订舱先订舱。
func (h *ShipmentHandler) GetLabel(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid order id", "INVALID_REQUEST")
		return
	}
	create := c.DefaultQuery("create", "false") == "true"

	label, err := h.labelService.Label(c.Request.Context(), uint(id), create)
	if err != nil {
		h.writeError(c, uint(id), err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", label.Filename))
	c.Data(http.StatusOK, "application/pdf", label.PDF)
}

func (h *ShipmentHandler) writeError(c *gin.Context, orderID uint, err error) {
	switch {
	case errors.Is(err, domain.ErrMissingPickupPoint):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "MISSING_PICKUP_POINT")
	case errors.Is(err, domain.ErrNoShipmentYet):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "NO_SHIPMENT_YET")
	case errors.Is(err, orderdomain.ErrOrderNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, domain.ErrCarrierUnavailable):
		logger.Error(c.Request.Context(), "承运商不可达", "order_id", orderID, "error", err)
		response.ErrorWithStatus(c, http.StatusBadGateway, err.Error(), "CARRIER_UNAVAILABLE")
	case errors.Is(err, domain.ErrCarrierRejected):
		logger.Error(c.Request.Context(), "承运商拒绝请求", "order_id", orderID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "CARRIER_REJECTED")
	default:
		logger.Error(c.Request.Context(), "标签获取失败", "order_id", orderID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "INTERNAL")
	}
}
