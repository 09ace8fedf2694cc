package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	cartapp "github.com/wyfcoding/onlinestore/internal/cart/application"
	cartdomain "github.com/wyfcoding/onlinestore/internal/cart/domain"
	checkoutapp "github.com/wyfcoding/onlinestore/internal/checkout/application"
	"github.com/wyfcoding/onlinestore/internal/order/application"
	"github.com/wyfcoding/onlinestore/internal/order/domain"
	shippingdomain "github.com/wyfcoding/onlinestore/internal/shipping/domain"
	"github.com/wyfcoding/onlinestore/pkg/logger"
	"github.com/wyfcoding/onlinestore/pkg/response"
)

// OrderHandler 订单与地址簿 HTTP 处理器
type OrderHandler struct {
	orderService   *application.OrderService
	addressService *application.AddressService
}

// NewOrderHandler 创建 HTTP 处理器
func NewOrderHandler(orderService *application.OrderService, addressService *application.AddressService) *OrderHandler {
	return &OrderHandler{
		orderService:   orderService,
		addressService: addressService,
	}
}

// RegisterRoutes 注册路由
func (h *OrderHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.POST("/orders", h.PlaceOrder)
		api.GET("/orders", h.ListOrders)
		api.GET("/orders/:id", h.GetOrder)

		api.GET("/addresses", h.ListAddresses)
		api.POST("/addresses", h.SaveAddress)
		api.PUT("/addresses/:id/default", h.SetDefaultAddress)
		api.DELETE("/addresses/:id", h.DeleteAddress)
	}
}

func identityFrom(c *gin.Context) cartapp.Identity {
	return cartapp.Identity{
		UserID:       c.GetHeader("X-User-ID"),
		SessionToken: c.GetHeader("X-Session-Token"),
	}
}

// PlaceOrder 支付确认后下单
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req application.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		return
	}

	order, err := h.orderService.PlaceOrder(c.Request.Context(), identityFrom(c), &req)
	if err != nil {
		h.writePlaceOrderError(c, err)
		return
	}
	response.Created(c, order)
}

func (h *OrderHandler) writePlaceOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, application.ErrUserRequired),
		errors.Is(err, shippingdomain.ErrInvalidCountry):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
	case errors.Is(err, cartdomain.ErrCartNotFound),
		errors.Is(err, checkoutapp.ErrEmptyCart):
		response.ErrorWithStatus(c, http.StatusConflict, err.Error(), "EMPTY_CART")
	case errors.Is(err, domain.ErrAddressNotFound),
		errors.Is(err, shippingdomain.ErrMethodNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, domain.ErrNumberExhausted):
		// 瞬态冲突，客户端可原样重试
		response.ErrorWithStatus(c, http.StatusServiceUnavailable, err.Error(), "RETRY_LATER")
	default:
		logger.Error(c.Request.Context(), "下单失败", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "INTERNAL")
	}
}

// GetOrder 获取订单详情
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid order id", "INVALID_REQUEST")
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), uint(id))
	if errors.Is(err, domain.ErrOrderNotFound) {
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "NOT_FOUND")
		return
	}
	if err != nil {
		logger.Error(c.Request.Context(), "订单查询失败", "order_id", id, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "INTERNAL")
		return
	}

	if userID := c.GetHeader("X-User-ID"); userID != "" && order.UserID != userID {
		response.ErrorWithStatus(c, http.StatusNotFound, domain.ErrOrderNotFound.Error(), "NOT_FOUND")
		return
	}
	response.Success(c, order)
}

// ListOrders 列出当前用户订单
func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "user is required", "INVALID_REQUEST")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	orders, err := h.orderService.ListUserOrders(c.Request.Context(), userID, limit, offset)
	if err != nil {
		logger.Error(c.Request.Context(), "订单列表查询失败", "user_id", userID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "INTERNAL")
		return
	}
	response.Success(c, orders)
}

// ListAddresses 列出当前用户地址
func (h *OrderHandler) ListAddresses(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "user is required", "INVALID_REQUEST")
		return
	}

	addrs, err := h.addressService.ListAddresses(c.Request.Context(), userID)
	if err != nil {
		logger.Error(c.Request.Context(), "地址列表查询失败", "user_id", userID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "INTERNAL")
		return
	}
	response.Success(c, addrs)
}

// SaveAddress 新建或更新地址
func (h *OrderHandler) SaveAddress(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "user is required", "INVALID_REQUEST")
		return
	}

	var addr domain.Address
	if err := c.ShouldBindJSON(&addr); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		return
	}
	addr.UserID = userID

	if err := h.addressService.SaveAddress(c.Request.Context(), &addr); err != nil {
		logger.Error(c.Request.Context(), "地址保存失败", "user_id", userID, "error", err)
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		return
	}
	response.Created(c, addr)
}

// SetDefaultRequest 默认地址设置请求
type SetDefaultRequest struct {
	Shipping bool `json:"shipping"`
	Billing  bool `json:"billing"`
}

// SetDefaultAddress 设置默认收货/账单地址
func (h *OrderHandler) SetDefaultAddress(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "user is required", "INVALID_REQUEST")
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid address id", "INVALID_REQUEST")
		return
	}

	var req SetDefaultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		return
	}

	if err := h.addressService.SetDefault(c.Request.Context(), userID, uint(id), req.Shipping, req.Billing); err != nil {
		if errors.Is(err, domain.ErrAddressNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "NOT_FOUND")
			return
		}
		logger.Error(c.Request.Context(), "默认地址设置失败", "address_id", id, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "INTERNAL")
		return
	}
	response.Success(c, gin.H{"address_id": id})
}

// DeleteAddress 删除地址
func (h *OrderHandler) DeleteAddress(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "user is required", "INVALID_REQUEST")
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid address id", "INVALID_REQUEST")
		return
	}

	if err := h.addressService.DeleteAddress(c.Request.Context(), userID, uint(id)); err != nil {
		if errors.Is(err, domain.ErrAddressNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "NOT_FOUND")
			return
		}
		logger.Error(c.Request.Context(), "地址删除失败", "address_id", id, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "INTERNAL")
		return
	}
	response.Success(c, gin.H{"deleted": id})
}
