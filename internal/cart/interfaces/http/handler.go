package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/onlinestore/internal/cart/application"
	"github.com/wyfcoding/onlinestore/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/onlinestore/internal/catalog/domain"
	"github.com/wyfcoding/onlinestore/pkg/logger"
	"github.com/wyfcoding/onlinestore/pkg/response"
)

// CartHandler 购物车 HTTP 处理器。
// 身份从 X-User-ID / X-Session-Token 请求头读取；读路径只解析不合并，
// 合并由登录完成后的 /cart/merge 显式触发。
type CartHandler struct {
	cartService *application.CartService
}

// NewCartHandler 创建 HTTP 处理器
func NewCartHandler(cartService *application.CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
	}
}

// RegisterRoutes 注册路由
func (h *CartHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.GET("/cart", h.GetCart)
		api.POST("/cart/merge", h.MergeCart)
		api.POST("/cart/items", h.AddItem)
		api.PUT("/cart/items", h.UpdateQuantity)
		api.DELETE("/cart/items", h.RemoveItem)
	}
}

func identityFrom(c *gin.Context) application.Identity {
	return application.Identity{
		UserID:       c.GetHeader("X-User-ID"),
		SessionToken: c.GetHeader("X-Session-Token"),
	}
}

// GetCart 获取当前身份的购物车
func (h *CartHandler) GetCart(c *gin.Context) {
	cart, err := h.cartService.Resolve(c.Request.Context(), identityFrom(c))
	if err != nil {
		h.writeError(c, err, "购物车查询失败")
		return
	}
	response.Success(c, cart)
}

// MergeCart 登录完成后调用，把访客车并入用户车
func (h *CartHandler) MergeCart(c *gin.Context) {
	cart, err := h.cartService.Merge(c.Request.Context(), identityFrom(c))
	if err != nil {
		h.writeError(c, err, "购物车合并失败")
		return
	}
	response.Success(c, cart)
}

// CartItemRequest 购物车行请求
type CartItemRequest struct {
	ProductID uint  `json:"product_id" binding:"required"`
	VariantID *uint `json:"variant_id"`
	Quantity  int   `json:"quantity"`
}

// AddItem 加购
func (h *CartHandler) AddItem(c *gin.Context) {
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		return
	}

	cart, err := h.cartService.AddItem(c.Request.Context(), identityFrom(c), req.ProductID, req.VariantID, req.Quantity)
	if err != nil {
		h.writeError(c, err, "加购失败")
		return
	}
	response.Success(c, cart)
}

// UpdateQuantity 修改行数量，数量必须 ≥ 1
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		return
	}

	cart, err := h.cartService.UpdateQuantity(c.Request.Context(), identityFrom(c), req.ProductID, req.VariantID, req.Quantity)
	if err != nil {
		h.writeError(c, err, "购物车行更新失败")
		return
	}
	response.Success(c, cart)
}

// RemoveItem 删除行
func (h *CartHandler) RemoveItem(c *gin.Context) {
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		return
	}

	cart, err := h.cartService.RemoveItem(c.Request.Context(), identityFrom(c), req.ProductID, req.VariantID)
	if err != nil {
		h.writeError(c, err, "购物车行删除失败")
		return
	}
	response.Success(c, cart)
}

func (h *CartHandler) writeError(c *gin.Context, err error, logMsg string) {
	switch {
	case errors.Is(err, domain.ErrNoIdentity), errors.Is(err, domain.ErrInvalidQuantity):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
	case errors.Is(err, domain.ErrCartNotFound),
		errors.Is(err, domain.ErrItemNotFound),
		errors.Is(err, catalogdomain.ErrProductNotFound),
		errors.Is(err, catalogdomain.ErrVariantNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, domain.ErrMergeConflict):
		response.ErrorWithStatus(c, http.StatusConflict, err.Error(), "CONFLICT")
	default:
		logger.Error(c.Request.Context(), logMsg, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "INTERNAL")
	}
}
