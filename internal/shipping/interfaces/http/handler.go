package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	cartapp "github.com/wyfcoding/onlinestore/internal/cart/application"
	cartdomain "github.com/wyfcoding/onlinestore/internal/cart/domain"
	checkoutapp "github.com/wyfcoding/onlinestore/internal/checkout/application"
	"github.com/wyfcoding/onlinestore/internal/shipping/application"
	"github.com/wyfcoding/onlinestore/internal/shipping/domain"
	"github.com/wyfcoding/onlinestore/pkg/logger"
	"github.com/wyfcoding/onlinestore/pkg/response"
)

// ShippingHandler 运费报价与配送配置 HTTP 处理器
type ShippingHandler struct {
	rateEngine      *application.RateEngine
	shippingService *application.ShippingService
	aggregator      *checkoutapp.Aggregator
}

// NewShippingHandler 创建 HTTP 处理器
func NewShippingHandler(rateEngine *application.RateEngine, shippingService *application.ShippingService, aggregator *checkoutapp.Aggregator) *ShippingHandler {
	return &ShippingHandler{
		rateEngine:      rateEngine,
		shippingService: shippingService,
		aggregator:      aggregator,
	}
}

// RegisterRoutes 注册路由
func (h *ShippingHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.GET("/shipping/methods", h.QuoteMethods)
	}
	admin := router.Group("/api/v1/admin")
	{
		admin.GET("/shipping/zones", h.ListZones)
		admin.POST("/shipping/zones", h.SaveZone)
		admin.GET("/shipping/zones/:id", h.GetZone)
		admin.DELETE("/shipping/zones/:id", h.DeleteZone)
		admin.GET("/carriers", h.ListCarriers)
		admin.POST("/carriers", h.SaveCarrier)
	}
}

// QuoteMethods 报价。带购物车身份时按实际小计与总重报价，
// 否则只报不依赖购物车的方式。
func (h *ShippingHandler) QuoteMethods(c *gin.Context) {
	country := strings.ToUpper(c.Query("country"))

	identity := cartapp.Identity{
		UserID:       c.GetHeader("X-User-ID"),
		SessionToken: c.GetHeader("X-Session-Token"),
	}
	cart := application.CartContext{}
	summary, err := h.aggregator.Aggregate(c.Request.Context(), identity)
	switch {
	case err == nil:
		cart = application.CartContext{
			Subtotal:    summary.Subtotal,
			WeightGrams: summary.TotalWeightGrams,
			Known:       true,
		}
	case errors.Is(err, cartdomain.ErrNoIdentity),
		errors.Is(err, cartdomain.ErrCartNotFound),
		errors.Is(err, checkoutapp.ErrEmptyCart):
		// 无购物车可用，退化为无上下文报价
	default:
		logger.Error(c.Request.Context(), "报价前聚合购物车失败", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "INTERNAL")
		return
	}

	options, err := h.rateEngine.Quote(c.Request.Context(), country, cart)
	if errors.Is(err, domain.ErrInvalidCountry) {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_COUNTRY")
		return
	}
	if err != nil {
		logger.Error(c.Request.Context(), "运费报价失败", "country", country, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "INTERNAL")
		return
	}

	response.Success(c, options)
}

// ListZones 列出启用区域
func (h *ShippingHandler) ListZones(c *gin.Context) {
	zones, err := h.shippingService.ListActiveZones(c.Request.Context())
	if err != nil {
		logger.Error(c.Request.Context(), "区域列表查询失败", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "INTERNAL")
		return
	}
	response.Success(c, zones)
}

// SaveZone 新建或更新区域
func (h *ShippingHandler) SaveZone(c *gin.Context) {
	var zone domain.ShippingZone
	if err := c.ShouldBindJSON(&zone); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		return
	}

	if err := h.shippingService.SaveZone(c.Request.Context(), &zone); err != nil {
		if errors.Is(err, domain.ErrInvalidCountry) {
			response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_COUNTRY")
			return
		}
		logger.Error(c.Request.Context(), "区域保存失败", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "INTERNAL")
		return
	}
	response.Created(c, zone)
}

// GetZone 获取区域详情
func (h *ShippingHandler) GetZone(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid zone id", "INVALID_REQUEST")
		return
	}

	zone, err := h.shippingService.GetZone(c.Request.Context(), uint(id))
	if errors.Is(err, domain.ErrZoneNotFound) {
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "NOT_FOUND")
		return
	}
	if err != nil {
		logger.Error(c.Request.Context(), "区域查询失败", "zone_id", id, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "INTERNAL")
		return
	}
	response.Success(c, zone)
}

// DeleteZone 删除区域
func (h *ShippingHandler) DeleteZone(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid zone id", "INVALID_REQUEST")
		return
	}

	if err := h.shippingService.DeleteZone(c.Request.Context(), uint(id)); err != nil {
		if errors.Is(err, domain.ErrZoneNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "NOT_FOUND")
			return
		}
		logger.Error(c.Request.Context(), "区域删除失败", "zone_id", id, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "INTERNAL")
		return
	}
	response.Success(c, gin.H{"deleted": id})
}

// ListCarriers 列出承运商
func (h *ShippingHandler) ListCarriers(c *gin.Context) {
	carriers, err := h.shippingService.ListCarriers(c.Request.Context())
	if err != nil {
		logger.Error(c.Request.Context(), "承运商列表查询失败", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "INTERNAL")
		return
	}
	response.Success(c, carriers)
}

// SaveCarrier 新建或更新承运商
func (h *ShippingHandler) SaveCarrier(c *gin.Context) {
	var carrier domain.Carrier
	if err := c.ShouldBindJSON(&carrier); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		return
	}

	if err := h.shippingService.SaveCarrier(c.Request.Context(), &carrier); err != nil {
		logger.Error(c.Request.Context(), "承运商保存失败", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "INTERNAL")
		return
	}
	response.Created(c, carrier)
}
