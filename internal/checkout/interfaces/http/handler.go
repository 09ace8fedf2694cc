package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	cartapp "github.com/wyfcoding/onlinestore/internal/cart/application"
	cartdomain "github.com/wyfcoding/onlinestore/internal/cart/domain"
	"github.com/wyfcoding/onlinestore/internal/checkout/application"
	shippingapp "github.com/wyfcoding/onlinestore/internal/shipping/application"
	shippingdomain "github.com/wyfcoding/onlinestore/internal/shipping/domain"
	"github.com/wyfcoding/onlinestore/pkg/logger"
	"github.com/wyfcoding/onlinestore/pkg/response"
)

// CheckoutHandler 结账 HTTP 处理器
type CheckoutHandler struct {
	aggregator *application.Aggregator
	rateEngine *shippingapp.RateEngine
}

// NewCheckoutHandler 创建 HTTP 处理器
func NewCheckoutHandler(aggregator *application.Aggregator, rateEngine *shippingapp.RateEngine) *CheckoutHandler {
	return &CheckoutHandler{
		aggregator: aggregator,
		rateEngine: rateEngine,
	}
}

// RegisterRoutes 注册路由
func (h *CheckoutHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.GET("/checkout/summary", h.GetSummary)
	}
}

// SummaryResponse 结账摘要加可选运费
type SummaryResponse struct {
	*application.Summary
	ShippingOptions []shippingapp.Option `json:"shipping_options,omitempty"`
}

// GetSummary 生成结账摘要；带 country 参数时附上该国的运费报价
func (h *CheckoutHandler) GetSummary(c *gin.Context) {
	identity := cartapp.Identity{
		UserID:       c.GetHeader("X-User-ID"),
		SessionToken: c.GetHeader("X-Session-Token"),
	}

	summary, err := h.aggregator.Aggregate(c.Request.Context(), identity)
	switch {
	case errors.Is(err, cartdomain.ErrNoIdentity):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		return
	case errors.Is(err, cartdomain.ErrCartNotFound), errors.Is(err, application.ErrEmptyCart):
		response.ErrorWithStatus(c, http.StatusConflict, err.Error(), "EMPTY_CART")
		return
	case err != nil:
		logger.Error(c.Request.Context(), "结账摘要生成失败", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "INTERNAL")
		return
	}

	resp := SummaryResponse{Summary: summary}
	if country := strings.ToUpper(c.Query("country")); country != "" {
		options, err := h.rateEngine.Quote(c.Request.Context(), country, shippingapp.CartContext{
			Subtotal:    summary.Subtotal,
			WeightGrams: summary.TotalWeightGrams,
			Known:       true,
		})
		if errors.Is(err, shippingdomain.ErrInvalidCountry) {
			response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_COUNTRY")
			return
		}
		if err != nil {
			logger.Error(c.Request.Context(), "结账运费报价失败", "country", country, "error", err)
			response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "INTERNAL")
			return
		}
		resp.ShippingOptions = options
	}

	response.Success(c, resp)
}
