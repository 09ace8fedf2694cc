package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/onlinestore/internal/catalog/application"
	"github.com/wyfcoding/onlinestore/internal/catalog/domain"
	"github.com/wyfcoding/onlinestore/pkg/logger"
	"github.com/wyfcoding/onlinestore/pkg/response"
)

// 商品图片上限 5MB
const maxImageBytes = 5 << 20

// CatalogHandler 商品目录 HTTP 处理器
type CatalogHandler struct {
	catalogService *application.CatalogService
}

// NewCatalogHandler 创建 HTTP 处理器
func NewCatalogHandler(catalogService *application.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
	}
}

// RegisterRoutes 注册路由
func (h *CatalogHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.POST("/products", h.CreateProduct)
		api.GET("/products", h.ListProducts)
		api.GET("/products/:id", h.GetProduct)
		api.PUT("/products/:id/image", h.UploadImage)
		api.DELETE("/products/:id", h.DeleteProduct)
	}
}

// CreateProduct 创建商品
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req application.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		return
	}

	product, err := h.catalogService.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		logger.Error(c.Request.Context(), "商品创建失败", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "INTERNAL")
		return
	}

	response.Created(c, product)
}

// ListProducts 列出商品，默认仅在售
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	activeOnly := c.DefaultQuery("active_only", "true") == "true"

	products, err := h.catalogService.ListProducts(c.Request.Context(), activeOnly)
	if err != nil {
		logger.Error(c.Request.Context(), "商品列表查询失败", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "INTERNAL")
		return
	}

	response.Success(c, products)
}

// GetProduct 获取商品详情
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid product id", "INVALID_REQUEST")
		return
	}

	product, err := h.catalogService.GetProduct(c.Request.Context(), uint(id))
	if errors.Is(err, domain.ErrProductNotFound) {
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "NOT_FOUND")
		return
	}
	if err != nil {
		logger.Error(c.Request.Context(), "商品查询失败", "product_id", id, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "INTERNAL")
		return
	}

	response.Success(c, product)
}

// UploadImage 上传商品图片，请求体为图片原始字节
func (h *CatalogHandler) UploadImage(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid product id", "INVALID_REQUEST")
		return
	}

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImageBytes))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "failed to read image body", "INVALID_REQUEST")
		return
	}

	ext := ".jpg"
	if c.ContentType() == "image/png" {
		ext = ".png"
	}

	product, err := h.catalogService.UploadImage(c.Request.Context(), uint(id), ext, data)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "NOT_FOUND")
			return
		}
		logger.Error(c.Request.Context(), "商品图片上传失败", "product_id", id, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "INTERNAL")
		return
	}

	response.Success(c, product)
}

// DeleteProduct 删除商品，关联图片做尽力清理
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid product id", "INVALID_REQUEST")
		return
	}

	if err := h.catalogService.DeleteProduct(c.Request.Context(), uint(id)); err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "NOT_FOUND")
			return
		}
		logger.Error(c.Request.Context(), "商品删除失败", "product_id", id, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "INTERNAL")
		return
	}

	response.Success(c, gin.H{"deleted": id})
}
