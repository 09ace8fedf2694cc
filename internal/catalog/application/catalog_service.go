// 商品目录用例：后台 CRUD 与前台列表。删除商品后的图片清理是尽力而为的后置步骤，
// 失败不阻塞删除，但必须记入日志与指标。
package application

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/onlinestore/internal/catalog/domain"
	"github.com/wyfcoding/onlinestore/pkg/logger"
	"github.com/wyfcoding/onlinestore/pkg/metrics"
)

// ImageStore 商品图片存储（外部协作者）
type ImageStore interface {
	Save(ctx context.Context, key string, data []byte) error
	Remove(ctx context.Context, key string) error
}

// CreateProductRequest 创建商品请求
type CreateProductRequest struct {
	Name        string
	SKU         string
	Price       decimal.Decimal
	WeightGrams int
	ImageKey    string
	Variants    []VariantInput
}

// VariantInput 变体参数。价格/重量留空表示沿用商品的值。
type VariantInput struct {
	Name        string
	SKU         string
	Price       *decimal.Decimal
	WeightGrams *int
}

// CatalogService 商品目录应用服务
type CatalogService struct {
	repo    domain.ProductRepository
	images  ImageStore
	metrics *metrics.Metrics
}

func NewCatalogService(repo domain.ProductRepository, images ImageStore, m *metrics.Metrics) *CatalogService {
	return &CatalogService{repo: repo, images: images, metrics: m}
}

// CreateProduct 创建商品及其变体
func (s *CatalogService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*domain.Product, error) {
	if req.Name == "" || req.SKU == "" {
		return nil, fmt.Errorf("name and sku are required")
	}
	if req.Price.IsNegative() || req.WeightGrams < 0 {
		return nil, fmt.Errorf("price and weight must not be negative")
	}

	product := &domain.Product{
		Name:        req.Name,
		SKU:         req.SKU,
		Price:       req.Price,
		WeightGrams: req.WeightGrams,
		ImageKey:    req.ImageKey,
		IsActive:    true,
	}
	for _, v := range req.Variants {
		variant := domain.ProductVariant{
			Name:     v.Name,
			SKU:      v.SKU,
			IsActive: true,
		}
		if v.Price != nil {
			variant.Price = decimal.NewNullDecimal(*v.Price)
		}
		variant.WeightGrams = v.WeightGrams
		product.Variants = append(product.Variants, variant)
	}

	if err := s.repo.Save(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to save product: %w", err)
	}

	logger.Info(ctx, "Product created", "product_id", product.ID, "sku", product.SKU)
	return product, nil
}

// GetProduct 获取商品详情
func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// ListProducts 商品列表，activeOnly 为真时只返回在售商品
func (s *CatalogService) ListProducts(ctx context.Context, activeOnly bool) ([]domain.Product, error) {
	return s.repo.List(ctx, activeOnly)
}

// UploadImage 保存商品图片并把 key 写回商品。旧图在替换后尽力清理。
func (s *CatalogService) UploadImage(ctx context.Context, id uint, ext string, data []byte) (*domain.Product, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("image payload is empty")
	}
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("products/%d%s", id, ext)
	if err := s.images.Save(ctx, key, data); err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	previous := product.ImageKey
	product.ImageKey = key
	if err := s.repo.Save(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to save product: %w", err)
	}

	if previous != "" && previous != key {
		if err := s.images.Remove(ctx, previous); err != nil {
			logger.Warn(ctx, "Best-effort image cleanup failed",
				"product_id", id,
				"image_key", previous,
				"error", err,
			)
			if s.metrics != nil {
				s.metrics.CleanupFailuresTotal.Inc()
			}
		}
	}

	logger.Info(ctx, "Product image updated", "product_id", id, "image_key", key)
	return product, nil
}

// DeleteProduct 删除商品。图片清理失败只上报，不回滚删除。
func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	if product.ImageKey != "" && s.images != nil {
		if err := s.images.Remove(ctx, product.ImageKey); err != nil {
			logger.Warn(ctx, "Best-effort image cleanup failed",
				"product_id", id,
				"image_key", product.ImageKey,
				"error", err,
			)
			if s.metrics != nil {
				s.metrics.CleanupFailuresTotal.Inc()
			}
		}
	}

	logger.Info(ctx, "Product deleted", "product_id", id)
	return nil
}
