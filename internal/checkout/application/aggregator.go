// Package application 聚合购物车与商品目录，产出结账摘要。
// 摘要是运费报价与下单的共同输入：小计驱动按价计费，总重驱动按重计费。
package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	cartapp "github.com/wyfcoding/onlinestore/internal/cart/application"
	cartdomain "github.com/wyfcoding/onlinestore/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/onlinestore/internal/catalog/domain"
	"github.com/wyfcoding/onlinestore/pkg/metrics"
)

var (
	// ErrEmptyCart 空车不能结账
	ErrEmptyCart = errors.New("cart is empty")
)

// Line 结账行。单价与重量已按变体覆盖规则解析完毕。
type Line struct {
	ProductID   uint            `json:"product_id"`
	VariantID   *uint           `json:"variant_id,omitempty"`
	ProductName string          `json:"product_name"`
	VariantName string          `json:"variant_name,omitempty"`
	SKU         string          `json:"sku"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	WeightGrams int             `json:"weight_grams"`
}

// Summary 结账摘要
type Summary struct {
	CartID           uint            `json:"cart_id"`
	Lines            []Line          `json:"lines"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	TotalWeightGrams int             `json:"total_weight_grams"`
}

// Aggregator 结账聚合器
type Aggregator struct {
	carts    *cartapp.CartService
	products catalogdomain.ProductRepository
	metrics  *metrics.Metrics
}

func NewAggregator(carts *cartapp.CartService, products catalogdomain.ProductRepository, m *metrics.Metrics) *Aggregator {
	return &Aggregator{carts: carts, products: products, metrics: m}
}

// Aggregate 解析身份对应的购物车并生成摘要
func (a *Aggregator) Aggregate(ctx context.Context, id cartapp.Identity) (*Summary, error) {
	cart, err := a.carts.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	return a.Summarize(ctx, cart)
}

// Summarize 由购物车生成摘要。所有商品批量取一次，单价与重量按变体覆盖规则解析。
func (a *Aggregator) Summarize(ctx context.Context, cart *cartdomain.Cart) (*Summary, error) {
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	ids := make([]uint, 0, len(cart.Items))
	seen := make(map[uint]struct{}, len(cart.Items))
	for _, item := range cart.Items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}

	products, err := a.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	byID := make(map[uint]*catalogdomain.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	summary := &Summary{CartID: cart.ID, Subtotal: decimal.Zero}
	for _, item := range cart.Items {
		product, ok := byID[item.ProductID]
		if !ok {
			return nil, fmt.Errorf("cart line product %d: %w", item.ProductID, catalogdomain.ErrProductNotFound)
		}

		var variant *catalogdomain.ProductVariant
		var variantName string
		if item.VariantID != nil {
			v, ok := product.Variant(*item.VariantID)
			if !ok {
				return nil, fmt.Errorf("cart line variant %d: %w", *item.VariantID, catalogdomain.ErrVariantNotFound)
			}
			variant = v
			variantName = v.Name
		}

		unitPrice := product.EffectivePrice(variant)
		unitWeight := product.EffectiveWeightGrams(variant)
		line := Line{
			ProductID:   item.ProductID,
			VariantID:   item.VariantID,
			ProductName: product.Name,
			VariantName: variantName,
			SKU:         product.SKU,
			Quantity:    item.Quantity,
			UnitPrice:   unitPrice,
			LineTotal:   unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
			WeightGrams: unitWeight * item.Quantity,
		}
		summary.Lines = append(summary.Lines, line)
		summary.Subtotal = summary.Subtotal.Add(line.LineTotal)
		summary.TotalWeightGrams += line.WeightGrams
	}

	if a.metrics != nil {
		a.metrics.CheckoutsTotal.Inc()
	}
	return summary, nil
}
