package application

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	cartdomain "github.com/wyfcoding/onlinestore/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/onlinestore/internal/catalog/domain"
)

type fakeProductRepo struct {
	products []catalogdomain.Product
}

func (f *fakeProductRepo) GetByID(_ context.Context, id uint) (*catalogdomain.Product, error) {
	for i := range f.products {
		if f.products[i].ID == id {
			return &f.products[i], nil
		}
	}
	return nil, catalogdomain.ErrProductNotFound
}

func (f *fakeProductRepo) GetByIDs(_ context.Context, ids []uint) ([]catalogdomain.Product, error) {
	var out []catalogdomain.Product
	for _, id := range ids {
		for i := range f.products {
			if f.products[i].ID == id {
				out = append(out, f.products[i])
			}
		}
	}
	return out, nil
}

func (f *fakeProductRepo) List(_ context.Context, _ bool) ([]catalogdomain.Product, error) {
	return f.products, nil
}

func (f *fakeProductRepo) Save(_ context.Context, _ *catalogdomain.Product) error { return nil }
func (f *fakeProductRepo) Delete(_ context.Context, _ uint) error                 { return nil }

func testProduct(id uint, price string, weight int, variants ...catalogdomain.ProductVariant) catalogdomain.Product {
	p := catalogdomain.Product{
		Name:        "widget",
		SKU:         "W-1",
		Price:       decimal.RequireFromString(price),
		WeightGrams: weight,
		IsActive:    true,
		Variants:    variants,
	}
	p.ID = id
	return p
}

func cartWith(items ...cartdomain.CartItem) *cartdomain.Cart {
	c := &cartdomain.Cart{Items: items}
	c.ID = 1
	return c
}

func TestSummarizeEmptyCart(t *testing.T) {
	agg := NewAggregator(nil, &fakeProductRepo{}, nil)
	_, err := agg.Summarize(context.Background(), cartWith())
	if !errors.Is(err, ErrEmptyCart) {
		t.Errorf("err = %v, want ErrEmptyCart", err)
	}
}

func TestSummarizeSubtotalAndWeight(t *testing.T) {
	repo := &fakeProductRepo{products: []catalogdomain.Product{
		testProduct(1, "10.50", 200),
		testProduct(2, "3.00", 50),
	}}
	agg := NewAggregator(nil, repo, nil)

	summary, err := agg.Summarize(context.Background(), cartWith(
		cartdomain.CartItem{ProductID: 1, Quantity: 2},
		cartdomain.CartItem{ProductID: 2, Quantity: 3},
	))
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}

	if want := decimal.RequireFromString("30.00"); !summary.Subtotal.Equal(want) {
		t.Errorf("subtotal = %s, want %s", summary.Subtotal, want)
	}
	if summary.TotalWeightGrams != 550 {
		t.Errorf("total weight = %d, want 550", summary.TotalWeightGrams)
	}
	if len(summary.Lines) != 2 {
		t.Errorf("lines = %d, want 2", len(summary.Lines))
	}
}

// 变体只覆盖价格时，重量仍取商品本身的值；反之亦然。
func TestSummarizeVariantOverridesPerField(t *testing.T) {
	priceOnly := catalogdomain.ProductVariant{
		ProductID: 1,
		Name:      "deluxe",
		Price:     decimal.NewNullDecimal(decimal.RequireFromString("15.00")),
	}
	priceOnly.ID = 10
	weight := 900
	weightOnly := catalogdomain.ProductVariant{
		ProductID:   1,
		Name:        "heavy",
		WeightGrams: &weight,
	}
	weightOnly.ID = 11

	repo := &fakeProductRepo{products: []catalogdomain.Product{
		testProduct(1, "10.00", 200, priceOnly, weightOnly),
	}}
	agg := NewAggregator(nil, repo, nil)

	v10, v11 := uint(10), uint(11)
	summary, err := agg.Summarize(context.Background(), cartWith(
		cartdomain.CartItem{ProductID: 1, VariantID: &v10, Quantity: 1},
		cartdomain.CartItem{ProductID: 1, VariantID: &v11, Quantity: 1},
	))
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}

	if want := decimal.RequireFromString("15.00"); !summary.Lines[0].UnitPrice.Equal(want) {
		t.Errorf("price-only variant unit price = %s, want %s", summary.Lines[0].UnitPrice, want)
	}
	if summary.Lines[0].WeightGrams != 200 {
		t.Errorf("price-only variant weight = %d, want product weight 200", summary.Lines[0].WeightGrams)
	}
	if want := decimal.RequireFromString("10.00"); !summary.Lines[1].UnitPrice.Equal(want) {
		t.Errorf("weight-only variant unit price = %s, want product price %s", summary.Lines[1].UnitPrice, want)
	}
	if summary.Lines[1].WeightGrams != 900 {
		t.Errorf("weight-only variant weight = %d, want 900", summary.Lines[1].WeightGrams)
	}
}

func TestSummarizeUnknownProductFails(t *testing.T) {
	agg := NewAggregator(nil, &fakeProductRepo{}, nil)
	_, err := agg.Summarize(context.Background(), cartWith(
		cartdomain.CartItem{ProductID: 42, Quantity: 1},
	))
	if !errors.Is(err, catalogdomain.ErrProductNotFound) {
		t.Errorf("err = %v, want ErrProductNotFound", err)
	}
}
