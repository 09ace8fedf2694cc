package application

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/onlinestore/internal/catalog/domain"
)

type memProductRepo struct {
	products map[uint]*domain.Product
	nextID   uint
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{products: map[uint]*domain.Product{}, nextID: 1}
}

func (r *memProductRepo) GetByID(_ context.Context, id uint) (*domain.Product, error) {
	if p, ok := r.products[id]; ok {
		return p, nil
	}
	return nil, domain.ErrProductNotFound
}

func (r *memProductRepo) GetByIDs(_ context.Context, ids []uint) ([]domain.Product, error) {
	var out []domain.Product
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memProductRepo) List(_ context.Context, activeOnly bool) ([]domain.Product, error) {
	var out []domain.Product
	for _, p := range r.products {
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *memProductRepo) Save(_ context.Context, p *domain.Product) error {
	if p.ID == 0 {
		p.ID = r.nextID
		r.nextID++
	}
	r.products[p.ID] = p
	return nil
}

func (r *memProductRepo) Delete(_ context.Context, id uint) error {
	if _, ok := r.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

type fakeImageStore struct {
	saved   map[string][]byte
	removed []string
	err     error
}

func (f *fakeImageStore) Save(_ context.Context, key string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	if f.saved == nil {
		f.saved = map[string][]byte{}
	}
	f.saved[key] = data
	return nil
}

func (f *fakeImageStore) Remove(_ context.Context, key string) error {
	if f.err != nil {
		return f.err
	}
	f.removed = append(f.removed, key)
	return nil
}

func TestCreateProductValidation(t *testing.T) {
	svc := NewCatalogService(newMemProductRepo(), &fakeImageStore{}, nil)

	cases := []struct {
		name string
		req  CreateProductRequest
	}{
		{"missing name", CreateProductRequest{SKU: "W-1"}},
		{"missing sku", CreateProductRequest{Name: "widget"}},
		{"negative price", CreateProductRequest{Name: "widget", SKU: "W-1", Price: decimal.RequireFromString("-1")}},
	}
	for _, tc := range cases {
		if _, err := svc.CreateProduct(context.Background(), &tc.req); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestCreateProductWithVariants(t *testing.T) {
	repo := newMemProductRepo()
	svc := NewCatalogService(repo, &fakeImageStore{}, nil)

	price := decimal.RequireFromString("15.00")
	product, err := svc.CreateProduct(context.Background(), &CreateProductRequest{
		Name:        "widget",
		SKU:         "W-1",
		Price:       decimal.RequireFromString("10.00"),
		WeightGrams: 200,
		Variants: []VariantInput{
			{Name: "deluxe", SKU: "W-1-D", Price: &price},
			{Name: "plain", SKU: "W-1-P"},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(product.Variants) != 2 {
		t.Fatalf("variants = %d, want 2", len(product.Variants))
	}
	if !product.Variants[0].Price.Valid || !product.Variants[0].Price.Decimal.Equal(price) {
		t.Errorf("deluxe price override missing: %+v", product.Variants[0].Price)
	}
	if product.Variants[1].Price.Valid {
		t.Errorf("plain variant should inherit the product price")
	}
}

// 图片清理失败不阻塞删除。
func TestDeleteProductSurvivesImageCleanupFailure(t *testing.T) {
	repo := newMemProductRepo()
	images := &fakeImageStore{err: errors.New("bucket unavailable")}
	svc := NewCatalogService(repo, images, nil)

	product, err := svc.CreateProduct(context.Background(), &CreateProductRequest{
		Name: "widget", SKU: "W-1", ImageKey: "products/w1.jpg",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.DeleteProduct(context.Background(), product.ID); err != nil {
		t.Fatalf("delete should succeed despite image cleanup failure: %v", err)
	}
	if _, err := repo.GetByID(context.Background(), product.ID); !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("product still present after delete")
	}
}

func TestDeleteProductRemovesImage(t *testing.T) {
	repo := newMemProductRepo()
	images := &fakeImageStore{}
	svc := NewCatalogService(repo, images, nil)

	product, err := svc.CreateProduct(context.Background(), &CreateProductRequest{
		Name: "widget", SKU: "W-1", ImageKey: "products/w1.jpg",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.DeleteProduct(context.Background(), product.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(images.removed) != 1 || images.removed[0] != "products/w1.jpg" {
		t.Errorf("removed images = %v, want [products/w1.jpg]", images.removed)
	}
}

func TestListProductsActiveOnly(t *testing.T) {
	repo := newMemProductRepo()
	svc := NewCatalogService(repo, &fakeImageStore{}, nil)

	active := &domain.Product{Name: "a", SKU: "A", IsActive: true}
	retired := &domain.Product{Name: "b", SKU: "B", IsActive: false}
	repo.Save(context.Background(), active)
	repo.Save(context.Background(), retired)

	products, err := svc.ListProducts(context.Background(), true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(products) != 1 || products[0].SKU != "A" {
		t.Errorf("active products = %v, want only SKU A", products)
	}
}

func TestUploadImageReplacesPreviousKey(t *testing.T) {
	repo := newMemProductRepo()
	images := &fakeImageStore{}
	svc := NewCatalogService(repo, images, nil)

	product, err := svc.CreateProduct(context.Background(), &CreateProductRequest{
		Name: "widget", SKU: "W-1", ImageKey: "products/old.png",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.UploadImage(context.Background(), product.ID, ".jpg", []byte("jpeg-bytes"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	wantKey := "products/1.jpg"
	if updated.ImageKey != wantKey {
		t.Errorf("image key = %q, want %q", updated.ImageKey, wantKey)
	}
	if _, ok := images.saved[wantKey]; !ok {
		t.Errorf("image bytes not stored under %q", wantKey)
	}
	if len(images.removed) != 1 || images.removed[0] != "products/old.png" {
		t.Errorf("previous image not cleaned up: %v", images.removed)
	}
}

func TestUploadImageRejectsEmptyBody(t *testing.T) {
	svc := NewCatalogService(newMemProductRepo(), &fakeImageStore{}, nil)

	if _, err := svc.UploadImage(context.Background(), 1, ".jpg", nil); err == nil {
		t.Error("expected error for empty payload")
	}
}
