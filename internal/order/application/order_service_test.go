package application

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	cartapp "github.com/wyfcoding/onlinestore/internal/cart/application"
	cartdomain "github.com/wyfcoding/onlinestore/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/onlinestore/internal/catalog/domain"
	checkoutapp "github.com/wyfcoding/onlinestore/internal/checkout/application"
	"github.com/wyfcoding/onlinestore/internal/order/domain"
	shippingapp "github.com/wyfcoding/onlinestore/internal/shipping/application"
	shippingdomain "github.com/wyfcoding/onlinestore/internal/shipping/domain"
)

// ---- 购物车与商品桩 ----

type memCartRepo struct {
	carts  map[uint]*cartdomain.Cart
	nextID uint
}

func newMemCartRepo() *memCartRepo {
	return &memCartRepo{carts: make(map[uint]*cartdomain.Cart), nextID: 1}
}

func (r *memCartRepo) GetByID(_ context.Context, id uint) (*cartdomain.Cart, error) {
	if c, ok := r.carts[id]; ok {
		return c, nil
	}
	return nil, cartdomain.ErrCartNotFound
}

func (r *memCartRepo) GetByUserID(_ context.Context, userID string) (*cartdomain.Cart, error) {
	for _, c := range r.carts {
		if c.UserID != nil && *c.UserID == userID {
			return c, nil
		}
	}
	return nil, cartdomain.ErrCartNotFound
}

func (r *memCartRepo) GetBySessionToken(_ context.Context, token string) (*cartdomain.Cart, error) {
	for _, c := range r.carts {
		if c.SessionToken != nil && *c.SessionToken == token {
			return c, nil
		}
	}
	return nil, cartdomain.ErrCartNotFound
}

func (r *memCartRepo) Save(_ context.Context, cart *cartdomain.Cart) error {
	if cart.ID == 0 {
		cart.ID = r.nextID
		r.nextID++
	}
	r.carts[cart.ID] = cart
	return nil
}

func (r *memCartRepo) Delete(_ context.Context, id uint) error {
	if _, ok := r.carts[id]; !ok {
		return cartdomain.ErrCartNotFound
	}
	delete(r.carts, id)
	return nil
}

func (r *memCartRepo) DeleteItem(_ context.Context, _ uint) error { return nil }

type passthroughCartTx struct{ repo cartdomain.CartRepository }

func (t *passthroughCartTx) InSerializableTx(ctx context.Context, fn func(ctx context.Context, repo cartdomain.CartRepository) error) error {
	return fn(ctx, t.repo)
}

type fixedProductRepo struct {
	products []catalogdomain.Product
}

func (f *fixedProductRepo) GetByID(_ context.Context, id uint) (*catalogdomain.Product, error) {
	for i := range f.products {
		if f.products[i].ID == id {
			return &f.products[i], nil
		}
	}
	return nil, catalogdomain.ErrProductNotFound
}

func (f *fixedProductRepo) GetByIDs(_ context.Context, ids []uint) ([]catalogdomain.Product, error) {
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

func (f *fixedProductRepo) List(_ context.Context, _ bool) ([]catalogdomain.Product, error) {
	return f.products, nil
}

func (f *fixedProductRepo) Save(_ context.Context, _ *catalogdomain.Product) error { return nil }
func (f *fixedProductRepo) Delete(_ context.Context, _ uint) error                 { return nil }

type fixedZoneRepo struct {
	zones []shippingdomain.ShippingZone
}

func (f *fixedZoneRepo) ListActive(_ context.Context) ([]shippingdomain.ShippingZone, error) {
	return f.zones, nil
}

func (f *fixedZoneRepo) GetByID(_ context.Context, _ uint) (*shippingdomain.ShippingZone, error) {
	return nil, shippingdomain.ErrZoneNotFound
}

func (f *fixedZoneRepo) Save(_ context.Context, _ *shippingdomain.ShippingZone) error { return nil }
func (f *fixedZoneRepo) Delete(_ context.Context, _ uint) error                       { return nil }

// ---- 订单侧桩 ----

type fakeOrderRepo struct {
	created    []*domain.Order
	dupLeft    int
	lastNumber string
	nextID     uint
}

func (f *fakeOrderRepo) Create(_ context.Context, order *domain.Order) error {
	if f.dupLeft > 0 {
		f.dupLeft--
		// 撞号意味着这个号已被别的进程用掉
		f.lastNumber = order.OrderNumber
		return domain.ErrDuplicateNumber
	}
	f.nextID++
	order.ID = f.nextID
	copied := *order
	f.created = append(f.created, &copied)
	f.lastNumber = order.OrderNumber
	return nil
}

func (f *fakeOrderRepo) GetByID(_ context.Context, id uint) (*domain.Order, error) {
	for _, o := range f.created {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (f *fakeOrderRepo) GetByNumber(_ context.Context, number string) (*domain.Order, error) {
	for _, o := range f.created {
		if o.OrderNumber == number {
			return o, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (f *fakeOrderRepo) ListByUser(_ context.Context, userID string, _, _ int) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range f.created {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) LastOrderNumber(_ context.Context) (string, error) {
	return f.lastNumber, nil
}

func (f *fakeOrderRepo) UpdateShipment(_ context.Context, orderID uint, number string) error {
	for _, o := range f.created {
		if o.ID == orderID {
			o.ShipmentNumber = &number
			o.Status = domain.StatusShipped
			return nil
		}
	}
	return domain.ErrOrderNotFound
}

type fakeAddressRepo struct {
	addresses map[uint]*domain.Address
}

func (f *fakeAddressRepo) GetByID(_ context.Context, id uint) (*domain.Address, error) {
	if a, ok := f.addresses[id]; ok {
		return a, nil
	}
	return nil, domain.ErrAddressNotFound
}

func (f *fakeAddressRepo) ListByUser(_ context.Context, userID string) ([]domain.Address, error) {
	var out []domain.Address
	for _, a := range f.addresses {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAddressRepo) Save(_ context.Context, a *domain.Address) error {
	if f.addresses == nil {
		f.addresses = map[uint]*domain.Address{}
	}
	if a.ID == 0 {
		a.ID = uint(len(f.addresses) + 1)
	}
	f.addresses[a.ID] = a
	return nil
}

func (f *fakeAddressRepo) Delete(_ context.Context, id uint) error {
	delete(f.addresses, id)
	return nil
}

func (f *fakeAddressRepo) SetDefault(_ context.Context, userID string, addressID uint, shipping, billing bool) error {
	for _, a := range f.addresses {
		if a.UserID != userID {
			continue
		}
		if shipping {
			a.IsDefaultShipping = a.ID == addressID
		}
		if billing {
			a.IsDefaultBilling = a.ID == addressID
		}
	}
	return nil
}

type fakeOutboxRepo struct {
	rows []domain.OutboxMessage
}

func (f *fakeOutboxRepo) Append(_ context.Context, msg *domain.OutboxMessage) error {
	msg.ID = uint(len(f.rows) + 1)
	f.rows = append(f.rows, *msg)
	return nil
}

func (f *fakeOutboxRepo) FetchPending(_ context.Context, limit int) ([]domain.OutboxMessage, error) {
	var out []domain.OutboxMessage
	for _, m := range f.rows {
		if m.Status == domain.OutboxPending && len(out) < limit {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeOutboxRepo) MarkSent(_ context.Context, id uint) error {
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].Status = domain.OutboxSent
		}
	}
	return nil
}

func (f *fakeOutboxRepo) RecordFailure(_ context.Context, id uint, attempts int, lastError string) error {
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].Attempts = attempts
			f.rows[i].LastError = lastError
		}
	}
	return nil
}

func (f *fakeOutboxRepo) MarkDead(_ context.Context, id uint, attempts int, lastError string) error {
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].Status = domain.OutboxFailed
			f.rows[i].Attempts = attempts
			f.rows[i].LastError = lastError
		}
	}
	return nil
}

type fakeTxRunner struct {
	repos TxRepos
	calls int
}

func (f *fakeTxRunner) InTx(ctx context.Context, fn func(ctx context.Context, repos TxRepos) error) error {
	f.calls++
	return fn(ctx, f.repos)
}

// ---- 组装 ----

type orderFixture struct {
	service   *OrderService
	cartRepo  *memCartRepo
	orderRepo *fakeOrderRepo
	outbox    *fakeOutboxRepo
	addresses *fakeAddressRepo
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()

	product := catalogdomain.Product{
		Name:        "widget",
		SKU:         "W-1",
		Price:       decimal.RequireFromString("10.00"),
		WeightGrams: 250,
		IsActive:    true,
	}
	product.ID = 1
	productRepo := &fixedProductRepo{products: []catalogdomain.Product{product}}

	cartRepo := newMemCartRepo()
	merger := cartapp.NewMergeEngine(&passthroughCartTx{repo: cartRepo}, nil)
	cartSvc := cartapp.NewCartService(cartRepo, productRepo, merger)
	aggregator := checkoutapp.NewAggregator(cartSvc, productRepo, nil)

	method := shippingdomain.ShippingMethod{
		Name:     "standard",
		RateType: shippingdomain.RateFlat,
		FlatRate: decimal.RequireFromString("4.90"),
		IsActive: true,
	}
	method.ID = 7
	zone := shippingdomain.ShippingZone{Name: "europe", Countries: []string{"FR", "DE"}, IsActive: true, Methods: []shippingdomain.ShippingMethod{method}}
	zone.ID = 1
	rateEngine := shippingapp.NewRateEngine(&fixedZoneRepo{zones: []shippingdomain.ShippingZone{zone}})

	orderRepo := &fakeOrderRepo{}
	outbox := &fakeOutboxRepo{}
	addresses := &fakeAddressRepo{addresses: map[uint]*domain.Address{}}
	tx := &fakeTxRunner{repos: TxRepos{Orders: orderRepo, Outbox: outbox, Carts: cartRepo}}

	numbers := NewNumberGenerator("SO-", 100000, orderRepo)
	service := NewOrderService(orderRepo, addresses, aggregator, rateEngine, numbers, tx, "store.orders", nil)

	return &orderFixture{
		service:   service,
		cartRepo:  cartRepo,
		orderRepo: orderRepo,
		outbox:    outbox,
		addresses: addresses,
	}
}

func (f *orderFixture) seedUserCart(t *testing.T, userID string, productID uint, qty int) *cartdomain.Cart {
	t.Helper()
	cart := &cartdomain.Cart{UserID: &userID}
	if err := f.cartRepo.Save(context.Background(), cart); err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	cart.AddItem(productID, nil, qty)
	return cart
}

func (f *orderFixture) seedAddress(t *testing.T, id uint, userID, country string) {
	t.Helper()
	addr := &domain.Address{
		UserID:     userID,
		Name:       "Jean",
		Street:     "1 rue de la Paix",
		City:       "Paris",
		PostalCode: "75002",
		Country:    country,
	}
	addr.ID = id
	f.addresses.addresses[id] = addr
}

func TestPlaceOrderSnapshotsCartAndAppendsOutbox(t *testing.T) {
	f := newOrderFixture(t)
	f.seedUserCart(t, "u-1", 1, 2)
	f.seedAddress(t, 1, "u-1", "FR")

	order, err := f.service.PlaceOrder(context.Background(), cartapp.Identity{UserID: "u-1"}, &PlaceOrderRequest{
		ShippingAddressID: 1,
		ShippingMethodID:  7,
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	if order.OrderNumber != "SO-100001" {
		t.Errorf("order number = %s, want SO-100001", order.OrderNumber)
	}
	if order.Status != domain.StatusConfirmed {
		t.Errorf("status = %s, want CONFIRMED", order.Status)
	}
	if want := decimal.RequireFromString("24.90"); !order.Total.Equal(want) {
		t.Errorf("total = %s, want %s (subtotal 20.00 + shipping 4.90)", order.Total, want)
	}
	if len(order.Items) != 1 || order.Items[0].Quantity != 2 {
		t.Errorf("items snapshot = %+v, want one line qty 2", order.Items)
	}
	if order.TotalWeightGrams != 500 {
		t.Errorf("weight = %d, want 500", order.TotalWeightGrams)
	}

	// 购物车在下单事务里被清掉
	if _, err := f.cartRepo.GetByUserID(context.Background(), "u-1"); !errors.Is(err, cartdomain.ErrCartNotFound) {
		t.Errorf("cart survived order placement, err = %v", err)
	}

	// 同事务追加了发件箱事件
	if len(f.outbox.rows) != 1 {
		t.Fatalf("outbox rows = %d, want 1", len(f.outbox.rows))
	}
	row := f.outbox.rows[0]
	if row.Key != "SO-100001" || row.Topic != "store.orders" || row.Status != domain.OutboxPending {
		t.Errorf("outbox row = %+v, want pending store.orders keyed by order number", row)
	}
}

func TestPlaceOrderRequiresUser(t *testing.T) {
	f := newOrderFixture(t)
	_, err := f.service.PlaceOrder(context.Background(), cartapp.Identity{SessionToken: "tok"}, &PlaceOrderRequest{
		ShippingAddressID: 1,
		ShippingMethodID:  7,
	})
	if !errors.Is(err, ErrUserRequired) {
		t.Errorf("err = %v, want ErrUserRequired", err)
	}
}

func TestPlaceOrderRejectsForeignAddress(t *testing.T) {
	f := newOrderFixture(t)
	f.seedUserCart(t, "u-1", 1, 1)
	f.seedAddress(t, 1, "someone-else", "FR")

	_, err := f.service.PlaceOrder(context.Background(), cartapp.Identity{UserID: "u-1"}, &PlaceOrderRequest{
		ShippingAddressID: 1,
		ShippingMethodID:  7,
	})
	if !errors.Is(err, domain.ErrAddressNotFound) {
		t.Errorf("err = %v, want ErrAddressNotFound", err)
	}
}

func TestPlaceOrderRejectsMethodOutsideZone(t *testing.T) {
	f := newOrderFixture(t)
	f.seedUserCart(t, "u-1", 1, 1)
	f.seedAddress(t, 1, "u-1", "US")

	_, err := f.service.PlaceOrder(context.Background(), cartapp.Identity{UserID: "u-1"}, &PlaceOrderRequest{
		ShippingAddressID: 1,
		ShippingMethodID:  7,
	})
	if !errors.Is(err, shippingdomain.ErrMethodNotFound) {
		t.Errorf("err = %v, want ErrMethodNotFound", err)
	}
}

func TestPlaceOrderWithoutCart(t *testing.T) {
	f := newOrderFixture(t)
	f.seedAddress(t, 1, "u-1", "FR")

	_, err := f.service.PlaceOrder(context.Background(), cartapp.Identity{UserID: "u-1"}, &PlaceOrderRequest{
		ShippingAddressID: 1,
		ShippingMethodID:  7,
	})
	if !errors.Is(err, cartdomain.ErrCartNotFound) {
		t.Errorf("err = %v, want ErrCartNotFound", err)
	}
}

func TestPlaceOrderRegeneratesNumberOnConflict(t *testing.T) {
	f := newOrderFixture(t)
	f.seedUserCart(t, "u-1", 1, 1)
	f.seedAddress(t, 1, "u-1", "FR")

	// 第一次插入撞号，好比另一个实例刚用掉了 SO-100001
	f.orderRepo.dupLeft = 1

	order, err := f.service.PlaceOrder(context.Background(), cartapp.Identity{UserID: "u-1"}, &PlaceOrderRequest{
		ShippingAddressID: 1,
		ShippingMethodID:  7,
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if order.OrderNumber != "SO-100002" {
		t.Errorf("order number = %s, want SO-100002 after resync", order.OrderNumber)
	}
}

func TestPlaceOrderExhaustsNumberRetries(t *testing.T) {
	f := newOrderFixture(t)
	f.seedUserCart(t, "u-1", 1, 1)
	f.seedAddress(t, 1, "u-1", "FR")
	f.orderRepo.dupLeft = 3

	_, err := f.service.PlaceOrder(context.Background(), cartapp.Identity{UserID: "u-1"}, &PlaceOrderRequest{
		ShippingAddressID: 1,
		ShippingMethodID:  7,
	})
	if !errors.Is(err, domain.ErrNumberExhausted) {
		t.Errorf("err = %v, want ErrNumberExhausted", err)
	}
}
