package application

import (
	"bytes"
	"context"
	"errors"
	"testing"

	orderdomain "github.com/wyfcoding/onlinestore/internal/order/domain"
	"github.com/wyfcoding/onlinestore/internal/shipment/domain"
	"github.com/wyfcoding/onlinestore/pkg/config"
)

type fakeOrderRepo struct {
	orders map[uint]*orderdomain.Order
}

func (f *fakeOrderRepo) Create(_ context.Context, _ *orderdomain.Order) error { return nil }

func (f *fakeOrderRepo) GetByID(_ context.Context, id uint) (*orderdomain.Order, error) {
	if o, ok := f.orders[id]; ok {
		return o, nil
	}
	return nil, orderdomain.ErrOrderNotFound
}

func (f *fakeOrderRepo) GetByNumber(_ context.Context, _ string) (*orderdomain.Order, error) {
	return nil, orderdomain.ErrOrderNotFound
}

func (f *fakeOrderRepo) ListByUser(_ context.Context, _ string, _, _ int) ([]orderdomain.Order, error) {
	return nil, nil
}

func (f *fakeOrderRepo) LastOrderNumber(_ context.Context) (string, error) { return "", nil }

func (f *fakeOrderRepo) UpdateShipment(_ context.Context, orderID uint, number string) error {
	o, ok := f.orders[orderID]
	if !ok {
		return orderdomain.ErrOrderNotFound
	}
	o.ShipmentNumber = &number
	o.Status = orderdomain.StatusShipped
	return nil
}

type fakeCarrier struct {
	bookings     int
	labelFetches int
	createErr    error
	fetchErr     error
}

func (f *fakeCarrier) CreateShipment(_ context.Context, _ *domain.ShipmentRequest) (string, error) {
	f.bookings++
	if f.createErr != nil {
		return "", f.createErr
	}
	return "SHIP-001", nil
}

func (f *fakeCarrier) FetchLabel(_ context.Context, _ string) ([]byte, error) {
	f.labelFetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return []byte("%PDF-1.4 label"), nil
}

func storeAddr() config.StoreAddressConfig {
	return config.StoreAddressConfig{
		Name: "Online Store", Street: "1 Warehouse Way", City: "Lyon",
		PostalCode: "69001", Country: "FR",
	}
}

func seedOrder(id uint, pickupPoint, shipmentNumber string) *fakeOrderRepo {
	order := &orderdomain.Order{
		OrderNumber:      "SO-100001",
		UserID:           "u-1",
		Status:           orderdomain.StatusConfirmed,
		TotalWeightGrams: 500,
	}
	order.ID = id
	if pickupPoint != "" {
		order.PickupPointID = &pickupPoint
	}
	if shipmentNumber != "" {
		order.ShipmentNumber = &shipmentNumber
		order.Status = orderdomain.StatusShipped
	}
	return &fakeOrderRepo{orders: map[uint]*orderdomain.Order{id: order}}
}

func TestLabelBooksThenFetches(t *testing.T) {
	repo := seedOrder(1, "PP-42", "")
	carrier := &fakeCarrier{}
	svc := NewLabelService(repo, carrier, storeAddr(), nil)

	label, err := svc.Label(context.Background(), 1, true)
	if err != nil {
		t.Fatalf("label: %v", err)
	}

	if carrier.bookings != 1 || carrier.labelFetches != 1 {
		t.Errorf("bookings = %d, fetches = %d, want 1/1", carrier.bookings, carrier.labelFetches)
	}
	if label.Filename != "label-SO-100001.pdf" {
		t.Errorf("filename = %s, want label-SO-100001.pdf", label.Filename)
	}
	if !bytes.HasPrefix(label.PDF, []byte("%PDF")) {
		t.Errorf("label PDF bytes missing")
	}

	order := repo.orders[1]
	if order.ShipmentNumber == nil || *order.ShipmentNumber != "SHIP-001" {
		t.Errorf("shipment number not persisted: %v", order.ShipmentNumber)
	}
	if order.Status != orderdomain.StatusShipped {
		t.Errorf("status = %s, want SHIPPED", order.Status)
	}
}

// 订舱只发生一次，标签可反复取。
func TestLabelSecondCreateIsIdempotent(t *testing.T) {
	repo := seedOrder(1, "PP-42", "")
	carrier := &fakeCarrier{}
	svc := NewLabelService(repo, carrier, storeAddr(), nil)

	if _, err := svc.Label(context.Background(), 1, true); err != nil {
		t.Fatalf("first label: %v", err)
	}
	if _, err := svc.Label(context.Background(), 1, true); err != nil {
		t.Fatalf("second label: %v", err)
	}

	if carrier.bookings != 1 {
		t.Errorf("bookings = %d, want exactly 1", carrier.bookings)
	}
	if carrier.labelFetches != 2 {
		t.Errorf("fetches = %d, want 2", carrier.labelFetches)
	}
}

// 缺取货点时不触碰承运商接口。
func TestLabelMissingPickupPointSkipsCarrier(t *testing.T) {
	repo := seedOrder(1, "", "")
	carrier := &fakeCarrier{}
	svc := NewLabelService(repo, carrier, storeAddr(), nil)

	_, err := svc.Label(context.Background(), 1, true)
	if !errors.Is(err, domain.ErrMissingPickupPoint) {
		t.Fatalf("err = %v, want ErrMissingPickupPoint", err)
	}
	if carrier.bookings != 0 || carrier.labelFetches != 0 {
		t.Errorf("carrier touched: bookings = %d, fetches = %d", carrier.bookings, carrier.labelFetches)
	}
}

func TestLabelWithoutShipmentAndNoCreate(t *testing.T) {
	repo := seedOrder(1, "PP-42", "")
	svc := NewLabelService(repo, &fakeCarrier{}, storeAddr(), nil)

	_, err := svc.Label(context.Background(), 1, false)
	if !errors.Is(err, domain.ErrNoShipmentYet) {
		t.Errorf("err = %v, want ErrNoShipmentYet", err)
	}
}

func TestLabelFetchOnlyWhenAlreadyBooked(t *testing.T) {
	repo := seedOrder(1, "PP-42", "SHIP-777")
	carrier := &fakeCarrier{}
	svc := NewLabelService(repo, carrier, storeAddr(), nil)

	if _, err := svc.Label(context.Background(), 1, false); err != nil {
		t.Fatalf("label: %v", err)
	}
	if carrier.bookings != 0 || carrier.labelFetches != 1 {
		t.Errorf("bookings = %d, fetches = %d, want 0/1", carrier.bookings, carrier.labelFetches)
	}
}

func TestLabelUnknownOrder(t *testing.T) {
	svc := NewLabelService(&fakeOrderRepo{orders: map[uint]*orderdomain.Order{}}, &fakeCarrier{}, storeAddr(), nil)

	_, err := svc.Label(context.Background(), 99, true)
	if !errors.Is(err, orderdomain.ErrOrderNotFound) {
		t.Errorf("err = %v, want ErrOrderNotFound", err)
	}
}

func TestLabelPropagatesCarrierErrors(t *testing.T) {
	repo := seedOrder(1, "PP-42", "")
	carrier := &fakeCarrier{createErr: domain.ErrCarrierUnavailable}
	svc := NewLabelService(repo, carrier, storeAddr(), nil)

	_, err := svc.Label(context.Background(), 1, true)
	if !errors.Is(err, domain.ErrCarrierUnavailable) {
		t.Fatalf("err = %v, want ErrCarrierUnavailable", err)
	}
	// 订舱失败不得落发运号
	if repo.orders[1].ShipmentNumber != nil {
		t.Errorf("shipment number persisted despite booking failure")
	}
}
