package checkout

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/chowlabs/chow-backend/internal/orders"
	"github.com/chowlabs/chow-backend/pkg/config"
	"github.com/chowlabs/chow-backend/pkg/db/models"
	"github.com/chowlabs/chow-backend/pkg/delhivery"
	"github.com/chowlabs/chow-backend/pkg/enums"
	pkgerrors "github.com/chowlabs/chow-backend/pkg/errors"
	"github.com/chowlabs/chow-backend/pkg/logger"
	"github.com/chowlabs/chow-backend/pkg/pagination"
	"github.com/chowlabs/chow-backend/pkg/types"
)

type stubItemsRepo struct {
	items map[uuid.UUID]models.Item
}

func (s *stubItemsRepo) WithTx(tx *gorm.DB) ItemsRepository { return s }

func (s *stubItemsRepo) FindItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Item, error) {
	var out []models.Item
	for _, id := range ids {
		if item, ok := s.items[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *stubItemsRepo) ListActiveItems(ctx context.Context) ([]models.Item, error) {
	var out []models.Item
	for _, item := range s.items {
		if item.Active {
			out = append(out, item)
		}
	}
	return out, nil
}

type stubOrdersRepo struct {
	createdOrders []*models.Order
	createdItems  []models.OrderItem
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) orders.Repository { return s }

func (s *stubOrdersRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	s.createdOrders = append(s.createdOrders, order)
	return order, nil
}

func (s *stubOrdersRepo) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	s.createdItems = append(s.createdItems, items...)
	return nil
}

func (s *stubOrdersRepo) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) FindOrderByWaybill(ctx context.Context, waybill string) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) ListOrders(ctx context.Context, params orders.ListQuery) ([]models.Order, *pagination.Cursor, error) {
	return nil, nil, nil
}

func (s *stubOrdersRepo) UpdateOrderGuarded(ctx context.Context, orderID uuid.UUID, version int, updates map[string]any) error {
	return nil
}

func (s *stubOrdersRepo) ClaimRestock(ctx context.Context, orderID uuid.UUID) (bool, error) {
	return false, nil
}

func (s *stubOrdersRepo) ClaimCancel(ctx context.Context, orderID uuid.UUID) (bool, error) {
	return false, nil
}

func (s *stubOrdersRepo) FindShipmentRetryCandidates(ctx context.Context, maxAttempts, limit int) ([]models.Order, error) {
	return nil, nil
}

func (s *stubOrdersRepo) FindNeedingIntervention(ctx context.Context, maxAttempts int, params pagination.Params) ([]models.Order, *pagination.Cursor, error) {
	return nil, nil, nil
}

func (s *stubOrdersRepo) CreatePaymentAttempt(ctx context.Context, attempt *models.PaymentAttempt) error {
	return nil
}

func (s *stubOrdersRepo) UpdatePaymentAttempt(ctx context.Context, attemptID uuid.UUID, updates map[string]any) error {
	return nil
}

func (s *stubOrdersRepo) FindPaymentAttemptByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.PaymentAttempt, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) FindPaymentAttemptByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*models.PaymentAttempt, error) {
	return nil, gorm.ErrRecordNotFound
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubCarrier struct {
	serviceable bool
	ratePaise   int64
	rateErr     error
}

func (s *stubCarrier) CheckPincode(ctx context.Context, pincode string) (*delhivery.PincodeInfo, error) {
	return &delhivery.PincodeInfo{Serviceable: s.serviceable}, nil
}

func (s *stubCarrier) CalculateRate(ctx context.Context, deliveryPincode string, weightGrams int) (*delhivery.Rate, error) {
	if s.rateErr != nil {
		return nil, s.rateErr
	}
	return &delhivery.Rate{TotalPaise: s.ratePaise, Currency: "INR"}, nil
}

type stubDistance struct {
	km  float64
	err error
}

func (s *stubDistance) EstimateKm(ctx context.Context, fromQuery, toQuery string) (float64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.km, nil
}

func testConfig() config.DeliveryConfig {
	return config.DeliveryConfig{
		BasePincode:       "273001",
		LocalBaseFeePaise: 3000,
		LocalPerKmPaise:   500,
		LocalPerKgPaise:   1000,
		LocalFreeKm:       2,
	}
}

func localAddress() types.Address {
	return types.Address{
		FirstName: "Asha",
		LastName:  "Verma",
		Street:    "14 MG Road",
		City:      "Gorakhpur",
		State:     "UP",
		Pincode:   "273001",
		Phone:     "9876543210",
	}
}

func remoteAddress() types.Address {
	addr := localAddress()
	addr.City = "Lucknow"
	addr.Pincode = "226001"
	return addr
}

func seedCatalog() (*stubItemsRepo, uuid.UUID, uuid.UUID) {
	kitID := uuid.New()
	boxID := uuid.New()
	repo := &stubItemsRepo{items: map[uuid.UUID]models.Item{
		kitID: {ID: kitID, Name: "Paneer Tikka Kit", PricePaise: 25000, WeightGrams: 400, StockQty: 10, Active: true},
		boxID: {ID: boxID, Name: "Masala Chai Box", PricePaise: 10000, WeightGrams: 500, StockQty: 2, Active: true},
	}}
	return repo, kitID, boxID
}

func newTestService(t *testing.T, items ItemsRepository, ordersRepo orders.Repository, courier carrier, distance distanceEstimator) Service {
	t.Helper()

	log := logger.New(logger.Options{Level: zerolog.Disabled, Output: io.Discard})
	svc, err := NewService(items, ordersRepo, stubTxRunner{}, courier, distance, testConfig(), log)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestQuoteDeliveryLocalPincode(t *testing.T) {
	items, kitID, boxID := seedCatalog()
	svc := newTestService(t, items, &stubOrdersRepo{}, &stubCarrier{}, &stubDistance{km: 5})

	quote, err := svc.QuoteDelivery(context.Background(), QuoteInput{
		Address: localAddress(),
		Lines:   []CartLine{{ItemID: kitID, Qty: 2}, {ItemID: boxID, Qty: 1}},
	})
	if err != nil {
		t.Fatalf("QuoteDelivery: %v", err)
	}

	if quote.Provider != enums.DeliveryProviderSelfHandled {
		t.Fatalf("local pincode should be self handled, got %s", quote.Provider)
	}
	// base 3000 + ceil(5-2)=3 km * 500 + ceil(1.3kg)=2 kg * 1000 = 6500.
	if quote.ShippingPaise != 6500 {
		t.Fatalf("shipping = %d, want 6500", quote.ShippingPaise)
	}
	if quote.SubtotalPaise != 60000 {
		t.Fatalf("subtotal = %d, want 60000", quote.SubtotalPaise)
	}
}

func TestQuoteDeliveryCarrierPincode(t *testing.T) {
	items, kitID, _ := seedCatalog()
	svc := newTestService(t, items, &stubOrdersRepo{}, &stubCarrier{serviceable: true, ratePaise: 8800}, &stubDistance{})

	quote, err := svc.QuoteDelivery(context.Background(), QuoteInput{
		Address: remoteAddress(),
		Lines:   []CartLine{{ItemID: kitID, Qty: 1}},
	})
	if err != nil {
		t.Fatalf("QuoteDelivery: %v", err)
	}
	if quote.Provider != enums.DeliveryProviderCarrier {
		t.Fatalf("remote pincode should be carrier, got %s", quote.Provider)
	}
	if quote.ShippingPaise != 8800 {
		t.Fatalf("shipping = %d, want carrier rate 8800", quote.ShippingPaise)
	}
}

func TestQuoteDeliveryUnserviceablePincode(t *testing.T) {
	items, kitID, _ := seedCatalog()
	svc := newTestService(t, items, &stubOrdersRepo{}, &stubCarrier{serviceable: false}, &stubDistance{})

	_, err := svc.QuoteDelivery(context.Background(), QuoteInput{
		Address: remoteAddress(),
		Lines:   []CartLine{{ItemID: kitID, Qty: 1}},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestQuoteDeliveryDistanceFailureStillPrices(t *testing.T) {
	items, kitID, _ := seedCatalog()
	svc := newTestService(t, items, &stubOrdersRepo{}, &stubCarrier{}, &stubDistance{err: fmt.Errorf("osrm down")})

	quote, err := svc.QuoteDelivery(context.Background(), QuoteInput{
		Address: localAddress(),
		Lines:   []CartLine{{ItemID: kitID, Qty: 1}},
	})
	if err != nil {
		t.Fatalf("QuoteDelivery: %v", err)
	}
	// base 3000 + 0 km + ceil(0.4kg)=1 kg * 1000.
	if quote.ShippingPaise != 4000 {
		t.Fatalf("shipping = %d, want 4000", quote.ShippingPaise)
	}
}

func TestQuoteDeliveryInsufficientStock(t *testing.T) {
	items, _, boxID := seedCatalog()
	svc := newTestService(t, items, &stubOrdersRepo{}, &stubCarrier{}, &stubDistance{})

	_, err := svc.QuoteDelivery(context.Background(), QuoteInput{
		Address: localAddress(),
		Lines:   []CartLine{{ItemID: boxID, Qty: 5}},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
}

func TestCreateOrderSnapshotsCart(t *testing.T) {
	items, kitID, boxID := seedCatalog()
	ordersRepo := &stubOrdersRepo{}
	svc := newTestService(t, items, ordersRepo, &stubCarrier{}, &stubDistance{km: 1})

	customerID := uuid.New()
	order, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID: customerID,
		Address:    localAddress(),
		Lines:      []CartLine{{ItemID: kitID, Qty: 2}, {ItemID: boxID, Qty: 1}},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if order.Status != enums.OrderStatusPending {
		t.Fatalf("new order must be pending, got %s", order.Status)
	}
	if order.DeliveryStatus != enums.DeliveryStatusPending {
		t.Fatalf("new order delivery signal must be PENDING, got %s", order.DeliveryStatus)
	}
	if order.DeliveryProvider != enums.DeliveryProviderSelfHandled {
		t.Fatalf("provider = %s, want self handled", order.DeliveryProvider)
	}
	if order.DeliveryAddress.Pincode != "273001" {
		t.Fatalf("address snapshot missing")
	}
	if len(ordersRepo.createdItems) != 2 {
		t.Fatalf("expected 2 order lines, got %d", len(ordersRepo.createdItems))
	}
	if ordersRepo.createdItems[0].UnitPricePaise != 25000 {
		t.Fatalf("line price not snapshotted: %+v", ordersRepo.createdItems[0])
	}
	if order.TotalPaise != order.SubtotalPaise+order.TaxPaise+order.ShippingPaise {
		t.Fatalf("totals do not add up: %+v", order)
	}
}

func TestCreateOrderUnknownItem(t *testing.T) {
	items, _, _ := seedCatalog()
	svc := newTestService(t, items, &stubOrdersRepo{}, &stubCarrier{}, &stubDistance{})

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID: uuid.New(),
		Address:    localAddress(),
		Lines:      []CartLine{{ItemID: uuid.New(), Qty: 1}},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
