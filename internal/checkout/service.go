package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chowlabs/chow-backend/internal/orders"
	pkgcheckout "github.com/chowlabs/chow-backend/pkg/checkout"
	"github.com/chowlabs/chow-backend/pkg/config"
	"github.com/chowlabs/chow-backend/pkg/db/models"
	"github.com/chowlabs/chow-backend/pkg/delhivery"
	"github.com/chowlabs/chow-backend/pkg/enums"
	pkgerrors "github.com/chowlabs/chow-backend/pkg/errors"
	"github.com/chowlabs/chow-backend/pkg/logger"
	"github.com/chowlabs/chow-backend/pkg/pincodes"
	"github.com/chowlabs/chow-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// carrier answers serviceability and rate questions for remote pincodes.
type carrier interface {
	CheckPincode(ctx context.Context, pincode string) (*delhivery.PincodeInfo, error)
	CalculateRate(ctx context.Context, deliveryPincode string, weightGrams int) (*delhivery.Rate, error)
}

// distanceEstimator measures the riding distance for local deliveries.
type distanceEstimator interface {
	EstimateKm(ctx context.Context, fromQuery, toQuery string) (float64, error)
}

// Service prices carts and creates pending orders. It never touches stock or
// payment state; those move only when the payment is confirmed.
type Service interface {
	ListItems(ctx context.Context) ([]models.Item, error)
	QuoteDelivery(ctx context.Context, input QuoteInput) (*Quote, error)
	CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error)
}

type service struct {
	items    ItemsRepository
	orders   orders.Repository
	tx       txRunner
	carrier  carrier
	distance distanceEstimator
	cfg      config.DeliveryConfig
	log      *logger.Logger
	now      func() time.Time
}

// NewService builds the checkout service with the required dependencies.
func NewService(items ItemsRepository, ordersRepo orders.Repository, tx txRunner, courier carrier, distance distanceEstimator, cfg config.DeliveryConfig, log *logger.Logger) (Service, error) {
	if items == nil {
		return nil, fmt.Errorf("items repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if courier == nil {
		return nil, fmt.Errorf("carrier client required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		items:    items,
		orders:   ordersRepo,
		tx:       tx,
		carrier:  courier,
		distance: distance,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}, nil
}

func (s *service) ListItems(ctx context.Context) ([]models.Item, error) {
	items, err := s.items.ListActiveItems(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list items")
	}
	return items, nil
}

func (s *service) QuoteDelivery(ctx context.Context, input QuoteInput) (*Quote, error) {
	if err := input.Address.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery address")
	}

	_, lines, err := s.priceLines(ctx, s.items, input.Lines)
	if err != nil {
		return nil, err
	}
	return s.quoteFor(ctx, input.Address, lines)
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if err := input.Address.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery address")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		items := s.items.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)

		catalog, lines, err := s.priceLines(ctx, items, input.Lines)
		if err != nil {
			return err
		}

		quote, err := s.quoteFor(ctx, input.Address, lines)
		if err != nil {
			return err
		}

		order := &models.Order{
			ID:               uuid.New(),
			CustomerID:       input.CustomerID,
			Currency:         "INR",
			PaymentMode:      "PREPAID",
			SubtotalPaise:    quote.SubtotalPaise,
			TaxPaise:         quote.TaxPaise,
			ShippingPaise:    quote.ShippingPaise,
			TotalPaise:       quote.TotalPaise,
			PaymentStatus:    enums.PaymentStatusPending,
			DeliveryStatus:   enums.DeliveryStatusPending,
			Status:           enums.OrderStatusPending,
			DeliveryProvider: quote.Provider,
			DeliveryAddress:  input.Address,
			Version:          1,
		}
		if _, err := ordersRepo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		orderItems := make([]models.OrderItem, 0, len(input.Lines))
		for _, line := range input.Lines {
			item := catalog[line.ItemID]
			orderItems = append(orderItems, models.OrderItem{
				ID:              uuid.New(),
				OrderID:         order.ID,
				ItemID:          item.ID,
				Name:            item.Name,
				Qty:             line.Qty,
				UnitPricePaise:  item.PricePaise,
				UnitWeightGrams: item.WeightGrams,
				TotalPaise:      item.PricePaise * int64(line.Qty),
			})
		}
		if err := ordersRepo.CreateOrderItems(ctx, orderItems); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}

		order.Items = orderItems
		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// priceLines loads and validates the cart against the catalog. Inactive
// items and short stock fail here, before any money math.
func (s *service) priceLines(ctx context.Context, items ItemsRepository, cart []CartLine) (map[uuid.UUID]models.Item, []pkgcheckout.Line, error) {
	if len(cart) == 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	ids := make([]uuid.UUID, 0, len(cart))
	for _, line := range cart {
		if line.Qty <= 0 {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive").
				WithDetails(map[string]any{"item_id": line.ItemID})
		}
		ids = append(ids, line.ItemID)
	}

	rows, err := items.FindItemsByIDs(ctx, ids)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load items")
	}
	catalog := make(map[uuid.UUID]models.Item, len(rows))
	for _, row := range rows {
		catalog[row.ID] = row
	}

	lines := make([]pkgcheckout.Line, 0, len(cart))
	for _, line := range cart {
		item, ok := catalog[line.ItemID]
		if !ok || !item.Active {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not available").
				WithDetails(map[string]any{"item_id": line.ItemID})
		}
		if item.StockQty < line.Qty {
			return nil, nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for item").
				WithDetails(map[string]any{
					"item_id":   line.ItemID,
					"requested": line.Qty,
					"available": item.StockQty,
				})
		}
		lines = append(lines, pkgcheckout.Line{
			UnitPricePaise:  item.PricePaise,
			UnitWeightGrams: item.WeightGrams,
			Qty:             line.Qty,
		})
	}
	return catalog, lines, nil
}

// quoteFor resolves the provider for the destination and prices shipping.
// Local pincodes are fulfilled by our own riders; everything else goes to
// the carrier if it serves the pincode.
func (s *service) quoteFor(ctx context.Context, address types.Address, lines []pkgcheckout.Line) (*Quote, error) {
	weight := 0
	for _, line := range lines {
		weight += line.UnitWeightGrams * line.Qty
	}
	if weight <= 0 {
		weight = s.cfg.DefaultWeightGrams
	}

	var provider enums.DeliveryProvider
	var shipping int64

	if pincodes.IsLocal(address.Pincode) {
		provider = enums.DeliveryProviderSelfHandled
		shipping = pkgcheckout.LocalDeliveryFee(s.cfg, s.localDistanceKm(ctx, address), weight)
	} else {
		info, err := s.carrier.CheckPincode(ctx, address.Pincode)
		if err != nil {
			return nil, err
		}
		if !info.Serviceable {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "pincode not serviceable").
				WithDetails(map[string]any{"pincode": address.Pincode})
		}

		rate, err := s.carrier.CalculateRate(ctx, address.Pincode, weight)
		if err != nil {
			return nil, err
		}
		provider = enums.DeliveryProviderCarrier
		shipping = rate.TotalPaise
	}

	totals := pkgcheckout.ComputeTotals(lines, shipping)
	return &Quote{
		Provider:      provider,
		SubtotalPaise: totals.SubtotalPaise,
		TaxPaise:      totals.TaxPaise,
		ShippingPaise: totals.ShippingPaise,
		TotalPaise:    totals.TotalPaise,
		WeightGrams:   totals.WeightGrams,
	}, nil
}

// localDistanceKm asks the routing stack for the riding distance. Estimation
// failures price as zero distance; the base fee still applies.
func (s *service) localDistanceKm(ctx context.Context, address types.Address) float64 {
	if s.distance == nil {
		return 0
	}

	origin := fmt.Sprintf("%s, India", s.cfg.BasePincode)
	destination := fmt.Sprintf("%s, %s, %s, India", address.Street, address.City, address.Pincode)
	km, err := s.distance.EstimateKm(ctx, origin, destination)
	if err != nil {
		s.log.Warn(ctx, "distance estimate failed, charging base radius: "+err.Error())
		return 0
	}
	return km
}
