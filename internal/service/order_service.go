// Package service contains the order lifecycle engine: the transaction
// coordinator that turns a create-order request into an atomic set of
// writes plus a broadcast event, and the guarded status transitions.
package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/tranqv/restaurant-pos/internal/broker"
	"github.com/tranqv/restaurant-pos/internal/model"
	"github.com/tranqv/restaurant-pos/internal/pricing"
	"github.com/tranqv/restaurant-pos/internal/queue"
	"github.com/tranqv/restaurant-pos/internal/repository"
)

// CustomerDirectory resolves customers by phone number.
type CustomerDirectory interface {
	GetByPhone(ctx context.Context, phone string) (*model.Customer, error)
}

// Catalog resolves products for pricing.  The order engine never
// writes to it.
type Catalog interface {
	GetByID(ctx context.Context, id uint64) (*model.Product, error)
}

// PaymentMethods resolves the configured payment methods.
type PaymentMethods interface {
	GetByName(ctx context.Context, name string) (*model.PaymentMethod, error)
	ListNames(ctx context.Context) ([]string, error)
}

// OrderStore is the persistence contract the coordinator runs its
// atomic units against.  The MySQL implementation lives in the
// repository package; tests substitute an in-memory one.
type OrderStore interface {
	CreateOrder(ctx context.Context, phone string, paymentMethodID uint64, build repository.BuildOrderFunc) (*model.Order, []model.OrderItem, error)
	TransitionStatus(ctx context.Context, orderID uint64, apply repository.ApplyStatusFunc) (*repository.StatusChange, error)
}

// TableLocator finds the table a customer currently occupies, used
// only to annotate broadcast events.
type TableLocator interface {
	FindByCustomer(ctx context.Context, phone string) (*model.Table, error)
}

// Mirror forwards an order_created event to a durable broker for
// audit/multi-instance consumers.  Failures are logged, never
// propagated.
type Mirror func(ctx context.Context, ev queue.OrderCreatedEvent) error

// InvalidPaymentMethodError reports an unknown payment method name and
// carries the configured names for the error message.
type InvalidPaymentMethodError struct {
	Name  string
	Valid []string
}

func (e *InvalidPaymentMethodError) Error() string {
	return fmt.Sprintf("invalid payment method %q; accepted methods: %s", e.Name, strings.Join(e.Valid, ", "))
}

// OrderService coordinates order creation and status transitions and
// publishes the resulting events.
type OrderService struct {
	customers CustomerDirectory
	catalog   Catalog
	payments  PaymentMethods
	store     OrderStore
	tables    TableLocator
	events    broker.Broker
	mirror    Mirror
}

// NewOrderService wires the coordinator.  mirror may be nil when no
// durable broker is configured.
func NewOrderService(customers CustomerDirectory, catalog Catalog, payments PaymentMethods, store OrderStore, tables TableLocator, events broker.Broker, mirror Mirror) *OrderService {
	if customers == nil || catalog == nil || payments == nil || store == nil || tables == nil || events == nil {
		panic("nil dependency passed to NewOrderService")
	}
	return &OrderService{
		customers: customers,
		catalog:   catalog,
		payments:  payments,
		store:     store,
		tables:    tables,
		events:    events,
		mirror:    mirror,
	}
}

// CreateOrderItem is one requested line of a create-order call.
type CreateOrderItem struct {
	ProductID uint64 `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
	Price     int64  `json:"price"`
	Note      string `json:"product_note"`
}

// CreateOrderRequest is the input of CreateOrder.
type CreateOrderRequest struct {
	CustomerPhone string            `json:"customer_phone"`
	Items         []CreateOrderItem `json:"items"`
	PaymentMethod string            `json:"payment_method"`
	UsePoints     bool              `json:"use_points"`
}

// CreateOrderResult is the summary returned to the caller after a
// successful creation, including the customer's updated loyalty state.
type CreateOrderResult struct {
	OrderID            uint64 `json:"order_id"`
	TotalAmount        int64  `json:"total_amount"`
	PointsEarned       int64  `json:"points_earned"`
	PointsUsed         int64  `json:"points_used"`
	PointsDiscount     int64  `json:"points_discount"`
	FinalAmount        int64  `json:"final_amount"`
	CustomerPoints     int64  `json:"customer_points"`
	CustomerTotalSpent int64  `json:"customer_total_spent"`
	PaymentMethod      string `json:"payment_method"`
	Status             string `json:"status"`
}

// CreateOrder runs the full creation flow: resolve the payment method
// and customer, price the items against the catalog, then commit the
// order, its lines and the loyalty update as one transaction.  The
// loyalty redemption is computed from the customer balance read under
// the row lock, not from the earlier unlocked read, so concurrent
// orders for the same customer serialize correctly.  After commit the
// order_created event is published to the order_updates topic and
// mirrored to the durable broker.  Any failure before commit leaves no
// side effects.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	pm, err := s.payments.GetByName(ctx, req.PaymentMethod)
	if err != nil {
		if valid, lerr := s.payments.ListNames(ctx); lerr == nil {
			return nil, &InvalidPaymentMethodError{Name: req.PaymentMethod, Valid: valid}
		}
		return nil, err
	}

	// Existence check up front so a missing customer fails before any
	// pricing work; the authoritative loyalty read happens under the
	// lock inside the transaction.
	if _, err := s.customers.GetByPhone(ctx, req.CustomerPhone); err != nil {
		return nil, err
	}

	lines := make([]pricing.Line, 0, len(req.Items))
	for _, it := range req.Items {
		product, err := s.catalog.GetByID(ctx, it.ProductID)
		if err != nil {
			return nil, err
		}
		size := it.Size
		if size == "" {
			size = model.SizeDefault
		}
		lines = append(lines, pricing.Line{
			Product:  *product,
			Quantity: it.Quantity,
			Size:     size,
			Price:    it.Price,
			Note:     it.Note,
		})
	}
	priced, total, err := pricing.PriceLines(lines)
	if err != nil {
		return nil, err
	}

	var loyalty pricing.Loyalty
	var lockedCustomer model.Customer
	order, _, err := s.store.CreateOrder(ctx, req.CustomerPhone, pm.ID, func(customer *model.Customer) (*model.Order, []model.OrderItem, error) {
		lockedCustomer = *customer
		loyalty = pricing.ApplyLoyalty(total, customer.Points, req.UsePoints)
		o := &model.Order{
			CustomerPhone:  customer.Phone,
			TotalAmount:    total,
			PointsEarned:   loyalty.PointsEarned,
			PointsUsed:     loyalty.PointsUsed,
			PointsDiscount: loyalty.PointsDiscount,
			FinalAmount:    loyalty.FinalAmount,
			PaymentMethod:  pm.Name,
			Status:         model.StatusPending,
		}
		items := make([]model.OrderItem, 0, len(priced))
		for _, ln := range priced {
			items = append(items, model.OrderItem{
				ProductID: ln.Product.ID,
				Quantity:  ln.Quantity,
				Price:     ln.Price,
				Size:      ln.Size,
				Note:      ln.Note,
			})
		}
		return o, items, nil
	})
	if err != nil {
		return nil, err
	}

	s.publishCreated(ctx, order)

	return &CreateOrderResult{
		OrderID:            order.ID,
		TotalAmount:        order.TotalAmount,
		PointsEarned:       order.PointsEarned,
		PointsUsed:         order.PointsUsed,
		PointsDiscount:     order.PointsDiscount,
		FinalAmount:        order.FinalAmount,
		CustomerPoints:     lockedCustomer.Points + loyalty.PointsEarned - loyalty.PointsUsed,
		CustomerTotalSpent: lockedCustomer.TotalSpent + loyalty.FinalAmount,
		PaymentMethod:      order.PaymentMethod,
		Status:             string(order.Status),
	}, nil
}

// publishCreated builds the order_created event, annotates it with the
// customer's current table when there is one, fans it out to live
// subscribers and mirrors it to the durable broker.  Lookup and
// delivery problems are logged only; the order is already committed.
func (s *OrderService) publishCreated(ctx context.Context, order *model.Order) {
	ev := queue.OrderCreatedEvent{
		Type:           "order_created",
		OrderID:        order.ID,
		Status:         string(order.Status),
		PaymentMethod:  order.PaymentMethod,
		OrderDate:      order.OrderDate.UTC().Format(time.RFC3339),
		TotalAmount:    order.TotalAmount,
		PointsEarned:   order.PointsEarned,
		PointsUsed:     order.PointsUsed,
		PointsDiscount: order.PointsDiscount,
		FinalAmount:    order.FinalAmount,
		CustomerPhone:  order.CustomerPhone,
	}
	table, err := s.tables.FindByCustomer(ctx, order.CustomerPhone)
	if err != nil {
		log.Printf("order-service: table lookup for order %d failed: %v", order.ID, err)
	} else if table != nil {
		ev.Table = &queue.TableRef{ID: table.ID, Name: table.Name}
	}

	s.events.Publish(broker.TopicOrderUpdates, ev)
	if s.mirror != nil {
		if err := s.mirror(ctx, ev); err != nil {
			log.Printf("order-service: mirror publish for order %d failed: %v", order.ID, err)
		}
	}
}

// TransitionStatus moves an order to newStatus if the state machine
// allows it, returning the old and new status for audit.  The check
// and the update run under a row lock in one transaction.  On success
// an event is published to the order_status topic.
func (s *OrderService) TransitionStatus(ctx context.Context, orderID uint64, newStatus string) (*repository.StatusChange, error) {
	change, err := s.store.TransitionStatus(ctx, orderID, func(current model.OrderStatus) (model.OrderStatus, error) {
		next, err := model.ParseStatus(newStatus)
		if err != nil {
			return "", err
		}
		return current.Transition(next)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(broker.TopicOrderStatus, queue.OrderStatusEvent{
		OrderID:       change.OrderID,
		OldStatus:     string(change.Old),
		NewStatus:     string(change.New),
		CustomerPhone: change.CustomerPhone,
		Message:       fmt.Sprintf("Order #%d is now %s.", change.OrderID, change.New),
	})
	return change, nil
}
