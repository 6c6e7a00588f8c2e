package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranqv/restaurant-pos/internal/broker"
	"github.com/tranqv/restaurant-pos/internal/model"
	"github.com/tranqv/restaurant-pos/internal/pricing"
	"github.com/tranqv/restaurant-pos/internal/queue"
	"github.com/tranqv/restaurant-pos/internal/repository"
)

// memStore is an in-memory stand-in for the MySQL order store.  The
// mutex plays the role of the customer row lock: build callbacks run
// serialized against a mutable customer record, which is exactly the
// concurrency contract the real repository provides.
type memStore struct {
	mu        sync.Mutex
	customers map[string]*model.Customer
	orders    map[uint64]*model.Order
	nextID    uint64
}

func newMemStore(customers ...*model.Customer) *memStore {
	s := &memStore{
		customers: make(map[string]*model.Customer),
		orders:    make(map[uint64]*model.Order),
	}
	for _, c := range customers {
		s.customers[c.Phone] = c
	}
	return s
}

func (s *memStore) GetByPhone(_ context.Context, phone string) (*model.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[phone]
	if !ok {
		return nil, repository.ErrCustomerNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *memStore) CreateOrder(_ context.Context, phone string, _ uint64, build repository.BuildOrderFunc) (*model.Order, []model.OrderItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[phone]
	if !ok {
		return nil, nil, repository.ErrCustomerNotFound
	}
	locked := *c
	order, items, err := build(&locked)
	if err != nil {
		return nil, nil, err
	}
	s.nextID++
	order.ID = s.nextID
	order.OrderDate = time.Now()
	s.orders[order.ID] = order
	c.Points += order.PointsEarned - order.PointsUsed
	c.TotalSpent += order.FinalAmount
	cp := *order
	return &cp, items, nil
}

func (s *memStore) TransitionStatus(_ context.Context, orderID uint64, apply repository.ApplyStatusFunc) (*repository.StatusChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	next, err := apply(o.Status)
	if err != nil {
		return nil, err
	}
	old := o.Status
	o.Status = next
	return &repository.StatusChange{
		OrderID:       orderID,
		Old:           old,
		New:           next,
		CustomerPhone: o.CustomerPhone,
	}, nil
}

func (s *memStore) customer(t *testing.T, phone string) model.Customer {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[phone]
	require.True(t, ok)
	return *c
}

type memCatalog map[uint64]model.Product

func (c memCatalog) GetByID(_ context.Context, id uint64) (*model.Product, error) {
	p, ok := c[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return &p, nil
}

type memPayments []model.PaymentMethod

func (p memPayments) GetByName(_ context.Context, name string) (*model.PaymentMethod, error) {
	for _, pm := range p {
		if pm.Name == name {
			cp := pm
			return &cp, nil
		}
	}
	return nil, repository.ErrPaymentMethodNotFound
}

func (p memPayments) ListNames(context.Context) ([]string, error) {
	names := make([]string, 0, len(p))
	for _, pm := range p {
		names = append(names, pm.Name)
	}
	return names, nil
}

type memTables struct {
	table *model.Table
}

func (t *memTables) FindByCustomer(context.Context, string) (*model.Table, error) {
	return t.table, nil
}

type fixture struct {
	store   *memStore
	events  *broker.Memory
	tables  *memTables
	service *OrderService

	mirrorMu sync.Mutex
	mirror   []queue.OrderCreatedEvent
}

func newFixture(t *testing.T, customers ...*model.Customer) *fixture {
	t.Helper()
	f := &fixture{
		store:  newMemStore(customers...),
		events: broker.NewMemory(),
		tables: &memTables{},
	}
	catalog := memCatalog{
		1: {ID: 1, Name: "pho bo", Price: 50_000},
		2: {ID: 2, Name: "cafe sua", Price: 25_000, HasLargeSize: true},
	}
	payments := memPayments{{ID: 1, Name: "cash"}, {ID: 2, Name: "card"}}
	mirror := func(_ context.Context, ev queue.OrderCreatedEvent) error {
		f.mirrorMu.Lock()
		defer f.mirrorMu.Unlock()
		f.mirror = append(f.mirror, ev)
		return nil
	}
	f.service = NewOrderService(f.store, catalog, payments, f.store, f.tables, f.events, mirror)
	return f
}

func regular(points int64) *model.Customer {
	return &model.Customer{Phone: "0901234567", Name: "Lan", Points: points}
}

func validRequest() CreateOrderRequest {
	return CreateOrderRequest{
		CustomerPhone: "0901234567",
		PaymentMethod: "cash",
		Items: []CreateOrderItem{
			{ProductID: 1, Quantity: 2, Size: model.SizeDefault, Price: 50_000},
		},
	}
}

func TestCreateOrderHappyPath(t *testing.T) {
	f := newFixture(t, regular(0))
	sub := f.events.Subscribe(broker.TopicOrderUpdates)

	res, err := f.service.CreateOrder(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, int64(100_000), res.TotalAmount)
	assert.Equal(t, int64(10), res.PointsEarned)
	assert.Zero(t, res.PointsUsed)
	assert.Equal(t, int64(100_000), res.FinalAmount)
	assert.Equal(t, int64(10), res.CustomerPoints)
	assert.Equal(t, int64(100_000), res.CustomerTotalSpent)
	assert.Equal(t, string(model.StatusPending), res.Status)

	c := f.store.customer(t, "0901234567")
	assert.Equal(t, int64(10), c.Points)
	assert.Equal(t, int64(100_000), c.TotalSpent)

	select {
	case raw := <-sub.Events():
		ev, ok := raw.(queue.OrderCreatedEvent)
		require.True(t, ok)
		assert.Equal(t, "order_created", ev.Type)
		assert.Equal(t, res.OrderID, ev.OrderID)
		assert.Equal(t, string(model.StatusPending), ev.Status)
		assert.Nil(t, ev.Table)
	default:
		t.Fatal("no order_created event published")
	}
	require.Len(t, f.mirror, 1)
	assert.Equal(t, res.OrderID, f.mirror[0].OrderID)
}

func TestCreateOrderRedeemsPoints(t *testing.T) {
	f := newFixture(t, regular(50))

	req := validRequest()
	req.UsePoints = true
	res, err := f.service.CreateOrder(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, int64(50), res.PointsUsed)
	assert.Equal(t, int64(50_000), res.PointsDiscount)
	assert.Equal(t, int64(50_000), res.FinalAmount)
	// 50 redeemed, 10 earned back.
	assert.Equal(t, int64(10), res.CustomerPoints)
}

func TestCreateOrderAnnotatesTable(t *testing.T) {
	f := newFixture(t, regular(0))
	f.tables.table = &model.Table{ID: 4, Name: "T4"}
	sub := f.events.Subscribe(broker.TopicOrderUpdates)

	_, err := f.service.CreateOrder(context.Background(), validRequest())
	require.NoError(t, err)

	ev := (<-sub.Events()).(queue.OrderCreatedEvent)
	require.NotNil(t, ev.Table)
	assert.Equal(t, uint64(4), ev.Table.ID)
	assert.Equal(t, "T4", ev.Table.Name)
}

func TestCreateOrderRejectsUnknownPaymentMethod(t *testing.T) {
	f := newFixture(t, regular(0))
	sub := f.events.Subscribe(broker.TopicOrderUpdates)

	req := validRequest()
	req.PaymentMethod = "cheque"
	_, err := f.service.CreateOrder(context.Background(), req)

	var invalid *InvalidPaymentMethodError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "cheque", invalid.Name)
	assert.ElementsMatch(t, []string{"cash", "card"}, invalid.Valid)

	// Nothing was written or published.
	assert.Empty(t, f.store.orders)
	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected event: %#v", ev)
	default:
	}
}

func TestCreateOrderRejectsUnknownCustomer(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.CreateOrder(context.Background(), validRequest())
	assert.ErrorIs(t, err, repository.ErrCustomerNotFound)
}

func TestCreateOrderRejectsPriceMismatch(t *testing.T) {
	f := newFixture(t, regular(20))

	req := validRequest()
	req.Items[0].Price = 45_000
	_, err := f.service.CreateOrder(context.Background(), req)

	var mismatch *pricing.PriceMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Empty(t, f.store.orders)
	// The customer balance is untouched by the failed attempt.
	assert.Equal(t, int64(20), f.store.customer(t, "0901234567").Points)
}

func TestCreateOrderRejectsUnknownProduct(t *testing.T) {
	f := newFixture(t, regular(0))

	req := validRequest()
	req.Items[0].ProductID = 99
	_, err := f.service.CreateOrder(context.Background(), req)
	assert.ErrorIs(t, err, repository.ErrProductNotFound)
}

// TestConcurrentOrdersKeepLoyaltyBalanced drives many simultaneous
// orders for one customer and checks the ledger property that survives
// any interleaving: the final balance equals the initial balance plus
// everything earned minus everything redeemed, and never goes negative.
func TestConcurrentOrdersKeepLoyaltyBalanced(t *testing.T) {
	const workers = 16
	initial := int64(35)
	f := newFixture(t, regular(initial))

	results := make([]*CreateOrderResult, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := validRequest()
			req.UsePoints = i%2 == 0
			results[i], errs[i] = f.service.CreateOrder(context.Background(), req)
		}(i)
	}
	wg.Wait()

	var earned, used int64
	for i, res := range results {
		require.NoError(t, errs[i])
		earned += res.PointsEarned
		used += res.PointsUsed
		assert.GreaterOrEqual(t, res.FinalAmount, int64(0))
	}
	c := f.store.customer(t, "0901234567")
	assert.Equal(t, initial+earned-used, c.Points)
	assert.GreaterOrEqual(t, c.Points, int64(0))
}

func TestTransitionStatusPublishesEvent(t *testing.T) {
	f := newFixture(t, regular(0))
	res, err := f.service.CreateOrder(context.Background(), validRequest())
	require.NoError(t, err)

	sub := f.events.Subscribe(broker.TopicOrderStatus)
	change, err := f.service.TransitionStatus(context.Background(), res.OrderID, "APPROVED")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, change.Old)
	assert.Equal(t, model.StatusApproved, change.New)
	assert.Equal(t, "0901234567", change.CustomerPhone)

	ev := (<-sub.Events()).(queue.OrderStatusEvent)
	assert.Equal(t, res.OrderID, ev.OrderID)
	assert.Equal(t, "PENDING", ev.OldStatus)
	assert.Equal(t, "APPROVED", ev.NewStatus)
	assert.Equal(t, fmt.Sprintf("Order #%d is now APPROVED.", res.OrderID), ev.Message)
}

func TestTransitionStatusRejectsIllegalMove(t *testing.T) {
	f := newFixture(t, regular(0))
	res, err := f.service.CreateOrder(context.Background(), validRequest())
	require.NoError(t, err)

	sub := f.events.Subscribe(broker.TopicOrderStatus)
	_, err = f.service.TransitionStatus(context.Background(), res.OrderID, "DELIVERED")
	var illegal *model.IllegalTransitionError
	require.ErrorAs(t, err, &illegal)

	// The order stays PENDING and no event is published.
	assert.Equal(t, model.StatusPending, f.store.orders[res.OrderID].Status)
	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected event: %#v", ev)
	default:
	}
}

func TestTransitionStatusUnknownOrder(t *testing.T) {
	f := newFixture(t, regular(0))
	_, err := f.service.TransitionStatus(context.Background(), 42, "APPROVED")
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
}

func TestTransitionStatusUnknownStatusName(t *testing.T) {
	f := newFixture(t, regular(0))
	res, err := f.service.CreateOrder(context.Background(), validRequest())
	require.NoError(t, err)

	_, err = f.service.TransitionStatus(context.Background(), res.OrderID, "shipped")
	assert.ErrorIs(t, err, model.ErrInvalidStatus)
}
