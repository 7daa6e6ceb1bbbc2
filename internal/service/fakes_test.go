package service

import (
	"checkout-service/internal/entity"
	"context"
	"fmt"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"sync"
)

func qty(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

// memCarts is an in-memory cart store. Stored carts are cloned on the way
// in and out so callers cannot share state through it.
type memCarts struct {
	mu      sync.Mutex
	carts   map[string]*entity.Cart
	seq     int
	created []string
	saves   map[string]int

	createErr   error
	createdID   string
	saveErr     func(cart *entity.Cart) error
	deactivated []string
}

func newMemCarts(carts ...*entity.Cart) *memCarts {
	m := &memCarts{carts: map[string]*entity.Cart{}, saves: map[string]int{}}
	for _, c := range carts {
		c.Active = true
		m.carts[c.ID] = c.Clone()
	}
	return m
}

func (m *memCarts) GetActive(_ context.Context, id string) (*entity.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[id]
	if !ok || !c.Active {
		return nil, entity.NotFoundf("No such entity with cartId = %s", id)
	}
	return c.Clone(), nil
}

func (m *memCarts) GetActiveByMaskedID(_ context.Context, maskedID string) (*entity.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.carts {
		if c.MaskedID == maskedID && c.Active {
			return c.Clone(), nil
		}
	}
	return nil, entity.NotFoundf("No such entity with cartId = %s", maskedID)
}

func (m *memCarts) Save(_ context.Context, cart *entity.Cart) error {
	if m.saveErr != nil {
		if err := m.saveErr(cart); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves[cart.ID]++
	m.carts[cart.ID] = cart.Clone()
	return nil
}

func (m *memCarts) CreateEmpty(_ context.Context, cc entity.CustomerContext) (string, error) {
	if m.createErr != nil {
		return "", m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createdID != "" {
		return m.createdID, nil
	}
	m.seq++
	id := fmt.Sprintf("sub-%d", m.seq)
	cart := &entity.Cart{ID: id, CustomerID: cc.CustomerID, CustomerEmail: cc.Email, Active: true}
	if cc.IsGuest() {
		cart.MaskedID = "mask-" + id
	}
	m.carts[id] = cart
	m.created = append(m.created, id)
	return id, nil
}

func (m *memCarts) Deactivate(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.carts[id]; ok {
		c.Active = false
	}
	m.deactivated = append(m.deactivated, id)
	return nil
}

func (m *memCarts) get(id string) *entity.Cart {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.carts[id].Clone()
}

type memProducts map[int64]*entity.Product

func (m memProducts) GetByID(_ context.Context, id int64) (*entity.Product, error) {
	p, ok := m[id]
	if !ok {
		return nil, entity.NotFoundf("The product that was requested doesn't exist. Verify the product and try again.")
	}
	cp := *p
	return &cp, nil
}

type memAddressBook struct {
	saved []*entity.CustomerAddress
	err   error
}

func (m *memAddressBook) Save(_ context.Context, addr *entity.CustomerAddress) error {
	if m.err != nil {
		return m.err
	}
	addr.ID = int64(100 + len(m.saved))
	m.saved = append(m.saved, addr)
	return nil
}

type memOrders struct {
	mu     sync.Mutex
	orders []*entity.Order
	err    func(order *entity.Order) error
}

func (m *memOrders) CreateOrder(_ context.Context, order *entity.Order) (*entity.Order, error) {
	if m.err != nil {
		if err := m.err(order); err != nil {
			return nil, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	order.ID = int64(len(m.orders) + 1)
	m.orders = append(m.orders, order)
	return order, nil
}

// fakeGate counts limiter calls. processing decides the n-th (1-based)
// processing call.
type fakeGate struct {
	mu              sync.Mutex
	processingCalls int
	savingCalls     int
	processing      func(n int) error
	saving          func(n int) error
}

func (g *fakeGate) LimitProcessing(context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.processingCalls++
	if g.processing != nil {
		return g.processing(g.processingCalls)
	}
	return nil
}

func (g *fakeGate) LimitSaving(context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.savingCalls++
	if g.saving != nil {
		return g.saving(g.savingCalls)
	}
	return nil
}

type memEvents struct {
	created []*entity.Order
	splits  []entity.SplitSummary
}

func (m *memEvents) PublishOrderCreated(_ context.Context, order *entity.Order) error {
	m.created = append(m.created, order)
	return nil
}

func (m *memEvents) PublishCartSplit(_ context.Context, summary entity.SplitSummary) error {
	m.splits = append(m.splits, summary)
	return nil
}

type memIdempotency struct {
	keys     map[string]bool
	released []string
}

func (m *memIdempotency) Claim(_ context.Context, key string) (bool, error) {
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *memIdempotency) Release(_ context.Context, key string) error {
	delete(m.keys, key)
	m.released = append(m.released, key)
	return nil
}

type mockOrderPlacer struct {
	mock.Mock
}

func (m *mockOrderPlacer) PlaceOrder(ctx context.Context, cartID string) (string, error) {
	args := m.Called(ctx, cartID)
	return args.String(0), args.Error(1)
}

func testAddress() *entity.Address {
	return &entity.Address{
		Email:     "ann@example.com",
		FirstName: "Ann",
		LastName:  "Lee",
		Street:    []string{"1 Main St"},
		City:      "Austin",
		RegionID:  57,
		Postcode:  "78701",
		CountryID: "US",
		Telephone: "5550100",
	}
}

func testProducts() memProducts {
	return memProducts{
		10: {ID: 10, SKU: "tee", Name: "Tee", Price: qty(10), Enabled: true},
		11: {ID: 11, SKU: "mug", Name: "Mug", Price: qty(5), Enabled: true},
		12: {ID: 12, SKU: "cap", Name: "Cap", Price: qty(7), Enabled: true},
		13: {ID: 13, SKU: "old", Name: "Old", Price: qty(1), Enabled: false},
	}
}

func line(id, product int64, n int64) entity.LineItem {
	return entity.LineItem{
		ID:        id,
		ProductID: product,
		SKU:       fmt.Sprintf("sku-%d", product),
		Price:     qty(10),
		Qty:       qty(n),
		Request:   entity.ItemRequest{ProductID: product, Qty: qty(n)},
	}
}

// readyCart is a registered customer's cart with shipping already chosen.
func readyCart(id string, items ...entity.LineItem) *entity.Cart {
	ship := testAddress()
	ship.ID = 900
	ship.CustomerID = 7
	ship.ShippingRates = []entity.ShippingRate{{Carrier: "flatrate", Method: "flatrate", Price: qty(5)}}
	ship.ShippingMethod = "flatrate_flatrate"
	return &entity.Cart{
		ID:              id,
		CustomerID:      7,
		CustomerEmail:   "ann@example.com",
		Customer:        &entity.Customer{ID: 7, Email: "ann@example.com"},
		Items:           items,
		ShippingAddress: ship,
	}
}

type harness struct {
	carts       *memCarts
	products    memProducts
	addressBook *memAddressBook
	orders      *memOrders
	gate        *fakeGate
	events      *memEvents
	idempotency *memIdempotency
	checkout    *Checkout
	coordinator *Coordinator
}

var testPaymentMethods = []entity.PaymentMethodInfo{{Code: "checkmo", Title: "Check / Money order"}}

func newHarness(carts ...*entity.Cart) *harness {
	h := &harness{
		carts:       newMemCarts(carts...),
		products:    testProducts(),
		addressBook: &memAddressBook{},
		orders:      &memOrders{},
		gate:        &fakeGate{},
		events:      &memEvents{},
		idempotency: &memIdempotency{keys: map[string]bool{}},
	}
	h.wire(h.gate)
	return h
}

// wire builds the checkout and coordinator around gate.
func (h *harness) wire(gate RateGate) {
	shipping := NewShippingInformationService(h.carts, FlatRate{Carrier: "flatrate", Method: "flatrate", PricePerUnit: qty(5)})
	payments := NewPaymentMethodService(h.carts, testPaymentMethods)
	totals := NewTotalsService(h.carts)
	orderService := NewOrderService(h.carts, h.carts, h.orders, h.events)
	n := 0
	orderService.incrementID = func() string {
		n++
		return fmt.Sprintf("10000000%d", n)
	}

	h.checkout = NewCheckout(h.carts, payments, totals, orderService, h.addressBook, gate)
	builder := NewSubCartBuilder(h.carts, h.carts, h.products, shipping)
	h.coordinator = NewCoordinator(h.carts, h.checkout, builder, gate, h.events, h.idempotency, DefaultSplitConfig())
}

func payReq(cartID string) PaymentRequest {
	return PaymentRequest{
		CartID:         cartID,
		CustomerID:     7,
		PaymentMethod:  entity.PaymentMethod{Method: "checkmo"},
		BillingAddress: testAddress(),
	}
}
