package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ken-b2024/ecommerce-api/internal/models"
	"github.com/ken-b2024/ecommerce-api/internal/mykafka"
	"github.com/ken-b2024/ecommerce-api/internal/repo"
	"github.com/ken-b2024/ecommerce-api/internal/transport"
	pkgdb "github.com/ken-b2024/ecommerce-api/pkg/db"
)

func ptr[T any](v T) *T { return &v }

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, key, eventType string, payload any) error {
	return m.Called(ctx, key, eventType, payload).Error(0)
}

type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deleted []string
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *memCache) Set(_ context.Context, key string, v any, _ time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = b
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
		c.deleted = append(c.deleted, k)
	}
	return nil
}

func newTestRepo(t *testing.T) *repo.GormRepo {
	t.Helper()
	db, err := pkgdb.Open(context.Background(), pkgdb.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = pkgdb.Close(db) })

	r := &repo.GormRepo{DB: db}
	require.NoError(t, r.Migrate(context.Background()))
	return r
}

func seedUser(t *testing.T, r *repo.GormRepo) *models.User {
	t.Helper()
	u := &models.User{Name: "ann", Email: "ann@example.com", Phone: "555"}
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u
}

func seedProduct(t *testing.T, r *repo.GormRepo, name string, price float64, qty int) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: price, Quantity: qty}
	require.NoError(t, r.CreateProduct(context.Background(), p))
	return p
}

func orderReq(userID uint, items ...transport.OrderItem) transport.CreateOrderRequest {
	return transport.CreateOrderRequest{Date: ptr("2024-05-01"), UserID: ptr(userID), Items: items}
}

func item(productID uint, qty int) transport.OrderItem {
	return transport.OrderItem{ProductID: ptr(productID), Quantity: ptr(qty)}
}

func stockOf(t *testing.T, r *repo.GormRepo, id uint) int {
	t.Helper()
	p, err := r.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Quantity
}

func orderCount(t *testing.T, r *repo.GormRepo) int {
	t.Helper()
	orders, err := r.ListOrders(context.Background())
	require.NoError(t, err)
	return len(orders)
}

func TestPlaceOrder_DecrementsStockAndRecordsLines(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r)
	p := seedProduct(t, r, "pen", 10, 5)

	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, "1", EventOrderCreated, mock.Anything).Return(nil).Once()
	svc := &OrderService{Repo: r, Events: pub}

	before := testutil.ToFloat64(ordersPlaced)
	order, err := svc.PlaceOrder(ctx, orderReq(u.ID, item(p.ID, 2)))
	require.NoError(t, err)

	assert.Equal(t, 20.0, order.TotalPrice)
	assert.Equal(t, 3, stockOf(t, r, p.ID))
	assert.Equal(t, before+1, testutil.ToFloat64(ordersPlaced))

	stored, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.OrderProducts, 1)
	assert.Equal(t, p.ID, stored.OrderProducts[0].ProductID)
	assert.Equal(t, 2, stored.OrderProducts[0].Quantity)
	assert.Equal(t, "2024-05-01", stored.Date)
	require.NotNil(t, stored.UserID)
	assert.Equal(t, u.ID, *stored.UserID)

	pub.AssertExpectations(t)
}

func TestPlaceOrder_TotalUsesDecimalArithmetic(t *testing.T) {
	r := newTestRepo(t)
	u := seedUser(t, r)
	a := seedProduct(t, r, "a", 0.1, 10)
	b := seedProduct(t, r, "b", 0.2, 10)

	svc := &OrderService{Repo: r, Events: mykafka.Noop{}}
	order, err := svc.PlaceOrder(context.Background(), orderReq(u.ID, item(a.ID, 1), item(b.ID, 1)))
	require.NoError(t, err)
	assert.Equal(t, 0.3, order.TotalPrice)
}

func TestPlaceOrder_InsufficientStockLeavesStateUnchanged(t *testing.T) {
	r := newTestRepo(t)
	u := seedUser(t, r)
	a := seedProduct(t, r, "a", 1, 10)
	b := seedProduct(t, r, "b", 1, 1)

	pub := &mockPublisher{}
	svc := &OrderService{Repo: r, Events: pub}

	_, err := svc.PlaceOrder(context.Background(), orderReq(u.ID, item(a.ID, 4), item(b.ID, 2)))
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInsufficientStock)

	var se *StockError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, b.ID, se.ProductID)
	assert.Equal(t, "b", se.Name)
	assert.Equal(t, 2, se.Requested)
	assert.Equal(t, 1, se.Available)
	assert.Contains(t, err.Error(), `"b"`)

	assert.Equal(t, 10, stockOf(t, r, a.ID))
	assert.Equal(t, 1, stockOf(t, r, b.ID))
	assert.Equal(t, 0, orderCount(t, r))
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPlaceOrder_NoItems(t *testing.T) {
	r := newTestRepo(t)
	u := seedUser(t, r)
	svc := &OrderService{Repo: r}

	before := testutil.ToFloat64(ordersRejected.WithLabelValues("no_items"))
	_, err := svc.PlaceOrder(context.Background(), orderReq(u.ID))
	require.ErrorIs(t, err, ErrNoItems)
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 0, orderCount(t, r))
	assert.Equal(t, before+1, testutil.ToFloat64(ordersRejected.WithLabelValues("no_items")))
}

func TestPlaceOrder_UnknownProduct(t *testing.T) {
	r := newTestRepo(t)
	u := seedUser(t, r)
	a := seedProduct(t, r, "a", 1, 10)
	svc := &OrderService{Repo: r}

	_, err := svc.PlaceOrder(context.Background(), orderReq(u.ID, item(a.ID, 1), item(99, 1)))
	require.ErrorIs(t, err, ErrNotFound)

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "product", nf.Entity)
	assert.Equal(t, uint(99), nf.ID)
	assert.Equal(t, "product 99 not found", err.Error())

	assert.Equal(t, 10, stockOf(t, r, a.ID))
	assert.Equal(t, 0, orderCount(t, r))
}

func TestPlaceOrder_UnknownUser(t *testing.T) {
	r := newTestRepo(t)
	a := seedProduct(t, r, "a", 1, 10)
	svc := &OrderService{Repo: r}

	_, err := svc.PlaceOrder(context.Background(), orderReq(42, item(a.ID, 1)))
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "user 42 not found", err.Error())
	assert.Equal(t, 10, stockOf(t, r, a.ID))
}

func TestPlaceOrder_MergesRepeatedProducts(t *testing.T) {
	r := newTestRepo(t)
	u := seedUser(t, r)
	a := seedProduct(t, r, "a", 2.5, 10)
	svc := &OrderService{Repo: r}

	order, err := svc.PlaceOrder(context.Background(), orderReq(u.ID, item(a.ID, 1), item(a.ID, 3)))
	require.NoError(t, err)
	require.Len(t, order.OrderProducts, 1)
	assert.Equal(t, 4, order.OrderProducts[0].Quantity)
	assert.Equal(t, 10.0, order.TotalPrice)
	assert.Equal(t, 6, stockOf(t, r, a.ID))
}

func TestPlaceOrder_MergedQuantityOverflowIsInsufficientStock(t *testing.T) {
	r := newTestRepo(t)
	u := seedUser(t, r)
	a := seedProduct(t, r, "a", 1, 5)
	svc := &OrderService{Repo: r}

	_, err := svc.PlaceOrder(context.Background(), orderReq(u.ID, item(a.ID, math.MaxInt), item(a.ID, 2)))
	require.ErrorIs(t, err, ErrInsufficientStock)

	var se *StockError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, a.ID, se.ProductID)
	assert.Equal(t, "a", se.Name)
	assert.Equal(t, math.MaxInt, se.Requested)
	assert.Equal(t, 5, se.Available)

	assert.Equal(t, 5, stockOf(t, r, a.ID))
	assert.Equal(t, 0, orderCount(t, r))
}

func TestPlaceOrder_SequentialOrdersDecrementCumulatively(t *testing.T) {
	r := newTestRepo(t)
	u := seedUser(t, r)
	a := seedProduct(t, r, "a", 1, 5)
	svc := &OrderService{Repo: r}
	ctx := context.Background()

	_, err := svc.PlaceOrder(ctx, orderReq(u.ID, item(a.ID, 2)))
	require.NoError(t, err)
	_, err = svc.PlaceOrder(ctx, orderReq(u.ID, item(a.ID, 3)))
	require.NoError(t, err)
	assert.Equal(t, 0, stockOf(t, r, a.ID))

	_, err = svc.PlaceOrder(ctx, orderReq(u.ID, item(a.ID, 1)))
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 2, orderCount(t, r))
}

func TestPlaceOrder_PublishFailureIsNotFatal(t *testing.T) {
	r := newTestRepo(t)
	u := seedUser(t, r)
	a := seedProduct(t, r, "a", 1, 5)

	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything, EventOrderCreated, mock.Anything).Return(errors.New("broker down"))
	svc := &OrderService{Repo: r, Events: pub}

	order, err := svc.PlaceOrder(context.Background(), orderReq(u.ID, item(a.ID, 1)))
	require.NoError(t, err)
	assert.NotZero(t, order.ID)
	pub.AssertExpectations(t)
}

func TestPlaceOrder_InvalidatesCachedProducts(t *testing.T) {
	r := newTestRepo(t)
	u := seedUser(t, r)
	a := seedProduct(t, r, "a", 1, 5)
	ctx := context.Background()

	pc := &ProductCache{Cache: newMemCache(), TTL: time.Minute}
	products := &ProductService{Repo: r, Cache: pc}
	orders := &OrderService{Repo: r, Products: pc}

	got, err := products.GetProduct(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Quantity)

	_, err = orders.PlaceOrder(ctx, orderReq(u.ID, item(a.ID, 2)))
	require.NoError(t, err)

	got, err = products.GetProduct(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Quantity)
}

func TestDeleteOrder(t *testing.T) {
	r := newTestRepo(t)
	u := seedUser(t, r)
	a := seedProduct(t, r, "a", 1, 5)
	svc := &OrderService{Repo: r}
	ctx := context.Background()

	order, err := svc.PlaceOrder(ctx, orderReq(u.ID, item(a.ID, 2)))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteOrder(ctx, order.ID))
	_, err = svc.GetOrder(ctx, order.ID)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 3, stockOf(t, r, a.ID))

	require.ErrorIs(t, svc.DeleteOrder(ctx, order.ID), ErrNotFound)
}

func TestProductService_GetProductReadsThroughCache(t *testing.T) {
	r := newTestRepo(t)
	a := seedProduct(t, r, "a", 1, 5)
	ctx := context.Background()

	mc := newMemCache()
	svc := &ProductService{Repo: r, Cache: &ProductCache{Cache: mc, TTL: time.Minute}}

	_, err := svc.GetProduct(ctx, a.ID)
	require.NoError(t, err)
	assert.Contains(t, mc.data, productKey(a.ID))

	// served from cache even after the row changes underneath
	require.NoError(t, r.SetStock(ctx, a.ID, 99))
	got, err := svc.GetProduct(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Quantity)

	_, err = svc.SetStock(ctx, a.ID, transport.StockRequest{Quantity: ptr(7)})
	require.NoError(t, err)
	got, err = svc.GetProduct(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Quantity)

	_, err = svc.GetProduct(ctx, 404)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestProductCache_SkipsWriteAfterConcurrentInvalidation(t *testing.T) {
	r := newTestRepo(t)
	a := seedProduct(t, r, "a", 1, 5)
	ctx := context.Background()

	mc := newMemCache()
	pc := &ProductCache{Cache: mc, TTL: time.Minute}

	// a reader loads stock 5, then an order commits and invalidates
	// before the reader gets to cache its copy
	gen := pc.generation(a.ID)
	stale, err := r.GetProduct(ctx, a.ID)
	require.NoError(t, err)
	require.NoError(t, r.SetStock(ctx, a.ID, 3))
	pc.invalidate(ctx, a.ID)

	pc.put(ctx, stale, gen)
	assert.NotContains(t, mc.data, productKey(a.ID))

	svc := &ProductService{Repo: r, Cache: pc}
	got, err := svc.GetProduct(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Quantity)
	assert.Contains(t, mc.data, productKey(a.ID))
}

func TestProductService_UpdateAndDelete(t *testing.T) {
	r := newTestRepo(t)
	u := seedUser(t, r)
	a := seedProduct(t, r, "a", 1, 5)
	ctx := context.Background()

	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	svc := &ProductService{Repo: r, Events: pub}

	upd, err := svc.UpdateProduct(ctx, a.ID, transport.ProductRequest{Name: ptr("b"), Price: ptr(3.5), Quantity: ptr(8)})
	require.NoError(t, err)
	assert.Equal(t, "b", upd.Name)
	assert.Equal(t, 3.5, upd.Price)
	assert.Equal(t, 8, upd.Quantity)

	_, err = (&OrderService{Repo: r}).PlaceOrder(ctx, orderReq(u.ID, item(a.ID, 1)))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProduct(ctx, a.ID))
	_, err = svc.GetProduct(ctx, a.ID)
	require.ErrorIs(t, err, ErrNotFound)

	orders, err := r.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Empty(t, orders[0].OrderProducts)

	require.ErrorIs(t, svc.DeleteProduct(ctx, a.ID), ErrNotFound)
	_, err = svc.UpdateProduct(ctx, a.ID, transport.ProductRequest{Name: ptr("b"), Price: ptr(1.0), Quantity: ptr(1)})
	require.ErrorIs(t, err, ErrNotFound)

	pub.AssertCalled(t, "Publish", mock.Anything, "1", EventProductUpdated, mock.Anything)
	pub.AssertCalled(t, "Publish", mock.Anything, "1", EventProductDeleted, mock.Anything)
}

func TestUserService_CRUD(t *testing.T) {
	r := newTestRepo(t)
	svc := &UserService{Repo: r}
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, transport.UserRequest{Name: ptr("ann"), Email: ptr("a@x.io"), Phone: ptr("123")})
	require.NoError(t, err)

	got, err := svc.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, *created, *got)

	upd, err := svc.UpdateUser(ctx, created.ID, transport.UserRequest{Name: ptr("bob"), Email: ptr("b@x.io"), Phone: ptr("456")})
	require.NoError(t, err)
	assert.Equal(t, "bob", upd.Name)

	_, err = svc.UpdateUser(ctx, 77, transport.UserRequest{Name: ptr("x"), Email: ptr("x"), Phone: ptr("x")})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.CreateUser(ctx, transport.UserRequest{Name: ptr("x")})
	require.ErrorIs(t, err, ErrValidation)
}

func TestUserService_DeleteRemovesAccountAndKeepsOrders(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r)
	a := seedProduct(t, r, "a", 1, 5)

	accounts := &AccountService{Repo: r}
	_, err := accounts.CreateAccount(ctx, transport.CreateAccountRequest{Username: ptr("ann"), Password: ptr("pw"), UserID: ptr(u.ID)})
	require.NoError(t, err)
	order, err := (&OrderService{Repo: r}).PlaceOrder(ctx, orderReq(u.ID, item(a.ID, 1)))
	require.NoError(t, err)

	svc := &UserService{Repo: r}
	require.NoError(t, svc.DeleteUser(ctx, u.ID))

	_, err = svc.GetUser(ctx, u.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = accounts.GetAccount(ctx, u.ID)
	require.ErrorIs(t, err, ErrNotFound)

	kept, err := r.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Nil(t, kept.UserID)

	require.ErrorIs(t, svc.DeleteUser(ctx, u.ID), ErrNotFound)
}

func TestAccountService_Conflicts(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	ann := seedUser(t, r)
	bob := seedUser(t, r)
	svc := &AccountService{Repo: r}

	_, err := svc.CreateAccount(ctx, transport.CreateAccountRequest{Username: ptr("ann"), Password: ptr("pw"), UserID: ptr(ann.ID)})
	require.NoError(t, err)

	_, err = svc.CreateAccount(ctx, transport.CreateAccountRequest{Username: ptr("ann2"), Password: ptr("pw"), UserID: ptr(ann.ID)})
	require.ErrorIs(t, err, ErrConflict)

	_, err = svc.CreateAccount(ctx, transport.CreateAccountRequest{Username: ptr("ann"), Password: ptr("pw"), UserID: ptr(bob.ID)})
	require.ErrorIs(t, err, ErrConflict)

	_, err = svc.CreateAccount(ctx, transport.CreateAccountRequest{Username: ptr("zed"), Password: ptr("pw"), UserID: ptr(uint(99))})
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "user 99 not found", err.Error())

	_, err = svc.CreateAccount(ctx, transport.CreateAccountRequest{Username: ptr("bob"), Password: ptr("pw"), UserID: ptr(bob.ID)})
	require.NoError(t, err)

	_, err = svc.UpdateAccount(ctx, bob.ID, transport.UpdateAccountRequest{Username: ptr("ann"), Password: ptr("x")})
	require.ErrorIs(t, err, ErrConflict)

	upd, err := svc.UpdateAccount(ctx, bob.ID, transport.UpdateAccountRequest{Username: ptr("bob"), Password: ptr("new")})
	require.NoError(t, err)
	assert.Equal(t, "new", upd.Password)

	require.NoError(t, svc.DeleteAccount(ctx, bob.ID))
	require.ErrorIs(t, svc.DeleteAccount(ctx, bob.ID), ErrNotFound)
}
