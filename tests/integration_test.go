package tests

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ltnam/order-service/internal/adapter/storage"
	"github.com/ltnam/order-service/internal/core/domain"
	"github.com/ltnam/order-service/internal/core/service"
)

type testEnv struct {
	redis   *redis.Client
	mysql   *sql.DB
	service *service.OrderService
	cleanup func()
}

func setupTestEnv(t *testing.T) *testEnv {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		mysqlDSN = "root:root@tcp(localhost:3306)/orders?parseTime=true"
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	mysqlAdapter := storage.NewMySQLAdapter(db)
	redisAdapter := storage.NewRedisAdapter(rdb)

	return &testEnv{
		redis:   rdb,
		mysql:   db,
		service: service.NewOrderService(mysqlAdapter, mysqlAdapter, mysqlAdapter, redisAdapter),
		cleanup: func() {
			rdb.Close()
			db.Close()
		},
	}
}

func (env *testEnv) seed(t *testing.T, customerID, productID string, price float64, stock int) {
	t.Helper()
	ctx := context.Background()

	_, err := env.mysql.ExecContext(ctx, `
		INSERT INTO customers (id, name, email) VALUES (?, 'Integration Customer', 'it@example.com')
		ON DUPLICATE KEY UPDATE name = name`, customerID)
	require.NoError(t, err)

	_, err = env.mysql.ExecContext(ctx, `
		INSERT INTO products (id, name, price, quantity) VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE price = ?, quantity = ?`,
		productID, "product "+productID, price, stock, price, stock)
	require.NoError(t, err)
}

func (env *testEnv) stock(t *testing.T, productID string) int {
	t.Helper()
	var stock int
	err := env.mysql.QueryRowContext(context.Background(), `
		SELECT quantity FROM products WHERE id = ?`, productID).Scan(&stock)
	require.NoError(t, err)
	return stock
}

func TestIntegration_PlaceOrderFlow(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	customerID := "it-customer"
	productID := "it-product-flow"
	env.seed(t, customerID, productID, 10.0, 5)

	order, err := env.service.PlaceOrder(ctx, service.PlaceOrderRequest{
		RequestID:  fmt.Sprintf("it-flow-%d", time.Now().UnixNano()),
		CustomerID: customerID,
		Lines:      []domain.OrderLineRequest{{ProductID: productID, Quantity: 3}},
	})
	require.NoError(t, err)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, 10.0, order.Lines[0].UnitPrice)
	assert.Equal(t, 3, order.Lines[0].Quantity)

	// Order and its line landed in MySQL
	var lineCount int
	env.mysql.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM order_lines WHERE order_id = ?`, order.ID).Scan(&lineCount)
	assert.Equal(t, 1, lineCount)

	assert.Equal(t, 2, env.stock(t, productID))

	// Cleanup
	env.mysql.ExecContext(ctx, `DELETE FROM order_lines WHERE order_id = ?`, order.ID)
	env.mysql.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, order.ID)
}

func TestIntegration_InsufficientStockLeavesStateIntact(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	customerID := "it-customer"
	productID := "it-product-short"
	env.seed(t, customerID, productID, 10.0, 5)

	_, err := env.service.PlaceOrder(ctx, service.PlaceOrderRequest{
		CustomerID: customerID,
		Lines:      []domain.OrderLineRequest{{ProductID: productID, Quantity: 6}},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 5, env.stock(t, productID))
}

func TestIntegration_UnknownProduct(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	customerID := "it-customer"
	env.seed(t, customerID, "it-product-known", 10.0, 5)

	_, err := env.service.PlaceOrder(ctx, service.PlaceOrderRequest{
		CustomerID: customerID,
		Lines: []domain.OrderLineRequest{
			{ProductID: "it-product-known", Quantity: 1},
			{ProductID: "it-product-ghost", Quantity: 1},
		},
	})
	require.ErrorIs(t, err, domain.ErrUnknownProduct)
	assert.Equal(t, 5, env.stock(t, "it-product-known"))
}

func TestIntegration_DuplicateRequestID(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	customerID := "it-customer"
	productID := "it-product-idem"
	env.seed(t, customerID, productID, 10.0, 5)

	requestID := fmt.Sprintf("it-idem-%d", time.Now().UnixNano())
	req := service.PlaceOrderRequest{
		RequestID:  requestID,
		CustomerID: customerID,
		Lines:      []domain.OrderLineRequest{{ProductID: productID, Quantity: 1}},
	}

	order, err := env.service.PlaceOrder(ctx, req)
	require.NoError(t, err)

	_, err = env.service.PlaceOrder(ctx, req)
	require.ErrorIs(t, err, domain.ErrDuplicateRequest)

	assert.Equal(t, 4, env.stock(t, productID))

	env.mysql.ExecContext(ctx, `DELETE FROM order_lines WHERE order_id = ?`, order.ID)
	env.mysql.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, order.ID)
	env.redis.Del(ctx, "order:"+requestID)
}

func TestIntegration_ConcurrentPlacementNeverOversells(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	customerID := "it-customer"
	productID := "it-product-race"
	initialStock := 5
	env.seed(t, customerID, productID, 10.0, initialStock)

	// Two concurrent orders each demanding the full stock: at most one wins.
	var successCount atomic.Int32
	var wg sync.WaitGroup
	var orderIDs sync.Map

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			order, err := env.service.PlaceOrder(ctx, service.PlaceOrderRequest{
				RequestID:  fmt.Sprintf("it-race-%d-%d", time.Now().UnixNano(), i),
				CustomerID: customerID,
				Lines:      []domain.OrderLineRequest{{ProductID: productID, Quantity: initialStock}},
			})
			if err == nil {
				successCount.Add(1)
				orderIDs.Store(order.ID, true)
			} else {
				assert.ErrorIs(t, err, domain.ErrInsufficientStock)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), successCount.Load())
	assert.Equal(t, 0, env.stock(t, productID))

	orderIDs.Range(func(key, _ any) bool {
		env.mysql.ExecContext(ctx, `DELETE FROM order_lines WHERE order_id = ?`, key)
		env.mysql.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, key)
		return true
	})
}
