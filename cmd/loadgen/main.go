package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"github.com/ltnam/order-service/internal/adapter/storage"
	"github.com/ltnam/order-service/internal/core/domain"
	"github.com/ltnam/order-service/internal/core/service"
)

const (
	mysqlDSN      = "root:root@tcp(localhost:3306)/orders?parseTime=true"
	redisAddr     = "localhost:6379"
	customerID    = "loadgen-customer"
	productID     = "loadgen-product"
	initialStock  = 20
	totalRequests = 50
)

func main() {
	ctx := context.Background()

	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer rdb.Close()

	// Seed fixtures and reset stock from previous runs
	_, err = db.ExecContext(ctx, `
		INSERT INTO customers (id, name, email) VALUES (?, 'Load Gen', 'loadgen@example.com')
		ON DUPLICATE KEY UPDATE name = name`, customerID)
	if err != nil {
		log.Fatalf("failed to seed customer: %v", err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO products (id, name, price, quantity) VALUES (?, 'Load Gen Product', 9.99, ?)
		ON DUPLICATE KEY UPDATE quantity = ?`, productID, initialStock, initialStock)
	if err != nil {
		log.Fatalf("failed to seed product: %v", err)
	}

	keys, _ := rdb.Keys(ctx, "order:loadgen-*").Result()
	for _, k := range keys {
		rdb.Del(ctx, k)
	}

	mysqlAdapter := storage.NewMySQLAdapter(db)
	redisAdapter := storage.NewRedisAdapter(rdb)
	orderService := service.NewOrderService(mysqlAdapter, mysqlAdapter, mysqlAdapter, redisAdapter)

	var successCount atomic.Int32
	var soldOutCount atomic.Int32
	var otherCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			_, err := orderService.PlaceOrder(ctx, service.PlaceOrderRequest{
				RequestID:  fmt.Sprintf("loadgen-%d-%d", start.UnixNano(), i),
				CustomerID: customerID,
				Lines:      []domain.OrderLineRequest{{ProductID: productID, Quantity: 1}},
			})
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				soldOutCount.Add(1)
			default:
				otherCount.Add(1)
				log.Printf("unexpected error: %v", err)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := successCount.Load()
	soldOut := soldOutCount.Load()
	other := otherCount.Load()

	fmt.Println("========== LOAD TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Sold Out:         %d\n", soldOut)
	fmt.Printf("Other Failures:   %d\n", other)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("=======================================")

	if success == initialStock && soldOut == totalRequests-initialStock {
		fmt.Printf("PASS: Exactly %d orders succeeded, %d rejected\n", initialStock, totalRequests-initialStock)
	} else {
		fmt.Printf("FAIL: Expected %d success/%d sold out, got %d/%d\n",
			initialStock, totalRequests-initialStock, success, soldOut)
	}

	var finalStock int
	db.QueryRowContext(ctx, `SELECT quantity FROM products WHERE id = ?`, productID).Scan(&finalStock)
	fmt.Printf("Final Stock: %d\n", finalStock)

	if finalStock == 0 {
		fmt.Println("PASS: Stock depleted to 0")
	} else {
		fmt.Printf("FAIL: Expected stock 0, got %d\n", finalStock)
	}
}
