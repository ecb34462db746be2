package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/inventory-sale/internal/adapter/storage"
	"github.com/rl1809/inventory-sale/internal/core/domain"
	"github.com/rl1809/inventory-sale/internal/core/service"
)

// Drives concurrent sales of one item through the engine over the
// in-memory store and checks the contention contract: with stock S and
// R single-unit requests, exactly min(S, R) sales commit, the final
// quantity is S minus the successes, and receipt numbers are the gap
// free sequence 1..N.
func main() {
	var (
		ownerID  = flag.String("owner", "stress-owner", "account to sell from")
		stock    = flag.Int("stock", 50, "initial stock of the item")
		requests = flag.Int("requests", 50, "number of concurrent sale requests")
	)
	flag.Parse()

	ctx := context.Background()
	store := storage.NewMemoryStore()

	item := &domain.InventoryItem{
		ID:          "stress-item",
		OwnerID:     *ownerID,
		Name:        "Stress Item",
		BuyerPrice:  decimal.NewFromInt(3),
		SellerPrice: decimal.NewFromInt(5),
		Quantity:    *stock,
	}
	if err := store.CreateItem(ctx, item); err != nil {
		log.Fatalf("failed to seed item: %v", err)
	}

	// Attempt bounds sized for worst-case contention: every conflict a
	// request can hit requires another request's commit, so the number
	// of requests itself bounds any single sale's retries.
	attempts := uint64(*requests) + 8
	engine := newEngine(store, attempts)
	defer engine.Close()

	go func() {
		for range engine.Committed() {
		}
	}()

	var successCount, conflictCount, soldOutCount atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < *requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Sell(ctx, *ownerID, uuid.New().String(),
				[]domain.SaleLine{{ItemID: item.ID, Quantity: 1}})
			switch {
			case err == nil:
				successCount.Add(1)
			case isInsufficient(err):
				soldOutCount.Add(1)
			default:
				conflictCount.Add(1)
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	expected := *stock
	if *requests < expected {
		expected = *requests
	}

	success := int(successCount.Load())
	fmt.Println("========== STRESS RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", *stock)
	fmt.Printf("Total Requests:   %d\n", *requests)
	fmt.Printf("Committed:        %d\n", success)
	fmt.Printf("Sold Out:         %d\n", soldOutCount.Load())
	fmt.Printf("Other Failures:   %d\n", conflictCount.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("====================================")

	pass := true
	if success != expected {
		fmt.Printf("FAIL: expected %d committed sales, got %d\n", expected, success)
		pass = false
	}

	snap, err := store.GetSnapshot(ctx, item.ID)
	if err != nil {
		log.Fatalf("failed to read final stock: %v", err)
	}
	if snap.Quantity != *stock-success {
		fmt.Printf("FAIL: expected final stock %d, got %d\n", *stock-success, snap.Quantity)
		pass = false
	}

	numbers := make(map[int64]bool)
	for _, r := range store.ReceiptsByOwner(*ownerID) {
		numbers[r.Number] = true
	}
	for n := int64(1); n <= int64(success); n++ {
		if !numbers[n] {
			fmt.Printf("FAIL: receipt number %d missing from 1..%d\n", n, success)
			pass = false
		}
	}
	if len(numbers) != success {
		fmt.Printf("FAIL: expected %d distinct receipt numbers, got %d\n", success, len(numbers))
		pass = false
	}

	if pass {
		fmt.Printf("PASS: %d sales committed, final stock %d, receipt numbers 1..%d\n",
			success, snap.Quantity, success)
	}
}

func newEngine(store *storage.MemoryStore, attempts uint64) *service.SaleTransactionEngine {
	validator := service.NewSaleValidator(store)
	mutator := service.NewStockMutator(store)
	allocator := service.NewReceiptAllocator(store, service.AllocatorConfig{
		MaxAttempts:    attempts,
		InitialBackoff: 200 * time.Microsecond,
		MaxBackoff:     5 * time.Millisecond,
	})
	return service.NewSaleTransactionEngine(validator, mutator, allocator,
		store, store, zap.NewNop(), service.EngineConfig{
			MaxAttempts:    attempts,
			InitialBackoff: 200 * time.Microsecond,
			MaxBackoff:     5 * time.Millisecond,
			QueueSize:      1024,
		})
}

func isInsufficient(err error) bool {
	var verr *domain.ValidationError
	return errors.As(err, &verr) && verr.Reason == domain.ReasonInsufficientStock
}
