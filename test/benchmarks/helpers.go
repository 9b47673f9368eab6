// test/benchmarks/helpers.go
package benchmarks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ammerola/stockledger/internal/adapters/memory"
	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/internal/core/services"
)

var benchItems = []string{"SKU-1001", "SKU-1002", "SKU-1003", "SKU-1004", "SKU-1005"}

// newBenchService wires a ledger service over the in-memory gateway with
// logging discarded
func newBenchService() (*services.LedgerService, *memory.Gateway) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gateway := memory.NewGateway()
	return services.NewLedgerService(gateway, nil, nil, services.DefaultOptions(), logger), gateway
}

func benchActor(role domain.UserRole) domain.Actor {
	return domain.Actor{
		UserID:   "bench-" + string(role),
		UserName: "Bench " + string(role),
		Role:     role,
		DeviceID: "bench-device",
		StoreID:  "store-bench",
	}
}

func saleRequest(i int) ports.SaleRequest {
	cost := decimal.NewFromFloat(2.5)
	return ports.SaleRequest{
		ItemID:         benchItems[i%len(benchItems)],
		LocationID:     fmt.Sprintf("shelf-%d", i%20),
		QuantityBefore: 50,
		QuantitySold:   1 + i%5,
		UnitCost:       &cost,
	}
}

// seedRecords appends n sales to the ledger
func seedRecords(ctx context.Context, svc *services.LedgerService, n int) error {
	actor := benchActor(domain.RoleManager)
	for i := 0; i < n; i++ {
		if _, err := svc.RecordSale(ctx, actor, saleRequest(i)); err != nil {
			return err
		}
	}
	return nil
}

// buildRecords returns n committed-looking records without touching a gateway
func buildRecords(n int) []*domain.AdjustmentRecord {
	now := time.Now().UTC()
	records := make([]*domain.AdjustmentRecord, n)
	for i := range records {
		cost := decimal.NewFromFloat(2.5)
		change := -(1 + i%5)
		records[i] = &domain.AdjustmentRecord{
			ID:               uuid.New(),
			StoreID:          "store-bench",
			ItemID:           benchItems[i%len(benchItems)],
			LocationID:       fmt.Sprintf("shelf-%d", i%20),
			QuantityBefore:   50,
			QuantityAfter:    50 + change,
			QuantityChange:   change,
			Type:             domain.TypeSale,
			Reason:           domain.ReasonSale,
			UserID:           "bench-manager",
			UserName:         "Bench manager",
			UserRole:         domain.RoleManager,
			CreatedAt:        now.Add(-time.Duration(i) * time.Second),
			UnitCost:         &cost,
			RequiresApproval: i%7 == 0,
		}
	}
	return records
}
