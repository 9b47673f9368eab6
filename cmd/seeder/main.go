// cmd/seeder/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/stockledger/internal/adapters/db"
	"github.com/ammerola/stockledger/internal/adapters/memory"
	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/internal/core/services"
	"github.com/ammerola/stockledger/internal/pkg/config"
	"github.com/ammerola/stockledger/internal/pkg/logger"
)

// CountLine is one row of a cycle-count sheet
type CountLine struct {
	ItemID     string
	LocationID string
	System     int
	Counted    int
	UnitCost   *decimal.Decimal
}

var defaultCounts = []CountLine{
	{ItemID: "SKU-1001", LocationID: "shelf-a1", System: 40, Counted: 40},
	{ItemID: "SKU-1002", LocationID: "shelf-a2", System: 25, Counted: 20},
	{ItemID: "SKU-1003", LocationID: "shelf-b1", System: 12, Counted: 15},
	{ItemID: "SKU-1004", LocationID: "backroom", System: 80, Counted: 64},
}

// LoadCounts reads item, location, system qty, counted qty and an optional
// unit cost from the first sheet of a workbook. The first row is a header.
func LoadCounts(path string) ([]CountLine, error) {
	file, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open counts file: %w", err)
	}
	if len(file.Sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in counts file")
	}

	var (
		lines  []CountLine
		rowIdx int
	)
	err = file.Sheets[0].ForEachRow(func(r *xlsx.Row) error {
		rowIdx++
		if rowIdx == 1 {
			return nil
		}

		get := func(i int) string {
			c := r.GetCell(i)
			if c == nil {
				return ""
			}
			if s, err := c.FormattedValue(); err == nil {
				return strings.TrimSpace(s)
			}
			return strings.TrimSpace(c.String())
		}

		itemID := get(0)
		if itemID == "" {
			return nil
		}
		system, err := strconv.Atoi(get(2))
		if err != nil {
			return fmt.Errorf("row %d: invalid system quantity %q", rowIdx, get(2))
		}
		counted, err := strconv.Atoi(get(3))
		if err != nil {
			return fmt.Errorf("row %d: invalid counted quantity %q", rowIdx, get(3))
		}

		line := CountLine{ItemID: itemID, LocationID: get(1), System: system, Counted: counted}
		if v := get(4); v != "" {
			cost, err := decimal.NewFromString(v)
			if err != nil {
				return fmt.Errorf("row %d: invalid unit cost %q", rowIdx, v)
			}
			line.UnitCost = &cost
		}
		lines = append(lines, line)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return lines, nil
}

func main() {
	var (
		storeID    = flag.String("store", "store-demo", "Store to seed")
		countsFile = flag.String("counts", "", "Optional .xlsx sheet of cycle counts")
		logLevel   = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		dryRun     = flag.Bool("dry-run", false, "Run against an in-memory ledger")
	)
	flag.Parse()

	slogger := logger.SetupLogger(*logLevel, "text")
	ctx := context.Background()

	counts := defaultCounts
	if *countsFile != "" {
		loaded, err := LoadCounts(*countsFile)
		if err != nil {
			slogger.Error("failed to load counts", slog.String("error", err.Error()))
			os.Exit(1)
		}
		counts = loaded
		slogger.Info("loaded cycle counts", slog.Int("count", len(counts)))
	}

	var gateway ports.LedgerGateway
	if *dryRun {
		gateway = memory.NewGateway()
	} else {
		cfg, err := config.Load(slogger)
		if err != nil {
			slogger.Error("failed to load configuration", slog.String("error", err.Error()))
			os.Exit(1)
		}

		if err := db.RunMigrationsWithRetry(ctx, &db.MigrationConfig{
			DatabaseURL: cfg.GetDatabaseURL(),
			TableName:   "schema_migrations",
			SchemaName:  "public",
		}, slogger, 3); err != nil {
			slogger.Error("failed to run migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}

		database, err := db.NewDatabase(ctx, &db.Config{
			Host:           cfg.Database.Host,
			Port:           cfg.Database.Port,
			User:           cfg.Database.User,
			Password:       cfg.Database.Password,
			Database:       cfg.Database.Name,
			SSLMode:        cfg.Database.SSLMode,
			MaxConnections: 4,
			MinConnections: 1,
			ConnectTimeout: cfg.Database.ConnectTimeout,
		}, slogger)
		if err != nil {
			slogger.Error("failed to connect to database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer database.Close()
		gateway = db.NewLedgerGateway(database, slogger)
	}

	svc := services.NewLedgerService(gateway, nil, nil, services.DefaultOptions(), slogger)

	summary, err := seed(ctx, svc, *storeID, counts)
	if err != nil {
		slogger.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Printf("LEDGER SUMMARY for %s\n", *storeID)
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Adjustments:       %d\n", summary.TotalAdjustments)
	fmt.Printf("Net quantity:      %+d\n", summary.TotalQuantityChange)
	fmt.Printf("Cost impact:       %s\n", summary.TotalCostImpact.StringFixed(2))
	fmt.Printf("Pending approvals: %d\n", summary.PendingApprovals)
	for _, r := range summary.Recent {
		fmt.Printf("  - %-10s %-9s %+5d %s\n", r.Type, r.ItemID, r.QuantityChange, r.LocationID)
	}

	if *dryRun {
		fmt.Println("\n[DRY RUN] No changes were made to the database")
	}
}

// seed walks one audit session through a cycle-count batch, a transfer and a
// staff write-off that an admin signs off
func seed(ctx context.Context, svc ports.LedgerService, storeID string, counts []CountLine) (*ports.Summary, error) {
	manager := domain.Actor{UserID: "mgr-001", UserName: "Morgan Lee", Role: domain.RoleManager, DeviceID: "scanner-01", StoreID: storeID}
	staff := domain.Actor{UserID: "stf-014", UserName: "Sam Ortiz", Role: domain.RoleStaff, DeviceID: "scanner-02", StoreID: storeID}
	admin := domain.Actor{UserID: "adm-002", UserName: "Alex Chen", Role: domain.RoleAdmin, StoreID: storeID}

	session, err := svc.StartAuditSession(ctx, manager)
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	group := ports.Grouping{SessionID: &session.ID}

	batch, err := svc.StartAuditBatch(ctx, manager, ports.StartBatchRequest{
		BatchType:  domain.BatchCycleCount,
		TotalItems: len(counts),
		SessionID:  &session.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("start batch: %w", err)
	}

	for _, line := range counts {
		if _, err := svc.RecordCycleCount(ctx, manager, ports.CycleCountRequest{
			Grouping:        ports.Grouping{SessionID: &session.ID, BatchID: &batch.ID},
			ItemID:          line.ItemID,
			LocationID:      line.LocationID,
			SystemQuantity:  line.System,
			CountedQuantity: line.Counted,
			UnitCost:        line.UnitCost,
		}); err != nil {
			return nil, fmt.Errorf("count %s: %w", line.ItemID, err)
		}
	}

	if _, err := svc.CompleteAuditBatch(ctx, manager, batch.ID, domain.BatchCompleted); err != nil {
		return nil, fmt.Errorf("complete batch: %w", err)
	}

	if _, err := svc.RecordTransfer(ctx, manager, ports.TransferRequest{
		Grouping:       group,
		ItemID:         "SKU-1004",
		FromLocationID: "backroom",
		ToLocationID:   "shelf-b2",
		QuantityBefore: 64,
		QuantityMoved:  12,
	}); err != nil {
		return nil, fmt.Errorf("transfer: %w", err)
	}

	cost := decimal.NewFromFloat(4.75)
	damage, err := svc.RecordDamage(ctx, staff, ports.DamageRequest{
		ItemID:          "SKU-1001",
		LocationID:      "shelf-a1",
		QuantityBefore:  40,
		QuantityDamaged: 15,
		UnitCost:        &cost,
		Notes:           "water leak over aisle A",
	})
	if err != nil {
		return nil, fmt.Errorf("damage: %w", err)
	}
	if damage.RequiresApproval {
		if _, err := svc.ApproveAdjustment(ctx, admin, damage.ID, "checked on site"); err != nil {
			return nil, fmt.Errorf("approve: %w", err)
		}
	}

	if _, err := svc.EndAuditSession(ctx, manager, session.ID); err != nil {
		return nil, fmt.Errorf("end session: %w", err)
	}

	return svc.GetSummary(ctx, manager, ports.SummaryQuery{})
}
