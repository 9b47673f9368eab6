package benchmarks

import (
	"context"
	"testing"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/policy"
	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/internal/core/services"
	"github.com/ammerola/stockledger/internal/workers"
)

func BenchmarkLedgerOperations(b *testing.B) {
	ctx := context.Background()

	b.Run("RecordSale", func(b *testing.B) {
		svc, _ := newBenchService()
		actor := benchActor(domain.RoleManager)

		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := svc.RecordSale(ctx, actor, saleRequest(i)); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("RecordInBatch", func(b *testing.B) {
		svc, _ := newBenchService()
		actor := benchActor(domain.RoleManager)
		batch, err := svc.StartAuditBatch(ctx, actor, ports.StartBatchRequest{
			BatchType:  domain.BatchBulkAdjustment,
			TotalItems: b.N,
		})
		if err != nil {
			b.Fatal(err)
		}

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			req := saleRequest(i)
			req.BatchID = &batch.ID
			if _, err := svc.RecordSale(ctx, actor, req); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("RecordTransfer", func(b *testing.B) {
		svc, _ := newBenchService()
		actor := benchActor(domain.RoleManager)

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, err := svc.RecordTransfer(ctx, actor, ports.TransferRequest{
				ItemID:         benchItems[i%len(benchItems)],
				FromLocationID: "backroom",
				ToLocationID:   "floor",
				QuantityBefore: 40,
				QuantityMoved:  4,
			})
			if err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("GetSummary", func(b *testing.B) {
		svc, _ := newBenchService()
		if err := seedRecords(ctx, svc, 1000); err != nil {
			b.Fatal(err)
		}
		actor := benchActor(domain.RoleManager)

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := svc.GetSummary(ctx, actor, ports.SummaryQuery{}); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("ListPendingApprovals", func(b *testing.B) {
		svc, _ := newBenchService()
		if err := seedRecords(ctx, svc, 1000); err != nil {
			b.Fatal(err)
		}
		actor := benchActor(domain.RoleAdmin)

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := svc.ListPendingApprovals(ctx, actor, 50); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func BenchmarkRequiresApproval(b *testing.B) {
	engine := policy.NewEngine(policy.DefaultThresholds())
	records := buildRecords(64)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r := records[i%len(records)]
		engine.RequiresApproval(r.QuantityChange, r.Reason, r.UserRole, r.UnitCost)
	}
}

func BenchmarkSummarizeRecords(b *testing.B) {
	records := buildRecords(5000)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = services.SummarizeRecords(records, 10)
	}
}

func BenchmarkBuildWorkbook(b *testing.B) {
	records := buildRecords(500)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := workers.BuildWorkbook(records); err != nil {
			b.Fatal(err)
		}
	}
}
