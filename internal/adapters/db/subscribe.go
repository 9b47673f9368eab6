// internal/adapters/db/subscribe.go
package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ammerola/stockledger/internal/core/ports"
)

// Subscribe listens on the ledger notification channel and re-runs q after
// every notification for q's store. Emissions are coalesced: a slow reader
// only sees the latest set.
func (g *LedgerGateway) Subscribe(ctx context.Context, q ports.RecordQuery) (<-chan ports.RecordSet, error) {
	conn, err := g.db.Listen(ctx, NotifyChannel)
	if err != nil {
		return nil, err
	}

	out := make(chan ports.RecordSet, 1)
	push := func(set ports.RecordSet) {
		select {
		case <-out:
		default:
		}
		out <- set
	}
	query := func() ports.RecordSet {
		records, err := g.ListRecords(ctx, q)
		return ports.RecordSet{Records: records, Err: err}
	}

	push(query())

	go func() {
		defer close(out)
		defer func() {
			_, _ = conn.Exec(context.Background(), "UNLISTEN *")
			conn.Release()
		}()

		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil && !errors.Is(err, context.Canceled) {
					g.logger.ErrorContext(ctx, "ledger subscription dropped", slog.String("error", err.Error()))
					push(ports.RecordSet{Err: err})
				}
				return
			}
			if q.StoreID != "" && n.Payload != q.StoreID {
				continue
			}
			set := query()
			if ctx.Err() != nil {
				return
			}
			push(set)
		}
	}()

	return out, nil
}
