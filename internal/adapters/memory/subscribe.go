// internal/adapters/memory/subscribe.go
package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

type subscription struct {
	query ports.RecordQuery
	ch    chan ports.RecordSet
}

// push replaces any undelivered set with the latest one. Callers hold g.mu.
func (s *subscription) push(set ports.RecordSet) {
	select {
	case <-s.ch:
	default:
	}
	s.ch <- set
}

// Subscribe emits the current result set and a fresh one after every commit
// touching a matching record. Slow readers only see the latest set.
func (g *Gateway) Subscribe(ctx context.Context, q ports.RecordQuery) (<-chan ports.RecordSet, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	sub := &subscription{query: q, ch: make(chan ports.RecordSet, 1)}
	id := g.nextSub
	g.nextSub++
	g.subs[id] = sub
	sub.push(ports.RecordSet{Records: g.listLocked(q)})

	go func() {
		<-ctx.Done()
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.subs, id)
		close(sub.ch)
	}()

	return sub.ch, nil
}

func (g *Gateway) notifyLocked(touched map[uuid.UUID]*domain.AdjustmentRecord) {
	if len(touched) == 0 {
		return
	}
	for _, sub := range g.subs {
		// an approval drops a record out of a pending-only set, so match
		// without that filter
		broad := sub.query
		broad.PendingOnly = false
		for _, r := range touched {
			if Matches(broad, r) {
				sub.push(ports.RecordSet{Records: g.listLocked(sub.query)})
				break
			}
		}
	}
}
