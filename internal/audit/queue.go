package audit

import (
	"context"

	id "bidrag/pkg/domain"
)

// Queue is a Store that buffers appends on a channel for a Worker to drain,
// keeping persistence off the request path. Reads go straight to the backing
// store, so recently queued events may not be visible yet.
type Queue struct {
	backing Store
	inbox   chan Event
}

func NewQueue(backing Store, size int) *Queue {
	return &Queue{backing: backing, inbox: make(chan Event, size)}
}

// Inbox exposes the channel a Worker drains.
func (q *Queue) Inbox() <-chan Event {
	return q.inbox
}

func (q *Queue) Append(ctx context.Context, event Event) error {
	select {
	case q.inbox <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) ListByCase(ctx context.Context, caseID id.CaseID) ([]Event, error) {
	return q.backing.ListByCase(ctx, caseID)
}
