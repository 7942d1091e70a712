package pipeline

import (
	"context"
	"sync"
)

// ApprovalRequest asks a human to confirm knowledge-mode generation before
// any model call is made.
type ApprovalRequest struct {
	RecipeName string `json:"recipe_name"`
}

// Decision is the human's response to an approval request.
type Decision struct {
	Approved bool `json:"approved"`
}

// Approver is the human-in-the-loop interface for the knowledge-mode gate.
// Ask blocks until a decision arrives or the context is done; a cancelled
// context counts as cancellation, never as approval.
type Approver interface {
	Ask(ctx context.Context, req *ApprovalRequest) (*Decision, error)
}

// AutoApprover always approves. Used for automated tests and non-interactive
// callers that have approved out of band.
type AutoApprover struct{}

func (AutoApprover) Ask(ctx context.Context, req *ApprovalRequest) (*Decision, error) {
	return &Decision{Approved: true}, nil
}

// QueueApprover serves decisions from a pre-filled queue. Used for
// deterministic testing; an empty queue answers with cancellation.
type QueueApprover struct {
	mu        sync.Mutex
	decisions []*Decision
}

// NewQueueApprover creates a QueueApprover with the given decisions.
func NewQueueApprover(decisions ...*Decision) *QueueApprover {
	return &QueueApprover{decisions: decisions}
}

// Enqueue adds a decision to the queue.
func (q *QueueApprover) Enqueue(d *Decision) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.decisions = append(q.decisions, d)
}

// Ask dequeues the next decision, or cancels when the queue is empty.
func (q *QueueApprover) Ask(ctx context.Context, req *ApprovalRequest) (*Decision, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.decisions) == 0 {
		return &Decision{Approved: false}, nil
	}
	d := q.decisions[0]
	q.decisions = q.decisions[1:]
	return d, nil
}

// CallbackApprover delegates the decision to a callback. Useful for wiring
// external surfaces (web UI, chat) into the gate.
type CallbackApprover struct {
	Callback func(ctx context.Context, req *ApprovalRequest) (*Decision, error)
}

func (c *CallbackApprover) Ask(ctx context.Context, req *ApprovalRequest) (*Decision, error) {
	return c.Callback(ctx, req)
}

// ChannelApprover suspends until a decision is delivered on its channel or
// the context is done. The server surface uses this to park a run in
// awaiting_approval for as long as the human takes, while treating caller
// disconnection as cancellation.
type ChannelApprover struct {
	decisionCh chan *Decision
}

// NewChannelApprover creates a ChannelApprover.
func NewChannelApprover() *ChannelApprover {
	return &ChannelApprover{decisionCh: make(chan *Decision, 1)}
}

// Resolve delivers the decision. Only the first delivery counts.
func (c *ChannelApprover) Resolve(d *Decision) {
	select {
	case c.decisionCh <- d:
	default:
	}
}

// Ask blocks until Resolve is called or the context is done.
func (c *ChannelApprover) Ask(ctx context.Context, req *ApprovalRequest) (*Decision, error) {
	select {
	case d := <-c.decisionCh:
		return d, nil
	case <-ctx.Done():
		// Abandoned sessions cancel rather than hang.
		return &Decision{Approved: false}, nil
	}
}
