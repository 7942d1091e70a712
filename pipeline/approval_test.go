package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoApprover(t *testing.T) {
	d, err := AutoApprover{}.Ask(context.Background(), &ApprovalRequest{RecipeName: "soup"})
	require.NoError(t, err)
	assert.True(t, d.Approved)
}

func TestQueueApprover(t *testing.T) {
	q := NewQueueApprover(&Decision{Approved: true}, &Decision{Approved: false})

	d, err := q.Ask(context.Background(), &ApprovalRequest{})
	require.NoError(t, err)
	assert.True(t, d.Approved)

	d, err = q.Ask(context.Background(), &ApprovalRequest{})
	require.NoError(t, err)
	assert.False(t, d.Approved)

	// Exhausted queue answers with cancellation.
	d, err = q.Ask(context.Background(), &ApprovalRequest{})
	require.NoError(t, err)
	assert.False(t, d.Approved)
}

func TestChannelApproverResolve(t *testing.T) {
	c := NewChannelApprover()

	go c.Resolve(&Decision{Approved: true})

	d, err := c.Ask(context.Background(), &ApprovalRequest{RecipeName: "soup"})
	require.NoError(t, err)
	assert.True(t, d.Approved)
}

func TestChannelApproverContextCancel(t *testing.T) {
	c := NewChannelApprover()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	d, err := c.Ask(ctx, &ApprovalRequest{})
	require.NoError(t, err)
	assert.False(t, d.Approved)
}

func TestChannelApproverOnlyFirstResolveCounts(t *testing.T) {
	c := NewChannelApprover()
	c.Resolve(&Decision{Approved: false})
	c.Resolve(&Decision{Approved: true})

	d, err := c.Ask(context.Background(), &ApprovalRequest{})
	require.NoError(t, err)
	assert.False(t, d.Approved)
}
