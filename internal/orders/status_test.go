package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForwardFlow(t *testing.T) {
	flow := []Status{StatusPending, StatusConfirmed, StatusPreparing, StatusReady, StatusServed, StatusCompleted}
	for i := 0; i < len(flow)-1; i++ {
		assert.True(t, CanTransition(flow[i], flow[i+1]), "%s -> %s", flow[i], flow[i+1])
	}
}

func TestNoSkippingOrBacktracking(t *testing.T) {
	cases := []struct{ from, to Status }{
		{StatusPending, StatusPreparing},
		{StatusPending, StatusCompleted},
		{StatusConfirmed, StatusPending},
		{StatusReady, StatusConfirmed},
		{StatusServed, StatusPreparing},
	}
	for _, c := range cases {
		assert.False(t, CanTransition(c.from, c.to), "%s -> %s must be rejected", c.from, c.to)
	}
}

func TestCancellation(t *testing.T) {
	for _, from := range []Status{StatusPending, StatusConfirmed, StatusPreparing, StatusReady, StatusServed} {
		assert.True(t, CanTransition(from, StatusCancelled), "%s -> cancelled", from)
	}
	assert.False(t, CanTransition(StatusCompleted, StatusCancelled))
}

func TestTerminalStates(t *testing.T) {
	for _, to := range []Status{StatusPending, StatusConfirmed, StatusPreparing, StatusReady, StatusServed, StatusCompleted, StatusCancelled} {
		assert.False(t, CanTransition(StatusCompleted, to))
		assert.False(t, CanTransition(StatusCancelled, to))
	}
}

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus(StatusPreparing))
	assert.False(t, ValidStatus(Status("cooking")))
	assert.False(t, ValidStatus(Status("")))
}

func TestPaymentStatusTerminal(t *testing.T) {
	assert.False(t, PaymentPending.Terminal())
	assert.False(t, PaymentProcessing.Terminal())
	assert.True(t, PaymentPaid.Terminal())
	assert.True(t, PaymentFailed.Terminal())
}
