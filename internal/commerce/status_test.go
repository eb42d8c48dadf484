package commerce

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var allOrderStatuses = []OrderStatus{
	OrderPending, OrderAccepted, OrderPaid, OrderShipped, OrderCompleted, OrderRefunded,
}

func TestOrderTransitionGraph(t *testing.T) {
	allowed := map[[2]OrderStatus]bool{
		{OrderPending, OrderAccepted}:   true,
		{OrderAccepted, OrderPaid}:      true,
		{OrderPaid, OrderShipped}:       true,
		{OrderPaid, OrderRefunded}:      true,
		{OrderShipped, OrderCompleted}:  true,
		{OrderShipped, OrderRefunded}:   true,
		{OrderCompleted, OrderRefunded}: true,
	}
	// every (from, to) pair succeeds iff it is directly reachable
	for _, from := range allOrderStatuses {
		for _, to := range allOrderStatuses {
			got := CanTransitionOrder(from, to)
			assert.Equal(t, allowed[[2]OrderStatus{from, to}], got, "%s -> %s", from, to)
		}
	}
}

func TestOrderStatusValid(t *testing.T) {
	for _, s := range allOrderStatuses {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, OrderStatus("CANCELLED").Valid())
	assert.False(t, OrderStatus("").Valid())
}

func TestPaymentStateFor(t *testing.T) {
	tests := []struct {
		status OrderStatus
		isPaid bool
		want   string
	}{
		{OrderPending, false, PaymentPending},
		{OrderAccepted, false, PaymentPending},
		{OrderPaid, true, PaymentPaid},
		{OrderShipped, true, PaymentPaid},
		{OrderCompleted, true, PaymentPaid},
		{OrderRefunded, false, PaymentRefunded},
	}
	for _, tc := range tests {
		isPaid, ps := PaymentStateFor(tc.status)
		assert.Equal(t, tc.isPaid, isPaid, string(tc.status))
		assert.Equal(t, tc.want, ps, string(tc.status))
		// the pair must always agree
		assert.Equal(t, isPaid, ps == PaymentPaid, string(tc.status))
	}
}

var allReturnStatuses = []ReturnStatus{
	ReturnSubmitted, ReturnApproved, ReturnRejected, ReturnRefunded,
}

func TestReturnTransitionGraph(t *testing.T) {
	allowed := map[[2]ReturnStatus]bool{
		{ReturnSubmitted, ReturnApproved}: true,
		{ReturnSubmitted, ReturnRejected}: true,
		{ReturnApproved, ReturnRefunded}:  true,
	}
	for _, from := range allReturnStatuses {
		for _, to := range allReturnStatuses {
			want := allowed[[2]ReturnStatus{from, to}] || from == to
			assert.Equal(t, want, CanTransitionReturn(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCreditsStock(t *testing.T) {
	assert.True(t, CreditsStock(ReturnSubmitted, ReturnApproved))
	assert.True(t, CreditsStock(ReturnSubmitted, ReturnRefunded))
	// second leg of Submitted -> Approved -> Refunded must not credit again
	assert.False(t, CreditsStock(ReturnApproved, ReturnRefunded))
	assert.False(t, CreditsStock(ReturnApproved, ReturnApproved))
	assert.False(t, CreditsStock(ReturnRefunded, ReturnRefunded))
	assert.False(t, CreditsStock(ReturnSubmitted, ReturnRejected))
}
