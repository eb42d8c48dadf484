package commerce

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderAccepted  OrderStatus = "ACCEPTED"
	OrderPaid      OrderStatus = "PAID"
	OrderShipped   OrderStatus = "SHIPPED"
	OrderCompleted OrderStatus = "COMPLETED"
	OrderRefunded  OrderStatus = "REFUNDED"
)

var orderNext = map[OrderStatus]map[OrderStatus]bool{
	OrderPending:   {OrderAccepted: true},
	OrderAccepted:  {OrderPaid: true},
	OrderPaid:      {OrderShipped: true, OrderRefunded: true},
	OrderShipped:   {OrderCompleted: true, OrderRefunded: true},
	OrderCompleted: {OrderRefunded: true},
	OrderRefunded:  {},
}

func (s OrderStatus) Valid() bool {
	_, ok := orderNext[s]
	return ok
}

func CanTransitionOrder(from, to OrderStatus) bool {
	return orderNext[from][to]
}

const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
)

// PaymentStateFor derives (isPaid, paymentStatus) from an order status.
// The two must always agree: isPaid iff paymentStatus == "paid".
func PaymentStateFor(s OrderStatus) (bool, string) {
	switch s {
	case OrderPaid, OrderShipped, OrderCompleted:
		return true, PaymentPaid
	case OrderRefunded:
		return false, PaymentRefunded
	default:
		return false, PaymentPending
	}
}

type ReturnStatus string

const (
	ReturnSubmitted ReturnStatus = "SUBMITTED"
	ReturnApproved  ReturnStatus = "APPROVED"
	ReturnRejected  ReturnStatus = "REJECTED"
	ReturnRefunded  ReturnStatus = "REFUNDED"
)

var returnNext = map[ReturnStatus]map[ReturnStatus]bool{
	ReturnSubmitted: {ReturnApproved: true, ReturnRejected: true},
	ReturnApproved:  {ReturnRefunded: true},
	ReturnRejected:  {},
	ReturnRefunded:  {},
}

func (s ReturnStatus) Valid() bool {
	_, ok := returnNext[s]
	return ok
}

// CanTransitionReturn permits re-asserting the current status so a later
// edit of an already-approved return is a history-append no-op rather
// than an error.
func CanTransitionReturn(from, to ReturnStatus) bool {
	if from == to {
		return true
	}
	return returnNext[from][to]
}

// CreditsStock reports whether moving from -> to should credit returned
// quantity back to inventory. Only the first entry into the
// approved/refunded pair qualifies.
func CreditsStock(from, to ReturnStatus) bool {
	entering := to == ReturnApproved || to == ReturnRefunded
	already := from == ReturnApproved || from == ReturnRefunded
	return entering && !already
}
