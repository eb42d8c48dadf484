package commerce

const (
	TopicOrderCreated  = "commerce.order.created"
	TopicOrderStatus   = "commerce.order.status"
	TopicReturnStatus  = "commerce.return.status"
	TopicStockAdjusted = "commerce.stock.adjusted"
)

// Partition key = entity id, so all events for one order/product keep order.
func PartitionKey(id string) []byte { return []byte(id) }
