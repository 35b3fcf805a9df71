package orders

import "time"

// Order is a pooled order-book entry. Prices are integer ticks.
type Order struct {
	ID            uint64    `json:"id"`
	ClientOrderID string    `json:"client_order_id"`
	Symbol        string    `json:"symbol"`
	Type          OrderType `json:"type"`
	Price         int64     `json:"price"`
	Quantity      int64     `json:"quantity"`
	Filled        int64     `json:"filled"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewOrder allocates an empty order. It is the factory handed to pools.
func NewOrder() *Order {
	return &Order{}
}

// Open returns the unfilled quantity.
func (o *Order) Open() int64 {
	return o.Quantity - o.Filled
}

// Reduce lowers the order's total size to newSize, counting fills. It
// returns the reject reason, or zero on success.
func (o *Order) Reduce(newSize int64) ReduceRejectReason {
	switch {
	case newSize == 0:
		return ReduceZero
	case newSize < 0:
		return ReduceNegative
	case newSize > o.Quantity:
		return ReduceIncrease
	case newSize == o.Quantity:
		return ReduceSuperfluous
	}
	o.Quantity = max(newSize, o.Filled)
	return 0
}

// Reset clears the order for reuse.
func (o *Order) Reset() {
	*o = Order{}
}

// ExecutionReport describes one fill or reject sent back to a client.
type ExecutionReport struct {
	OrderID      uint64             `json:"order_id"`
	ExecID       uint64             `json:"exec_id"`
	Symbol       string             `json:"symbol"`
	Side         ExecuteSide        `json:"side"`
	LastPrice    int64              `json:"last_price"`
	LastQty      int64              `json:"last_qty"`
	LeavesQty    int64              `json:"leaves_qty"`
	RejectReason ReduceRejectReason `json:"reject_reason"`
	Timestamp    time.Time          `json:"timestamp"`
}

// NewExecutionReport allocates an empty report. It is the factory handed to
// pools.
func NewExecutionReport() *ExecutionReport {
	return &ExecutionReport{}
}

// Fill populates r from a fill of qty at price against o.
func (r *ExecutionReport) Fill(o *Order, execID uint64, side ExecuteSide, price, qty int64, ts time.Time) {
	r.OrderID = o.ID
	r.ExecID = execID
	r.Symbol = o.Symbol
	r.Side = side
	r.LastPrice = price
	r.LastQty = qty
	r.LeavesQty = o.Open()
	r.RejectReason = 0
	r.Timestamp = ts
}

// Rejected reports whether r carries a reject reason.
func (r *ExecutionReport) Rejected() bool {
	return r.RejectReason != 0
}

// Reset clears the report for reuse.
func (r *ExecutionReport) Reset() {
	*r = ExecutionReport{}
}
