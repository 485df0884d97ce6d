// Package ledger implements the single-instrument price-time matching core:
// two priority books, a trade-execution primitive, and the order submission
// walk that ties them together.
package ledger

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Side identifies which side of the book an order belongs to.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "BUY"
	}
	return "SELL"
}

// OrderType identifies the matching semantics of an order.
type OrderType int

const (
	// Market orders sweep the opposite book until filled; they abort if
	// the opposite book runs out of liquidity before they are filled.
	Market OrderType = iota
	// Limit orders match only at an acceptable price and otherwise rest.
	Limit
	// LimitMaker is currently matched identically to Limit; see
	// SPEC_FULL.md Open Questions for why post-only semantics are left to
	// a future ingress/protocol layer.
	LimitMaker
)

func (t OrderType) String() string {
	switch t {
	case Market:
		return "MARKET"
	case Limit:
		return "LIMIT"
	case LimitMaker:
		return "LIMIT_MAKER"
	default:
		return "UNKNOWN"
	}
}

// Order is an immutable descriptor of a submitted intent. Residuals are
// never mutated in place; they are derived via CopyWithNewQty.
type Order struct {
	ID        uuid.UUID
	SeqID     uint64
	Price     uint64
	Qty       uint64
	Side      Side
	OrderType OrderType
}

// CopyWithNewQty derives a residual order: same ID, price, side and type,
// a fresh SeqID (minted by seqGen), and the new quantity. Residuals take
// the worst time-priority among existing orders at their level because
// they were produced strictly later than any resting order they could
// have matched against.
func (o Order) CopyWithNewQty(seqGen *SeqGenerator, qty uint64) Order {
	return Order{
		ID:        o.ID,
		SeqID:     seqGen.Next(),
		Price:     o.Price,
		Qty:       qty,
		Side:      o.Side,
		OrderType: o.OrderType,
	}
}

// Empty reports whether the order has no remaining quantity.
func (o Order) Empty() bool {
	return o.Qty == 0
}

// SeqGenerator mints strictly increasing time-priority keys. It is owned
// by the Ledger (single-writer, the matcher goroutine) rather than by
// ingress; see SPEC_FULL.md Open Questions for the rationale.
type SeqGenerator struct {
	counter atomic.Uint64
}

// Next returns the next sequence id. Starts at 1 so the zero value of
// Order.SeqID is never a valid admitted sequence id.
func (g *SeqGenerator) Next() uint64 {
	return g.counter.Add(1)
}
