package ledger

// Trade is the immutable record of a single match between a taker and a
// resting maker. Price is the maker's price (price-improvement rule: a
// taker always trades at the resting quote, never its own limit).
type Trade struct {
	Taker Order
	Maker Order
	Price uint64
	Qty   uint64
}

// execute is the trade primitive of spec.md §4.2. It is total: it
// never fails, and returns a residual order only when the taker and maker
// quantities differ.
func execute(taker, maker Order, seqGen *SeqGenerator) (Trade, *Order) {
	q := min(taker.Qty, maker.Qty)

	trade := Trade{
		Taker: taker,
		Maker: maker,
		Price: maker.Price,
		Qty:   q,
	}

	switch {
	case taker.Qty < maker.Qty:
		residual := maker.CopyWithNewQty(seqGen, maker.Qty-q)
		return trade, &residual
	case taker.Qty > maker.Qty:
		residual := taker.CopyWithNewQty(seqGen, taker.Qty-q)
		return trade, &residual
	default:
		return trade, nil
	}
}
