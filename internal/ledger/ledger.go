package ledger

import "errors"

// ErrNotEnoughLiquidity is the sole ledger-level rejection (spec.md §7's
// NotEnoughOrdersToFillMarketOrder): a MARKET order ran out of opposite
// liquidity before it was filled, whether the opposite book was empty from
// the start or emptied partway through the sweep. The book is left exactly
// as it was at entry.
var ErrNotEnoughLiquidity = errors.New("not enough orders to fill market order")

// Ledger is the exclusive owner of both books for one instrument. It has
// no other persistent state besides the books and the seq-id generator.
// It is designed to be driven by a single goroutine (the matcher loop);
// it performs no internal locking.
type Ledger struct {
	buy    *book
	sell   *book
	seqGen SeqGenerator
}

// New constructs an empty ledger for one instrument.
func New() *Ledger {
	return &Ledger{
		buy:  newBuyBook(),
		sell: newSellBook(),
	}
}

// NextSeqID mints a fresh time-priority key. Exposed so the matcher loop
// can stamp an order's SeqID at admission time, after ingress has assigned
// its id, before handing it to SubmitOrder.
func (l *Ledger) NextSeqID() uint64 { return l.seqGen.Next() }

// BuyDepth/SellDepth report up to `levels` resting price levels, best
// first. Read-only; never touched by the matching walk itself.
func (l *Ledger) BuyDepth(levels int) []PriceLevelView  { return l.buy.depth(levels) }
func (l *Ledger) SellDepth(levels int) []PriceLevelView { return l.sell.depth(levels) }

// BuyLen/SellLen report the number of resting orders on each side.
func (l *Ledger) BuyLen() int  { return l.buy.len() }
func (l *Ledger) SellLen() int { return l.sell.len() }

// bookFor returns the book an order of the given side rests on.
func (l *Ledger) bookFor(side Side) *book {
	if side == Buy {
		return l.buy
	}
	return l.sell
}

// opposite returns the book an order of the given side matches against.
func (l *Ledger) opposite(side Side) *book {
	if side == Buy {
		return l.sell
	}
	return l.buy
}

// undoStep is one entry of the revert log: a maker that was popped from
// `from` during the walk, to be pushed back to its front on abort.
type undoStep struct {
	from  *book
	order *Order
}

// SubmitOrder is the one non-trivial algorithm in the repository: the
// bounded fixed-point walk of spec.md §4.3. It returns the ordered
// mutation log of a successful submission, or ErrNotEnoughLiquidity with
// the books left untouched.
func (l *Ledger) SubmitOrder(order Order) ([]Mutation, error) {
	l.assertAdmissible(order)

	originID := order.ID
	carry := order
	opposite := l.opposite(order.Side)

	var mutations []Mutation
	var undo []undoStep

	for {
		if carry.Empty() {
			return mutations, nil
		}

		if carry.ID != originID {
			// Unreachable in the present ledger (see spec.md §4.3 step 2):
			// residuals always carry the origin's id and are treated as
			// the continuing taker. Handled defensively regardless.
			own := l.bookFor(carry.Side)
			own.push(&carry)
			mutations = append(mutations, AddedMakerOrder{Order: carry})
			return mutations, nil
		}

		cand, hasCand := opposite.peekBest()
		matched := matchPredicate(carry, cand, hasCand)

		if !matched {
			if carry.OrderType == Market {
				l.revert(undo)
				return nil, ErrNotEnoughLiquidity
			}
			own := l.bookFor(carry.Side)
			own.push(&carry)
			mutations = append(mutations, AddedMakerOrder{Order: carry})
			return mutations, nil
		}

		popped, _ := opposite.popBest()
		undo = append(undo, undoStep{from: opposite, order: popped})

		trade, residual := execute(carry, *popped, &l.seqGen)
		mutations = append(mutations, TradeExecuted{Trade: trade})

		switch {
		case residual == nil:
			carry.Qty = 0
		case residual.ID == originID:
			carry = *residual
		default:
			opposite.push(residual)
			return mutations, nil
		}
	}
}

// matchPredicate implements spec.md §4.3 step 4.
func matchPredicate(taker Order, cand *Order, hasCand bool) bool {
	if !hasCand {
		return false
	}
	switch taker.OrderType {
	case Market:
		return true
	default: // Limit, LimitMaker
		if taker.Side == Buy {
			return cand.Price <= taker.Price
		}
		return cand.Price >= taker.Price
	}
}

// revert undoes a walk's book edits in reverse order, restoring the exact
// pre-call state (spec.md §4.3's buffered-commit revert, §9's normative
// guidance). Each undone pop is re-pushed to the front of its level with
// its original, unmodified SeqID.
func (l *Ledger) revert(undo []undoStep) {
	for i := len(undo) - 1; i >= 0; i-- {
		step := undo[i]
		step.from.pushFront(step.order)
	}
}
