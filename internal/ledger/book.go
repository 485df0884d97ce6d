package ledger

import "github.com/tidwall/btree"

// priceLevel holds every resting order at a single price, oldest first.
// Time priority within a level is simply slice order: orders are appended
// on arrival and popped from the front.
type priceLevel struct {
	price  uint64
	orders []*Order
}

// book is one side's ordered multiset of resting orders, backed by a
// balanced tree of price levels (SPEC_FULL.md §4.1: a balanced search
// tree is acceptable "if implementations want iteration at a given price
// level" — which the revert path and depth reporting both do). Buy and
// sell books use two independent comparators rather than one comparator
// that inverts operands per side, per the recommendation in spec.md §9.
type book struct {
	side Side
	tree *btree.BTreeG[*priceLevel]
	n    int
}

func newBuyBook() *book {
	return &book{
		side: Buy,
		tree: btree.NewBTreeG(func(a, b *priceLevel) bool { return a.price > b.price }),
	}
}

func newSellBook() *book {
	return &book{
		side: Sell,
		tree: btree.NewBTreeG(func(a, b *priceLevel) bool { return a.price < b.price }),
	}
}

func (b *book) len() int { return b.n }

// peekBest returns the best-for-execution resting order without removing
// it, or (nil, false) if the book is empty.
func (b *book) peekBest() (*Order, bool) {
	lvl, ok := b.tree.Min()
	if !ok || len(lvl.orders) == 0 {
		return nil, false
	}
	return lvl.orders[0], true
}

// popBest removes and returns the best-for-execution resting order.
func (b *book) popBest() (*Order, bool) {
	lvl, ok := b.tree.MinMut()
	if !ok || len(lvl.orders) == 0 {
		return nil, false
	}
	o := lvl.orders[0]
	lvl.orders[0] = nil
	lvl.orders = lvl.orders[1:]
	if len(lvl.orders) == 0 {
		b.tree.Delete(lvl)
	}
	b.n--
	return o, true
}

// push posts o as a new resting order at the tail of its price level: the
// correct place for a freshly-admitted taker residual or a freshly-posted
// maker, since both are younger than anything already resting there.
func (b *book) push(o *Order) {
	b.insert(o, false)
}

// pushFront restores o to the front of its price level. Used only by the
// ledger's abort-revert path to put back a maker exactly where it was
// before it was popped (same SeqID, same relative order).
func (b *book) pushFront(o *Order) {
	b.insert(o, true)
}

func (b *book) insert(o *Order, front bool) {
	lvl, ok := b.tree.GetMut(&priceLevel{price: o.Price})
	if !ok {
		lvl = &priceLevel{price: o.Price}
		b.tree.Set(lvl)
	}
	if front {
		lvl.orders = append([]*Order{o}, lvl.orders...)
	} else {
		lvl.orders = append(lvl.orders, o)
	}
	b.n++
}

// depth returns up to `levels` price levels best-first, for read-only
// reporting (benchmark/CLI snapshots); never used by the matching walk.
func (b *book) depth(levels int) []PriceLevelView {
	out := make([]PriceLevelView, 0, levels)
	b.tree.Scan(func(lvl *priceLevel) bool {
		if len(out) >= levels {
			return false
		}
		var qty uint64
		for _, o := range lvl.orders {
			qty += o.Qty
		}
		out = append(out, PriceLevelView{Price: lvl.price, Qty: qty, Orders: len(lvl.orders)})
		return true
	})
	return out
}

// PriceLevelView is a read-only snapshot of a single price level.
type PriceLevelView struct {
	Price  uint64
	Qty    uint64
	Orders int
}
