package ledger

import (
	"encoding/binary"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	assertionsEnabled = true
}

// testID builds a deterministic, human-readable uuid for test fixtures so
// assertions can refer back to "the order with id=N" the way spec.md's
// scenarios do.
func testID(n uint64) uuid.UUID {
	var id uuid.UUID
	binary.BigEndian.PutUint64(id[8:], n)
	return id
}

func limitOrder(l *Ledger, id uint64, side Side, price, qty uint64) Order {
	return Order{
		ID:        testID(id),
		SeqID:     l.NextSeqID(),
		Price:     price,
		Qty:       qty,
		Side:      side,
		OrderType: Limit,
	}
}

func marketOrder(l *Ledger, id uint64, side Side, qty uint64) Order {
	return Order{
		ID:        testID(id),
		SeqID:     l.NextSeqID(),
		Qty:       qty,
		Side:      side,
		OrderType: Market,
	}
}

// Scenario 1: Simple post.
func TestScenario_SimplePost(t *testing.T) {
	l := New()
	order := limitOrder(l, 1234567890, Buy, 999, 111)

	muts, err := l.SubmitOrder(order)
	require.NoError(t, err)
	require.Len(t, muts, 1)

	added, ok := muts[0].(AddedMakerOrder)
	require.True(t, ok)
	assert.Equal(t, order, added.Order)

	assert.Equal(t, 1, l.BuyLen())
	assert.Equal(t, 0, l.SellLen())
}

// Scenario 2: Full fill.
func TestScenario_FullFill(t *testing.T) {
	l := New()
	buy := limitOrder(l, 1234567890, Buy, 10, 8)
	_, err := l.SubmitOrder(buy)
	require.NoError(t, err)

	sell := limitOrder(l, 987654321, Sell, 10, 8)
	muts, err := l.SubmitOrder(sell)
	require.NoError(t, err)
	require.Len(t, muts, 1)

	trade, ok := muts[0].(TradeExecuted)
	require.True(t, ok)
	assert.Equal(t, sell.ID, trade.Trade.Taker.ID)
	assert.Equal(t, buy.ID, trade.Trade.Maker.ID)
	assert.Equal(t, uint64(10), trade.Trade.Price)
	assert.Equal(t, uint64(8), trade.Trade.Qty)

	assert.Equal(t, 0, l.BuyLen())
	assert.Equal(t, 0, l.SellLen())
}

// Scenario 3: Market rejected when empty.
func TestScenario_MarketRejectedWhenEmpty(t *testing.T) {
	l := New()
	order := marketOrder(l, 1, Buy, 8)

	muts, err := l.SubmitOrder(order)
	assert.ErrorIs(t, err, ErrNotEnoughLiquidity)
	assert.Nil(t, muts)
	assert.Equal(t, 0, l.BuyLen())
	assert.Equal(t, 0, l.SellLen())
}

// Scenario 4: Sweep across four levels.
func TestScenario_SweepAcrossFourLevels(t *testing.T) {
	l := New()
	// Posted in arbitrary order, per spec.
	_, err := l.SubmitOrder(limitOrder(l, 77, Buy, 12, 3))
	require.NoError(t, err)
	_, err = l.SubmitOrder(limitOrder(l, 99, Buy, 14, 1))
	require.NoError(t, err)
	_, err = l.SubmitOrder(limitOrder(l, 66, Buy, 11, 4))
	require.NoError(t, err)
	_, err = l.SubmitOrder(limitOrder(l, 88, Buy, 13, 2))
	require.NoError(t, err)

	muts, err := l.SubmitOrder(limitOrder(l, 5, Sell, 1, 10))
	require.NoError(t, err)
	require.Len(t, muts, 4)

	wantPrices := []uint64{14, 13, 12, 11}
	wantQtys := []uint64{1, 2, 3, 4}
	for i, m := range muts {
		trade, ok := m.(TradeExecuted)
		require.True(t, ok)
		assert.Equal(t, wantPrices[i], trade.Trade.Price)
		assert.Equal(t, wantQtys[i], trade.Trade.Qty)
	}

	assert.Equal(t, 0, l.BuyLen())
	assert.Equal(t, 0, l.SellLen())
}

// Scenario 5: Partial post then market fill.
func TestScenario_PartialPostThenMarketFill(t *testing.T) {
	l := New()
	_, err := l.SubmitOrder(limitOrder(l, 99, Sell, 14, 1))
	require.NoError(t, err)
	_, err = l.SubmitOrder(limitOrder(l, 88, Sell, 17, 1))
	require.NoError(t, err)

	muts, err := l.SubmitOrder(limitOrder(l, 77, Buy, 16, 3))
	require.NoError(t, err)
	require.Len(t, muts, 2)

	trade, ok := muts[0].(TradeExecuted)
	require.True(t, ok)
	assert.Equal(t, uint64(14), trade.Trade.Price)
	assert.Equal(t, uint64(1), trade.Trade.Qty)

	added, ok := muts[1].(AddedMakerOrder)
	require.True(t, ok)
	assert.Equal(t, testID(77), added.Order.ID)
	assert.Equal(t, uint64(16), added.Order.Price)
	assert.Equal(t, uint64(2), added.Order.Qty)

	muts, err = l.SubmitOrder(marketOrder(l, 66, Sell, 2))
	require.NoError(t, err)
	require.Len(t, muts, 1)

	trade, ok = muts[0].(TradeExecuted)
	require.True(t, ok)
	assert.Equal(t, uint64(16), trade.Trade.Price)
	assert.Equal(t, uint64(2), trade.Trade.Qty)

	assert.Equal(t, 0, l.BuyLen())
	require.Equal(t, 1, l.SellLen())
	depth := l.SellDepth(1)
	require.Len(t, depth, 1)
	assert.Equal(t, uint64(17), depth[0].Price)
}

// Scenario 6: Time priority at equal price.
func TestScenario_TimePriorityAtEqualPrice(t *testing.T) {
	l := New()
	orderA := limitOrder(l, 0xA, Buy, 10, 1)
	_, err := l.SubmitOrder(orderA)
	require.NoError(t, err)

	orderB := limitOrder(l, 0xB, Buy, 10, 1)
	_, err = l.SubmitOrder(orderB)
	require.NoError(t, err)

	muts, err := l.SubmitOrder(limitOrder(l, 0xC, Sell, 10, 1))
	require.NoError(t, err)
	require.Len(t, muts, 1)

	trade, ok := muts[0].(TradeExecuted)
	require.True(t, ok)
	assert.Equal(t, orderA.ID, trade.Trade.Maker.ID)
	assert.NotEqual(t, orderB.ID, trade.Trade.Maker.ID)
}

// Atomic revert: a MARKET submission that aborts after partially sweeping
// the book (because total depth is less than the order's quantity) must
// leave the book exactly as it was at entry.
func TestMarketAbort_RevertsPartialSweep(t *testing.T) {
	l := New()
	_, err := l.SubmitOrder(limitOrder(l, 1, Sell, 10, 5))
	require.NoError(t, err)
	_, err = l.SubmitOrder(limitOrder(l, 2, Sell, 11, 5))
	require.NoError(t, err)

	muts, err := l.SubmitOrder(marketOrder(l, 3, Buy, 100))
	assert.ErrorIs(t, err, ErrNotEnoughLiquidity)
	assert.Nil(t, muts)

	assert.Equal(t, 0, l.BuyLen())
	require.Equal(t, 2, l.SellLen())

	depth := l.SellDepth(2)
	require.Len(t, depth, 2)
	assert.Equal(t, uint64(10), depth[0].Price)
	assert.Equal(t, uint64(5), depth[0].Qty)
	assert.Equal(t, uint64(11), depth[1].Price)
	assert.Equal(t, uint64(5), depth[1].Qty)
}

// LIMIT bound honored: a limit taker never trades outside its own limit.
func TestLimitBoundHonored(t *testing.T) {
	l := New()
	_, err := l.SubmitOrder(limitOrder(l, 1, Sell, 20, 5))
	require.NoError(t, err)

	muts, err := l.SubmitOrder(limitOrder(l, 2, Buy, 15, 5))
	require.NoError(t, err)
	require.Len(t, muts, 1)

	added, ok := muts[0].(AddedMakerOrder)
	require.True(t, ok)
	assert.Equal(t, uint64(15), added.Order.Price)
	assert.Equal(t, 1, l.SellLen())
	assert.Equal(t, 1, l.BuyLen())
}
