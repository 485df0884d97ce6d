package matcher

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tomb "gopkg.in/tomb.v2"

	"github.com/saiputravu/ledgerd/internal/ledger"
)

func startLoop(t *testing.T) (*Loop, *tomb.Tomb) {
	t.Helper()
	lp := NewLoop(16, 16)
	tm, ctx := tomb.WithContext(context.Background())
	tm.Go(func() error { return lp.Run(tm) })
	t.Cleanup(func() {
		tm.Kill(nil)
		_ = tm.Wait()
	})
	_ = ctx
	return lp, tm
}

func TestLoop_AcknowledgesEachActionOnce(t *testing.T) {
	lp, _ := startLoop(t)

	id := uuid.New()
	order := ledger.Order{
		ID:        uuid.New(),
		SeqID:     1,
		Price:     10,
		Qty:       5,
		Side:      ledger.Buy,
		OrderType: ledger.Limit,
	}

	lp.Inbox() <- Action{ActionID: id, Kind: ActionAddOrder, Order: order}

	select {
	case result := <-lp.Outbox():
		assert.Equal(t, id, result.ActionID)
		require.NoError(t, result.Err)
		require.Len(t, result.Mutations, 1)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for action result")
	}
}

func TestLoop_ReceiptOrderPreserved(t *testing.T) {
	lp, _ := startLoop(t)

	var ids []uuid.UUID
	for i := 0; i < 10; i++ {
		id := uuid.New()
		ids = append(ids, id)
		lp.Inbox() <- Action{
			ActionID: id,
			Kind:     ActionAddOrder,
			Order: ledger.Order{
				ID:        uuid.New(),
				SeqID:     uint64(i + 1),
				Price:     uint64(100 + i),
				Qty:       1,
				Side:      ledger.Buy,
				OrderType: ledger.Limit,
			},
		}
	}

	for i := 0; i < 10; i++ {
		select {
		case result := <-lp.Outbox():
			assert.Equal(t, ids[i], result.ActionID, "out-of-order acknowledgement at index %d", i)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for result %d", i)
		}
	}
}

func TestLoop_ShutdownStopsCleanly(t *testing.T) {
	lp := NewLoop(4, 4)
	tm, _ := tomb.WithContext(context.Background())
	tm.Go(func() error { return lp.Run(tm) })

	lp.Inbox() <- Action{Kind: ActionShutdown}

	select {
	case <-tm.Dead():
	case <-time.After(time.Second):
		t.Fatal("loop did not shut down")
	}
	assert.NoError(t, tm.Err())
}

func TestLoop_RejectionIsAcknowledged(t *testing.T) {
	lp, _ := startLoop(t)

	id := uuid.New()
	lp.Inbox() <- Action{
		ActionID: id,
		Kind:     ActionAddOrder,
		Order: ledger.Order{
			ID:        uuid.New(),
			SeqID:     1,
			Qty:       10,
			Side:      ledger.Buy,
			OrderType: ledger.Market,
		},
	}

	select {
	case result := <-lp.Outbox():
		assert.Equal(t, id, result.ActionID)
		assert.ErrorIs(t, result.Err, ledger.ErrNotEnoughLiquidity)
		assert.Nil(t, result.Mutations)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for rejection")
	}
}
