// Package ingress is the external collaborator of spec.md §4.5: it
// decodes wire envelopes, validates field ranges, assigns internal order
// ids, and forwards matcher.Actions. Nothing here ever touches a Ledger
// directly.
package ingress

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/saiputravu/ledgerd/internal/ledger"
	"github.com/saiputravu/ledgerd/internal/wire"
)

// toLedgerSide maps the wire enum to the ledger's. Callers must validate
// first; INVALID is never passed through.
func toLedgerSide(s wire.Side) ledger.Side {
	if s == wire.SideSell {
		return ledger.Sell
	}
	return ledger.Buy
}

func toLedgerOrderType(t wire.OrderType) ledger.OrderType {
	switch t {
	case wire.OrderTypeMarket:
		return ledger.Market
	case wire.OrderTypeLimitMaker:
		return ledger.LimitMaker
	default:
		return ledger.Limit
	}
}

// decodeOrder validates a wire order and assigns it a fresh internal id.
// SeqID is left zero: it is minted later by the matcher, on the ledger's
// single-writer side (spec.md §9).
func decodeOrder(o wire.Order) (ledger.Order, error) {
	if err := o.Validate(); err != nil {
		return ledger.Order{}, err
	}
	return ledger.Order{
		ID:        uuid.New(),
		Price:     o.Price,
		Qty:       o.Qty,
		Side:      toLedgerSide(o.Side),
		OrderType: toLedgerOrderType(o.OrderType),
	}, nil
}

// decodeFrame turns one raw wire frame into a ledger.Order plus its
// action id, or an ingress-local error that must never reach the
// matcher (spec.md §7).
func decodeFrame(frame []byte) (actionID uuid.UUID, order ledger.Order, err error) {
	actions, err := wire.DecodeAction(frame)
	if err != nil {
		return uuid.UUID{}, ledger.Order{}, err
	}
	order, err = decodeOrder(actions.AddOrder.Order)
	if err != nil {
		return uuid.UUID{}, ledger.Order{}, fmt.Errorf("order %s: %w", actions.IDUUID, err)
	}
	return actions.IDUUID, order, nil
}
