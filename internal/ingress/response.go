package ingress

import (
	"bytes"
	"encoding/binary"

	"github.com/saiputravu/ledgerd/internal/ledger"
	"github.com/saiputravu/ledgerd/internal/matcher"
)

// Action response wire tags (mirrors the TLV style of wire.Envelope, but
// this framing is internal to the ingress<->matcher response path rather
// than a mandated protocol tag from spec.md §6, which only fixes the
// request-side tags).
const (
	respTagActionID  = 1
	respTagRejection = 2
	respTagMutation  = 3

	mutKindAddedMaker   = 0
	mutKindTradeExecute = 1
)

func putUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func putOrder(buf *bytes.Buffer, o ledger.Order) {
	buf.Write(o.ID[:])
	putUint64(buf, o.SeqID)
	putUint64(buf, o.Price)
	putUint64(buf, o.Qty)
	buf.WriteByte(byte(o.Side))
	buf.WriteByte(byte(o.OrderType))
}

// encodeActionResponse serializes one ActionResult for the wire, tagging
// it with the originating action_id (spec.md §6's action response
// envelope).
func encodeActionResponse(result matcher.ActionResult) []byte {
	var buf bytes.Buffer
	buf.WriteByte(respTagActionID)
	buf.Write(result.ActionID[:])

	if result.Err != nil {
		buf.WriteByte(respTagRejection)
		msg := result.Err.Error()
		var lenBuf [2]byte
		binary.BigEndian.PutUint16(lenBuf[:], uint16(len(msg)))
		buf.Write(lenBuf[:])
		buf.WriteString(msg)
		return buf.Bytes()
	}

	for _, m := range result.Mutations {
		buf.WriteByte(respTagMutation)
		switch mv := m.(type) {
		case ledger.AddedMakerOrder:
			buf.WriteByte(mutKindAddedMaker)
			putOrder(&buf, mv.Order)
		case ledger.TradeExecuted:
			buf.WriteByte(mutKindTradeExecute)
			putOrder(&buf, mv.Trade.Taker)
			putOrder(&buf, mv.Trade.Maker)
			putUint64(&buf, mv.Trade.Price)
			putUint64(&buf, mv.Trade.Qty)
		}
	}
	return buf.Bytes()
}
