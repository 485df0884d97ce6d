// Package wire implements the length-delimited tag-value envelope
// described in spec.md §6: an outer {type_url, value} envelope carrying an
// Actions message with exactly one variant today (add_order), and the
// AddOrder/Order payloads nested inside it.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// TypeURL is the only type_url accepted by the outer envelope.
const TypeURL = "libtradeengine.proto.Actions"

// Tag numbers, fixed by spec.md §6.
const (
	tagEnvelopeTypeURL = 1
	tagEnvelopeValue   = 2

	tagActionsIDUUID   = 1
	tagActionsAddOrder = 2

	tagAddOrderCurrencyPair = 1
	tagAddOrderOrder        = 2

	tagOrderCustomerTag = 1
	tagOrderPrice       = 2
	tagOrderQty         = 3
	tagOrderSide        = 4
	tagOrderOrderType   = 5
)

var (
	ErrBadEnvelope        = errors.New("wire: malformed envelope")
	ErrUnsupportedTypeURL = errors.New("wire: unsupported type_url")
	ErrMalformedInner     = errors.New("wire: malformed inner message")
	ErrUnknownAction      = errors.New("wire: unknown action variant")
)

// FieldOutOfRangeError wraps spec.md §7's FieldOutOfRange{field}.
type FieldOutOfRangeError struct {
	Field string
}

func (e *FieldOutOfRangeError) Error() string {
	return fmt.Sprintf("wire: field out of range: %s", e.Field)
}

func fieldOutOfRange(field string) error { return &FieldOutOfRangeError{Field: field} }

// Side mirrors spec.md §6's wire enum (distinct from ledger.Side: INVALID
// is a representable wire value that must be rejected at validation).
type Side uint8

const (
	SideInvalid Side = 0
	SideBuy     Side = 1
	SideSell    Side = 2
)

// OrderType mirrors spec.md §6's wire enum.
type OrderType uint8

const (
	OrderTypeInvalid    OrderType = 0
	OrderTypeMarket     OrderType = 1
	OrderTypeLimit      OrderType = 2
	OrderTypeLimitMaker OrderType = 3
)

// Order is the wire form of an order (spec.md §6).
type Order struct {
	CustomerTag string
	Price       uint64
	Qty         uint64
	Side        Side
	OrderType   OrderType
}

// Validate applies the ingress-layer range checks of spec.md §6/§7.
func (o Order) Validate() error {
	if len(o.CustomerTag) > 32 {
		return fieldOutOfRange("customer_tag")
	}
	if o.Qty == 0 {
		return fieldOutOfRange("qty")
	}
	if o.Side != SideBuy && o.Side != SideSell {
		return fieldOutOfRange("side")
	}
	switch o.OrderType {
	case OrderTypeMarket:
		// price is unspecified for market orders; zero is fine.
	case OrderTypeLimit, OrderTypeLimitMaker:
		if o.Price == 0 {
			return fieldOutOfRange("price")
		}
	default:
		return fieldOutOfRange("order_type")
	}
	return nil
}

// AddOrder is the wire form of the only Actions variant today.
type AddOrder struct {
	CurrencyPair string
	Order        Order
}

// Actions is the wire form of the envelope's inner message.
type Actions struct {
	IDUUID   uuid.UUID
	AddOrder AddOrder
}

// Envelope is the outer {type_url, value} wrapper.
type Envelope struct {
	TypeURL string
	Value   []byte
}

// --- encoding -----------------------------------------------------------

func writeTag(buf *bytes.Buffer, tag byte) { buf.WriteByte(tag) }

func writeString(buf *bytes.Buffer, tag byte, s string) {
	writeTag(buf, tag)
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(s)))
	buf.Write(lenBuf[:])
	buf.WriteString(s)
}

func writeBytesField(buf *bytes.Buffer, tag byte, b []byte) {
	writeTag(buf, tag)
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(b)))
	buf.Write(lenBuf[:])
	buf.Write(b)
}

func writeUint64(buf *bytes.Buffer, tag byte, v uint64) {
	writeTag(buf, tag)
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeByte(buf *bytes.Buffer, tag byte, v byte) {
	writeTag(buf, tag)
	buf.WriteByte(v)
}

// EncodeOrder serializes an Order using tags customer_tag=1, price=2,
// qty=3, side=4, order_type=5.
func EncodeOrder(o Order) []byte {
	var buf bytes.Buffer
	if o.CustomerTag != "" {
		writeString(&buf, tagOrderCustomerTag, o.CustomerTag)
	}
	if o.Price != 0 {
		writeUint64(&buf, tagOrderPrice, o.Price)
	}
	if o.Qty != 0 {
		writeUint64(&buf, tagOrderQty, o.Qty)
	}
	if o.Side != SideInvalid {
		writeByte(&buf, tagOrderSide, byte(o.Side))
	}
	if o.OrderType != OrderTypeInvalid {
		writeByte(&buf, tagOrderOrderType, byte(o.OrderType))
	}
	return buf.Bytes()
}

// EncodeAddOrder serializes an AddOrder using tags currency_pair=1, order=2.
func EncodeAddOrder(a AddOrder) []byte {
	var buf bytes.Buffer
	if a.CurrencyPair != "" {
		writeString(&buf, tagAddOrderCurrencyPair, a.CurrencyPair)
	}
	writeBytesField(&buf, tagAddOrderOrder, EncodeOrder(a.Order))
	return buf.Bytes()
}

// EncodeActions serializes an Actions message using tags id_uuid=1,
// add_order=2.
func EncodeActions(a Actions) []byte {
	var buf bytes.Buffer
	idBytes, _ := a.IDUUID.MarshalBinary()
	writeBytesField(&buf, tagActionsIDUUID, idBytes)
	writeBytesField(&buf, tagActionsAddOrder, EncodeAddOrder(a.AddOrder))
	return buf.Bytes()
}

// EncodeEnvelope serializes the outer envelope using tags type_url=1,
// value=2.
func EncodeEnvelope(e Envelope) []byte {
	var buf bytes.Buffer
	writeString(&buf, tagEnvelopeTypeURL, e.TypeURL)
	writeBytesField(&buf, tagEnvelopeValue, e.Value)
	return buf.Bytes()
}

// EncodeAction is the convenience top-level encoder: builds the Actions
// payload, wraps it in the outer envelope, and serializes both.
func EncodeAction(id uuid.UUID, addOrder AddOrder) []byte {
	value := EncodeActions(Actions{IDUUID: id, AddOrder: addOrder})
	return EncodeEnvelope(Envelope{TypeURL: TypeURL, Value: value})
}

// --- decoding -------------------------------------------------------------

type fieldReader struct {
	r io.Reader
}

func (fr fieldReader) readTag() (byte, bool, error) {
	var tagBuf [1]byte
	n, err := io.ReadFull(fr.r, tagBuf[:])
	if err != nil {
		if n == 0 && errors.Is(err, io.EOF) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return tagBuf[0], true, nil
}

func (fr fieldReader) readString() (string, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(fr.r, lenBuf[:]); err != nil {
		return "", err
	}
	n := binary.BigEndian.Uint16(lenBuf[:])
	data := make([]byte, n)
	if _, err := io.ReadFull(fr.r, data); err != nil {
		return "", err
	}
	return string(data), nil
}

func (fr fieldReader) readBytesField() ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(fr.r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	data := make([]byte, n)
	if _, err := io.ReadFull(fr.r, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (fr fieldReader) readUint64() (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(fr.r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

func (fr fieldReader) readByte() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(fr.r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// DecodeOrder deserializes an Order, tolerating omitted fields (they keep
// their zero value, matching the "omitted when unset" encoding rule).
func DecodeOrder(data []byte) (Order, error) {
	fr := fieldReader{r: bytes.NewReader(data)}
	var o Order
	for {
		tag, ok, err := fr.readTag()
		if err != nil {
			return Order{}, fmt.Errorf("%w: %v", ErrMalformedInner, err)
		}
		if !ok {
			return o, nil
		}
		switch tag {
		case tagOrderCustomerTag:
			s, err := fr.readString()
			if err != nil {
				return Order{}, fmt.Errorf("%w: %v", ErrMalformedInner, err)
			}
			o.CustomerTag = s
		case tagOrderPrice:
			v, err := fr.readUint64()
			if err != nil {
				return Order{}, fmt.Errorf("%w: %v", ErrMalformedInner, err)
			}
			o.Price = v
		case tagOrderQty:
			v, err := fr.readUint64()
			if err != nil {
				return Order{}, fmt.Errorf("%w: %v", ErrMalformedInner, err)
			}
			o.Qty = v
		case tagOrderSide:
			v, err := fr.readByte()
			if err != nil {
				return Order{}, fmt.Errorf("%w: %v", ErrMalformedInner, err)
			}
			o.Side = Side(v)
		case tagOrderOrderType:
			v, err := fr.readByte()
			if err != nil {
				return Order{}, fmt.Errorf("%w: %v", ErrMalformedInner, err)
			}
			o.OrderType = OrderType(v)
		default:
			return Order{}, fmt.Errorf("%w: unknown order tag %d", ErrMalformedInner, tag)
		}
	}
}

// DecodeAddOrder deserializes an AddOrder.
func DecodeAddOrder(data []byte) (AddOrder, error) {
	fr := fieldReader{r: bytes.NewReader(data)}
	var a AddOrder
	for {
		tag, ok, err := fr.readTag()
		if err != nil {
			return AddOrder{}, fmt.Errorf("%w: %v", ErrMalformedInner, err)
		}
		if !ok {
			return a, nil
		}
		switch tag {
		case tagAddOrderCurrencyPair:
			s, err := fr.readString()
			if err != nil {
				return AddOrder{}, fmt.Errorf("%w: %v", ErrMalformedInner, err)
			}
			a.CurrencyPair = s
		case tagAddOrderOrder:
			b, err := fr.readBytesField()
			if err != nil {
				return AddOrder{}, fmt.Errorf("%w: %v", ErrMalformedInner, err)
			}
			order, err := DecodeOrder(b)
			if err != nil {
				return AddOrder{}, err
			}
			a.Order = order
		default:
			return AddOrder{}, fmt.Errorf("%w: unknown add_order tag %d", ErrMalformedInner, tag)
		}
	}
}

// DecodeActions deserializes an Actions message. ErrUnknownAction is
// returned if no add_order variant was present (the union's only variant
// today).
func DecodeActions(data []byte) (Actions, error) {
	fr := fieldReader{r: bytes.NewReader(data)}
	var a Actions
	sawAddOrder := false
	for {
		tag, ok, err := fr.readTag()
		if err != nil {
			return Actions{}, fmt.Errorf("%w: %v", ErrMalformedInner, err)
		}
		if !ok {
			break
		}
		switch tag {
		case tagActionsIDUUID:
			b, err := fr.readBytesField()
			if err != nil {
				return Actions{}, fmt.Errorf("%w: %v", ErrMalformedInner, err)
			}
			id, err := uuid.FromBytes(b)
			if err != nil {
				return Actions{}, fmt.Errorf("%w: %v", ErrMalformedInner, err)
			}
			a.IDUUID = id
		case tagActionsAddOrder:
			b, err := fr.readBytesField()
			if err != nil {
				return Actions{}, fmt.Errorf("%w: %v", ErrMalformedInner, err)
			}
			addOrder, err := DecodeAddOrder(b)
			if err != nil {
				return Actions{}, err
			}
			a.AddOrder = addOrder
			sawAddOrder = true
		default:
			return Actions{}, fmt.Errorf("%w: unknown actions tag %d", ErrMalformedInner, tag)
		}
	}
	if !sawAddOrder {
		return Actions{}, ErrUnknownAction
	}
	return a, nil
}

// DecodeEnvelope deserializes the outer envelope and validates its
// type_url.
func DecodeEnvelope(data []byte) (Envelope, error) {
	fr := fieldReader{r: bytes.NewReader(data)}
	var e Envelope
	for {
		tag, ok, err := fr.readTag()
		if err != nil {
			return Envelope{}, fmt.Errorf("%w: %v", ErrBadEnvelope, err)
		}
		if !ok {
			break
		}
		switch tag {
		case tagEnvelopeTypeURL:
			s, err := fr.readString()
			if err != nil {
				return Envelope{}, fmt.Errorf("%w: %v", ErrBadEnvelope, err)
			}
			e.TypeURL = s
		case tagEnvelopeValue:
			b, err := fr.readBytesField()
			if err != nil {
				return Envelope{}, fmt.Errorf("%w: %v", ErrBadEnvelope, err)
			}
			e.Value = b
		default:
			return Envelope{}, fmt.Errorf("%w: unknown envelope tag %d", ErrBadEnvelope, tag)
		}
	}
	if e.TypeURL != TypeURL {
		return Envelope{}, ErrUnsupportedTypeURL
	}
	return e, nil
}

// DecodeAction is the convenience top-level decoder, the inverse of
// EncodeAction: unwraps the envelope, rejects unsupported type_urls, and
// decodes the inner Actions message.
func DecodeAction(data []byte) (Actions, error) {
	env, err := DecodeEnvelope(data)
	if err != nil {
		return Actions{}, err
	}
	return DecodeActions(env.Value)
}
