// Package matcher implements the single-threaded matcher loop of
// spec.md §4.4: the sole owner of a Ledger, draining an inbox of Actions
// and acknowledging every one exactly once, in receipt order.
package matcher

import (
	"github.com/google/uuid"

	"github.com/saiputravu/ledgerd/internal/ledger"
)

// ActionKind distinguishes the Action union's variants.
type ActionKind int

const (
	ActionAddOrder ActionKind = iota
	ActionShutdown
)

// Action is a single request posted to the matcher's inbox. ActionID is
// the ingress-supplied 128-bit tag echoed back in the ActionResult.
type Action struct {
	ActionID uuid.UUID
	Kind     ActionKind
	Order    ledger.Order // only meaningful when Kind == ActionAddOrder
}

// ActionResult is the matcher's single acknowledgement of an Action,
// carrying either the ordered mutation log of a successful submission or
// the ledger's typed rejection.
type ActionResult struct {
	ActionID  uuid.UUID
	Mutations []ledger.Mutation
	Err       error
}
