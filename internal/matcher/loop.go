package matcher

import (
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"github.com/saiputravu/ledgerd/internal/ledger"
)

// depthReportInterval is how often Run logs a book-depth snapshot from
// inside its own goroutine (see Run's doc comment).
const depthReportInterval = time.Second

// Loop is the single-threaded owner of one Ledger (spec.md §4.4). No
// other goroutine may touch the ledger while the loop is running; all
// access is mediated through Inbox()/Outbox(). There is deliberately no
// accessor that hands the ledger itself to another goroutine: the
// periodic depth report (reportDepth) runs inside Run's own goroutine,
// not in a separate reader.
type Loop struct {
	ledger *ledger.Ledger
	inbox  chan Action
	outbox chan ActionResult
}

// NewLoop constructs a matcher loop over a fresh ledger with the given
// inbox/outbox channel capacities.
func NewLoop(inboxSize, outboxSize int) *Loop {
	return &Loop{
		ledger: ledger.New(),
		inbox:  make(chan Action, inboxSize),
		outbox: make(chan ActionResult, outboxSize),
	}
}

// Inbox is where ingress posts Actions.
func (lp *Loop) Inbox() chan<- Action { return lp.inbox }

// Outbox is where ActionResults are published, one per received Action.
func (lp *Loop) Outbox() <-chan ActionResult { return lp.outbox }

// Run drains the inbox strictly in receipt order until it sees a
// Shutdown action or the supervising tomb starts dying. A Shutdown
// action completes any action already dequeued (there can be none: Run
// is a single consumer and processes actions synchronously) and then
// returns, letting the tomb finish cleanly. It also logs a periodic
// book-depth snapshot on its own ticker, in the same goroutine that owns
// the ledger, so the snapshot never races SubmitOrder's book mutations
// (spec.md §5: "No mutation occurs outside the matcher" extends here to
// reads too, since tidwall/btree is not safe for concurrent use).
func (lp *Loop) Run(t *tomb.Tomb) error {
	log.Info().Msg("matcher loop starting")
	ticker := time.NewTicker(depthReportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.Dying():
			return nil
		case action := <-lp.inbox:
			if action.Kind == ActionShutdown {
				log.Info().Msg("matcher loop draining and shutting down")
				return nil
			}
			lp.process(t, action)
		case <-ticker.C:
			lp.reportDepth()
		}
	}
}

// reportDepth logs a snapshot of resting book depth. Supplements the
// Rust original's threads/ui.rs periodic terminal reporter; not in
// spec.md's distillation and not excluded by any Non-goal.
func (lp *Loop) reportDepth() {
	bids := lp.ledger.BuyDepth(3)
	asks := lp.ledger.SellDepth(3)
	log.Info().
		Int("bidLevels", len(bids)).
		Int("askLevels", len(asks)).
		Msg("book snapshot")
}

func (lp *Loop) process(t *tomb.Tomb, action Action) {
	// seq_id is minted here, on the ledger's single-writer side, strictly
	// after the ingress-assigned order id (spec.md §3) and right at
	// admission (spec.md §9 design choice (b)).
	action.Order.SeqID = lp.ledger.NextSeqID()
	mutations, err := lp.ledger.SubmitOrder(action.Order)
	if err != nil {
		log.Info().
			Str("actionID", action.ActionID.String()).
			Err(err).
			Msg("order rejected")
	}

	result := ActionResult{ActionID: action.ActionID, Mutations: mutations, Err: err}
	select {
	case lp.outbox <- result:
	case <-t.Dying():
	}
}
