// Command benchd is the host binary for one matching-engine instance: it
// owns exactly one matcher.Loop for a fixed instrument, optionally
// exposes it over the wire protocol, and optionally drives it with
// synthetic order flow for benchmarking. See spec.md §6.
package main

import (
	"context"
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"github.com/saiputravu/ledgerd/internal/ingress"
	"github.com/saiputravu/ledgerd/internal/ledger"
	"github.com/saiputravu/ledgerd/internal/matcher"
)

const defaultInstrument = "BTC-USD"

func main() {
	listenAddr := flag.String("listen", "", "address to bind a TCP ingress server on, e.g. 0.0.0.0:9001 (empty disables the wire listener)")
	benchmark := flag.Bool("benchmark", true, "drive the engine with synthetic in-process order flow")
	instrument := flag.String("instrument", defaultInstrument, "fixed instrument string this engine instance serves")
	seed := flag.Int64("seed", 1, "seed for the synthetic order generator")
	flag.Parse()

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Str("instrument", *instrument).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	t, ctx := tomb.WithContext(ctx)
	loop := matcher.NewLoop(4096, 4096)

	t.Go(func() error { return loop.Run(t) })

	if *listenAddr != "" {
		srv := ingress.New(*listenAddr, loop)
		t.Go(func() error { return srv.Run(ctx) })
	} else {
		// With no wire listener, nothing else drains the outbox; without
		// this it fills and backpressures the matcher loop indefinitely.
		t.Go(func() error { return drainOutbox(t, loop) })
	}

	if *benchmark {
		t.Go(func() error { return generateSyntheticFlow(t, loop, *seed) })
	}

	log.Info().Msg("engine started")
	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	select {
	case loop.Inbox() <- matcher.Action{Kind: matcher.ActionShutdown}:
	default:
	}

	if err := t.Wait(); err != nil {
		log.Error().Err(err).Msg("engine stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("engine stopped")
}

// drainOutbox consumes ActionResults when no ingress server is attached
// to do it on the wire side; benchmark mode doesn't care about the
// individual acknowledgements, only that the matcher never blocks
// publishing one.
func drainOutbox(t *tomb.Tomb, loop *matcher.Loop) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case <-loop.Outbox():
		}
	}
}

// generateSyntheticFlow submits random admissible limit orders directly
// to the matcher's inbox, bypassing wire decoding entirely: spec.md §1
// treats "random-input benchmark drivers" as an external collaborator
// outside the core's scope, so this lives here in cmd/, not in
// internal/ledger or internal/matcher.
func generateSyntheticFlow(t *tomb.Tomb, loop *matcher.Loop, seed int64) error {
	rng := rand.New(rand.NewSource(seed))
	ticker := time.NewTicker(2 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-t.Dying():
			return nil
		case <-ticker.C:
			side := ledger.Buy
			if rng.Intn(2) == 1 {
				side = ledger.Sell
			}
			order := ledger.Order{
				ID:        uuid.New(),
				Price:     uint64(9950 + rng.Intn(100)),
				Qty:       uint64(1 + rng.Intn(50)),
				Side:      side,
				OrderType: ledger.Limit,
			}
			select {
			case loop.Inbox() <- matcher.Action{ActionID: uuid.New(), Kind: matcher.ActionAddOrder, Order: order}:
			case <-t.Dying():
				return nil
			}
		}
	}
}
