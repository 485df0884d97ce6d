package ingress

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"github.com/saiputravu/ledgerd/internal/matcher"
	"github.com/saiputravu/ledgerd/internal/wire"
)

// defaultWorkers matches the teacher's own default pool size.
const defaultWorkers = 10

var errUnknownActionID = errors.New("ingress: response for unknown action id")

// Server is the TCP front door to one matcher.Loop: it accepts client
// connections, decodes wire frames into matcher.Actions, and routes each
// ActionResult back to the connection that submitted it.
type Server struct {
	address string
	loop    *matcher.Loop
	pool    *workerPool

	mu      sync.Mutex
	pending map[uuid.UUID]net.Conn
}

// New constructs a Server bound to address (host:port) that forwards
// decoded orders onto loop's inbox.
func New(address string, loop *matcher.Loop) *Server {
	return &Server{
		address: address,
		loop:    loop,
		pool:    newWorkerPool(defaultWorkers),
		pending: make(map[uuid.UUID]net.Conn),
	}
}

// Run accepts connections and dispatches matcher results until ctx is
// canceled, at which point it stops accepting, sends Shutdown to the
// matcher, and returns. It does not wait for the connection workers or
// the result dispatcher to exit.
func (s *Server) Run(ctx context.Context) error {
	t, ctx := tomb.WithContext(ctx)

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.address)
	if err != nil {
		return fmt.Errorf("ingress: listen %s: %w", s.address, err)
	}

	s.pool.setup(t, s.handleConnection)
	t.Go(func() error { return s.dispatchResults(t) })

	// The only close of listener: unblocks Accept below on shutdown. A
	// second, deferred close here would race it and log a spurious
	// "use of closed network connection" error on every clean shutdown.
	t.Go(func() error {
		<-t.Dying()
		return listener.Close()
	})

	log.Info().Str("address", s.address).Msg("ingress listening")
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-t.Dying():
				s.shutdownMatcher()
				return t.Err()
			default:
				log.Error().Err(err).Msg("ingress: accept error")
				continue
			}
		}
		log.Info().Str("remote", conn.RemoteAddr().String()).Msg("ingress: client connected")
		s.pool.addTask(conn)
	}
}

// shutdownMatcher propagates shutdown to the matcher loop once ingress
// itself has stopped accepting new work (spec.md §5's "SIGINT handler
// sends Shutdown to the ingress task, which drains its queue then
// propagates shutdown to the matcher").
func (s *Server) shutdownMatcher() {
	select {
	case s.loop.Inbox() <- matcher.Action{Kind: matcher.ActionShutdown}:
	default:
		log.Warn().Msg("ingress: matcher inbox full, shutdown action dropped")
	}
}

// handleConnection reads frames off one connection until it errors or
// closes, decoding and forwarding each one as a matcher.Action. Malformed
// input is logged and skipped; it never reaches the matcher (spec.md §7).
func (s *Server) handleConnection(t *tomb.Tomb, task any) error {
	conn, ok := task.(net.Conn)
	if !ok {
		return fmt.Errorf("ingress: unexpected task type %T", task)
	}
	defer conn.Close()

	for {
		select {
		case <-t.Dying():
			return nil
		default:
		}

		frame, err := wire.ReadFrame(conn)
		if err != nil {
			log.Info().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("ingress: connection closed")
			return nil
		}

		actionID, order, err := decodeFrame(frame)
		if err != nil {
			log.Warn().Err(err).Msg("ingress: rejecting malformed frame")
			continue
		}

		s.mu.Lock()
		s.pending[actionID] = conn
		s.mu.Unlock()

		select {
		case s.loop.Inbox() <- matcher.Action{ActionID: actionID, Kind: matcher.ActionAddOrder, Order: order}:
		case <-t.Dying():
			return nil
		}
	}
}

// dispatchResults routes each ActionResult from the matcher back to the
// connection that originally submitted it.
func (s *Server) dispatchResults(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case result := <-s.loop.Outbox():
			s.mu.Lock()
			conn, ok := s.pending[result.ActionID]
			delete(s.pending, result.ActionID)
			s.mu.Unlock()

			if !ok {
				log.Warn().Err(errUnknownActionID).Str("actionID", result.ActionID.String()).Send()
				continue
			}

			payload := encodeActionResponse(result)
			if err := wire.WriteFrame(conn, payload); err != nil {
				log.Error().Err(err).Msg("ingress: failed writing action response")
			}
		}
	}
}
