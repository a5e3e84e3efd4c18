// Package transport implements the ConnectionDriver: the per-connection
// goroutine pair that owns a single net.Conn, decodes newline-delimited
// JSON frames off the wire, and flushes queued outbound frames onto it. It
// is the only place that ever touches a socket directly; everything else
// communicates through GameCoordinator and ConnectionRegistry.
package transport

import (
	"bufio"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"codemaster/internal/protocol"
	"codemaster/internal/registry"
)

// Coordinator is the subset of coordinator.Coordinator a driver depends on,
// kept narrow so transport can be tested without pulling in the full game
// state machine.
type Coordinator interface {
	Join(playerID string)
	Disconnect(playerID string)
	Dispatch(playerID string, frame protocol.Inbound)
}

// Config holds the per-connection limits the driver enforces.
type Config struct {
	// OutboundQueueSize bounds the writer's backlog. A connection that
	// cannot keep up is disconnected rather than allowed to stall the
	// broadcaster — same policy the teacher's sendMessage silently drops a
	// single frame for, generalized here to a full disconnect so a slow
	// reader can never desync from the frames it missed.
	OutboundQueueSize int

	// MaxFrameBytes bounds a single inbound line; a client that sends a
	// longer line without a newline is disconnected.
	MaxFrameBytes int

	// IdleTimeout, if non-zero, closes a connection that sends nothing for
	// this long.
	IdleTimeout time.Duration
}

// Driver owns one accepted connection end to end.
type Driver struct {
	conn     net.Conn
	playerID string
	cfg      Config
	coord    Coordinator
	send     chan []byte
	closeCh  chan struct{}
}

// Enqueue implements registry.Sender. A full queue means the connection is
// falling behind; rather than block the broadcaster or silently drop game
// state updates, the driver closes the connection.
func (d *Driver) Enqueue(frame []byte) bool {
	select {
	case d.send <- frame:
		return true
	default:
		log.Warn().Str("player_id", d.playerID).Msg("outbound queue full, disconnecting")
		d.closeOnce()
		return false
	}
}

var _ registry.Sender = (*Driver)(nil)

// Serve registers playerID with reg, sends the welcome frame, then blocks
// running the read and write pumps until the connection ends. It always
// closes conn and notifies coord.Disconnect before returning.
func Serve(conn net.Conn, cfg Config, coord Coordinator, reg *registry.Registry) {
	playerID := uuid.New().String()

	d := &Driver{
		conn:     conn,
		playerID: playerID,
		cfg:      cfg,
		coord:    coord,
		send:     make(chan []byte, cfg.OutboundQueueSize),
		closeCh:  make(chan struct{}),
	}

	reg.Attach(playerID, d)

	welcome, err := protocol.Encode(protocol.NewWelcome(playerID, "Welcome to Code-Master."))
	if err != nil {
		log.Error().Err(err).Msg("failed to encode welcome frame")
	} else {
		d.Enqueue(welcome)
	}

	done := make(chan struct{})
	go func() {
		d.writePump()
		close(done)
	}()

	coord.Join(playerID)
	d.readPump()

	d.closeOnce()
	<-done

	coord.Disconnect(playerID)
}

func (d *Driver) closeOnce() {
	select {
	case <-d.closeCh:
	default:
		close(d.closeCh)
		d.conn.Close()
	}
}

// readPump scans newline-delimited frames off the connection, decodes each,
// and either dispatches it to the coordinator or answers malformed input
// directly — a decode failure is a protocol-level concern that needs no
// game-state access, so it never goes through the coordinator's event loop.
func (d *Driver) readPump() {
	scanner := bufio.NewScanner(d.conn)
	scanner.Buffer(make([]byte, 0, 4096), d.cfg.MaxFrameBytes)

	if d.cfg.IdleTimeout > 0 {
		d.conn.SetReadDeadline(time.Now().Add(d.cfg.IdleTimeout))
	}

	for scanner.Scan() {
		if d.cfg.IdleTimeout > 0 {
			d.conn.SetReadDeadline(time.Now().Add(d.cfg.IdleTimeout))
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		frame, err := protocol.Decode(line)
		if err != nil {
			d.replyError(err.Error())
			continue
		}

		d.coord.Dispatch(d.playerID, frame)
	}
}

func (d *Driver) replyError(message string) {
	b, err := protocol.Encode(protocol.NewError(message))
	if err != nil {
		log.Error().Err(err).Msg("failed to encode error frame")
		return
	}
	d.Enqueue(b)
}

// writePump flushes queued frames to the connection, in enqueue order, until
// a write fails or closeCh fires. It returns as soon as closeCh fires; frames
// still queued at that point are not written.
func (d *Driver) writePump() {
	w := bufio.NewWriter(d.conn)

	for {
		select {
		case frame, ok := <-d.send:
			if !ok {
				return
			}
			if _, err := w.Write(frame); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		case <-d.closeCh:
			return
		}
	}
}
