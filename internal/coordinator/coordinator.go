// Package coordinator implements GameCoordinator: the engine that drives
// the lobby -> game -> end cycle, owns the turn queue, dispatches incoming
// client messages, enforces turn authority, fans out broadcasts, and
// triggers persistence at game end. It is the single owner of GameState,
// the turn queue, and the waiting/active membership transitions; every
// mutating event is serialized through one goroutine (Run), so no lock is
// ever held across socket or database I/O.
package coordinator

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"codemaster/internal/matchstate"
	"codemaster/internal/protocol"
	"codemaster/internal/recorder"
	"codemaster/internal/registry"
)

// Config holds the lobby and match rules the coordinator enforces.
type Config struct {
	MinPlayers      int
	MaxPlayers      int
	CodeLength      int
	AllowedAttempts int
	Alphabet        string
}

type eventKind int

const (
	eventJoin eventKind = iota
	eventDisconnect
	eventMessage
)

type event struct {
	kind     eventKind
	playerID string
	frame    protocol.Inbound
}

// Coordinator is the process-wide GameCoordinator. Construct one with New
// and run its event loop with Run; everything else (Join, Disconnect,
// Dispatch) is safe to call concurrently from connection driver goroutines.
type Coordinator struct {
	cfg Config
	reg *registry.Registry
	rec recorder.Recorder

	state *matchstate.GameState

	queue   []string
	current int

	events chan event
}

// New builds a Coordinator bound to reg (for fan-out) and rec (for
// persistence at game end).
func New(cfg Config, reg *registry.Registry, rec recorder.Recorder) *Coordinator {
	return &Coordinator{
		cfg: cfg,
		reg: reg,
		rec: rec,
		state: matchstate.New(matchstate.Config{
			CodeLength:      cfg.CodeLength,
			AllowedAttempts: cfg.AllowedAttempts,
			MinPlayers:      cfg.MinPlayers,
			MaxPlayers:      cfg.MaxPlayers,
			Alphabet:        cfg.Alphabet,
		}),
		events: make(chan event, 256),
	}
}

// Join notifies the coordinator that playerID has just been attached to the
// registry (the welcome frame has already been sent by the connection
// driver before this call). It triggers an admission re-evaluation.
func (c *Coordinator) Join(playerID string) {
	c.events <- event{kind: eventJoin, playerID: playerID}
}

// Disconnect notifies the coordinator that playerID's connection is gone.
func (c *Coordinator) Disconnect(playerID string) {
	c.events <- event{kind: eventDisconnect, playerID: playerID}
}

// Dispatch hands a successfully-decoded client frame to the coordinator.
// Decode failures (malformed JSON, unknown type) never reach here — the
// connection driver answers those directly since they need no game-state
// access.
func (c *Coordinator) Dispatch(playerID string, frame protocol.Inbound) {
	c.events <- event{kind: eventMessage, playerID: playerID, frame: frame}
}

// Run drives the event loop until ctx is cancelled. It is the only
// goroutine that ever touches GameState, the turn queue, or the
// waiting/active membership sets.
func (c *Coordinator) Run(ctx context.Context) {
	for {
		select {
		case ev := <-c.events:
			c.handle(ev)
		case <-ctx.Done():
			return
		}
	}
}

func (c *Coordinator) handle(ev event) {
	switch ev.kind {
	case eventJoin:
		c.checkAdmission()
	case eventDisconnect:
		c.handleDisconnect(ev.playerID)
	case eventMessage:
		handler, ok := dispatchTable[ev.frame.Type]
		if !ok {
			// protocol.Decode only ever produces known types; this would
			// only trip if a new Inbound variant is added without a
			// matching table entry.
			log.Warn().Str("frame_type", ev.frame.Type).Msg("no handler registered for frame type")
			return
		}
		handler(c, ev.playerID, ev.frame)
	}
}

// checkAdmission implements the admit condition: min_players <= |waiting|
// <= max_players and no game currently in progress. start_game and a join
// both funnel through this exact check, per the spec's resolution of the
// start_game open question: no more than the ordinary admit check.
func (c *Coordinator) checkAdmission() {
	if c.state.Started() && !c.state.Terminal() {
		return
	}

	waiting := c.reg.WaitingSnapshot()
	if len(waiting) < c.cfg.MinPlayers || len(waiting) > c.cfg.MaxPlayers {
		return
	}

	c.startMatch(waiting)
}

func (c *Coordinator) startMatch(waiting []string) {
	admitted := waiting
	if len(admitted) > c.cfg.MaxPlayers {
		admitted = admitted[:c.cfg.MaxPlayers]
	}

	gameID := uuid.New().String()
	if err := c.state.Start(gameID, admitted); err != nil {
		log.Error().Err(err).Str("game_id", gameID).Msg("failed to start match")
		return
	}

	c.reg.MoveToActive(admitted)
	c.queue = append([]string(nil), admitted...)
	c.current = 0

	c.broadcast(protocol.NewGameStart(gameID, admitted, c.cfg.CodeLength, c.cfg.AllowedAttempts), nil)
	c.direct(c.queue[0], protocol.NewYourTurn("Your turn! Enter a guess."))
}

func (c *Coordinator) handleDisconnect(playerID string) {
	wasActive := c.removeFromQueueIfPresent(playerID)
	c.reg.Detach(playerID)

	if !wasActive || !c.state.Started() || c.state.Terminal() {
		return
	}

	if len(c.queue) < c.cfg.MinPlayers {
		c.abortMatch()
		return
	}

	c.broadcast(protocol.NewTurnChange(c.queue[c.current]), nil)
	c.direct(c.queue[c.current], protocol.NewYourTurn("Your turn! Enter a guess."))
}

// removeFromQueueIfPresent removes playerID from the turn queue if present
// and fixes up current per the spec's resolution of the queue-index open
// question: decrement current only when the removed slot was before it; if
// the removed slot *was* current, current is left as is, since the slot that
// shifts into its place is already the correct next actor.
func (c *Coordinator) removeFromQueueIfPresent(playerID string) bool {
	idx := -1
	for i, id := range c.queue {
		if id == playerID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false
	}

	c.queue = append(c.queue[:idx:idx], c.queue[idx+1:]...)

	switch {
	case idx < c.current:
		c.current--
	case idx == c.current:
		// no change: the element that shifted into this slot is next.
	}

	if len(c.queue) > 0 && c.current >= len(c.queue) {
		c.current = 0
	}

	return true
}

// abortMatch ends the current match with no winner because the active
// population fell below min_players. The secret is still revealed in the
// game_end broadcast — per the spec, revealing it is harmless once the
// match is over, abort or not.
func (c *Coordinator) abortMatch() {
	c.state.Abort()
	c.finishMatch()
}

// finishMatch persists the match, broadcasts game_end, returns survivors to
// waiting, and re-evaluates admission for whatever comes next. GameState
// already carries the winner (nil for both an exhausted-attempts ending and
// a disconnect abort), so this needs no separate argument.
func (c *Coordinator) finishMatch() {
	snap := c.state.Snapshot()

	c.persist(snap)

	c.broadcast(protocol.NewGameEnd(snap.Winner, snap.SecretCode, snap.Attempts), nil)

	survivors := append([]string(nil), c.queue...)
	c.reg.ReturnToWaiting(survivors)
	c.queue = nil
	c.current = 0

	c.checkAdmission()
}

func (c *Coordinator) persist(snap matchstate.Snapshot) {
	players := make([]recorder.PlayerAttempt, 0, len(snap.Attempts))
	for id, n := range snap.Attempts {
		players = append(players, recorder.PlayerAttempt{ID: id, Attempts: n})
	}

	rec := recorder.Record{
		GameID:     snap.GameID,
		StartTime:  snap.StartTime,
		EndTime:    snap.EndTime,
		SecretCode: snap.SecretCode,
		Winner:     snap.Winner,
		Players:    players,
	}

	if _, err := c.rec.Record(rec); err != nil {
		log.Error().Err(err).Str("game_id", snap.GameID).Msg("failed to persist match")
	}
}

func (c *Coordinator) broadcast(frame any, exclude map[string]bool) {
	b, err := protocol.Encode(frame)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode broadcast frame")
		return
	}
	c.reg.Broadcast(b, exclude)
}

func (c *Coordinator) direct(playerID string, frame any) {
	b, err := protocol.Encode(frame)
	if err != nil {
		log.Error().Err(err).Str("player_id", playerID).Msg("failed to encode directed frame")
		return
	}
	c.reg.Send(playerID, b)
}

func normalizeGuess(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
