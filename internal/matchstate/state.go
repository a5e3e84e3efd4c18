// Package matchstate holds GameState: the single active match — secret
// code, per-player attempt counts, winner, terminal flag — and the pure
// transition logic that drives it. It has no knowledge of connections,
// sockets, or persistence; the coordinator owns the only *GameState in the
// process and mutates it exclusively from its own goroutine.
package matchstate

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"codemaster/internal/evaluator"
)

// ErrTooFewPlayers and ErrTooManyPlayers are returned by Start when the
// supplied roster falls outside [min_players, max_players].
var (
	ErrTooFewPlayers  = errors.New("too few players to start a match")
	ErrTooManyPlayers = errors.New("too many players to start a match")
	ErrNotActive      = errors.New("game is not active for this player")
)

const defaultAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Config holds the rules a GameState enforces: code length, attempt budget,
// player-count bounds, and the symbol alphabet secrets are drawn from.
type Config struct {
	CodeLength      int
	AllowedAttempts int
	MinPlayers      int
	MaxPlayers      int
	Alphabet        string
}

// Outcome is the result of a single ApplyGuess call.
type Outcome struct {
	Black    int
	White    int
	Attempts int
	IsWinner bool
	Terminal bool
}

// Snapshot is the read-only view returned once a match has no more active
// mutations pending — used both by GameEnd construction and MatchRecorder.
type Snapshot struct {
	GameID     string
	StartTime  time.Time
	EndTime    time.Time
	SecretCode string
	Attempts   map[string]int
	Winner     *string // nil when nobody won
	Terminal   bool
}

// GameState is one active (or just-finished) match.
type GameState struct {
	cfg Config

	gameID     string
	startTime  time.Time
	endTime    time.Time
	secretCode []rune
	attempts   map[string]int
	winner     *string
	terminal   bool
	started    bool
}

// New builds a GameState bound to the given rules. It begins with no active
// match; Start must be called before ApplyGuess will accept anything.
func New(cfg Config) *GameState {
	if cfg.Alphabet == "" {
		cfg.Alphabet = defaultAlphabet
	}
	return &GameState{cfg: cfg}
}

// Start begins a new match for the given roster, generating a fresh secret
// code. It rejects rosters outside [min_players, max_players] and leaves
// any prior match state untouched on rejection.
func (g *GameState) Start(gameID string, playerIDs []string) error {
	if len(playerIDs) < g.cfg.MinPlayers {
		return ErrTooFewPlayers
	}
	if len(playerIDs) > g.cfg.MaxPlayers {
		return ErrTooManyPlayers
	}

	secret, err := generateSecret(g.cfg.Alphabet, g.cfg.CodeLength)
	if err != nil {
		return fmt.Errorf("failed to generate secret code: %w", err)
	}

	g.gameID = gameID
	g.startTime = time.Now()
	g.endTime = time.Time{}
	g.secretCode = secret
	g.attempts = make(map[string]int, len(playerIDs))
	for _, id := range playerIDs {
		g.attempts[id] = 0
	}
	g.winner = nil
	g.terminal = false
	g.started = true

	return nil
}

// ApplyGuess records one well-formed guess attempt by playerID and scores
// it. It never mutates state once the match is terminal.
func (g *GameState) ApplyGuess(playerID string, guess []rune) (Outcome, error) {
	if !g.started || g.terminal {
		return Outcome{}, ErrNotActive
	}
	if _, participant := g.attempts[playerID]; !participant {
		return Outcome{}, ErrNotActive
	}

	black, white, err := evaluator.Evaluate(g.secretCode, guess)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to score guess: %w", err)
	}

	g.attempts[playerID]++

	if black == g.cfg.CodeLength {
		winner := playerID
		g.winner = &winner
		g.terminal = true
	} else if allExhausted(g.attempts, g.cfg.AllowedAttempts) {
		g.terminal = true
	}

	if g.terminal {
		g.endTime = time.Now()
	}

	return Outcome{
		Black:    black,
		White:    white,
		Attempts: g.attempts[playerID],
		IsWinner: g.winner != nil && *g.winner == playerID,
		Terminal: g.terminal,
	}, nil
}

// Abort force-terminates the current match with no winner, for the case
// where the active roster falls below min_players mid-game rather than
// reaching a winning or exhausted guess. It is a no-op if the match is
// already terminal or was never started.
func (g *GameState) Abort() {
	if !g.started || g.terminal {
		return
	}
	g.winner = nil
	g.terminal = true
	g.endTime = time.Now()
}

// Terminal reports whether the current match has reached a terminal state.
func (g *GameState) Terminal() bool {
	return g.terminal
}

// Started reports whether Start has ever been called on this GameState
// (it stays true after termination until the next Start call).
func (g *GameState) Started() bool {
	return g.started
}

// Snapshot returns the current state. SecretCode is populated only once
// the match is terminal — it must never leak mid-game.
func (g *GameState) Snapshot() Snapshot {
	attempts := make(map[string]int, len(g.attempts))
	for id, n := range g.attempts {
		attempts[id] = n
	}

	secret := ""
	if g.terminal {
		secret = string(g.secretCode)
	}

	return Snapshot{
		GameID:     g.gameID,
		StartTime:  g.startTime,
		EndTime:    g.endTime,
		SecretCode: secret,
		Attempts:   attempts,
		Winner:     g.winner,
		Terminal:   g.terminal,
	}
}

// IsParticipant reports whether playerID is part of the current match.
func (g *GameState) IsParticipant(playerID string) bool {
	_, ok := g.attempts[playerID]
	return ok
}

func allExhausted(attempts map[string]int, allowed int) bool {
	for _, n := range attempts {
		if n < allowed {
			return false
		}
	}
	return true
}

// generateSecret draws length independent, uniformly-random symbols from
// alphabet using a cryptographically seeded source. Predictability is not a
// security property here (this is a game, not a credential) but the source
// must not repeat across games within the same process, which crypto/rand
// guarantees without any seeding ceremony.
func generateSecret(alphabet string, length int) ([]rune, error) {
	symbols := []rune(alphabet)
	if len(symbols) == 0 {
		return nil, fmt.Errorf("alphabet must be non-empty")
	}

	code := make([]rune, length)
	bound := big.NewInt(int64(len(symbols)))
	for i := 0; i < length; i++ {
		idx, err := rand.Int(rand.Reader, bound)
		if err != nil {
			return nil, fmt.Errorf("failed to draw random symbol: %w", err)
		}
		code[i] = symbols[idx.Int64()]
	}
	return code, nil
}
