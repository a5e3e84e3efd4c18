package coordinator

import (
	"codemaster/internal/protocol"
)

// handlerFunc services one decoded client frame addressed to playerID.
type handlerFunc func(c *Coordinator, playerID string, frame protocol.Inbound)

// dispatchTable maps a wire frame type to its handler, mirroring the
// teacher's command-registry pattern of a keyword-to-function table instead
// of a type switch for every inbound variant.
var dispatchTable = map[string]handlerFunc{
	protocol.TypeGuess:     handleGuess,
	protocol.TypeChat:      handleChat,
	protocol.TypeStartGame: handleStartGame,
}

func handleGuess(c *Coordinator, playerID string, frame protocol.Inbound) {
	if !c.state.Started() || c.state.Terminal() {
		c.direct(playerID, protocol.NewError("no match is currently active"))
		return
	}

	if len(c.queue) == 0 || c.queue[c.current] != playerID {
		c.direct(playerID, protocol.NewError("it is not your turn"))
		return
	}

	guess := []rune(normalizeGuess(frame.Guess.Guess))
	if len(guess) != c.cfg.CodeLength {
		c.direct(playerID, protocol.NewError("guess must be exactly the configured code length"))
		return
	}

	outcome, err := c.state.ApplyGuess(playerID, guess)
	if err != nil {
		c.direct(playerID, protocol.NewError(err.Error()))
		return
	}

	c.broadcast(protocol.NewGuessResult(playerID, string(guess), outcome.Black, outcome.White, outcome.Attempts), nil)

	if outcome.Terminal {
		c.finishMatch()
		return
	}

	c.current = (c.current + 1) % len(c.queue)
	next := c.queue[c.current]
	c.broadcast(protocol.NewTurnChange(next), nil)
	c.direct(next, protocol.NewYourTurn("Your turn! Enter a guess."))
}

func handleChat(c *Coordinator, playerID string, frame protocol.Inbound) {
	c.broadcast(protocol.NewChat(playerID, frame.Chat.Text), nil)
}

func handleStartGame(c *Coordinator, playerID string, frame protocol.Inbound) {
	c.checkAdmission()
}
