// Package client implements the ClientSessionModel: a normative mirror of
// the state a well-behaved client tracks from the frames a server sends it.
// It renders nothing; it exists so the server's behavior can be exercised
// and asserted against from the client's point of view, in-process, without
// a real terminal or rendering layer.
package client

import "codemaster/internal/protocol"

// GameInfo is the subset of a match a client needs to display.
type GameInfo struct {
	GameID          string
	Players         []string
	CodeLength      int
	AllowedAttempts int
}

// Session tracks one connection's view of the world as frames arrive.
type Session struct {
	PlayerID    string
	GameActive  bool
	IsMyTurn    bool
	GameInfo    GameInfo
	LastWinner  *string
	LastMessage string
}

// Apply folds one decoded server frame into the session's view. It is the
// client-side counterpart of the coordinator's own transitions: every frame
// type the coordinator emits has a case here, and guess_result is the only
// one that leaves the session unchanged.
func (s *Session) Apply(frame any) {
	switch f := frame.(type) {
	case protocol.Welcome:
		s.PlayerID = f.PlayerID
		s.LastMessage = f.Message
	case protocol.GameStart:
		s.GameActive = true
		s.IsMyTurn = false
		s.GameInfo = GameInfo{
			GameID:          f.GameID,
			Players:         f.Players,
			CodeLength:      f.CodeLength,
			AllowedAttempts: f.AllowedAttempts,
		}
	case protocol.YourTurn:
		s.IsMyTurn = true
		s.LastMessage = f.Message
	case protocol.TurnChange:
		s.IsMyTurn = f.PlayerID == s.PlayerID
	case protocol.GuessResult:
		// Informational only; turn ownership changes via TurnChange or
		// GameEnd, never inferred from a guess result alone.
	case protocol.GameEnd:
		s.GameActive = false
		s.IsMyTurn = false
		s.LastWinner = f.Winner
	case protocol.Chat:
		s.LastMessage = f.Text
	case protocol.Error:
		s.LastMessage = f.Message
	}
}
