// Package protocol defines the Code-Master wire format: newline-delimited
// JSON objects exchanged over a TCP connection. Every frame carries a "type"
// field; this package decodes that tag into a closed set of Go types instead
// of passing loosely-typed maps around the rest of the server.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Frame type tags, shared by both directions of the wire.
const (
	TypeWelcome     = "welcome"
	TypeGameStart   = "game_start"
	TypeYourTurn    = "your_turn"
	TypeTurnChange  = "turn_change"
	TypeGuessResult = "guess_result"
	TypeGameEnd     = "game_end"
	TypeChat        = "chat"
	TypeError       = "error"
	TypeGuess       = "guess"
	TypeStartGame   = "start_game"
)

// envelope is the shape every inbound frame is first parsed into, so the
// "type" tag can be inspected before the rest of the payload is decoded.
type envelope struct {
	Type string `json:"type"`
}

// Welcome is sent to a connection immediately on accept.
type Welcome struct {
	Type     string `json:"type"`
	PlayerID string `json:"player_id"`
	Message  string `json:"message,omitempty"`
}

// GameStart announces the IDLE->PLAYING transition to every participant.
type GameStart struct {
	Type            string   `json:"type"`
	GameID          string   `json:"game_id"`
	Players         []string `json:"players"`
	CodeLength      int      `json:"code_length"`
	AllowedAttempts int      `json:"allowed_attempts"`
}

// YourTurn is directed at the player whose turn has just started.
type YourTurn struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// TurnChange is broadcast to everyone after a non-terminal guess.
type TurnChange struct {
	Type     string `json:"type"`
	PlayerID string `json:"player_id"`
}

// GuessResult is broadcast after every accepted (well-formed) guess.
type GuessResult struct {
	Type         string `json:"type"`
	PlayerID     string `json:"player_id"`
	Guess        string `json:"guess"`
	BlackMarkers int    `json:"black_markers"`
	WhiteMarkers int    `json:"white_markers"`
	Attempts     int    `json:"attempts"`
}

// GameEnd announces the PLAYING->IDLE transition.
type GameEnd struct {
	Type           string         `json:"type"`
	Winner         *string        `json:"winner"`
	SecretCode     string         `json:"secret_code"`
	PlayerAttempts map[string]int `json:"player_attempts"`
}

// Chat is relayed verbatim to every connected player, including the sender.
type Chat struct {
	Type     string `json:"type"`
	PlayerID string `json:"player_id"`
	Text     string `json:"text"`
}

// Error is always directed, never broadcast.
type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Guess is a client's attempt at the secret code.
type Guess struct {
	Type  string `json:"type"`
	Guess string `json:"guess"`
}

// ChatIn is a client's outbound chat line.
type ChatIn struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// StartGame requests an immediate admission re-evaluation. It carries no
// fields beyond the type tag.
type StartGame struct {
	Type string `json:"type"`
}

// Inbound is the closed set of frames a server accepts from a client.
// Exactly one of the typed fields is non-nil, matching the decoded Type tag.
type Inbound struct {
	Type      string
	Guess     *Guess
	Chat      *ChatIn
	StartGame *StartGame
}

// Decode parses a single newline-stripped JSON line into a closed Inbound
// variant. An unrecognized type or malformed JSON is reported as an error;
// the caller (the connection driver) turns that into a directed Error frame
// without closing the connection.
func Decode(line []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return Inbound{}, fmt.Errorf("malformed frame: %w", err)
	}

	switch env.Type {
	case TypeGuess:
		var g Guess
		if err := json.Unmarshal(line, &g); err != nil {
			return Inbound{}, fmt.Errorf("malformed guess frame: %w", err)
		}
		return Inbound{Type: TypeGuess, Guess: &g}, nil
	case TypeChat:
		var c ChatIn
		if err := json.Unmarshal(line, &c); err != nil {
			return Inbound{}, fmt.Errorf("malformed chat frame: %w", err)
		}
		return Inbound{Type: TypeChat, Chat: &c}, nil
	case TypeStartGame:
		return Inbound{Type: TypeStartGame, StartGame: &StartGame{Type: TypeStartGame}}, nil
	case "":
		return Inbound{}, fmt.Errorf("frame missing required field: type")
	default:
		return Inbound{}, fmt.Errorf("unknown frame type: %s", env.Type)
	}
}

// Encode marshals a frame followed by the newline terminator required by
// the framing rule: every frame is a JSON object followed by \n, and no
// frame may embed a literal newline except as that terminator.
func Encode(frame any) ([]byte, error) {
	b, err := json.Marshal(frame)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	b = append(b, '\n')
	return b, nil
}

func NewWelcome(playerID, message string) Welcome {
	return Welcome{Type: TypeWelcome, PlayerID: playerID, Message: message}
}

func NewGameStart(gameID string, players []string, codeLength, allowedAttempts int) GameStart {
	return GameStart{
		Type:            TypeGameStart,
		GameID:          gameID,
		Players:         players,
		CodeLength:      codeLength,
		AllowedAttempts: allowedAttempts,
	}
}

func NewYourTurn(message string) YourTurn {
	return YourTurn{Type: TypeYourTurn, Message: message}
}

func NewTurnChange(playerID string) TurnChange {
	return TurnChange{Type: TypeTurnChange, PlayerID: playerID}
}

func NewGuessResult(playerID, guess string, black, white, attempts int) GuessResult {
	return GuessResult{
		Type:         TypeGuessResult,
		PlayerID:     playerID,
		Guess:        guess,
		BlackMarkers: black,
		WhiteMarkers: white,
		Attempts:     attempts,
	}
}

// NewGameEnd builds a game_end frame. winner is nil when nobody won.
func NewGameEnd(winner *string, secretCode string, attempts map[string]int) GameEnd {
	return GameEnd{
		Type:           TypeGameEnd,
		Winner:         winner,
		SecretCode:     secretCode,
		PlayerAttempts: attempts,
	}
}

func NewChat(playerID, text string) Chat {
	return Chat{Type: TypeChat, PlayerID: playerID, Text: text}
}

func NewError(message string) Error {
	return Error{Type: TypeError, Message: message}
}
