package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"codemaster/internal/coordinator"
	"codemaster/internal/protocol"
	"codemaster/internal/recorder"
	"codemaster/internal/registry"
)

func driverConfig() Config {
	return Config{OutboundQueueSize: 16, MaxFrameBytes: 4096}
}

// readFrame reads one newline-delimited JSON frame and returns it decoded
// into a generic map, so assertions can check the "type" tag.
func readFrame(t *testing.T, r *bufio.Reader) map[string]any {
	t.Helper()
	line, err := r.ReadBytes('\n')
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(line, &m))
	return m
}

func writeFrame(t *testing.T, conn net.Conn, v any) {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	b = append(b, '\n')
	_, err = conn.Write(b)
	require.NoError(t, err)
}

// TestEndToEnd_TwoPlayersPlayToExactWin drives a full match over real
// net.Pipe connections and transport.Serve goroutines, end to end through
// the coordinator, exercising the same path main.go wires in production.
func TestEndToEnd_TwoPlayersPlayToExactWin(t *testing.T) {
	reg := registry.New()
	rec := recorder.NewMemoryRecorder()
	coord := coordinator.New(coordinator.Config{
		MinPlayers: 2, MaxPlayers: 2, CodeLength: 4, AllowedAttempts: 5, Alphabet: "A",
	}, reg, rec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go coord.Run(ctx)

	serverConn1, clientConn1 := net.Pipe()
	serverConn2, clientConn2 := net.Pipe()

	r1 := bufio.NewReader(clientConn1)
	r2 := bufio.NewReader(clientConn2)

	// Serve attaches the player before queueing its welcome, so reading the
	// first welcome before starting the second driver fixes the connection
	// order.
	go Serve(serverConn1, driverConfig(), coord, reg)
	welcome1 := readFrame(t, r1)
	require.Equal(t, protocol.TypeWelcome, welcome1["type"])
	p1ID := welcome1["player_id"].(string)

	go Serve(serverConn2, driverConfig(), coord, reg)

	welcome2 := readFrame(t, r2)
	require.Equal(t, protocol.TypeWelcome, welcome2["type"])

	// Both players have joined; a match should start and p1 should be
	// first in the turn queue as the first to connect.
	gs1 := readFrame(t, r1)
	require.Equal(t, protocol.TypeGameStart, gs1["type"])
	gs2 := readFrame(t, r2)
	require.Equal(t, protocol.TypeGameStart, gs2["type"])

	turn1 := readFrame(t, r1)
	require.Equal(t, protocol.TypeYourTurn, turn1["type"])

	writeFrame(t, clientConn1, protocol.Guess{Type: protocol.TypeGuess, Guess: "AAAA"})

	result1 := readFrame(t, r1)
	require.Equal(t, protocol.TypeGuessResult, result1["type"])
	require.InDelta(t, 4, result1["black_markers"], 0)

	end1 := readFrame(t, r1)
	require.Equal(t, protocol.TypeGameEnd, end1["type"])
	require.Equal(t, p1ID, end1["winner"])

	clientConn1.Close()
	clientConn2.Close()
}

// TestEndToEnd_MalformedFrameGetsDirectedErrorWithoutDisconnect confirms a
// decode failure produces an error frame and the connection survives to
// exchange further valid frames.
func TestEndToEnd_MalformedFrameGetsDirectedErrorWithoutDisconnect(t *testing.T) {
	reg := registry.New()
	rec := recorder.NewMemoryRecorder()
	coord := coordinator.New(coordinator.Config{
		MinPlayers: 2, MaxPlayers: 2, CodeLength: 4, AllowedAttempts: 5, Alphabet: "A",
	}, reg, rec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go coord.Run(ctx)

	serverConn, clientConn := net.Pipe()
	go Serve(serverConn, driverConfig(), coord, reg)

	r := bufio.NewReader(clientConn)
	_ = readFrame(t, r) // welcome

	_, err := clientConn.Write([]byte("not json at all\n"))
	require.NoError(t, err)

	errFrame := readFrame(t, r)
	require.Equal(t, protocol.TypeError, errFrame["type"])

	writeFrame(t, clientConn, protocol.ChatIn{Type: protocol.TypeChat, Text: "still alive"})
	chat := readFrame(t, r)
	require.Equal(t, protocol.TypeChat, chat["type"])

	clientConn.Close()
	time.Sleep(10 * time.Millisecond)
}
