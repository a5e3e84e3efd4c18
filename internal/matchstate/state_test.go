package matchstate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func defaultConfig() Config {
	return Config{
		CodeLength:      4,
		AllowedAttempts: 10,
		MinPlayers:      2,
		MaxPlayers:      4,
	}
}

func TestStart_RejectsTooFewPlayers(t *testing.T) {
	g := New(defaultConfig())
	err := g.Start("g1", []string{"p1"})
	require.ErrorIs(t, err, ErrTooFewPlayers)
	require.False(t, g.Started())
}

func TestStart_RejectsTooManyPlayers(t *testing.T) {
	g := New(defaultConfig())
	err := g.Start("g1", []string{"p1", "p2", "p3", "p4", "p5"})
	require.ErrorIs(t, err, ErrTooManyPlayers)
}

func TestApplyGuess_WinnerOnExactMatch(t *testing.T) {
	// Force a known secret by constructing with a single-symbol alphabet.
	forced := New(Config{CodeLength: 4, AllowedAttempts: 10, MinPlayers: 2, MaxPlayers: 4, Alphabet: "A"})
	require.NoError(t, forced.Start("g2", []string{"p1", "p2"}))

	out, err := forced.ApplyGuess("p1", []rune("AAAA"))
	require.NoError(t, err)
	require.Equal(t, 4, out.Black)
	require.Equal(t, 0, out.White)
	require.Equal(t, 1, out.Attempts)
	require.True(t, out.IsWinner)
	require.True(t, out.Terminal)
	require.True(t, forced.Terminal())

	after := forced.Snapshot()
	require.NotNil(t, after.Winner)
	require.Equal(t, "p1", *after.Winner)
	require.Equal(t, "AAAA", after.SecretCode)
}

func TestApplyGuess_NonParticipantRejected(t *testing.T) {
	g := New(defaultConfig())
	require.NoError(t, g.Start("g1", []string{"p1", "p2"}))

	_, err := g.ApplyGuess("intruder", []rune("ABCD"))
	require.ErrorIs(t, err, ErrNotActive)
}

func TestApplyGuess_ExhaustionWithoutWinner(t *testing.T) {
	cfg := Config{CodeLength: 4, AllowedAttempts: 2, MinPlayers: 2, MaxPlayers: 2, Alphabet: "A"}
	g := New(cfg)
	require.NoError(t, g.Start("g1", []string{"p1", "p2"}))

	wrong := []rune("BBBB")
	for i := 0; i < 2; i++ {
		_, err := g.ApplyGuess("p1", wrong)
		require.NoError(t, err)
		_, err = g.ApplyGuess("p2", wrong)
		require.NoError(t, err)
	}

	require.True(t, g.Terminal())
	snap := g.Snapshot()
	require.Nil(t, snap.Winner)
	require.Equal(t, "AAAA", snap.SecretCode)
	require.Equal(t, 2, snap.Attempts["p1"])
	require.Equal(t, 2, snap.Attempts["p2"])
}

func TestApplyGuess_NothingMutatesAfterTerminal(t *testing.T) {
	cfg := Config{CodeLength: 4, AllowedAttempts: 10, MinPlayers: 2, MaxPlayers: 2, Alphabet: "A"}
	g := New(cfg)
	require.NoError(t, g.Start("g1", []string{"p1", "p2"}))

	_, err := g.ApplyGuess("p1", []rune("AAAA"))
	require.NoError(t, err)
	require.True(t, g.Terminal())

	before := g.Snapshot()
	_, err = g.ApplyGuess("p2", []rune("AAAA"))
	require.ErrorIs(t, err, ErrNotActive)
	after := g.Snapshot()
	require.Equal(t, before, after)
}

func TestAbort_ForcesTerminalWithNoWinner(t *testing.T) {
	g := New(defaultConfig())
	require.NoError(t, g.Start("g1", []string{"p1", "p2"}))

	g.Abort()
	require.True(t, g.Terminal())

	snap := g.Snapshot()
	require.Nil(t, snap.Winner)
	require.NotEmpty(t, snap.SecretCode)
	require.False(t, snap.EndTime.IsZero())
}

func TestAbort_NoopBeforeStart(t *testing.T) {
	g := New(defaultConfig())
	g.Abort()
	require.False(t, g.Terminal())
}

func TestSnapshot_SecretHiddenUntilTerminal(t *testing.T) {
	g := New(defaultConfig())
	require.NoError(t, g.Start("g1", []string{"p1", "p2"}))

	snap := g.Snapshot()
	require.Empty(t, snap.SecretCode)
	require.False(t, snap.Terminal)
}
