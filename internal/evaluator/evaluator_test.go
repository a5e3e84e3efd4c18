package evaluator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvaluate_ExactMatch(t *testing.T) {
	black, white, err := EvaluateStrings("ABCD", "ABCD")
	require.NoError(t, err)
	require.Equal(t, 4, black)
	require.Equal(t, 0, white)
}

func TestEvaluate_DuplicateLetterCounting(t *testing.T) {
	// secret AABC vs guess ABAC: positions 0 and 3 are black (A, C).
	// Residual secret after removing blacks: {A, B}. Residual guess: {B, A}.
	// Both pair off one-to-one -> white == 2.
	black, white, err := EvaluateStrings("AABC", "ABAC")
	require.NoError(t, err)
	require.Equal(t, 2, black)
	require.Equal(t, 2, white)
}

func TestEvaluate_DuplicateGuessAgainstSingleSecret(t *testing.T) {
	// guess AA against secret AB: one black (position 0), and the second A
	// in the guess has no remaining A in the secret to pair with.
	black, white, err := EvaluateStrings("AB", "AA")
	require.NoError(t, err)
	require.Equal(t, 1, black)
	require.Equal(t, 0, white)
}

func TestEvaluate_NoMatches(t *testing.T) {
	black, white, err := EvaluateStrings("ABCD", "WXYZ")
	require.NoError(t, err)
	require.Equal(t, 0, black)
	require.Equal(t, 0, white)
}

func TestEvaluate_LengthMismatch(t *testing.T) {
	black, white, err := EvaluateStrings("ABCD", "AB")
	require.ErrorIs(t, err, ErrLengthMismatch)
	require.Equal(t, 0, black)
	require.Equal(t, 0, white)
}

func TestEvaluate_InvariantBlackPlusWhiteNeverExceedsLength(t *testing.T) {
	cases := [][2]string{
		{"AAAA", "AAAA"},
		{"AABB", "BBAA"},
		{"XYZW", "WZYX"},
		{"1234", "4321"},
		{"AAAB", "ABAA"},
	}
	for _, c := range cases {
		black, white, err := EvaluateStrings(c[0], c[1])
		require.NoError(t, err)
		require.LessOrEqual(t, black+white, len(c[0]))
		require.GreaterOrEqual(t, black, 0)
		require.GreaterOrEqual(t, white, 0)
	}
}
