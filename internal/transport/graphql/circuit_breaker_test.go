package graphql

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_OpensAfterThresholdFailures(t *testing.T) {
	cb := newCircuitBreaker(3, time.Minute, slog.Default())
	testErr := errors.New("test error")

	for i := 0; i < 2; i++ {
		cb.recordFailure("VotePost", testErr)
	}
	require.NoError(t, cb.canAttempt("VotePost"), "below threshold the circuit stays closed")

	cb.recordFailure("VotePost", testErr)
	assert.ErrorIs(t, cb.canAttempt("VotePost"), ErrCircuitOpen)

	// other operations are unaffected
	assert.NoError(t, cb.canAttempt("PostQuery"))
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	now := time.Now()
	cb := newCircuitBreaker(1, time.Minute, slog.Default())
	cb.now = func() time.Time { return now }

	cb.recordFailure("VotePost", errors.New("down"))
	require.ErrorIs(t, cb.canAttempt("VotePost"), ErrCircuitOpen)

	now = now.Add(2 * time.Minute)
	require.NoError(t, cb.canAttempt("VotePost"))
	assert.Equal(t, stateHalfOpen, cb.getState("VotePost"))

	cb.recordSuccess("VotePost")
	assert.Equal(t, stateClosed, cb.getState("VotePost"))
	assert.NoError(t, cb.canAttempt("VotePost"))
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	cb := newCircuitBreaker(2, time.Minute, slog.Default())
	cb.now = func() time.Time { return now }

	cb.recordFailure("VotePoll", errors.New("down"))
	cb.recordFailure("VotePoll", errors.New("down"))
	now = now.Add(2 * time.Minute)
	require.NoError(t, cb.canAttempt("VotePoll"))

	cb.recordFailure("VotePoll", errors.New("still down"))
	assert.ErrorIs(t, cb.canAttempt("VotePoll"), ErrCircuitOpen)
}

func TestCircuitBreaker_Disabled(t *testing.T) {
	cb := newCircuitBreaker(0, time.Minute, slog.Default())
	for i := 0; i < 10; i++ {
		cb.recordFailure("VotePost", errors.New("down"))
	}
	assert.NoError(t, cb.canAttempt("VotePost"))
}
