package graphql

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// circuitState represents the state of a circuit breaker
type circuitState int

const (
	stateClosed   circuitState = iota // Normal operation
	stateOpen                         // Operation keeps failing
	stateHalfOpen                     // Letting one call through to test recovery
)

func (s circuitState) String() string {
	switch s {
	case stateOpen:
		return "open"
	case stateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// circuitBreaker tracks consecutive failures per operation name and stops
// calling an operation that keeps failing
type circuitBreaker struct {
	failures         map[string]int
	lastFailure      map[string]time.Time
	state            map[string]circuitState
	logger           *slog.Logger
	now              func() time.Time
	failureThreshold int
	openDuration     time.Duration
	mu               sync.Mutex
}

func newCircuitBreaker(threshold int, openDuration time.Duration, logger *slog.Logger) *circuitBreaker {
	return &circuitBreaker{
		failureThreshold: threshold,
		openDuration:     openDuration,
		failures:         make(map[string]int),
		lastFailure:      make(map[string]time.Time),
		state:            make(map[string]circuitState),
		logger:           logger,
		now:              time.Now,
	}
}

// canAttempt reports whether op may be called. An open circuit moves to
// half-open once openDuration has passed since the last failure.
func (cb *circuitBreaker) canAttempt(op string) error {
	if cb.failureThreshold <= 0 {
		return nil
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	state := cb.getState(op)
	if state != stateOpen {
		return nil
	}

	nextRetry := cb.lastFailure[op].Add(cb.openDuration)
	if cb.now().After(nextRetry) {
		cb.setState(op, stateHalfOpen)
		return nil
	}
	return fmt.Errorf("%w for operation '%s' (failures: %d, next retry: %s)",
		ErrCircuitOpen, op, cb.failures[op], nextRetry.Format("15:04:05"))
}

// recordSuccess resets the failure count of op
func (cb *circuitBreaker) recordSuccess(op string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	delete(cb.failures, op)
	delete(cb.lastFailure, op)
	if cb.getState(op) != stateClosed {
		cb.setState(op, stateClosed)
	}
}

// recordFailure counts a failed call of op, opening the circuit at the threshold
func (cb *circuitBreaker) recordFailure(op string, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures[op]++
	cb.lastFailure[op] = cb.now()
	failCount := cb.failures[op]

	if cb.failureThreshold > 0 && (failCount >= cb.failureThreshold || cb.getState(op) == stateHalfOpen) {
		if cb.getState(op) != stateOpen {
			cb.logger.Warn("opening circuit",
				"operation", op,
				"failures", failCount,
				"error", err)
			cb.state[op] = stateOpen
		}
		return
	}

	cb.logger.Debug("operation failed",
		"operation", op,
		"failures", failCount,
		"threshold", cb.failureThreshold,
		"error", err)
}

// getState returns the current state (must be called with lock held)
func (cb *circuitBreaker) getState(op string) circuitState {
	if state, exists := cb.state[op]; exists {
		return state
	}
	return stateClosed
}

// setState records a transition (must be called with lock held)
func (cb *circuitBreaker) setState(op string, state circuitState) {
	cb.state[op] = state
	cb.logger.Info("circuit state changed", "operation", op, "state", state.String())
}
