package healthcheck

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by Execute while the breaker rejects calls
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerState represents the state of a circuit breaker
type CircuitBreakerState int

const (
	StateClosed CircuitBreakerState = iota
	StateHalfOpen
	StateOpen
)

// String returns the string representation of the state
func (s CircuitBreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig holds configuration for circuit breaker
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens the circuit
	FailureThreshold int
	// SuccessThreshold is the number of half-open successes that closes it again
	SuccessThreshold int
	// Timeout is how long the circuit stays open before probing
	Timeout time.Duration
}

// DefaultCircuitBreakerConfig returns a default configuration for circuit breakers
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 1,
		Timeout:          30 * time.Second,
	}
}

// CircuitBreaker stops calling a failing dependency for a while so that a
// health endpoint polled every few seconds does not hammer it
type CircuitBreaker struct {
	name                 string
	config               CircuitBreakerConfig
	state                CircuitBreakerState
	consecutiveFailures  int
	consecutiveSuccesses int
	nextAttempt          time.Time
	now                  func() time.Time
	mu                   sync.Mutex
}

// NewCircuitBreaker creates a new circuit breaker with the given configuration
func NewCircuitBreaker(name string, config CircuitBreakerConfig) *CircuitBreaker {
	def := DefaultCircuitBreakerConfig()
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = def.FailureThreshold
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = def.SuccessThreshold
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}

	return &CircuitBreaker{
		name:   name,
		config: config,
		state:  StateClosed,
		now:    time.Now,
	}
}

// Execute runs fn unless the circuit is open
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.allow() {
		return fmt.Errorf("%s: %w", cb.name, ErrCircuitOpen)
	}

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.onFailure()
	} else {
		cb.onSuccess()
	}
	return err
}

// State returns the current state, moving an expired open circuit to half-open
func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.refresh()
	return cb.state
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.refresh()
	return cb.state != StateOpen
}

func (cb *CircuitBreaker) refresh() {
	if cb.state == StateOpen && !cb.now().Before(cb.nextAttempt) {
		cb.state = StateHalfOpen
		cb.consecutiveSuccesses = 0
	}
}

func (cb *CircuitBreaker) onSuccess() {
	cb.consecutiveFailures = 0
	cb.consecutiveSuccesses++
	if cb.state == StateHalfOpen && cb.consecutiveSuccesses >= cb.config.SuccessThreshold {
		cb.state = StateClosed
	}
}

func (cb *CircuitBreaker) onFailure() {
	cb.consecutiveSuccesses = 0
	cb.consecutiveFailures++
	if cb.state == StateHalfOpen || cb.consecutiveFailures >= cb.config.FailureThreshold {
		cb.state = StateOpen
		cb.nextAttempt = cb.now().Add(cb.config.Timeout)
	}
}

// CircuitChecker guards another checker with a circuit breaker. While the
// circuit is open the wrapped checker is not called and the check reports
// unhealthy.
type CircuitChecker struct {
	checker Checker
	breaker *CircuitBreaker
}

// NewCircuitChecker wraps checker
func NewCircuitChecker(name string, checker Checker, config CircuitBreakerConfig) *CircuitChecker {
	return &CircuitChecker{
		checker: checker,
		breaker: NewCircuitBreaker(name, config),
	}
}

// Check runs the wrapped checker through the breaker
func (c *CircuitChecker) Check(ctx context.Context) Check {
	var result Check
	err := c.breaker.Execute(func() error {
		result = c.checker.Check(ctx)
		if result.Status == StatusUnhealthy {
			return errors.New(result.Message)
		}
		return nil
	})

	if errors.Is(err, ErrCircuitOpen) {
		return Check{
			Status:      StatusUnhealthy,
			Message:     err.Error(),
			LastChecked: time.Now(),
			Metadata:    map[string]interface{}{"circuit": StateOpen.String()},
		}
	}

	result.Metadata = withCircuitState(result.Metadata, c.breaker.State())
	return result
}

func withCircuitState(metadata interface{}, state CircuitBreakerState) interface{} {
	m, ok := metadata.(map[string]interface{})
	if !ok {
		if metadata != nil {
			return metadata
		}
		m = map[string]interface{}{}
	}
	m["circuit"] = state.String()
	return m
}
