package vatsim

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MichaelTJones/pcg"
)

// Selector picks one mirror out of a pool.
// Implementations must be safe for concurrent use and must return
// ErrEmptyPool rather than an empty string when the pool is empty.
type Selector interface {
	Pick(pool []string) (string, error)
}

// Mirror selection strategies accepted by NewSelector.
const (
	StrategyRandom     = "random"
	StrategyRoundRobin = "round-robin"
)

// NewSelector returns the selector for a named strategy. An empty name
// selects StrategyRandom.
func NewSelector(strategy string) (Selector, error) {
	switch strings.ToLower(strategy) {
	case "", StrategyRandom:
		return NewRandomSelector(time.Now().UnixNano()), nil
	case StrategyRoundRobin:
		return &RoundRobinSelector{}, nil
	default:
		return nil, fmt.Errorf("vatsim: unknown mirror strategy %q", strategy)
	}
}

// RandomSelector draws a uniformly distributed index on every call.
type RandomSelector struct {
	mu sync.Mutex
	r  *pcg.PCG32
}

// NewRandomSelector creates a RandomSelector with the given seed.
func NewRandomSelector(seed int64) *RandomSelector {
	r := pcg.NewPCG32()
	r.Seed(uint64(seed), 0xda3e39cb94b95bdb)
	return &RandomSelector{r: r}
}

func (s *RandomSelector) Pick(pool []string) (string, error) {
	if len(pool) == 0 {
		return "", ErrEmptyPool
	}
	s.mu.Lock()
	i := s.r.Bounded(uint32(len(pool)))
	s.mu.Unlock()

	return pool[i], nil
}

// RoundRobinSelector cycles through each pool in order. Every distinct pool
// keeps its own position, so callers that alternate between pools still
// rotate through all entries of each. The zero value is ready to use.
type RoundRobinSelector struct {
	next sync.Map // pool key -> *atomic.Uint64
}

func (s *RoundRobinSelector) Pick(pool []string) (string, error) {
	if len(pool) == 0 {
		return "", ErrEmptyPool
	}
	v, _ := s.next.LoadOrStore(strings.Join(pool, "\x00"), new(atomic.Uint64))
	n := v.(*atomic.Uint64).Add(1) - 1
	return pool[n%uint64(len(pool))], nil
}
