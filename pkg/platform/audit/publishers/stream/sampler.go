package stream

import (
	"math/rand/v2"
	"sync"
)

// Sampler keeps a configurable fraction of events per command.
// High-volume queries such as domain:check can be sampled down.
type Sampler struct {
	mu            sync.RWMutex
	defaultRate   float64
	rateByCommand map[string]float64
}

func clamp(rate float64) float64 {
	return max(0, min(1, rate))
}

// NewSampler creates a sampler with the given default rate.
// Rate should be between 0.0 (keep nothing) and 1.0 (keep everything).
func NewSampler(defaultRate float64) *Sampler {
	return &Sampler{
		defaultRate:   clamp(defaultRate),
		rateByCommand: make(map[string]float64),
	}
}

// ShouldSample returns true if the event should be kept.
func (s *Sampler) ShouldSample(command string) bool {
	rate := s.rateFor(command)
	if rate >= 1 {
		return true
	}
	return rand.Float64() < rate //nolint:gosec // sampling doesn't need crypto rand
}

// SetRate overrides the default for one command.
func (s *Sampler) SetRate(command string, rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rateByCommand[command] = clamp(rate)
}

func (s *Sampler) rateFor(command string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if rate, ok := s.rateByCommand[command]; ok {
		return rate
	}
	return s.defaultRate
}
