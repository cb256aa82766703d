package sampling

import (
	"sync/atomic"
)

// ===============================
// SAMPLER
// ===============================

// Sampler admits one out of every Rate calls
type Sampler struct {
	rate    int64
	counter int64
	dropped int64
}

// NewSampler creates a Sampler. A rate of 1 admits everything, a rate of 0
// or less admits nothing.
func NewSampler(rate int) *Sampler {
	return &Sampler{
		rate: int64(rate),
	}
}

// Rate returns the configured sampling rate
func (s *Sampler) Rate() int {
	return int(atomic.LoadInt64(&s.rate))
}

// SetRate changes the sampling rate; the call counter is kept
func (s *Sampler) SetRate(rate int) {
	atomic.StoreInt64(&s.rate, int64(rate))
}

// Allow reports whether the current call is admitted.
// The first call of every window of Rate calls is the admitted one.
func (s *Sampler) Allow() bool {
	rate := atomic.LoadInt64(&s.rate)
	if rate <= 0 {
		atomic.AddInt64(&s.dropped, 1)
		return false
	}
	if rate == 1 {
		return true
	}

	n := atomic.AddInt64(&s.counter, 1)
	if (n-1)%rate == 0 {
		return true
	}
	atomic.AddInt64(&s.dropped, 1)
	return false
}

// Dropped returns how many calls were rejected so far
func (s *Sampler) Dropped() int64 {
	return atomic.LoadInt64(&s.dropped)
}

// Reset restarts the sampling window and clears the dropped count
func (s *Sampler) Reset() {
	atomic.StoreInt64(&s.counter, 0)
	atomic.StoreInt64(&s.dropped, 0)
}
