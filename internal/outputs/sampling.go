package outputs

import (
	"github.com/Lunar-Chipter/crystal/internal/interfaces"
	"github.com/Lunar-Chipter/crystal/internal/sampling"
)

// SamplingAppender forwards one in every N active events to the wrapped appender
type SamplingAppender struct {
	interfaces.Appender
	sampler *sampling.Sampler
}

// NewSamplingAppender wraps inner. Appenders sharing a sampler share its window.
func NewSamplingAppender(inner interfaces.Appender, sampler *sampling.Sampler) *SamplingAppender {
	return &SamplingAppender{Appender: inner, sampler: sampler}
}

// SamplingFactory wraps every appender built by factory with one shared sampler
func SamplingFactory(factory interfaces.AppenderFactory, rate int) interfaces.AppenderFactory {
	sampler := sampling.NewSampler(rate)
	return func() interfaces.Appender {
		inner := factory()
		if inner == nil {
			return nil
		}
		return NewSamplingAppender(inner, sampler)
	}
}

func (s *SamplingAppender) Append(event *interfaces.LogEvent) error {
	if !s.sampler.Allow() {
		return nil
	}
	return s.Appender.Append(event)
}

// Sampler returns the sampler deciding which events pass
func (s *SamplingAppender) Sampler() *sampling.Sampler {
	return s.sampler
}
