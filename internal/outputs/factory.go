package outputs

import (
	"errors"

	"go.uber.org/zap"

	"github.com/Lunar-Chipter/crystal/internal/config"
	"github.com/Lunar-Chipter/crystal/internal/interfaces"
)

// Set holds the appender factories built from a configuration and the
// outputs they share.
type Set struct {
	Factories []interfaces.AppenderFactory
	outputs   []*Output
}

// FromConfig builds appender factories for every enabled output section.
// zapLogger backs the zap appender (nil builds a console zap logger) and
// onError receives buffered write failures.
func FromConfig(cfg *config.Config, zapLogger *zap.Logger, onError func(error)) (*Set, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	set := &Set{}
	add := func(factory interfaces.AppenderFactory) {
		if cfg.SamplingRate > 1 {
			factory = SamplingFactory(factory, cfg.SamplingRate)
		}
		set.Factories = append(set.Factories, factory)
	}

	if cfg.Console.Enabled {
		add(ConsoleFactory)
	}

	if cfg.File != nil {
		var out *Output
		var err error
		if cfg.File.Buffered {
			size, interval := cfg.File.BufferSize, cfg.File.FlushInterval
			if size == 0 {
				size = config.DefaultBuffer
			}
			if interval == 0 {
				interval = config.DefaultFlushTime
			}
			out, _, err = OpenBufferedFile(cfg.File.Path, size, interval, onError)
		} else {
			out, err = OpenFile(cfg.File.Path)
		}
		if err != nil {
			set.Close()
			return nil, err
		}
		set.outputs = append(set.outputs, out)
		add(out.Factory())
	}

	if cfg.Rotation != nil {
		out, err := OpenRollingFile(*cfg.Rotation)
		if err != nil {
			set.Close()
			return nil, err
		}
		set.outputs = append(set.outputs, out)
		add(out.Factory())
	}

	if cfg.Zap.Enabled {
		if zapLogger == nil {
			zapLogger = NewConsoleZapLogger()
		}
		add(ZapFactory(zapLogger))
	}

	set.Factories = append(set.Factories, cfg.Appenders...)
	return set, nil
}

// Outputs returns the shared outputs opened for this set
func (s *Set) Outputs() []*Output {
	return s.outputs
}

// Close closes every output opened for this set
func (s *Set) Close() error {
	var errs []error
	for _, out := range s.outputs {
		if err := out.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
