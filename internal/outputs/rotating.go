package outputs

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Lunar-Chipter/crystal/internal/config"
)

// OpenRollingFile creates an Output that rotates its file by size through lumberjack
func OpenRollingFile(cfg config.RotationConfig) (*Output, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("%w: rotation path is empty", config.ErrInvalidConfig)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		LocalTime:  cfg.LocalTime,
		Compress:   cfg.Compress,
	}
	return NewOutput(RollingFileName, rotator), nil
}
