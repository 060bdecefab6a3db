package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/five82/frontdesk/internal/config"
)

// NewLogger returns the process logger. Records are JSON lines so the logs
// command can filter them. When w is nil the log file from cfg is opened in
// append mode and returned as the closer.
func NewLogger(cfg config.Config, w io.Writer) (zerolog.Logger, io.Closer, error) {
	var closer io.Closer = nopCloser{}
	if w == nil {
		path := cfg.EngineLogPath()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
		}
		w, closer = f, f
	}
	logger := zerolog.New(w).
		Level(cfg.Level()).
		With().
		Timestamp().
		Logger()
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
