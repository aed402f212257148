package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/gravisales/crm/internal/config"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// New configures the process logger. The TUI owns stdout, so log output goes
// to a file under the data folder; in DEV the file gets human-readable lines.
func New(cfg config.Config) (zerolog.Logger, io.Closer, error) {
	if err := os.MkdirAll(cfg.GetDataFolder(), 0o755); err != nil {
		return zerolog.Nop(), nil, errors.Wrap(err, "[logging.New] ensure data folder")
	}

	path := filepath.Join(cfg.GetDataFolder(), "gravisales.log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, errors.Wrap(err, "[logging.New] open log file")
	}

	level, err := zerolog.ParseLevel(cfg.GetLogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out io.Writer = file
	if cfg.GetEnv() == "DEV" {
		out = zerolog.ConsoleWriter{Out: file, NoColor: true}
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return logger, file, nil
}
