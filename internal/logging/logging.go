package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Jberryfresh/DigitalTide-sub003/internal/config"
)

// serviceName is attached to every record so aggregated logs from
// co-deployed services stay separable.
const serviceName = "digitaltide"

// New constructs the service logger from config, writing to stdout.
func New(cfg config.LoggingConfig) (*slog.Logger, error) {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter is New with an explicit destination, for tests and tools
// that capture log output.
func NewWithWriter(cfg config.LoggingConfig, w io.Writer) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: cfg.Level}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("unsupported log format: %s", cfg.Format)
	}

	return slog.New(handler).With(slog.String("service", serviceName)), nil
}
