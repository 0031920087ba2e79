package telemetry

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Log formats accepted by NewLogger.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// NewLogger builds a logger writing to w at the named level. An empty level
// means info; an empty format means console.
func NewLogger(w io.Writer, level, format string) (zerolog.Logger, error) {
	if w == nil {
		w = os.Stderr
	}

	lvl := zerolog.InfoLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("log level %q: %w", level, err)
		}
		lvl = parsed
	}

	switch strings.ToLower(format) {
	case "", FormatConsole:
		w = zerolog.NewConsoleWriter(func(cw *zerolog.ConsoleWriter) {
			cw.Out = w
			cw.NoColor = !isTerminal(w)
		})
	case FormatJSON:
	default:
		return zerolog.Nop(), fmt.Errorf("log format %q: want %s or %s", format, FormatConsole, FormatJSON)
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
